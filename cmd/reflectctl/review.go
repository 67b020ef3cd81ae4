package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	httpapi "github.com/fyrsmithlabs/reflectd/internal/http"
)

var (
	promoteAttrs    []string
	promoteMetadata []string
)

func init() {
	rootCmd.AddCommand(candidatesCmd)
	rootCmd.AddCommand(promoteCmd)
	rootCmd.AddCommand(dismissCmd)
	rootCmd.AddCommand(wisdomCmd)

	promoteCmd.Flags().StringArrayVar(&promoteAttrs, "attr", nil, "Relational attribute to merge into the event's hub (repeatable)")
	promoteCmd.Flags().StringArrayVar(&promoteMetadata, "meta", nil, "Signal metadata as key=value (repeatable)")
}

var candidatesCmd = &cobra.Command{
	Use:   "candidates <hub-id>",
	Short: "List a hub's events ranked for review",
	Long: `List the unreviewed events of a hub, heaviest first.

Examples:
  reflectctl candidates --user alice hub-123`,
	Args: cobra.ExactArgs(1),
	RunE: runCandidates,
}

var promoteCmd = &cobra.Command{
	Use:   "promote <event-id>",
	Short: "Accept an event as a signal",
	Long: `Promote an event into a signal. Attributes are merged into the
event's hub and propagated asynchronously.

Examples:
  reflectctl promote --user alice ev-42
  reflectctl promote --user alice ev-42 --attr family --attr travel --meta mood=good`,
	Args: cobra.ExactArgs(1),
	RunE: runPromote,
}

var dismissCmd = &cobra.Command{
	Use:   "dismiss <event-id>",
	Short: "Dismiss an event from review",
	Args:  cobra.ExactArgs(1),
	RunE:  runDismiss,
}

var wisdomCmd = &cobra.Command{
	Use:   "wisdom",
	Short: "Show propagated attribute tallies",
	Args:  cobra.NoArgs,
	RunE:  runWisdom,
}

func runCandidates(cmd *cobra.Command, args []string) error {
	var resp httpapi.CandidatesResponse
	if err := call(http.MethodGet, "/api/v1/hubs/"+url.PathEscape(args[0])+"/candidates", nil, &resp); err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, resp)
	}
	if len(resp.Candidates) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No candidates.")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EVENT\tWEIGHT\tREASON\tSTART\tTITLE")
	for _, c := range resp.Candidates {
		fmt.Fprintf(w, "%s\t%.1f\t%s\t%s\t%s\n",
			truncate(c.EventID, 12), c.Weight, c.Reason, c.StartAt.Format("2006-01-02 15:04"), truncate(c.Title, 40))
	}
	return w.Flush()
}

func runPromote(cmd *cobra.Command, args []string) error {
	metadata, err := parseMetadata(promoteMetadata)
	if err != nil {
		return err
	}
	body := httpapi.PromoteRequestBody{Metadata: metadata, Attributes: promoteAttrs}
	var resp httpapi.PromoteResponse
	if err := call(http.MethodPost, "/api/v1/events/"+url.PathEscape(args[0])+"/promote", body, &resp); err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, resp)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Signal: %s\n", resp.Signal.ID)
	if len(resp.HubMetadata) > 0 {
		fmt.Fprintf(out, "Hub metadata: %s\n", strings.Join(resp.HubMetadata, ", "))
	}
	if resp.PropagationError != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "[reflectctl] propagation not sent: %s\n", resp.PropagationError)
	}
	return nil
}

func runDismiss(cmd *cobra.Command, args []string) error {
	if err := call(http.MethodPost, "/api/v1/events/"+url.PathEscape(args[0])+"/dismiss", nil, nil); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Dismissed %s\n", args[0])
	return nil
}

func runWisdom(cmd *cobra.Command, args []string) error {
	var resp httpapi.WisdomResponse
	if err := call(http.MethodGet, "/api/v1/wisdom", nil, &resp); err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, resp)
	}
	if len(resp.Entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No wisdom yet.")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ATTRIBUTE\tCOUNT\tLAST SOURCE")
	for _, e := range resp.Entries {
		fmt.Fprintf(w, "%s\t%d\t%s\n", e.Attribute, e.Occurrences, truncate(e.LastSourceTitle, 40))
	}
	return w.Flush()
}

// parseMetadata turns key=value pairs into a metadata map.
func parseMetadata(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --meta %q: want key=value", pair)
		}
		out[key] = value
	}
	return out, nil
}
