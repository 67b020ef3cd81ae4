package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"text/tabwriter"

	"github.com/spf13/cobra"

	httpapi "github.com/fyrsmithlabs/reflectd/internal/http"
)

var ingestTitle string

func init() {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(factsCmd)
	rootCmd.AddCommand(reextractCmd)
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "Conversation title")
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Store a conversation and its extracted facts",
	Long: `Send a transcript to reflectd. The server redacts it, extracts
candidate facts, and stores only the redacted text.

Examples:
  reflectctl ingest --user alice --title "Standup" standup.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

var factsCmd = &cobra.Command{
	Use:   "facts <conversation-id>",
	Short: "List the stored facts of a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runFacts,
}

var reextractCmd = &cobra.Command{
	Use:   "reextract <conversation-id>",
	Short: "Re-run extraction on a stored conversation with the current rules",
	Args:  cobra.ExactArgs(1),
	RunE:  runReextract,
}

func runIngest(cmd *cobra.Command, args []string) error {
	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	var resp httpapi.IngestResponse
	if err := call(http.MethodPost, "/api/v1/conversations", httpapi.IngestRequest{Title: ingestTitle, Text: text}, &resp); err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, resp)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Conversation: %s\n", resp.Conversation.ID)
	return printFacts(cmd.OutOrStdout(), resp.Facts)
}

func runFacts(cmd *cobra.Command, args []string) error {
	var resp httpapi.FactsResponse
	if err := call(http.MethodGet, "/api/v1/conversations/"+url.PathEscape(args[0])+"/facts", nil, &resp); err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, resp)
	}
	return printFacts(cmd.OutOrStdout(), resp.Facts)
}

func runReextract(cmd *cobra.Command, args []string) error {
	var resp httpapi.IngestResponse
	if err := call(http.MethodPost, "/api/v1/conversations/"+url.PathEscape(args[0])+"/reextract", nil, &resp); err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, resp)
	}
	return printFacts(cmd.OutOrStdout(), resp.Facts)
}

func printFacts(out io.Writer, facts []httpapi.FactResponse) error {
	if len(facts) == 0 {
		fmt.Fprintln(out, "No facts.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tLABEL\tCONFIDENCE\tSTATUS")
	for _, f := range facts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\n", truncate(f.ID, 12), f.Type, truncate(f.Label, 40), f.Confidence, f.Status)
	}
	return w.Flush()
}
