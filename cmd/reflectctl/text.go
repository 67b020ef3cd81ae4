package main

import (
	"fmt"
	"net/http"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	httpapi "github.com/fyrsmithlabs/reflectd/internal/http"
)

var redactCheck bool

func init() {
	rootCmd.AddCommand(redactCmd)
	rootCmd.AddCommand(extractCmd)
	redactCmd.Flags().BoolVar(&redactCheck, "check", false, "Only report whether the input contains PII (non-zero exit when it does)")
}

var redactCmd = &cobra.Command{
	Use:   "redact [file]",
	Short: "Redact PII from a file or stdin",
	Long: `Redact personally identifiable information from a file or stdin.
The redacted text is written to stdout; per-category counts go to stderr.

Examples:
  # Redact a transcript
  reflectctl redact --user alice meeting.txt

  # Redact from stdin
  pbpaste | reflectctl redact --user alice -

  # Only check for PII
  reflectctl redact --user alice --check notes.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRedact,
}

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract candidate facts from a transcript",
	Long: `Extract people, organizations and commitments from a transcript.
The text is redacted on the server before extraction; nothing is stored.

Examples:
  reflectctl extract --user alice standup.txt
  cat standup.txt | reflectctl extract --user alice --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

// errContainsPII makes --check exit non-zero when PII was found.
type errContainsPII struct{}

func (errContainsPII) Error() string { return "input contains PII" }

func runRedact(cmd *cobra.Command, args []string) error {
	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	if redactCheck {
		var resp httpapi.ContainsPIIResponse
		if err := call(http.MethodPost, "/api/v1/redact/check", httpapi.TextRequest{Text: text}, &resp); err != nil {
			return err
		}
		if outputJSON {
			return printJSON(cmd, resp)
		}
		if resp.ContainsPII {
			return errContainsPII{}
		}
		fmt.Fprintln(cmd.OutOrStdout(), "no PII found")
		return nil
	}

	var resp httpapi.RedactResponse
	if err := call(http.MethodPost, "/api/v1/redact", httpapi.TextRequest{Text: text}, &resp); err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, resp)
	}
	fmt.Fprint(cmd.OutOrStdout(), resp.Redacted)
	if resp.Total > 0 {
		categories := make([]string, 0, len(resp.ByCategory))
		for category := range resp.ByCategory {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		fmt.Fprintf(cmd.ErrOrStderr(), "\n[reflectctl] Redacted %d match(es):", resp.Total)
		for _, category := range categories {
			fmt.Fprintf(cmd.ErrOrStderr(), " %s=%d", category, resp.ByCategory[category])
		}
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	var resp httpapi.ExtractResponse
	if err := call(http.MethodPost, "/api/v1/extract", httpapi.TextRequest{Text: text}, &resp); err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, resp)
	}
	if len(resp.Items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No items found.")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tLABEL\tCONFIDENCE\tTAGS")
	for _, item := range resp.Items {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%v\n", item.Type, truncate(item.Label, 40), item.Confidence, item.Tags)
	}
	return w.Flush()
}
