// Package main implements reflectctl, a CLI for the reflectd HTTP API.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	httpapi "github.com/fyrsmithlabs/reflectd/internal/http"
)

var (
	// serverURL is the base URL of the reflectd HTTP server
	serverURL string
	// userID is sent in the identity header on /api/v1 calls
	userID string
	// userHeader names the identity header
	userHeader string
	// outputJSON prints raw JSON responses
	outputJSON bool

	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "reflectctl",
	Short: "CLI for reflectd HTTP server operations",
	Long: `reflectctl is a command-line interface for the reflectd HTTP server.
It redacts and mines transcripts, stores conversations, and drives the
event review queue (candidates, promote, dismiss).`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9191", "reflectd server URL")
	rootCmd.PersistentFlags().StringVar(&userID, "user", os.Getenv("REFLECTD_USER"), "user id sent with API requests (env REFLECTD_USER)")
	rootCmd.PersistentFlags().StringVar(&userHeader, "user-header", "X-User-ID", "identity header name")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output results as JSON")
	rootCmd.AddCommand(healthCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check reflectd server health",
	Long: `Check the health status of the reflectd HTTP server.

Examples:
  reflectctl health
  reflectctl health --server http://localhost:9292`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	var resp httpapi.HealthResponse
	if err := call(http.MethodGet, "/health", nil, &resp); err != nil {
		return err
	}
	if outputJSON {
		return printJSON(cmd, resp)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Server Status: %s\n", resp.Status)
	fmt.Fprintf(out, "Server URL: %s\n", serverURL)
	if resp.Telemetry != nil {
		fmt.Fprintf(out, "Telemetry: healthy=%t degraded=%t\n", resp.Telemetry.Healthy, resp.Telemetry.Degraded)
	}
	return nil
}

// call sends a JSON request and decodes a JSON response into out. out may
// be nil for empty responses.
func call(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	url := strings.TrimRight(serverURL, "/") + path
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.HasPrefix(path, "/api/") {
		if userID == "" {
			return fmt.Errorf("--user (or REFLECTD_USER) is required")
		}
		req.Header.Set(userHeader, userID)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// readInput reads the file named by args[0], or stdin when absent or "-".
func readInput(cmd *cobra.Command, args []string) (string, error) {
	var (
		content []byte
		err     error
	)
	if len(args) == 0 || args[0] == "-" {
		content, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		content, err = os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
	}
	if len(content) == 0 {
		return "", fmt.Errorf("no input")
	}
	return string(content), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
