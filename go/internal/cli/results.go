package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcdev12/twinflash/go/internal/game/outbox"
	"github.com/mcdev12/twinflash/go/internal/game/results"
)

// ResultsOptions holds flags for the results command.
type ResultsOptions struct {
	URL    string
	Limit  int32
	Format string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewResultsCommand creates the results command.
func NewResultsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResultsOptions{}

	cmd := &cobra.Command{
		Use:   "results",
		Short: "List recent games from a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.URL == "" {
				opts.URL = rootOpts.Config.Server.ResultsURL
			}
			client := results.NewClient(&http.Client{Timeout: 10 * time.Second}, opts.URL)
			return runResults(cmd.Context(), client, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.URL, "url", "", "results API base URL (overrides config)")
	cmd.Flags().Int32VarP(&opts.Limit, "limit", "n", results.DefaultLimit, "number of games")
	cmd.Flags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	return cmd
}

func runResults(ctx context.Context, lister results.ResultLister, opts *ResultsOptions, w io.Writer) error {
	list, err := lister.ListRecentResults(ctx, opts.Limit)
	if err != nil {
		return fmt.Errorf("list results: %w", err)
	}

	if opts.Format == "json" {
		if list == nil {
			list = []outbox.StoredResult{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "no games yet")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STOPPED\tMODE\tRESULT\tPOINTS\tSUCCESSES\tFAILURES\tITERATIONS")
	for _, r := range list {
		verdict := "lose"
		if r.Winner {
			verdict = "win"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%d\t%d\t%d\n",
			r.StoppedAt.Local().Format(time.DateTime), r.Mode, verdict, r.Points, r.Successes, r.Failures, r.Iterations)
	}
	return tw.Flush()
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
