// Package events implements the events command: the full pipeline over
// the configured sources for one company.
package events

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/eventmap"
	"github.com/agentstation/eventmap/internal/appcontext"
	"github.com/agentstation/eventmap/internal/cmd/output"
	"github.com/agentstation/eventmap/pkg/export"
	"github.com/agentstation/eventmap/pkg/provenance"
	"github.com/agentstation/eventmap/pkg/sources"
)

// Flags are the events command flags.
type Flags struct {
	Years          int
	Symbol         string
	OutDir         string
	ProvenanceFile string
}

// NewCommand creates the events command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "events <company>",
		GroupID: "core",
		Short:   "Fetch and reconcile corporate events for a company",
		Long: `Events queries every configured source for the company's corporate
actions, merges the results, and prints them grouped by year.

Sources are tried concurrently; inside a source, providers are tried in
order until one returns records. A source whose providers all fail is
reported and skipped.`,
		Example: `  eventmap events "Acme Corp"                       # Year-grouped table
  eventmap events "Acme Corp" --years 3 -o json     # Last three years as JSON
  eventmap events Alphabet --symbol GOOGL --out-dir ./out`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, strings.Join(args, " "), flags)
		},
	}

	cmd.Flags().IntVar(&flags.Years, "years", 0, "retention window in years (default from config)")
	cmd.Flags().StringVar(&flags.Symbol, "symbol", "", "ticker symbol for providers that query by symbol")
	cmd.Flags().StringVar(&flags.OutDir, "out-dir", "", "also write <Company>_events.json and .csv to this directory")
	cmd.Flags().StringVar(&flags.ProvenanceFile, "provenance", "", "write the provenance report as YAML to this file")

	return cmd
}

func run(cmd *cobra.Command, app appcontext.Interface, company string, flags *Flags) error {
	logger := app.Logger()

	client, closeClient, err := clientFor(cmd, app, flags)
	if err != nil {
		return err
	}
	defer closeClient()

	client.OnSourceFailed(func(o sources.Outcome) {
		logger.Warn().Err(o.Err()).Str("source", string(o.Source)).Msg("Source unavailable")
	})

	res, err := client.Events(cmd.Context(), company, eventmap.WithSymbol(flags.Symbol))
	if err != nil {
		return err
	}

	if flags.OutDir != "" {
		paths, err := export.SaveFiles(flags.OutDir, res.Document)
		if err != nil {
			return err
		}
		logger.Info().Str("json", paths.JSON).Str("csv", paths.CSV).Msg("Saved results")
	}
	if flags.ProvenanceFile != "" {
		if err := provenance.Save(flags.ProvenanceFile, &provenance.File{Company: res.Company, Provenance: res.Provenance}); err != nil {
			return err
		}
	}

	var prov provenance.Map
	if app.Verbose() {
		prov = res.Provenance
	}
	format := output.DetectFormat(app.OutputFormat())
	if err := output.WriteDocument(cmd.OutOrStdout(), format, res.Document, prov); err != nil {
		return err
	}
	if format == output.FormatTable {
		fmt.Fprintln(cmd.ErrOrStderr(), res.Summary())
	}
	return nil
}

// clientFor returns the shared client, or a dedicated one when flags
// override the configuration.
func clientFor(cmd *cobra.Command, app appcontext.Interface, flags *Flags) (eventmap.Client, func(), error) {
	if !cmd.Flags().Changed("years") {
		c, err := app.Client()
		return c, func() {}, err
	}
	c, err := app.ClientWithOptions(eventmap.WithRetentionYears(flags.Years))
	if err != nil {
		return nil, nil, err
	}
	return c, func() { _ = c.Close() }, nil
}
