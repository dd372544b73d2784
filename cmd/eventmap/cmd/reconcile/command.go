// Package reconcile implements the reconcile command: the merge phase over
// raw-record files collected earlier.
package reconcile

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/eventmap"
	"github.com/agentstation/eventmap/internal/appcontext"
	"github.com/agentstation/eventmap/internal/cmd/output"
	"github.com/agentstation/eventmap/internal/sources/local"
	"github.com/agentstation/eventmap/pkg/errors"
	"github.com/agentstation/eventmap/pkg/events"
	"github.com/agentstation/eventmap/pkg/export"
)

// NewCommand creates the reconcile command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var company, outDir string

	cmd := &cobra.Command{
		Use:     "reconcile <file>...",
		GroupID: "core",
		Short:   "Reconcile raw event records from local files",
		Long: `Reconcile runs the merge phase over JSON or YAML files, one source per
file. Files are merged in the order given, so an earlier file wins a
duplicate. A file may be a list of records, an object with a "records"
list, or a previously exported document.`,
		Example: `  eventmap reconcile finnhub.json news.yaml --company "Acme Corp"
  eventmap reconcile Acme_Corp_events.json -o csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batches, declared, err := load(args)
			if err != nil {
				return err
			}
			if company == "" {
				company = declared
			}
			if company == "" {
				return errors.NewValidationError("company", "", "pass --company or use files that declare one")
			}

			client, err := app.ClientWithOptions(eventmap.WithChains())
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			res, err := client.Reconcile(cmd.Context(), company, batches)
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				app.Logger().Warn().Msg(w)
			}

			if outDir != "" {
				if _, err := export.SaveFiles(outDir, res.Document); err != nil {
					return err
				}
			}

			format := output.DetectFormat(app.OutputFormat())
			if err := output.WriteDocument(cmd.OutOrStdout(), format, res.Document, nil); err != nil {
				return err
			}
			if format == output.FormatTable {
				fmt.Fprintln(cmd.ErrOrStderr(), res.Summary())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&company, "company", "", "company name (default from the first file that declares one)")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "also write <Company>_events.json and .csv to this directory")

	return cmd
}

// load reads every file into a batch and returns the first declared company.
func load(paths []string) ([]events.Batch, string, error) {
	batches := make([]events.Batch, 0, len(paths))
	var company string
	for _, path := range paths {
		f, err := local.Load(path)
		if err != nil {
			return nil, "", err
		}
		if company == "" {
			company = f.Company
		}
		provider := local.New(path).Name()
		records := make([]events.RawRecord, 0, len(f.Records))
		for _, fields := range f.Records {
			records = append(records, events.NewRawRecord(provider, fields))
		}
		batches = append(batches, events.Batch{Source: f.Source, Provider: provider, Records: records})
	}
	return batches, company, nil
}
