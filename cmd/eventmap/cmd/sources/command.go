// Package sources implements the sources command, which lists the
// configured fallback chains.
package sources

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentstation/eventmap/internal/appcontext"
	"github.com/agentstation/eventmap/internal/config"
	"github.com/agentstation/eventmap/internal/cmd/output"
	"github.com/agentstation/eventmap/internal/sources/providers/registry"
)

// Row describes one provider of a chain.
type Row struct {
	Source      string `json:"source" yaml:"source"`
	Order       int    `json:"order" yaml:"order"`
	Provider    string `json:"provider" yaml:"provider"`
	Timeout     string `json:"timeout" yaml:"timeout"`
	Credentials string `json:"credentials" yaml:"credentials"`
}

// Credential states.
const (
	CredentialsPresent   = "present"
	CredentialsMissing   = "missing"
	CredentialsNotNeeded = "not needed"
	CredentialsUnknown   = "unknown provider"
)

// NewCommand creates the sources command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "sources",
		GroupID: "core",
		Short:   "List source chains and provider credentials",
		Long: `Sources lists each logical source, its providers in fallback order, the
per-call timeout, and whether the credentials a provider needs are set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows := Rows(app)
			format := output.DetectFormat(app.OutputFormat())
			if format == output.FormatJSON || format == output.FormatYAML {
				return output.NewFormatter(format).Format(cmd.OutOrStdout(), rows)
			}
			return output.NewFormatter(output.FormatTable).Format(cmd.OutOrStdout(), toData(rows))
		},
	}
}

// Rows lists every provider of every chain in merge order.
func Rows(app appcontext.Interface) []Row {
	creds := app.Credentials()
	var rows []Row
	for _, ch := range app.Chains() {
		for i, name := range ch.Providers {
			rows = append(rows, Row{
				Source:      string(ch.ID),
				Order:       i + 1,
				Provider:    name,
				Timeout:     ch.Timeout.String(),
				Credentials: credentialState(name, creds),
			})
		}
	}
	return rows
}

func credentialState(name string, creds *config.Credentials) string {
	e, ok := registry.Lookup(name)
	switch {
	case !ok:
		return CredentialsUnknown
	case e.Credential == "":
		return CredentialsNotNeeded
	case creds.Has(e.Credential):
		return CredentialsPresent
	default:
		return CredentialsMissing
	}
}

func toData(rows []Row) output.Data {
	data := output.Data{
		Headers:         []string{"Source", "#", "Provider", "Timeout", "Credentials"},
		ColumnAlignment: []output.Align{output.AlignLeft, output.AlignRight, output.AlignLeft, output.AlignRight, output.AlignLeft},
	}
	for _, r := range rows {
		data.Rows = append(data.Rows, []string{r.Source, strconv.Itoa(r.Order), r.Provider, r.Timeout, r.Credentials})
	}
	return data
}
