package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/eventmap/cmd/eventmap/cmd/completion"
	"github.com/agentstation/eventmap/cmd/eventmap/cmd/events"
	"github.com/agentstation/eventmap/cmd/eventmap/cmd/reconcile"
	sourcescmd "github.com/agentstation/eventmap/cmd/eventmap/cmd/sources"
	"github.com/agentstation/eventmap/cmd/eventmap/cmd/version"
	"github.com/agentstation/eventmap/internal/cmd/output"
	"github.com/agentstation/eventmap/pkg/logging"
)

// Execute runs the eventmap CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "eventmap",
		Short:   "Corporate event reconciliation CLI",
		Version: a.version,
		Long: `Eventmap gathers corporate actions for a company (acquisitions, mergers,
investments, offerings, buybacks) from financial data feeds, news search,
and language-model extraction, then merges them into one deduplicated list
graded by source authority.

API keys are read from FINNHUB_API_KEY, OPEN_ROUTER_KEY and GEMINI_API_KEY.
Sources without a key are skipped in favour of the next provider in their
fallback chain.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})

	// Add global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default is $HOME/.eventmap.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringP("format", "o", "", "output format: table, json, yaml, csv")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")

	rootCmd.SetVersionTemplate("eventmap {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	// An explicit config file replaces the one found at startup
	if path := mustGetString(cmd, "config"); path != "" {
		cfg, err := LoadConfig(path)
		if err != nil {
			return err
		}
		a.config = cfg
	}

	a.config.UpdateFromFlags(
		mustGetBool(cmd, "verbose"),
		mustGetBool(cmd, "quiet"),
		mustGetBool(cmd, "no-color"),
		mustGetString(cmd, "format"),
		mustGetString(cmd, "log-level"),
	)
	if _, err := output.ParseFormat(a.config.Format); err != nil {
		return err
	}

	// Reinitialize logger with updated config
	logger := NewLogger(a.config)
	a.logger = &logger
	logging.SetDefault(logger)
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))

	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(events.NewCommand(a))
	rootCmd.AddCommand(reconcile.NewCommand(a))
	rootCmd.AddCommand(sourcescmd.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(completion.NewCommand())
	rootCmd.AddCommand(version.NewCommand(a))
}

// ExitOnError is a helper that prints an error and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		//nolint:errcheck // Ignoring write error since we're exiting anyway
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
