// Package completion implements the completion command and its
// install/uninstall subcommands.
package completion

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/eventmap/internal/cmd/completion"
)

// NewCommand creates the completion command. It replaces cobra's generated
// completion command so install and uninstall sit next to the generators.
func NewCommand() *cobra.Command {
	return newCommand(completion.Locator{})
}

func newCommand(loc completion.Locator) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Manage shell completions",
		Long: `Manage shell completions for eventmap.

Generate a completion script to stdout, or install it for your shell.

Examples:
  # Load bash completions in the current session
  source <(eventmap completion bash)

  # Install completions for bash, zsh and fish
  eventmap completion install

  # Remove zsh completions only
  eventmap completion uninstall --zsh`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	for _, shell := range []string{completion.ShellBash, completion.ShellZsh, completion.ShellFish, completion.ShellPowerShell} {
		cmd.AddCommand(&cobra.Command{
			Use:                   shell,
			Short:                 fmt.Sprintf("Generate %s completion script", shell),
			Args:                  cobra.NoArgs,
			DisableFlagsInUseLine: true,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return completion.Generate(cmd.Root(), shell, cmd.OutOrStdout())
			},
		})
	}

	cmd.AddCommand(newInstallCommand(loc))
	cmd.AddCommand(newUninstallCommand(loc))
	return cmd
}

func newInstallCommand(loc completion.Locator) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install shell completions",
		Long:  `Install shell completions. Without flags, installs for bash, zsh and fish.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			var failed []string
			for _, shell := range selected(cmd) {
				path, err := loc.Install(cmd.Root(), shell)
				if err != nil {
					failed = append(failed, fmt.Sprintf("%s: %v", shell, err))
					continue
				}
				fmt.Fprintf(w, "✓ %s completions installed to: %s\n", shell, path)
			}
			if len(failed) > 0 {
				return fmt.Errorf("failed to install completions:\n  %s", strings.Join(failed, "\n  "))
			}
			fmt.Fprintln(w, "Start a new shell session to enable completions.")
			return nil
		},
	}
	addShellFlags(cmd)
	return cmd
}

func newUninstallCommand(loc completion.Locator) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove shell completions",
		Long:  `Remove installed shell completions. Without flags, removes them for bash, zsh and fish.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			var failed []string
			for _, shell := range selected(cmd) {
				removed, err := loc.Uninstall(shell)
				switch {
				case err != nil:
					failed = append(failed, fmt.Sprintf("%s: %v", shell, err))
				case removed:
					fmt.Fprintf(w, "✓ Removed %s completions\n", shell)
				default:
					fmt.Fprintf(w, "No %s completions found\n", shell)
				}
			}
			if len(failed) > 0 {
				return fmt.Errorf("failed to uninstall completions:\n  %s", strings.Join(failed, "\n  "))
			}
			return nil
		},
	}
	addShellFlags(cmd)
	return cmd
}

func addShellFlags(cmd *cobra.Command) {
	for _, shell := range completion.Installable {
		cmd.Flags().Bool(shell, false, fmt.Sprintf("Only %s", shell))
	}
}

// selected returns the shells named by flags, or every installable shell.
func selected(cmd *cobra.Command) []string {
	var shells []string
	for _, shell := range completion.Installable {
		if on, _ := cmd.Flags().GetBool(shell); on {
			shells = append(shells, shell)
		}
	}
	if len(shells) == 0 {
		return completion.Installable
	}
	return shells
}
