// Package completion installs and removes shell completion scripts.
package completion

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agentstation/eventmap/pkg/constants"
	"github.com/agentstation/eventmap/pkg/errors"
)

// Shell names accepted by Install, Uninstall and Generate.
const (
	ShellBash       = "bash"
	ShellZsh        = "zsh"
	ShellFish       = "fish"
	ShellPowerShell = "powershell"
)

// Installable lists the shells that have a well known completion directory.
var Installable = []string{ShellBash, ShellZsh, ShellFish}

// Locator resolves completion file paths. The zero value reads the
// environment.
type Locator struct {
	// Name is the program name used for file names. Defaults to "eventmap".
	Name string

	// Home overrides the user home directory.
	Home string

	// BrewPrefix overrides HOMEBREW_PREFIX and brew detection.
	BrewPrefix string
}

func (l Locator) name() string {
	if l.Name == "" {
		return "eventmap"
	}
	return l.Name
}

func (l Locator) home() (string, error) {
	if l.Home != "" {
		return l.Home, nil
	}
	return os.UserHomeDir()
}

func (l Locator) brew() string {
	if l.BrewPrefix != "" {
		return l.BrewPrefix
	}
	if p := os.Getenv("HOMEBREW_PREFIX"); p != "" {
		return p
	}
	if l.Home != "" {
		return ""
	}
	for _, prefix := range []string{"/opt/homebrew", "/usr/local"} {
		if _, err := os.Stat(filepath.Join(prefix, "bin", "brew")); err == nil {
			return prefix
		}
	}
	return ""
}

// Path returns where the completion script for shell is installed.
// Homebrew locations win over the user's home directory.
func (l Locator) Path(shell string) (string, error) {
	name := l.name()
	brew := l.brew()
	switch shell {
	case ShellBash:
		if brew != "" {
			return filepath.Join(brew, "etc", "bash_completion.d", name), nil
		}
	case ShellZsh:
		if brew != "" {
			return filepath.Join(brew, "share", "zsh", "site-functions", "_"+name), nil
		}
	case ShellFish:
		if brew != "" {
			return filepath.Join(brew, "share", "fish", "vendor_completions.d", name+".fish"), nil
		}
	default:
		return "", errors.NewValidationError("shell", shell, "unsupported shell")
	}

	home, err := l.home()
	if err != nil {
		return "", errors.NewIOError("resolve", "home", err)
	}
	switch shell {
	case ShellBash:
		return filepath.Join(home, ".bash_completion.d", name), nil
	case ShellZsh:
		return filepath.Join(home, ".zsh", "completions", "_"+name), nil
	default:
		return filepath.Join(home, ".config", "fish", "completions", name+".fish"), nil
	}
}

// Generate writes the completion script for shell to w.
func Generate(root *cobra.Command, shell string, w io.Writer) error {
	switch shell {
	case ShellBash:
		return root.GenBashCompletion(w)
	case ShellZsh:
		return root.GenZshCompletion(w)
	case ShellFish:
		return root.GenFishCompletion(w, true)
	case ShellPowerShell:
		return root.GenPowerShellCompletionWithDesc(w)
	default:
		return errors.NewValidationError("shell", shell, "unsupported shell")
	}
}

// Install writes the completion script for shell to its system location and
// returns the path written.
func (l Locator) Install(root *cobra.Command, shell string) (string, error) {
	target, err := l.Path(shell)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), constants.DirPermissions); err != nil {
		return "", errors.NewIOError("create", filepath.Dir(target), err)
	}

	file, err := os.Create(target) // #nosec G304 - target comes from Path
	if err != nil {
		return "", errors.NewIOError("create", target, err)
	}
	if err := Generate(root, shell, file); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("generating %s completion: %w", shell, err)
	}
	if err := file.Close(); err != nil {
		return "", errors.NewIOError("close", target, err)
	}
	return target, nil
}

// Uninstall removes the completion script for shell. It reports whether a
// file was removed.
func (l Locator) Uninstall(shell string) (bool, error) {
	target, err := l.Path(shell)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(target)
	if err != nil || info.IsDir() {
		return false, nil
	}
	if err := os.Remove(target); err != nil {
		return false, errors.NewIOError("remove", target, err)
	}
	return true, nil
}
