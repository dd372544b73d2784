package completion

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/eventmap/pkg/errors"
)

func TestLocatorPath(t *testing.T) {
	t.Setenv("HOMEBREW_PREFIX", "")
	home := Locator{Home: "/home/u"}
	brew := Locator{Home: "/home/u", BrewPrefix: "/opt/homebrew"}

	tests := []struct {
		loc   Locator
		shell string
		want  string
	}{
		{home, ShellBash, "/home/u/.bash_completion.d/eventmap"},
		{home, ShellZsh, "/home/u/.zsh/completions/_eventmap"},
		{home, ShellFish, "/home/u/.config/fish/completions/eventmap.fish"},
		{brew, ShellBash, "/opt/homebrew/etc/bash_completion.d/eventmap"},
		{brew, ShellZsh, "/opt/homebrew/share/zsh/site-functions/_eventmap"},
		{brew, ShellFish, "/opt/homebrew/share/fish/vendor_completions.d/eventmap.fish"},
	}
	for _, tt := range tests {
		got, err := tt.loc.Path(tt.shell)
		require.NoError(t, err)
		assert.Equal(t, filepath.FromSlash(tt.want), got)
	}

	_, err := home.Path("tcsh")
	assert.True(t, errors.IsValidationError(err))
}

func TestGenerate(t *testing.T) {
	root := &cobra.Command{Use: "eventmap"}
	for _, shell := range []string{ShellBash, ShellZsh, ShellFish, ShellPowerShell} {
		var buf bytes.Buffer
		require.NoError(t, Generate(root, shell, &buf), shell)
		assert.Contains(t, buf.String(), "eventmap", shell)
	}
	assert.Error(t, Generate(root, "tcsh", &bytes.Buffer{}))
}

func TestInstallUninstall(t *testing.T) {
	t.Setenv("HOMEBREW_PREFIX", "")
	loc := Locator{Home: t.TempDir()}
	root := &cobra.Command{Use: "eventmap"}

	path, err := loc.Install(root, ShellZsh)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "eventmap")

	removed, err := loc.Uninstall(ShellZsh)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = loc.Uninstall(ShellZsh)
	require.NoError(t, err)
	assert.False(t, removed)
}
