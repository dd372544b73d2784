package completion

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/eventmap/internal/cmd/completion"
)

func run(t *testing.T, loc completion.Locator, args ...string) string {
	t.Helper()
	root := &cobra.Command{Use: "eventmap"}
	root.AddCommand(newCommand(loc))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"completion"}, args...))
	require.NoError(t, root.Execute())
	return out.String()
}

func TestGenerateCommand(t *testing.T) {
	out := run(t, completion.Locator{}, "bash")
	assert.Contains(t, out, "bash completion")
}

func TestInstallAndUninstallCommands(t *testing.T) {
	t.Setenv("HOMEBREW_PREFIX", "")
	loc := completion.Locator{Home: t.TempDir()}

	out := run(t, loc, "install", "--fish")
	assert.Contains(t, out, "fish completions installed to")
	assert.NotContains(t, out, "zsh")

	out = run(t, loc, "uninstall")
	assert.Contains(t, out, "Removed fish completions")
	assert.Contains(t, out, "No bash completions found")
	assert.Contains(t, out, "No zsh completions found")
}
