package commands_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/bstviz/cmd/bstviz/commands"
	"github.com/Sumatoshi-tech/bstviz/internal/command"
	"github.com/Sumatoshi-tech/bstviz/internal/scenario"
)

const passingScenario = `name: smoke
seed: [50, 25, 75]
dt: 0.5
steps:
  - do: insert 60
    settle: true
    expect:
      inorder: "25 50 60 75"
      status: "Inserted: 60"
  - do: search 60
    settle: true
    expect:
      status: "Found: 60"
`

const failingScenario = `name: wrong
seed: [50]
steps:
  - do: insert 1
    expect:
      size: 3
`

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	root := &cobra.Command{Use: "bstviz", SilenceUsage: true, SilenceErrors: true}
	commands.AddGlobalFlags(root)
	root.AddCommand(cmd)

	var out, errOut bytes.Buffer

	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{cmd.Name()}, args...))

	err := root.Execute()

	return out.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestRunPassingScenario(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, "smoke.yaml", passingScenario)

	out, err := execute(t, commands.NewRunCommand(), path, "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "PASS smoke (2 steps)")
	assert.Contains(t, out, "insert 60")
}

func TestRunFailingScenario(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, "wrong.yaml", failingScenario)

	out, err := execute(t, commands.NewRunCommand(), path, "--no-color")
	require.ErrorIs(t, err, scenario.ErrExpectationFailed)
	assert.Contains(t, out, "FAIL wrong (1 mismatches)")
	assert.Contains(t, out, "size: want 3, got 2")
}

func TestRunWritesStoryboard(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, "smoke.yaml", passingScenario)
	html := filepath.Join(t.TempDir(), "story.html")

	out, err := execute(t, commands.NewRunCommand(), path, "--no-color", "--html", html, "--frames", "4", "--theme", "light")
	require.NoError(t, err)
	assert.Contains(t, out, "recorded ")

	data, err := os.ReadFile(html)
	require.NoError(t, err)
	assert.Contains(t, string(data), "echarts")
	assert.Contains(t, string(data), "smoke")
}

func TestRunRejectsBadFlags(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, "smoke.yaml", passingScenario)

	_, err := execute(t, commands.NewRunCommand(), path, "--dt", "-1")
	require.ErrorIs(t, err, commands.ErrInvalidFlag)

	_, err = execute(t, commands.NewRunCommand(), path, "--theme", "neon")
	require.Error(t, err)

	_, err = execute(t, commands.NewRunCommand(), path, "--log-level", "loud")
	require.Error(t, err)

	_, err = execute(t, commands.NewRunCommand(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestRunUsesConfigFile(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, "smoke.yaml", passingScenario)
	cfgPath := writeTemp(t, "bstviz.yaml", "animation:\n  settle_ticks: 1\n")

	// One settle tick is not enough for the search to report.
	_, err := execute(t, commands.NewRunCommand(), path, "--no-color", "--config", cfgPath)
	require.ErrorIs(t, err, scenario.ErrExpectationFailed)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	good := writeTemp(t, "smoke.yaml", passingScenario)
	bad := writeTemp(t, "bad.yaml", "name: \"\"\nsteps: []\n")

	out, err := execute(t, commands.NewValidateCommand(), good)
	require.NoError(t, err)
	assert.Contains(t, out, "ok (smoke, 2 steps)")

	out, err = execute(t, commands.NewValidateCommand(), good, bad)
	require.ErrorIs(t, err, scenario.ErrInvalidScenario)
	assert.Contains(t, out, bad+": ")

	_, err = execute(t, commands.NewValidateCommand())
	require.ErrorIs(t, err, commands.ErrInvalidFlag)
}

func TestValidatePrintsSchema(t *testing.T) {
	t.Parallel()

	out, err := execute(t, commands.NewValidateCommand(), "--schema")
	require.NoError(t, err)
	assert.Equal(t, string(scenario.Schema()), out)
}

func TestShowPrintsSettledTree(t *testing.T) {
	t.Parallel()

	html := filepath.Join(t.TempDir(), "tree.html")

	out, err := execute(t, commands.NewShowCommand(), "50", "25", "75", "--no-color", "--html", html)
	require.NoError(t, err)
	assert.Contains(t, out, "┌── 75")
	assert.Contains(t, out, "└── 25")
	assert.Contains(t, out, "25 50 75")

	_, err = os.Stat(html)
	require.NoError(t, err)
}

func TestShowUsesSeedWithoutKeys(t *testing.T) {
	t.Parallel()

	out, err := execute(t, commands.NewShowCommand(), "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "Size")
}

func TestShowRejectsInvalidKey(t *testing.T) {
	t.Parallel()

	_, err := execute(t, commands.NewShowCommand(), "5", "123")
	require.ErrorIs(t, err, command.ErrInvalidInput)
}

func TestServeFlags(t *testing.T) {
	t.Parallel()

	cmd := commands.NewServeCommand()
	assert.Equal(t, "serve", cmd.Use)

	host := cmd.Flags().Lookup("host")
	require.NotNil(t, host)
	assert.Equal(t, "127.0.0.1", host.DefValue)

	port := cmd.Flags().Lookup("port")
	require.NotNil(t, port)
	assert.Equal(t, "8080", port.DefValue)
}

func TestServeRejectsInvalidPort(t *testing.T) {
	t.Parallel()

	_, err := execute(t, commands.NewServeCommand(), "--port", "-1")
	require.Error(t, err)
}

func TestMCPCommand_Exists(t *testing.T) {
	t.Parallel()

	cmd := commands.NewMCPCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "mcp", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
}

func TestMCPCommand_DebugFlag(t *testing.T) {
	t.Parallel()

	cmd := commands.NewMCPCommand()
	flag := cmd.Flags().Lookup("debug")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}
