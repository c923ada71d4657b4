package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/mathquill/cmd/mqtree/commands"
	"github.com/bpowers/mathquill/pkg/script"
)

const middleInsert = `name: middle insert
steps:
  - {op: create, nodes: [P], kind: block}
  - {op: create, nodes: [A, B]}
  - {op: chain, nodes: [A, B]}
  - {op: adopt, first: A, last: B, parent: P}
  - {op: create, nodes: [D]}
  - {op: adopt, first: D, last: D, parent: P, left: A, right: B}
expect: P(A D B)
`

const wrongExpect = `name: wrong expect
steps:
  - {op: create, nodes: [P], kind: block}
expect: Q
`

func writeScript(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "script.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	root := commands.NewRootCommand()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.ExecuteContext(context.Background())

	return stdout.String(), stderr.String(), err
}

func TestRunTextOutput(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "", "run", writeScript(t, middleInsert))
	require.NoError(t, err)

	assert.Equal(t, "P(A D B)\n", stdout)
}

func TestRunFromStdin(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, middleInsert, "run", "-")
	require.NoError(t, err)

	assert.Equal(t, "P(A D B)\n", stdout)
}

func TestRunTableOutput(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "", "run", "--format", "table", writeScript(t, middleInsert))
	require.NoError(t, err)

	assert.Contains(t, stdout, "NAME")
	assert.Contains(t, stdout, "block")
	assert.Contains(t, stdout, "TOTAL")
}

func TestRunJSONOutput(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "", "run", "--format", "json", "--assertions", writeScript(t, middleInsert))
	require.NoError(t, err)

	var result script.Result

	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.True(t, result.Passed)
	assert.Equal(t, "P(A D B)", result.Rendering)
	assert.Len(t, result.Nodes, 4)
}

func TestRunReportsExpectationDiff(t *testing.T) {
	t.Parallel()

	stdout, stderr, err := execute(t, "", "run", writeScript(t, wrongExpect))
	require.ErrorIs(t, err, script.ErrExpectation)

	assert.Equal(t, "P\n", stdout)
	assert.Contains(t, stderr, "rendering differs")
	assert.Contains(t, stderr, "-Q")
	assert.Contains(t, stderr, "+P")
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "", "run", "--format", "xml", writeScript(t, middleInsert))
	require.ErrorIs(t, err, commands.ErrUnsupportedFormat)
}

func TestRunMissingFile(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "", "run", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "", "validate", writeScript(t, middleInsert))
	require.NoError(t, err)
	assert.Contains(t, stdout, "script is valid")

	stdout, _, err = execute(t, "steps:\n  - {op: explode}\n", "validate", "-")
	require.ErrorIs(t, err, script.ErrInvalidScript)
	assert.Contains(t, stdout, "script validation failed (stdin)")
	assert.Contains(t, stdout, "Errors:")
}

func TestBench(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "", "bench",
		"--rounds", "2", "--nodes", "40", "--splices", "30", "--hibernation-threshold", "1")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Splices")
	assert.Contains(t, stdout, "Hibernations")
}

func TestBenchRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "", "bench", "--rounds", "0", "--quiet")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "mqtree "))
	assert.Contains(t, stdout, "commit:")
}
