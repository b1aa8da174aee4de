package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestSolve(t *testing.T) {
	for _, backend := range []string{"gini", "maxsat"} {
		t.Run(backend, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "schedule.csv")
			stdout, stderr, err := run(t, "solve", "--dataset", "testdata/small.yaml", "--backend", backend, "--csv", out, "--dump-metrics")
			require.NoError(t, err, stderr)

			assert.Contains(t, stdout, "cost 0 (optimal)")
			assert.Contains(t, stderr, "rotaplan_solutions_total")

			rows, err := os.ReadFile(out)
			require.NoError(t, err)
			lines := strings.Split(strings.TrimSpace(string(rows)), "\n")
			assert.Equal(t, "resident,rotation,week", lines[0])
			// Two residents assigned every one of four weeks.
			assert.Len(t, lines, 1+8)
		})
	}
}

func TestSolveFromEnvironment(t *testing.T) {
	t.Setenv("ROTAPLAN_DATASET", "testdata/small.yaml")
	t.Setenv("ROTAPLAN_BACKEND", "cplex")
	_, _, err := run(t, "solve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cplex is not a supported backend")
}

func TestSolveFromConfigFile(t *testing.T) {
	config := filepath.Join(t.TempDir(), "rotaplan.yaml")
	require.NoError(t, os.WriteFile(config, []byte("dataset: testdata/small.yaml\nbackend: maxsat\ntime-limit: 10s\n"), 0o600))

	stdout, stderr, err := run(t, "solve", "--config", config)
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, "cost 0 (optimal)")
}

func TestSolveWithoutDataset(t *testing.T) {
	_, _, err := run(t, "solve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no dataset")
}

func TestCompile(t *testing.T) {
	stdout, stderr, err := run(t, "compile", "--dataset", "testdata/small.yaml", "--log-format", "json")
	require.NoError(t, err, stderr)
	assert.True(t, strings.HasPrefix(stdout, "p cnf "), stdout)
	assert.Contains(t, stderr, `"msg":"compiled"`)
}

func TestCompileToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "small.cnf")
	stdout, stderr, err := run(t, "compile", "--dataset", "testdata/small.yaml", "--output", out)
	require.NoError(t, err, stderr)
	assert.Empty(t, stdout)

	cnf, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(cnf), "p cnf "))

	_, _, err = run(t, "compile", "--dataset", "testdata/small.yaml", "--output", filepath.Join(t.TempDir(), "missing", "small.cnf"))
	assert.ErrorContains(t, err, "creating")
}

func TestUnsupportedLogFormat(t *testing.T) {
	_, _, err := run(t, "compile", "--dataset", "testdata/small.yaml", "--log-format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml is not a supported log format")
}

func TestVersion(t *testing.T) {
	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "rotaplan version:")
}
