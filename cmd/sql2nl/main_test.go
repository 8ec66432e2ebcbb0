// Package main provides tests for the sql2nl CLI.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sql2nl/internal/cli"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sql2nl")
}

func TestHelpCommand(t *testing.T) {
	out, err := run(t, "", "--help")
	require.NoError(t, err)
	for _, want := range []string{"explain", "serve", "eval", "watch"} {
		assert.Contains(t, out, want)
	}
}

func TestExplainPipedFile(t *testing.T) {
	sql, err := os.ReadFile(filepath.Join("..", "..", "pkg", "explain", "testdata", "queries", "spectrum_join.sql"))
	require.NoError(t, err)

	golden, err := os.ReadFile(filepath.Join("..", "..", "pkg", "explain", "testdata", "golden", "spectrum_join.golden"))
	require.NoError(t, err)

	out, err := run(t, string(sql), "explain")
	require.NoError(t, err)
	assert.Equal(t, string(golden), out)
}

func TestUnknownCommand(t *testing.T) {
	_, err := run(t, "", "frobnicate")
	require.Error(t, err)
}
