package commands

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-partial-extract/pkg/report"
)

var fixtures = filepath.Join("..", "..", "..", "testdata", "java")

func run(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GPX_CACHE_ENABLED", "false")

	var buf bytes.Buffer
	RootCmd.SetOut(&buf)
	RootCmd.SetErr(&buf)
	RootCmd.SetArgs(args)
	require.NoError(t, RootCmd.Execute())
	return buf.String()
}

func TestOpportunitiesCommand(t *testing.T) {
	out := run(t, "opportunities", filepath.Join(fixtures, "Accumulator.java"), "m",
		"--start", "3", "--end", "7", "--format", "json")

	var r report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "m", r.Method)
	assert.Equal(t, 3, r.StartLine)

	var zz *report.Group
	for i := range r.Groups {
		if r.Groups[i].Variable == "zz" {
			zz = &r.Groups[i]
		}
	}
	require.NotNil(t, zz)
	assert.Equal(t, []int{3, 5, 7}, zz.Slices[0].Statements)
}

func TestScanCommand(t *testing.T) {
	out := run(t, "scan", fixtures, "--format", "json")

	var rows []report.MethodSummary
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)

	assert.Equal(t, "Accumulator.java", rows[0].File)
	assert.Equal(t, "m", rows[0].Method)
	assert.Positive(t, rows[0].Opportunities)
	assert.Empty(t, rows[0].Error)

	assert.Equal(t, "broken", rows[1].Method)
	assert.Contains(t, rows[1].Error, "cannot analyze this method")
}
