package ui

import (
	"bytes"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	prevOut, prevErr := Out, Err
	var out, errBuf bytes.Buffer
	Out, Err = &out, &errBuf
	DisableColor()
	t.Cleanup(func() { Out, Err = prevOut, prevErr })
	return &out, &errBuf
}

func TestPrinters(t *testing.T) {
	out, errBuf := capture(t)

	PrintSuccess("exported %s", "shop")
	PrintWarning("careful")
	PrintError("NOT_FOUND", "No tables found in database shop")
	PrintKV("database", "shop")

	assert.Contains(t, out.String(), "exported shop")
	assert.Contains(t, out.String(), "careful")
	assert.Contains(t, out.String(), "database:")
	assert.Contains(t, errBuf.String(), "[NOT_FOUND] No tables found in database shop")
}

func TestPrintTable(t *testing.T) {
	out, _ := capture(t)

	require.NoError(t, PrintTable([]string{"name", "exists"}, [][]string{{"mysqlExe", "true"}}))
	assert.Contains(t, out.String(), "mysqlExe")
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer

	NewLogger(&buf, false).Debug("hidden")
	assert.Empty(t, buf.String())

	l := NewLogger(&buf, true)
	l.Debug("shown", l.Args("stage", "tables"))
	assert.Contains(t, buf.String(), "shown")
	assert.Equal(t, pterm.LogLevelDebug, l.Level)
}
