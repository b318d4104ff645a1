package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	at := time.Date(2026, 8, 28, 14, 30, 5, 0, time.UTC)
	path, err := w.Write("aapl", `{"symbol": "AAPL"}`, at)
	require.NoError(t, err)

	require.Equal(t, filepath.Join(dir, "AAPL_20260828_143005.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var artifact Artifact
	require.NoError(t, json.Unmarshal(data, &artifact))
	require.Equal(t, "AAPL", artifact.Symbol)
	require.Equal(t, at.Format(time.RFC3339), artifact.AnalysisDate)
	require.Equal(t, `{"symbol": "AAPL"}`, artifact.Report)
}

func TestWriteRejectsEmptySymbol(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	_, err = w.Write("  ", "body", time.Now())
	require.Error(t, err)
}

func TestNewWriterCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	_, err := NewWriter(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestNewWriterRejectsEmptyDir(t *testing.T) {
	_, err := NewWriter("   ")
	require.Error(t, err)
}
