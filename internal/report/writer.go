// Package report persists finished analysis reports as JSON artifacts.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Artifact is the persisted report envelope. The report text is stored
// verbatim; no re-rendering happens at write time.
type Artifact struct {
	Symbol       string `json:"symbol"`
	AnalysisDate string `json:"analysis_date"`
	Report       string `json:"report"`
}

// Writer persists one JSON file per finished analysis into a directory.
type Writer struct {
	dir string
}

// NewWriter creates the reports directory if needed.
func NewWriter(dir string) (*Writer, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("report: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Write persists the report as <SYMBOL>_<YYYYMMDD_HHMMSS>.json and returns
// the file path. A second report for the same symbol in the same second
// overwrites the first; that collision is accepted.
func (w *Writer) Write(symbol, report string, at time.Time) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", errors.New("report: symbol is required")
	}
	if at.IsZero() {
		at = time.Now()
	}

	artifact := Artifact{
		Symbol:       symbol,
		AnalysisDate: at.Format(time.RFC3339),
		Report:       report,
	}
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	name := fmt.Sprintf("%s_%s.json", symbol, at.Format("20060102_150405"))
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
