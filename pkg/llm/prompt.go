package llm

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"
)

// PromptTemplate is one stage prompt loaded from disk. Templates are plain
// text/template files keyed by analysis inputs such as {{.Symbol}}; rendering
// uses missingkey=error so a renamed placeholder fails the run instead of
// silently emitting "<no value>".
type PromptTemplate struct {
	path string

	mu   sync.RWMutex
	tmpl *template.Template
	hash string
}

// NewPromptTemplate parses the prompt file at path.
func NewPromptTemplate(path string) (*PromptTemplate, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("prompt template path is empty")
	}
	t := &PromptTemplate{path: path}
	if err := t.reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// Render executes the template against data.
func (t *PromptTemplate) Render(data any) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.tmpl == nil {
		return "", fmt.Errorf("prompt template %q not parsed", t.path)
	}

	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute prompt template %q: %w", t.path, err)
	}
	return buf.String(), nil
}

// Reload reparses the prompt from disk, picking up edits without a restart.
func (t *PromptTemplate) Reload() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reload()
}

func (t *PromptTemplate) reload() error {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return fmt.Errorf("read prompt template %q: %w", t.path, err)
	}
	sum := sha256.Sum256(data)
	t.hash = hex.EncodeToString(sum[:])

	tmpl, err := template.New(filepath.Base(t.path)).
		Option("missingkey=error").
		Parse(string(data))
	if err != nil {
		return fmt.Errorf("parse prompt template %q: %w", t.path, err)
	}
	t.tmpl = tmpl
	return nil
}

// Digest is the sha256 of the prompt content, useful for telling which
// prompt revision produced a report.
func (t *PromptTemplate) Digest() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.hash
}
