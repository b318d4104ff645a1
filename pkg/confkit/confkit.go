// Package confkit holds the small amount of configuration plumbing shared by
// the server, the analyze CLI and the per-package MustLoad helpers: path
// resolution relative to the main config file, sub-config sections hydrated
// from their own yaml files, and .env loading.
package confkit

import (
	"os"
	"path/filepath"
)

// ResolvePath expands environment variables in file and, unless the result is
// absolute, anchors it at base. The service uses it to resolve section files
// and the prompt directory against the directory of etc/finsight.yaml.
func ResolvePath(base, file string) string {
	file = os.ExpandEnv(file)
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(base, file)
}

// Section is a sub-config reference inside the main config file: either a
// File path to hydrate from, or nothing. Value stays nil until Hydrate runs,
// which lets the caller substitute defaults for an absent section.
type Section[T any] struct {
	File  string `json:",optional"`
	Value *T     `json:"-"`
}

// Hydrate resolves File against base and loads it through loader. An empty
// File is not an error; the section simply stays unhydrated. On success File
// is rewritten to the resolved path so later log output shows where the
// config actually came from.
func (s *Section[T]) Hydrate(base string, loader func(string) (*T, error)) error {
	if s.File == "" {
		return nil
	}
	p := ResolvePath(base, s.File)
	v, err := loader(p)
	if err != nil {
		return err
	}
	s.File, s.Value = p, v
	return nil
}
