// Package local reads raw event records from JSON or YAML files.
//
// A file holds either a list of records, an object with an "events" list
// (the shape eventmap itself exports), or an object with a "records" list
// and an optional "source" naming where the records came from.
package local

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/eventmap/internal/sources/providers/registry"
	"github.com/agentstation/eventmap/pkg/errors"
	"github.com/agentstation/eventmap/pkg/events"
	"github.com/agentstation/eventmap/pkg/sources"
)

// Kind is the provider kind; names take the form "local:<path>".
const Kind = "local"

func init() {
	registry.Register(registry.Entry{
		Kind:     Kind,
		NeedsArg: true,
		New: func(s registry.Spec) (sources.Provider, error) {
			return New(s.Arg), nil
		},
	})
}

// Source reads one file per fetch.
type Source struct {
	path string
}

// New creates a local source for a file.
func New(path string) *Source {
	return &Source{path: path}
}

// Name returns "local:<path>".
func (s *Source) Name() string {
	return Kind + ":" + s.path
}

// Path returns the file path.
func (s *Source) Path() string {
	return s.path
}

// Fetch reads the file. The query is ignored.
func (s *Source) Fetch(ctx context.Context, _ sources.Query) ([]events.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := Load(s.path)
	if err != nil {
		return nil, err
	}
	producer := s.Name()
	out := make([]events.RawRecord, 0, len(f.Records))
	for _, fields := range f.Records {
		out = append(out, events.NewRawRecord(producer, fields))
	}
	return out, nil
}

// File is a decoded record file.
type File struct {
	// Source is the label declared in the file, or the file's base name.
	Source string
	// Company is the company the file declares, if any.
	Company string
	Records []map[string]any
}

type envelope struct {
	Source  string           `json:"source" yaml:"source"`
	Company string           `json:"company" yaml:"company"`
	Records []map[string]any `json:"records" yaml:"records"`
	Events  []map[string]any `json:"events" yaml:"events"`
}

// Load reads and decodes a record file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the user
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, errors.NewParseError(format(path), path, "file is empty", nil)
	}

	f := &File{Source: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}

	unmarshal := func(b []byte, v any) error { return yaml.Unmarshal(b, v) }
	if format(path) == "json" {
		unmarshal = json.Unmarshal
	}

	var list []map[string]any
	if err := unmarshal(data, &list); err == nil {
		f.Records = list
		return f, nil
	}

	var env envelope
	if err := unmarshal(data, &env); err != nil {
		return nil, errors.NewParseError(format(path), path, "expected a list of records or an object with records", err)
	}
	switch {
	case env.Records != nil:
		f.Records = env.Records
	case env.Events != nil:
		f.Records = env.Events
	default:
		return nil, errors.NewParseError(format(path), path, `object has no "records" or "events" list`, nil)
	}
	if env.Source != "" {
		f.Source = env.Source
	}
	f.Company = env.Company
	return f, nil
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	default:
		return "yaml"
	}
}
