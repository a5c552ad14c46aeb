// Package loader reads declarative collection definitions from YAML files
// and applies them to the engine.
package loader

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leapcollect/pkg/collection"
	"gopkg.in/yaml.v3"
)

// File is one parsed definition file.
type File struct {
	Path       string
	Definition collection.Definition
}

var knownKeys = map[string]bool{
	"name":          true,
	"table_name":    true,
	"title":         true,
	"description":   true,
	"tenant_id":     true,
	"site_id":       true,
	"fields":        true,
	"relationships": true,
}

// ParseDefinition parses one collection definition. Unknown top-level keys
// are rejected. A missing name defaults to the file name without extension.
func ParseDefinition(data []byte, path string) (collection.Definition, error) {
	var d collection.Definition

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return d, &ParseError{File: path, Message: fmt.Sprintf("invalid YAML: %v", err)}
	}
	if len(raw) == 0 {
		return d, &ParseError{File: path, Message: "empty definition"}
	}
	for key := range raw {
		if !knownKeys[key] {
			return d, &UnknownFieldError{File: path, Field: key}
		}
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return d, &ParseError{File: path, Message: fmt.Sprintf("failed to parse definition: %v", err)}
	}

	if d.Name == "" && path != "" {
		base := filepath.Base(path)
		d.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return d, nil
}

// ParseError reports a definition file that could not be parsed.
type ParseError struct {
	File    string
	Message string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

// UnknownFieldError reports an unknown top-level key.
type UnknownFieldError struct {
	File  string
	Field string
}

func (e *UnknownFieldError) Error() string {
	msg := fmt.Sprintf("unknown key %q in collection definition", e.Field)
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, msg)
	}
	return msg
}
