// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapcollect/internal/cli/output"
)

// PostsDefinition declares a posts collection with a many-to-many
// relationship to tags.
const PostsDefinition = `name: posts
title: Posts
fields:
  - name: title
    type: string
    options:
      max_length: 120
  - name: views
    type: integer
    default: 0
relationships:
  - name: tags
    type: belongs_to_many
    target_collection: tags
`

// TagsDefinition declares a tags collection.
const TagsDefinition = `name: tags
fields:
  - name: label
    type: string
`

// SetupTestProject creates a temporary project: a leapcollect.yaml that
// keeps metadata and the target in separate SQLite files, and a
// collections directory holding the posts and tags definitions. It
// returns the path of the config file.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	collections := filepath.Join(dir, "collections")
	if err := os.MkdirAll(collections, 0o755); err != nil {
		t.Fatalf("failed to create directory %s: %v", collections, err)
	}

	files := map[string]string{
		filepath.Join(collections, "posts.yaml"): PostsDefinition,
		filepath.Join(collections, "tags.yaml"):  TagsDefinition,
		filepath.Join(dir, "leapcollect.yaml"): `metadata:
  driver: sqlite
  dsn: state/metadata.db
target:
  type: sqlite
  path: state/target.db
collections_dir: collections
`,
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}

	return filepath.Join(dir, "leapcollect.yaml")
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON creates a new test renderer in JSON mode.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// Reset clears both output buffers.
func (tr *TestRenderer) Reset() {
	tr.Out.Reset()
	tr.ErrOut.Reset()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	if n := strings.Count(md, "```"); n%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", n)
	}

	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
