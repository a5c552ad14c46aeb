package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// IsDefinitionFile reports whether path has a YAML extension.
func IsDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadFile reads and parses one definition file.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	d, err := ParseDefinition(data, path)
	if err != nil {
		return File{}, err
	}
	return File{Path: path, Definition: d}, nil
}

// LoadDir parses every definition file under dir, sorted by path. Hidden
// directories are skipped. Two files declaring the same collection and
// tenant are an error.
func LoadDir(dir string) ([]File, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsDefinitionFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	sort.Strings(paths)

	files := make([]File, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		f, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		key := fmt.Sprintf("%d/%s", f.Definition.TenantID, f.Definition.Name)
		if prev, dup := seen[key]; dup {
			return nil, fmt.Errorf("collection %s is defined in both %s and %s", f.Definition.Name, prev, path)
		}
		seen[key] = path
		files = append(files, f)
	}
	return files, nil
}
