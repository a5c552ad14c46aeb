package core

import "strings"

// AdapterConfig holds configuration for connecting to a database.
type AdapterConfig struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string
	Options  map[string]string
	Params   map[string]any
}

// Column represents a column in a live database table.
type Column struct {
	Name       string
	Type       string
	Nullable   bool
	PrimaryKey bool
	Position   int
}

// TableMetadata holds metadata about a live database table.
type TableMetadata struct {
	Schema  string
	Name    string
	Columns []Column
	// RowCount is zero when the count could not be taken.
	RowCount int64
}

// HasColumn reports whether the table has a column with the given name.
// Names compare case-insensitively.
func (m *TableMetadata) HasColumn(name string) bool {
	for _, c := range m.Columns {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}
