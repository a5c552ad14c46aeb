package core

import (
	"regexp"
	"strconv"
	"strings"
)

// MaxIdentifierLength is the longest table, column or index name accepted.
const MaxIdentifierLength = 64

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdentifier checks that name is safe to use as an unquoted SQL identifier.
// kind is used in the error message ("collection", "field", "table", ...).
func ValidateIdentifier(kind, name string) error {
	if name == "" {
		return &DefinitionError{Kind: kind, Reason: "name is required"}
	}
	if len(name) > MaxIdentifierLength {
		return &DefinitionError{Kind: kind, Name: name, Reason: "name exceeds " + strconv.Itoa(MaxIdentifierLength) + " characters"}
	}
	if !identifierPattern.MatchString(name) {
		return &DefinitionError{Kind: kind, Name: name, Reason: "name must match " + identifierPattern.String()}
	}
	return nil
}

// RawExpr is a column default rendered verbatim instead of as a quoted literal.
type RawExpr string

// CurrentTimestamp is the portable "now" default for timestamp columns.
const CurrentTimestamp RawExpr = "CURRENT_TIMESTAMP"

// ColumnSpec describes a physical column for the schema builder.
//
// Type carries the logical type in MySQL notation ("VARCHAR(255)",
// "INT(11) UNSIGNED", "DECIMAL(10,2)"). Dialects translate it when rendering DDL.
// Length and Unsigned override what Type carries when set.
type ColumnSpec struct {
	Name          string
	Type          string
	Length        int
	Nullable      bool
	Default       any
	Unsigned      bool
	Primary       bool
	AutoIncrement bool
	Comment       string
}

// ColumnType returns the parsed type with Length and Unsigned applied.
func (c ColumnSpec) ColumnType() ColumnType {
	t := ParseColumnType(c.Type)
	if c.Length > 0 && len(t.Args) == 0 {
		t.Args = []int{c.Length}
	}
	if c.Unsigned {
		t.Unsigned = true
	}
	return t
}

// IndexSpec describes a secondary index.
type IndexSpec struct {
	Name    string
	Columns []string
	Unique  bool
}

// ForeignKeySpec describes a single-column foreign key.
type ForeignKeySpec struct {
	Column    string
	RefTable  string
	RefColumn string
	OnDelete  string // CASCADE, SET NULL, ... (empty means dialect default)
}

// TableSpec is everything the schema builder needs to create a table.
type TableSpec struct {
	Name        string
	Columns     []ColumnSpec
	Indexes     []IndexSpec
	ForeignKeys []ForeignKeySpec
}

// Column returns the column spec with the given name, or nil.
func (t *TableSpec) Column(name string) *ColumnSpec {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i]
		}
	}
	return nil
}

// ColumnType is a parsed logical column type.
type ColumnType struct {
	Base     string // upper-cased type name: VARCHAR, INT, DECIMAL, ...
	Args     []int  // length or precision/scale
	Unsigned bool
}

// ParseColumnType parses a MySQL-notation type such as "INT(11) UNSIGNED".
// Unparseable arguments are ignored.
func ParseColumnType(s string) ColumnType {
	s = strings.ToUpper(strings.TrimSpace(s))

	var t ColumnType
	if rest, ok := strings.CutSuffix(s, " UNSIGNED"); ok {
		t.Unsigned = true
		s = strings.TrimSpace(rest)
	}

	open := strings.IndexByte(s, '(')
	if open < 0 {
		t.Base = s
		return t
	}
	t.Base = strings.TrimSpace(s[:open])

	inner := s[open+1:]
	if end := strings.IndexByte(inner, ')'); end >= 0 {
		inner = inner[:end]
	}
	for _, part := range strings.Split(inner, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		t.Args = append(t.Args, n)
	}
	return t
}

// String renders the type back in MySQL notation.
func (t ColumnType) String() string {
	var sb strings.Builder
	sb.WriteString(t.Base)
	if len(t.Args) > 0 {
		sb.WriteByte('(')
		for i, a := range t.Args {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Itoa(a))
		}
		sb.WriteByte(')')
	}
	if t.Unsigned {
		sb.WriteString(" UNSIGNED")
	}
	return sb.String()
}

// WithArgs renders Base with the given arguments, ignoring the parsed ones.
func (t ColumnType) WithArgs(base string) string {
	if len(t.Args) == 0 {
		return base
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = strconv.Itoa(a)
	}
	return base + "(" + strings.Join(parts, ",") + ")"
}
