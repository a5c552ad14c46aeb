// Package field implements the typed field system used by collections.
//
// A Field knows three things about itself: how to validate a candidate value,
// which physical column backs it, and how to serialize itself to a Definition
// that can be persisted and later turned back into an equivalent Field.
//
// Fields are created through a Registry:
//
//	reg := field.NewRegistry()
//	f, err := reg.Create(field.TypeString, "title", map[string]any{"max_length": 120})
//	f.Validate("hello")  // true
//	f.Column()           // {Name: "title", Type: "VARCHAR(120)", ...}
package field

import (
	"strings"

	"github.com/leapstack-labs/leapcollect/pkg/core"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Type names a field variant.
type Type string

// Built-in field types.
const (
	TypeString    Type = "string"
	TypeText      Type = "text"
	TypeInteger   Type = "integer"
	TypeBigInt    Type = "bigint"
	TypeDecimal   Type = "decimal"
	TypeBoolean   Type = "boolean"
	TypeDate      Type = "date"
	TypeDateTime  Type = "datetime"
	TypeTimestamp Type = "timestamp"
	TypeJSON      Type = "json"
	TypeFile      Type = "file"
	TypeImage     Type = "image"
	TypeSelect    Type = "select"
	TypeRadio     Type = "radio"
	TypeCheckbox  Type = "checkbox"
)

// Option keys that configure the field itself rather than its constraints.
const (
	KeyTitle    = "title"
	KeyNullable = "nullable"
	KeyDefault  = "default"
)

// Field is a typed attribute of a collection.
type Field interface {
	Name() string
	Type() Type
	Title() string
	Nullable() bool
	Default() any
	Options() Options

	// DBType is the logical column type, always derivable from Type and Options.
	DBType() string

	// Validate reports whether value satisfies the field's type and constraints.
	Validate(value any) bool

	// Column describes the physical column backing this field.
	Column() core.ColumnSpec

	// Definition is the serializable form of the field.
	Definition() Definition
}

// Definition is the persisted shape of a Field.
// Registry.FromDefinition(f.Definition()) yields a Field equivalent to f.
type Definition struct {
	Name     string         `json:"name" yaml:"name"`
	Type     Type           `json:"type" yaml:"type"`
	DBType   string         `json:"db_type,omitempty" yaml:"db_type,omitempty"`
	Title    string         `json:"title,omitempty" yaml:"title,omitempty"`
	Nullable bool           `json:"nullable" yaml:"nullable"`
	Default  any            `json:"default,omitempty" yaml:"default,omitempty"`
	Options  map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// Base holds the attributes shared by every field variant.
// Variants embed *Base and implement Validate.
type Base struct {
	name     string
	typ      Type
	title    string
	nullable bool
	def      any
	opts     Options
	dbType   string
}

// Name returns the field (and column) name.
func (b *Base) Name() string { return b.name }

// Type returns the field variant.
func (b *Base) Type() Type { return b.typ }

// Title returns the human readable label.
func (b *Base) Title() string { return b.title }

// Nullable reports whether nil is an accepted value.
func (b *Base) Nullable() bool { return b.nullable }

// Default returns the default value, or nil.
func (b *Base) Default() any { return b.def }

// Options returns the decoded constraints.
func (b *Base) Options() Options { return b.opts }

// DBType returns the logical column type.
func (b *Base) DBType() string { return b.dbType }

// Column describes the physical column backing this field.
func (b *Base) Column() core.ColumnSpec {
	return core.ColumnSpec{
		Name:     b.name,
		Type:     b.dbType,
		Nullable: b.nullable,
		Default:  b.def,
		Unsigned: b.opts.Unsigned,
		Comment:  b.title,
	}
}

// Definition returns the serializable form of the field.
func (b *Base) Definition() Definition {
	return Definition{
		Name:     b.name,
		Type:     b.typ,
		DBType:   b.dbType,
		Title:    b.title,
		Nullable: b.nullable,
		Default:  b.def,
		Options:  b.opts.Map(),
	}
}

// acceptNil handles the nil case shared by every variant.
// ok is true when value is nil, in which case valid carries the verdict.
func (b *Base) acceptNil(value any) (valid, ok bool) {
	if value == nil {
		return b.nullable, true
	}
	return false, false
}

// DefaultTitle humanizes a field or collection name: "unit_price" -> "Unit Price".
func DefaultTitle(name string) string {
	// Casers are stateful and must not be shared between goroutines.
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}
