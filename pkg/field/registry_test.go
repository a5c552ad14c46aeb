package field

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/leapstack-labs/leapcollect/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_BuiltinTypes(t *testing.T) {
	reg := NewRegistry()
	assert.Len(t, reg.Types(), 15)
	for _, typ := range []Type{
		TypeString, TypeText, TypeInteger, TypeBigInt, TypeDecimal, TypeBoolean,
		TypeDate, TypeDateTime, TypeTimestamp, TypeJSON, TypeFile, TypeImage,
		TypeSelect, TypeRadio, TypeCheckbox,
	} {
		assert.True(t, reg.Has(typ), typ)
	}
	assert.True(t, reg.Has("STRING"), "type names are case-insensitive")
}

func TestRegistry_CreateUnknownType(t *testing.T) {
	_, err := NewRegistry().Create("geometry", "shape", nil)
	require.Error(t, err)

	var unknown *UnknownFieldTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "geometry", unknown.Type)
	assert.Contains(t, unknown.Available, "string")
}

func TestRegistry_CreateRejectsBadInput(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name  string
		field string
		opts  map[string]any
	}{
		{"bad identifier", "drop table", nil},
		{"empty name", "", nil},
		{"scale above precision", "price", map[string]any{"precision": 4, "scale": 6}},
		{"negative length", "code", map[string]any{"length": -1}},
		{"min above max", "code", map[string]any{"min_length": 9, "max_length": 3}},
		{"invalid pattern", "code", map[string]any{"pattern": "([a-z"}},
		{"undecodable option", "code", map[string]any{"max_length": "lots"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Create(TypeString, tt.field, tt.opts)
			require.Error(t, err)
			assert.True(t, core.IsInvalidDefinition(err))
		})
	}
}

func TestRegistry_RegisterCustom(t *testing.T) {
	reg := NewRegistry()
	reg.Register("slug", func(b *Base) Field {
		b.dbType = "VARCHAR(100)"
		return &StringField{Base: b}
	})

	f, err := reg.Create("slug", "handle", nil)
	require.NoError(t, err)
	assert.Equal(t, Type("slug"), f.Type())
	assert.Equal(t, "VARCHAR(100)", f.DBType())
	assert.True(t, f.Validate("my-handle"))
}

// Every type must survive Definition -> JSON -> FromDefinition unchanged,
// which is how fields travel through the metadata store.
func TestRegistry_DefinitionRoundTrip(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		typ  Type
		opts map[string]any
	}{
		{TypeString, map[string]any{"max_length": 120, "min_length": 2, "pattern": "/^[a-z]+$/i", "title": "Name"}},
		{TypeText, map[string]any{"nullable": true}},
		{TypeInteger, map[string]any{"minimum": 0, "maximum": 500, "unsigned": true, "default": 1}},
		{TypeBigInt, map[string]any{"length": 18}},
		{TypeDecimal, map[string]any{"precision": 12, "scale": 3, "minimum": 0.5, "default": 9.99}},
		{TypeBoolean, map[string]any{"default": true}},
		{TypeDate, nil},
		{TypeDateTime, map[string]any{"nullable": true}},
		{TypeTimestamp, nil},
		{TypeJSON, map[string]any{"default": map[string]any{"tags": []any{"a", 1}}}},
		{TypeFile, map[string]any{"allowed_extensions": []string{"pdf", "doc"}, "max_size": 1048576}},
		{TypeImage, map[string]any{"max_width": 800, "max_height": 600}},
		{TypeSelect, map[string]any{"enum": []any{"s", "m", "l"}, "default": "m"}},
		{TypeRadio, map[string]any{"enum": []any{1, 2, 3}}},
		{TypeCheckbox, map[string]any{"enum": []any{"x", "y"}, "widget": "inline"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			original, err := reg.Create(tt.typ, "attr", tt.opts)
			require.NoError(t, err)

			def := original.Definition()
			data, err := json.Marshal(def)
			require.NoError(t, err)

			var decoded Definition
			require.NoError(t, json.Unmarshal(data, &decoded))

			rebuilt, err := reg.FromDefinition(decoded)
			require.NoError(t, err)

			assert.Equal(t, def, rebuilt.Definition())
			assert.Equal(t, original.Column(), rebuilt.Column())
		})
	}
}

func TestDecodeOptions_KeepsUnknownKeys(t *testing.T) {
	opts, err := DecodeOptions(map[string]any{"max_length": "40", "placeholder": "Your name"})
	require.NoError(t, err)
	require.NotNil(t, opts.MaxLength)
	assert.Equal(t, 40, *opts.MaxLength)
	assert.Equal(t, "Your name", opts.Extra["placeholder"])

	m := opts.Map()
	assert.Equal(t, int64(40), m["max_length"])
	assert.Equal(t, "Your name", m["placeholder"])
}

func TestOptions_MapEmpty(t *testing.T) {
	assert.Nil(t, Options{}.Map())
}
