package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColumnType(t *testing.T) {
	tests := []struct {
		in   string
		want ColumnType
		str  string
	}{
		{"VARCHAR(255)", ColumnType{Base: "VARCHAR", Args: []int{255}}, "VARCHAR(255)"},
		{"int(11) unsigned", ColumnType{Base: "INT", Args: []int{11}, Unsigned: true}, "INT(11) UNSIGNED"},
		{"DECIMAL(10, 2)", ColumnType{Base: "DECIMAL", Args: []int{10, 2}}, "DECIMAL(10,2)"},
		{"TEXT", ColumnType{Base: "TEXT"}, "TEXT"},
		{" json ", ColumnType{Base: "JSON"}, "JSON"},
		{"BIGINT UNSIGNED", ColumnType{Base: "BIGINT", Unsigned: true}, "BIGINT UNSIGNED"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseColumnType(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.str, got.String())
		})
	}
}

func TestColumnSpec_ColumnType_Overrides(t *testing.T) {
	c := ColumnSpec{Name: "n", Type: "INT", Length: 10, Unsigned: true}
	assert.Equal(t, "INT(10) UNSIGNED", c.ColumnType().String())

	// explicit args win over Length
	c = ColumnSpec{Name: "n", Type: "VARCHAR(80)", Length: 10}
	assert.Equal(t, "VARCHAR(80)", c.ColumnType().String())
}

func TestValidateIdentifier(t *testing.T) {
	valid := []string{"products", "_x", "Product2", "lc_product_category"}
	for _, name := range valid {
		assert.NoError(t, ValidateIdentifier("table", name), name)
	}

	invalid := []string{"", "1abc", "has space", "drop;--", "a-b", string(make([]byte, 65))}
	for _, name := range invalid {
		err := ValidateIdentifier("table", name)
		require.Error(t, err, name)
		assert.True(t, IsInvalidDefinition(err))
	}
}

func TestTableSpec_Column(t *testing.T) {
	spec := TableSpec{Name: "t", Columns: []ColumnSpec{{Name: "ID"}, {Name: "title"}}}
	require.NotNil(t, spec.Column("id"))
	assert.Nil(t, spec.Column("missing"))
}

func TestTableMetadata_HasColumn(t *testing.T) {
	m := &TableMetadata{Columns: []Column{{Name: "Title"}}}
	assert.True(t, m.HasColumn("title"))
	assert.False(t, m.HasColumn("price"))
}
