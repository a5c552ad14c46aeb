package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	driverErr := errors.New("table exists")

	tests := []struct {
		name  string
		err   error
		check func(error) bool
		is    error
	}{
		{"not found", &NotFoundError{Kind: "collection", Name: "Product"}, IsNotFound, ErrNotFound},
		{"conflict", &MetadataConflictError{Kind: "collection", Name: "Product"}, IsConflict, ErrConflict},
		{"ddl", &DDLError{Op: "create_table", Table: "lc_product", Err: driverErr}, IsDDL, ErrDDL},
		{"definition", &DefinitionError{Kind: "field", Reason: "bad"}, IsInvalidDefinition, ErrInvalidDefinition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("failed to do thing: %w", tt.err)
			assert.True(t, tt.check(wrapped))
			assert.ErrorIs(t, wrapped, tt.is)
			assert.False(t, tt.check(nil))
		})
	}
}

func TestDDLError_Unwrap(t *testing.T) {
	driverErr := errors.New("no such table")
	err := &DDLError{Op: "drop_column", Table: "lc_product", Err: driverErr}
	assert.ErrorIs(t, err, driverErr)
	assert.Contains(t, err.Error(), "drop_column")
	assert.Contains(t, err.Error(), "lc_product")
}

func TestParseRelationType(t *testing.T) {
	for in, want := range map[string]RelationType{
		"HAS_ONE":         HasOne,
		"has_many":        HasMany,
		"belongsTo":       BelongsTo,
		"BELONGS_TO_MANY": BelongsToMany,
	} {
		got, err := ParseRelationType(in)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseRelationType("MANY_TO_MANY")
	assert.True(t, IsInvalidDefinition(err))
}

func TestRelationship_PivotTable(t *testing.T) {
	r := Relationship{Options: map[string]any{OptionPivotTable: "custom_pivot"}}
	assert.Equal(t, "custom_pivot", r.PivotTable())

	c := r.Clone()
	c.Options[OptionPivotTable] = "other"
	assert.Equal(t, "custom_pivot", r.PivotTable())
	assert.Equal(t, "", (&Relationship{}).PivotTable())
}
