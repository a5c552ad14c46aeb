package core

import (
	"fmt"
	"strings"
)

// RelationType is the kind of association between two collections.
type RelationType string

// Supported relation types.
const (
	HasOne        RelationType = "HAS_ONE"
	HasMany       RelationType = "HAS_MANY"
	BelongsTo     RelationType = "BELONGS_TO"
	BelongsToMany RelationType = "BELONGS_TO_MANY"
)

// OptionPivotTable is the relationship option naming a many-to-many join table.
const OptionPivotTable = "pivot_table"

// ParseRelationType normalizes s ("belongs_to_many", "BELONGS_TO_MANY", "belongsToMany")
// to a RelationType.
func ParseRelationType(s string) (RelationType, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	switch strings.ReplaceAll(norm, "_", "") {
	case "HASONE":
		return HasOne, nil
	case "HASMANY":
		return HasMany, nil
	case "BELONGSTO":
		return BelongsTo, nil
	case "BELONGSTOMANY":
		return BelongsToMany, nil
	}
	return "", &DefinitionError{Kind: "relationship type", Name: s, Reason: fmt.Sprintf("must be one of %s, %s, %s, %s", HasOne, HasMany, BelongsTo, BelongsToMany)}
}

// Relationship is an association from one collection to another.
// Only BelongsToMany owns physical storage (a pivot table).
type Relationship struct {
	Name             string         `json:"name" yaml:"name"`
	Type             RelationType   `json:"type" yaml:"type"`
	TargetCollection string         `json:"target_collection" yaml:"target_collection"`
	ForeignKey       string         `json:"foreign_key,omitempty" yaml:"foreign_key,omitempty"`
	LocalKey         string         `json:"local_key,omitempty" yaml:"local_key,omitempty"`
	Options          map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// PivotTable returns the explicit pivot table option, if set.
func (r *Relationship) PivotTable() string {
	if r.Options == nil {
		return ""
	}
	if s, ok := r.Options[OptionPivotTable].(string); ok {
		return s
	}
	return ""
}

// Clone returns a deep-enough copy: the options map is copied, values are shared.
func (r Relationship) Clone() Relationship {
	if r.Options != nil {
		opts := make(map[string]any, len(r.Options))
		for k, v := range r.Options {
			opts[k] = v
		}
		r.Options = opts
	}
	return r
}
