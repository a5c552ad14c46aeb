package collection

import (
	"sort"
	"strings"

	"github.com/go-openapi/inflect"
	"github.com/leapstack-labs/leapcollect/pkg/core"
)

// Default prefixes for generated physical tables.
const (
	DefaultTablePrefix = "lc_"
	DefaultPivotPrefix = "lc_pivot_"
)

// Naming derives physical names from collection names.
type Naming struct {
	TablePrefix string
	PivotPrefix string
}

// DefaultNaming uses the lc_ and lc_pivot_ prefixes.
var DefaultNaming = Naming{TablePrefix: DefaultTablePrefix, PivotPrefix: DefaultPivotPrefix}

// NewNaming returns naming rules for a table prefix. The pivot prefix is the
// table prefix followed by "pivot_".
func NewNaming(tablePrefix string) Naming {
	return Naming{TablePrefix: tablePrefix, PivotPrefix: tablePrefix + "pivot_"}
}

// TableName derives the physical table for a collection name:
// "Product" -> "lc_product", "ProductCategory" -> "lc_product_category".
func (n Naming) TableName(name string) string {
	return n.TablePrefix + inflect.Underscore(name)
}

// BaseName strips the table prefix: "lc_product" -> "product".
func (n Naming) BaseName(table string) string {
	if n.TablePrefix != "" {
		if base, ok := strings.CutPrefix(table, n.TablePrefix); ok {
			return base
		}
	}
	return table
}

// PivotTable names the join table of a many-to-many relationship. The two base
// names are sorted so both sides agree on the same table.
func (n Naming) PivotTable(sourceTable, targetTable string) string {
	names := []string{n.BaseName(sourceTable), n.BaseName(targetTable)}
	sort.Strings(names)
	return n.PivotPrefix + names[0] + "_" + names[1]
}

// ForeignKey is the conventional key column pointing at table: "lc_product" -> "product_id".
func (n Naming) ForeignKey(table string) string {
	return n.BaseName(table) + "_id"
}

// ResolveRelationship fills in the keys (and for many-to-many the pivot
// table) a relationship leaves blank, following the conventions:
//
//	HAS_ONE / HAS_MANY   foreign {source}_id on the target, local id
//	BELONGS_TO           foreign {target}_id on the source, local id
//	BELONGS_TO_MANY      local {source}_id and foreign {target}_id on the pivot
func (n Naming) ResolveRelationship(r core.Relationship, sourceTable, targetTable string) core.Relationship {
	r = r.Clone()

	switch r.Type {
	case core.HasOne, core.HasMany:
		if r.ForeignKey == "" {
			r.ForeignKey = n.ForeignKey(sourceTable)
		}
		if r.LocalKey == "" {
			r.LocalKey = "id"
		}
	case core.BelongsTo:
		if r.ForeignKey == "" {
			r.ForeignKey = n.ForeignKey(targetTable)
		}
		if r.LocalKey == "" {
			r.LocalKey = "id"
		}
	case core.BelongsToMany:
		if r.LocalKey == "" {
			r.LocalKey = n.ForeignKey(sourceTable)
		}
		if r.ForeignKey == "" {
			r.ForeignKey = n.ForeignKey(targetTable)
		}
		if r.ForeignKey == r.LocalKey {
			// self-referencing many-to-many
			r.ForeignKey = "related_" + r.ForeignKey
		}
		if r.PivotTable() == "" {
			if r.Options == nil {
				r.Options = make(map[string]any, 1)
			}
			r.Options[core.OptionPivotTable] = n.PivotTable(sourceTable, targetTable)
		}
	}
	return r
}
