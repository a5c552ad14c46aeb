package collection

import (
	"strings"

	"github.com/leapstack-labs/leapcollect/pkg/core"
)

// Physical columns every collection table carries besides its fields.
const (
	ColumnID        = "id"
	ColumnTenantID  = "tenant_id"
	ColumnSiteID    = "site_id"
	ColumnCreatedAt = "created_at"
	ColumnUpdatedAt = "updated_at"
	ColumnDeletedAt = "deleted_at"
)

// KeyType is the logical type of surrogate ids and the keys pointing at them.
const KeyType = "INT(10) UNSIGNED"

// SystemColumns are managed by the engine, never declared as fields and
// never reported as drift.
var SystemColumns = []string{ColumnID, ColumnTenantID, ColumnSiteID, ColumnCreatedAt, ColumnUpdatedAt, ColumnDeletedAt}

// IsSystemColumn reports whether name is a system column (case-insensitive).
func IsSystemColumn(name string) bool {
	for _, s := range SystemColumns {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// TableSpec lays out the physical table: id, tenant_id, site_id, one column per
// field in order, then created_at and updated_at, with a (tenant_id, id) index.
func (c *Collection) TableSpec() core.TableSpec {
	cols := make([]core.ColumnSpec, 0, len(c.fields)+5)
	cols = append(cols,
		core.ColumnSpec{Name: ColumnID, Type: KeyType, Primary: true, AutoIncrement: true},
		core.ColumnSpec{Name: ColumnTenantID, Type: "INT(11)", Default: 0},
		core.ColumnSpec{Name: ColumnSiteID, Type: "INT(11)", Default: 0},
	)
	for _, f := range c.fields {
		cols = append(cols, f.Column())
	}
	cols = append(cols, timestampColumns()...)

	return core.TableSpec{
		Name:    c.TableName,
		Columns: cols,
		Indexes: []core.IndexSpec{{Name: c.TableName + "_tenant_id_id_index", Columns: []string{ColumnTenantID, ColumnID}}},
	}
}

// PivotSpec lays out the join table of a many-to-many relationship: a surrogate
// id, the two key columns with foreign keys to both sides, and created_at.
func PivotSpec(pivot, localKey, sourceTable, foreignKey, targetTable string) core.TableSpec {
	return core.TableSpec{
		Name: pivot,
		Columns: []core.ColumnSpec{
			{Name: ColumnID, Type: KeyType, Primary: true, AutoIncrement: true},
			{Name: localKey, Type: KeyType},
			{Name: foreignKey, Type: KeyType},
			{Name: ColumnCreatedAt, Type: "TIMESTAMP", Nullable: true, Default: core.CurrentTimestamp},
		},
		Indexes: []core.IndexSpec{
			{Name: pivot + "_unique", Columns: []string{localKey, foreignKey}, Unique: true},
		},
		ForeignKeys: []core.ForeignKeySpec{
			{Column: localKey, RefTable: sourceTable, RefColumn: ColumnID, OnDelete: "CASCADE"},
			{Column: foreignKey, RefTable: targetTable, RefColumn: ColumnID, OnDelete: "CASCADE"},
		},
	}
}

func timestampColumns() []core.ColumnSpec {
	return []core.ColumnSpec{
		{Name: ColumnCreatedAt, Type: "TIMESTAMP", Nullable: true, Default: core.CurrentTimestamp},
		{Name: ColumnUpdatedAt, Type: "TIMESTAMP", Nullable: true, Default: core.CurrentTimestamp},
	}
}
