package dialect

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/leapstack-labs/leapcollect/pkg/core"
)

// CreateTable renders the statements that create spec: any supporting
// sequences, the CREATE TABLE itself, then one CREATE INDEX per index.
func (d *Dialect) CreateTable(spec core.TableSpec) []string {
	var stmts []string
	var defs []string
	var primary []string
	inlinePrimary := false

	for _, col := range spec.Columns {
		if col.AutoIncrement && d.config.AutoIncrement == core.AutoIncrementSequence {
			stmts = append(stmts, "CREATE SEQUENCE IF NOT EXISTS "+d.QuoteIdentifier(SequenceName(spec.Name)))
		}
		if col.AutoIncrement && d.config.AutoIncrement == core.AutoIncrementInlinePrimaryKey {
			inlinePrimary = true
		}
		defs = append(defs, d.ColumnDefinition(spec.Name, col))
		if col.Primary {
			primary = append(primary, d.QuoteIdentifier(col.Name))
		}
	}

	if len(primary) > 0 && !inlinePrimary {
		defs = append(defs, "PRIMARY KEY ("+strings.Join(primary, ", ")+")")
	}
	for _, fk := range spec.ForeignKeys {
		defs = append(defs, d.foreignKey(fk))
	}

	stmts = append(stmts, fmt.Sprintf("CREATE TABLE %s (\n    %s\n)", d.QuoteIdentifier(spec.Name), strings.Join(defs, ",\n    ")))
	for _, idx := range spec.Indexes {
		stmts = append(stmts, d.CreateIndex(spec.Name, idx))
	}
	return stmts
}

// CreateIndex renders CREATE [UNIQUE] INDEX. Unnamed indexes are named after
// the table and columns.
func (d *Dialect) CreateIndex(table string, idx core.IndexSpec) string {
	name := idx.Name
	if name == "" {
		suffix := "_index"
		if idx.Unique {
			suffix = "_unique"
		}
		name = table + "_" + strings.Join(idx.Columns, "_") + suffix
	}
	cols := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		cols[i] = d.QuoteIdentifier(c)
	}
	kind := "INDEX"
	if idx.Unique {
		kind = "UNIQUE INDEX"
	}
	return fmt.Sprintf("CREATE %s %s ON %s (%s)", kind, d.QuoteIdentifier(name), d.QuoteIdentifier(table), strings.Join(cols, ", "))
}

// AddColumn renders ALTER TABLE ... ADD COLUMN, relaxing NOT NULL where the
// dialect cannot add constrained columns.
func (d *Dialect) AddColumn(table string, col core.ColumnSpec) string {
	switch d.config.AddColumn {
	case core.AddColumnNullableWithoutDefault:
		if col.Default == nil {
			col.Nullable = true
		}
	case core.AddColumnAlwaysNullable:
		col.Nullable = true
	}
	col.Primary = false
	col.AutoIncrement = false
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", d.QuoteIdentifier(table), d.ColumnDefinition(table, col))
}

// DropColumn renders ALTER TABLE ... DROP COLUMN.
func (d *Dialect) DropColumn(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", d.QuoteIdentifier(table), d.QuoteIdentifier(column))
}

// DropTable renders DROP TABLE IF EXISTS plus the cleanup of any sequence
// created for the table.
func (d *Dialect) DropTable(table string) []string {
	stmts := []string{"DROP TABLE IF EXISTS " + d.QuoteIdentifier(table)}
	if d.config.AutoIncrement == core.AutoIncrementSequence {
		stmts = append(stmts, "DROP SEQUENCE IF EXISTS "+d.QuoteIdentifier(SequenceName(table)))
	}
	return stmts
}

// TableExistsQuery returns the introspection query counting tables by name.
func (d *Dialect) TableExistsQuery() string {
	return d.config.TableExistsQuery
}

// ColumnsQuery returns the introspection query listing a table's columns.
func (d *Dialect) ColumnsQuery() string {
	return d.config.ColumnsQuery
}

// SequenceName is the sequence backing the auto-increment column of table.
func SequenceName(table string) string {
	return table + "_seq"
}

// ColumnDefinition renders one column inside CREATE TABLE or ADD COLUMN.
func (d *Dialect) ColumnDefinition(table string, col core.ColumnSpec) string {
	t := col.ColumnType()
	name := d.QuoteIdentifier(col.Name)

	if col.AutoIncrement {
		switch d.config.AutoIncrement {
		case core.AutoIncrementInlinePrimaryKey:
			return name + " INTEGER PRIMARY KEY AUTOINCREMENT"
		case core.AutoIncrementSerial:
			if t.Base == "BIGINT" {
				return name + " BIGSERIAL NOT NULL"
			}
			return name + " SERIAL NOT NULL"
		case core.AutoIncrementSequence:
			return fmt.Sprintf("%s %s NOT NULL DEFAULT nextval('%s')", name, d.PhysicalType(t), SequenceName(table))
		default:
			return name + " " + d.PhysicalType(t) + " NOT NULL AUTO_INCREMENT"
		}
	}

	parts := []string{name, d.PhysicalType(t)}
	if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if lit, ok := d.DefaultLiteral(t, col.Default); ok {
		parts = append(parts, "DEFAULT "+lit)
	}
	if d.config.ColumnComments && col.Comment != "" {
		parts = append(parts, "COMMENT "+d.QuoteString(col.Comment))
	}
	return strings.Join(parts, " ")
}

func (d *Dialect) foreignKey(fk core.ForeignKeySpec) string {
	s := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
		d.QuoteIdentifier(fk.Column), d.QuoteIdentifier(fk.RefTable), d.QuoteIdentifier(fk.RefColumn))
	if fk.OnDelete != "" && d.config.ForeignKeyActions {
		s += " ON DELETE " + fk.OnDelete
	}
	return s
}

// DefaultLiteral renders a column default. ok is false when no DEFAULT clause
// should be emitted: no default, or a literal on a type that rejects one.
func (d *Dialect) DefaultLiteral(t core.ColumnType, v any) (string, bool) {
	if v == nil {
		return "", false
	}
	if raw, isRaw := v.(core.RawExpr); isRaw {
		return string(raw), true
	}
	for _, base := range d.config.NoLiteralDefaultTypes {
		if strings.EqualFold(base, t.Base) {
			return "", false
		}
	}

	switch x := v.(type) {
	case bool:
		if x {
			return "1", true
		}
		return "0", true
	case string:
		return d.QuoteString(x), true
	case float64:
		return formatFloat(x), true
	case float32:
		return formatFloat(float64(x)), true
	case json.Number:
		return x.String(), true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Map, reflect.Slice, reflect.Array:
		data, err := json.Marshal(v)
		if err != nil {
			return "", false
		}
		return d.QuoteString(string(data)), true
	}
	return d.QuoteString(fmt.Sprint(v)), true
}

// QuoteString renders a string literal.
func (d *Dialect) QuoteString(s string) string {
	if d.config.BackslashEscapes {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "NULL"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
