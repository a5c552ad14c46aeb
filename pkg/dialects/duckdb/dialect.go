package duckdb

import (
	"github.com/leapstack-labs/leapcollect/pkg/core"
	"github.com/leapstack-labs/leapcollect/pkg/dialect"
)

func init() {
	dialect.Register(DuckDB)
}

var duckdbReservedWords = []string{
	"all", "analyse", "analyze", "and", "any", "array", "as", "asc", "asymmetric",
	"both", "case", "cast", "check", "collate", "column", "constraint", "create",
	"default", "deferrable", "desc", "describe", "distinct", "do", "else", "end",
	"except", "false", "fetch", "for", "foreign", "from", "grant", "group", "having",
	"in", "initially", "intersect", "into", "lateral", "leading", "limit", "not",
	"null", "offset", "on", "only", "or", "order", "pivot", "placing", "primary",
	"qualify", "references", "returning", "select", "show", "some", "summarize",
	"symmetric", "table", "then", "to", "trailing", "true", "union", "unique",
	"unpivot", "using", "variadic", "when", "where", "window", "with",
}

// DuckDB is the DuckDB dialect. Unsigned integers map to DuckDB's native
// unsigned types.
var DuckDB = dialect.New(Config).
	WithReservedWords(duckdbReservedWords...).
	TypeMapper(mapType).
	Build()

func mapType(t core.ColumnType) string {
	switch t.Base {
	case "TINYINT":
		if t.Unsigned {
			return "UTINYINT"
		}
		return "TINYINT"
	case "SMALLINT":
		if t.Unsigned {
			return "USMALLINT"
		}
		return "SMALLINT"
	case "INT", "INTEGER", "MEDIUMINT":
		if t.Unsigned {
			return "UINTEGER"
		}
		return "INTEGER"
	case "BIGINT":
		if t.Unsigned {
			return "UBIGINT"
		}
		return "BIGINT"
	case "DECIMAL", "NUMERIC":
		return t.WithArgs("DECIMAL")
	case "DATETIME":
		return "TIMESTAMP"
	case "TINYTEXT", "MEDIUMTEXT", "LONGTEXT":
		return "TEXT"
	case "VARCHAR", "CHAR":
		// DuckDB ignores VARCHAR length limits
		return "VARCHAR"
	}
	return t.WithArgs(t.Base)
}
