package sqlite

import (
	"github.com/leapstack-labs/leapcollect/pkg/core"
	"github.com/leapstack-labs/leapcollect/pkg/dialect"
)

func init() {
	dialect.Register(SQLite)
}

var sqliteReservedWords = []string{
	"abort", "action", "add", "after", "all", "alter", "analyze", "and", "as", "asc",
	"attach", "autoincrement", "before", "begin", "between", "by", "cascade", "case",
	"cast", "check", "collate", "column", "commit", "conflict", "constraint", "create",
	"cross", "current_date", "current_time", "current_timestamp", "database", "default",
	"delete", "desc", "distinct", "drop", "else", "end", "escape", "except", "exists",
	"foreign", "from", "full", "glob", "group", "having", "in", "index", "inner",
	"insert", "intersect", "into", "is", "isnull", "join", "key", "left", "like",
	"limit", "match", "natural", "no", "not", "notnull", "null", "of", "offset", "on",
	"or", "order", "outer", "pragma", "primary", "references", "regexp", "rename",
	"replace", "right", "select", "set", "table", "then", "to", "transaction",
	"union", "unique", "update", "using", "values", "when", "where", "with",
}

// SQLite is the SQLite dialect. Type names are kept for their affinity;
// UNSIGNED has no meaning and is dropped.
var SQLite = dialect.New(Config).
	WithReservedWords(sqliteReservedWords...).
	TypeMapper(func(t core.ColumnType) string { return t.WithArgs(t.Base) }).
	Build()
