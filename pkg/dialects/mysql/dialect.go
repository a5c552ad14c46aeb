package mysql

import (
	"github.com/leapstack-labs/leapcollect/pkg/core"
	"github.com/leapstack-labs/leapcollect/pkg/dialect"
)

func init() {
	dialect.Register(MySQL)
}

// mysqlReservedWords contains common MySQL reserved words.
var mysqlReservedWords = []string{
	"add", "all", "alter", "and", "as", "asc", "between", "by", "case", "change",
	"check", "column", "condition", "constraint", "create", "cross", "current_date",
	"current_time", "current_timestamp", "database", "default", "delete", "desc",
	"describe", "distinct", "div", "drop", "else", "exists", "explain", "false",
	"for", "foreign", "from", "group", "having", "if", "in", "index", "inner",
	"insert", "interval", "into", "is", "join", "key", "keys", "kill", "left",
	"like", "limit", "lock", "match", "mod", "natural", "not", "null", "on",
	"option", "or", "order", "outer", "primary", "range", "read", "references",
	"rename", "replace", "right", "select", "set", "show", "table", "then", "to",
	"true", "union", "unique", "unsigned", "update", "usage", "use", "using",
	"values", "when", "where", "with", "write",
}

// MySQL is the MySQL dialect. Logical types are already MySQL notation and
// are emitted unchanged.
var MySQL = dialect.New(Config).
	WithReservedWords(mysqlReservedWords...).
	TypeMapper(func(t core.ColumnType) string { return t.String() }).
	Build()
