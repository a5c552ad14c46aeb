// Package sqlite provides the SQLite DDL dialect definition.
// This package is pure Go with no database driver dependencies.
package sqlite

import "github.com/leapstack-labs/leapcollect/pkg/core"

// Config is the SQLite dialect configuration.
var Config = &core.DialectConfig{
	Name:          "sqlite",
	DefaultSchema: "main",
	Placeholder:   core.PlaceholderQuestion,
	Identifiers: core.IdentifierConfig{
		Quote:         `"`,
		QuoteEnd:      `"`,
		Escape:        `""`,
		Normalization: core.NormCaseInsensitive,
	},

	AutoIncrement:     core.AutoIncrementInlinePrimaryKey,
	AddColumn:         core.AddColumnNullableWithoutDefault,
	ForeignKeyActions: true,

	TableExistsQuery: `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
	ColumnsQuery: `
		SELECT
			name,
			type,
			CASE WHEN "notnull" = 0 THEN 'YES' ELSE 'NO' END,
			cid + 1
		FROM pragma_table_info(?)
		ORDER BY cid
	`,
}
