// Package mysql provides the MySQL DDL dialect definition.
// This package is pure Go with no database driver dependencies.
package mysql

import "github.com/leapstack-labs/leapcollect/pkg/core"

// Config is the MySQL dialect configuration.
var Config = &core.DialectConfig{
	Name:        "mysql",
	Placeholder: core.PlaceholderQuestion,
	Identifiers: core.IdentifierConfig{
		Quote:         "`",
		QuoteEnd:      "`",
		Escape:        "``",
		Normalization: core.NormCaseInsensitive,
	},

	AutoIncrement:     core.AutoIncrementKeyword,
	AddColumn:         core.AddColumnAsDeclared,
	ColumnComments:    true,
	ForeignKeyActions: true,
	BackslashEscapes:  true,
	// BLOB, TEXT, GEOMETRY and JSON columns can't have a literal default value.
	NoLiteralDefaultTypes: []string{"TEXT", "TINYTEXT", "MEDIUMTEXT", "LONGTEXT", "BLOB", "JSON", "GEOMETRY"},

	TableExistsQuery: `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?`,
	ColumnsQuery: `
		SELECT
			column_name,
			column_type,
			is_nullable,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position
	`,
}
