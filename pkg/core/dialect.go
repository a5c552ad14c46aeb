package core

// NormalizationStrategy defines how unquoted identifiers are normalized.
type NormalizationStrategy int

const (
	// NormLowercase normalizes unquoted identifiers to lowercase (default SQL behavior).
	NormLowercase NormalizationStrategy = iota
	// NormUppercase normalizes unquoted identifiers to uppercase.
	NormUppercase
	// NormCaseSensitive preserves identifier case exactly.
	NormCaseSensitive
	// NormCaseInsensitive normalizes to lowercase for comparison (MySQL, SQLite, DuckDB).
	NormCaseInsensitive
)

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (DuckDB, MySQL, SQLite).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, etc. for parameters (PostgreSQL).
	PlaceholderDollar
)

// IdentifierConfig defines how identifiers are quoted and normalized.
type IdentifierConfig struct {
	Quote         string                // Quote character: ", `
	QuoteEnd      string                // End quote character (usually same as Quote)
	Escape        string                // Escape sequence: "", ``
	Normalization NormalizationStrategy // How to normalize unquoted identifiers
}

// AutoIncrementStyle defines how a dialect renders auto-increment primary keys.
type AutoIncrementStyle int

const (
	// AutoIncrementKeyword appends AUTO_INCREMENT to the column (MySQL).
	AutoIncrementKeyword AutoIncrementStyle = iota
	// AutoIncrementInlinePrimaryKey renders INTEGER PRIMARY KEY AUTOINCREMENT (SQLite).
	AutoIncrementInlinePrimaryKey
	// AutoIncrementSerial swaps the column type for SERIAL/BIGSERIAL (PostgreSQL).
	AutoIncrementSerial
	// AutoIncrementSequence backs the column with a sequence and nextval default (DuckDB).
	AutoIncrementSequence
)

// AddColumnRule defines which constraints survive ALTER TABLE ... ADD COLUMN.
type AddColumnRule int

const (
	// AddColumnAsDeclared keeps NOT NULL as declared (MySQL, PostgreSQL).
	AddColumnAsDeclared AddColumnRule = iota
	// AddColumnNullableWithoutDefault drops NOT NULL when there is no default (SQLite).
	AddColumnNullableWithoutDefault
	// AddColumnAlwaysNullable never emits constraints on added columns (DuckDB).
	AddColumnAlwaysNullable
)

// DialectConfig holds the static configuration for a DDL dialect.
// This is pure data; type mapping lives in pkg/dialect.Dialect.
type DialectConfig struct {
	// Name is the dialect identifier (e.g., "mysql", "postgres")
	Name string

	// Identifiers defines quoting and normalization rules
	Identifiers IdentifierConfig

	// DefaultSchema is the default schema name ("main" for DuckDB, "public" for Postgres)
	DefaultSchema string

	// Placeholder defines how query parameters are formatted
	Placeholder PlaceholderStyle

	// DDL capabilities
	AutoIncrement         AutoIncrementStyle
	AddColumn             AddColumnRule
	ColumnComments        bool     // inline COMMENT '...' on columns
	ForeignKeyActions     bool     // ON DELETE ... on foreign keys
	BackslashEscapes      bool     // backslash is an escape character in string literals
	NoLiteralDefaultTypes []string // base types that reject literal defaults (MySQL TEXT/JSON)

	// Introspection. Both queries take the table name as their only parameter.
	// ColumnsQuery returns name, type, is_nullable (YES/NO) and 1-based position.
	TableExistsQuery string
	ColumnsQuery     string
}
