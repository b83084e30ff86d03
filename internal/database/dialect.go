package database

import (
	"strings"

	"github.com/at-ishikawa/logeion/internal/config"
)

// Dialect holds the driver specific SQL used for catalog lookups.
// Every catalog query takes the table name as its only bind parameter.
type Dialect struct {
	Name string
	// TableExistsQuery returns one row when the table exists.
	TableExistsQuery string
	// ColumnsQuery returns name, type, notnull (0/1) and pk (0/1) per column, in declaration order.
	ColumnsQuery string
	quote        byte
}

var (
	SQLiteDialect = Dialect{
		Name:             config.DriverSQLite,
		TableExistsQuery: `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`,
		ColumnsQuery:     `SELECT name, type, "notnull", pk FROM pragma_table_info(?) ORDER BY cid`,
		quote:            '"',
	}
	MySQLDialect = Dialect{
		Name:             config.DriverMySQL,
		TableExistsQuery: `SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?`,
		ColumnsQuery: `SELECT column_name, column_type,
	CASE WHEN is_nullable = 'NO' THEN 1 ELSE 0 END,
	CASE WHEN column_key = 'PRI' THEN 1 ELSE 0 END
FROM information_schema.columns
WHERE table_schema = DATABASE() AND table_name = ?
ORDER BY ordinal_position`,
		quote: '`',
	}
)

// DialectFor returns the dialect of the configured driver.
func DialectFor(driver string) Dialect {
	if driver == config.DriverMySQL {
		return MySQLDialect
	}
	return SQLiteDialect
}

// QuoteIdent quotes an identifier, doubling any embedded quote character.
func (d Dialect) QuoteIdent(name string) string {
	q := string(d.quote)
	return q + strings.ReplaceAll(name, q, q+q) + q
}
