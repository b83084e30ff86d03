package dictionary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/logeion/internal/config"
	"github.com/at-ishikawa/logeion/internal/database"
)

//go:generate mockgen -source=repository.go -destination=../mocks/dictionary/mock_store.go -package=mock_dictionary

// Store defines read operations against the dictionary database.
type Store interface {
	// FetchByHead returns every entry whose lookup column equals key exactly.
	FetchByHead(ctx context.Context, key string) ([]Entry, error)
	// DescribeTable returns the columns and up to limit sample rows of an explorable table.
	DescribeTable(ctx context.Context, table string, limit int) (SchemaReport, error)
	// Ping checks that a connection can be established.
	Ping(ctx context.Context) error
}

var (
	ErrTableNotAllowed = errors.New("table is not explorable")
	ErrTableNotFound   = errors.New("table does not exist")
)

// Opener opens a new connection pool. DBStore calls it once per operation.
type Opener func() (*sqlx.DB, error)

// DBStore implements Store on top of a SQL database.
// Connections are never shared between calls.
type DBStore struct {
	open       Opener
	dialect    database.Dialect
	table      string
	headColumn string
	explorable []string
}

// NewDBStore creates a DBStore connecting with database.Open.
func NewDBStore(cfg config.DatabaseConfig) *DBStore {
	return NewDBStoreWithOpener(cfg, func() (*sqlx.DB, error) {
		return database.Open(cfg)
	})
}

// NewDBStoreWithOpener creates a DBStore using the given opener.
func NewDBStoreWithOpener(cfg config.DatabaseConfig, open Opener) *DBStore {
	explorable := cfg.ExplorableTables
	if len(explorable) == 0 {
		explorable = []string{cfg.LookupTable}
	}
	return &DBStore{
		open:       open,
		dialect:    database.DialectFor(cfg.Driver),
		table:      cfg.LookupTable,
		headColumn: cfg.HeadColumn,
		explorable: explorable,
	}
}

// ExplorableTables returns the tables DescribeTable accepts.
func (s *DBStore) ExplorableTables() []string {
	return s.explorable
}

func (s *DBStore) withConn(fn func(db *sqlx.DB) error) error {
	db, err := s.open()
	if err != nil {
		return fmt.Errorf("open dictionary database: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()
	return fn(db)
}

// FetchByHead returns all entries whose head column equals key.
func (s *DBStore) FetchByHead(ctx context.Context, key string) ([]Entry, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = ?",
		s.dialect.QuoteIdent(s.table), s.dialect.QuoteIdent(s.headColumn))

	var entries []Entry
	err := s.withConn(func(db *sqlx.DB) error {
		var err error
		entries, err = selectEntries(ctx, db, db.Rebind(query), key)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch entries for %q: %w", key, err)
	}
	return entries, nil
}

// DescribeTable reports the schema and a bounded sample of table.
// Only tables in the explorable allow-list are queried.
func (s *DBStore) DescribeTable(ctx context.Context, table string, limit int) (SchemaReport, error) {
	if !s.isExplorable(table) {
		return SchemaReport{}, fmt.Errorf("%w: %q (explorable tables: %s)",
			ErrTableNotAllowed, table, strings.Join(s.ExplorableTables(), ", "))
	}

	report := SchemaReport{
		Success: true,
		Table:   table,
	}
	err := s.withConn(func(db *sqlx.DB) error {
		var name string
		if err := db.QueryRowxContext(ctx, db.Rebind(s.dialect.TableExistsQuery), table).Scan(&name); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %q", ErrTableNotFound, table)
			}
			return fmt.Errorf("look up table %q: %w", table, err)
		}

		columns, err := selectColumns(ctx, db, db.Rebind(s.dialect.ColumnsQuery), table)
		if err != nil {
			return err
		}
		report.Columns = columns
		report.ColumnNames = make([]string, 0, len(columns))
		for _, c := range columns {
			report.ColumnNames = append(report.ColumnNames, c.Name)
		}

		sampleQuery := fmt.Sprintf("SELECT * FROM %s LIMIT ?", s.dialect.QuoteIdent(table))
		rows, err := selectEntries(ctx, db, db.Rebind(sampleQuery), limit)
		if err != nil {
			return fmt.Errorf("sample table %q: %w", table, err)
		}
		report.SampleRows = rows
		return nil
	})
	if err != nil {
		return SchemaReport{}, err
	}
	return report, nil
}

// Ping opens a connection, pings the database and releases the connection.
func (s *DBStore) Ping(ctx context.Context) error {
	return s.withConn(func(db *sqlx.DB) error {
		return db.PingContext(ctx)
	})
}

func (s *DBStore) isExplorable(table string) bool {
	for _, t := range s.explorable {
		if t == table {
			return true
		}
	}
	return false
}

func selectEntries(ctx context.Context, db *sqlx.DB, query string, args ...any) ([]Entry, error) {
	rows, err := db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]Entry, 0)
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("rows.MapScan > %w", err)
		}
		entries = append(entries, toEntry(row))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func selectColumns(ctx context.Context, db *sqlx.DB, query string, table string) ([]Column, error) {
	rows, err := db.QueryxContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("read columns of %q: %w", table, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	columns := make([]Column, 0)
	for rows.Next() {
		var (
			name, colType string
			notNull, pk   int
		)
		if err := rows.Scan(&name, &colType, &notNull, &pk); err != nil {
			return nil, fmt.Errorf("rows.Scan > %w", err)
		}
		columns = append(columns, Column{
			Name:       name,
			Type:       colType,
			Nullable:   notNull == 0,
			PrimaryKey: pk != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns of %q: %w", table, err)
	}
	return columns, nil
}

// toEntry converts driver values so entries serialize as JSON text rather than base64.
func toEntry(row map[string]any) Entry {
	entry := make(Entry, len(row))
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			entry[k] = string(b)
			continue
		}
		entry[k] = v
	}
	return entry
}
