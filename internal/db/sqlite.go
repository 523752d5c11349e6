package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/tordrt/polyseed/internal/config"
)

// sqliteDriver is go-sqlite3 with the geometry functions the sqlite
// dialect emits registered on every connection.
const sqliteDriver = "sqlite3_polyseed"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: registerGeometryFuncs,
	})
}

// SQLiteClient manages the connection to SQLite
type SQLiteClient struct {
	db *sql.DB
}

// NewSQLiteClient creates a new SQLite client
func NewSQLiteClient(ctx context.Context, c *config.Connection) (*SQLiteClient, error) {
	dsn := c.Path
	if dsn == "" {
		dsn = c.URL
	}

	db, err := sql.Open(sqliteDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", ErrConnectivity, err)
	}
	// A single connection keeps in-memory databases shared across statements.
	db.SetMaxOpenConns(1)

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %w", ErrConnectivity, err)
	}

	return &SQLiteClient{db: db}, nil
}

func (c *SQLiteClient) Driver() string { return "sqlite" }

func (c *SQLiteClient) Exec(ctx context.Context, stmt string) error {
	if _, err := c.db.ExecContext(ctx, stmt); err != nil {
		return classified(classifySQLite(err), err)
	}
	return nil
}

// TableColumns reads PRAGMA table_info. A "schema.table" name addresses an
// attached database.
func (c *SQLiteClient) TableColumns(ctx context.Context, table string) ([]string, error) {
	schemaName, name := splitQualified(table)
	query := fmt.Sprintf("PRAGMA table_info(%s)", name)
	if schemaName != "" {
		query = fmt.Sprintf("PRAGMA %s.table_info(%s)", schemaName, name)
	}

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid       int
			colName   string
			colType   string
			notNull   int
			defaultV  sql.NullString
			pkOrdinal int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &defaultV, &pkOrdinal); err != nil {
			return nil, err
		}
		columns = append(columns, colName)
	}

	return columns, rows.Err()
}

// Close closes the database connection
func (c *SQLiteClient) Close() error {
	return c.db.Close()
}

// GetDB returns the underlying database connection
func (c *SQLiteClient) GetDB() *sql.DB {
	return c.db
}

// classifySQLite matches on the message since SQLite reports all three
// cases with the generic SQLITE_ERROR code.
func classifySQLite(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "duplicate column name"):
		return ErrDuplicateColumn
	case strings.Contains(msg, "no such column"), strings.Contains(msg, "has no column named"):
		return ErrUndefinedColumn
	case strings.HasPrefix(msg, "table ") && strings.Contains(msg, "already exists"):
		return ErrTableExists
	}
	return nil
}
