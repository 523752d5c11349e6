package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tordrt/polyseed/internal/config"
)

// PostgreSQL error codes the sinks react to.
const (
	pgDuplicateTable  = "42P07"
	pgUndefinedColumn = "42703"
	pgDuplicateColumn = "42701"
)

// PostgresClient manages the connection to PostgreSQL
type PostgresClient struct {
	conn *pgx.Conn
}

// NewPostgresClient creates a new PostgreSQL client
func NewPostgresClient(ctx context.Context, c *config.Connection) (*PostgresClient, error) {
	cfg, err := pgx.ParseConfig(c.PostgresConnString())
	if err != nil {
		return nil, fmt.Errorf("%w: invalid postgres connection: %w", config.ErrConfig, err)
	}

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to database: %w", ErrConnectivity, err)
	}

	// Test the connection
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("%w: failed to ping database: %w", ErrConnectivity, err)
	}

	return &PostgresClient{conn: conn}, nil
}

func (c *PostgresClient) Driver() string { return "postgres" }

// Exec runs a single statement outside any explicit transaction.
func (c *PostgresClient) Exec(ctx context.Context, stmt string) error {
	if _, err := c.conn.Exec(ctx, stmt); err != nil {
		return classified(classifyPostgres(err), err)
	}
	return nil
}

// TableColumns reads information_schema for table, which may be schema
// qualified. Unqualified names resolve against current_schema().
func (c *PostgresClient) TableColumns(ctx context.Context, table string) ([]string, error) {
	schemaName, name := splitQualified(table)

	query := `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = COALESCE(NULLIF(lower($1::text), ''), current_schema())
			AND table_name = lower($2::text)
		ORDER BY ordinal_position
	`

	rows, err := c.conn.Query(ctx, query, schemaName, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	return c.conn.Close(context.Background())
}

// GetConnection returns the underlying connection
func (c *PostgresClient) GetConnection() *pgx.Conn {
	return c.conn
}

func classifyPostgres(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	switch pgErr.Code {
	case pgDuplicateTable:
		return ErrTableExists
	case pgUndefinedColumn:
		return ErrUndefinedColumn
	case pgDuplicateColumn:
		return ErrDuplicateColumn
	}
	return nil
}

// splitQualified splits "schema.table" into its parts.
func splitQualified(table string) (string, string) {
	if i := strings.LastIndexByte(table, '.'); i >= 0 {
		return table[:i], table[i+1:]
	}
	return "", table
}
