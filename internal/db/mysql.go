package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/tordrt/polyseed/internal/config"
)

// MySQL server error numbers the sinks react to.
const (
	myTableExists    = 1050
	myBadField       = 1054
	myDuplicateField = 1060
	myCantDropField  = 1091
)

// MySQLClient manages the connection to MySQL
type MySQLClient struct {
	db *sql.DB
}

// NewMySQLClient creates a new MySQL client
func NewMySQLClient(ctx context.Context, c *config.Connection) (*MySQLClient, error) {
	dsn, err := mysqlDSN(c)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", ErrConnectivity, err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %w", ErrConnectivity, err)
	}

	return &MySQLClient{db: db}, nil
}

// mysqlDSN builds the driver DSN. A url key is taken as a ready DSN.
func mysqlDSN(c *config.Connection) (string, error) {
	if c.URL != "" {
		if _, err := mysql.ParseDSN(c.URL); err != nil {
			return "", fmt.Errorf("%w: invalid mysql dsn: %w", config.ErrConfig, err)
		}
		return c.URL, nil
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = c.Address("3306")
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.DBName = c.Database
	if len(c.Params) > 0 {
		cfg.Params = make(map[string]string, len(c.Params))
		for k, v := range c.Params {
			cfg.Params[k] = v
		}
	}
	return cfg.FormatDSN(), nil
}

func (c *MySQLClient) Driver() string { return "mysql" }

func (c *MySQLClient) Exec(ctx context.Context, stmt string) error {
	if _, err := c.db.ExecContext(ctx, stmt); err != nil {
		return classified(classifyMySQL(err), err)
	}
	return nil
}

// TableColumns reads information_schema. Unqualified names resolve against
// the connection's default database.
func (c *MySQLClient) TableColumns(ctx context.Context, table string) ([]string, error) {
	schemaName, name := splitQualified(table)

	query := `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE())
			AND table_name = ?
		ORDER BY ordinal_position
	`

	rows, err := c.db.QueryContext(ctx, query, schemaName, name)
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
func (c *MySQLClient) Close() error {
	return c.db.Close()
}

// GetDB returns the underlying database connection
func (c *MySQLClient) GetDB() *sql.DB {
	return c.db
}

func classifyMySQL(err error) error {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return nil
	}
	switch myErr.Number {
	case myTableExists:
		return ErrTableExists
	case myBadField, myCantDropField:
		return ErrUndefinedColumn
	case myDuplicateField:
		return ErrDuplicateColumn
	}
	return nil
}
