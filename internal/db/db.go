// Package db connects to the destination database and runs single
// autocommit statements against it.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/tordrt/polyseed/internal/config"
)

var (
	// ErrConnectivity means the database could not be reached.
	ErrConnectivity = errors.New("database unreachable")

	// ErrTableExists classifies a create on a table that already exists.
	ErrTableExists = errors.New("table already exists")
	// ErrUndefinedColumn classifies a reference to a column that does not exist.
	ErrUndefinedColumn = errors.New("undefined column")
	// ErrDuplicateColumn classifies an add of a column that already exists.
	ErrDuplicateColumn = errors.New("duplicate column")
)

// Client is an open connection to one database.
type Client interface {
	// Exec runs one statement. Failures the sinks react to are wrapped
	// with ErrTableExists, ErrUndefinedColumn or ErrDuplicateColumn.
	Exec(ctx context.Context, stmt string) error
	// TableColumns lists the columns of table in ordinal order. A missing
	// table yields no columns.
	TableColumns(ctx context.Context, table string) ([]string, error)
	// Driver names the backend: postgres, sqlite or mysql.
	Driver() string
	Close() error
}

// Open connects and pings the database described by conn.
func Open(ctx context.Context, conn *config.Connection) (Client, error) {
	switch conn.Driver {
	case "postgres":
		return NewPostgresClient(ctx, conn)
	case "sqlite":
		return NewSQLiteClient(ctx, conn)
	case "mysql":
		return NewMySQLClient(ctx, conn)
	}
	return nil, fmt.Errorf("%w: unsupported driver %q", config.ErrConfig, conn.Driver)
}

// classified wraps err with kind so callers can match either.
func classified(kind, err error) error {
	if kind == nil {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
