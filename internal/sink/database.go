package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tordrt/polyseed/internal/db"
	"github.com/tordrt/polyseed/internal/dialect"
	"github.com/tordrt/polyseed/internal/schema"
)

// Database applies every directive and row as its own autocommit
// statement. Nothing is rolled back on failure.
type Database struct {
	client  db.Client
	dialect dialect.Dialect
	table   string
	logger  *slog.Logger

	checked bool
}

// NewDatabase returns a sink writing rows into table through client.
func NewDatabase(client db.Client, d dialect.Dialect, table string, logger *slog.Logger) *Database {
	if logger == nil {
		logger = slog.Default()
	}
	return &Database{
		client:  client,
		dialect: d,
		table:   table,
		logger:  logger.With("sink", KindDatabase, "table", table),
	}
}

func (s *Database) ApplySchema(ctx context.Context, directives []schema.Directive) error {
	for _, dir := range directives {
		if err := s.apply(ctx, dir); err != nil {
			return err
		}
	}
	return nil
}

func (s *Database) apply(ctx context.Context, dir schema.Directive) error {
	err := s.exec(ctx, dir)
	switch {
	case err == nil:
		s.logger.Debug("applied directive", "directive", dir.String())
		return nil
	case dir.Kind == schema.CreateTable && errors.Is(err, db.ErrTableExists):
		s.logger.Warn("table exists, recreating", "error", fmt.Errorf("%w: %w", ErrSchemaConflict, err))
		return s.recreate(ctx, dir)
	case dir.Kind == schema.DropColumn && errors.Is(err, db.ErrUndefinedColumn):
		s.logger.Info("column already absent", "column", dir.Column.Name)
		return nil
	case dir.Kind == schema.AddColumn && errors.Is(err, db.ErrDuplicateColumn):
		s.logger.Info("column already present", "column", dir.Column.Name)
		return nil
	}
	return fmt.Errorf("failed to apply %s: %w", dir, err)
}

func (s *Database) recreate(ctx context.Context, create schema.Directive) error {
	drop := schema.Directive{Kind: schema.DropTableIfExists, Table: create.Table}
	if err := s.exec(ctx, drop); err != nil {
		return fmt.Errorf("failed to drop conflicting table %s: %w", create.Table, err)
	}
	if err := s.exec(ctx, create); err != nil {
		return fmt.Errorf("failed to recreate table %s: %w", create.Table, err)
	}
	return nil
}

func (s *Database) exec(ctx context.Context, dir schema.Directive) error {
	stmt, err := s.dialect.Directive(dir)
	if err != nil {
		return err
	}
	return s.client.Exec(ctx, stmt)
}

// Write inserts one row. The first call verifies that the live table has
// every column the row carries.
func (s *Database) Write(ctx context.Context, row schema.Row) error {
	if !s.checked {
		if err := s.checkColumns(ctx, row.Columns()); err != nil {
			return err
		}
		s.checked = true
	}

	err := s.client.Exec(ctx, s.dialect.Insert(s.table, row))
	if errors.Is(err, db.ErrUndefinedColumn) {
		return fmt.Errorf("%w: %w", ErrColumnMismatch, err)
	}
	if err != nil {
		return fmt.Errorf("failed to insert row: %w", err)
	}
	return nil
}

func (s *Database) checkColumns(ctx context.Context, want []string) error {
	live, err := s.client.TableColumns(ctx, s.table)
	if err != nil {
		return err
	}

	// Unquoted identifiers fold case on PostgreSQL.
	have := make(map[string]bool, len(live))
	for _, c := range live {
		have[strings.ToLower(c)] = true
	}

	var missing []string
	for _, c := range want {
		if !have[strings.ToLower(c)] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: table %s has no column %s", ErrColumnMismatch, s.table, strings.Join(missing, ", "))
	}
	return nil
}

func (s *Database) Close() error {
	return s.client.Close()
}
