package sink

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tordrt/polyseed/internal/dialect"
	"github.com/tordrt/polyseed/internal/schema"
)

// Script writes one statement per line, each terminated by ";\n".
type Script struct {
	path    string
	file    *os.File
	w       *bufio.Writer
	dialect dialect.Dialect
	table   string
}

// NewScript truncates or creates the file at path.
func NewScript(path string, d dialect.Dialect, table string) (*Script, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create script %s: %w", path, err)
	}
	return &Script{
		path:    path,
		file:    f,
		w:       bufio.NewWriter(f),
		dialect: d,
		table:   table,
	}, nil
}

// ApplySchema writes the directives. A create is preceded by a drop so
// that replaying the script replaces an existing table.
func (s *Script) ApplySchema(_ context.Context, directives []schema.Directive) error {
	for _, dir := range directives {
		if dir.Kind == schema.CreateTable {
			if err := s.directive(schema.Directive{Kind: schema.DropTableIfExists, Table: dir.Table}); err != nil {
				return err
			}
		}
		if err := s.directive(dir); err != nil {
			return err
		}
	}
	return nil
}

func (s *Script) directive(dir schema.Directive) error {
	stmt, err := s.dialect.Directive(dir)
	if err != nil {
		return err
	}
	return s.statement(stmt)
}

func (s *Script) Write(_ context.Context, row schema.Row) error {
	return s.statement(s.dialect.Insert(s.table, row))
}

func (s *Script) statement(stmt string) error {
	if _, err := s.w.WriteString(stmt + ";\n"); err != nil {
		return fmt.Errorf("failed to write script %s: %w", s.path, err)
	}
	return nil
}

// Path returns the file being written.
func (s *Script) Path() string { return s.path }

// Close flushes buffered statements and closes the file.
func (s *Script) Close() error {
	return errors.Join(s.w.Flush(), s.file.Close())
}
