// Package sink delivers schema directives and rows either to a live
// database or to a SQL script file.
package sink

import (
	"context"
	"errors"

	"github.com/tordrt/polyseed/internal/schema"
)

var (
	// ErrSchemaConflict means the destination table already existed when it
	// was about to be created. The database sink recovers from it.
	ErrSchemaConflict = errors.New("schema conflict")
	// ErrColumnMismatch means the live table lacks a column a row needs.
	ErrColumnMismatch = errors.New("column mismatch")
)

// Sink consumes the directive and row stream of one run.
type Sink interface {
	ApplySchema(ctx context.Context, directives []schema.Directive) error
	Write(ctx context.Context, row schema.Row) error
	Close() error
}

// Kind names a sink on the command line and in results.
type Kind string

const (
	KindDatabase Kind = "db"
	KindScript   Kind = "script"
)
