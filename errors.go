package polyseed

import (
	"github.com/tordrt/polyseed/internal/config"
	"github.com/tordrt/polyseed/internal/db"
	"github.com/tordrt/polyseed/internal/geometry"
	"github.com/tordrt/polyseed/internal/sink"
)

// Error kinds returned by Run.
var (
	// ErrConfig is a missing or invalid configuration section or value.
	// Nothing has been read, sampled or written when it is returned.
	ErrConfig = config.ErrConfig

	// ErrGeometry is an empty or unusable region, or one below the
	// configured min_coverage.
	ErrGeometry = geometry.ErrGeometry

	// ErrConnectivity is an unreachable or rejecting database.
	ErrConnectivity = db.ErrConnectivity

	// ErrSchemaConflict marks the existing-table condition the database
	// sink recovers from. Run only logs it.
	ErrSchemaConflict = sink.ErrSchemaConflict

	// ErrColumnMismatch is a row whose columns the live table lacks.
	ErrColumnMismatch = sink.ErrColumnMismatch
)
