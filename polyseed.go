// Package polyseed generates synthetic point datasets inside a polygonal
// region and delivers them to a spatial database table or a SQL script.
//
// A run reads one configuration, unions and repairs the GeoJSON boundaries
// into a region, draws uniformly distributed points inside it by rejection
// sampling, attaches the optional random attributes the configuration
// enables and writes one row per point.
//
// # Quick Start
//
//	cfg, err := polyseed.LoadConfig("seed.ini")
//	if err != nil {
//		log.Fatal(err)
//	}
//	res, err := polyseed.Run(ctx, cfg, polyseed.Options{Sink: sink.KindScript})
//
// # Sinks
//
// The database sink executes every statement against the live database in
// autocommit mode. The script sink writes the same statements to a file,
// truncated at the start of each run. Replaying the script against a fresh
// database leaves it in the state a direct run would.
//
// # Errors
//
// Failures wrap one of ErrConfig, ErrGeometry, ErrConnectivity or
// ErrColumnMismatch; match them with errors.Is. An existing table when a
// new one is requested is recovered by dropping and recreating it.
package polyseed

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/tordrt/polyseed/internal/attribute"
	"github.com/tordrt/polyseed/internal/config"
	"github.com/tordrt/polyseed/internal/db"
	"github.com/tordrt/polyseed/internal/dialect"
	"github.com/tordrt/polyseed/internal/formatter"
	"github.com/tordrt/polyseed/internal/geometry"
	"github.com/tordrt/polyseed/internal/sampler"
	"github.com/tordrt/polyseed/internal/schema"
	"github.com/tordrt/polyseed/internal/sink"
)

// Options configures one run.
//
// All fields are optional. If not specified:
//   - Sink: the database sink
//   - Dialect: the dialect named in the configuration, else postgres
//   - Seed: the configured seed, else unseeded sources
//   - Logger: slog.Default()
type Options struct {
	// Sink selects the destination: sink.KindDatabase or sink.KindScript.
	Sink sink.Kind

	// NewTable creates the destination table, replacing an existing one.
	// When false the table is reused and missing attribute columns are
	// added. The script sink always creates the table.
	NewTable bool

	// Clear deletes every row of a reused table before writing.
	Clear bool

	// Dialect overrides the SQL dialect of the script sink. The database
	// sink always speaks its driver's dialect.
	Dialect string

	// Seed makes the run reproducible. It overrides the configured seed
	// and is ignored for sources set explicitly below.
	Seed *uint64

	Logger *slog.Logger

	// Rand drives sampling and the numeric attributes.
	Rand *rand.Rand

	// TextSource supplies bytes for text attributes. Unseeded runs default
	// to crypto/rand.
	TextSource io.Reader
}

// Result summarizes a successful run.
type Result struct {
	RunID   string
	Rows    int
	Table   string
	Sink    sink.Kind
	Dialect string

	// ScriptPath is set for script runs.
	ScriptPath string
	// Draws is the number of candidate points the sampler drew.
	Draws uint64
	// Coverage is the region's share of its bounding box.
	Coverage float64
}

// LoadConfig reads an INI or YAML configuration file.
func LoadConfig(path string) (*config.Config, error) {
	return config.Load(path)
}

// settings is everything a run needs, resolved before any side effect.
type settings struct {
	sink        sink.Kind
	points      int
	table       string
	spec        attribute.Spec
	layout      schema.Layout
	intent      schema.Intent
	boundary    string
	script      string
	conn        *config.Connection
	dialect     dialect.Dialect
	minCoverage float64
	seed        uint64
	seeded      bool
}

// Run executes one generation run against cfg.
func Run(ctx context.Context, cfg *config.Config, opts Options) (res *Result, err error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runID := uuid.NewString()
	logger = logger.With("run_id", runID)

	st, err := resolve(cfg, opts)
	if err != nil {
		return nil, err
	}
	logger.Info("configuration resolved",
		"sink", st.sink,
		"table", st.table,
		"points", st.points,
		"attributes", st.spec.Active.String(),
		"layout", st.layout,
		"dialect", st.dialect.Name(),
	)

	boundaries, err := geometry.LoadBoundaries(st.boundary)
	if err != nil {
		return nil, err
	}
	region, err := geometry.Build(boundaries)
	if err != nil {
		return nil, err
	}
	coverage := region.Coverage()
	logger.Debug("region built", "parts", len(region.Parts()), "area", region.Area(), "coverage", coverage)

	if st.minCoverage > 0 && coverage < st.minCoverage {
		return nil, fmt.Errorf("%w: region covers %.6f of its bounding box, below min_coverage %.6f",
			geometry.ErrGeometry, coverage, st.minCoverage)
	}

	rng, text := sources(st, opts)
	smp := sampler.New(rng)
	points := smp.Sample(region, st.points)
	logger.Debug("points sampled", "accepted", len(points), "draws", smp.Draws())

	out, err := openSink(ctx, st, logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close sink: %w", cerr))
			res = nil
		}
	}()

	plan := schema.BuildPlan(st.table, st.spec.Active, st.intent, st.layout)
	if err := out.ApplySchema(ctx, plan.Before); err != nil {
		return nil, err
	}

	synth := attribute.NewSynthesizer(rng, text)
	for i, p := range points {
		tuple, err := synth.Generate(st.spec)
		if err != nil {
			return nil, err
		}
		if err := out.Write(ctx, schema.Render(p, tuple, st.spec.Active)); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	if err := out.ApplySchema(ctx, plan.After); err != nil {
		return nil, err
	}

	res = &Result{
		RunID:    runID,
		Rows:     len(points),
		Table:    st.table,
		Sink:     st.sink,
		Dialect:  st.dialect.Name(),
		Draws:    smp.Draws(),
		Coverage: coverage,
	}
	if st.sink == sink.KindScript {
		res.ScriptPath = st.script
	}
	logger.Info("run complete", "rows", res.Rows, "draws", res.Draws)
	return res, nil
}

// Describe resolves cfg the way Run does and reports the final table layout
// and the statements a run would apply. Nothing is read, sampled or written.
func Describe(cfg *config.Config, opts Options) (*formatter.Description, error) {
	st, err := resolve(cfg, opts)
	if err != nil {
		return nil, err
	}

	d := &formatter.Description{
		Table:      schema.ActiveTable(st.table, st.spec.Active),
		Sink:       string(st.sink),
		Dialect:    st.dialect.Name(),
		Points:     st.points,
		Layout:     string(st.layout),
		Attributes: st.spec.Active.String(),
	}

	plan := schema.BuildPlan(st.table, st.spec.Active, st.intent, st.layout)
	add := func(dir schema.Directive, after bool) error {
		stmt, err := st.dialect.Directive(dir)
		if err != nil {
			return err
		}
		d.Steps = append(d.Steps, formatter.Step{Directive: dir, SQL: stmt, AfterRows: after})
		return nil
	}
	for _, dir := range plan.Before {
		if st.sink == sink.KindScript && dir.Kind == schema.CreateTable {
			if err := add(schema.Directive{Kind: schema.DropTableIfExists, Table: dir.Table}, false); err != nil {
				return nil, err
			}
		}
		if err := add(dir, false); err != nil {
			return nil, err
		}
	}
	for _, dir := range plan.After {
		if err := add(dir, true); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func resolve(cfg *config.Config, opts Options) (*settings, error) {
	st := &settings{}

	switch opts.Sink {
	case "", sink.KindDatabase, "database":
		st.sink = sink.KindDatabase
	case sink.KindScript, "file":
		st.sink = sink.KindScript
	default:
		return nil, fmt.Errorf("%w: unknown sink %q", ErrConfig, opts.Sink)
	}

	var err error
	if st.points, err = cfg.Points(); err != nil {
		return nil, err
	}
	if st.table, err = cfg.Table(); err != nil {
		return nil, err
	}
	if st.spec, err = attribute.Resolve(cfg); err != nil {
		return nil, err
	}
	if st.layout, err = schema.ParseLayout(cfg.Layout()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if st.boundary, err = cfg.BoundaryPath(); err != nil {
		return nil, err
	}
	if st.minCoverage, err = cfg.MinCoverage(); err != nil {
		return nil, err
	}
	if st.seed, st.seeded, err = cfg.Seed(); err != nil {
		return nil, err
	}
	if opts.Seed != nil {
		st.seed, st.seeded = *opts.Seed, true
	}

	dialectName := opts.Dialect
	if st.sink == sink.KindScript {
		if st.script, err = cfg.ScriptPath(); err != nil {
			return nil, err
		}
		if dialectName == "" {
			dialectName = cfg.Dialect()
		}
		// The script always recreates the table.
		st.intent = schema.Intent{NewTable: true}
	} else {
		if st.conn, err = cfg.Connection(); err != nil {
			return nil, err
		}
		dialectName = st.conn.Driver
		st.intent = schema.Intent{NewTable: opts.NewTable, Clear: opts.Clear}
	}

	if st.dialect, err = dialect.ByName(dialectName); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return st, nil
}

// sources returns the random number generator and the text byte source.
func sources(st *settings, opts Options) (*rand.Rand, io.Reader) {
	rng := opts.Rand
	text := opts.TextSource

	if st.seeded {
		var key [32]byte
		binary.LittleEndian.PutUint64(key[:], st.seed)
		if rng == nil {
			rng = rand.New(rand.NewPCG(st.seed, st.seed^0x9e3779b97f4a7c15))
		}
		if text == nil {
			text = rand.NewChaCha8(key)
		}
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rng, text
}

func openSink(ctx context.Context, st *settings, logger *slog.Logger) (sink.Sink, error) {
	if st.sink == sink.KindScript {
		return sink.NewScript(st.script, st.dialect, st.table)
	}

	client, err := db.Open(ctx, st.conn)
	if err != nil {
		return nil, err
	}
	logger.Debug("connected", "driver", client.Driver())
	return sink.NewDatabase(client, st.dialect, st.table, logger), nil
}
