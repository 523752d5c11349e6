package polyseed

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/polyseed/internal/config"
	"github.com/tordrt/polyseed/internal/db"
	"github.com/tordrt/polyseed/internal/sink"
)

const unitSquare = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,1],[0,0]]]}}
  ]
}`

const triangle = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[0,1],[0,0]]]}}
  ]
}`

type countingSource struct {
	calls int
	src   rand.Source
}

func (c *countingSource) Uint64() uint64 {
	c.calls++
	return c.src.Uint64()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// baseConfig enables only an 8 character text attribute.
func baseConfig(t *testing.T, dir string, points string) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.Set("numPoints", "num", points)
	cfg.Set("geojson", "file", writeFile(t, dir, "area.geojson", unitSquare))
	cfg.Set("TableName", "name", "pts")
	cfg.Set("SQLFile", "file", filepath.Join(dir, "out.sql"))
	cfg.Set("addColumn", "randStr", "yes")
	cfg.Set("addColumn", "randInt", "no")
	cfg.Set("addColumn", "randTime", "no")
	cfg.Set("colVals", "strLen", "8")
	return cfg
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seed(v uint64) *uint64 { return &v }

func TestRunScript(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig(t, dir, "50")

	res, err := Run(context.Background(), cfg, Options{Sink: sink.KindScript, Seed: seed(7), Logger: quiet()})
	require.NoError(t, err)

	assert.Equal(t, 50, res.Rows)
	assert.Equal(t, "pts", res.Table)
	assert.Equal(t, sink.KindScript, res.Sink)
	assert.Equal(t, "postgres", res.Dialect)
	assert.Equal(t, filepath.Join(dir, "out.sql"), res.ScriptPath)
	assert.Equal(t, uint64(50), res.Draws)
	assert.InDelta(t, 1.0, res.Coverage, 1e-9)
	assert.NotEmpty(t, res.RunID)

	data, err := os.ReadFile(res.ScriptPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 5+50)

	assert.Equal(t, "DROP TABLE IF EXISTS pts;", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "CREATE TABLE pts "))
	assert.True(t, strings.HasPrefix(lines[2], "CREATE INDEX pts_spatial_index "))
	assert.Equal(t, "ALTER TABLE pts DROP COLUMN IF EXISTS randInt;", lines[3])
	assert.Equal(t, "ALTER TABLE pts DROP COLUMN IF EXISTS randTime;", lines[4])

	insert := regexp.MustCompile(`^INSERT INTO pts \(randStr, thegeom\) VALUES \('[A-Za-z0-9]{8}', ST_SetSRID\(ST_MakePoint\([0-9.e-]+,[0-9.e-]+\),4326\)\);$`)
	for _, l := range lines[5:] {
		assert.Regexp(t, insert, l)
	}
}

func TestRunSeededIsReproducible(t *testing.T) {
	read := func() []byte {
		dir := t.TempDir()
		cfg := baseConfig(t, dir, "20")
		cfg.Set("addColumn", "randInt", "yes")
		cfg.Set("colVals", "intStart", "-5")
		cfg.Set("colVals", "intEnd", "5")
		cfg.Set("seed", "value", "42")

		res, err := Run(context.Background(), cfg, Options{Sink: sink.KindScript, Logger: quiet()})
		require.NoError(t, err)
		data, err := os.ReadFile(res.ScriptPath)
		require.NoError(t, err)
		return data
	}
	assert.Equal(t, read(), read())
}

func TestRunRejectsBadBoundsBeforeSampling(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig(t, dir, "10")
	cfg.Set("addColumn", "randInt", "yes")
	cfg.Set("colVals", "intStart", "10")
	cfg.Set("colVals", "intEnd", "5")

	src := &countingSource{src: rand.NewPCG(1, 2)}
	_, err := Run(context.Background(), cfg, Options{Sink: sink.KindScript, Rand: rand.New(src), Logger: quiet()})
	require.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "invalid integer bounds")

	assert.Zero(t, src.calls)
	_, statErr := os.Stat(filepath.Join(dir, "out.sql"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *config.Config)
		opts   Options
	}{
		{
			name:   "unknown sink",
			mutate: func(*config.Config) {},
			opts:   Options{Sink: "pigeon"},
		},
		{
			name:   "bad layout",
			mutate: func(cfg *config.Config) { cfg.Set("layout", "value", "sideways") },
			opts:   Options{Sink: sink.KindScript},
		},
		{
			name:   "bad dialect",
			mutate: func(*config.Config) {},
			opts:   Options{Sink: sink.KindScript, Dialect: "oracle"},
		},
		{
			name:   "database sink without connection",
			mutate: func(*config.Config) {},
			opts:   Options{Sink: sink.KindDatabase},
		},
		{
			name:   "bad date bounds",
			mutate: func(cfg *config.Config) {
				cfg.Set("addColumn", "randTime", "yes")
				cfg.Set("colVals", "timeStart", "2020-02-01")
				cfg.Set("colVals", "timeEnd", "2020-01-01")
			},
			opts: Options{Sink: sink.KindScript},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			cfg := baseConfig(t, dir, "5")
			tt.mutate(cfg)
			tt.opts.Logger = quiet()

			_, err := Run(context.Background(), cfg, tt.opts)
			assert.ErrorIs(t, err, ErrConfig)
			_, statErr := os.Stat(filepath.Join(dir, "out.sql"))
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestRunGeometryErrors(t *testing.T) {
	t.Run("no boundaries", func(t *testing.T) {
		dir := t.TempDir()
		cfg := baseConfig(t, dir, "5")
		cfg.Set("geojson", "file", writeFile(t, dir, "empty.geojson", `{"type":"FeatureCollection","features":[]}`))

		_, err := Run(context.Background(), cfg, Options{Sink: sink.KindScript, Logger: quiet()})
		assert.ErrorIs(t, err, ErrGeometry)
	})

	t.Run("below min coverage", func(t *testing.T) {
		dir := t.TempDir()
		cfg := baseConfig(t, dir, "5")
		cfg.Set("geojson", "file", writeFile(t, dir, "tri.geojson", triangle))
		cfg.Set("min_coverage", "value", "0.9")

		_, err := Run(context.Background(), cfg, Options{Sink: sink.KindScript, Logger: quiet()})
		assert.ErrorIs(t, err, ErrGeometry)
		_, statErr := os.Stat(filepath.Join(dir, "out.sql"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("above min coverage", func(t *testing.T) {
		dir := t.TempDir()
		cfg := baseConfig(t, dir, "5")
		cfg.Set("geojson", "file", writeFile(t, dir, "tri.geojson", triangle))
		cfg.Set("min_coverage", "value", "0.4")

		res, err := Run(context.Background(), cfg, Options{Sink: sink.KindScript, Seed: seed(1), Logger: quiet()})
		require.NoError(t, err)
		assert.InDelta(t, 0.5, res.Coverage, 1e-9)
	})
}

func TestRunConnectivityError(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig(t, dir, "5")
	cfg.Set("connection", "driver", "sqlite")
	cfg.Set("connection", "path", filepath.Join(dir, "missing", "x.db"))

	_, err := Run(context.Background(), cfg, Options{Sink: sink.KindDatabase, NewTable: true, Logger: quiet()})
	assert.ErrorIs(t, err, ErrConnectivity)
}

func openResult(t *testing.T, path string) *db.SQLiteClient {
	t.Helper()
	c, err := db.NewSQLiteClient(context.Background(), &config.Connection{Driver: "sqlite", Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRunDatabaseTextOnly(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "seed.db")

	cfg := baseConfig(t, dir, "100")
	cfg.Set("connection", "driver", "sqlite")
	cfg.Set("connection", "path", dbPath)

	res, err := Run(ctx, cfg, Options{NewTable: true, Seed: seed(3), Logger: quiet()})
	require.NoError(t, err)
	assert.Equal(t, 100, res.Rows)
	assert.Equal(t, sink.KindDatabase, res.Sink)
	assert.Equal(t, "sqlite", res.Dialect)

	// A second new-table run replaces the table instead of stacking rows.
	_, err = Run(ctx, cfg, Options{NewTable: true, Seed: seed(4), Logger: quiet()})
	require.NoError(t, err)

	c := openResult(t, dbPath)
	cols, err := c.TableColumns(ctx, "pts")
	require.NoError(t, err)
	assert.Equal(t, []string{"pkid", "randStr", "thegeom"}, cols)

	rows, err := c.GetDB().QueryContext(ctx, "SELECT randStr, ST_X(thegeom), ST_Y(thegeom), ST_SRID(thegeom) FROM pts")
	require.NoError(t, err)
	defer rows.Close()

	alnum := regexp.MustCompile(`^[A-Za-z0-9]{8}$`)
	n := 0
	for rows.Next() {
		var (
			text string
			x, y float64
			srid int64
		)
		require.NoError(t, rows.Scan(&text, &x, &y, &srid))
		assert.Regexp(t, alnum, text)
		assert.True(t, x >= 0 && x <= 1 && y >= 0 && y <= 1, "point (%v, %v) outside the square", x, y)
		assert.Equal(t, int64(4326), srid)
		n++
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, 100, n)
}

func TestRunDatabaseMatchesScriptReplay(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cfg := baseConfig(t, dir, "30")
	cfg.Set("addColumn", "randTime", "yes")
	cfg.Set("colVals", "timeStart", "2021-06-01")
	cfg.Set("colVals", "timeEnd", "2021-07-01")
	cfg.Set("layout", "value", "deferred")
	cfg.Set("connection", "driver", "sqlite")
	cfg.Set("connection", "path", filepath.Join(dir, "direct.db"))

	_, err := Run(ctx, cfg, Options{NewTable: true, Seed: seed(9), Logger: quiet()})
	require.NoError(t, err)
	res, err := Run(ctx, cfg, Options{Sink: sink.KindScript, Dialect: "sqlite", Seed: seed(9), Logger: quiet()})
	require.NoError(t, err)

	replayed := openResult(t, filepath.Join(dir, "replayed.db"))
	data, err := os.ReadFile(res.ScriptPath)
	require.NoError(t, err)
	for _, stmt := range strings.Split(string(data), ";\n") {
		if stmt != "" {
			require.NoError(t, replayed.Exec(ctx, stmt))
		}
	}

	direct := openResult(t, filepath.Join(dir, "direct.db"))
	for _, c := range []*db.SQLiteClient{direct, replayed} {
		cols, err := c.TableColumns(ctx, "pts")
		require.NoError(t, err)
		assert.Equal(t, []string{"pkid", "randStr", "randTime", "thegeom"}, cols)

		var n int
		require.NoError(t, c.GetDB().QueryRowContext(ctx, "SELECT COUNT(*) FROM pts").Scan(&n))
		assert.Equal(t, 30, n)
	}

	// Identical seeds give identical rows through either sink.
	dump := func(c *db.SQLiteClient) []string {
		rows, err := c.GetDB().QueryContext(ctx, "SELECT randStr || ' ' || ST_AsText(thegeom) FROM pts ORDER BY pkid")
		require.NoError(t, err)
		defer rows.Close()
		var out []string
		for rows.Next() {
			var s string
			require.NoError(t, rows.Scan(&s))
			out = append(out, s)
		}
		require.NoError(t, rows.Err())
		return out
	}
	assert.Equal(t, dump(direct), dump(replayed))
}

func TestDescribe(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig(t, dir, "10")
	cfg.Set("layout", "value", "deferred")

	d, err := Describe(cfg, Options{Sink: sink.KindScript, Dialect: "sqlite"})
	require.NoError(t, err)

	assert.Equal(t, "pts", d.Table.Name)
	assert.Equal(t, "sqlite", d.Dialect)
	assert.Equal(t, 10, d.Points)
	assert.Equal(t, "{text}", d.Attributes)

	var before, after []string
	for _, s := range d.Steps {
		if s.AfterRows {
			after = append(after, s.SQL)
		} else {
			before = append(before, s.Directive.Kind.String())
		}
	}
	assert.Equal(t, []string{"drop-table-if-exists", "create-table", "create-spatial-index"}, before)
	assert.Equal(t, []string{
		"ALTER TABLE pts DROP COLUMN randInt",
		"ALTER TABLE pts DROP COLUMN randTime",
	}, after)

	_, statErr := os.Stat(filepath.Join(dir, "out.sql"))
	assert.True(t, os.IsNotExist(statErr))

	_, err = Describe(cfg, Options{Sink: "carrier"})
	assert.ErrorIs(t, err, ErrConfig)
}
