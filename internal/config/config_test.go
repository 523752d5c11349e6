package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyINI = `[postgresql]
host=localhost
database=gis
user=postgres
password=secret

[numPoints]
num=250

[geojson]
file=boundary.geojson

[TableName]
name=points

[SQLFile]
file=out.sql

[addColumn]
randStr=yes
randInt=no
randTime=yes

[colVals]
strLen=8
intStart=0
intEnd=100
timeStart=2020-01-01
timeEnd=2020-12-31
`

const modernYAML = `connection:
  driver: postgres
  host: localhost
  database: gis
  user: postgres
  password: secret
points: 250
boundary: boundary.geojson
table: points
script: out.sql
columns:
  text: yes
  integer: false
  timestamp: true
bounds:
  text_length: 8
  integer_low: 0
  integer_high: 100
  timestamp_start: "2020-01-01"
  timestamp_end: "2020-12-31"
layout: deferred
seed: 42
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFormatsAgree(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "legacy ini", file: "run.ini", content: legacyINI},
		{name: "yaml", file: "run.yaml", content: modernYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)
			cfg, err := Load(path)
			require.NoError(t, err)

			n, err := cfg.Points()
			require.NoError(t, err)
			assert.Equal(t, 250, n)

			table, err := cfg.Table()
			require.NoError(t, err)
			assert.Equal(t, "points", table)

			boundary, err := cfg.BoundaryPath()
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(filepath.Dir(path), "boundary.geojson"), boundary)

			script, err := cfg.ScriptPath()
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(filepath.Dir(path), "out.sql"), script)

			for _, key := range []string{"text", "timestamp"} {
				got, ok := cfg.Lookup(SectionColumns, key)
				require.True(t, ok, key)
				assert.Contains(t, []string{"yes", "true"}, got)
			}
			off, ok := cfg.Lookup(SectionColumns, "randInt")
			require.True(t, ok)
			assert.Contains(t, []string{"no", "false"}, off)

			low, ok := cfg.Lookup("colVals", "intStart")
			require.True(t, ok)
			assert.Equal(t, "0", low)

			start, ok := cfg.Lookup(SectionBounds, "timestamp_start")
			require.True(t, ok)
			assert.Equal(t, "2020-01-01", start)

			conn, err := cfg.Connection()
			require.NoError(t, err)
			assert.Equal(t, "postgres", conn.Driver)
			assert.Equal(t, "gis", conn.Database)
		})
	}
}

func TestPointsValidation(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int
		wantErr bool
	}{
		{name: "zero", value: "0", want: 0},
		{name: "positive", value: "1000", want: 1000},
		{name: "negative", value: "-1", wantErr: true},
		{name: "not a number", value: "many", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			cfg.Set("numPoints", "num", tt.value)
			got, err := cfg.Points()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := New().Points()
	require.ErrorIs(t, err, ErrConfig)
}

func TestTableNameValidation(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{name: "points"},
		{name: "gis.points_2020"},
		{name: "_tmp"},
		{name: "1points", wantErr: true},
		{name: "points; DROP TABLE x", wantErr: true},
		{name: "public.", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			cfg.Set(SectionTable, "name", tt.name)
			_, err := cfg.Table()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConnectionExpandsEnv(t *testing.T) {
	t.Setenv("POLYSEED_TEST_PASSWORD", "s3 cret")

	cfg := New()
	cfg.Set("postgresql", "host", "db.internal")
	cfg.Set("postgresql", "port", "5433")
	cfg.Set("postgresql", "dbname", "gis")
	cfg.Set("postgresql", "password", "${POLYSEED_TEST_PASSWORD}")
	cfg.Set("postgresql", "application_name", "polyseed")

	conn, err := cfg.Connection()
	require.NoError(t, err)
	assert.Equal(t, "s3 cret", conn.Password)
	assert.Equal(t, "gis", conn.Database)
	assert.Equal(t, "application_name=polyseed dbname=gis host=db.internal password='s3 cret' port=5433",
		conn.PostgresConnString())
	assert.Equal(t, "db.internal:5433", conn.Address("5432"))
}

func TestConnectionErrors(t *testing.T) {
	_, err := New().Connection()
	require.ErrorIs(t, err, ErrConfig)

	cfg := New()
	cfg.Set(SectionConnection, "driver", "oracle")
	cfg.Set(SectionConnection, "host", "x")
	_, err = cfg.Connection()
	require.ErrorIs(t, err, ErrConfig)

	cfg = New()
	cfg.Set(SectionConnection, "driver", "sqlite3")
	_, err = cfg.Connection()
	require.ErrorIs(t, err, ErrConfig)
}

func TestOptionalScalars(t *testing.T) {
	cfg := New()
	seed, ok, err := cfg.Seed()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, seed)

	cov, err := cfg.MinCoverage()
	require.NoError(t, err)
	assert.Zero(t, cov)

	cfg.Set(SectionSeed, SectionSeed, "7")
	cfg.Set(SectionMinCoverage, SectionMinCoverage, "0.25")
	cfg.Set(SectionLayout, SectionLayout, "Deferred")
	cfg.Set(SectionConnection, "driver", "SQLite")

	seed, ok, err = cfg.Seed()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(7), seed)

	cov, err = cfg.MinCoverage()
	require.NoError(t, err)
	assert.Equal(t, 0.25, cov)
	assert.Equal(t, "deferred", cfg.Layout())
	assert.Equal(t, "sqlite", cfg.Dialect())

	cfg.Set(SectionMinCoverage, SectionMinCoverage, "2")
	_, err = cfg.MinCoverage()
	assert.ErrorIs(t, err, ErrConfig)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.ini"))
	require.ErrorIs(t, err, ErrConfig)
}
