// Package config loads the sectioned key/value configuration that drives a
// generation run.
//
// Two file formats are accepted and produce the same Config:
//
//	.ini          [numPoints] / [geojson] / [addColumn] style sections
//	.yaml, .yml   top-level mappings (or scalars) keyed by section name
//
// Section and key names are case-insensitive and may use either the
// descriptive names (points, boundary, columns, bounds) or the legacy INI
// names (numPoints, geojson, addColumn, colVals).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ErrConfig is returned for a missing or invalid configuration section or value.
var ErrConfig = errors.New("config error")

// Canonical section names.
const (
	SectionConnection  = "connection"
	SectionPoints      = "points"
	SectionBoundary    = "boundary"
	SectionTable       = "table"
	SectionScript      = "script"
	SectionColumns     = "columns"
	SectionBounds      = "bounds"
	SectionLayout      = "layout"
	SectionSeed        = "seed"
	SectionMinCoverage = "min_coverage"
	SectionDialect     = "dialect"
)

var sectionAliases = map[string]string{
	"postgresql": SectionConnection,
	"database":   SectionConnection,
	"numpoints":  SectionPoints,
	"geojson":    SectionBoundary,
	"tablename":  SectionTable,
	"sqlfile":    SectionScript,
	"addcolumn":  SectionColumns,
	"colvals":    SectionBounds,
}

var keyAliases = map[string]map[string]string{
	SectionColumns: {
		"randstr":  "text",
		"randint":  "integer",
		"randtime": "timestamp",
	},
	SectionBounds: {
		"strlen":    "text_length",
		"intstart":  "integer_low",
		"intend":    "integer_high",
		"timestart": "timestamp_start",
		"timeend":   "timestamp_end",
	},
	SectionConnection: {
		"dbname": "database",
	},
}

// Config is a parsed configuration file. It is built once and handed to
// every component that needs it.
type Config struct {
	path     string
	sections map[string]*section
}

type section struct {
	keys   []string
	values map[string]string
}

// New returns an empty configuration. It is mostly useful in tests together
// with Set.
func New() *Config {
	return &Config{sections: make(map[string]*section)}
}

// Load reads the configuration at path. A .env file in the working
// directory is loaded first so connection values can reference it.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfig, err)
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = parseYAML(data)
	default:
		cfg, err = parseINI(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse config file %s: %v", ErrConfig, path, err)
	}
	cfg.path = path
	return cfg, nil
}

// Set stores a value, normalizing the section and key names.
func (c *Config) Set(sectionName, key, value string) {
	name := normalizeSection(sectionName)
	s, ok := c.sections[name]
	if !ok {
		s = &section{values: make(map[string]string)}
		c.sections[name] = s
	}
	k := normalizeKey(name, key)
	if _, exists := s.values[k]; !exists {
		s.keys = append(s.keys, k)
	}
	s.values[k] = value
}

// Lookup returns the value of key inside section.
func (c *Config) Lookup(sectionName, key string) (string, bool) {
	name := normalizeSection(sectionName)
	s, ok := c.sections[name]
	if !ok {
		return "", false
	}
	v, ok := s.values[normalizeKey(name, key)]
	return strings.TrimSpace(v), ok
}

// Scalar returns the first value of a section. Single-value sections such as
// [numPoints] are read this way regardless of the key name used.
func (c *Config) Scalar(sectionName string) (string, bool) {
	s, ok := c.sections[normalizeSection(sectionName)]
	if !ok || len(s.keys) == 0 {
		return "", false
	}
	return strings.TrimSpace(s.values[s.keys[0]]), true
}

// Section returns a copy of all values in a section.
func (c *Config) Section(sectionName string) (map[string]string, bool) {
	s, ok := c.sections[normalizeSection(sectionName)]
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = strings.TrimSpace(v)
	}
	return out, true
}

// Points returns the number of points to generate.
func (c *Config) Points() (int, error) {
	raw, ok := c.Scalar(SectionPoints)
	if !ok {
		return 0, fmt.Errorf("%w: missing [%s] section", ErrConfig, SectionPoints)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: point count must be a non-negative integer, got %q", ErrConfig, raw)
	}
	return n, nil
}

// Table returns the destination table name.
func (c *Config) Table() (string, error) {
	raw, ok := c.Scalar(SectionTable)
	if !ok || raw == "" {
		return "", fmt.Errorf("%w: missing [%s] section", ErrConfig, SectionTable)
	}
	if !validIdentifier(raw) {
		return "", fmt.Errorf("%w: invalid table name %q", ErrConfig, raw)
	}
	return raw, nil
}

// BoundaryPath returns the GeoJSON boundary file, resolved relative to the
// configuration file when it is not absolute.
func (c *Config) BoundaryPath() (string, error) {
	raw, ok := c.Scalar(SectionBoundary)
	if !ok || raw == "" {
		return "", fmt.Errorf("%w: missing [%s] section", ErrConfig, SectionBoundary)
	}
	return c.resolvePath(raw), nil
}

// ScriptPath returns the SQL script destination.
func (c *Config) ScriptPath() (string, error) {
	raw, ok := c.Scalar(SectionScript)
	if !ok || raw == "" {
		return "", fmt.Errorf("%w: no SQL file name found in [%s]", ErrConfig, SectionScript)
	}
	return c.resolvePath(raw), nil
}

// Layout returns the configured column layout name, or "" when unset.
func (c *Config) Layout() string {
	v, _ := c.Scalar(SectionLayout)
	return strings.ToLower(v)
}

// Dialect returns the script dialect, falling back to the connection driver.
func (c *Config) Dialect() string {
	if v, ok := c.Scalar(SectionDialect); ok && v != "" {
		return strings.ToLower(v)
	}
	if v, ok := c.Lookup(SectionConnection, "driver"); ok && v != "" {
		return strings.ToLower(v)
	}
	return ""
}

// Seed returns the optional random seed.
func (c *Config) Seed() (uint64, bool, error) {
	raw, ok := c.Scalar(SectionSeed)
	if !ok || raw == "" {
		return 0, false, nil
	}
	seed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: seed must be an unsigned integer, got %q", ErrConfig, raw)
	}
	return seed, true, nil
}

// MinCoverage returns the minimum region/bounding-box area ratio required
// before sampling. Zero disables the check.
func (c *Config) MinCoverage() (float64, error) {
	raw, ok := c.Scalar(SectionMinCoverage)
	if !ok || raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 1 {
		return 0, fmt.Errorf("%w: min_coverage must be a number in [0, 1], got %q", ErrConfig, raw)
	}
	return v, nil
}

func (c *Config) resolvePath(p string) string {
	if filepath.IsAbs(p) || c.path == "" {
		return p
	}
	return filepath.Join(filepath.Dir(c.path), p)
}

func normalizeSection(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := sectionAliases[n]; ok {
		return alias
	}
	return n
}

func normalizeKey(sectionName, key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	if aliases, ok := keyAliases[sectionName]; ok {
		if alias, ok := aliases[k]; ok {
			return alias
		}
	}
	return k
}

// validIdentifier accepts plain or schema-qualified SQL identifiers.
func validIdentifier(name string) bool {
	for _, part := range strings.Split(name, ".") {
		if part == "" {
			return false
		}
		for i, r := range part {
			switch {
			case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			case r >= '0' && r <= '9' && i > 0:
			default:
				return false
			}
		}
	}
	return true
}

// loadEnvFiles loads .env if it exists
func loadEnvFiles() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}
