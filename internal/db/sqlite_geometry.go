package db

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// Geometry values are stored as EWKT text, e.g. "SRID=4326;POINT(1 2)".

func registerGeometryFuncs(conn *sqlite3.SQLiteConn) error {
	funcs := map[string]any{
		"ST_MakePoint":    stMakePoint,
		"ST_SetSRID":      stSetSRID,
		"ST_GeomFromText": stGeomFromText,
		"ST_AsText":       stAsText,
		"ST_SRID":         stSRID,
		"ST_X":            stX,
		"ST_Y":            stY,
	}
	for name, fn := range funcs {
		if err := conn.RegisterFunc(name, fn, true); err != nil {
			return fmt.Errorf("failed to register %s: %w", name, err)
		}
	}
	return nil
}

func stMakePoint(x, y any) (string, error) {
	fx, err := toFloat(x)
	if err != nil {
		return "", err
	}
	fy, err := toFloat(y)
	if err != nil {
		return "", err
	}
	return wkt.MarshalString(orb.Point{fx, fy}), nil
}

func stSetSRID(geom string, srid int64) string {
	_, text := splitEWKT(geom)
	return fmt.Sprintf("SRID=%d;%s", srid, text)
}

func stGeomFromText(text string, srid int64) (string, error) {
	g, err := wkt.Unmarshal(text)
	if err != nil {
		return "", fmt.Errorf("invalid WKT %q: %w", text, err)
	}
	return fmt.Sprintf("SRID=%d;%s", srid, wkt.MarshalString(g)), nil
}

func stAsText(geom string) string {
	_, text := splitEWKT(geom)
	return text
}

func stSRID(geom string) int64 {
	srid, _ := splitEWKT(geom)
	return srid
}

func stX(geom string) (float64, error) {
	p, err := ewktPoint(geom)
	return p.X(), err
}

func stY(geom string) (float64, error) {
	p, err := ewktPoint(geom)
	return p.Y(), err
}

func ewktPoint(geom string) (orb.Point, error) {
	_, text := splitEWKT(geom)
	p, err := wkt.UnmarshalPoint(text)
	if err != nil {
		return orb.Point{}, fmt.Errorf("not a point %q: %w", geom, err)
	}
	return p, nil
}

// splitEWKT separates an optional "SRID=n;" prefix from the WKT body.
func splitEWKT(geom string) (int64, string) {
	prefix, rest, ok := strings.Cut(geom, ";")
	if !ok || !strings.HasPrefix(strings.ToUpper(prefix), "SRID=") {
		return 0, geom
	}
	srid, err := strconv.ParseInt(prefix[len("SRID="):], 10, 64)
	if err != nil {
		return 0, geom
	}
	return srid, rest
}

// toFloat accepts the integer and real values SQLite passes for numeric
// literals.
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	case []byte:
		return strconv.ParseFloat(string(n), 64)
	}
	return 0, fmt.Errorf("not a number: %v", v)
}
