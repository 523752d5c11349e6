package geometry

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// LoadBoundaries reads a GeoJSON FeatureCollection. Each feature's geometry
// is one boundary.
func LoadBoundaries(path string) ([]orb.Geometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read boundary file: %v", ErrGeometry, err)
	}
	return ParseBoundaries(data)
}

// ParseBoundaries decodes GeoJSON bytes into boundaries.
func ParseBoundaries(data []byte) ([]orb.Geometry, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse GeoJSON: %v", ErrGeometry, err)
	}

	boundaries := make([]orb.Geometry, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry == nil {
			return nil, fmt.Errorf("%w: feature %d has no geometry", ErrGeometry, i)
		}
		boundaries = append(boundaries, f.Geometry)
	}
	return boundaries, nil
}
