// Package geometry turns raw boundary polygons into a single region that can
// answer point-membership and bounding-box queries.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ErrGeometry is returned when the boundaries cannot form a usable region.
var ErrGeometry = errors.New("geometry error")

// Region is the repaired union of one or more boundaries.
type Region struct {
	parts orb.MultiPolygon
	bound orb.Bound
	area  float64
}

// Build repairs every boundary independently and merges the results into
// one region. Boundaries that repair to nothing are skipped; if all of them
// do, or none were given, Build fails with ErrGeometry.
func Build(boundaries []orb.Geometry) (*Region, error) {
	if len(boundaries) == 0 {
		return nil, fmt.Errorf("%w: no boundaries given", ErrGeometry)
	}

	var parts orb.MultiPolygon
	for _, b := range boundaries {
		parts = append(parts, Repair(b)...)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: all %d boundaries are empty after repair", ErrGeometry, len(boundaries))
	}

	r := &Region{parts: parts, bound: parts.Bound()}
	for _, p := range parts {
		r.area += polygonArea(p)
	}
	return r, nil
}

// Contains reports whether p lies inside the region.
func (r *Region) Contains(p orb.Point) bool {
	if !r.bound.Contains(p) {
		return false
	}
	return planar.MultiPolygonContains(r.parts, p)
}

// Bound returns the tight axis-aligned bounding box of every repaired
// boundary.
func (r *Region) Bound() orb.Bound {
	return r.bound
}

// Parts returns the repaired polygons making up the region.
func (r *Region) Parts() orb.MultiPolygon {
	return r.parts
}

// Area approximates the covered area. Overlapping parts are counted once
// per part, so the value is an upper bound for unions of overlapping
// boundaries.
func (r *Region) Area() float64 {
	return r.area
}

// Coverage is the ratio of the region area to its bounding box area,
// capped at 1. It estimates the rejection sampler's acceptance rate and
// overstates it when parts overlap, since Area counts the overlap twice.
func (r *Region) Coverage() float64 {
	boxArea := (r.bound.Max[0] - r.bound.Min[0]) * (r.bound.Max[1] - r.bound.Min[1])
	if boxArea <= 0 {
		return 0
	}
	return math.Min(1, r.area/boxArea)
}

func polygonArea(p orb.Polygon) float64 {
	if len(p) == 0 {
		return 0
	}
	a := math.Abs(planar.Area(p[0]))
	for _, hole := range p[1:] {
		a -= math.Abs(planar.Area(hole))
	}
	return math.Max(a, 0)
}
