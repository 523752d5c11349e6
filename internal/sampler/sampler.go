// Package sampler draws points uniformly distributed inside a region by
// rejection sampling over its bounding box.
package sampler

import (
	"math/rand/v2"

	"github.com/paulmach/orb"
)

// Region is the capability the sampler needs from a geometry.
type Region interface {
	Contains(p orb.Point) bool
	Bound() orb.Bound
}

// Sampler draws candidate points from a random source.
type Sampler struct {
	rng   *rand.Rand
	draws uint64
}

// New returns a sampler reading from rng.
func New(rng *rand.Rand) *Sampler {
	return &Sampler{rng: rng}
}

// Sample returns n points drawn uniformly over the bounding box of r and
// kept only when r contains them, in acceptance order.
//
// There is no cap on the number of draws: a region covering a vanishing
// fraction of its bounding box will keep the loop running. Callers that
// need bounded latency check the region's coverage before calling Sample.
func (s *Sampler) Sample(r Region, n int) []orb.Point {
	if n <= 0 {
		return []orb.Point{}
	}

	b := r.Bound()
	dx := b.Max[0] - b.Min[0]
	dy := b.Max[1] - b.Min[1]

	points := make([]orb.Point, 0, n)
	for len(points) < n {
		p := orb.Point{
			b.Min[0] + s.rng.Float64()*dx,
			b.Min[1] + s.rng.Float64()*dy,
		}
		s.draws++
		if r.Contains(p) {
			points = append(points, p)
		}
	}
	return points
}

// Draws returns the number of candidates drawn so far, accepted or not.
func (s *Sampler) Draws() uint64 {
	return s.draws
}
