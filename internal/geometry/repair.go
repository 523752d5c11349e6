package geometry

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// relative tolerance for intersection parameters and sliver areas
const epsilon = 1e-12

// Repair resolves self-intersections the way a zero-distance buffer does:
// every ring is split at its crossing points into simple loops and loops
// with no area are discarded. A loop wound against the rest of its ring
// and lying inside another of its loops becomes a hole there. Non-areal
// geometries repair to nothing.
func Repair(g orb.Geometry) orb.MultiPolygon {
	switch g := g.(type) {
	case orb.Polygon:
		return repairPolygon(g)
	case orb.MultiPolygon:
		var out orb.MultiPolygon
		for _, p := range g {
			out = append(out, repairPolygon(p)...)
		}
		return out
	case orb.Ring:
		return repairPolygon(orb.Polygon{g})
	case orb.Bound:
		return repairPolygon(g.ToPolygon())
	case orb.Collection:
		var out orb.MultiPolygon
		for _, child := range g {
			out = append(out, Repair(child)...)
		}
		return out
	default:
		return nil
	}
}

func repairPolygon(p orb.Polygon) orb.MultiPolygon {
	if len(p) == 0 {
		return nil
	}
	loops := splitRing(p[0])
	if len(loops) == 0 {
		return nil
	}

	shells, reversed := orientLoops(loops)
	out := make(orb.MultiPolygon, 0, len(loops))
	for _, shell := range shells {
		out = append(out, orb.Polygon{shell})
	}
	// A reversed loop inside a shell of the same ring is a hole cut by a
	// self-touching boundary. A disjoint one is a lobe of its own.
	for _, loop := range reversed {
		if i := enclosingShell(shells, loop); i >= 0 {
			out[i] = append(out[i], loop)
		} else {
			out = append(out, orb.Polygon{loop})
		}
	}

	var holes []orb.Ring
	for _, h := range p[1:] {
		holes = append(holes, splitRing(h)...)
	}
	for i := range out {
		sb := out[i][0].Bound()
		for _, h := range holes {
			if sb.Intersects(h.Bound()) && touchesRing(out[i][0], h) {
				out[i] = append(out[i], h)
			}
		}
	}
	return out
}

// orientLoops separates loops wound like the largest one from those wound
// the other way.
func orientLoops(loops []orb.Ring) (shells, reversed []orb.Ring) {
	largest := 0
	for i, l := range loops {
		if math.Abs(planar.Area(l)) > math.Abs(planar.Area(loops[largest])) {
			largest = i
		}
	}
	dominant := math.Signbit(planar.Area(loops[largest]))
	for _, l := range loops {
		if math.Signbit(planar.Area(l)) == dominant {
			shells = append(shells, l)
		} else {
			reversed = append(reversed, l)
		}
	}
	return shells, reversed
}

// enclosingShell returns the smallest shell holding every vertex of loop,
// boundary included, or -1.
func enclosingShell(shells []orb.Ring, loop orb.Ring) int {
	best, bestArea := -1, math.Inf(1)
	for i, shell := range shells {
		if !shell.Bound().Contains(loop.Bound().Min) || !shell.Bound().Contains(loop.Bound().Max) {
			continue
		}
		inside := true
		for _, pt := range loop {
			if !planar.RingContains(shell, pt) {
				inside = false
				break
			}
		}
		if a := math.Abs(planar.Area(shell)); inside && a < bestArea {
			best, bestArea = i, a
		}
	}
	return best
}

// touchesRing reports whether any vertex of h lies inside shell.
func touchesRing(shell, h orb.Ring) bool {
	for _, pt := range h {
		if planar.RingContains(shell, pt) {
			return true
		}
	}
	return false
}

type split struct {
	t  float64
	pt orb.Point
}

// splitRing breaks a possibly self-crossing ring into simple closed loops.
func splitRing(r orb.Ring) []orb.Ring {
	verts := cleanRing(r)
	n := len(verts)
	if n < 3 {
		return nil
	}

	splits := make([][]split, n)
	for i := 0; i < n; i++ {
		a, b := verts[i], verts[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // adjacent through the closing vertex
			}
			c, d := verts[j], verts[(j+1)%n]
			if !segmentBoundsOverlap(a, b, c, d) {
				continue
			}
			t, u, ok := intersect(a, b, c, d)
			if !ok {
				continue
			}

			var pt orb.Point
			switch {
			case t <= epsilon:
				pt = a
			case t >= 1-epsilon:
				pt = b
			case u <= epsilon:
				pt = c
			case u >= 1-epsilon:
				pt = d
			default:
				pt = orb.Point{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])}
			}

			if t > epsilon && t < 1-epsilon {
				splits[i] = append(splits[i], split{t: t, pt: pt})
			}
			if u > epsilon && u < 1-epsilon {
				splits[j] = append(splits[j], split{t: u, pt: pt})
			}
		}
	}

	seq := make([]orb.Point, 0, n)
	for i := 0; i < n; i++ {
		seq = append(seq, verts[i])
		s := splits[i]
		sort.Slice(s, func(x, y int) bool { return s[x].t < s[y].t })
		for _, sp := range s {
			if sp.pt != seq[len(seq)-1] {
				seq = append(seq, sp.pt)
			}
		}
	}

	return extractLoops(seq, r.Bound())
}

// extractLoops walks the vertex sequence and cuts a loop every time a
// vertex repeats.
func extractLoops(seq []orb.Point, bound orb.Bound) []orb.Ring {
	minArea := epsilon * (bound.Max[0] - bound.Min[0]) * (bound.Max[1] - bound.Min[1])

	var loops []orb.Ring
	stack := make([]orb.Point, 0, len(seq))
	pos := make(map[orb.Point]int, len(seq))

	walk := append(seq[:len(seq):len(seq)], seq[0])
	for _, pt := range walk {
		k, seen := pos[pt]
		if !seen {
			pos[pt] = len(stack)
			stack = append(stack, pt)
			continue
		}

		loop := make(orb.Ring, 0, len(stack)-k+1)
		loop = append(loop, stack[k:]...)
		loop = append(loop, pt)
		for _, p := range stack[k+1:] {
			delete(pos, p)
		}
		stack = stack[:k+1]

		if len(loop) >= 4 && math.Abs(planar.Area(loop)) > minArea {
			loops = append(loops, loop)
		}
	}
	return loops
}

// cleanRing drops the closing vertex and consecutive duplicates.
func cleanRing(r orb.Ring) []orb.Point {
	out := make([]orb.Point, 0, len(r))
	for _, pt := range r {
		if math.IsNaN(pt[0]) || math.IsNaN(pt[1]) {
			continue
		}
		if len(out) > 0 && out[len(out)-1] == pt {
			continue
		}
		out = append(out, pt)
	}
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

func segmentBoundsOverlap(a, b, c, d orb.Point) bool {
	return math.Max(a[0], b[0]) >= math.Min(c[0], d[0]) &&
		math.Max(c[0], d[0]) >= math.Min(a[0], b[0]) &&
		math.Max(a[1], b[1]) >= math.Min(c[1], d[1]) &&
		math.Max(c[1], d[1]) >= math.Min(a[1], b[1])
}

// intersect returns the parameters of the crossing of ab and cd. Parallel
// and collinear segments report no crossing.
func intersect(a, b, c, d orb.Point) (t, u float64, ok bool) {
	rx, ry := b[0]-a[0], b[1]-a[1]
	sx, sy := d[0]-c[0], d[1]-c[1]
	den := rx*sy - ry*sx
	if den == 0 {
		return 0, 0, false
	}
	qx, qy := c[0]-a[0], c[1]-a[1]
	t = (qx*sy - qy*sx) / den
	u = (qx*ry - qy*rx) / den
	if t < -epsilon || t > 1+epsilon || u < -epsilon || u > 1+epsilon {
		return 0, 0, false
	}
	return t, u, true
}
