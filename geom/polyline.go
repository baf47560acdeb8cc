// Package geom implements the polyline and polygon geometry operations the
// spec assumes are "provided by a 2-D geometry library" (§2 Polyline
// geometry): trim, shift, intersect, dash, step-along, plus the planar
// support (distance, angle, centroid, Ramer-Douglas-Peucker simplification)
// that splitting, intersection-polygon generation, and planar face tracing
// all build on.
//
// All functions here operate in a local, already-projected meter plane
// (see Projector) — never directly on lon/lat degrees — mirroring the
// teacher's practice of doing its own distance/projection math
// (pkg/geo/haversine.go) rather than reaching for a geodesy dependency for
// something this small.
package geom

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

const epsilon = 1e-9

// Length returns the total length of a LineString in plane units (meters).
func Length(ls orb.LineString) float64 {
	total := 0.0
	for i := 1; i < len(ls); i++ {
		total += Distance(ls[i-1], ls[i])
	}
	return total
}

// Distance is the planar Euclidean distance between two points.
func Distance(a, b orb.Point) float64 {
	dx := a.X() - b.X()
	dy := a.Y() - b.Y()
	return math.Sqrt(dx*dx + dy*dy)
}

// Reversed returns a new LineString with points in reverse order.
func Reversed(ls orb.LineString) orb.LineString {
	out := make(orb.LineString, len(ls))
	for i, p := range ls {
		out[len(ls)-1-i] = p
	}
	return out
}

// PointAlong walks dist meters from the start of ls and returns the point
// there plus the forward bearing (radians, atan2 convention) of the segment
// it landed on. If dist exceeds the line's length, the last point is
// returned. If dist is negative, the first point is returned. This is the
// "step-along" primitive the intersection-sorting and trim-back code
// relies on.
func PointAlong(ls orb.LineString, dist float64) (orb.Point, float64) {
	if len(ls) == 0 {
		return orb.Point{}, 0
	}
	if len(ls) == 1 || dist <= 0 {
		bearing := 0.0
		if len(ls) > 1 {
			bearing = segmentBearing(ls[0], ls[1])
		}
		return ls[0], bearing
	}
	remaining := dist
	for i := 1; i < len(ls); i++ {
		segLen := Distance(ls[i-1], ls[i])
		bearing := segmentBearing(ls[i-1], ls[i])
		if remaining <= segLen || i == len(ls)-1 {
			if segLen < epsilon {
				return ls[i], bearing
			}
			t := remaining / segLen
			if t > 1 {
				t = 1
			}
			return lerp(ls[i-1], ls[i], t), bearing
		}
		remaining -= segLen
	}
	return ls[len(ls)-1], segmentBearing(ls[len(ls)-2], ls[len(ls)-1])
}

// Extend lengthens ls by dist meters beyond one of its ends, continuing in
// the bearing of the end segment, and returns the new LineString with the
// extra point added. atStart extends before ls[0]; otherwise it extends
// past ls[len(ls)-1]. Used by the on/off-ramp intersection variant (spec
// §4.6 step 4) to carry a mainline's center-line through a merge zone that
// its own geometry never reached. dist <= 0 or a degenerate ls returns a
// copy of ls unchanged.
func Extend(ls orb.LineString, dist float64, atStart bool) orb.LineString {
	out := append(orb.LineString(nil), ls...)
	if len(ls) < 2 || dist <= 0 {
		return out
	}
	if atStart {
		bearing := segmentBearing(ls[1], ls[0])
		p := ls[0]
		newPt := orb.Point{p.X() + math.Cos(bearing)*dist, p.Y() + math.Sin(bearing)*dist}
		return append(orb.LineString{newPt}, out...)
	}
	bearing := segmentBearing(ls[len(ls)-2], ls[len(ls)-1])
	p := ls[len(ls)-1]
	newPt := orb.Point{p.X() + math.Cos(bearing)*dist, p.Y() + math.Sin(bearing)*dist}
	return append(out, newPt)
}

func lerp(a, b orb.Point, t float64) orb.Point {
	return orb.Point{a.X() + (b.X()-a.X())*t, a.Y() + (b.Y()-a.Y())*t}
}

func segmentBearing(a, b orb.Point) float64 {
	return math.Atan2(b.Y()-a.Y(), b.X()-a.X())
}

// Trim shortens ls by startDist from its beginning and endDist from its
// end, returning a new LineString. If the remaining length would be
// negative, a 2-point LineString at the midpoint is returned; callers
// treat that as a degenerate/fallback result.
func Trim(ls orb.LineString, startDist, endDist float64) orb.LineString {
	total := Length(ls)
	if startDist+endDist >= total {
		mid, _ := PointAlong(ls, total/2)
		return orb.LineString{mid, mid}
	}
	return sliceBetween(ls, startDist, total-endDist)
}

// sliceBetween returns the portion of ls between distance a and distance b
// from its start (0 <= a < b <= Length(ls)), preserving intermediate
// vertices so the result stays an accurate polyline rather than a chord.
func sliceBetween(ls orb.LineString, a, b float64) orb.LineString {
	if len(ls) == 0 {
		return nil
	}
	var out orb.LineString
	cum := 0.0
	started := false
	for i := 1; i < len(ls); i++ {
		segStart := cum
		segLen := Distance(ls[i-1], ls[i])
		segEnd := cum + segLen

		if !started && a >= segStart && a <= segEnd {
			t := 0.0
			if segLen > epsilon {
				t = (a - segStart) / segLen
			}
			out = append(out, lerp(ls[i-1], ls[i], t))
			started = true
		}
		if started && b <= segEnd {
			t := 1.0
			if segLen > epsilon {
				t = (b - segStart) / segLen
			}
			out = append(out, lerp(ls[i-1], ls[i], t))
			return out
		}
		if started && segEnd > a {
			out = append(out, ls[i])
		}
		cum = segEnd
	}
	if started {
		out = append(out, ls[len(ls)-1])
	}
	return out
}

// Shift offsets every point of ls perpendicular to the local direction of
// travel by offset meters. Positive offset is to the right of the
// direction from ls[0] toward ls[len-1]; negative is to the left. Used to
// derive a road's left/right edges from its center-line given a half-width.
func Shift(ls orb.LineString, offset float64) orb.LineString {
	if len(ls) < 2 || offset == 0 {
		out := make(orb.LineString, len(ls))
		copy(out, ls)
		return out
	}
	// Average the two adjacent segment normals at interior vertices so the
	// shifted line doesn't kink outward at bends (a cheap miter join).
	out := make(orb.LineString, len(ls))
	for i, p := range ls {
		var n orb.Point
		switch {
		case i == 0:
			n = segNormal(ls, 0)
		case i == len(ls)-1:
			n = segNormal(ls, i-1)
		default:
			n = normalize(addNormal(segNormal(ls, i-1), segNormal(ls, i)))
		}
		out[i] = orb.Point{p.X() + n.X()*offset, p.Y() + n.Y()*offset}
	}
	return out
}

func segNormal(ls orb.LineString, segIdx int) orb.Point {
	a, b := ls[segIdx], ls[segIdx+1]
	dx, dy := b.X()-a.X(), b.Y()-a.Y()
	l := math.Hypot(dx, dy)
	if l < epsilon {
		return orb.Point{0, 0}
	}
	return orb.Point{dy / l, -dx / l}
}

func addNormal(a, b orb.Point) orb.Point {
	return orb.Point{a.X() + b.X(), a.Y() + b.Y()}
}

func normalize(p orb.Point) orb.Point {
	l := math.Hypot(p.X(), p.Y())
	if l < epsilon {
		return p
	}
	return orb.Point{p.X() / l, p.Y() / l}
}

// Dash splits ls into alternating dash/gap segments of the given lengths,
// returning only the dash pieces as independent LineStrings (used to render
// dashed lane markings). If dashLen or gapLen is non-positive, ls is
// returned whole as a single dash.
func Dash(ls orb.LineString, dashLen, gapLen float64) []orb.LineString {
	total := Length(ls)
	if dashLen <= 0 || gapLen <= 0 || total == 0 {
		return []orb.LineString{ls}
	}
	var out []orb.LineString
	pos := 0.0
	for pos < total {
		end := math.Min(pos+dashLen, total)
		seg := sliceBetween(ls, pos, end)
		if len(seg) >= 2 {
			out = append(out, seg)
		}
		pos = end + gapLen
	}
	return out
}

// SegmentIntersection finds the intersection point of segments p1-p2 and
// p3-p4, if any (not parallel, and the hit lies within both segments).
func SegmentIntersection(p1, p2, p3, p4 orb.Point) (orb.Point, bool) {
	d1x, d1y := p2.X()-p1.X(), p2.Y()-p1.Y()
	d2x, d2y := p4.X()-p3.X(), p4.Y()-p3.Y()
	denom := d1x*d2y - d1y*d2x
	if math.Abs(denom) < epsilon {
		return orb.Point{}, false
	}
	t := ((p3.X()-p1.X())*d2y - (p3.Y()-p1.Y())*d2x) / denom
	u := ((p3.X()-p1.X())*d1y - (p3.Y()-p1.Y())*d1x) / denom
	if t < -epsilon || t > 1+epsilon || u < -epsilon || u > 1+epsilon {
		return orb.Point{}, false
	}
	return lerp(p1, p2, clamp01(t)), true
}

// LineIntersection finds where polylines a and b cross, preferring the hit
// nearest to the end of a given by fromEndOfA (true: search a from its last
// point backward; false: from its first point forward), so that among
// several crossings the one closest to the intersection is picked. It
// reports the hit point and the distance along each polyline (from its
// start) at which the hit occurs.
func LineIntersection(a, b orb.LineString, fromEndOfA bool) (hit orb.Point, distA, distB float64, ok bool) {
	type cand struct {
		pt         orb.Point
		distA      float64
		distB      float64
	}
	var candidates []cand

	cumA := 0.0
	for i := 1; i < len(a); i++ {
		segLenA := Distance(a[i-1], a[i])
		cumB := 0.0
		for j := 1; j < len(b); j++ {
			segLenB := Distance(b[j-1], b[j])
			if p, found := SegmentIntersection(a[i-1], a[i], b[j-1], b[j]); found {
				candidates = append(candidates, cand{
					pt:    p,
					distA: cumA + Distance(a[i-1], p),
					distB: cumB + Distance(b[j-1], p),
				})
			}
			cumB += segLenB
		}
		cumA += segLenA
	}
	if len(candidates) == 0 {
		return orb.Point{}, 0, 0, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		if fromEndOfA {
			return candidates[i].distA > candidates[j].distA
		}
		return candidates[i].distA < candidates[j].distA
	})
	best := candidates[0]
	return best.pt, best.distA, best.distB, true
}

// Crossing is one hit between two polylines, as found by AllIntersections.
type Crossing struct {
	Point      orb.Point
	DistA, DistB float64
}

// AllIntersections returns every point where polylines a and b cross,
// sorted by distance along a from its start. Used by package planar to
// explode every road/intersection-polygon edge at each point it crosses
// another, unlike LineIntersection, which only reports the single best hit
// for the intersection trim-back algorithm.
func AllIntersections(a, b orb.LineString) []Crossing {
	var out []Crossing
	cumA := 0.0
	for i := 1; i < len(a); i++ {
		segLenA := Distance(a[i-1], a[i])
		cumB := 0.0
		for j := 1; j < len(b); j++ {
			segLenB := Distance(b[j-1], b[j])
			if p, found := SegmentIntersection(a[i-1], a[i], b[j-1], b[j]); found {
				out = append(out, Crossing{
					Point: p,
					DistA: cumA + Distance(a[i-1], p),
					DistB: cumB + Distance(b[j-1], p),
				})
			}
			cumB += segLenB
		}
		cumA += segLenA
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistA < out[j].DistA })
	return out
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// ProjectOntoLine finds the point on ls closest to pt, returning that point
// and the distance along ls (from its start) where it falls. Used by the
// intersection trim-back algorithm to project an edge-edge hit back onto
// the original, untrimmed center-line.
func ProjectOntoLine(ls orb.LineString, pt orb.Point) (closest orb.Point, distAlong float64) {
	if len(ls) == 0 {
		return orb.Point{}, 0
	}
	bestDist := math.Inf(1)
	cum := 0.0
	for i := 1; i < len(ls); i++ {
		a, b := ls[i-1], ls[i]
		segLen := Distance(a, b)
		t := 0.0
		if segLen > epsilon {
			t = ((pt.X()-a.X())*(b.X()-a.X()) + (pt.Y()-a.Y())*(b.Y()-a.Y())) / (segLen * segLen)
			t = clamp01(t)
		}
		cp := lerp(a, b, t)
		d := Distance(pt, cp)
		if d < bestDist {
			bestDist = d
			closest = cp
			distAlong = cum + t*segLen
		}
		cum += segLen
	}
	return closest, distAlong
}

// Centroid returns the arithmetic mean of points. Used for an
// intersection's "true center", not an area centroid.
func Centroid(points []orb.Point) orb.Point {
	if len(points) == 0 {
		return orb.Point{}
	}
	var sx, sy float64
	for _, p := range points {
		sx += p.X()
		sy += p.Y()
	}
	n := float64(len(points))
	return orb.Point{sx / n, sy / n}
}

// BearingDegrees returns the angle from a to b in degrees, normalized to
// [0, 360).
func BearingDegrees(a, b orb.Point) float64 {
	rad := math.Atan2(b.Y()-a.Y(), b.X()-a.X())
	deg := rad * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

// RDPSimplify runs the Ramer-Douglas-Peucker algorithm on ls with tolerance
// epsilonMeters, returning a simplified polyline that never deviates from
// the original by more than epsilonMeters. Spec §4.2 step 3 runs this at
// epsilon = 0.5m when splitting ways into roads; §4.7 pass 4 reruns it at
// epsilon = 1m after fusing degenerate intersections.
//
// Implemented directly rather than via github.com/paulmach/orb/simplify.
// Only the simplified LineString is returned; which original vertices
// survived is not reported.
func RDPSimplify(ls orb.LineString, epsilonMeters float64) orb.LineString {
	if len(ls) < 3 || epsilonMeters <= 0 {
		out := make(orb.LineString, len(ls))
		copy(out, ls)
		return out
	}
	keep := make([]bool, len(ls))
	keep[0] = true
	keep[len(ls)-1] = true
	rdp(ls, 0, len(ls)-1, epsilonMeters, keep)

	out := make(orb.LineString, 0, len(ls))
	for i, k := range keep {
		if k {
			out = append(out, ls[i])
		}
	}
	return out
}

func rdp(ls orb.LineString, lo, hi int, eps float64, keep []bool) {
	if hi <= lo+1 {
		return
	}
	maxDist := -1.0
	maxIdx := -1
	for i := lo + 1; i < hi; i++ {
		d := perpendicularDistance(ls[i], ls[lo], ls[hi])
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}
	if maxDist > eps {
		keep[maxIdx] = true
		rdp(ls, lo, maxIdx, eps, keep)
		rdp(ls, maxIdx, hi, eps, keep)
	}
}

func perpendicularDistance(p, a, b orb.Point) float64 {
	if a == b {
		return Distance(p, a)
	}
	dx, dy := b.X()-a.X(), b.Y()-a.Y()
	l := math.Hypot(dx, dy)
	// Cross product magnitude / base length = height of the triangle.
	return math.Abs((p.X()-a.X())*dy-(p.Y()-a.Y())*dx) / l
}

// Area returns the (unsigned) shoelace area of a ring in square plane
// units.
func Area(r orb.Ring) float64 {
	if len(r) < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < len(r); i++ {
		j := (i + 1) % len(r)
		sum += r[i].X() * r[j].Y()
		sum -= r[j].X() * r[i].Y()
	}
	return math.Abs(sum) / 2
}

// PointInRing reports whether pt lies inside ring r (even-odd rule).
func PointInRing(r orb.Ring, pt orb.Point) bool {
	inside := false
	n := len(r)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := r[i], r[j]
		if (pi.Y() > pt.Y()) != (pj.Y() > pt.Y()) {
			x := (pj.X()-pi.X())*(pt.Y()-pi.Y())/(pj.Y()-pi.Y()) + pi.X()
			if pt.X() < x {
				inside = !inside
			}
		}
	}
	return inside
}

// Bounds returns the bounding box of a set of points.
func Bounds(points []orb.Point) orb.Bound {
	b := orb.Bound{Min: orb.Point{math.Inf(1), math.Inf(1)}, Max: orb.Point{math.Inf(-1), math.Inf(-1)}}
	for _, p := range points {
		b = b.Extend(p)
	}
	return b
}

// SmallCircle returns a regular-polygon approximation of a circle of the
// given radius centered at c, used as the placeholder polygon the
// intersection trim-back code falls back to when ring construction fails.
func SmallCircle(c orb.Point, radius float64) orb.Ring {
	const sides = 12
	ring := make(orb.Ring, 0, sides+1)
	for i := 0; i < sides; i++ {
		theta := 2 * math.Pi * float64(i) / sides
		ring = append(ring, orb.Point{c.X() + radius*math.Cos(theta), c.Y() + radius*math.Sin(theta)})
	}
	ring = append(ring, ring[0])
	return ring
}
