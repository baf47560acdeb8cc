package geom

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestLength(t *testing.T) {
	tests := []struct {
		name string
		ls   orb.LineString
		want float64
	}{
		{"empty", nil, 0},
		{"single point", orb.LineString{{0, 0}}, 0},
		{"one segment", orb.LineString{{0, 0}, {3, 4}}, 5},
		{"two segments", orb.LineString{{0, 0}, {3, 4}, {3, 0}}, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Length(tt.ls); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Length = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestTrimShortensBothEnds(t *testing.T) {
	ls := orb.LineString{{0, 0}, {10, 0}}
	trimmed := Trim(ls, 2, 3)
	if got := Length(trimmed); math.Abs(got-5) > 1e-9 {
		t.Fatalf("Trim length = %f, want 5", got)
	}
	if trimmed[0].X() != 2 || trimmed[len(trimmed)-1].X() != 7 {
		t.Fatalf("unexpected trimmed endpoints: %+v", trimmed)
	}
}

func TestTrimOvershootCollapsesToMidpoint(t *testing.T) {
	ls := orb.LineString{{0, 0}, {10, 0}}
	trimmed := Trim(ls, 6, 6)
	if len(trimmed) != 2 || trimmed[0] != trimmed[1] {
		t.Fatalf("expected a degenerate 2-point result at the midpoint, got %+v", trimmed)
	}
	if trimmed[0].X() != 5 {
		t.Fatalf("expected midpoint at x=5, got %+v", trimmed[0])
	}
}

func TestShiftPerpendicularOnStraightLine(t *testing.T) {
	ls := orb.LineString{{0, 0}, {10, 0}}
	right := Shift(ls, 2)
	for _, p := range right {
		if math.Abs(p.Y()-(-2)) > 1e-9 {
			t.Fatalf("expected every point shifted to y=-2, got %+v", right)
		}
	}
	left := Shift(ls, -2)
	for _, p := range left {
		if math.Abs(p.Y()-2) > 1e-9 {
			t.Fatalf("expected every point shifted to y=2, got %+v", left)
		}
	}
}

func TestPointAlongWalksAndClamps(t *testing.T) {
	ls := orb.LineString{{0, 0}, {10, 0}, {10, 10}}
	p, _ := PointAlong(ls, 5)
	if p.X() != 5 || p.Y() != 0 {
		t.Fatalf("PointAlong(5) = %+v, want (5,0)", p)
	}
	p, _ = PointAlong(ls, 1000)
	if p != ls[len(ls)-1] {
		t.Fatalf("PointAlong overshoot should clamp to the last point, got %+v", p)
	}
	p, _ = PointAlong(ls, -5)
	if p != ls[0] {
		t.Fatalf("PointAlong of a negative distance should clamp to the first point, got %+v", p)
	}
}

func TestRDPSimplifyKeepsEndpointsAndDropsColinearPoints(t *testing.T) {
	ls := orb.LineString{{0, 0}, {1, 0.01}, {2, -0.01}, {10, 0}}
	out := RDPSimplify(ls, 0.5)
	if out[0] != ls[0] || out[len(out)-1] != ls[len(ls)-1] {
		t.Fatalf("RDPSimplify must keep the original endpoints, got %+v", out)
	}
	if len(out) != 2 {
		t.Fatalf("expected the near-colinear interior points to be dropped at eps=0.5, got %+v", out)
	}
}

func TestRDPSimplifyKeepsSignificantBend(t *testing.T) {
	ls := orb.LineString{{0, 0}, {5, 5}, {10, 0}}
	out := RDPSimplify(ls, 0.1)
	if len(out) != 3 {
		t.Fatalf("expected the sharp bend to survive simplification, got %+v", out)
	}
}

func TestAreaOfUnitSquare(t *testing.T) {
	ring := orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}
	if got := Area(ring); math.Abs(got-1) > 1e-9 {
		t.Fatalf("Area = %f, want 1", got)
	}
}

func TestPointInRing(t *testing.T) {
	square := orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}
	if !PointInRing(square, orb.Point{5, 5}) {
		t.Fatalf("center point should be inside the square")
	}
	if PointInRing(square, orb.Point{20, 20}) {
		t.Fatalf("far point should be outside the square")
	}
}

func TestCentroid(t *testing.T) {
	c := Centroid([]orb.Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}})
	if c.X() != 5 || c.Y() != 5 {
		t.Fatalf("Centroid = %+v, want (5,5)", c)
	}
}

func TestBearingDegreesCardinalDirections(t *testing.T) {
	tests := []struct {
		name string
		a, b orb.Point
		want float64
	}{
		{"east", orb.Point{0, 0}, orb.Point{1, 0}, 0},
		{"north", orb.Point{0, 0}, orb.Point{0, 1}, 90},
		{"west", orb.Point{0, 0}, orb.Point{-1, 0}, 180},
		{"south", orb.Point{0, 0}, orb.Point{0, -1}, 270},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BearingDegrees(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("BearingDegrees = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestLineIntersectionFindsCrossing(t *testing.T) {
	a := orb.LineString{{0, 0}, {10, 0}}
	b := orb.LineString{{5, -5}, {5, 5}}
	hit, distA, distB, ok := LineIntersection(a, b, false)
	if !ok {
		t.Fatal("expected an intersection")
	}
	if math.Abs(hit.X()-5) > 1e-9 || math.Abs(hit.Y()) > 1e-9 {
		t.Fatalf("hit = %+v, want (5,0)", hit)
	}
	if math.Abs(distA-5) > 1e-9 || math.Abs(distB-5) > 1e-9 {
		t.Fatalf("distA=%f distB=%f, want 5 and 5", distA, distB)
	}
}

func TestLineIntersectionNoCrossingReturnsFalse(t *testing.T) {
	a := orb.LineString{{0, 0}, {10, 0}}
	b := orb.LineString{{0, 5}, {10, 5}}
	if _, _, _, ok := LineIntersection(a, b, false); ok {
		t.Fatal("parallel non-intersecting lines must report ok=false")
	}
}

func TestProjectOntoLine(t *testing.T) {
	ls := orb.LineString{{0, 0}, {10, 0}}
	closest, dist := ProjectOntoLine(ls, orb.Point{4, 3})
	if math.Abs(closest.X()-4) > 1e-9 || closest.Y() != 0 {
		t.Fatalf("closest = %+v, want (4,0)", closest)
	}
	if math.Abs(dist-4) > 1e-9 {
		t.Fatalf("distAlong = %f, want 4", dist)
	}
}

func TestSmallCircleIsClosedRing(t *testing.T) {
	ring := SmallCircle(orb.Point{0, 0}, 3)
	if ring[0] != ring[len(ring)-1] {
		t.Fatal("SmallCircle must return a closed ring")
	}
	for _, p := range ring {
		if d := Distance(orb.Point{0, 0}, p); math.Abs(d-3) > 1e-9 {
			t.Fatalf("point %+v is %f from center, want 3", p, d)
		}
	}
}

func BenchmarkRDPSimplify(b *testing.B) {
	ls := make(orb.LineString, 0, 100)
	for i := 0; i < 100; i++ {
		ls = append(ls, orb.Point{float64(i), math.Sin(float64(i) / 5)})
	}
	for i := 0; i < b.N; i++ {
		RDPSimplify(ls, 0.5)
	}
}
