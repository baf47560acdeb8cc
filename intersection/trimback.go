// Package intersection implements the intersection-polygon "trim-back"
// algorithm (spec §4.6): given an intersection's incident roads, decide how
// far to trim each road's center-line and what ring encloses the negotiated
// junction area.
//
// Grounded on the teacher's dispatch-by-shape style (pkg/routing/engine.go
// switches on query shape rather than subclassing) generalized from a
// routing-strategy switch into the four geometric variants spec §4.6
// names, and on osm2streets/src/intersection.rs for the overall algorithm
// (not transliterated).
package intersection

import (
	"log"
	"math"

	"github.com/paulmach/orb"

	"streets/geom"
	"streets/ids"
)

// RoadInput is one incident road's geometry, as spec §4.6 describes the
// trim-back input contract.
type RoadInput struct {
	ID          ids.RoadID
	SrcI, DstI  ids.IntersectionID
	CenterLine  orb.LineString // untrimmed
	TotalWidth  float64
	HighwayType string
}

// Results is the trim-back output: the intersection polygon plus each
// road's new trim distances from its original (untrimmed) endpoints.
type Results struct {
	Polygon orb.Ring
	// TrimFromIntersectionEnd maps road ID to the distance trimmed off the
	// end of CenterLine nearest this intersection.
	TrimFromIntersectionEnd map[ids.RoadID]float64
	// ExtendFromIntersectionEnd maps road ID to a distance to lengthen
	// CenterLine by, past the end nearest this intersection, rather than
	// trim it. Only the on/off-ramp variant produces this, to carry a
	// mainline road's geometry through a merge zone its own end never
	// reached (spec §4.6 on/off-ramp step 4).
	ExtendFromIntersectionEnd map[ids.RoadID]float64
}

const (
	terminusExtension = 2.5
	degenerateTrim    = 1.0
	degenerateMinTrim = 0.1
	degenerateMinLen  = 0.2
	rampMergeZone     = 5.0
	// rampMergeEpsilon is the floating-point slack below which the
	// extra slice beyond rampMergeZone counts as "no extension" (spec
	// §4.6 on/off-ramp step 4's "5m plus epsilon" bail-out).
	rampMergeEpsilon = 1e-6
)

var rampHighways = map[string]bool{
	"motorway_link": true,
	"trunk_link":    true,
	"primary_link":  true,
}

// TrimBack computes the intersection polygon for id given its incident
// roads (already clockwise-sorted by the caller) and an optional carry-over
// map of pre-trimmed endpoints from previously collapsed short roads (spec
// §4.6's "pretrimmed" dispatch case; pass nil or empty when there is none).
//
// On any geometric failure it falls back to a small placeholder circle
// around center (spec §7's per-entity recoverable policy) rather than
// returning an error.
func TrimBack(id ids.IntersectionID, center orb.Point, roads []RoadInput, carryOver map[ids.RoadID]orb.Point) Results {
	switch {
	case len(roads) == 0:
		return placeholder(center)
	case len(roads) == 1:
		return terminus(id, center, roads[0])
	case len(roads) == 2:
		return degenerate(id, center, roads)
	case len(carryOver) > 0:
		return pretrimmed(id, center, roads, carryOver)
	case len(roads) == 3 && anyRamp(roads):
		if res, ok := onOffRamp(id, center, roads); ok {
			return res
		}
		return general(id, center, roads)
	default:
		return general(id, center, roads)
	}
}

func anyRamp(roads []RoadInput) bool {
	for _, r := range roads {
		if rampHighways[r.HighwayType] {
			return true
		}
	}
	return false
}

func placeholder(center orb.Point) Results {
	return Results{Polygon: geom.SmallCircle(center, 3), TrimFromIntersectionEnd: map[ids.RoadID]float64{}}
}

// orientedTowardCenter returns road's center-line reversed if it currently
// points away from this intersection (DstI == id means it already points
// toward it).
func orientedTowardCenter(r RoadInput, id ids.IntersectionID) orb.LineString {
	if r.DstI == id {
		return r.CenterLine
	}
	return geom.Reversed(r.CenterLine)
}

// terminus implements spec §4.6's terminus variant: square off the end by
// extending the left/right edges ~2.5m past the intersection point and
// trimming the center-line back by the same amount.
func terminus(id ids.IntersectionID, center orb.Point, r RoadInput) Results {
	line := orientedTowardCenter(r, id)
	if len(line) < 2 {
		return placeholder(center)
	}
	half := r.TotalWidth / 2
	trimmed := geom.Trim(line, 0, terminusExtension)
	if len(trimmed) < 2 {
		return placeholder(center)
	}
	left := geom.Shift(trimmed, -half)
	right := geom.Shift(trimmed, half)

	_, bearing := geom.PointAlong(trimmed, geom.Length(trimmed))
	dir := orb.Point{math.Cos(bearing), math.Sin(bearing)}
	leftFar := orb.Point{left[len(left)-1].X() + dir.X()*terminusExtension, left[len(left)-1].Y() + dir.Y()*terminusExtension}
	rightFar := orb.Point{right[len(right)-1].X() + dir.X()*terminusExtension, right[len(right)-1].Y() + dir.Y()*terminusExtension}

	ring := orb.Ring{left[len(left)-1], leftFar, rightFar, right[len(right)-1], left[len(left)-1]}

	return Results{
		Polygon:                 ring,
		TrimFromIntersectionEnd: map[ids.RoadID]float64{r.ID: terminusExtension},
	}
}

// degenerate implements spec §4.6's 2-road variant: trim each back by 1m, or
// by a third of the road when that is shorter, but never by less than 0.1m
// (so roads under 0.3m are trimmed by more than a third), and connect the
// four shifted endpoints into a ring.
func degenerate(id ids.IntersectionID, center orb.Point, roads []RoadInput) Results {
	trims := map[ids.RoadID]float64{}
	var corners orb.Ring

	for _, r := range roads {
		line := orientedTowardCenter(r, id)
		total := geom.Length(line)
		if total < degenerateMinLen {
			log.Printf("Warning: intersection: degenerate trim: road %s shorter than %.2fm, using placeholder", r.ID, degenerateMinLen)
			return placeholder(center)
		}
		trim := degenerateTrim
		if trim > total/3 {
			trim = math.Max(degenerateMinTrim, total/3)
		}
		trims[r.ID] = trim

		trimmedLine := geom.Trim(line, 0, trim)
		if len(trimmedLine) < 2 {
			return placeholder(center)
		}
		half := r.TotalWidth / 2
		left := geom.Shift(trimmedLine, -half)
		right := geom.Shift(trimmedLine, half)
		corners = append(corners, left[len(left)-1], right[len(right)-1])
	}

	if len(corners) != 4 {
		return placeholder(center)
	}
	ring := orb.Ring{corners[0], corners[1], corners[3], corners[2], corners[0]}
	return Results{Polygon: ring, TrimFromIntersectionEnd: trims}
}

// pretrimmed implements spec §4.6's carry-over variant: slice each road's
// center-line to the recorded carry-over point rather than computing a
// fresh trim, then connect the shifted endpoints clockwise.
func pretrimmed(id ids.IntersectionID, center orb.Point, roads []RoadInput, carryOver map[ids.RoadID]orb.Point) Results {
	trims := map[ids.RoadID]float64{}
	var ring orb.Ring

	for _, r := range roads {
		line := orientedTowardCenter(r, id)
		cut, ok := carryOver[r.ID]
		var trimmedLine orb.LineString
		if ok {
			_, distAlong := geom.ProjectOntoLine(line, cut)
			trimmedLine = geom.Trim(line, 0, geom.Length(line)-distAlong)
			trims[r.ID] = geom.Length(line) - distAlong
		} else {
			trimmedLine = geom.Trim(line, 0, degenerateTrim)
			trims[r.ID] = degenerateTrim
		}
		if len(trimmedLine) < 2 {
			continue
		}
		half := r.TotalWidth / 2
		left := geom.Shift(trimmedLine, -half)
		right := geom.Shift(trimmedLine, half)
		ring = append(ring, left[len(left)-1], right[len(right)-1])
	}
	if len(ring) < 3 {
		return placeholder(center)
	}
	ring = append(ring, ring[0])
	return Results{Polygon: ring, TrimFromIntersectionEnd: trims}
}
