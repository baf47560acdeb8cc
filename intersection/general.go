package intersection

import (
	"github.com/paulmach/orb"

	"streets/geom"
	"streets/ids"
)

type edge struct {
	road ids.RoadID
	side int // 0 = left, 1 = right
	line orb.LineString
}

// buildEdges returns, for every road in clockwise order, its left and right
// edges (the center-line shifted by half its width) oriented *away* from
// the intersection, interleaved so that road i's right edge (index 2i+1)
// is adjacent to road i+1's left edge (index 2i+2) in the cyclic order —
// the "edges sorted so each road's two edges are adjacent" setup spec
// §4.6's general algorithm assumes.
func buildEdges(center orb.Point, id ids.IntersectionID, roads []RoadInput) []edge {
	edges := make([]edge, 0, len(roads)*2)
	for _, r := range roads {
		away := orientedAwayFromCenter(r, id)
		half := r.TotalWidth / 2
		left := geom.Shift(away, -half)
		right := geom.Shift(away, half)
		edges = append(edges, edge{road: r.ID, side: 0, line: left}, edge{road: r.ID, side: 1, line: right})
	}
	return edges
}

func orientedAwayFromCenter(r RoadInput, id ids.IntersectionID) orb.LineString {
	if r.SrcI == id {
		return r.CenterLine
	}
	return geom.Reversed(r.CenterLine)
}

// general implements spec §4.6's trim-to-corners variant.
func general(id ids.IntersectionID, center orb.Point, roads []RoadInput) Results {
	if len(roads) < 3 {
		return placeholder(center)
	}
	// Index roads by ID for connectivity (loop) checks and original lines.
	byID := make(map[ids.RoadID]RoadInput, len(roads))
	for _, r := range roads {
		byID[r.ID] = r
	}

	edges := buildEdges(center, id, roads)
	n := len(edges)

	trims := make(map[ids.RoadID]float64, len(roads))
	corners := make(map[int]orb.Point) // key: index of the pair (i -> i, i+1)

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		a, b := edges[i], edges[j]
		if a.road == b.road {
			continue // both edges of the same road, not a real junction pair
		}

		hit, distA, distB, ok := geom.LineIntersection(a.line, b.line, false)
		if !ok {
			continue
		}

		ra, rb := byID[a.road], byID[b.road]
		if loopCase(ra, rb) {
			lenA, lenB := geom.Length(a.line), geom.Length(b.line)
			if distA > lenA/2 && distB > lenB/2 {
				continue // hit is nearer the opposite intersection than this one
			}
		}

		if distA > trims[a.road] {
			trims[a.road] = distA
		}
		if distB > trims[b.road] {
			trims[b.road] = distB
		}
		corners[i] = hit
	}

	ring := make(orb.Ring, 0, n+1)
	skipNext := make([]bool, n)
	for i := 0; i < n; i++ {
		if c, ok := corners[i]; ok {
			ring = append(ring, c)
			skipNext[(i+1)%n] = true
			continue
		}
		if skipNext[i] {
			continue
		}
		e := edges[i]
		trim := trims[e.road]
		pt, _ := geom.PointAlong(e.line, trim)
		ring = append(ring, pt)
	}

	if len(ring) < 3 {
		return placeholder(center)
	}
	ring = append(ring, ring[0])

	for rid, trim := range trims {
		r := byID[rid]
		if trim > geom.Length(r.CenterLine) {
			trims[rid] = geom.Length(r.CenterLine) / 2
		}
	}

	return Results{Polygon: ring, TrimFromIntersectionEnd: trims}
}

// loopCase reports whether a and b connect the same pair of intersections
// (spec §4.6 general step 2's "loop" detection).
func loopCase(a, b RoadInput) bool {
	return (a.SrcI == b.SrcI && a.DstI == b.DstI) || (a.SrcI == b.DstI && a.DstI == b.SrcI)
}

// onOffRamp implements spec §4.6's 3-road asymmetric-width variant. On the
// winning pairing, the thin ramp and the chosen thick road are trimmed back
// to where their offset edges meet; the extra length trimmed off the chosen
// thick beyond the 5m merge zone is then added onto the *other* thick
// road's center-line (step 4), so the mainline reads as continuous through
// the merge rather than leaving a gap. Returns ok=false when the merge zone
// is too short, in which case the caller falls back to general.
func onOffRamp(id ids.IntersectionID, center orb.Point, roads []RoadInput) (Results, bool) {
	if len(roads) != 3 {
		return Results{}, false
	}
	thin, thick1, thick2 := classifyByWidth(roads)

	thinLine := orientedAwayFromCenter(thin, id)
	thick1Line := orientedAwayFromCenter(thick1, id)
	thick2Line := orientedAwayFromCenter(thick2, id)

	type candidate struct {
		chosenThick     RoadInput
		otherThick      RoadInput
		otherLine       orb.LineString
		hit             orb.Point
		thinTrim        float64
		chosenThickTrim float64
	}
	var best *candidate

	tryPair := func(chosen RoadInput, chosenLine orb.LineString, other RoadInput, otherLine orb.LineString) {
		half1, half2 := thin.TotalWidth/2, chosen.TotalWidth/2
		thinEdges := []orb.LineString{geom.Shift(thinLine, -half1), geom.Shift(thinLine, half1)}
		thickEdges := []orb.LineString{geom.Shift(chosenLine, -half2), geom.Shift(chosenLine, half2)}
		for _, te := range thinEdges {
			for _, ke := range thickEdges {
				hit, distThin, distThick, ok := geom.LineIntersection(te, ke, false)
				if !ok {
					continue
				}
				if best == nil || distThin < best.thinTrim {
					best = &candidate{
						chosenThick:     chosen,
						otherThick:      other,
						otherLine:       otherLine,
						hit:             hit,
						thinTrim:        distThin,
						chosenThickTrim: distThick,
					}
				}
			}
		}
	}
	tryPair(thick1, thick1Line, thick2, thick2Line)
	tryPair(thick2, thick2Line, thick1, thick1Line)

	if best == nil {
		return Results{}, false
	}

	extraSlice := best.chosenThickTrim - rampMergeZone
	if extraSlice < rampMergeEpsilon {
		return Results{}, false
	}

	trims := map[ids.RoadID]float64{
		thin.ID:             best.thinTrim,
		best.chosenThick.ID: best.chosenThickTrim,
	}
	extensions := map[ids.RoadID]float64{
		best.otherThick.ID: extraSlice,
	}

	thinLinePt, _ := geom.PointAlong(thinLine, best.thinTrim)
	extendedOther := geom.Extend(best.otherLine, extraSlice, true)
	otherPt := extendedOther[0]

	ring := orb.Ring{best.hit, thinLinePt, otherPt, best.hit}

	return Results{Polygon: ring, TrimFromIntersectionEnd: trims, ExtendFromIntersectionEnd: extensions}, true
}

// classifyByWidth ranks the three roads by half-width, returning the
// thinnest first and the two thickest after (spec §4.6 on/off-ramp step 1).
func classifyByWidth(roads []RoadInput) (thin, thick1, thick2 RoadInput) {
	sorted := append([]RoadInput(nil), roads...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].TotalWidth < sorted[j-1].TotalWidth; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return sorted[0], sorted[1], sorted[2]
}
