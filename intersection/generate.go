package intersection

import (
	"github.com/paulmach/orb"

	"streets/geom"
	"streets/ids"
	"streets/network"
)

// GeneratePolygons runs TrimBack over every intersection in sn and applies
// the results back: each intersection's placeholder Polygon is replaced
// with the negotiated ring, and each incident road's TrimStart/TrimEnd is
// set from the trimmed distance nearest that intersection. Run after the
// transformation pipeline (package transform) has settled the graph's
// final shape, since every pass after this one must treat trims as final.
func GeneratePolygons(sn *network.StreetNetwork) {
	for id, isect := range sn.Intersections {
		roads := make([]RoadInput, 0, len(isect.Roads))
		for _, rid := range isect.Roads {
			r, ok := sn.Roads[rid]
			if !ok {
				continue
			}
			roads = append(roads, RoadInput{
				ID:          r.ID,
				SrcI:        r.SrcI,
				DstI:        r.DstI,
				CenterLine:  r.CenterLine,
				TotalWidth:  r.TotalWidth(),
				HighwayType: r.HighwayType,
			})
		}

		carryOver := carryOverPoints(isect.TrimRoadsForMerging, roads)
		res := TrimBack(id, isect.Point, roads, carryOver)
		isect.Polygon = res.Polygon

		for rid, dist := range res.TrimFromIntersectionEnd {
			r, ok := sn.Roads[rid]
			if !ok {
				continue
			}
			if r.DstI == id {
				r.TrimEnd = dist
			} else if r.SrcI == id {
				r.TrimStart = dist
			}
		}

		for rid, dist := range res.ExtendFromIntersectionEnd {
			r, ok := sn.Roads[rid]
			if !ok {
				continue
			}
			r.CenterLine = geom.Extend(r.CenterLine, dist, r.SrcI == id)
		}
	}
}

// carryOverPoints converts an intersection's (RoadID, is-src-endpoint)
// keyed carry-over map into the (RoadID -> Point) shape package
// intersection's "pretrimmed" variant expects, dropping entries for roads
// no longer incident here.
func carryOverPoints(trims map[network.TrimKey]orb.Point, roads []RoadInput) map[ids.RoadID]orb.Point {
	if len(trims) == 0 {
		return nil
	}
	incident := make(map[ids.RoadID]bool, len(roads))
	for _, r := range roads {
		incident[r.ID] = true
	}
	out := make(map[ids.RoadID]orb.Point)
	for key, pt := range trims {
		if incident[key.Road] {
			out[key.Road] = pt
		}
	}
	return out
}
