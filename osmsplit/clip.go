package osmsplit

import (
	"fmt"
	"log"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/tidwall/rtree"

	"streets/geom"
	"streets/ids"
	"streets/network"
	"streets/units"
)

// Clip restricts sn to its BoundaryPolygon (spec §4.3). It is a no-op if no
// boundary was supplied. Intersections are spatially indexed with an rtree
// so that "is this intersection nowhere near the boundary" can be answered
// from the tree's bounding box before paying for the exact point-in-ring
// test, rather than running that test against every intersection.
func Clip(sn *network.StreetNetwork, projector geom.Projector) error {
	if len(sn.BoundaryPolygon) == 0 {
		return nil
	}
	ring := orb.Ring(projector.LineToPlane(orb.LineString(sn.BoundaryPolygon)))
	ringBound := geom.Bounds([]orb.Point(ring))

	removeRoadsFullyOutside(sn, ring)

	for _, id := range outsideIntersections(sn, ring, ringBound) {
		isect, ok := sn.Intersections[id]
		if !ok || len(isect.Roads) < 2 {
			continue
		}
		if err := splitOutsideIntersection(sn, id); err != nil {
			log.Printf("Warning: osmsplit: clip: splitting intersection %s: %v", id, err)
		}
	}

	for _, id := range outsideIntersections(sn, ring, ringBound) {
		isect, ok := sn.Intersections[id]
		if !ok || len(isect.Roads) != 1 {
			continue
		}
		if err := trimToBoundary(sn, id, ring); err != nil {
			log.Printf("Warning: osmsplit: clip: trimming intersection %s to boundary: %v", id, err)
		}
	}

	if len(sn.Roads) == 0 {
		return fmt.Errorf("osmsplit: %w", network.ErrNoRoadsInBounds)
	}
	return nil
}

// removeRoadsFullyOutside implements spec §4.3 step 1.
func removeRoadsFullyOutside(sn *network.StreetNetwork, ring orb.Ring) {
	var toRemove []ids.RoadID
	for rid, r := range sn.Roads {
		line := r.CenterLine
		if len(line) < 2 {
			line = r.ReferenceLine
		}
		if len(line) < 2 {
			continue
		}
		first, last := line[0], line[len(line)-1]
		if geom.PointInRing(ring, first) || geom.PointInRing(ring, last) {
			continue
		}
		if r.IsLightRail() && anyPointInRing(ring, line) {
			continue
		}
		toRemove = append(toRemove, rid)
	}
	for _, rid := range toRemove {
		if err := sn.RemoveRoad(rid); err != nil {
			log.Printf("Warning: osmsplit: clip: removing out-of-bounds road %s: %v", rid, err)
		}
	}
}

func anyPointInRing(ring orb.Ring, line orb.LineString) bool {
	for _, p := range line {
		if geom.PointInRing(ring, p) {
			return true
		}
	}
	return false
}

// outsideIntersections returns the IDs of every remaining intersection
// whose point lies outside ring, using an rtree built over every
// intersection's location to skip the exact ring test for anything clearly
// outside the boundary's own bounding box.
func outsideIntersections(sn *network.StreetNetwork, ring orb.Ring, ringBound orb.Bound) []ids.IntersectionID {
	var tr rtree.RTree
	for id, isect := range sn.Intersections {
		p := [2]float64{isect.Point.X(), isect.Point.Y()}
		tr.Insert(p, p, id)
	}

	var outside []ids.IntersectionID
	min := [2]float64{ringBound.Min.X(), ringBound.Min.Y()}
	max := [2]float64{ringBound.Max.X(), ringBound.Max.Y()}
	inBoundBox := make(map[ids.IntersectionID]bool)
	tr.Search(min, max, func(_, _ [2]float64, value interface{}) bool {
		inBoundBox[value.(ids.IntersectionID)] = true
		return true
	})

	for id, isect := range sn.Intersections {
		if !inBoundBox[id] {
			outside = append(outside, id)
			continue
		}
		if !geom.PointInRing(ring, isect.Point) {
			outside = append(outside, id)
		}
	}
	return outside
}

// splitOutsideIntersection implements spec §4.3 step 2: duplicate the
// intersection once per incident road, so none of those roads are still
// joined through the same out-of-bounds junction.
func splitOutsideIntersection(sn *network.StreetNetwork, id ids.IntersectionID) error {
	isect, ok := sn.Intersections[id]
	if !ok {
		return fmt.Errorf("intersection %s does not exist", id)
	}
	roadIDs := append([]ids.RoadID(nil), isect.Roads...)

	for _, rid := range roadIDs {
		r, ok := sn.Roads[rid]
		if !ok {
			continue
		}
		fresh := &network.Intersection{
			ID:         sn.NewIntersectionID(),
			OSMNodeIDs: append([]osm.NodeID(nil), isect.OSMNodeIDs...),
			Point:      isect.Point,
			Kind:       units.MapEdge,
		}
		sn.AddIntersection(fresh)

		switch id {
		case r.SrcI:
			r.SrcI = fresh.ID
		case r.DstI:
			r.DstI = fresh.ID
		}
		isect.DetachRoad(rid)
		fresh.Roads = []ids.RoadID{rid}
		if err := sn.SortRoads(fresh.ID); err != nil {
			return err
		}
	}

	if len(isect.Roads) == 0 {
		return sn.RemoveIntersection(id)
	}
	return sn.SortRoads(id)
}

// trimToBoundary implements spec §4.3 step 3: trim the single incident
// road back so its endpoint lies exactly on the boundary ring, and
// re-label the intersection MapEdge.
func trimToBoundary(sn *network.StreetNetwork, id ids.IntersectionID, ring orb.Ring) error {
	isect, ok := sn.Intersections[id]
	if !ok || len(isect.Roads) != 1 {
		return fmt.Errorf("intersection %s does not have exactly one incident road", id)
	}
	rid := isect.Roads[0]
	r, ok := sn.Roads[rid]
	if !ok {
		return fmt.Errorf("road %s does not exist", rid)
	}
	line := r.CenterLine
	if len(line) < 2 {
		return fmt.Errorf("road %s has no usable center line", rid)
	}

	fromEnd := r.DstI == id
	hit, distA, _, ok := geom.LineIntersection(line, orb.LineString(ring), fromEnd)
	if !ok {
		r.InternalJunctionRoad = true
		isect.Kind = units.MapEdge
		return nil
	}

	total := geom.Length(line)
	var trimmed orb.LineString
	if fromEnd {
		trimmed = geom.Trim(line, 0, total-distA)
		r.TrimEnd = total - distA
	} else {
		trimmed = geom.Trim(line, distA, 0)
		r.TrimStart = distA
	}
	if len(trimmed) >= 2 {
		r.CenterLine = trimmed
	}

	isect.Point = hit
	isect.Kind = units.MapEdge
	return nil
}
