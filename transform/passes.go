package transform

import (
	"log"

	"github.com/paulmach/orb"

	"streets/geom"
	"streets/ids"
	"streets/lanes"
	"streets/network"
	"streets/units"
)

// TrimDeadendCycleways removes any cycleway or service road shorter than
// 30m whose single endpoint is a non-map-edge degree-1 intersection, then
// the orphaned intersection (RemoveRoad does the latter automatically). A
// single pass is run; driving this to a fixed point is not required in
// practice.
func TrimDeadendCycleways(sn *network.StreetNetwork) error {
	var toRemove []ids.RoadID
	for rid, r := range sn.Roads {
		if !(r.IsCycleway() || r.IsService()) {
			continue
		}
		if r.Length() >= 30 {
			continue
		}
		if isDeadEnd(sn, r.SrcI) || isDeadEnd(sn, r.DstI) {
			toRemove = append(toRemove, rid)
		}
	}
	for _, rid := range toRemove {
		if _, ok := sn.Roads[rid]; !ok {
			continue
		}
		if err := sn.RemoveRoad(rid); err != nil {
			return err
		}
	}
	return nil
}

func isDeadEnd(sn *network.StreetNetwork, id ids.IntersectionID) bool {
	isect, ok := sn.Intersections[id]
	if !ok {
		return false
	}
	return isect.Kind != units.MapEdge && len(isect.Roads) == 1
}

func degree(sn *network.StreetNetwork, id ids.IntersectionID) int {
	if isect, ok := sn.Intersections[id]; ok {
		return len(isect.Roads)
	}
	return 0
}

type intersectionPair struct {
	a, b ids.IntersectionID
}

func unorderedPair(a, b ids.IntersectionID) intersectionPair {
	if a <= b {
		return intersectionPair{a, b}
	}
	return intersectionPair{b, a}
}

// CollapseSausageLinks finds pairs of one-way, same-named roads directly
// connecting the same two intersections (a small
// loop, e.g. a divided street digitized as two ways), remove one, straighten
// the other into the through road, and splice the removed road's lanes back
// in (reversed) as the opposing direction, separated by a curb buffer.
// Pairs whose both endpoints would then have no other connection are left
// alone (preserves legitimate standalone loops - "lollipops").
func CollapseSausageLinks(sn *network.StreetNetwork) error {
	buckets := make(map[intersectionPair][]ids.RoadID)
	for rid, r := range sn.Roads {
		if !r.OneWay() || r.Name == "" {
			continue
		}
		buckets[unorderedPair(r.SrcI, r.DstI)] = append(buckets[unorderedPair(r.SrcI, r.DstI)], rid)
	}

	for key, roadIDs := range buckets {
		if len(roadIDs) != 2 {
			continue
		}
		a, aok := sn.Roads[roadIDs[0]]
		b, bok := sn.Roads[roadIDs[1]]
		if !aok || !bok || a.Name != b.Name {
			continue
		}
		if degree(sn, key.a) <= 2 && degree(sn, key.b) <= 2 {
			continue // both endpoints would be left isolated: a lollipop loop
		}
		if err := collapseSausagePair(sn, a.ID, b.ID); err != nil {
			log.Printf("Warning: transform: sausage link %s/%s: %v", a.ID, b.ID, err)
		}
	}
	return nil
}

func collapseSausagePair(sn *network.StreetNetwork, keepID, otherID ids.RoadID) error {
	keep, ok := sn.Roads[keepID]
	if !ok {
		return nil
	}
	other, ok := sn.Roads[otherID]
	if !ok {
		return nil
	}

	otherLanes := append([]lanes.LaneSpec(nil), other.LaneSpecsLTR...)
	if other.SrcI == keep.SrcI {
		// Both roads digitized from the same end: other's lanes run the
		// opposite direction along the *same* orientation, so only the
		// travel direction needs flipping, not the LTR order.
		otherLanes = flipDirections(otherLanes)
	} else {
		// other runs from keep's DstI back to keep's SrcI: reverse the LTR
		// order to re-express it in keep's own frame, then flip direction.
		otherLanes = reverseLaneOrder(flipDirections(otherLanes))
	}

	buf := lanes.LaneSpec{Type: units.Buffer, Buffer: units.Curb, Width: lanes.BufferWidth(units.Curb)}
	if sn.Config.DrivingSide == units.Left {
		keep.LaneSpecsLTR = append(append(append([]lanes.LaneSpec{}, keep.LaneSpecsLTR...), buf), otherLanes...)
	} else {
		keep.LaneSpecsLTR = append(append(append([]lanes.LaneSpec{}, otherLanes...), buf), keep.LaneSpecsLTR...)
	}

	srcPt := sn.Intersections[keep.SrcI].Point
	dstPt := sn.Intersections[keep.DstI].Point
	keep.CenterLine = orb.LineString{srcPt, dstPt}
	keep.ReferenceLine = keep.CenterLine
	keep.OSMWayIDs = append(keep.OSMWayIDs, other.OSMWayIDs...)

	retargetRestrictions(sn, otherID, keepID)
	return sn.RemoveRoad(otherID)
}

func flipDirections(specs []lanes.LaneSpec) []lanes.LaneSpec {
	out := make([]lanes.LaneSpec, len(specs))
	for i, s := range specs {
		s.Direction = s.Direction.Opposite()
		out[i] = s
	}
	return out
}

func reverseLaneOrder(specs []lanes.LaneSpec) []lanes.LaneSpec {
	out := make([]lanes.LaneSpec, len(specs))
	for i, s := range specs {
		out[len(specs)-1-i] = s
	}
	return out
}

// retargetRestrictions rewrites every SimpleRestriction/ComplicatedRestriction
// across the network that names from as its Other/Via/To road, pointing it
// at to instead. Used whenever a pass destroys a road that restrictions
// elsewhere in the network still reference.
func retargetRestrictions(sn *network.StreetNetwork, from, to ids.RoadID) {
	for _, r := range sn.Roads {
		for i := range r.SimpleRestrictions {
			if r.SimpleRestrictions[i].Other == from {
				r.SimpleRestrictions[i].Other = to
			}
		}
		for i := range r.ComplicatedRestrictions {
			if r.ComplicatedRestrictions[i].Via == from {
				r.ComplicatedRestrictions[i].Via = to
			}
			if r.ComplicatedRestrictions[i].To == from {
				r.ComplicatedRestrictions[i].To = to
			}
		}
	}
}

const shortRoadThreshold = 5.0 // meters; junction=intersection micro-links

// CollapseShortRoads handles roads that represent a single negotiated
// junction digitized as a short separate way (OSM's junction=intersection
// convention, spec §4.7 pass 3), plus any road a geometric pass has already
// marked InternalJunctionRoad: merge the two endpoints into
// one intersection, carrying the collapsed road's trim geometry forward in
// TrimRoadsForMerging for the later intersection-polygon pass, and
// re-pointing every other road that used the merged-away endpoint.
func CollapseShortRoads(sn *network.StreetNetwork) error {
	var candidates []ids.RoadID
	for rid, r := range sn.Roads {
		if !r.JunctionIntersection && !r.InternalJunctionRoad {
			continue
		}
		if r.Length() > shortRoadThreshold {
			continue
		}
		candidates = append(candidates, rid)
	}
	for _, rid := range candidates {
		if err := collapseShortRoad(sn, rid); err != nil {
			log.Printf("Warning: transform: collapse short road %s: %v", rid, err)
		}
	}
	return nil
}

func collapseShortRoad(sn *network.StreetNetwork, rid ids.RoadID) error {
	r, ok := sn.Roads[rid]
	if !ok {
		return nil
	}
	keep, doomed := r.SrcI, r.DstI
	if keep == doomed {
		return sn.RemoveRoad(rid) // already a self-loop, nothing to merge
	}
	keepI, ok := sn.Intersections[keep]
	if !ok {
		return nil
	}
	doomedI, ok := sn.Intersections[doomed]
	if !ok {
		return nil
	}

	for _, other := range append([]ids.RoadID(nil), doomedI.Roads...) {
		if other == rid {
			continue
		}
		o, ok := sn.Roads[other]
		if !ok {
			continue
		}
		var carryEnd orb.Point
		var isSrcEnd bool
		switch {
		case o.SrcI == doomed:
			carryEnd = o.CenterLine[0]
			o.SrcI = keep
			isSrcEnd = true
		case o.DstI == doomed:
			carryEnd = o.CenterLine[len(o.CenterLine)-1]
			o.DstI = keep
			isSrcEnd = false
		default:
			continue
		}
		keepI.Roads = append(keepI.Roads, other)
		keepI.TrimRoadsForMerging[network.TrimKey{Road: other, IsSrcEndpoint: isSrcEnd}] = carryEnd
	}
	doomedI.Roads = nil

	if err := sn.RemoveRoad(rid); err != nil {
		return err
	}
	if isect, ok := sn.Intersections[doomed]; ok && len(isect.Roads) == 0 {
		_ = sn.RemoveIntersection(doomed)
	}

	// A road that connected keep to doomed through some other path now
	// loops keep back to itself: drop it, it has no geometric meaning.
	var selfLoops []ids.RoadID
	for _, other := range keepI.Roads {
		if o, ok := sn.Roads[other]; ok && o.SrcI == o.DstI {
			selfLoops = append(selfLoops, other)
		}
	}
	for _, sl := range selfLoops {
		if err := sn.RemoveRoad(sl); err != nil {
			return err
		}
	}

	return sn.SortRoads(keep)
}

const degenerateRDPEpsilon = 1.0

// CollapseDegenerateIntersections handles the case where an
// intersection with exactly two incident roads that share lane specs, name,
// and layer (or are both cycleways) is not a real junction; fuse the two
// roads into one, RDP-simplifying the concatenated geometry.
func CollapseDegenerateIntersections(sn *network.StreetNetwork) error {
	var candidates []ids.IntersectionID
	for id, isect := range sn.Intersections {
		if isect.Kind == units.MapEdge || len(isect.Roads) != 2 {
			continue
		}
		a, aok := sn.Roads[isect.Roads[0]]
		b, bok := sn.Roads[isect.Roads[1]]
		if !aok || !bok {
			continue
		}
		if !fusable(a, b) {
			continue
		}
		candidates = append(candidates, id)
	}
	for _, id := range candidates {
		if err := fuseAtIntersection(sn, id); err != nil {
			log.Printf("Warning: transform: fuse at %s: %v", id, err)
		}
	}
	return nil
}

func fusable(a, b *network.Road) bool {
	if a.Layer != b.Layer {
		return false
	}
	if a.IsCycleway() && b.IsCycleway() {
		return true
	}
	if a.Name != b.Name || a.Name == "" {
		return false
	}
	return sameLaneSpecs(a.LaneSpecsLTR, b.LaneSpecsLTR)
}

func sameLaneSpecs(x, y []lanes.LaneSpec) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i].Type != y[i].Type || x[i].Direction != y[i].Direction {
			return false
		}
	}
	return true
}

func fuseAtIntersection(sn *network.StreetNetwork, id ids.IntersectionID) error {
	isect, ok := sn.Intersections[id]
	if !ok || len(isect.Roads) != 2 {
		return nil
	}
	a, ok := sn.Roads[isect.Roads[0]]
	if !ok {
		return nil
	}
	b, ok := sn.Roads[isect.Roads[1]]
	if !ok {
		return nil
	}

	newSrc := a.OtherEnd(id)
	newDst := b.OtherEnd(id)
	if newSrc == newDst {
		return nil // fusing would create a self-loop that wasn't already closed
	}

	aLine := a.CenterLine
	if a.DstI != id {
		aLine = geom.Reversed(aLine)
	}
	bLine := b.CenterLine
	if b.SrcI != id {
		bLine = geom.Reversed(bLine)
	}
	combined := append(append(orb.LineString{}, aLine...), bLine[1:]...)
	combined = geom.RDPSimplify(combined, degenerateRDPEpsilon)

	a.CenterLine = combined
	a.ReferenceLine = combined
	// The combined line runs newSrc -> newDst regardless of which way a was
	// digitized, so reassign both endpoints.
	a.SrcI = newSrc
	a.DstI = newDst
	a.OSMWayIDs = append(a.OSMWayIDs, b.OSMWayIDs...)
	a.OSMNodeIDs = append(a.OSMNodeIDs, b.OSMNodeIDs...)

	retargetRestrictions(sn, b.ID, a.ID)

	if dstIsect, ok := sn.Intersections[newDst]; ok {
		for i, rid := range dstIsect.Roads {
			if rid == b.ID {
				dstIsect.Roads[i] = a.ID
			}
		}
	}

	delete(sn.Roads, b.ID)
	isect.Roads = nil
	delete(sn.Intersections, id)

	if err := sn.SortRoads(newDst); err != nil {
		return err
	}
	return sn.SortRoads(newSrc)
}
