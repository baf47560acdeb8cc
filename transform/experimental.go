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

// unionFind is a disjoint-set structure with path halving and union by
// size, used to find the network's largest weakly-connected component
// over ids.IntersectionID.
type unionFind struct {
	parent map[ids.IntersectionID]ids.IntersectionID
	size   map[ids.IntersectionID]int
}

func newUnionFind(nodes []ids.IntersectionID) *unionFind {
	uf := &unionFind{parent: make(map[ids.IntersectionID]ids.IntersectionID, len(nodes)), size: make(map[ids.IntersectionID]int, len(nodes))}
	for _, n := range nodes {
		uf.parent[n] = n
		uf.size[n] = 1
	}
	return uf
}

func (uf *unionFind) find(x ids.IntersectionID) ids.IntersectionID {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(x, y ids.IntersectionID) {
	rx, ry := uf.find(x), uf.find(y)
	if rx == ry {
		return
	}
	if uf.size[rx] < uf.size[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
}

// RemoveDisconnectedRoads flood-fills the non-rail subgraph (via
// union-find over intersections, unioning the two endpoints of every
// non-light-rail road), keep only the largest component, and
// delete everything else plus any remaining self-loop roads. Rail roads
// are left untouched regardless of which component they fall in, since
// they aren't part of the driveable connectivity question.
func RemoveDisconnectedRoads(sn *network.StreetNetwork) error {
	var nodes []ids.IntersectionID
	for id := range sn.Intersections {
		nodes = append(nodes, id)
	}
	uf := newUnionFind(nodes)

	for _, r := range sn.Roads {
		if r.IsLightRail() {
			continue
		}
		uf.union(r.SrcI, r.DstI)
	}

	counts := make(map[ids.IntersectionID]int)
	for _, id := range nodes {
		counts[uf.find(id)]++
	}
	var bestRoot ids.IntersectionID
	bestSize := -1
	for root, size := range counts {
		if size > bestSize {
			bestRoot, bestSize = root, size
		}
	}

	var toRemove []ids.RoadID
	for rid, r := range sn.Roads {
		if r.SrcI == r.DstI {
			toRemove = append(toRemove, rid)
			continue
		}
		if r.IsLightRail() {
			continue
		}
		if uf.find(r.SrcI) != bestRoot {
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
	log.Printf("transform: RemoveDisconnectedRoads: kept %d intersections' worth of component, removed %d roads", bestSize, len(toRemove))
	return nil
}

const (
	dualCarriagewayMaxSplitLen = 120.0 // meters; how far apart the split/join junctions may be
	sidepathMaxLinkLen         = 10.0  // meters; max footway link length ZipSidepaths will fold
)

// MergeDualCarriageways is a prototype-quality pass: detect a pair of
// one-way roads with matching names that both directly connect the same two
// intersections, each at most dualCarriagewayMaxSplitLen long, and fuse
// them into one two-way road with a central buffer via collapseSausagePair.
// These are the same directly-adjacent pairs CollapseSausageLinks handles,
// with the added length limit; carriageways that split and rejoin through
// intermediate intersections are not detected. A failed fuse is logged and
// left alone rather than retried.
func MergeDualCarriageways(sn *network.StreetNetwork) error {
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
		if a.Length() > dualCarriagewayMaxSplitLen || b.Length() > dualCarriagewayMaxSplitLen {
			continue
		}
		if degree(sn, key.a) <= 2 && degree(sn, key.b) <= 2 {
			continue
		}
		if err := collapseSausagePair(sn, a.ID, b.ID); err != nil {
			log.Printf("Warning: transform: dual carriageway merge %s/%s: %v", a.ID, b.ID, err)
		}
	}
	return nil
}

// ZipSidepaths handles every cycleway whose two endpoints each connect,
// through a short (<10m) link road, to a common driveable road: fold the
// cycleway's lanes (plus a Planters buffer) into that driveable road on
// the side closer to the cycleway's centroid, removing the cycleway (its
// two link roads are left in place). Experimental: this is a best-effort pass that logs
// and skips anything irregular rather than guaranteeing every parallel
// sidepath is zipped.
func ZipSidepaths(sn *network.StreetNetwork) error {
	var candidates []ids.RoadID
	for rid, r := range sn.Roads {
		if r.IsCycleway() {
			candidates = append(candidates, rid)
		}
	}
	for _, rid := range candidates {
		cyc, ok := sn.Roads[rid]
		if !ok {
			continue
		}
		parentID, ok := findZippableParent(sn, cyc)
		if !ok {
			continue
		}
		if err := zipSidepathInto(sn, cyc, parentID); err != nil {
			log.Printf("Warning: transform: zip sidepath %s into %s: %v", rid, parentID, err)
		}
	}
	return nil
}

// findZippableParent looks for a single driveable road that both of cyc's
// endpoints are within one short link road of, returning its ID.
func findZippableParent(sn *network.StreetNetwork, cyc *network.Road) (ids.RoadID, bool) {
	srcParent, ok1 := shortLinkNeighborDriveable(sn, cyc.SrcI, cyc.ID)
	dstParent, ok2 := shortLinkNeighborDriveable(sn, cyc.DstI, cyc.ID)
	if !ok1 || !ok2 || srcParent != dstParent {
		return 0, false
	}
	return srcParent, true
}

func shortLinkNeighborDriveable(sn *network.StreetNetwork, id ids.IntersectionID, exclude ids.RoadID) (ids.RoadID, bool) {
	isect, ok := sn.Intersections[id]
	if !ok {
		return 0, false
	}
	for _, rid := range isect.Roads {
		if rid == exclude {
			continue
		}
		link, ok := sn.Roads[rid]
		if !ok || link.IsDriveable() || link.Length() >= sidepathMaxLinkLen {
			continue
		}
		other := link.OtherEnd(id)
		otherIsect, ok := sn.Intersections[other]
		if !ok {
			continue
		}
		for _, rid2 := range otherIsect.Roads {
			if rid2 == rid {
				continue
			}
			if r, ok := sn.Roads[rid2]; ok && r.IsDriveable() {
				return rid2, true
			}
		}
	}
	return 0, false
}

// zipSidepathInto folds cyc's lanes into parent on the side nearer to cyc's
// centroid, inserting a Planters buffer between the folded-in lanes and
// parent's existing cross-section, then removes cyc (the two short link
// roads are left for a later CollapseShortRoads/TrimDeadendCycleways pass
// to clean up, matching how CollapseSausageLinks leaves retargeting of
// restrictions to its own helper rather than doing a second traversal here).
func zipSidepathInto(sn *network.StreetNetwork, cyc *network.Road, parentID ids.RoadID) error {
	parent, ok := sn.Roads[parentID]
	if !ok {
		return nil
	}
	cycCentroid := geom.Centroid([]orb.Point(cyc.CenterLine))
	left := geom.Shift(parent.CenterLine, -parent.TotalWidth()/2)
	leftDist := geom.Distance(cycCentroid, geom.Centroid([]orb.Point(left)))
	right := geom.Shift(parent.CenterLine, parent.TotalWidth()/2)
	rightDist := geom.Distance(cycCentroid, geom.Centroid([]orb.Point(right)))
	onLeft := leftDist < rightDist

	cycLanes := append([]lanes.LaneSpec(nil), cyc.LaneSpecsLTR...)
	buf := lanes.LaneSpec{Type: units.Buffer, Buffer: units.Planters, Width: lanes.BufferWidth(units.Planters)}

	if onLeft {
		parent.LaneSpecsLTR = append(append(append([]lanes.LaneSpec{}, cycLanes...), buf), parent.LaneSpecsLTR...)
	} else {
		parent.LaneSpecsLTR = append(append(append([]lanes.LaneSpec{}, parent.LaneSpecsLTR...), buf), cycLanes...)
	}
	parent.OSMWayIDs = append(parent.OSMWayIDs, cyc.OSMWayIDs...)

	return sn.RemoveRoad(cyc.ID)
}
