package network

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"

	"streets/ids"
	"streets/units"
)

// Movement is an ordered pair of roads at an intersection that traffic can
// legally traverse.
type Movement struct {
	From, To ids.RoadID
}

// TrimKey identifies one endpoint of one road, used as the key for an
// intersection's carry-over trim map.
type TrimKey struct {
	Road         ids.RoadID
	IsSrcEndpoint bool
}

// Intersection is a zero-dimensional junction promoted to a polygon.
type Intersection struct {
	ID ids.IntersectionID

	OSMNodeIDs []osm.NodeID

	// Point is the original OSM coordinate; Polygon starts as a
	// placeholder and is replaced once intersection polygon generation
	// (package intersection) runs.
	Point   orb.Point
	Polygon orb.Ring

	Kind    units.IntersectionKind
	Control units.IntersectionControl

	// Roads lists connected RoadIDs in clockwise order around the
	// intersection. This ordering is load-bearing: every pass that changes
	// incidence must call SortRoads then UpdateMovements.
	Roads []ids.RoadID

	Movements []Movement

	// TrimRoadsForMerging carries over trim points from previously
	// collapsed short roads, keyed by (RoadID, is_src_endpoint), consumed
	// by the "pretrimmed" intersection polygon variant.
	TrimRoadsForMerging map[TrimKey]orb.Point
}

// HasRoad reports whether id is among the intersection's incident roads.
func (i *Intersection) HasRoad(id ids.RoadID) bool {
	for _, r := range i.Roads {
		if r == id {
			return true
		}
	}
	return false
}

// IndexOfRoad returns the index of id within Roads, or -1.
func (i *Intersection) IndexOfRoad(id ids.RoadID) int {
	for idx, r := range i.Roads {
		if r == id {
			return idx
		}
	}
	return -1
}

// removeRoadFromList removes id from Roads in place, preserving order.
func (i *Intersection) removeRoadFromList(id ids.RoadID) {
	idx := i.IndexOfRoad(id)
	if idx < 0 {
		return
	}
	i.Roads = append(i.Roads[:idx], i.Roads[idx+1:]...)
}

// DetachRoad removes id from Roads without touching the road itself, for
// callers (package osmsplit's boundary clipping) that move a road's
// endpoint to a different intersection rather than deleting it.
func (i *Intersection) DetachRoad(id ids.RoadID) {
	i.removeRoadFromList(id)
}
