// Package network implements the StreetNetwork container: the
// road/intersection graph, its invariants, the clockwise incidence
// ordering, and movement/kind classification.
//
// Roads and intersections never hold a back-reference by pointer: they
// refer to each other only through ids.RoadID/ids.IntersectionID, resolved
// through the owning StreetNetwork's maps. The graph supports incremental
// add/remove because the transformation pipeline (package transform)
// rewrites it in place pass by pass.
package network

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"

	"streets/geom"
	"streets/ids"
	"streets/lanes"
	"streets/units"
)

// SimpleRestriction is a direct turn restriction naming another road, from
// OSM's no_*/only_* relations with a single via-node.
type SimpleRestriction struct {
	// Mandatory distinguishes "only_*" (the only legal move) from the
	// default ban semantics of "no_*"/"psv".
	Mandatory bool
	Other     ids.RoadID
}

// ComplicatedRestriction is a turn restriction that names an intermediate
// via-road, from an OSM relation with a way member as via.
type ComplicatedRestriction struct {
	Mandatory bool
	Via       ids.RoadID
	To        ids.RoadID
}

// Road is a directed segment of physical street between two intersections.
type Road struct {
	ID ids.RoadID

	// Provenance: preserved across merges by concatenation, never dropped.
	OSMWayIDs  []osm.WayID
	OSMNodeIDs []osm.NodeID // the two original endpoint node IDs, in order

	SrcI, DstI ids.IntersectionID

	HighwayType string
	Name        string
	Layer       int

	ReferenceLine          orb.LineString
	ReferenceLinePlacement lanes.Placement
	CenterLine             orb.LineString

	LaneSpecsLTR []lanes.LaneSpec

	TrimStart, TrimEnd float64

	SimpleRestrictions      []SimpleRestriction
	ComplicatedRestrictions []ComplicatedRestriction

	// InternalJunctionRoad marks a road that lives inside an intersection
	// polygon and should be collapsed by a later transformation pass.
	// Geometric operations that would otherwise return a degenerate result
	// mark the affected road this way instead of failing outright.
	InternalJunctionRoad bool

	// JunctionIntersection mirrors OSM's junction=intersection tag: a short
	// way digitized to represent a single negotiated junction rather than a
	// real road, which CollapseShortRoads (spec §4.7 pass 3) merges away.
	JunctionIntersection bool
}

// TotalWidth sums every lane's width.
func (r *Road) TotalWidth() float64 {
	var w float64
	for _, l := range r.LaneSpecsLTR {
		w += l.Width
	}
	return w
}

// IsDriveable reports whether the road carries at least one Driving, Bus,
// or LightRail lane — the set movements/kind classification (§4.5) and
// most transformation passes care about.
func (r *Road) IsDriveable() bool {
	for _, l := range r.LaneSpecsLTR {
		switch l.Type {
		case units.Driving, units.Bus, units.LightRail:
			return true
		}
	}
	return false
}

// IsCycleway reports whether the road is a dedicated cycleway/path (used by
// TrimDeadendCycleways and ZipSidepaths).
func (r *Road) IsCycleway() bool {
	switch r.HighwayType {
	case "cycleway", "path":
		return true
	}
	return false
}

// IsService reports whether the road is a service road.
func (r *Road) IsService() bool {
	return r.HighwayType == "service"
}

// IsLightRail reports whether the road carries any LightRail lane.
func (r *Road) IsLightRail() bool {
	for _, l := range r.LaneSpecsLTR {
		if l.Type == units.LightRail {
			return true
		}
	}
	return false
}

// OneWay reports whether the road has driving lanes in only one direction.
func (r *Road) OneWay() bool {
	fwd, bwd := r.drivingDirections()
	return fwd != bwd
}

func (r *Road) drivingDirections() (fwd, bwd bool) {
	for _, l := range r.LaneSpecsLTR {
		if l.Type != units.Driving && l.Type != units.Bus {
			continue
		}
		if l.Direction == units.Forward {
			fwd = true
		} else {
			bwd = true
		}
	}
	return fwd, bwd
}

// CanExitTowards reports whether traffic can leave the intersection along
// this road in the direction implied by startsHere (true if the
// intersection is the road's src, i.e. traffic departs via the forward
// direction).
func (r *Road) CanExitTowards(startsHere bool) bool {
	fwd, bwd := r.drivingDirections()
	if startsHere {
		return fwd
	}
	return bwd
}

// CanEnterFrom reports whether traffic can arrive at the intersection along
// this road, the mirror of CanExitTowards.
func (r *Road) CanEnterFrom(endsHere bool) bool {
	fwd, bwd := r.drivingDirections()
	if endsHere {
		return fwd
	}
	return bwd
}

// OtherEnd returns the intersection at the far end of the road from i.
func (r *Road) OtherEnd(i ids.IntersectionID) ids.IntersectionID {
	if r.SrcI == i {
		return r.DstI
	}
	return r.SrcI
}

// Length returns the center-line's total plane length (meters), falling
// back to the reference line if the center-line hasn't been computed yet.
func (r *Road) Length() float64 {
	if len(r.CenterLine) >= 2 {
		return geom.Length(r.CenterLine)
	}
	return geom.Length(r.ReferenceLine)
}
