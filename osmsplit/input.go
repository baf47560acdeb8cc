// Package osmsplit turns parsed OSM nodes/ways/relations into a
// network.StreetNetwork (spec §4.2 Splitting) and, when a boundary polygon
// is supplied, clips the result down to it (spec §4.3 Clipping).
//
// Grounded on the teacher's pkg/osm/parser.go two-pass shape (Pass 1:
// scan ways and collect referenced nodes; Pass 2: resolve coordinates) and
// its isCarAccessible/directionFlags tag-dispatch style, generalized from
// "build car-routing edges" into "build a typed street graph with
// intersections, lanes, and provenance."
package osmsplit

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"

	"streets/tags"
)

// RawNode is the minimal per-node data the splitter needs, matching spec
// §6's input contract ("for each node: coordinate, tag map").
type RawNode struct {
	ID    osm.NodeID
	Point orb.Point // lon, lat
	Tags  *tags.Bag
}

// RawWay is the minimal per-way data the splitter needs.
type RawWay struct {
	ID      osm.WayID
	NodeIDs []osm.NodeID
	Tags    *tags.Bag
}

// RestrictionKind classifies a turn restriction relation by its `restriction`
// tag value (spec §6: "no_* , psv -> ban; only_* -> mandatory allow").
type RestrictionKind uint8

const (
	RestrictionBan RestrictionKind = iota
	RestrictionMandatory
)

// RawRestriction is a turn-restriction relation. Exactly one of ViaNode or
// ViaWay is set: a simple restriction names a single via-node, a
// complicated restriction names a via-way (spec §4.2 steps 4-5).
type RawRestriction struct {
	ID   osm.RelationID
	Kind RestrictionKind

	From osm.WayID
	To   osm.WayID

	ViaNode osm.NodeID
	ViaWay  osm.WayID
}

// Input bundles everything the splitter consumes.
type Input struct {
	Nodes        map[osm.NodeID]RawNode
	Ways         []RawWay
	Restrictions []RawRestriction

	// BoundaryPolygon is optional (lon/lat); if nil, the bounding box of all
	// referenced nodes is used instead (spec §6).
	BoundaryPolygon orb.Ring
}
