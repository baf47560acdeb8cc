// Package ids defines the opaque, dense integer ID space for roads and
// intersections. IDs are assigned from monotonically increasing counters
// owned by the containing StreetNetwork, the same "compact index, separate
// provenance map" shape the teacher's graph builder uses for OSM node IDs
// (see graph.Build's nodeSet/nodeIDs pair in the reference CSR builder) —
// here generalized to a mutable, growable ID space instead of a one-shot
// compaction pass.
package ids

import "fmt"

// RoadID identifies a Road within a StreetNetwork. It carries no meaning
// outside that network; never compare IDs minted by two different networks.
type RoadID int64

func (id RoadID) String() string {
	return fmt.Sprintf("road#%d", int64(id))
}

// IntersectionID identifies an Intersection within a StreetNetwork.
type IntersectionID int64

func (id IntersectionID) String() string {
	return fmt.Sprintf("intersection#%d", int64(id))
}

// Counters hands out fresh RoadIDs and IntersectionIDs. A StreetNetwork
// embeds one; it is not safe for concurrent use (see spec §5: the core is
// single-threaded and synchronous).
type Counters struct {
	nextRoad         int64
	nextIntersection int64
}

// NextRoad returns a fresh, never-before-issued RoadID.
func (c *Counters) NextRoad() RoadID {
	id := RoadID(c.nextRoad)
	c.nextRoad++
	return id
}

// NextIntersection returns a fresh, never-before-issued IntersectionID.
func (c *Counters) NextIntersection() IntersectionID {
	id := IntersectionID(c.nextIntersection)
	c.nextIntersection++
	return id
}
