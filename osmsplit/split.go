package osmsplit

import (
	"fmt"
	"log"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"

	"streets/config"
	"streets/geom"
	"streets/ids"
	"streets/lanes"
	"streets/network"
	"streets/units"
)

// Result is the output of Split: the populated network plus the
// interior-point provenance map spec §4.2 calls out ("used later to attach
// crossings and barriers").
type Result struct {
	Network     *network.StreetNetwork
	PointToRoad map[osm.NodeID]ids.RoadID
}

// splitEpsilonMeters is the Ramer-Douglas-Peucker tolerance applied to every
// road sub-polyline during splitting (spec §4.2 step 3).
const splitEpsilonMeters = 0.5

// Split turns raw OSM ways/nodes/restrictions into a StreetNetwork (spec
// §4.2). It never fails outright on a malformed individual way or
// restriction — those are per-entity recoverable conditions (spec §7): the
// way/restriction is skipped with a logged warning. It returns an error only
// when the input as a whole cannot produce a usable network.
func Split(input Input, cfg config.Config) (*Result, error) {
	if len(input.Ways) == 0 {
		return nil, fmt.Errorf("osmsplit: %w", network.ErrNoRoadsInBounds)
	}

	bound := boundsOf(input)
	projector := geom.NewProjector(bound)

	incidence, endpoint := countIncidences(input.Ways)

	sn := network.New(cfg)
	sn.GPSBounds = bound
	sn.BoundaryPolygon = input.BoundaryPolygon

	nodeToIsect := make(map[osm.NodeID]ids.IntersectionID)
	for nodeID := range unionKeys(incidence, endpoint) {
		if incidence[nodeID] < 2 && !endpoint[nodeID] {
			continue
		}
		isect := newIntersection(sn, input, nodeID, projector)
		sn.AddIntersection(isect)
		nodeToIsect[nodeID] = isect.ID
	}

	wayRoads := make(map[osm.WayID][]ids.RoadID)
	pointToRoad := make(map[osm.NodeID]ids.RoadID)

	for _, w := range input.Ways {
		roadIDs, err := splitWay(sn, input, w, nodeToIsect, incidence, endpoint, projector, pointToRoad, cfg)
		if err != nil {
			log.Printf("Warning: osmsplit: way %d: %v", w.ID, err)
			continue
		}
		wayRoads[w.ID] = roadIDs
	}

	for _, rr := range input.Restrictions {
		if rr.ViaWay != 0 {
			resolveComplicated(sn, wayRoads, rr)
		} else {
			resolveSimple(sn, nodeToIsect, wayRoads, rr)
		}
	}

	for id := range sn.Intersections {
		if err := sn.SortRoads(id); err != nil {
			log.Printf("Warning: osmsplit: sorting intersection %s: %v", id, err)
		}
	}

	if len(sn.Roads) == 0 {
		return nil, fmt.Errorf("osmsplit: %w", network.ErrNoRoadsInBounds)
	}

	log.Printf("osmsplit: built %d roads, %d intersections from %d ways", len(sn.Roads), len(sn.Intersections), len(input.Ways))

	return &Result{Network: sn, PointToRoad: pointToRoad}, nil
}

func boundsOf(input Input) orb.Bound {
	b := orb.Bound{Min: orb.Point{180, 90}, Max: orb.Point{-180, -90}}
	seen := false
	for _, w := range input.Ways {
		for _, n := range w.NodeIDs {
			if rn, ok := input.Nodes[n]; ok {
				b = b.Extend(rn.Point)
				seen = true
			}
		}
	}
	for _, p := range input.BoundaryPolygon {
		b = b.Extend(p)
		seen = true
	}
	if !seen {
		return orb.Bound{}
	}
	return b
}

func countIncidences(ways []RawWay) (incidence map[osm.NodeID]int, endpoint map[osm.NodeID]bool) {
	incidence = make(map[osm.NodeID]int)
	endpoint = make(map[osm.NodeID]bool)
	for _, w := range ways {
		if len(w.NodeIDs) == 0 {
			continue
		}
		for _, n := range w.NodeIDs {
			incidence[n]++
		}
		endpoint[w.NodeIDs[0]] = true
		endpoint[w.NodeIDs[len(w.NodeIDs)-1]] = true
	}
	return incidence, endpoint
}

func unionKeys(a map[osm.NodeID]int, b map[osm.NodeID]bool) map[osm.NodeID]struct{} {
	out := make(map[osm.NodeID]struct{}, len(a))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

// newIntersection builds an Intersection for nodeID, classified as MapEdge
// when it falls outside the boundary polygon (spec §4.2 step 2) and
// Signalled when the raw node carries a traffic-signal tag.
func newIntersection(sn *network.StreetNetwork, input Input, nodeID osm.NodeID, projector geom.Projector) *network.Intersection {
	isect := &network.Intersection{
		ID:         sn.NewIntersectionID(),
		OSMNodeIDs: []osm.NodeID{nodeID},
	}

	rn, ok := input.Nodes[nodeID]
	if !ok {
		isect.Kind = units.MapEdge
		return isect
	}
	isect.Point = projector.ToPlane(rn.Point)

	if len(input.BoundaryPolygon) > 0 && !geom.PointInRing(input.BoundaryPolygon, rn.Point) {
		isect.Kind = units.MapEdge
		return isect
	}

	switch {
	case rn.Tags.Is("highway", "traffic_signals"):
		isect.Control = units.Signalled
	case rn.Tags.IsAny("highway", "stop", "give_way"):
		isect.Control = units.Signed
	}
	return isect
}

// splitWay walks w's node list, emitting one Road per sub-segment between
// consecutive intersection nodes (spec §4.2 step 3).
func splitWay(sn *network.StreetNetwork, input Input, w RawWay, nodeToIsect map[osm.NodeID]ids.IntersectionID,
	incidence map[osm.NodeID]int, endpoint map[osm.NodeID]bool, projector geom.Projector,
	pointToRoad map[osm.NodeID]ids.RoadID, cfg config.Config) ([]ids.RoadID, error) {

	if len(w.NodeIDs) < 2 {
		return nil, fmt.Errorf("way has fewer than 2 nodes")
	}

	isIntersectionNode := func(n osm.NodeID) bool {
		return incidence[n] >= 2 || endpoint[n]
	}

	highway := w.Tags.Get("highway")
	if highway == "" && w.Tags.Has("railway") && !cfg.IncludeRailroads {
		return nil, fmt.Errorf("railway way excluded (IncludeRailroads=false)")
	}
	name := w.Tags.Get("name")
	layer := parseLayer(w.Tags.Get("layer"))
	placement := lanes.ResolvePlacement(w.Tags.Get("placement"))
	specs := lanes.Infer(w.Tags, cfg, highway)

	var roadIDs []ids.RoadID
	cutStart := 0
	for i := 1; i < len(w.NodeIDs); i++ {
		if i != len(w.NodeIDs)-1 && !isIntersectionNode(w.NodeIDs[i]) {
			continue
		}

		segNodeIDs := w.NodeIDs[cutStart : i+1]
		srcNode, dstNode := segNodeIDs[0], segNodeIDs[len(segNodeIDs)-1]
		srcI, ok1 := nodeToIsect[srcNode]
		dstI, ok2 := nodeToIsect[dstNode]
		if !ok1 || !ok2 {
			log.Printf("Warning: osmsplit: way %d segment starting at node %d: missing intersection", w.ID, srcNode)
			cutStart = i
			continue
		}

		var lineLonLat orb.LineString
		for _, n := range segNodeIDs {
			rn, ok := input.Nodes[n]
			if !ok {
				continue
			}
			lineLonLat = append(lineLonLat, rn.Point)
		}
		plane := projector.LineToPlane(lineLonLat)
		simplified := geom.RDPSimplify(plane, splitEpsilonMeters)
		if countDistinct(simplified) < 2 {
			log.Printf("Warning: osmsplit: way %d segment %d-%d collapsed below 2 distinct points after simplification, skipping", w.ID, srcNode, dstNode)
			cutStart = i
			continue
		}

		road := &network.Road{
			ID:                     sn.NewRoadID(),
			OSMWayIDs:              []osm.WayID{w.ID},
			OSMNodeIDs:             []osm.NodeID{srcNode, dstNode},
			SrcI:                   srcI,
			DstI:                   dstI,
			HighwayType:            highway,
			Name:                   name,
			Layer:                  layer,
			ReferenceLine:          simplified,
			ReferenceLinePlacement: placement,
			CenterLine:             append(orb.LineString(nil), simplified...),
			LaneSpecsLTR:           specs,
			JunctionIntersection:   w.Tags.Is("junction", "intersection"),
		}
		if err := sn.AddRoad(road); err != nil {
			log.Printf("Warning: osmsplit: way %d segment %d-%d: %v", w.ID, srcNode, dstNode, err)
			cutStart = i
			continue
		}
		roadIDs = append(roadIDs, road.ID)

		for _, n := range segNodeIDs[1 : len(segNodeIDs)-1] {
			pointToRoad[n] = road.ID
			upgradeSignalIfTagged(sn, input, projector, n, srcI, dstI, road)
		}

		cutStart = i
	}

	return roadIDs, nil
}

// upgradeSignalIfTagged implements spec §4.2 step 6: a traffic-signal node
// that lies inside a road (not itself an intersection) upgrades the nearer
// endpoint's control, unless the road is under construction.
func upgradeSignalIfTagged(sn *network.StreetNetwork, input Input, projector geom.Projector, n osm.NodeID, srcI, dstI ids.IntersectionID, road *network.Road) {
	rn, ok := input.Nodes[n]
	if !ok || !rn.Tags.Is("highway", "traffic_signals") {
		return
	}
	if road.HighwayType == "construction" {
		return
	}
	// Nearest endpoint by the signal node's position along the reference line.
	_, distFromSrc := geom.ProjectOntoLine(road.ReferenceLine, projector.ToPlane(rn.Point))
	total := geom.Length(road.ReferenceLine)
	target := srcI
	if distFromSrc > total/2 {
		target = dstI
	}
	if isect, ok := sn.Intersections[target]; ok && isect.Control != units.Signalled {
		isect.Control = units.Signalled
	}
}

func countDistinct(ls orb.LineString) int {
	seen := make(map[orb.Point]bool, len(ls))
	for _, p := range ls {
		seen[p] = true
	}
	return len(seen)
}

func parseLayer(v string) int {
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: osmsplit: invalid layer value %q, defaulting to 0", v)
		return 0
	}
	return n
}

// findRoadAtIntersection returns the first road among roadIDs incident to
// isect, used to resolve which specific split segment of a from/to way a
// turn restriction actually refers to.
func findRoadAtIntersection(sn *network.StreetNetwork, roadIDs []ids.RoadID, isect ids.IntersectionID) (ids.RoadID, bool) {
	for _, rid := range roadIDs {
		r, ok := sn.Roads[rid]
		if !ok {
			continue
		}
		if r.SrcI == isect || r.DstI == isect {
			return rid, true
		}
	}
	return 0, false
}

// resolveSimple attaches a simple turn restriction (spec §4.2 step 4) to its
// from-road.
func resolveSimple(sn *network.StreetNetwork, nodeToIsect map[osm.NodeID]ids.IntersectionID, wayRoads map[osm.WayID][]ids.RoadID, rr RawRestriction) {
	isectID, ok := nodeToIsect[rr.ViaNode]
	if !ok {
		log.Printf("Warning: osmsplit: turn restriction %d: via node %d is not an intersection", rr.ID, rr.ViaNode)
		return
	}
	fromID, ok1 := findRoadAtIntersection(sn, wayRoads[rr.From], isectID)
	toID, ok2 := findRoadAtIntersection(sn, wayRoads[rr.To], isectID)
	if !ok1 || !ok2 {
		log.Printf("Warning: osmsplit: turn restriction %d: from/to way not incident at via node %d", rr.ID, rr.ViaNode)
		return
	}
	from := sn.Roads[fromID]
	from.SimpleRestrictions = append(from.SimpleRestrictions, network.SimpleRestriction{
		Mandatory: rr.Kind == RestrictionMandatory,
		Other:     toID,
	})
}

// resolveComplicated attaches a complicated (via-way) turn restriction (spec
// §4.2 step 5). Per spec §9's open questions, a via-way not immediately
// incident to both the from- and to-ways is left unresolved, matching the
// documented abstreet limitation.
func resolveComplicated(sn *network.StreetNetwork, wayRoads map[osm.WayID][]ids.RoadID, rr RawRestriction) {
	viaRoads := wayRoads[rr.ViaWay]
	if len(viaRoads) == 0 {
		log.Printf("Warning: osmsplit: turn restriction %d: via way %d produced no roads", rr.ID, rr.ViaWay)
		return
	}
	via := sn.Roads[viaRoads[0]]

	fromID, ok1 := findRoadAtIntersection(sn, wayRoads[rr.From], via.SrcI)
	toID, ok2 := findRoadAtIntersection(sn, wayRoads[rr.To], via.DstI)
	if !ok1 || !ok2 {
		fromID, ok1 = findRoadAtIntersection(sn, wayRoads[rr.From], via.DstI)
		toID, ok2 = findRoadAtIntersection(sn, wayRoads[rr.To], via.SrcI)
	}
	if !ok1 || !ok2 {
		log.Printf("Warning: osmsplit: turn restriction %d: via way %d not incident to both from and to ways", rr.ID, rr.ViaWay)
		return
	}

	from := sn.Roads[fromID]
	from.ComplicatedRestrictions = append(from.ComplicatedRestrictions, network.ComplicatedRestriction{
		Mandatory: rr.Kind == RestrictionMandatory,
		Via:       via.ID,
		To:        toID,
	})
}
