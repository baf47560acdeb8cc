package network

import (
	"errors"
	"fmt"
	"sort"

	"github.com/paulmach/orb"

	"streets/config"
	"streets/geom"
	"streets/ids"
	"streets/units"
)

// ErrNoRoadsInBounds is returned when clipping or filtering leaves a
// network with no roads at all. This is treated as an input-fatal error.
var ErrNoRoadsInBounds = errors.New("network: no roads remain")

// StreetNetwork is the graph container: road/intersection maps, the
// boundary polygon, projection bounds, and configuration. It owns both ID
// counters; roads and intersections never hold pointers to each other,
// only the opaque IDs this type resolves through its maps, so the graph
// can be cyclic without creating ownership cycles.
type StreetNetwork struct {
	Roads         map[ids.RoadID]*Road
	Intersections map[ids.IntersectionID]*Intersection

	BoundaryPolygon orb.Ring
	GPSBounds       orb.Bound
	Config          config.Config

	counters ids.Counters
}

// New creates an empty StreetNetwork.
func New(cfg config.Config) *StreetNetwork {
	return &StreetNetwork{
		Roads:         make(map[ids.RoadID]*Road),
		Intersections: make(map[ids.IntersectionID]*Intersection),
		Config:        cfg,
	}
}

// NewRoadID mints a fresh RoadID.
func (sn *StreetNetwork) NewRoadID() ids.RoadID {
	return sn.counters.NextRoad()
}

// NewIntersectionID mints a fresh IntersectionID.
func (sn *StreetNetwork) NewIntersectionID() ids.IntersectionID {
	return sn.counters.NextIntersection()
}

// AddRoad inserts r and registers it on both endpoint intersections' Roads
// lists, then re-sorts and re-classifies each.
func (sn *StreetNetwork) AddRoad(r *Road) error {
	if _, ok := sn.Intersections[r.SrcI]; !ok {
		return fmt.Errorf("network: AddRoad %s: src intersection %s does not exist", r.ID, r.SrcI)
	}
	if _, ok := sn.Intersections[r.DstI]; !ok {
		return fmt.Errorf("network: AddRoad %s: dst intersection %s does not exist", r.ID, r.DstI)
	}
	sn.Roads[r.ID] = r
	sn.Intersections[r.SrcI].Roads = append(sn.Intersections[r.SrcI].Roads, r.ID)
	if r.DstI != r.SrcI {
		sn.Intersections[r.DstI].Roads = append(sn.Intersections[r.DstI].Roads, r.ID)
	}
	if err := sn.SortRoads(r.SrcI); err != nil {
		return err
	}
	if err := sn.SortRoads(r.DstI); err != nil {
		return err
	}
	return nil
}

// AddIntersection inserts i.
func (sn *StreetNetwork) AddIntersection(i *Intersection) {
	if i.TrimRoadsForMerging == nil {
		i.TrimRoadsForMerging = make(map[TrimKey]orb.Point)
	}
	sn.Intersections[i.ID] = i
}

// RemoveRoad deletes r, detaches it from both endpoint intersections, and
// removes any endpoint intersection left with zero roads.
func (sn *StreetNetwork) RemoveRoad(id ids.RoadID) error {
	r, ok := sn.Roads[id]
	if !ok {
		return fmt.Errorf("network: RemoveRoad: %s does not exist", id)
	}
	delete(sn.Roads, id)

	ends := []ids.IntersectionID{r.SrcI}
	if r.DstI != r.SrcI {
		ends = append(ends, r.DstI)
	}
	for _, end := range ends {
		isect, ok := sn.Intersections[end]
		if !ok {
			continue
		}
		isect.removeRoadFromList(id)
		if len(isect.Roads) == 0 {
			delete(sn.Intersections, end)
			continue
		}
		if err := sn.SortRoads(end); err != nil {
			return err
		}
	}
	return nil
}

// RemoveIntersection deletes i. It is only valid to call this once i has no
// incident roads; RemoveRoad does this automatically.
func (sn *StreetNetwork) RemoveIntersection(id ids.IntersectionID) error {
	i, ok := sn.Intersections[id]
	if !ok {
		return fmt.Errorf("network: RemoveIntersection: %s does not exist", id)
	}
	if len(i.Roads) != 0 {
		return fmt.Errorf("network: RemoveIntersection: %s still has %d incident roads", id, len(i.Roads))
	}
	delete(sn.Intersections, id)
	return nil
}

// SortRoads re-sorts intersection i's Roads list into clockwise order
// around its current Point. The naive "sort by nearest polyline point" is
// wrong when roads bend, so instead each road's reference line is oriented
// toward the intersection, the shortest incident road's length is found,
// every road is sampled at (length - shortest) from its start to get a
// robust "sorting point," the true center is taken as the centroid of the
// roads' near endpoints, and roads are sorted by descending angle from
// sorting point to true center, which is clockwise in the Y-up local plane.
func (sn *StreetNetwork) SortRoads(id ids.IntersectionID) error {
	isect, ok := sn.Intersections[id]
	if !ok {
		return fmt.Errorf("network: SortRoads: %s does not exist", id)
	}
	if len(isect.Roads) <= 1 {
		return sn.UpdateMovements(id)
	}

	type oriented struct {
		road ids.RoadID
		line orb.LineString
	}
	var orientedLines []oriented
	var nearEndpoints []orb.Point
	shortest := -1.0

	for _, rid := range isect.Roads {
		r, ok := sn.Roads[rid]
		if !ok {
			return fmt.Errorf("network: SortRoads: %s references missing road %s", id, rid)
		}
		line := r.ReferenceLine
		if len(line) < 2 {
			line = r.CenterLine
		}
		if len(line) < 2 {
			continue
		}
		// Orient a copy so the line points toward the intersection.
		if r.SrcI == id {
			line = geom.Reversed(line)
		}
		orientedLines = append(orientedLines, oriented{road: rid, line: line})
		nearEndpoints = append(nearEndpoints, line[len(line)-1])

		l := geom.Length(line)
		if shortest < 0 || l < shortest {
			shortest = l
		}
	}
	if len(orientedLines) == 0 {
		return sn.UpdateMovements(id)
	}

	trueCenter := geom.Centroid(nearEndpoints)

	type scored struct {
		road  ids.RoadID
		angle float64
	}
	scoredRoads := make([]scored, 0, len(orientedLines))
	for _, ol := range orientedLines {
		total := geom.Length(ol.line)
		distFromStart := total - shortest
		if distFromStart < 0 {
			distFromStart = 0
		}
		sortingPoint, _ := geom.PointAlong(ol.line, distFromStart)
		angle := geom.BearingDegrees(sortingPoint, trueCenter)
		scoredRoads = append(scoredRoads, scored{road: ol.road, angle: angle})
	}
	sort.Slice(scoredRoads, func(i, j int) bool { return scoredRoads[i].angle > scoredRoads[j].angle })

	newOrder := make([]ids.RoadID, len(scoredRoads))
	for i, s := range scoredRoads {
		newOrder[i] = s.road
	}
	isect.Roads = newOrder

	return sn.UpdateMovements(id)
}

// UpdateMovements recomputes intersection i's Kind and Movements from its
// (already clockwise-sorted) Roads list.
func (sn *StreetNetwork) UpdateMovements(id ids.IntersectionID) error {
	isect, ok := sn.Intersections[id]
	if !ok {
		return fmt.Errorf("network: UpdateMovements: %s does not exist", id)
	}
	if isect.Kind == units.MapEdge {
		isect.Movements = nil
		return nil
	}

	type driveable struct {
		road  ids.RoadID
		index int // index into isect.Roads, used for cyclic-order conflict tests
	}
	var dr []driveable
	for idx, rid := range isect.Roads {
		r, ok := sn.Roads[rid]
		if !ok {
			continue
		}
		if !r.IsDriveable() {
			continue
		}
		dr = append(dr, driveable{road: rid, index: idx})
	}

	if len(dr) <= 1 {
		isect.Kind = units.Terminus
		isect.Movements = nil
		return nil
	}

	var movements []Movement
	type scoredMovement struct {
		from, to   int // positions within dr
		fromIdx    int
		toIdx      int
	}
	var included []scoredMovement

	canExit := func(rid ids.RoadID, startsHere bool) bool {
		r := sn.Roads[rid]
		return r.CanExitTowards(startsHere)
	}
	canEnter := func(rid ids.RoadID, endsHere bool) bool {
		r := sn.Roads[rid]
		return r.CanEnterFrom(endsHere)
	}
	isRestricted := func(from, to ids.RoadID) bool {
		r := sn.Roads[from]
		for _, sr := range r.SimpleRestrictions {
			if !sr.Mandatory && sr.Other == to {
				return true
			}
		}
		for _, sr := range r.SimpleRestrictions {
			if sr.Mandatory && sr.Other != to {
				return true
			}
		}
		return false
	}

	n := len(isect.Roads)
	curbsideTurnOnRed := func(fromIdx, toIdx int) bool {
		if sn.Config.DrivingSide == units.Right {
			return ((fromIdx-toIdx)%n+n)%n == 1
		}
		return ((toIdx-fromIdx)%n+n)%n == 1
	}

	for si, s := range dr {
		sRoad := sn.Roads[s.road]
		endsHere := sRoad.DstI == id
		if !canEnter(s.road, endsHere) {
			continue
		}
		for di, d := range dr {
			if si == di {
				continue
			}
			dRoad := sn.Roads[d.road]
			startsHere := dRoad.SrcI == id
			if !canExit(d.road, startsHere) {
				continue
			}
			if isRestricted(s.road, d.road) {
				continue
			}
			// Without a dedicated green turn arrow, the curbside turn
			// (right on red for right-hand traffic, left on red for
			// left-hand) is only legal when TurnOnRed allows it (spec §6).
			if isect.Control == units.Signalled && !sn.Config.TurnOnRed && curbsideTurnOnRed(s.index, d.index) {
				continue
			}
			movements = append(movements, Movement{From: s.road, To: d.road})
			included = append(included, scoredMovement{from: si, to: di, fromIdx: s.index, toIdx: d.index})
		}
	}
	isect.Movements = movements
	worst := units.Uncontested
	sawAny := len(movements) > 0
	for a := 0; a < len(included); a++ {
		for b := a + 1; b < len(included); b++ {
			lvl := conflictLevel(included[a], included[b], n, sn.Config.DrivingSide)
			if lvl > worst {
				worst = lvl
			}
		}
	}

	isect.Kind = units.KindForWorstConflict(worst, sawAny)
	return nil
}

// conflictLevel classifies how two movements sharing an intersection
// interact: same origin and destination is uncontested, a shared origin is
// a diverge, a shared destination is a merge, and otherwise their arcs are
// checked for crossing.
func conflictLevel(a, b struct{ from, to, fromIdx, toIdx int }, n int, side units.DrivingSide) units.ConflictLevel {
	if a.fromIdx == b.fromIdx && a.toIdx == b.toIdx {
		return units.Uncontested
	}
	if a.fromIdx == b.fromIdx {
		return units.Diverge
	}
	if a.toIdx == b.toIdx {
		return units.Merge
	}
	if a.fromIdx == b.toIdx && a.toIdx == b.fromIdx {
		// A reverse-direction join: the same two roads, traveled in
		// opposite directions. The endpoint-betweenness test below always
		// reads this as non-crossing (it's the same chord walked both
		// ways), but which side of that chord each direction keeps to
		// depends on driving side, so whether the paths actually cross
		// inverts with it (spec §4.5 step 4).
		if side == units.Right {
			return units.Cross
		}
		return units.Uncontested
	}
	if arcsCross(a.fromIdx, a.toIdx, b.fromIdx, b.toIdx, n) {
		return units.Cross
	}
	return units.Uncontested
}

// arcsCross treats the clockwise Roads ordering as points on a circle and
// asks whether the arc (aFrom, aTo) and the arc (bFrom, bTo) cross: exactly
// one endpoint of one arc lies strictly between the endpoints of the other.
func arcsCross(aFrom, aTo, bFrom, bTo, n int) bool {
	between := func(x, lo, hi int) bool {
		// Strictly between lo and hi walking clockwise (mod n).
		d := ((hi - lo) % n + n) % n
		dx := ((x - lo) % n + n) % n
		return dx > 0 && dx < d
	}
	bFromBetween := between(bFrom, aFrom, aTo)
	bToBetween := between(bTo, aFrom, aTo)
	return bFromBetween != bToBetween
}

// CheckInvariants validates the structural invariants of the graph after a
// transformation pass. Violations are programming errors, not recoverable
// conditions, so the caller should treat a non-empty result as fatal.
func (sn *StreetNetwork) CheckInvariants() []error {
	var errs []error

	for rid, r := range sn.Roads {
		src, ok := sn.Intersections[r.SrcI]
		if !ok {
			errs = append(errs, fmt.Errorf("road %s: src intersection %s missing", rid, r.SrcI))
		} else if count(src.Roads, rid) != 1 {
			errs = append(errs, fmt.Errorf("road %s: src intersection %s roads list has count %d, want 1", rid, r.SrcI, count(src.Roads, rid)))
		}
		dst, ok := sn.Intersections[r.DstI]
		if !ok {
			errs = append(errs, fmt.Errorf("road %s: dst intersection %s missing", rid, r.DstI))
		} else if count(dst.Roads, rid) != 1 {
			errs = append(errs, fmt.Errorf("road %s: dst intersection %s roads list has count %d, want 1", rid, r.DstI, count(dst.Roads, rid)))
		}
	}

	for iid, isect := range sn.Intersections {
		for _, rid := range isect.Roads {
			if _, ok := sn.Roads[rid]; !ok {
				errs = append(errs, fmt.Errorf("intersection %s: references missing road %s", iid, rid))
			}
		}
		switch isect.Kind {
		case units.MapEdge:
			if len(isect.Roads) != 1 {
				errs = append(errs, fmt.Errorf("intersection %s: MapEdge must have exactly 1 road, has %d", iid, len(isect.Roads)))
			}
		case units.Terminus:
			driveable := 0
			for _, rid := range isect.Roads {
				if r, ok := sn.Roads[rid]; ok && r.IsDriveable() {
					driveable++
				}
			}
			if driveable != 1 {
				errs = append(errs, fmt.Errorf("intersection %s: Terminus must have exactly 1 driveable road, has %d", iid, driveable))
			}
		}
		for _, m := range isect.Movements {
			if !isect.HasRoad(m.From) || !isect.HasRoad(m.To) {
				errs = append(errs, fmt.Errorf("intersection %s: movement %v refers to a non-incident road", iid, m))
			}
		}
	}

	return errs
}

func count(list []ids.RoadID, id ids.RoadID) int {
	n := 0
	for _, x := range list {
		if x == id {
			n++
		}
	}
	return n
}
