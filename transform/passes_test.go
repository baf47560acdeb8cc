package transform

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"

	"streets/config"
	"streets/ids"
	"streets/lanes"
	"streets/network"
	"streets/units"
)

func onewayRoad(id ids.RoadID, src, dst ids.IntersectionID, line orb.LineString, name string) *network.Road {
	return &network.Road{
		ID:            id,
		SrcI:          src,
		DstI:          dst,
		HighwayType:   "primary",
		Name:          name,
		ReferenceLine: line,
		CenterLine:    line,
		LaneSpecsLTR: []lanes.LaneSpec{
			{Type: units.Driving, Direction: units.Forward, Width: 3},
			{Type: units.Driving, Direction: units.Forward, Width: 3},
		},
	}
}

func TestTrimDeadendCyclewaysRemovesShortCulDeSac(t *testing.T) {
	sn := network.New(config.Default())

	a := addIntersectionAt(sn, orb.Point{0, 0})
	b := addIntersectionAt(sn, orb.Point{0, 50})
	if err := sn.AddRoad(drivingRoad(sn.NewRoadID(), a, b, orb.LineString{{0, 0}, {0, 50}})); err != nil {
		t.Fatalf("AddRoad: %v", err)
	}

	deadEnd := addIntersectionAt(sn, orb.Point{20, 50})
	sn.Intersections[deadEnd].Kind = units.Terminus
	shortCyc := sn.NewRoadID()
	if err := sn.AddRoad(cyclewayRoad(shortCyc, b, deadEnd, orb.LineString{{0, 50}, {20, 50}})); err != nil {
		t.Fatalf("AddRoad short cycleway: %v", err)
	}

	farEnd := addIntersectionAt(sn, orb.Point{0, 90})
	sn.Intersections[farEnd].Kind = units.Terminus
	longCyc := sn.NewRoadID()
	if err := sn.AddRoad(cyclewayRoad(longCyc, b, farEnd, orb.LineString{{0, 50}, {0, 90}})); err != nil {
		t.Fatalf("AddRoad long cycleway: %v", err)
	}

	if err := TrimDeadendCycleways(sn); err != nil {
		t.Fatalf("TrimDeadendCycleways: %v", err)
	}

	if _, ok := sn.Roads[shortCyc]; ok {
		t.Fatal("expected the sub-30m dead-end cycleway to be removed")
	}
	if _, ok := sn.Intersections[deadEnd]; ok {
		t.Fatal("expected the orphaned dead-end intersection to be removed")
	}
	if _, ok := sn.Roads[longCyc]; !ok {
		t.Fatal("expected the 40m cycleway to survive")
	}
}

// TestCollapseSausageLinksMergesDualCarriageway reproduces the short
// dual-carriageway split on a bidirectional arterial: two one-way ways of
// the same name between the same two intersections become one road with a
// central curb buffer between the opposing lane groups.
func TestCollapseSausageLinksMergesDualCarriageway(t *testing.T) {
	sn := network.New(config.Default())

	i0 := addIntersectionAt(sn, orb.Point{0, -50})
	i1 := addIntersectionAt(sn, orb.Point{0, 0})
	i2 := addIntersectionAt(sn, orb.Point{0, 30})
	i3 := addIntersectionAt(sn, orb.Point{0, 80})
	if err := sn.AddRoad(drivingRoad(sn.NewRoadID(), i0, i1, orb.LineString{{0, -50}, {0, 0}})); err != nil {
		t.Fatalf("AddRoad south stub: %v", err)
	}
	if err := sn.AddRoad(drivingRoad(sn.NewRoadID(), i2, i3, orb.LineString{{0, 30}, {0, 80}})); err != nil {
		t.Fatalf("AddRoad north stub: %v", err)
	}

	east := sn.NewRoadID()
	west := sn.NewRoadID()
	if err := sn.AddRoad(onewayRoad(east, i1, i2, orb.LineString{{0, 0}, {3, 15}, {0, 30}}, "Aurora Ave N")); err != nil {
		t.Fatalf("AddRoad east half: %v", err)
	}
	if err := sn.AddRoad(onewayRoad(west, i2, i1, orb.LineString{{0, 30}, {-3, 15}, {0, 0}}, "Aurora Ave N")); err != nil {
		t.Fatalf("AddRoad west half: %v", err)
	}

	if err := CollapseSausageLinks(sn); err != nil {
		t.Fatalf("CollapseSausageLinks: %v", err)
	}

	if len(sn.Roads) != 3 {
		t.Fatalf("expected 2 stubs + 1 merged road, got %d roads", len(sn.Roads))
	}
	merged, ok := sn.Roads[east]
	if !ok {
		merged, ok = sn.Roads[west]
	}
	if !ok {
		t.Fatal("expected one of the pair to survive as the merged road")
	}

	var sawFwd, sawBwd, sawCurb bool
	for _, l := range merged.LaneSpecsLTR {
		switch {
		case l.Type == units.Buffer && l.Buffer == units.Curb:
			sawCurb = true
		case l.Type == units.Driving && l.Direction == units.Forward:
			sawFwd = true
		case l.Type == units.Driving && l.Direction == units.Backward:
			sawBwd = true
		}
	}
	if !sawFwd || !sawBwd {
		t.Fatalf("expected driving lanes in both directions after the merge, got %+v", merged.LaneSpecsLTR)
	}
	if !sawCurb {
		t.Fatalf("expected a central curb buffer between the direction groups, got %+v", merged.LaneSpecsLTR)
	}
	if len(merged.CenterLine) != 2 {
		t.Fatalf("expected the survivor straightened to a 2-point line, got %v", merged.CenterLine)
	}
}

func TestCollapseSausageLinksLeavesLollipopLoops(t *testing.T) {
	sn := network.New(config.Default())

	i1 := addIntersectionAt(sn, orb.Point{0, 0})
	i2 := addIntersectionAt(sn, orb.Point{0, 30})
	if err := sn.AddRoad(onewayRoad(sn.NewRoadID(), i1, i2, orb.LineString{{0, 0}, {3, 15}, {0, 30}}, "Loop Rd")); err != nil {
		t.Fatalf("AddRoad: %v", err)
	}
	if err := sn.AddRoad(onewayRoad(sn.NewRoadID(), i2, i1, orb.LineString{{0, 30}, {-3, 15}, {0, 0}}, "Loop Rd")); err != nil {
		t.Fatalf("AddRoad: %v", err)
	}

	if err := CollapseSausageLinks(sn); err != nil {
		t.Fatalf("CollapseSausageLinks: %v", err)
	}
	if len(sn.Roads) != 2 {
		t.Fatalf("expected the standalone loop to be preserved, got %d roads", len(sn.Roads))
	}
}

func TestCollapseShortRoadsMergesJunctionEndpoints(t *testing.T) {
	sn := network.New(config.Default())

	a := addIntersectionAt(sn, orb.Point{-50, 0})
	j1 := addIntersectionAt(sn, orb.Point{0, 0})
	j2 := addIntersectionAt(sn, orb.Point{3, 0})
	b := addIntersectionAt(sn, orb.Point{53, 0})
	sn.Intersections[j1].Kind = units.Connection
	sn.Intersections[j2].Kind = units.Connection

	if err := sn.AddRoad(drivingRoad(sn.NewRoadID(), a, j1, orb.LineString{{-50, 0}, {0, 0}})); err != nil {
		t.Fatalf("AddRoad left: %v", err)
	}
	short := drivingRoad(sn.NewRoadID(), j1, j2, orb.LineString{{0, 0}, {3, 0}})
	short.JunctionIntersection = true
	if err := sn.AddRoad(short); err != nil {
		t.Fatalf("AddRoad short: %v", err)
	}
	rightID := sn.NewRoadID()
	if err := sn.AddRoad(drivingRoad(rightID, j2, b, orb.LineString{{3, 0}, {53, 0}})); err != nil {
		t.Fatalf("AddRoad right: %v", err)
	}

	if err := CollapseShortRoads(sn); err != nil {
		t.Fatalf("CollapseShortRoads: %v", err)
	}

	if _, ok := sn.Roads[short.ID]; ok {
		t.Fatal("expected the junction=intersection micro-link to be removed")
	}
	if _, ok := sn.Intersections[j2]; ok {
		t.Fatal("expected the merged-away endpoint to be removed")
	}
	right := sn.Roads[rightID]
	if right.SrcI != j1 {
		t.Fatalf("expected the right road re-pointed to the surviving intersection, got src %s", right.SrcI)
	}
	carry := sn.Intersections[j1].TrimRoadsForMerging
	if _, ok := carry[network.TrimKey{Road: rightID, IsSrcEndpoint: true}]; !ok {
		t.Fatalf("expected a carry-over trim point for the re-pointed road, got %v", carry)
	}
	if errs := sn.CheckInvariants(); len(errs) > 0 {
		t.Fatalf("invariants violated after collapse: %v", errs)
	}
}

// TestCollapseDegenerateIntersectionsFusesColinearRoads is the degenerate
// intersection fusion scenario: two colinear roads with identical lane
// specs joined by a trivial intersection become one road; the shared
// intersection is deleted and provenance concatenated.
func TestCollapseDegenerateIntersectionsFusesColinearRoads(t *testing.T) {
	sn := network.New(config.Default())

	a := addIntersectionAt(sn, orb.Point{0, 0})
	m := addIntersectionAt(sn, orb.Point{50, 0})
	b := addIntersectionAt(sn, orb.Point{100, 0})
	sn.Intersections[m].Kind = units.Connection

	r1 := drivingRoad(sn.NewRoadID(), a, m, orb.LineString{{0, 0}, {50, 0}})
	r1.Name = "Main St"
	r1.OSMWayIDs = []osm.WayID{101}
	r2 := drivingRoad(sn.NewRoadID(), m, b, orb.LineString{{50, 0}, {100, 0}})
	r2.Name = "Main St"
	r2.OSMWayIDs = []osm.WayID{102}
	if err := sn.AddRoad(r1); err != nil {
		t.Fatalf("AddRoad: %v", err)
	}
	if err := sn.AddRoad(r2); err != nil {
		t.Fatalf("AddRoad: %v", err)
	}

	if err := CollapseDegenerateIntersections(sn); err != nil {
		t.Fatalf("CollapseDegenerateIntersections: %v", err)
	}

	if _, ok := sn.Intersections[m]; ok {
		t.Fatal("expected the trivial intersection to be deleted")
	}
	if len(sn.Roads) != 1 {
		t.Fatalf("expected exactly one fused road, got %d", len(sn.Roads))
	}
	var fused *network.Road
	for _, r := range sn.Roads {
		fused = r
	}
	if fused.SrcI == fused.DstI {
		t.Fatal("fused road must not be a self-loop")
	}
	if len(fused.OSMWayIDs) != 2 {
		t.Fatalf("expected both ways' provenance preserved, got %v", fused.OSMWayIDs)
	}
	if len(fused.CenterLine) != 2 {
		t.Fatalf("expected the colinear middle point simplified away, got %v", fused.CenterLine)
	}
	if errs := sn.CheckInvariants(); len(errs) > 0 {
		t.Fatalf("invariants violated after fusion: %v", errs)
	}
}

func TestDefaultPipelineIsIdempotent(t *testing.T) {
	sn := network.New(config.Default())

	a := addIntersectionAt(sn, orb.Point{0, 0})
	m := addIntersectionAt(sn, orb.Point{50, 0})
	b := addIntersectionAt(sn, orb.Point{100, 0})
	sn.Intersections[m].Kind = units.Connection

	r1 := drivingRoad(sn.NewRoadID(), a, m, orb.LineString{{0, 0}, {50, 0}})
	r1.Name = "Main St"
	r2 := drivingRoad(sn.NewRoadID(), m, b, orb.LineString{{50, 0}, {100, 0}})
	r2.Name = "Main St"
	if err := sn.AddRoad(r1); err != nil {
		t.Fatalf("AddRoad: %v", err)
	}
	if err := sn.AddRoad(r2); err != nil {
		t.Fatalf("AddRoad: %v", err)
	}

	if err := Run(sn, DefaultPipeline(), nil); err != nil {
		t.Fatalf("first run: %v", err)
	}
	roadsAfterFirst, isectsAfterFirst := len(sn.Roads), len(sn.Intersections)

	if err := Run(sn, DefaultPipeline(), nil); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(sn.Roads) != roadsAfterFirst || len(sn.Intersections) != isectsAfterFirst {
		t.Fatalf("pipeline not idempotent: %d/%d roads, %d/%d intersections",
			roadsAfterFirst, len(sn.Roads), isectsAfterFirst, len(sn.Intersections))
	}
	for _, r := range sn.Roads {
		if r.SrcI == r.DstI {
			t.Fatalf("road %s is a self-loop after the standard pipeline", r.ID)
		}
	}
}

func TestRunSnapshotsEveryStep(t *testing.T) {
	sn := network.New(config.Default())
	a := addIntersectionAt(sn, orb.Point{0, 0})
	b := addIntersectionAt(sn, orb.Point{0, 50})
	if err := sn.AddRoad(drivingRoad(sn.NewRoadID(), a, b, orb.LineString{{0, 0}, {0, 50}})); err != nil {
		t.Fatalf("AddRoad: %v", err)
	}

	var labels []string
	err := Run(sn, DefaultPipeline(), func(s Snapshot) {
		labels = append(labels, s.Label)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	steps := DefaultPipeline()
	if len(labels) != len(steps) {
		t.Fatalf("expected %d snapshots, got %d", len(steps), len(labels))
	}
	for i, s := range steps {
		if labels[i] != s.Name {
			t.Fatalf("snapshot %d labelled %q, want %q", i, labels[i], s.Name)
		}
	}
}

func TestRunCheckedHaltsOnInvariantViolation(t *testing.T) {
	sn := network.New(config.Default())
	a := addIntersectionAt(sn, orb.Point{0, 0})
	b := addIntersectionAt(sn, orb.Point{0, 50})
	if err := sn.AddRoad(drivingRoad(sn.NewRoadID(), a, b, orb.LineString{{0, 0}, {0, 50}})); err != nil {
		t.Fatalf("AddRoad: %v", err)
	}

	corrupt := Step{Name: "corrupt", Fn: func(sn *network.StreetNetwork) error {
		sn.Intersections[b].Roads = nil
		return nil
	}}
	if err := RunChecked(sn, []Step{corrupt}, nil); err == nil {
		t.Fatal("expected RunChecked to halt on an invariant violation")
	}
}
