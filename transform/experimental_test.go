package transform

import (
	"testing"

	"github.com/paulmach/orb"

	"streets/config"
	"streets/ids"
	"streets/lanes"
	"streets/network"
	"streets/units"
)

func drivingRoad(id ids.RoadID, src, dst ids.IntersectionID, line orb.LineString) *network.Road {
	return &network.Road{
		ID:            id,
		SrcI:          src,
		DstI:          dst,
		HighwayType:   "residential",
		ReferenceLine: line,
		CenterLine:    line,
		LaneSpecsLTR: []lanes.LaneSpec{
			{Type: units.Driving, Direction: units.Forward, Width: 3},
			{Type: units.Driving, Direction: units.Backward, Width: 3},
		},
	}
}

func footwayRoad(id ids.RoadID, src, dst ids.IntersectionID, line orb.LineString) *network.Road {
	return &network.Road{
		ID:            id,
		SrcI:          src,
		DstI:          dst,
		HighwayType:   "path",
		ReferenceLine: line,
		CenterLine:    line,
		LaneSpecsLTR: []lanes.LaneSpec{
			{Type: units.Footway, Direction: units.Forward, Width: 1.5},
		},
	}
}

func cyclewayRoad(id ids.RoadID, src, dst ids.IntersectionID, line orb.LineString) *network.Road {
	return &network.Road{
		ID:            id,
		SrcI:          src,
		DstI:          dst,
		HighwayType:   "cycleway",
		ReferenceLine: line,
		CenterLine:    line,
		LaneSpecsLTR: []lanes.LaneSpec{
			{Type: units.Biking, Direction: units.Forward, Width: 1.8},
		},
	}
}

func addIntersectionAt(sn *network.StreetNetwork, pt orb.Point) ids.IntersectionID {
	id := sn.NewIntersectionID()
	sn.AddIntersection(&network.Intersection{ID: id, Point: pt, TrimRoadsForMerging: map[network.TrimKey]orb.Point{}})
	return id
}

func TestRemoveDisconnectedRoadsKeepsLargestComponent(t *testing.T) {
	sn := network.New(config.Default())

	a := addIntersectionAt(sn, orb.Point{0, 0})
	b := addIntersectionAt(sn, orb.Point{0, 10})
	c := addIntersectionAt(sn, orb.Point{0, 20})
	if err := sn.AddRoad(drivingRoad(sn.NewRoadID(), a, b, orb.LineString{{0, 0}, {0, 10}})); err != nil {
		t.Fatalf("AddRoad: %v", err)
	}
	if err := sn.AddRoad(drivingRoad(sn.NewRoadID(), b, c, orb.LineString{{0, 10}, {0, 20}})); err != nil {
		t.Fatalf("AddRoad: %v", err)
	}

	x := addIntersectionAt(sn, orb.Point{100, 0})
	y := addIntersectionAt(sn, orb.Point{100, 10})
	islandRoad := sn.NewRoadID()
	if err := sn.AddRoad(drivingRoad(islandRoad, x, y, orb.LineString{{100, 0}, {100, 10}})); err != nil {
		t.Fatalf("AddRoad: %v", err)
	}

	if err := RemoveDisconnectedRoads(sn); err != nil {
		t.Fatalf("RemoveDisconnectedRoads: %v", err)
	}

	if _, ok := sn.Roads[islandRoad]; ok {
		t.Fatal("expected the smaller island's road to be removed")
	}
	if len(sn.Roads) != 2 {
		t.Fatalf("expected the 2-road main component to survive intact, got %d roads", len(sn.Roads))
	}
}

// TestZipSidepathsFoldsCyclewayIntoParent builds a cycleway that meets a
// driveable road at each end through a short footway link, and checks the
// cycleway disappears with its lanes folded into the driveable road.
func TestZipSidepathsFoldsCyclewayIntoParent(t *testing.T) {
	sn := network.New(config.Default())

	p1 := addIntersectionAt(sn, orb.Point{0, 0})
	p2 := addIntersectionAt(sn, orb.Point{0, 100})
	parentID := sn.NewRoadID()
	if err := sn.AddRoad(drivingRoad(parentID, p1, p2, orb.LineString{{0, 0}, {0, 100}})); err != nil {
		t.Fatalf("AddRoad parent: %v", err)
	}

	c1 := addIntersectionAt(sn, orb.Point{5, 0})
	c2 := addIntersectionAt(sn, orb.Point{5, 100})
	cycID := sn.NewRoadID()
	if err := sn.AddRoad(cyclewayRoad(cycID, c1, c2, orb.LineString{{5, 0}, {5, 100}})); err != nil {
		t.Fatalf("AddRoad cycleway: %v", err)
	}

	if err := sn.AddRoad(footwayRoad(sn.NewRoadID(), p1, c1, orb.LineString{{0, 0}, {5, 0}})); err != nil {
		t.Fatalf("AddRoad link 1: %v", err)
	}
	if err := sn.AddRoad(footwayRoad(sn.NewRoadID(), p2, c2, orb.LineString{{0, 100}, {5, 100}})); err != nil {
		t.Fatalf("AddRoad link 2: %v", err)
	}

	beforeLanes := len(sn.Roads[parentID].LaneSpecsLTR)

	if err := ZipSidepaths(sn); err != nil {
		t.Fatalf("ZipSidepaths: %v", err)
	}

	if _, ok := sn.Roads[cycID]; ok {
		t.Fatal("expected the cycleway to be removed once zipped")
	}
	parent, ok := sn.Roads[parentID]
	if !ok {
		t.Fatal("expected the parent road to survive")
	}
	if len(parent.LaneSpecsLTR) <= beforeLanes {
		t.Fatalf("expected the parent road to gain lanes from the zipped cycleway, had %d, now %d", beforeLanes, len(parent.LaneSpecsLTR))
	}
}
