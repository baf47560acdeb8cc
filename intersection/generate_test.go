package intersection

import (
	"testing"

	"github.com/paulmach/orb"

	"streets/config"
	"streets/ids"
	"streets/lanes"
	"streets/network"
	"streets/units"
)

func generateTestRoad(id ids.RoadID, src, dst ids.IntersectionID, line orb.LineString) *network.Road {
	return &network.Road{
		ID:          id,
		SrcI:        src,
		DstI:        dst,
		HighwayType: "residential",
		ReferenceLine: line,
		CenterLine:    line,
		LaneSpecsLTR: []lanes.LaneSpec{
			{Type: units.Driving, Direction: units.Forward, Width: 3},
			{Type: units.Driving, Direction: units.Backward, Width: 3},
		},
	}
}

// TestGeneratePolygonsReplacesPlaceholderAndTrimsRoads builds a simple 4-way
// intersection and checks GeneratePolygons leaves every road trimmed and the
// intersection's placeholder polygon replaced by a real ring.
func TestGeneratePolygonsReplacesPlaceholderAndTrimsRoads(t *testing.T) {
	sn := network.New(config.Default())
	center := sn.NewIntersectionID()
	north := sn.NewIntersectionID()
	east := sn.NewIntersectionID()
	south := sn.NewIntersectionID()
	west := sn.NewIntersectionID()
	sn.AddIntersection(&network.Intersection{ID: center, Point: orb.Point{0, 0}})
	sn.AddIntersection(&network.Intersection{ID: north, Point: orb.Point{0, 50}})
	sn.AddIntersection(&network.Intersection{ID: east, Point: orb.Point{50, 0}})
	sn.AddIntersection(&network.Intersection{ID: south, Point: orb.Point{0, -50}})
	sn.AddIntersection(&network.Intersection{ID: west, Point: orb.Point{-50, 0}})

	roadIDs := []ids.RoadID{sn.NewRoadID(), sn.NewRoadID(), sn.NewRoadID(), sn.NewRoadID()}
	roads := []*network.Road{
		generateTestRoad(roadIDs[0], center, north, orb.LineString{{0, 0}, {0, 50}}),
		generateTestRoad(roadIDs[1], center, east, orb.LineString{{0, 0}, {50, 0}}),
		generateTestRoad(roadIDs[2], center, south, orb.LineString{{0, 0}, {0, -50}}),
		generateTestRoad(roadIDs[3], center, west, orb.LineString{{0, 0}, {-50, 0}}),
	}
	for _, r := range roads {
		if err := sn.AddRoad(r); err != nil {
			t.Fatalf("AddRoad: %v", err)
		}
	}

	GeneratePolygons(sn)

	if len(sn.Intersections[center].Polygon) < 3 {
		t.Fatalf("expected a real polygon at the center intersection, got %v", sn.Intersections[center].Polygon)
	}
	for _, rid := range roadIDs {
		r := sn.Roads[rid]
		if r.TrimStart <= 0 && r.TrimEnd <= 0 {
			t.Fatalf("expected road %s to be trimmed back from the center intersection, got start=%v end=%v", rid, r.TrimStart, r.TrimEnd)
		}
	}
}
