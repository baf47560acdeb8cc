package osmsplit

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"

	"streets/config"
	"streets/geom"
	"streets/tags"
)

func node(id osm.NodeID, lon, lat float64) RawNode {
	return RawNode{ID: id, Point: orb.Point{lon, lat}, Tags: tags.New()}
}

// buildTInput builds a 3-way junction: way 100 runs node 1 -> node 2 -> node
// 3 in a straight line; way 200 branches off node 2 to node 4. Node 2 has
// incidence from both ways and is an endpoint of way 200, so it must become
// an intersection splitting way 100 into two roads.
func buildTInput() Input {
	nodes := map[osm.NodeID]RawNode{
		1: node(1, -122.001, 37.000),
		2: node(2, -122.000, 37.000),
		3: node(3, -121.999, 37.000),
		4: node(4, -122.000, 37.001),
	}
	residential := tags.FromMap(map[string]string{"highway": "residential"})
	ways := []RawWay{
		{ID: 100, NodeIDs: []osm.NodeID{1, 2, 3}, Tags: residential},
		{ID: 200, NodeIDs: []osm.NodeID{2, 4}, Tags: residential},
	}
	return Input{Nodes: nodes, Ways: ways}
}

func TestSplitCreatesIntersectionAtSharedNode(t *testing.T) {
	result, err := Split(buildTInput(), config.Default())
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	sn := result.Network

	if len(sn.Roads) != 3 {
		t.Fatalf("expected 3 roads (way 100 split in two, way 200 whole), got %d", len(sn.Roads))
	}
	if len(sn.Intersections) != 4 {
		t.Fatalf("expected 4 intersections, got %d", len(sn.Intersections))
	}

	var centerCount int
	for _, isect := range sn.Intersections {
		if len(isect.Roads) == 3 {
			centerCount++
		}
	}
	if centerCount != 1 {
		t.Fatalf("expected exactly 1 three-way intersection, got %d", centerCount)
	}
}

func TestSplitRoadsHaveLanes(t *testing.T) {
	result, err := Split(buildTInput(), config.Default())
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	for rid, r := range result.Network.Roads {
		if len(r.LaneSpecsLTR) == 0 {
			t.Fatalf("road %s has no inferred lanes", rid)
		}
		if len(r.CenterLine) < 2 {
			t.Fatalf("road %s has a degenerate center line", rid)
		}
	}
}

func TestSplitEmptyInputErrors(t *testing.T) {
	_, err := Split(Input{}, config.Default())
	if err == nil {
		t.Fatal("expected an error for an empty input")
	}
}

func TestClipNoBoundaryIsNoop(t *testing.T) {
	result, err := Split(buildTInput(), config.Default())
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	before := len(result.Network.Roads)

	proj := geom.NewProjector(result.Network.GPSBounds)
	if err := Clip(result.Network, proj); err != nil {
		t.Fatalf("Clip: %v", err)
	}
	if len(result.Network.Roads) != before {
		t.Fatalf("expected no roads removed without a boundary polygon, got %d want %d", len(result.Network.Roads), before)
	}
}

func TestClipTrimsBranchRunningOutsideBoundary(t *testing.T) {
	input := buildTInput()
	// A tight box around nodes 1-2-3 only; node 4 falls outside it.
	input.BoundaryPolygon = orb.Ring{
		{-122.002, 36.999},
		{-121.998, 36.999},
		{-121.998, 37.0005},
		{-122.002, 37.0005},
		{-122.002, 36.999},
	}
	result, err := Split(input, config.Default())
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	proj := geom.NewProjector(result.Network.GPSBounds)
	if err := Clip(result.Network, proj); err != nil {
		t.Fatalf("Clip: %v", err)
	}

	var foundMapEdge bool
	for _, isect := range result.Network.Intersections {
		for _, n := range isect.OSMNodeIDs {
			if n == 4 {
				if isect.Kind.String() != "map_edge" {
					t.Fatalf("expected node 4's intersection to become MapEdge after clipping, got %v", isect.Kind)
				}
				foundMapEdge = true
			}
		}
	}
	if !foundMapEdge {
		t.Fatal("expected to find node 4's intersection after clipping")
	}
}
