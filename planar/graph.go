// Package planar implements planar face extraction: exploding the final
// street geometry into a planar line-segment graph and tracing its faces
// to recover city blocks.
//
// Node identity is compacted the way a builder compacts a sparse ID space
// into a dense index, here over quantized-coordinate line-segment
// endpoints rather than OSM node IDs. Candidate segment-segment
// intersections are pruned with github.com/tidwall/rtree over each
// segment's bounding box before the exact test runs, the same "bounding
// box first, exact geometry second" shape package osmsplit's Clip uses for
// boundary membership.
package planar

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"

	"streets/geom"
	"streets/network"
)

// NodeID indexes into Graph.Points.
type NodeID int

// EdgeID indexes into Graph.Edges.
type EdgeID int

// Edge is one segment of the exploded planar graph: a straight line between
// two nodes, tagged with the source it came from for render provenance.
type Edge struct {
	A, B NodeID
	From Source
}

// SourceKind classifies what produced a planar graph edge.
type SourceKind uint8

const (
	SourceRoadEdge SourceKind = iota
	SourceIntersectionPolygon
	SourceBoundary
)

// Source records provenance for an exploded edge, carried through so a
// render adapter can style block boundaries differently from, say, the
// map's outer boundary.
type Source struct {
	Kind SourceKind
	// RoadLeft/RoadRight distinguishes which side of a road the edge came
	// from when Kind == SourceRoadEdge; meaningless otherwise.
	RoadLeft bool
}

// Graph is the exploded planar line-segment graph: every input line is
// split at every point it crosses another, so that no two edges cross
// except at a shared node.
type Graph struct {
	Points []orb.Point
	Edges  []Edge

	// adjacency maps each node to the edges incident to it, already sorted
	// clockwise; built by Build, consulted by faces.go.
	adjacency map[NodeID][]EdgeID

	quant   map[quantKey]NodeID
	epsilon float64
}

// quantKey is the dedup key for planar graph nodes: coordinates multiplied
// by 10 and rounded to the nearest integer, so node identity is decided by
// an integer hash rather than comparing floating-point coordinates
// directly. The local plane is in meters, so this gives ~0.1m
// node-merging tolerance.
type quantKey struct{ X, Y int64 }

func quantize(p orb.Point) quantKey {
	return quantKey{
		X: int64(math.Round(p.X() * 10)),
		Y: int64(math.Round(p.Y() * 10)),
	}
}

// Line is one input polyline to explode, paired with the Source it
// represents.
type Line struct {
	Points orb.LineString
	From   Source
}

// Build explodes the given lines into a planar graph: every pairwise
// crossing becomes a shared node, and every line is cut into edges between
// consecutive break points along it (spec §4.8 steps 1-2).
func Build(lines []Line) *Graph {
	g := &Graph{quant: make(map[quantKey]NodeID)}

	// Candidate pruning: index each line's bounding box in an rtree so the
	// O(n^2) exact-crossing test only runs against lines whose boxes
	// actually overlap, not every pair (spec §5: explosion is the memory
	// hot spot on large inputs; this keeps the common case near-linear).
	var tr rtree.RTree
	for i, l := range lines {
		b := geom.Bounds([]orb.Point(l.Points))
		min := [2]float64{b.Min.X(), b.Min.Y()}
		max := [2]float64{b.Max.X(), b.Max.Y()}
		tr.Insert(min, max, i)
	}

	breaks := make([][]float64, len(lines)) // distances-along, per line, where it must be cut
	for i, l := range lines {
		breaks[i] = append(breaks[i], 0, geom.Length(l.Points))
	}

	for i, li := range lines {
		b := geom.Bounds([]orb.Point(li.Points))
		min := [2]float64{b.Min.X(), b.Min.Y()}
		max := [2]float64{b.Max.X(), b.Max.Y()}
		tr.Search(min, max, func(_, _ [2]float64, value interface{}) bool {
			j := value.(int)
			if j <= i {
				return true // each unordered pair considered once
			}
			for _, c := range geom.AllIntersections(li.Points, lines[j].Points) {
				breaks[i] = append(breaks[i], c.DistA)
				breaks[j] = append(breaks[j], c.DistB)
			}
			return true
		})
	}

	for i, l := range lines {
		g.addLine(l, breaks[i])
	}

	g.buildAdjacency()
	return g
}

// addLine cuts l.Points at every distance in cutsAlong and adds one Edge
// per resulting piece.
func (g *Graph) addLine(l Line, cutsAlong []float64) {
	total := geom.Length(l.Points)
	sort.Float64s(cutsAlong)
	var dedup []float64
	for _, d := range cutsAlong {
		if d < 0 {
			d = 0
		}
		if d > total {
			d = total
		}
		if len(dedup) == 0 || d-dedup[len(dedup)-1] > 1e-6 {
			dedup = append(dedup, d)
		}
	}
	if len(dedup) < 2 {
		return
	}
	for i := 1; i < len(dedup); i++ {
		a, _ := geom.PointAlong(l.Points, dedup[i-1])
		b, _ := geom.PointAlong(l.Points, dedup[i])
		if geom.Distance(a, b) < 1e-6 {
			continue
		}
		na := g.node(a)
		nb := g.node(b)
		if na == nb {
			continue
		}
		g.Edges = append(g.Edges, Edge{A: na, B: nb, From: l.From})
	}
}

func (g *Graph) node(p orb.Point) NodeID {
	k := quantize(p)
	if id, ok := g.quant[k]; ok {
		return id
	}
	id := NodeID(len(g.Points))
	g.Points = append(g.Points, p)
	g.quant[k] = id
	return id
}

// buildAdjacency sorts each node's incident edges clockwise using the same
// "sample each incident line at (length - shortest) from its start, then
// sort by angle to the true center" procedure as network.SortRoads (spec
// §4.8 step 3: "using the same... algorithm as §4.4"). Here every incident
// edge is already a straight 2-point segment (post-explosion), so the
// "sampling point" reduces to the edge's own far endpoint and the "true
// center" to the shared node itself; the shared structure is the angle
// sort, not the sampling distance, since exploded edges have no interior
// bends left to account for.
func (g *Graph) buildAdjacency() {
	g.adjacency = make(map[NodeID][]EdgeID, len(g.Points))
	for eid, e := range g.Edges {
		g.adjacency[e.A] = append(g.adjacency[e.A], EdgeID(eid))
		g.adjacency[e.B] = append(g.adjacency[e.B], EdgeID(eid))
	}
	for node, edgeIDs := range g.adjacency {
		center := g.Points[node]
		sort.Slice(edgeIDs, func(i, j int) bool {
			return geom.BearingDegrees(center, g.farEnd(edgeIDs[i], node)) >
				geom.BearingDegrees(center, g.farEnd(edgeIDs[j], node))
		})
		g.adjacency[node] = edgeIDs
	}
}

func (g *Graph) farEnd(e EdgeID, from NodeID) orb.Point {
	edge := g.Edges[e]
	if edge.A == from {
		return g.Points[edge.B]
	}
	return g.Points[edge.A]
}

// otherEnd returns the node at the far end of edge e from node.
func (g *Graph) otherEnd(e EdgeID, node NodeID) NodeID {
	edge := g.Edges[e]
	if edge.A == node {
		return edge.B
	}
	return edge.A
}

// FromNetwork collects the exploded-graph input lines for a street network
// (spec §4.8 step 1): every road's left and right footprint edges (shifted
// by half its total width, trimmed per TrimStart/TrimEnd) and every
// intersection's polygon ring, plus the boundary polygon if one was
// supplied. Run after the transformation pipeline and intersection polygon
// generation have both completed.
func FromNetwork(sn *network.StreetNetwork) []Line {
	var lines []Line
	for _, r := range sn.Roads {
		line := r.CenterLine
		if len(line) < 2 {
			continue
		}
		trimmed := geom.Trim(line, r.TrimStart, r.TrimEnd)
		if len(trimmed) < 2 {
			continue
		}
		half := r.TotalWidth() / 2
		left := geom.Shift(trimmed, -half)
		right := geom.Shift(trimmed, half)
		lines = append(lines,
			Line{Points: left, From: Source{Kind: SourceRoadEdge, RoadLeft: true}},
			Line{Points: right, From: Source{Kind: SourceRoadEdge, RoadLeft: false}},
		)
	}
	for _, isect := range sn.Intersections {
		if len(isect.Polygon) < 2 {
			continue
		}
		lines = append(lines, Line{Points: orb.LineString(isect.Polygon), From: Source{Kind: SourceIntersectionPolygon}})
	}
	if len(sn.BoundaryPolygon) >= 2 {
		lines = append(lines, Line{Points: orb.LineString(sn.BoundaryPolygon), From: Source{Kind: SourceBoundary}})
	}
	return lines
}
