package planar

import (
	"github.com/paulmach/orb"

	"streets/geom"
)

// Side distinguishes the two half-edges a planar Edge contributes to face
// tracing.
type Side uint8

const (
	Left Side = iota
	Right
)

// TraversalDirection is which endpoint a half-edge walks toward.
type TraversalDirection uint8

const (
	Forwards TraversalDirection = iota
	Backwards
)

// OrientedEdge is one directed half of a planar Edge.
// Every Edge contributes exactly two OrientedEdges: {Left, Forwards} (A->B)
// and {Right, Backwards} (B->A); "Left"/"Right" is arbitrary but fixed,
// just a label for the two traversal directions rather than a true
// left-of-travel offset, since exploded edges have zero width.
type OrientedEdge struct {
	Edge      EdgeID
	Side      Side
	Direction TraversalDirection
}

func (g *Graph) from(oe OrientedEdge) NodeID {
	e := g.Edges[oe.Edge]
	if oe.Direction == Forwards {
		return e.A
	}
	return e.B
}

func (g *Graph) to(oe OrientedEdge) NodeID {
	e := g.Edges[oe.Edge]
	if oe.Direction == Forwards {
		return e.B
	}
	return e.A
}

func (g *Graph) twin(oe OrientedEdge) OrientedEdge {
	if oe.Side == Left {
		return OrientedEdge{Edge: oe.Edge, Side: Right, Direction: Backwards}
	}
	return OrientedEdge{Edge: oe.Edge, Side: Left, Direction: Forwards}
}

// next finds, from any incoming OrientedEdge, the next OrientedEdge one
// step counter-clockwise in the node's ordering from the twin, direction
// flipped — standard planar face tracing over a doubly-connected-edge-list:
// walk to the edge's target node, find the reverse (twin) half-edge in
// that node's clockwise-sorted incidence list, and step one position
// back (wrapping), which is the next boundary edge of the face being
// traced.
func (g *Graph) next(oe OrientedEdge) OrientedEdge {
	node := g.to(oe)
	incident := g.adjacency[node]
	tw := g.twin(oe)
	pos := -1
	for i, eid := range incident {
		if eid == tw.Edge {
			pos = i
			break
		}
	}
	if pos == -1 || len(incident) == 0 {
		return tw // degenerate node (shouldn't happen on a built graph); stay put
	}
	nextEdgeID := incident[(pos-1+len(incident))%len(incident)]
	return directionFrom(g, nextEdgeID, node)
}

// directionFrom returns the OrientedEdge for edge eid that starts at node.
func directionFrom(g *Graph, eid EdgeID, node NodeID) OrientedEdge {
	e := g.Edges[eid]
	if e.A == node {
		return OrientedEdge{Edge: eid, Side: Left, Direction: Forwards}
	}
	return OrientedEdge{Edge: eid, Side: Right, Direction: Backwards}
}

// Face is one traced, closed ring of the planar graph plus the sources its
// boundary edges came from.
type Face struct {
	Ring    orb.Ring
	Sources []Source
}

// TraceFaces traces every face of the planar graph by walking
// OrientedEdges via next() until returning to the start, then drops the
// outermost face (the one whose area is at least the boundary polygon's).
// Greedy coloring is a separate pass (ColorFaces) so callers that don't
// render can skip it.
func (g *Graph) TraceFaces(boundaryArea float64) []Face {
	visited := make(map[OrientedEdge]bool)
	var faces []Face

	allOriented := func() []OrientedEdge {
		out := make([]OrientedEdge, 0, len(g.Edges)*2)
		for eid := range g.Edges {
			out = append(out,
				OrientedEdge{Edge: EdgeID(eid), Side: Left, Direction: Forwards},
				OrientedEdge{Edge: EdgeID(eid), Side: Right, Direction: Backwards})
		}
		return out
	}

	for _, start := range allOriented() {
		if visited[start] {
			continue
		}
		var ring orb.Ring
		var sources []Source
		cur := start
		for i := 0; i < len(g.Edges)*2+1; i++ {
			visited[cur] = true
			ring = append(ring, g.Points[g.from(cur)])
			sources = append(sources, g.Edges[cur.Edge].From)
			cur = g.next(cur)
			if cur == start {
				break
			}
		}
		if len(ring) < 3 {
			continue
		}
		ring = append(ring, ring[0])
		ring = dedupeAdjacent(ring)
		if len(ring) < 4 {
			continue
		}
		if boundaryArea > 0 && geom.Area(ring) >= boundaryArea {
			continue // drop the outermost face
		}
		faces = append(faces, Face{Ring: ring, Sources: sources})
	}

	if boundaryArea <= 0 {
		// No boundary polygon was supplied to compare against: the
		// largest traced face is, by construction, the unbounded outer
		// face (every other face nests inside it), so drop that one.
		faces = dropLargest(faces)
	}
	return faces
}

func dropLargest(faces []Face) []Face {
	if len(faces) == 0 {
		return faces
	}
	biggest := 0
	biggestArea := geom.Area(faces[0].Ring)
	for i := 1; i < len(faces); i++ {
		if a := geom.Area(faces[i].Ring); a > biggestArea {
			biggest, biggestArea = i, a
		}
	}
	return append(faces[:biggest], faces[biggest+1:]...)
}

func dedupeAdjacent(r orb.Ring) orb.Ring {
	out := make(orb.Ring, 0, len(r))
	for i, p := range r {
		if i > 0 && p == out[len(out)-1] {
			continue
		}
		out = append(out, p)
	}
	return out
}
