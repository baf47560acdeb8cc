package planar

import "math"

// ColorFaces performs a greedy 5-coloring of faces by adjacency, for
// render-time fill variety (no two adjacent blocks get the same color).
// Faces are adjacent when their rings share an edge, which we approximate
// by sharing at least two vertices within quantization tolerance — exact
// enough for blocks, which only touch along shared planar-graph edges.
//
// The standard greedy coloring algorithm assigns the lowest color not used
// by any neighbor; five colors are always sufficient for a planar graph's
// dual (the four-color theorem plus one for slack).
const maxColors = 5

// Color assigns ColorFaces' palette index.
type Color int

// ColorFaces returns a color (0..4) per face in faces, such that adjacent
// faces differ.
func ColorFaces(faces []Face) []Color {
	adj := buildAdjacency(faces)
	colors := make([]Color, len(faces))
	for i := range colors {
		colors[i] = -1
	}
	for i := range faces {
		used := make(map[Color]bool)
		for _, j := range adj[i] {
			if colors[j] >= 0 {
				used[colors[j]] = true
			}
		}
		for c := Color(0); c < maxColors; c++ {
			if !used[c] {
				colors[i] = c
				break
			}
		}
		if colors[i] < 0 {
			colors[i] = 0 // more than 5 mutually-adjacent faces shouldn't occur on a planar dual
		}
	}
	return colors
}

func buildAdjacency(faces []Face) map[int][]int {
	type vkey struct{ x, y int64 }
	key := func(p [2]float64) vkey {
		return vkey{int64(math.Round(p[0] * 10)), int64(math.Round(p[1] * 10))}
	}
	vertexFaces := make(map[vkey][]int)
	for i, f := range faces {
		seen := make(map[vkey]bool)
		for _, p := range f.Ring {
			k := key([2]float64{p.X(), p.Y()})
			if seen[k] {
				continue
			}
			seen[k] = true
			vertexFaces[k] = append(vertexFaces[k], i)
		}
	}
	shared := make(map[[2]int]int)
	for _, faceList := range vertexFaces {
		for a := 0; a < len(faceList); a++ {
			for b := a + 1; b < len(faceList); b++ {
				i, j := faceList[a], faceList[b]
				if i > j {
					i, j = j, i
				}
				shared[[2]int{i, j}]++
			}
		}
	}
	adj := make(map[int][]int)
	for pair, count := range shared {
		if count < 2 {
			continue // require a shared edge (2 shared vertices), not just a touching corner
		}
		adj[pair[0]] = append(adj[pair[0]], pair[1])
		adj[pair[1]] = append(adj[pair[1]], pair[0])
	}
	return adj
}
