package render

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"streets/geom"
	"streets/lanes"
	"streets/network"
	"streets/planar"
)

// dashLen/gapLen size the marking stroke pattern: thin polygons annotated
// with their type, scaled to the widths package lanes already defaults
// buffers to so the dash pattern reads well at typical render scale.
const (
	centerLineDash = 3.0
	centerLineGap  = 1.5
	laneSepDash    = 1.0
	laneSepGap     = 1.5
	markingWidth   = 0.15
)

// Lanes renders one Feature per lane cross-section slice, each a thin
// polygon occupying that lane's width along the road's trimmed
// center-line.
func Lanes(sn *network.StreetNetwork, proj geom.Projector) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range sn.Roads {
		line := geom.Trim(r.CenterLine, r.TrimStart, r.TrimEnd)
		if len(line) < 2 {
			continue
		}
		offset := -r.TotalWidth() / 2
		for idx, l := range r.LaneSpecsLTR {
			innerEdge := geom.Shift(line, offset)
			outerEdge := geom.Shift(line, offset+l.Width)
			poly := stripPolygon(innerEdge, outerEdge)
			f := geojson.NewFeature(orb.Polygon{proj.RingToLonLat(poly)})
			turns := make([]string, len(l.AllowedTurns))
			for i, t := range l.AllowedTurns {
				turns[i] = t.String()
			}
			f.Properties = geojson.Properties{
				"type":          "lane",
				"road":          int64(r.ID),
				"index":         idx,
				"width":         l.Width,
				"direction":     l.Direction.String(),
				"lane_type":     l.Type.String(),
				"allowed_turns": turns,
				"layer":         r.Layer,
			}
			fc.Append(f)
			offset += l.Width
		}
	}
	return fc
}

// stripPolygon builds a closed ring from two parallel edges of a lane
// strip, running out along inner and back along outer.
func stripPolygon(inner, outer orb.LineString) orb.Ring {
	ring := make(orb.Ring, 0, len(inner)+len(outer)+1)
	ring = append(ring, inner...)
	ring = append(ring, geom.Reversed(outer)...)
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	return ring
}

// Markings renders one marking along each boundary between adjacent lanes
// of a road: a dashed "lane separator" between same-direction travel lanes,
// a "center line" between opposite-direction travel lanes, and a solid
// "buffer edge" at every other lane boundary. "Lane
// arrow" and "stop line" markings are left to a downstream renderer with
// access to a rendered scale; this emits only the geometric markings that
// don't depend on render scale.
func Markings(sn *network.StreetNetwork, proj geom.Projector) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range sn.Roads {
		line := geom.Trim(r.CenterLine, r.TrimStart, r.TrimEnd)
		if len(line) < 2 {
			continue
		}
		offset := -r.TotalWidth() / 2
		for idx, l := range r.LaneSpecsLTR {
			boundary := geom.Shift(line, offset)
			if idx > 0 {
				prev := r.LaneSpecsLTR[idx-1]
				markingType, dash, gap := separatorStyle(prev, l)
				for _, dashPiece := range geom.Dash(boundary, dash, gap) {
					strip := stripPolygon(geom.Shift(dashPiece, -markingWidth/2), geom.Shift(dashPiece, markingWidth/2))
					f := geojson.NewFeature(orb.Polygon{proj.RingToLonLat(strip)})
					f.Properties = geojson.Properties{"type": markingType, "road": int64(r.ID)}
					fc.Append(f)
				}
			}
			offset += l.Width
		}
	}
	return fc
}

func separatorStyle(prev, cur lanes.LaneSpec) (markingType string, dash, gap float64) {
	if prev.Type.IsTravelLane() && cur.Type.IsTravelLane() && prev.Direction == cur.Direction {
		return "lane separator", laneSepDash, laneSepGap
	}
	if prev.Type.IsTravelLane() && cur.Type.IsTravelLane() && prev.Direction != cur.Direction {
		return "center line", centerLineDash, centerLineGap
	}
	return "buffer edge", 0, 0 // 0,0 => geom.Dash returns the line whole, per its own contract
}

// Blocks renders one Feature per planar face (a candidate city block),
// with its 5-coloring index for render fill variety.
func Blocks(faces []planar.Face, colors []planar.Color, proj geom.Projector) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, face := range faces {
		f := geojson.NewFeature(orb.Polygon{proj.RingToLonLat(face.Ring)})
		props := geojson.Properties{"type": "block"}
		if i < len(colors) {
			props["color"] = int(colors[i])
		}
		f.Properties = props
		fc.Append(f)
	}
	return fc
}

// Debug is a named (label, StreetNetwork snapshot) pair rendered as its
// own Plain FeatureCollection, matching transform.Snapshot.
type Debug struct {
	Label      string
	Collection *geojson.FeatureCollection
}

// DebugSteps renders a list of transform pipeline snapshots into Debug
// values, one Plain FeatureCollection per step.
func DebugSteps(labels []string, networks []*network.StreetNetwork, proj geom.Projector) []Debug {
	out := make([]Debug, 0, len(labels))
	for i, label := range labels {
		if i >= len(networks) {
			break
		}
		out = append(out, Debug{Label: label, Collection: Plain(networks[i], proj)})
	}
	return out
}
