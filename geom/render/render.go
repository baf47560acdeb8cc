// Package render implements output adapters: emitting the final
// StreetNetwork as GeoJSON FeatureCollections with stable property
// schemas for roads, intersections, lanes, markings, blocks, and debug
// steps.
//
// Each output builds small, explicitly-keyed property maps rather than
// marshaling internal structs directly, using github.com/paulmach/orb/geojson
// for the envelope — the natural orb-ecosystem counterpart to the
// orb.Ring/LineString types already threaded through package geom and
// network.
package render

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"streets/geom"
	"streets/network"
)

// Plain renders one Feature per road and one per intersection, with a
// stable property schema. Geometry is converted back to lon/lat via proj.
func Plain(sn *network.StreetNetwork, proj geom.Projector) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, r := range sn.Roads {
		poly := roadPolygon(r)
		f := geojson.NewFeature(orb.Polygon{proj.RingToLonLat(poly)})
		f.Properties = geojson.Properties{
			"id":          int64(r.ID),
			"type":        "road",
			"osm_way_ids": wayIDInts(r.OSMWayIDs),
			"src_i":       int64(r.SrcI),
			"dst_i":       int64(r.DstI),
			"layer":       r.Layer,
		}
		fc.Append(f)
	}

	for _, isect := range sn.Intersections {
		if len(isect.Polygon) < 3 {
			continue
		}
		f := geojson.NewFeature(orb.Polygon{proj.RingToLonLat(isect.Polygon)})
		f.Properties = geojson.Properties{
			"id":                int64(isect.ID),
			"type":              "intersection",
			"osm_node_ids":      nodeIDInts(isect.OSMNodeIDs),
			"intersection_kind": isect.Kind.String(),
			"control":           isect.Control.String(),
			"movements":         movementStrings(isect.Movements),
		}
		fc.Append(f)
	}

	return fc
}

// roadPolygon builds a road's full-width footprint ring from its
// (already-trimmed) center-line and total lane width.
func roadPolygon(r *network.Road) orb.Ring {
	line := geom.Trim(r.CenterLine, r.TrimStart, r.TrimEnd)
	if len(line) < 2 {
		return nil
	}
	half := r.TotalWidth() / 2
	left := geom.Shift(line, -half)
	right := geom.Shift(line, half)
	ring := make(orb.Ring, 0, len(left)+len(right)+1)
	ring = append(ring, left...)
	ring = append(ring, geom.Reversed(right)...)
	ring = append(ring, left[0])
	return ring
}

func wayIDInts[T ~int64](ids []T) []int64 {
	out := make([]int64, len(ids))
	for i, v := range ids {
		out[i] = int64(v)
	}
	return out
}

func nodeIDInts[T ~int64](ids []T) []int64 {
	return wayIDInts(ids)
}

func movementStrings(movements []network.Movement) []string {
	out := make([]string, len(movements))
	for i, m := range movements {
		out[i] = m.From.String() + "->" + m.To.String()
	}
	return out
}
