package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// earthRadiusMeters is used for the great-circle math behind the local
// equirectangular projection.
const earthRadiusMeters = 6_371_000.0

// Projector converts between lon/lat (as read from OSM) and a local,
// equirectangular meter-based plane centered on a reference point. Every
// geometric algorithm in this package (trim, shift, intersect) operates in
// the projected plane, never directly on lon/lat degrees.
type Projector struct {
	originLon, originLat float64
	cosLat                float64
}

// NewProjector builds a projector centered on the centroid of bound.
func NewProjector(bound orb.Bound) Projector {
	center := bound.Center()
	return Projector{
		originLon: center.X(),
		originLat: center.Y(),
		cosLat:    math.Cos(center.Y() * math.Pi / 180),
	}
}

// ToPlane converts a lon/lat point to local meters.
func (p Projector) ToPlane(pt orb.Point) orb.Point {
	x := (pt.X() - p.originLon) * p.cosLat * math.Pi / 180 * earthRadiusMeters
	y := (pt.Y() - p.originLat) * math.Pi / 180 * earthRadiusMeters
	return orb.Point{x, y}
}

// ToLonLat converts a local-meters point back to lon/lat.
func (p Projector) ToLonLat(pt orb.Point) orb.Point {
	lon := p.originLon + (pt.X()/earthRadiusMeters)/p.cosLat*180/math.Pi
	lat := p.originLat + (pt.Y()/earthRadiusMeters)*180/math.Pi
	return orb.Point{lon, lat}
}

// LineToPlane projects every point of a LineString.
func (p Projector) LineToPlane(ls orb.LineString) orb.LineString {
	out := make(orb.LineString, len(ls))
	for i, pt := range ls {
		out[i] = p.ToPlane(pt)
	}
	return out
}

// LineToLonLat inverse-projects every point of a LineString.
func (p Projector) LineToLonLat(ls orb.LineString) orb.LineString {
	out := make(orb.LineString, len(ls))
	for i, pt := range ls {
		out[i] = p.ToLonLat(pt)
	}
	return out
}

// RingToLonLat inverse-projects a ring.
func (p Projector) RingToLonLat(r orb.Ring) orb.Ring {
	return orb.Ring(p.LineToLonLat(orb.LineString(r)))
}
