package lanes

import (
	"strconv"
	"strings"

	"streets/units"
)

// PlacementKind classifies where a road's reference_line sits relative to
// its cross-section, per spec §3 Road.reference_line_placement and
// osm2streets's lanes/placement.rs.
type PlacementKind uint8

const (
	// PlacementCenterCarriageway: centered on the driveable carriageway,
	// excluding sidewalks/shoulders. The common default.
	PlacementCenterCarriageway PlacementKind = iota
	// PlacementCenterFullWidth: centered on the full cross-section width.
	PlacementCenterFullWidth
	// PlacementSeparationLine: on the line between two named directions.
	PlacementSeparationLine
	// PlacementNamedLane: left/middle/right of a specific lane index.
	PlacementNamedLane
	// PlacementTransition: an unspecified transition between two placements.
	PlacementTransition
)

// Side refers to left/middle/right of a named lane under PlacementNamedLane.
type Side uint8

const (
	SideLeft Side = iota
	SideMiddle
	SideRight
)

// Placement describes where, across a road's cross-section, its reference
// line lies. It can be Consistent (the common case), LinearlyVarying
// between Start and End (a placement=transition style change along the
// road), or Transition (the OSM tag explicitly says "don't know").
type Placement struct {
	Kind PlacementKind

	// Valid when Kind == PlacementNamedLane.
	LaneIndex     int // 1-based, as OSM counts lanes
	LaneDirection units.Direction
	Side          Side

	// LinearlyVarying, when true, means the placement changes smoothly
	// from Start to End across the road's length rather than being
	// Consistent throughout.
	LinearlyVarying bool
	Start           *Placement
	End             *Placement
}

// Consistent builds a Placement that applies uniformly along the road.
func Consistent(kind PlacementKind) Placement {
	return Placement{Kind: kind}
}

// ResolvePlacement interprets an OSM placement=* tag value into a Placement.
// Unrecognized or absent values default to PlacementCenterCarriageway, which
// is what OSM's documented default behavior assumes.
//
// Recognized forms: "center_of_carriageway", "center_of_width",
// "separation_of:<left>|<right>", "<left_of|middle_of|right_of>:<n>",
// "transition" and an explicit "<a> - <b>" range for a varying placement.
func ResolvePlacement(tagValue string) Placement {
	if tagValue == "" {
		return Consistent(PlacementCenterCarriageway)
	}
	if tagValue == "transition" {
		return Placement{Kind: PlacementTransition}
	}

	if before, after, ok := strings.Cut(tagValue, " - "); ok {
		start := ResolvePlacement(before)
		end := ResolvePlacement(after)
		return Placement{Kind: start.Kind, LinearlyVarying: true, Start: &start, End: &end}
	}

	switch tagValue {
	case "center_of_carriageway":
		return Consistent(PlacementCenterCarriageway)
	case "center_of_width":
		return Consistent(PlacementCenterFullWidth)
	}

	if strings.HasPrefix(tagValue, "separation_of:") {
		return Consistent(PlacementSeparationLine)
	}

	for prefix, side := range map[string]Side{"left_of:": SideLeft, "middle_of:": SideMiddle, "right_of:": SideRight} {
		if rest, ok := strings.CutPrefix(tagValue, prefix); ok {
			idx, err := strconv.Atoi(rest)
			if err != nil {
				return Consistent(PlacementCenterCarriageway)
			}
			return Placement{Kind: PlacementNamedLane, LaneIndex: idx, Side: side, LaneDirection: units.Forward}
		}
	}

	return Consistent(PlacementCenterCarriageway)
}
