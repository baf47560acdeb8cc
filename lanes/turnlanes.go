package lanes

import (
	"log"
	"strings"

	"streets/tags"
	"streets/units"
)

var turnPartNames = map[string]units.TurnDirection{
	"through":      units.TurnThrough,
	"":             units.TurnThrough,
	"none":         units.TurnThrough,
	"left":         units.TurnLeft,
	"right":        units.TurnRight,
	"slight_left":  units.TurnSlightLeft,
	"slight_right": units.TurnSlightRight,
	"sharp_left":   units.TurnSharpLeft,
	"sharp_right":  units.TurnSharpRight,
	"reverse":      units.TurnReverse,
	"merge_to_left":  units.TurnMerge,
	"merge_to_right": units.TurnMerge,
}

// applyTurnLanes implements spec §4.1's "Turn restrictions on lanes":
// turn:lanes[:forward|:backward]=a|b|c assigns turn parts to lanes in
// visual left-to-right order (which depends on driving side); only Driving
// and Bus lanes are eligible. Mismatched counts are logged and ignored.
func applyTurnLanes(t *tags.Bag, specs []LaneSpec, side units.DrivingSide) {
	applyOne(t.Get("turn:lanes"), specs, side, -1)
	applyOne(t.Get("turn:lanes:forward"), specs, side, int(units.Forward))
	applyOne(t.Get("turn:lanes:backward"), specs, side, int(units.Backward))
}

func applyOne(tagValue string, specs []LaneSpec, side units.DrivingSide, wantDir int) {
	if tagValue == "" {
		return
	}
	parts := strings.Split(tagValue, "|")

	eligible := eligibleIndices(specs, wantDir)
	// Visual left-to-right order for right-hand traffic is slice order;
	// for left-hand traffic OSM still tags visually left-to-right as drawn
	// facing the way's digitization direction, which our LTR slice already
	// encodes consistently regardless of driving side (assembleLTR already
	// accounted for side when building specs), so no extra reversal here.
	_ = side

	if len(parts) != len(eligible) {
		// Spec §4.1: mismatched counts are ignored with a warning.
		log.Printf("Warning: lanes: turn:lanes has %d part(s) but %d eligible lane(s), ignoring", len(parts), len(eligible))
		return
	}

	for i, idx := range eligible {
		turns := parseTurnPart(parts[i])
		specs[idx].AllowedTurns = turns
	}
}

func eligibleIndices(specs []LaneSpec, wantDir int) []int {
	var out []int
	for i, s := range specs {
		if s.Type != units.Driving && s.Type != units.Bus {
			continue
		}
		if wantDir >= 0 && int(s.Direction) != wantDir {
			continue
		}
		out = append(out, i)
	}
	return out
}

func parseTurnPart(part string) []units.TurnDirection {
	sub := strings.Split(part, ";")
	out := make([]units.TurnDirection, 0, len(sub))
	for _, s := range sub {
		if td, ok := turnPartNames[strings.TrimSpace(s)]; ok {
			out = append(out, td)
		}
	}
	if len(out) == 0 {
		out = append(out, units.TurnThrough)
	}
	return out
}
