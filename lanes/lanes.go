// Package lanes turns an OSM tag bag into the ordered left-to-right list of
// typed lanes spec §4.1 describes. It is a pure function of (tags, config,
// highway type): no global state, no panics on missing tags — a tag-parse
// failure degrades to a single placeholder Construction lane (spec §7,
// per-entity recoverable taxon), never an error the caller must plumb
// through string formatting.
//
// Grounded on the teacher's tag-dispatch style (pkg/osm/parser.go's
// isCarAccessible/directionFlags: small pure functions switching on
// tags.Find values) generalized from a binary car-accessible/not decision
// into the fuller per-lane mode ranking spec §4.1 step 3 requires, and on
// osm2streets/src/lanes/classic.rs for the overall algorithm shape (this
// implementation does not transliterate that Rust source).
package lanes

import (
	"log"
	"strconv"
	"strings"

	"streets/config"
	"streets/tags"
	"streets/units"
)

// LaneSpec describes one lane in a road's left-to-right cross-section.
type LaneSpec struct {
	Type         units.LaneType
	Buffer       units.BufferType // meaningful only when Type == units.Buffer
	Direction    units.Direction
	Width        float64
	AllowedTurns []units.TurnDirection
}

// defaultWidths maps (LaneType, highwayType) to a default width in meters.
// The first entry per LaneType (key highwayType == "") is the fallback used
// when no more specific entry exists, matching spec §4.1's "first entry is
// the default."
var defaultWidths = map[units.LaneType]map[string]float64{
	units.Driving: {
		"":             3.0,
		"motorway":     3.5,
		"motorway_link": 3.5,
		"trunk":        3.25,
		"service":      2.5,
	},
	units.Parking:        {"": 2.2},
	units.Sidewalk:       {"": 1.8},
	units.Shoulder:       {"": 2.0},
	units.Biking:         {"": 1.8},
	units.Bus:            {"": 3.0},
	units.SharedLeftTurn: {"": 3.0},
	units.Construction:   {"": 3.0},
	units.LightRail:      {"": 4.0},
	units.Footway:        {"": 1.5},
	units.SharedUse:      {"": 3.0},
	units.Buffer: {
		"": 0.5,
	},
}

// DefaultWidth returns the default width for lt on highwayType, falling
// back to the type's generic default.
func DefaultWidth(lt units.LaneType, highwayType string) float64 {
	byType, ok := defaultWidths[lt]
	if !ok {
		return 3.0
	}
	if w, ok := byType[highwayType]; ok {
		return w
	}
	return byType[""]
}

// bufferDefaultWidths gives Buffer lanes a width by subkind, in place of the
// generic Buffer default above; some subkinds are wider than it, Curb is
// narrower.
var bufferDefaultWidths = map[units.BufferType]float64{
	units.Stripes:       0.5,
	units.FlexPosts:     0.5,
	units.Planters:      1.0,
	units.JerseyBarrier: 0.8,
	units.Curb:          0.3,
	units.Verge:         3.0,
}

// nonMotorizedHighways lists highway values that are not a carriageway at
// all (footways, cycleways, ...), exempted from sidewalk inference (spec
// §4.1 step 1).
var nonMotorizedHighways = map[string]bool{
	"footway":   true,
	"cycleway":  true,
	"path":      true,
	"pedestrian": true,
	"steps":     true,
	"track":     true,
	"bridleway": true,
}

// RampHighways lists highway values treated as ramp-class for the on/off
// ramp intersection polygon dispatch (spec §4.6 step 4).
var RampHighways = map[string]bool{
	"motorway_link": true,
	"trunk_link":    true,
	"primary_link":  true,
}

// Infer returns the ordered left-to-right lane list for a way tagged with t,
// of the given highway type, under cfg. It never returns an error to the
// caller: on any internal parse failure it logs a warning and returns a
// single placeholder Construction lane, per spec §7.
func Infer(t *tags.Bag, cfg config.Config, highwayType string) []LaneSpec {
	specs, err := infer(t, cfg, highwayType)
	if err != nil {
		log.Printf("lane inference: %v; falling back to placeholder lane", err)
		return []LaneSpec{{Type: units.Construction, Direction: units.Forward, Width: DefaultWidth(units.Construction, highwayType)}}
	}
	return specs
}

func infer(t *tags.Bag, cfg config.Config, highwayType string) ([]LaneSpec, error) {
	if t == nil {
		t = tags.New()
	}

	// Step 1: infer sidewalks if the config asks for it and none is tagged.
	t = maybeInferSidewalks(t, cfg, highwayType)

	// Non-motorized paths get a short, dedicated shape (spec §4.1 step 2
	// covers "per-lane description"; footways/cycleways don't go through
	// the full carriageway construction below).
	if spec := nonMotorizedLanes(t, cfg, highwayType); spec != nil {
		applyConstructionOverride(t, spec)
		return spec, nil
	}

	fwdCount, bwdCount, err := drivingLaneCounts(t, highwayType)
	if err != nil {
		return nil, err
	}

	oneway := isOneway(t)

	fwdSide, bwdSide := buildDrivingLanes(fwdCount, bwdCount, oneway, highwayType, t)

	addSharedLeftTurn(t, &fwdSide, &bwdSide, highwayType)
	addBusLanes(t, &fwdSide, &bwdSide, highwayType)
	addParkingLanes(t, &fwdSide, &bwdSide, highwayType)
	addBikeLanes(t, &fwdSide, &bwdSide, highwayType, cfg)
	addShoulders(t, &fwdSide, &bwdSide, highwayType)
	addSidewalks(t, &fwdSide, &bwdSide, highwayType)

	out := assembleLTR(fwdSide, bwdSide, cfg.DrivingSide)
	applyTurnLanes(t, out, cfg.DrivingSide)
	applyConstructionOverride(t, out)
	out = stripShouldersIfRestricted(t, highwayType, out)

	return out, nil
}

// applyConstructionOverride implements spec §4.1 step 6: construction
// lifecycle forces every lane to Construction, regardless of what else was
// inferred.
func applyConstructionOverride(t *tags.Bag, specs []LaneSpec) {
	if !isUnderConstruction(t) {
		return
	}
	for i := range specs {
		specs[i].Type = units.Construction
		specs[i].Buffer = 0
	}
}

func isUnderConstruction(t *tags.Bag) bool {
	return t.Is("highway", "construction") || t.Has("construction")
}

// stripShouldersIfRestricted implements spec §4.1 step 7.
func stripShouldersIfRestricted(t *tags.Bag, highwayType string, specs []LaneSpec) []LaneSpec {
	strip := highwayType == "motorway" || highwayType == "motorway_link" || isUnderConstruction(t) ||
		t.Is("foot", "no") || t.Is("access", "no") || t.Is("motorroad", "yes")
	if !strip {
		return specs
	}
	for i := 0; i < len(specs); {
		if specs[i].Type == units.Shoulder {
			specs = append(specs[:i], specs[i+1:]...)
			continue
		}
		i++
	}
	return specs
}

func isOneway(t *tags.Bag) bool {
	switch t.Get("oneway") {
	case "yes", "true", "1", "-1", "reverse":
		return true
	}
	if t.Is("junction", "roundabout") {
		return true
	}
	return false
}

func isReversedOneway(t *tags.Bag) bool {
	v := t.Get("oneway")
	return v == "-1" || v == "reverse"
}

// drivingLaneCounts resolves lanes / lanes:forward / lanes:backward into a
// (forward, backward) driving lane count.
func drivingLaneCounts(t *tags.Bag, highwayType string) (fwd, bwd int, err error) {
	total := 2
	if highwayType == "motorway" || highwayType == "motorway_link" {
		total = 2
	}
	if v := t.Get("lanes"); v != "" {
		if n, perr := strconv.Atoi(strings.TrimSpace(v)); perr == nil && n > 0 {
			total = n
		}
	}

	oneway := isOneway(t)

	if v := t.Get("lanes:forward"); v != "" {
		if n, perr := strconv.Atoi(strings.TrimSpace(v)); perr == nil && n >= 0 {
			fwd = n
		}
	}
	if v := t.Get("lanes:backward"); v != "" {
		if n, perr := strconv.Atoi(strings.TrimSpace(v)); perr == nil && n >= 0 {
			bwd = n
		}
	}

	if fwd == 0 && bwd == 0 {
		if oneway {
			fwd = total
			bwd = 0
		} else {
			fwd = (total + 1) / 2
			bwd = total - fwd
		}
	}

	if isReversedOneway(t) {
		fwd, bwd = 0, fwd+bwd
	}

	if fwd == 0 && bwd == 0 {
		fwd = 1
	}
	return fwd, bwd, nil
}

func buildDrivingLanes(fwdCount, bwdCount int, oneway bool, highwayType string, t *tags.Bag) (fwdSide, bwdSide []LaneSpec) {
	w := DefaultWidth(units.Driving, highwayType)
	for i := 0; i < fwdCount; i++ {
		fwdSide = append(fwdSide, LaneSpec{Type: units.Driving, Direction: units.Forward, Width: w, AllowedTurns: []units.TurnDirection{units.TurnThrough}})
	}
	for i := 0; i < bwdCount; i++ {
		bwdSide = append(bwdSide, LaneSpec{Type: units.Driving, Direction: units.Backward, Width: w, AllowedTurns: []units.TurnDirection{units.TurnThrough}})
	}
	return fwdSide, bwdSide
}

// addSharedLeftTurn implements spec §4.1 step 4's SharedLeftTurn half:
// a bidirectional center turn lane tag becomes a single shared lane
// inserted between the two direction groups rather than two driving lanes.
func addSharedLeftTurn(t *tags.Bag, fwdSide, bwdSide *[]LaneSpec, highwayType string) {
	if !t.IsAny("centre_turn_lane", "yes", "true") && !t.Has("turn:lanes:both_ways") {
		return
	}
	*fwdSide = append([]LaneSpec{{Type: units.SharedLeftTurn, Direction: units.Forward, Width: DefaultWidth(units.SharedLeftTurn, "")}}, *fwdSide...)
}

// BufferWidth returns the default width for a buffer subkind, used by
// transform passes that insert buffers between opposing lane groups
// (sausage link collapse, dual carriageway merge, sidepath zipping).
func BufferWidth(bt units.BufferType) float64 {
	if w, ok := bufferDefaultWidths[bt]; ok {
		return w
	}
	return 0.5
}

func addBusLanes(t *tags.Bag, fwdSide, bwdSide *[]LaneSpec, highwayType string) {
	w := DefaultWidth(units.Bus, highwayType)
	addSide := func(side *[]LaneSpec, tag string, dir units.Direction, prepend bool) {
		if !t.IsAny(tag, "lane", "opposite_lane") {
			return
		}
		spec := LaneSpec{Type: units.Bus, Direction: dir, Width: w}
		if prepend {
			*side = append([]LaneSpec{spec}, *side...)
		} else {
			*side = append(*side, spec)
		}
	}
	addSide(fwdSide, "busway:right", units.Forward, false)
	addSide(fwdSide, "busway", units.Forward, false)
	addSide(bwdSide, "busway:left", units.Backward, false)
}

func addBikeLanes(t *tags.Bag, fwdSide, bwdSide *[]LaneSpec, highwayType string, cfg config.Config) {
	w := DefaultWidth(units.Biking, highwayType)
	consider := func(side *[]LaneSpec, tag string, dir units.Direction) {
		v := t.Get(tag)
		if v == "" || v == "no" || v == "none" {
			return
		}
		if v == "shared_lane" {
			return
		}
		spec := LaneSpec{Type: units.Biking, Direction: dir, Width: w}
		bidirectional := t.Is(tag+":oneway", "no")
		if bidirectional {
			spec2 := spec
			spec2.Direction = dir.Opposite()
			spec.Width /= 2
			spec2.Width /= 2
			// Opposite-direction half sits closer to the carriageway, the
			// lane's own direction closer to the sidewalk.
			*side = append(*side, spec2, spec)
			return
		}
		*side = append(*side, spec)
	}
	consider(fwdSide, "cycleway:right", units.Forward)
	consider(fwdSide, "cycleway", units.Forward)
	consider(bwdSide, "cycleway:left", units.Backward)
}

func addParkingLanes(t *tags.Bag, fwdSide, bwdSide *[]LaneSpec, highwayType string) {
	w := DefaultWidth(units.Parking, highwayType)
	add := func(side *[]LaneSpec, tag string, dir units.Direction) {
		v := t.Get(tag)
		if v == "" || v == "no" {
			return
		}
		*side = append(*side, LaneSpec{Type: units.Parking, Direction: dir, Width: w})
	}
	both := t.Get("parking:lane:both")
	if both != "" && both != "no" {
		add(fwdSide, "parking:lane:both", units.Forward)
		add(bwdSide, "parking:lane:both", units.Backward)
		return
	}
	add(fwdSide, "parking:lane:right", units.Forward)
	add(bwdSide, "parking:lane:left", units.Backward)
}

func addShoulders(t *tags.Bag, fwdSide, bwdSide *[]LaneSpec, highwayType string) {
	switch highwayType {
	case "motorway", "trunk", "motorway_link":
	default:
		return
	}
	w := DefaultWidth(units.Shoulder, highwayType)
	*fwdSide = append(*fwdSide, LaneSpec{Type: units.Shoulder, Direction: outwardDirection(true), Width: w})
	if len(*bwdSide) > 0 {
		*bwdSide = append(*bwdSide, LaneSpec{Type: units.Shoulder, Direction: outwardDirection(false), Width: w})
	}
}

func addSidewalks(t *tags.Bag, fwdSide, bwdSide *[]LaneSpec, highwayType string) {
	w := DefaultWidth(units.Sidewalk, highwayType)
	sw := t.Get("sidewalk")
	switch sw {
	case "both":
		*fwdSide = append(*fwdSide, LaneSpec{Type: units.Sidewalk, Direction: outwardDirection(true), Width: w})
		*bwdSide = append(*bwdSide, LaneSpec{Type: units.Sidewalk, Direction: outwardDirection(false), Width: w})
	case "right":
		*fwdSide = append(*fwdSide, LaneSpec{Type: units.Sidewalk, Direction: outwardDirection(true), Width: w})
	case "left":
		*bwdSide = append(*bwdSide, LaneSpec{Type: units.Sidewalk, Direction: outwardDirection(false), Width: w})
	}
}

// outwardDirection implements spec §4.1 step 8: the outermost
// sidewalk/shoulder takes the direction label of whichever side it's
// attached to. Driving side itself doesn't enter into this — it already
// determines which side is visually left vs right through assembleLTR;
// re-deciding it here would invert the label a second time.
func outwardDirection(onForwardSide bool) units.Direction {
	if onForwardSide {
		return units.Forward
	}
	return units.Backward
}

// assembleLTR orders the built lane groups left-to-right as drawn when
// facing the direction the way was digitized, per driving side: for
// right-hand traffic, backward (oncoming) lanes sit on the left and
// forward lanes on the right; left-hand traffic mirrors this.
func assembleLTR(fwdSide, bwdSide []LaneSpec, side units.DrivingSide) []LaneSpec {
	left := bwdSide
	right := fwdSide
	if side == units.Left {
		left, right = fwdSide, bwdSide
	}
	// Each side is built center-to-outward; reverse left so the final order
	// reads consistently outward-to-outward across the whole cross-section.
	out := make([]LaneSpec, 0, len(left)+len(right))
	for i := len(left) - 1; i >= 0; i-- {
		out = append(out, left[i])
	}
	out = append(out, right...)
	return out
}

func nonMotorizedLanes(t *tags.Bag, cfg config.Config, highwayType string) []LaneSpec {
	if !nonMotorizedHighways[highwayType] {
		return nil
	}
	w := DefaultWidth(units.Footway, highwayType)
	switch highwayType {
	case "cycleway":
		if t.Is("foot", "yes") || t.Is("foot", "designated") {
			return []LaneSpec{{Type: units.SharedUse, Direction: units.Forward, Width: DefaultWidth(units.SharedUse, highwayType)}}
		}
		bidir := !isOneway(t)
		if bidir {
			return []LaneSpec{
				{Type: units.Biking, Direction: units.Forward, Width: DefaultWidth(units.Biking, highwayType)},
				{Type: units.Biking, Direction: units.Backward, Width: DefaultWidth(units.Biking, highwayType)},
			}
		}
		return []LaneSpec{{Type: units.Biking, Direction: units.Forward, Width: DefaultWidth(units.Biking, highwayType)}}
	case "footway", "pedestrian", "steps":
		if t.Is("bicycle", "yes") || t.Is("bicycle", "designated") {
			return []LaneSpec{{Type: units.SharedUse, Direction: units.Forward, Width: DefaultWidth(units.SharedUse, highwayType)}}
		}
		return []LaneSpec{{Type: units.Footway, Direction: units.Forward, Width: w}}
	case "path", "bridleway", "track":
		return []LaneSpec{{Type: units.SharedUse, Direction: units.Forward, Width: DefaultWidth(units.SharedUse, highwayType)}}
	}
	return nil
}

// maybeInferSidewalks implements spec §4.1 step 1.
func maybeInferSidewalks(t *tags.Bag, cfg config.Config, highwayType string) *tags.Bag {
	if !cfg.InferredSidewalks {
		return t
	}
	if t.Has("sidewalk") {
		return t
	}
	if nonMotorizedHighways[highwayType] {
		return t.With("sidewalk", "none")
	}
	switch highwayType {
	case "motorway", "motorway_link", "trunk_link", "service":
		return t.With("sidewalk", "none")
	}
	if isOneway(t) {
		// One-way status does not change the inferred value: one-ways get
		// sidewalks on both sides as well.
		return t.With("sidewalk", "both")
	}
	return t.With("sidewalk", "both")
}
