package lanes

import (
	"testing"

	"streets/config"
	"streets/tags"
	"streets/units"
)

func countType(specs []LaneSpec, lt units.LaneType) int {
	n := 0
	for _, s := range specs {
		if s.Type == lt {
			n++
		}
	}
	return n
}

var laneTypeLetters = map[units.LaneType]byte{
	units.Sidewalk: 's',
	units.Parking:  'p',
	units.Driving:  'd',
	units.Biking:   'b',
	units.Bus:      'u',
	units.Shoulder: 'h',
}

// laneString renders specs as a lane-type letter per lane, and
// directionString renders a forward('^')/backward('v') arrow per lane, in
// left-to-right order, matching spec §8's notation for its literal
// end-to-end scenarios.
func laneString(specs []LaneSpec) string {
	out := make([]byte, len(specs))
	for i, s := range specs {
		c, ok := laneTypeLetters[s.Type]
		if !ok {
			c = '?'
		}
		out[i] = c
	}
	return string(out)
}

func directionString(specs []LaneSpec) string {
	out := make([]byte, len(specs))
	for i, s := range specs {
		if s.Direction == units.Forward {
			out[i] = '^'
		} else {
			out[i] = 'v'
		}
	}
	return string(out)
}

func TestInferResidentialDefaultsToTwoWayDriving(t *testing.T) {
	cfg := config.Default()
	cfg.InferredSidewalks = false
	b := tags.FromMap(map[string]string{"highway": "residential"})

	specs := Infer(b, cfg, "residential")

	if got := countType(specs, units.Driving); got != 2 {
		t.Fatalf("expected 2 driving lanes, got %d (%+v)", got, specs)
	}
	var sawFwd, sawBwd bool
	for _, s := range specs {
		if s.Type == units.Driving {
			if s.Direction == units.Forward {
				sawFwd = true
			} else {
				sawBwd = true
			}
		}
	}
	if !sawFwd || !sawBwd {
		t.Fatalf("expected one forward and one backward driving lane, got %+v", specs)
	}
}

func TestInferOnewayHasNoBackwardDriving(t *testing.T) {
	cfg := config.Default()
	b := tags.FromMap(map[string]string{"highway": "primary", "oneway": "yes", "lanes": "3"})

	specs := Infer(b, cfg, "primary")

	for _, s := range specs {
		if s.Type == units.Driving && s.Direction == units.Backward {
			t.Fatalf("one-way road must not have a backward driving lane: %+v", specs)
		}
	}
	if got := countType(specs, units.Driving); got != 3 {
		t.Fatalf("expected 3 driving lanes from lanes=3, got %d", got)
	}
}

func TestInferFourWaySignalizedScenario(t *testing.T) {
	// Spec §8 scenario 3: lanes=4, sidewalk=both, parking:lane:both=parallel,
	// cycleway:right=track, cycleway:right:oneway=no.
	cfg := config.Default()
	cfg.InferredSidewalks = false
	b := tags.FromMap(map[string]string{
		"highway":              "residential",
		"lanes":                "4",
		"sidewalk":             "both",
		"parking:lane:both":    "parallel",
		"cycleway:right":       "track",
		"cycleway:right:oneway": "no",
	})

	specs := Infer(b, cfg, "residential")

	if got := countType(specs, units.Driving); got != 4 {
		t.Fatalf("expected 4 driving lanes, got %d: %+v", got, specs)
	}
	if got := countType(specs, units.Parking); got != 2 {
		t.Fatalf("expected 2 parking lanes, got %d: %+v", got, specs)
	}
	if got := countType(specs, units.Sidewalk); got != 2 {
		t.Fatalf("expected 2 sidewalk lanes, got %d: %+v", got, specs)
	}
	if got := countType(specs, units.Biking); got != 2 {
		t.Fatalf("expected 2 biking lanes from the bidirectional track, got %d: %+v", got, specs)
	}
	if got := laneString(specs); got != "spddddpbbs" {
		t.Fatalf("unexpected lane order: got %q, want %q (%+v)", got, "spddddpbbs", specs)
	}
	if got := directionString(specs); got != "vvvv^^^v^^" {
		t.Fatalf("unexpected lane directions: got %q, want %q (%+v)", got, "vvvv^^^v^^", specs)
	}
}

func TestInferLeftHandTrafficResidential(t *testing.T) {
	// Spec §8 scenario 4.
	cfg := config.Default()
	cfg.DrivingSide = units.Left
	cfg.InferredSidewalks = false
	b := tags.FromMap(map[string]string{"highway": "residential", "oneway": "no", "sidewalk": "both"})

	specs := Infer(b, cfg, "residential")

	if got := countType(specs, units.Driving); got != 2 {
		t.Fatalf("expected 2 driving lanes, got %d: %+v", got, specs)
	}
	if got := countType(specs, units.Sidewalk); got != 2 {
		t.Fatalf("expected 2 sidewalk lanes, got %d: %+v", got, specs)
	}
	if got := laneString(specs); got != "sdds" {
		t.Fatalf("unexpected lane order: got %q, want %q (%+v)", got, "sdds", specs)
	}
	if got := directionString(specs); got != "^^vv" {
		t.Fatalf("unexpected lane directions: got %q, want %q (%+v)", got, "^^vv", specs)
	}
}

func TestInferConstructionOverridesEveryLane(t *testing.T) {
	cfg := config.Default()
	b := tags.FromMap(map[string]string{"highway": "construction", "construction": "residential", "lanes": "2"})

	specs := Infer(b, cfg, "construction")

	for _, s := range specs {
		if s.Type != units.Construction {
			t.Fatalf("expected every lane to be Construction, got %+v", specs)
		}
	}
}

func TestInferIsDeterministic(t *testing.T) {
	cfg := config.Default()
	b := tags.FromMap(map[string]string{"highway": "secondary", "lanes": "5", "sidewalk": "both"})

	a := Infer(b, cfg, "secondary")
	c := Infer(b, cfg, "secondary")

	if len(a) != len(c) {
		t.Fatalf("lane inference is not deterministic: %d vs %d lanes", len(a), len(c))
	}
	for i := range a {
		if a[i].Type != c[i].Type || a[i].Buffer != c[i].Buffer || a[i].Direction != c[i].Direction || a[i].Width != c[i].Width {
			t.Fatalf("lane inference is not deterministic at index %d: %+v vs %+v", i, a[i], c[i])
		}
	}
}

func TestInferMotorwayStripsShoulderWhenFootNo(t *testing.T) {
	cfg := config.Default()
	b := tags.FromMap(map[string]string{"highway": "motorway", "foot": "no", "oneway": "yes", "lanes": "3"})

	specs := Infer(b, cfg, "motorway")

	if countType(specs, units.Shoulder) != 0 {
		t.Fatalf("expected no shoulder lanes, got %+v", specs)
	}
}

func TestResolvePlacementDefaults(t *testing.T) {
	p := ResolvePlacement("")
	if p.Kind != PlacementCenterCarriageway {
		t.Fatalf("expected default placement to be center of carriageway, got %v", p.Kind)
	}
}

func TestResolvePlacementNamedLane(t *testing.T) {
	p := ResolvePlacement("right_of:2")
	if p.Kind != PlacementNamedLane || p.LaneIndex != 2 || p.Side != SideRight {
		t.Fatalf("unexpected placement: %+v", p)
	}
}
