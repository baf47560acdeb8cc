// Package transform implements the named graph-rewriting passes that clean
// up a freshly split StreetNetwork, and the pipeline that runs them in
// order.
//
// Each pass is a reusable, introspectable step over a StreetNetwork,
// mutating the graph in place and reporting what it did, in the style of a
// fixed ordered list of named phases run one after another.
package transform

import (
	"fmt"
	"log"

	"streets/network"
)

// Pass mutates a network in place. It may remove roads/intersections but
// must leave sn in a state where network.StreetNetwork's invariants hold
// once it returns without error.
type Pass func(sn *network.StreetNetwork) error

// Step names a single pipeline stage, for logging and debug snapshotting.
type Step struct {
	Name string
	Fn   Pass
}

// Snapshot is a named copy of a network mid-pipeline, produced only when a
// Run caller supplies a non-nil onStep callback.
type Snapshot struct {
	Label   string
	Network *network.StreetNetwork
}

// DefaultPipeline returns the standard pass order for a clipped area:
// dead-end cycleway trim, sausage-link collapse, short-road collapse,
// degenerate-intersection collapse, and a second short-road collapse pass
// (new short roads can appear after the first three).
func DefaultPipeline() []Step {
	return []Step{
		{Name: "TrimDeadendCycleways", Fn: TrimDeadendCycleways},
		{Name: "CollapseSausageLinks", Fn: CollapseSausageLinks},
		{Name: "CollapseShortRoads", Fn: CollapseShortRoads},
		{Name: "CollapseDegenerateIntersections", Fn: CollapseDegenerateIntersections},
		{Name: "CollapseShortRoads", Fn: CollapseShortRoads},
	}
}

// ExperimentalPipeline returns the optional extra passes:
// MergeDualCarriageways, ZipSidepaths, and RemoveDisconnectedRoads. The
// first two are weaker-guarantee, prototype-quality passes; callers that
// want them run them after DefaultPipeline, not instead of it.
func ExperimentalPipeline() []Step {
	return []Step{
		{Name: "MergeDualCarriageways", Fn: MergeDualCarriageways},
		{Name: "ZipSidepaths", Fn: ZipSidepaths},
		{Name: "RemoveDisconnectedRoads", Fn: RemoveDisconnectedRoads},
	}
}

// Run executes steps in order against sn. If onStep is non-nil, it is
// called after every step with a label and a pointer to sn (the network is
// mutated in place; a caller that wants an independent snapshot to persist
// must copy what it needs out of the callback — the core does not
// deep-copy on its own). A step's error aborts the remaining pipeline and
// is returned wrapped with the step's name. Invariant violations after a
// step are logged but do not abort; use RunChecked to treat them as fatal.
func Run(sn *network.StreetNetwork, steps []Step, onStep func(Snapshot)) error {
	return run(sn, steps, onStep, false)
}

// RunChecked is the checked-pipeline variant of Run: invariants are
// verified after every step, and any violation halts the run with an
// error. A pass that breaks them is a programming error, not bad input,
// so there is nothing sensible to continue with.
func RunChecked(sn *network.StreetNetwork, steps []Step, onStep func(Snapshot)) error {
	return run(sn, steps, onStep, true)
}

func run(sn *network.StreetNetwork, steps []Step, onStep func(Snapshot), checked bool) error {
	for _, step := range steps {
		if err := step.Fn(sn); err != nil {
			return fmt.Errorf("transform: %s: %w", step.Name, err)
		}
		if errs := sn.CheckInvariants(); len(errs) > 0 {
			if checked {
				return fmt.Errorf("transform: %s violated invariants: %w", step.Name, errs[0])
			}
			log.Printf("Warning: transform: %s left %d invariant violations: %v", step.Name, len(errs), errs[0])
		}
		if onStep != nil {
			onStep(Snapshot{Label: step.Name, Network: sn})
		}
	}
	return nil
}
