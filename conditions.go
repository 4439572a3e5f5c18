package animgraph

import "github.com/Lint111/animgraph/graph"

// conditionsMet evaluates one transition against the parameter store and the
// current playback time. The check is pure: nothing is consumed and repeated
// evaluation within a tick returns the same answer.
//
// A transition with no conditions and no end time never fires; hosts that
// want an unconditional transition author an end time of 0. The end-time
// gate compares against the playback's running time in seconds and combines
// with any conditions as a conjunction.
func conditionsMet(t *graph.Transition, time float32, params *Parameters) bool {
	if !t.HasConditions() {
		return false
	}
	if t.HasEndTime && time < t.EndTime {
		return false
	}
	for _, cond := range t.Bools {
		if params.Bool(cond.Param) != cond.Expected {
			return false
		}
	}
	for _, cond := range t.Ints {
		if !cond.Evaluate(params.Int(cond.Param)) {
			return false
		}
	}
	return true
}
