// Package graph defines the baked animation state machine asset: states,
// transitions, parameter declarations, and the builder that validates and
// compiles them. A baked Graph is immutable and safe to share across any
// number of instances.
package graph

import (
	"github.com/tanema/gween/ease"

	"github.com/Lint111/animgraph/blend"
)

// Point aliases the blend-space coordinate type.
type Point = blend.Point

// StateKind discriminates the three state payloads.
type StateKind uint8

const (
	// KindSingleClip plays exactly one clip.
	KindSingleClip StateKind = iota
	// KindLinearBlend blends clips along a single parameter axis.
	KindLinearBlend
	// KindDirectional2D blends clips positioned in a 2D space by direction.
	KindDirectional2D
)

// ParamKind discriminates parameter value types.
type ParamKind uint8

const (
	ParamBool ParamKind = iota
	ParamInt
	ParamFloat
)

// IntOp enumerates the comparators usable in integer conditions.
type IntOp uint8

const (
	IntEq IntOp = iota
	IntNotEq
	IntGreater
	IntLess
	IntGreaterEq
	IntLessEq
)

const (
	// NoParam marks an absent optional parameter reference.
	NoParam = -1
	// NoExitGroup marks a state that belongs to no exit group.
	NoExitGroup = -1
)

// Param declares a named parameter slot. Int parameters carry the range used
// to renormalize their value into [0,1] when they drive a linear blend.
type Param struct {
	Name         string
	Kind         ParamKind
	Min, Max     int32
	DefaultBool  bool
	DefaultInt   int32
	DefaultFloat float32
}

// BoolCondition compares a bool parameter against an expected value.
type BoolCondition struct {
	Param    int
	Expected bool
}

// IntCondition compares an int parameter against a constant.
type IntCondition struct {
	Param int
	Op    IntOp
	Value int32
}

// Evaluate applies the comparator to the parameter value.
func (c IntCondition) Evaluate(value int32) bool {
	switch c.Op {
	case IntEq:
		return value == c.Value
	case IntNotEq:
		return value != c.Value
	case IntGreater:
		return value > c.Value
	case IntLess:
		return value < c.Value
	case IntGreaterEq:
		return value >= c.Value
	case IntLessEq:
		return value <= c.Value
	default:
		return false
	}
}

// Transition describes one edge of the machine. Duration and Curve shape the
// cross-fade the pose mixer runs after the transition is taken; Offset is the
// normalized time the destination starts at.
type Transition struct {
	Dest                int
	Duration            float32
	Offset              float32
	Curve               ease.TweenFunc
	HasEndTime          bool
	EndTime             float32
	CanTransitionToSelf bool
	Bools               []BoolCondition
	Ints                []IntCondition
}

// HasConditions reports whether the transition carries any condition or an
// end-time gate. A transition with neither never fires.
func (t *Transition) HasConditions() bool {
	return len(t.Bools) > 0 || len(t.Ints) > 0 || t.HasEndTime
}

// BlendClip declares one linear-blend entry for the builder. Speed scales
// only the clip's contribution to the state's effective duration; zero bakes
// as 1.
type BlendClip struct {
	Clip      int
	Threshold float32
	Speed     float32
}

// DirectionalClip declares one 2D-blend entry positioned in blend space.
type DirectionalClip struct {
	Clip     int
	Position Point
	Speed    float32
}

// State is one node of the baked machine. Kind selects which payload fields
// are meaningful: Clip for single-clip states, the parallel Clips /
// Thresholds / ClipSpeeds arrays (sorted ascending by threshold) for linear
// blends, and Clips / Positions / ClipSpeeds for directional blends. The
// runtime reads these arrays every tick; they are baked once and never
// re-sorted.
type State struct {
	Name       string
	Kind       StateKind
	Speed      float32
	Loop       bool
	SpeedParam int
	ExitGroup  int

	Clip int

	Clips      []int
	Thresholds []float32
	Positions  []Point
	ClipSpeeds []float32

	BlendParam int
	ParamX     int
	ParamY     int

	Transitions []Transition
}

// ClipCount returns the number of samplers the state occupies when active.
func (s *State) ClipCount() int {
	if s.Kind == KindSingleClip {
		return 1
	}
	return len(s.Clips)
}

// Graph is the baked, immutable state machine asset. Construct one through a
// Builder; zero values and partially filled literals are not valid graphs.
type Graph struct {
	name         string
	states       []State
	anyState     []Transition
	exitGroups   [][]Transition
	defaultState int
	params       []Param

	stateIndex map[string]int
	paramIndex map[string]int
	groupIndex map[string]int
}

// Name returns the graph's authoring name.
func (g *Graph) Name() string {
	if g == nil {
		return ""
	}
	return g.name
}

// NumStates returns the number of states.
func (g *Graph) NumStates() int {
	if g == nil {
		return 0
	}
	return len(g.states)
}

// State returns the state at the given index, or nil when out of range.
func (g *Graph) State(index int) *State {
	if g == nil || index < 0 || index >= len(g.states) {
		return nil
	}
	return &g.states[index]
}

// DefaultState returns the index of the state entered on the first tick.
func (g *Graph) DefaultState() int {
	if g == nil {
		return 0
	}
	return g.defaultState
}

// AnyStateTransitions returns the global transition list evaluated before any
// state-local transitions.
func (g *Graph) AnyStateTransitions() []Transition {
	if g == nil {
		return nil
	}
	return g.anyState
}

// NumExitGroups returns the number of declared exit groups.
func (g *Graph) NumExitGroups() int {
	if g == nil {
		return 0
	}
	return len(g.exitGroups)
}

// ExitGroup returns the transitions of the exit group at the given index.
func (g *Graph) ExitGroup(index int) []Transition {
	if g == nil || index < 0 || index >= len(g.exitGroups) {
		return nil
	}
	return g.exitGroups[index]
}

// Params returns the parameter declarations in baked order.
func (g *Graph) Params() []Param {
	if g == nil {
		return nil
	}
	return g.params
}

// Param returns the declaration at the given index, or nil when out of range.
func (g *Graph) Param(index int) *Param {
	if g == nil || index < 0 || index >= len(g.params) {
		return nil
	}
	return &g.params[index]
}

// StateIndex resolves a state name (case-insensitive) to its index.
func (g *Graph) StateIndex(name string) (int, bool) {
	if g == nil {
		return 0, false
	}
	idx, ok := g.stateIndex[foldName(name)]
	return idx, ok
}

// ParamIndex resolves a parameter name (case-insensitive) to its index.
func (g *Graph) ParamIndex(name string) (int, bool) {
	if g == nil {
		return 0, false
	}
	idx, ok := g.paramIndex[foldName(name)]
	return idx, ok
}

// StateNames returns a copy of the state names in index order.
func (g *Graph) StateNames() []string {
	if g == nil {
		return nil
	}
	out := make([]string, len(g.states))
	for i := range g.states {
		out[i] = g.states[i].Name
	}
	return out
}
