package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tanema/gween/ease"
)

const originEpsilon = 1e-4

func foldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// StateSpec declares one state for the builder. References to parameters and
// exit groups are by name and resolved at bake time. A zero Speed bakes as 1.
type StateSpec struct {
	Name       string
	Kind       StateKind
	Speed      float32
	Loop       bool
	SpeedParam string
	ExitGroup  string

	Clip int

	Clips      []BlendClip
	BlendParam string

	Points []DirectionalClip
	ParamX string
	ParamY string

	Transitions []TransitionSpec
}

// TransitionSpec declares one transition with its destination by name.
type TransitionSpec struct {
	To                  string
	Duration            float32
	Offset              float32
	Curve               ease.TweenFunc
	HasEndTime          bool
	EndTime             float32
	CanTransitionToSelf bool
	Bools               []BoolConditionSpec
	Ints                []IntConditionSpec
}

// BoolConditionSpec references a bool parameter by name.
type BoolConditionSpec struct {
	Param    string
	Expected bool
}

// IntConditionSpec references an int parameter by name.
type IntConditionSpec struct {
	Param string
	Op    IntOp
	Value int32
}

type exitGroupSpec struct {
	name        string
	transitions []TransitionSpec
}

// Builder accumulates a machine declaration and bakes it into an immutable
// Graph. The zero value is not usable; construct with NewBuilder.
type Builder struct {
	name         string
	params       []Param
	states       []StateSpec
	anyState     []TransitionSpec
	exitGroups   []exitGroupSpec
	defaultState string
}

// NewBuilder starts a graph declaration with the given authoring name.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// AddBoolParam declares a bool parameter and returns the builder.
func (b *Builder) AddBoolParam(name string, def bool) *Builder {
	b.params = append(b.params, Param{Name: name, Kind: ParamBool, DefaultBool: def})
	return b
}

// AddIntParam declares an int parameter with the range used when the
// parameter drives a linear blend.
func (b *Builder) AddIntParam(name string, def, min, max int32) *Builder {
	b.params = append(b.params, Param{Name: name, Kind: ParamInt, DefaultInt: def, Min: min, Max: max})
	return b
}

// AddFloatParam declares a float parameter.
func (b *Builder) AddFloatParam(name string, def float32) *Builder {
	b.params = append(b.params, Param{Name: name, Kind: ParamFloat, DefaultFloat: def})
	return b
}

// AddState appends a state declaration.
func (b *Builder) AddState(spec StateSpec) *Builder {
	b.states = append(b.states, spec)
	return b
}

// AddAnyStateTransition appends a transition to the graph-wide any-state
// list, evaluated before every state's own transitions.
func (b *Builder) AddAnyStateTransition(spec TransitionSpec) *Builder {
	b.anyState = append(b.anyState, spec)
	return b
}

// AddExitGroup declares a named exit group. States reference the group by
// name through StateSpec.ExitGroup; its transitions are evaluated after a
// member state's own transitions.
func (b *Builder) AddExitGroup(name string, transitions ...TransitionSpec) *Builder {
	b.exitGroups = append(b.exitGroups, exitGroupSpec{name: name, transitions: transitions})
	return b
}

// SetDefaultState names the state entered on the first tick. When unset, the
// first declared state is the default.
func (b *Builder) SetDefaultState(name string) *Builder {
	b.defaultState = name
	return b
}

// Bake validates the declaration and compiles it into an immutable Graph.
func (b *Builder) Bake() (*Graph, error) {
	g, err := b.bake()
	if err != nil {
		return nil, fmt.Errorf("graph: bake %q: %w", b.name, err)
	}
	return g, nil
}

func (b *Builder) bake() (*Graph, error) {
	if len(b.states) == 0 {
		return nil, fmt.Errorf("no states defined")
	}

	g := &Graph{
		name:       strings.TrimSpace(b.name),
		states:     make([]State, 0, len(b.states)),
		params:     make([]Param, len(b.params)),
		stateIndex: make(map[string]int, len(b.states)),
		paramIndex: make(map[string]int, len(b.params)),
		groupIndex: make(map[string]int, len(b.exitGroups)),
	}
	copy(g.params, b.params)

	for idx, param := range g.params {
		name := foldName(param.Name)
		if name == "" {
			return nil, fmt.Errorf("parameter %d missing name", idx)
		}
		if _, exists := g.paramIndex[name]; exists {
			return nil, fmt.Errorf("duplicate parameter %q", param.Name)
		}
		if param.Kind == ParamInt && param.Min > param.Max {
			return nil, fmt.Errorf("parameter %q has inverted range [%d,%d]", param.Name, param.Min, param.Max)
		}
		g.paramIndex[name] = idx
	}

	for idx, spec := range b.states {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return nil, fmt.Errorf("state %d missing name", idx)
		}
		lower := foldName(name)
		if _, exists := g.stateIndex[lower]; exists {
			return nil, fmt.Errorf("duplicate state %q", name)
		}
		g.stateIndex[lower] = idx
	}

	for idx, group := range b.exitGroups {
		name := foldName(group.name)
		if name == "" {
			return nil, fmt.Errorf("exit group %d missing name", idx)
		}
		if _, exists := g.groupIndex[name]; exists {
			return nil, fmt.Errorf("duplicate exit group %q", group.name)
		}
		g.groupIndex[name] = idx
	}

	g.defaultState = 0
	if b.defaultState != "" {
		idx, ok := g.stateIndex[foldName(b.defaultState)]
		if !ok {
			return nil, fmt.Errorf("default state %q not declared", b.defaultState)
		}
		g.defaultState = idx
	}

	for _, spec := range b.states {
		state, err := b.bakeState(g, spec)
		if err != nil {
			return nil, err
		}
		g.states = append(g.states, state)
	}

	for i, spec := range b.anyState {
		transition, err := b.bakeTransition(g, spec)
		if err != nil {
			return nil, fmt.Errorf("any-state transition %d: %w", i, err)
		}
		g.anyState = append(g.anyState, transition)
	}

	g.exitGroups = make([][]Transition, len(b.exitGroups))
	for gi, group := range b.exitGroups {
		baked := make([]Transition, 0, len(group.transitions))
		for ti, spec := range group.transitions {
			transition, err := b.bakeTransition(g, spec)
			if err != nil {
				return nil, fmt.Errorf("exit group %q transition %d: %w", group.name, ti, err)
			}
			baked = append(baked, transition)
		}
		g.exitGroups[gi] = baked
	}

	return g, nil
}

func (b *Builder) bakeState(g *Graph, spec StateSpec) (State, error) {
	state := State{
		Name:       strings.TrimSpace(spec.Name),
		Kind:       spec.Kind,
		Speed:      spec.Speed,
		Loop:       spec.Loop,
		SpeedParam: NoParam,
		ExitGroup:  NoExitGroup,
		BlendParam: NoParam,
		ParamX:     NoParam,
		ParamY:     NoParam,
	}
	if state.Speed == 0 {
		state.Speed = 1
	}

	if spec.SpeedParam != "" {
		idx, err := b.resolveParam(g, spec.SpeedParam, ParamFloat)
		if err != nil {
			return State{}, fmt.Errorf("state %q speed parameter: %w", spec.Name, err)
		}
		state.SpeedParam = idx
	}

	if spec.ExitGroup != "" {
		idx, ok := g.groupIndex[foldName(spec.ExitGroup)]
		if !ok {
			return State{}, fmt.Errorf("state %q references unknown exit group %q", spec.Name, spec.ExitGroup)
		}
		state.ExitGroup = idx
	}

	switch spec.Kind {
	case KindSingleClip:
		if spec.Clip < 0 {
			return State{}, fmt.Errorf("state %q has negative clip index", spec.Name)
		}
		state.Clip = spec.Clip
	case KindLinearBlend:
		if len(spec.Clips) == 0 {
			return State{}, fmt.Errorf("state %q has no blend clips", spec.Name)
		}
		if spec.BlendParam == "" {
			return State{}, fmt.Errorf("state %q missing blend parameter", spec.Name)
		}
		idx, err := b.resolveBlendParam(g, spec.BlendParam)
		if err != nil {
			return State{}, fmt.Errorf("state %q blend parameter: %w", spec.Name, err)
		}
		state.BlendParam = idx
		entries := make([]BlendClip, len(spec.Clips))
		copy(entries, spec.Clips)
		for i := range entries {
			if entries[i].Clip < 0 {
				return State{}, fmt.Errorf("state %q has negative clip index", spec.Name)
			}
			if entries[i].Speed == 0 {
				entries[i].Speed = 1
			}
		}
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Threshold < entries[j].Threshold
		})
		state.Clips = make([]int, len(entries))
		state.Thresholds = make([]float32, len(entries))
		state.ClipSpeeds = make([]float32, len(entries))
		for i, entry := range entries {
			state.Clips[i] = entry.Clip
			state.Thresholds[i] = entry.Threshold
			state.ClipSpeeds[i] = entry.Speed
		}
	case KindDirectional2D:
		if len(spec.Points) == 0 {
			return State{}, fmt.Errorf("state %q has no blend clips", spec.Name)
		}
		px, err := b.resolveParam(g, spec.ParamX, ParamFloat)
		if err != nil {
			return State{}, fmt.Errorf("state %q x parameter: %w", spec.Name, err)
		}
		py, err := b.resolveParam(g, spec.ParamY, ParamFloat)
		if err != nil {
			return State{}, fmt.Errorf("state %q y parameter: %w", spec.Name, err)
		}
		state.ParamX, state.ParamY = px, py
		state.Clips = make([]int, len(spec.Points))
		state.Positions = make([]Point, len(spec.Points))
		state.ClipSpeeds = make([]float32, len(spec.Points))
		idleCount := 0
		for i, entry := range spec.Points {
			if entry.Clip < 0 {
				return State{}, fmt.Errorf("state %q has negative clip index", spec.Name)
			}
			if entry.Speed == 0 {
				entry.Speed = 1
			}
			if entry.Position.Magnitude() < originEpsilon {
				idleCount++
			}
			state.Clips[i] = entry.Clip
			state.Positions[i] = entry.Position
			state.ClipSpeeds[i] = entry.Speed
		}
		if idleCount > 1 {
			return State{}, fmt.Errorf("state %q has %d clips on the blend-space origin", spec.Name, idleCount)
		}
	default:
		return State{}, fmt.Errorf("state %q has unknown kind %d", spec.Name, spec.Kind)
	}

	state.Transitions = make([]Transition, 0, len(spec.Transitions))
	for i, tspec := range spec.Transitions {
		transition, err := b.bakeTransition(g, tspec)
		if err != nil {
			return State{}, fmt.Errorf("state %q transition %d: %w", spec.Name, i, err)
		}
		state.Transitions = append(state.Transitions, transition)
	}

	return state, nil
}

func (b *Builder) bakeTransition(g *Graph, spec TransitionSpec) (Transition, error) {
	target := strings.TrimSpace(spec.To)
	if target == "" {
		return Transition{}, fmt.Errorf("missing target state")
	}
	dest, ok := g.stateIndex[foldName(target)]
	if !ok {
		return Transition{}, fmt.Errorf("references unknown state %q", target)
	}
	if spec.Duration < 0 {
		return Transition{}, fmt.Errorf("negative duration %v", spec.Duration)
	}

	transition := Transition{
		Dest:                dest,
		Duration:            spec.Duration,
		Offset:              spec.Offset,
		Curve:               spec.Curve,
		HasEndTime:          spec.HasEndTime,
		EndTime:             spec.EndTime,
		CanTransitionToSelf: spec.CanTransitionToSelf,
	}

	for _, cond := range spec.Bools {
		idx, err := b.resolveParam(g, cond.Param, ParamBool)
		if err != nil {
			return Transition{}, fmt.Errorf("bool condition: %w", err)
		}
		transition.Bools = append(transition.Bools, BoolCondition{Param: idx, Expected: cond.Expected})
	}
	for _, cond := range spec.Ints {
		if cond.Op > IntLessEq {
			return Transition{}, fmt.Errorf("unknown comparator %d", cond.Op)
		}
		idx, err := b.resolveParam(g, cond.Param, ParamInt)
		if err != nil {
			return Transition{}, fmt.Errorf("int condition: %w", err)
		}
		transition.Ints = append(transition.Ints, IntCondition{Param: idx, Op: cond.Op, Value: cond.Value})
	}

	return transition, nil
}

func (b *Builder) resolveParam(g *Graph, name string, kind ParamKind) (int, error) {
	if strings.TrimSpace(name) == "" {
		return 0, fmt.Errorf("missing parameter name")
	}
	idx, ok := g.paramIndex[foldName(name)]
	if !ok {
		return 0, fmt.Errorf("unknown parameter %q", name)
	}
	if g.params[idx].Kind != kind {
		return 0, fmt.Errorf("parameter %q has the wrong kind", name)
	}
	return idx, nil
}

// resolveBlendParam accepts float or int parameters; int values are
// renormalized into [0,1] from their declared range at evaluation time.
func (b *Builder) resolveBlendParam(g *Graph, name string) (int, error) {
	if strings.TrimSpace(name) == "" {
		return 0, fmt.Errorf("missing parameter name")
	}
	idx, ok := g.paramIndex[foldName(name)]
	if !ok {
		return 0, fmt.Errorf("unknown parameter %q", name)
	}
	switch g.params[idx].Kind {
	case ParamFloat:
	case ParamInt:
		if g.params[idx].Min >= g.params[idx].Max {
			return 0, fmt.Errorf("parameter %q needs a non-empty range to drive a blend", name)
		}
	default:
		return 0, fmt.Errorf("parameter %q must be a float or int parameter", name)
	}
	return idx, nil
}
