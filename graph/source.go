package graph

// SourceKind discriminates where a taken transition was declared.
type SourceKind uint8

const (
	// SourceState marks a transition from the owning state's own list.
	SourceState SourceKind = iota
	// SourceAnyState marks a transition from the graph-wide any-state list.
	SourceAnyState
	// SourceExit marks a transition from an exit group.
	SourceExit
)

// String names the source kind for diagnostics.
func (k SourceKind) String() string {
	switch k {
	case SourceState:
		return "state"
	case SourceAnyState:
		return "any_state"
	case SourceExit:
		return "exit"
	default:
		return "unknown"
	}
}

// TransitionSource identifies the exact declaration a taken transition came
// from. Owner is the state index for SourceState, the exit-group index for
// SourceExit, and unused (-1) for SourceAnyState; Index is the position
// within the owning list. The implicit enter-default transition is the entry
// source, with both fields negative.
type TransitionSource struct {
	Kind  SourceKind
	Owner int
	Index int
}

// EntrySource returns the sentinel source for the implicit transition into
// the default state on an uninitialized layer.
func EntrySource() TransitionSource {
	return TransitionSource{Kind: SourceState, Owner: -1, Index: -1}
}

// IsEntry reports whether the source is the implicit enter-default sentinel.
func (s TransitionSource) IsEntry() bool {
	return s.Kind == SourceState && s.Index < 0
}

// Transition resolves the source back to its declaration in the graph.
// Returns nil for the entry sentinel and for out-of-range sources.
func (g *Graph) Transition(src TransitionSource) *Transition {
	if g == nil || src.Index < 0 {
		return nil
	}
	switch src.Kind {
	case SourceState:
		state := g.State(src.Owner)
		if state == nil || src.Index >= len(state.Transitions) {
			return nil
		}
		return &state.Transitions[src.Index]
	case SourceAnyState:
		if src.Index >= len(g.anyState) {
			return nil
		}
		return &g.anyState[src.Index]
	case SourceExit:
		group := g.ExitGroup(src.Owner)
		if src.Index >= len(group) {
			return nil
		}
		return &group[src.Index]
	default:
		return nil
	}
}
