package graph

import (
	"strings"
	"testing"
)

func locomotionBuilder() *Builder {
	b := NewBuilder("locomotion")
	b.AddBoolParam("isMoving", false)
	b.AddFloatParam("speed", 0)
	b.AddFloatParam("dirX", 0)
	b.AddFloatParam("dirY", 0)
	b.AddIntParam("stance", 0, 0, 3)
	b.AddState(StateSpec{
		Name: "idle",
		Kind: KindSingleClip,
		Clip: 0,
		Loop: true,
		Transitions: []TransitionSpec{
			{To: "move", Duration: 0.25, Bools: []BoolConditionSpec{{Param: "isMoving", Expected: true}}},
		},
	})
	b.AddState(StateSpec{
		Name:       "move",
		Kind:       KindLinearBlend,
		Loop:       true,
		BlendParam: "speed",
		Clips: []BlendClip{
			{Clip: 2, Threshold: 1},
			{Clip: 1, Threshold: 0},
		},
		Transitions: []TransitionSpec{
			{To: "idle", Duration: 0.25, Bools: []BoolConditionSpec{{Param: "isMoving", Expected: false}}},
		},
	})
	return b
}

func mustBake(t *testing.T, b *Builder) *Graph {
	t.Helper()
	g, err := b.Bake()
	if err != nil {
		t.Fatalf("bake failed: %v", err)
	}
	return g
}

func TestBakeResolvesNamesAndSortsThresholds(t *testing.T) {
	g := mustBake(t, locomotionBuilder())

	if g.NumStates() != 2 {
		t.Fatalf("expected 2 states, got %d", g.NumStates())
	}
	idx, ok := g.StateIndex("Move")
	if !ok || idx != 1 {
		t.Fatalf("expected case-insensitive lookup of move at index 1, got %d ok=%v", idx, ok)
	}

	move := g.State(idx)
	if move.Kind != KindLinearBlend {
		t.Fatalf("expected linear blend state, got kind %d", move.Kind)
	}
	if len(move.Thresholds) != 2 || move.Thresholds[0] != 0 || move.Thresholds[1] != 1 {
		t.Fatalf("expected thresholds sorted to [0 1], got %v", move.Thresholds)
	}
	if move.Clips[0] != 1 || move.Clips[1] != 2 {
		t.Fatalf("expected clip order to follow thresholds, got %v", move.Clips)
	}
	if move.ClipSpeeds[0] != 1 {
		t.Fatalf("expected zero clip speed to bake as 1, got %v", move.ClipSpeeds[0])
	}
	if move.Speed != 1 {
		t.Fatalf("expected zero state speed to bake as 1, got %v", move.Speed)
	}

	idle := g.State(0)
	if len(idle.Transitions) != 1 || idle.Transitions[0].Dest != 1 {
		t.Fatalf("expected idle transition to resolve to state 1, got %+v", idle.Transitions)
	}
	cond := idle.Transitions[0].Bools[0]
	if param := g.Param(cond.Param); param == nil || param.Name != "isMoving" {
		t.Fatalf("expected bool condition to reference isMoving, got %+v", cond)
	}
}

func TestBakeDefaultState(t *testing.T) {
	g := mustBake(t, locomotionBuilder())
	if g.DefaultState() != 0 {
		t.Fatalf("expected first state as default, got %d", g.DefaultState())
	}

	b := locomotionBuilder()
	b.SetDefaultState("move")
	g = mustBake(t, b)
	if g.DefaultState() != 1 {
		t.Fatalf("expected move as default, got %d", g.DefaultState())
	}

	b = locomotionBuilder()
	b.SetDefaultState("missing")
	if _, err := b.Bake(); err == nil {
		t.Fatal("expected error for unknown default state")
	}
}

func TestBakeRejectsUnknownTransitionTarget(t *testing.T) {
	b := NewBuilder("broken")
	b.AddState(StateSpec{
		Name:        "idle",
		Kind:        KindSingleClip,
		Transitions: []TransitionSpec{{To: "nowhere"}},
	})
	_, err := b.Bake()
	if err == nil {
		t.Fatal("expected error for unknown transition target")
	}
	if !strings.Contains(err.Error(), "nowhere") {
		t.Fatalf("expected error to name the missing state, got %v", err)
	}
}

func TestBakeRejectsDuplicateStates(t *testing.T) {
	b := NewBuilder("broken")
	b.AddState(StateSpec{Name: "Idle", Kind: KindSingleClip})
	b.AddState(StateSpec{Name: "idle", Kind: KindSingleClip})
	if _, err := b.Bake(); err == nil {
		t.Fatal("expected error for case-insensitive duplicate state")
	}
}

func TestBakeRejectsEmptyGraph(t *testing.T) {
	if _, err := NewBuilder("empty").Bake(); err == nil {
		t.Fatal("expected error for graph without states")
	}
}

func TestBakeRejectsWrongConditionKind(t *testing.T) {
	b := NewBuilder("broken")
	b.AddFloatParam("speed", 0)
	b.AddState(StateSpec{Name: "a", Kind: KindSingleClip})
	b.AddState(StateSpec{
		Name: "b",
		Kind: KindSingleClip,
		Transitions: []TransitionSpec{
			{To: "a", Bools: []BoolConditionSpec{{Param: "speed", Expected: true}}},
		},
	})
	if _, err := b.Bake(); err == nil {
		t.Fatal("expected error for bool condition on a float parameter")
	}
}

func TestBakeRejectsBlendWithoutClips(t *testing.T) {
	b := NewBuilder("broken")
	b.AddFloatParam("speed", 0)
	b.AddState(StateSpec{Name: "move", Kind: KindLinearBlend, BlendParam: "speed"})
	if _, err := b.Bake(); err == nil {
		t.Fatal("expected error for blend state without clips")
	}
}

func TestBakeRejectsMultipleIdleClips(t *testing.T) {
	b := NewBuilder("broken")
	b.AddFloatParam("dirX", 0)
	b.AddFloatParam("dirY", 0)
	b.AddState(StateSpec{
		Name:   "strafe",
		Kind:   KindDirectional2D,
		ParamX: "dirX",
		ParamY: "dirY",
		Points: []DirectionalClip{
			{Clip: 0, Position: Point{X: 0, Y: 0}},
			{Clip: 1, Position: Point{X: 0, Y: 0.00001}},
			{Clip: 2, Position: Point{X: 1, Y: 0}},
		},
	})
	if _, err := b.Bake(); err == nil {
		t.Fatal("expected error for two clips on the blend-space origin")
	}
}

func TestBakeRejectsIntBlendParamWithoutRange(t *testing.T) {
	b := NewBuilder("broken")
	b.AddIntParam("stance", 0, 0, 0)
	b.AddState(StateSpec{
		Name:       "aim",
		Kind:       KindLinearBlend,
		BlendParam: "stance",
		Clips:      []BlendClip{{Clip: 0, Threshold: 0}, {Clip: 1, Threshold: 1}},
	})
	if _, err := b.Bake(); err == nil {
		t.Fatal("expected error for int blend parameter with an empty range")
	}
}

func TestBakeAcceptsIntBlendParam(t *testing.T) {
	b := NewBuilder("aim")
	b.AddIntParam("stance", 0, 0, 3)
	b.AddState(StateSpec{
		Name:       "aim",
		Kind:       KindLinearBlend,
		BlendParam: "stance",
		Clips:      []BlendClip{{Clip: 0, Threshold: 0}, {Clip: 1, Threshold: 1}},
	})
	g := mustBake(t, b)
	if g.State(0).BlendParam != 0 {
		t.Fatalf("expected blend param index 0, got %d", g.State(0).BlendParam)
	}
}

func TestBakeRejectsNegativeDuration(t *testing.T) {
	b := NewBuilder("broken")
	b.AddState(StateSpec{Name: "a", Kind: KindSingleClip})
	b.AddAnyStateTransition(TransitionSpec{To: "a", Duration: -1})
	if _, err := b.Bake(); err == nil {
		t.Fatal("expected error for negative transition duration")
	}
}

func TestBakeExitGroups(t *testing.T) {
	b := NewBuilder("combat")
	b.AddBoolParam("done", false)
	b.AddExitGroup("finishers", TransitionSpec{
		To:    "idle",
		Bools: []BoolConditionSpec{{Param: "done", Expected: true}},
	})
	b.AddState(StateSpec{Name: "idle", Kind: KindSingleClip, Loop: true})
	b.AddState(StateSpec{Name: "swing", Kind: KindSingleClip, ExitGroup: "finishers"})
	g := mustBake(t, b)

	swing := g.State(1)
	if swing.ExitGroup != 0 {
		t.Fatalf("expected swing to reference exit group 0, got %d", swing.ExitGroup)
	}
	if g.State(0).ExitGroup != NoExitGroup {
		t.Fatalf("expected idle to carry no exit group, got %d", g.State(0).ExitGroup)
	}
	group := g.ExitGroup(0)
	if len(group) != 1 || group[0].Dest != 0 {
		t.Fatalf("expected one exit transition to idle, got %+v", group)
	}
}

func TestBakeRejectsUnknownExitGroup(t *testing.T) {
	b := NewBuilder("broken")
	b.AddState(StateSpec{Name: "swing", Kind: KindSingleClip, ExitGroup: "finishers"})
	if _, err := b.Bake(); err == nil {
		t.Fatal("expected error for unknown exit group")
	}
}

func TestTransitionSourceResolution(t *testing.T) {
	b := locomotionBuilder()
	b.AddAnyStateTransition(TransitionSpec{
		To:       "idle",
		Duration: 0.1,
		Ints:     []IntConditionSpec{{Param: "stance", Op: IntGreaterEq, Value: 2}},
	})
	g := mustBake(t, b)

	own := g.Transition(TransitionSource{Kind: SourceState, Owner: 0, Index: 0})
	if own == nil || own.Dest != 1 {
		t.Fatalf("expected state source to resolve idle's transition, got %+v", own)
	}
	any := g.Transition(TransitionSource{Kind: SourceAnyState, Owner: -1, Index: 0})
	if any == nil || any.Dest != 0 {
		t.Fatalf("expected any-state source to resolve, got %+v", any)
	}
	if got := g.Transition(EntrySource()); got != nil {
		t.Fatalf("expected entry source to resolve to nil, got %+v", got)
	}
	if !EntrySource().IsEntry() {
		t.Fatal("expected entry source to report IsEntry")
	}
	if (TransitionSource{Kind: SourceState, Owner: 0, Index: 0}).IsEntry() {
		t.Fatal("expected regular source not to report IsEntry")
	}
	if got := g.Transition(TransitionSource{Kind: SourceExit, Owner: 0, Index: 0}); got != nil {
		t.Fatalf("expected missing exit group to resolve to nil, got %+v", got)
	}
}

func TestIntConditionComparators(t *testing.T) {
	cases := []struct {
		op    IntOp
		value int32
		probe int32
		want  bool
	}{
		{IntEq, 2, 2, true},
		{IntEq, 2, 3, false},
		{IntNotEq, 2, 3, true},
		{IntGreater, 2, 3, true},
		{IntGreater, 2, 2, false},
		{IntLess, 2, 1, true},
		{IntGreaterEq, 2, 2, true},
		{IntLessEq, 2, 2, true},
		{IntLessEq, 2, 3, false},
	}
	for _, tc := range cases {
		cond := IntCondition{Op: tc.op, Value: tc.value}
		if got := cond.Evaluate(tc.probe); got != tc.want {
			t.Fatalf("op %d value %d probe %d: expected %v, got %v", tc.op, tc.value, tc.probe, tc.want, got)
		}
	}
}
