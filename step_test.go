package animgraph

import (
	"context"
	"testing"

	"github.com/Lint111/animgraph/graph"
	"github.com/Lint111/animgraph/logging"
	loggingtransitions "github.com/Lint111/animgraph/logging/transitions"
)

func locomotionGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.NewBuilder("locomotion").
		AddBoolParam("isMoving", false).
		AddBoolParam("isDead", false).
		AddState(graph.StateSpec{
			Name: "Idle", Kind: graph.KindSingleClip, Clip: 0, Loop: true,
			Transitions: []graph.TransitionSpec{{
				To: "Run", Duration: 0.25,
				Bools: []graph.BoolConditionSpec{{Param: "isMoving", Expected: true}},
			}},
		}).
		AddState(graph.StateSpec{
			Name: "Run", Kind: graph.KindSingleClip, Clip: 1, Loop: true,
			Transitions: []graph.TransitionSpec{{
				To: "Idle", Duration: 0.25,
				Bools: []graph.BoolConditionSpec{{Param: "isMoving", Expected: false}},
			}},
		}).
		AddState(graph.StateSpec{Name: "Death", Kind: graph.KindSingleClip, Clip: 2}).
		AddAnyStateTransition(graph.TransitionSpec{
			To: "Death", Duration: 0.1,
			Bools: []graph.BoolConditionSpec{{Param: "isDead", Expected: true}},
		}).
		Bake()
	if err != nil {
		t.Fatalf("bake locomotion: %v", err)
	}
	return g
}

func locomotionClips() *ClipTable {
	return NewClipTable(
		ClipInfo{Name: "idle", Duration: 2},
		ClipInfo{Name: "run", Duration: 1},
		ClipInfo{Name: "death", Duration: 1.5},
	)
}

func newTestInstance(t *testing.T, g *graph.Graph) *Instance {
	t.Helper()
	inst, err := NewInstance(InstanceConfig{ID: "test", Graph: g, Clips: locomotionClips()})
	if err != nil {
		t.Fatalf("new instance: %v", err)
	}
	return inst
}

// drive steps the instance and acknowledges every produced request, playing
// the role of an instantaneous blend pipeline.
func drive(t *testing.T, inst *Instance, tick uint64) {
	t.Helper()
	inst.Step(tick)
	for i := 0; i < inst.NumLayers(); i++ {
		if req, ok := inst.TakeRequest(i); ok {
			inst.AcknowledgePlayback(i, req.Dest)
		}
	}
}

func currentStateName(inst *Instance, layer int) string {
	return inst.Layer(layer).StateName()
}

func TestStepEntersDefaultState(t *testing.T) {
	inst := newTestInstance(t, locomotionGraph(t))

	inst.Step(1)

	layer := inst.Layer(0)
	if !layer.Current().Valid() {
		t.Fatalf("expected layer to enter default state")
	}
	if name := layer.StateName(); name != "Idle" {
		t.Fatalf("expected Idle, got %q", name)
	}
	req, ok := inst.PendingRequest(0)
	if !ok {
		t.Fatalf("expected an entry request")
	}
	if !req.Source.IsEntry() {
		t.Fatalf("expected entry source, got %+v", req.Source)
	}
	if req.Duration != 0 {
		t.Fatalf("expected instant entry, got duration %v", req.Duration)
	}
	if req.Dest != layer.Current().Playback {
		t.Fatalf("request dest %d does not match current playback %d", req.Dest, layer.Current().Playback)
	}
}

func TestStepHoldsUntilAcknowledged(t *testing.T) {
	inst := newTestInstance(t, locomotionGraph(t))

	inst.Step(1)
	inst.Params().SetBoolByName("isMoving", true)

	// The entry request has not been consumed, so the layer must hold.
	inst.Step(2)
	if name := currentStateName(inst, 0); name != "Idle" {
		t.Fatalf("expected layer to hold in Idle, got %q", name)
	}

	req, _ := inst.TakeRequest(0)
	inst.AcknowledgePlayback(0, req.Dest)
	inst.Step(3)
	if name := currentStateName(inst, 0); name != "Run" {
		t.Fatalf("expected transition to Run after acknowledge, got %q", name)
	}
}

func TestStepFiresOwnTransitionOnCondition(t *testing.T) {
	inst := newTestInstance(t, locomotionGraph(t))
	drive(t, inst, 1)

	drive(t, inst, 2)
	if name := currentStateName(inst, 0); name != "Idle" {
		t.Fatalf("expected Idle while isMoving is false, got %q", name)
	}

	inst.Params().SetBoolByName("isMoving", true)
	drive(t, inst, 3)
	if name := currentStateName(inst, 0); name != "Run" {
		t.Fatalf("expected Run, got %q", name)
	}

	inst.Params().SetBoolByName("isMoving", false)
	drive(t, inst, 4)
	if name := currentStateName(inst, 0); name != "Idle" {
		t.Fatalf("expected Idle again, got %q", name)
	}
}

func TestStepAnyStateBeatsOwnTransitions(t *testing.T) {
	inst := newTestInstance(t, locomotionGraph(t))
	drive(t, inst, 1)

	// Both the own-list Run transition and the any-state Death transition
	// are satisfied; the any-state list is evaluated first.
	inst.Params().SetBoolByName("isMoving", true)
	inst.Params().SetBoolByName("isDead", true)
	inst.Step(2)

	if name := currentStateName(inst, 0); name != "Death" {
		t.Fatalf("expected any-state transition to win, got %q", name)
	}
	req, ok := inst.TakeRequest(0)
	if !ok || req.Source.Kind != graph.SourceAnyState {
		t.Fatalf("expected any-state source, got %+v ok=%v", req.Source, ok)
	}
}

func TestStepAnyStateSelfGuard(t *testing.T) {
	inst := newTestInstance(t, locomotionGraph(t))
	drive(t, inst, 1)

	inst.Params().SetBoolByName("isDead", true)
	drive(t, inst, 2)
	if name := currentStateName(inst, 0); name != "Death" {
		t.Fatalf("expected Death, got %q", name)
	}
	before := inst.Layer(0).Current().Playback

	// isDead stays true; without CanTransitionToSelf the any-state
	// transition must not re-enter Death.
	drive(t, inst, 3)
	drive(t, inst, 4)
	if got := inst.Layer(0).Current().Playback; got != before {
		t.Fatalf("expected playback %d to survive, got %d", before, got)
	}
}

func TestStepAnyStateSelfTransitionWhenAllowed(t *testing.T) {
	g, err := graph.NewBuilder("respawn").
		AddBoolParam("retrigger", false).
		AddState(graph.StateSpec{Name: "Main", Kind: graph.KindSingleClip, Clip: 0, Loop: true}).
		AddAnyStateTransition(graph.TransitionSpec{
			To: "Main", Duration: 0,
			CanTransitionToSelf: true,
			Bools:               []graph.BoolConditionSpec{{Param: "retrigger", Expected: true}},
		}).
		Bake()
	if err != nil {
		t.Fatalf("bake: %v", err)
	}
	inst := newTestInstance(t, g)
	drive(t, inst, 1)
	before := inst.Layer(0).Current().Playback

	inst.Params().SetBoolByName("retrigger", true)
	drive(t, inst, 2)
	after := inst.Layer(0).Current().Playback
	if after == before {
		t.Fatalf("expected a fresh playback for the self transition")
	}
	if name := currentStateName(inst, 0); name != "Main" {
		t.Fatalf("expected to stay in Main, got %q", name)
	}
}

func TestStepConditionlessTransitionNeverFires(t *testing.T) {
	g, err := graph.NewBuilder("stuck").
		AddState(graph.StateSpec{
			Name: "A", Kind: graph.KindSingleClip, Clip: 0, Loop: true,
			Transitions: []graph.TransitionSpec{{To: "B", Duration: 0.2}},
		}).
		AddState(graph.StateSpec{Name: "B", Kind: graph.KindSingleClip, Clip: 1}).
		Bake()
	if err != nil {
		t.Fatalf("bake: %v", err)
	}
	inst := newTestInstance(t, g)
	for tick := uint64(1); tick <= 5; tick++ {
		drive(t, inst, tick)
	}
	if name := currentStateName(inst, 0); name != "A" {
		t.Fatalf("expected to stay in A, got %q", name)
	}
}

func TestStepEndTimeGate(t *testing.T) {
	g, err := graph.NewBuilder("timed").
		AddState(graph.StateSpec{
			Name: "Attack", Kind: graph.KindSingleClip, Clip: 0,
			Transitions: []graph.TransitionSpec{{To: "Recover", Duration: 0.1, HasEndTime: true, EndTime: 1.0}},
		}).
		AddState(graph.StateSpec{Name: "Recover", Kind: graph.KindSingleClip, Clip: 1, Loop: true}).
		Bake()
	if err != nil {
		t.Fatalf("bake: %v", err)
	}
	inst := newTestInstance(t, g)
	drive(t, inst, 1)

	playback := inst.Playback(inst.Layer(0).Current().Playback)
	playback.Time = 0.5
	drive(t, inst, 2)
	if name := currentStateName(inst, 0); name != "Attack" {
		t.Fatalf("expected gate to hold at 0.5s, got %q", name)
	}

	playback.Time = 1.2
	drive(t, inst, 3)
	if name := currentStateName(inst, 0); name != "Recover" {
		t.Fatalf("expected gate to open at 1.2s, got %q", name)
	}
}

func TestStepEndTimeGateCombinesWithConditions(t *testing.T) {
	g, err := graph.NewBuilder("timed-conditional").
		AddBoolParam("ready", false).
		AddState(graph.StateSpec{
			Name: "Charge", Kind: graph.KindSingleClip, Clip: 0,
			Transitions: []graph.TransitionSpec{{
				To: "Fire", Duration: 0, HasEndTime: true, EndTime: 0.5,
				Bools: []graph.BoolConditionSpec{{Param: "ready", Expected: true}},
			}},
		}).
		AddState(graph.StateSpec{Name: "Fire", Kind: graph.KindSingleClip, Clip: 1}).
		Bake()
	if err != nil {
		t.Fatalf("bake: %v", err)
	}
	inst := newTestInstance(t, g)
	drive(t, inst, 1)

	playback := inst.Playback(inst.Layer(0).Current().Playback)
	playback.Time = 2

	// Past the end time but the bool still blocks.
	drive(t, inst, 2)
	if name := currentStateName(inst, 0); name != "Charge" {
		t.Fatalf("expected conditions to block, got %q", name)
	}

	inst.Params().SetBoolByName("ready", true)
	drive(t, inst, 3)
	if name := currentStateName(inst, 0); name != "Fire" {
		t.Fatalf("expected transition once both gates pass, got %q", name)
	}
}

func TestStepExitGroupRunsAfterOwnTransitions(t *testing.T) {
	g, err := graph.NewBuilder("combo").
		AddBoolParam("next", false).
		AddBoolParam("abort", false).
		AddExitGroup("combo-exit", graph.TransitionSpec{
			To: "Idle", Duration: 0.2,
			Bools: []graph.BoolConditionSpec{{Param: "abort", Expected: true}},
		}).
		AddState(graph.StateSpec{Name: "Idle", Kind: graph.KindSingleClip, Clip: 0, Loop: true,
			Transitions: []graph.TransitionSpec{{
				To: "Swing", Duration: 0,
				Bools: []graph.BoolConditionSpec{{Param: "next", Expected: true}},
			}},
		}).
		AddState(graph.StateSpec{Name: "Swing", Kind: graph.KindSingleClip, Clip: 1, ExitGroup: "combo-exit",
			Transitions: []graph.TransitionSpec{{
				To: "Slam", Duration: 0,
				Bools: []graph.BoolConditionSpec{{Param: "next", Expected: true}},
			}},
		}).
		AddState(graph.StateSpec{Name: "Slam", Kind: graph.KindSingleClip, Clip: 2, ExitGroup: "combo-exit"}).
		Bake()
	if err != nil {
		t.Fatalf("bake: %v", err)
	}
	inst := newTestInstance(t, g)
	drive(t, inst, 1)

	inst.Params().SetBoolByName("next", true)
	drive(t, inst, 2)
	if name := currentStateName(inst, 0); name != "Swing" {
		t.Fatalf("expected Swing, got %q", name)
	}

	// Own transition and exit group both satisfied: the own list wins.
	inst.Params().SetBoolByName("abort", true)
	inst.Step(3)
	if name := currentStateName(inst, 0); name != "Slam" {
		t.Fatalf("expected own transition to win over exit group, got %q", name)
	}
	req, _ := inst.TakeRequest(0)
	if req.Source.Kind != graph.SourceState {
		t.Fatalf("expected own-state source, got %v", req.Source.Kind)
	}
	inst.AcknowledgePlayback(0, req.Dest)

	// Slam has no own transitions; the shared exit group fires.
	inst.Step(4)
	if name := currentStateName(inst, 0); name != "Idle" {
		t.Fatalf("expected exit group to fire, got %q", name)
	}
	req, _ = inst.TakeRequest(0)
	if req.Source.Kind != graph.SourceExit {
		t.Fatalf("expected exit source, got %v", req.Source.Kind)
	}
	if resolved := g.Transition(req.Source); resolved == nil || resolved.Dest != 0 {
		t.Fatalf("expected source to resolve to the exit transition, got %+v", resolved)
	}
}

func TestStepAtMostOneTransitionPerTick(t *testing.T) {
	g, err := graph.NewBuilder("chain").
		AddBoolParam("go", false).
		AddState(graph.StateSpec{Name: "A", Kind: graph.KindSingleClip, Clip: 0, Loop: true,
			Transitions: []graph.TransitionSpec{{
				To: "B", Duration: 0, Bools: []graph.BoolConditionSpec{{Param: "go", Expected: true}},
			}},
		}).
		AddState(graph.StateSpec{Name: "B", Kind: graph.KindSingleClip, Clip: 1, Loop: true,
			Transitions: []graph.TransitionSpec{{
				To: "C", Duration: 0, Bools: []graph.BoolConditionSpec{{Param: "go", Expected: true}},
			}},
		}).
		AddState(graph.StateSpec{Name: "C", Kind: graph.KindSingleClip, Clip: 2, Loop: true}).
		Bake()
	if err != nil {
		t.Fatalf("bake: %v", err)
	}
	inst := newTestInstance(t, g)
	drive(t, inst, 1)

	inst.Params().SetBoolByName("go", true)
	drive(t, inst, 2)
	if name := currentStateName(inst, 0); name != "B" {
		t.Fatalf("expected exactly one hop to B, got %q", name)
	}
	drive(t, inst, 3)
	if name := currentStateName(inst, 0); name != "C" {
		t.Fatalf("expected C on the following tick, got %q", name)
	}
}

func TestStepEvaluationIsPure(t *testing.T) {
	g := locomotionGraph(t)
	inst := newTestInstance(t, g)
	drive(t, inst, 1)

	idle := g.State(inst.Layer(0).Current().State)
	transition := &idle.Transitions[0]

	inst.Params().SetBoolByName("isMoving", true)
	for i := 0; i < 3; i++ {
		if !conditionsMet(transition, 0, inst.Params()) {
			t.Fatalf("evaluation %d flipped: conditions must not be consumed", i)
		}
	}
}

func TestStepRequestOverwrite(t *testing.T) {
	inst := newTestInstance(t, locomotionGraph(t))
	drive(t, inst, 1)

	inst.Params().SetBoolByName("isMoving", true)
	inst.Step(2)
	first, ok := inst.PendingRequest(0)
	if !ok {
		t.Fatalf("expected a pending request")
	}

	// Acknowledge without consuming, then let a second transition fire: the
	// request must be replaced, not queued.
	inst.AcknowledgePlayback(0, first.Dest)
	inst.Params().SetBoolByName("isDead", true)
	inst.Step(3)

	req, ok := inst.TakeRequest(0)
	if !ok {
		t.Fatalf("expected a request")
	}
	if req.Dest == first.Dest {
		t.Fatalf("expected the newer request to replace the old one")
	}
	if req.Source.Kind != graph.SourceAnyState {
		t.Fatalf("expected the death transition, got %+v", req.Source)
	}
	if _, ok := inst.TakeRequest(0); ok {
		t.Fatalf("expected the request slot to be empty after take")
	}
}

func TestStepPublishesTransitionEvents(t *testing.T) {
	var events []logging.Event
	pub := logging.PublisherFunc(func(_ context.Context, e logging.Event) {
		events = append(events, e)
	})
	inst, err := NewInstance(InstanceConfig{
		ID: "npc-7", Graph: locomotionGraph(t), Clips: locomotionClips(), Publisher: pub,
	})
	if err != nil {
		t.Fatalf("new instance: %v", err)
	}

	drive(t, inst, 1)
	inst.Params().SetBoolByName("isMoving", true)
	drive(t, inst, 2)

	var types []logging.EventType
	for _, e := range events {
		types = append(types, e.Type)
	}
	if len(events) < 2 || types[0] != loggingtransitions.EventEntry || types[1] != loggingtransitions.EventTaken {
		t.Fatalf("expected entry then taken, got %v", types)
	}
	if events[1].Actor.ID != "npc-7" || events[1].Actor.Kind != logging.EntityKindInstance {
		t.Fatalf("unexpected actor ref %+v", events[1].Actor)
	}
	payload, ok := events[1].Payload.(loggingtransitions.TakenPayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", events[1].Payload)
	}
	if payload.From != "Idle" || payload.To != "Run" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}
