package ecs

import (
	"testing"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"

	"github.com/Lint111/animgraph"
	"github.com/Lint111/animgraph/graph"
	"github.com/Lint111/animgraph/mixer"
)

func testMachine(t *testing.T) (*animgraph.Instance, *mixer.Mixer) {
	t.Helper()
	g, err := graph.NewBuilder("gait").
		AddBoolParam("running", false).
		AddState(graph.StateSpec{
			Name: "Walk", Kind: graph.KindSingleClip, Clip: 0, Loop: true,
			Transitions: []graph.TransitionSpec{{
				To: "Run", Duration: 0.2,
				Bools: []graph.BoolConditionSpec{{Param: "running", Expected: true}},
			}},
		}).
		AddState(graph.StateSpec{Name: "Run", Kind: graph.KindSingleClip, Clip: 1, Loop: true}).
		Bake()
	if err != nil {
		t.Fatalf("bake: %v", err)
	}
	clips := animgraph.NewClipTable(
		animgraph.ClipInfo{Name: "walk", Duration: 1},
		animgraph.ClipInfo{Name: "run", Duration: 0.8},
	)
	inst, err := animgraph.NewInstance(animgraph.InstanceConfig{ID: "npc-1", Graph: g, Clips: clips})
	if err != nil {
		t.Fatalf("new instance: %v", err)
	}
	return inst, mixer.New(inst, nil)
}

func TestSystemStepsMachines(t *testing.T) {
	world := donburi.NewWorld()
	inst, mix := testMachine(t)
	Spawn(world, inst, mix)

	system := NewSystem()
	system.Update(world, 1.0/60)

	if !inst.Layer(0).Current().Valid() {
		t.Fatal("machine did not enter its default state")
	}
	if inst.Layer(0).StateName() != "Walk" {
		t.Fatalf("state = %q, want Walk", inst.Layer(0).StateName())
	}
	if system.Tick() != 1 {
		t.Fatalf("tick = %d", system.Tick())
	}
}

func TestSystemPublishesTransitionEvents(t *testing.T) {
	world := donburi.NewWorld()
	inst, mix := testMachine(t)
	entity := Spawn(world, inst, mix)

	var received []TransitionEvent
	TransitionEventType.Subscribe(world, func(w donburi.World, e TransitionEvent) {
		received = append(received, e)
	})

	system := NewSystem()
	system.Update(world, 1.0/60)
	TransitionEventType.ProcessEvents(world)

	if len(received) != 1 {
		t.Fatalf("expected 1 entry event, got %d", len(received))
	}
	if received[0].Entity != entity || received[0].Instance != "npc-1" {
		t.Fatalf("event = %+v", received[0])
	}
	if !received[0].Request.Source.IsEntry() {
		t.Fatalf("first event should be the entry request: %+v", received[0].Request)
	}

	received = received[:0]
	inst.Params().SetBoolByName("running", true)
	system.Update(world, 1.0/60)
	events.ProcessAllEvents(world)

	if len(received) != 1 {
		t.Fatalf("expected 1 transition event, got %d", len(received))
	}
	if inst.Layer(0).StateName() != "Run" {
		t.Fatalf("state = %q, want Run", inst.Layer(0).StateName())
	}
}

func TestSystemSkipsEmptyMachines(t *testing.T) {
	world := donburi.NewWorld()
	entity := world.Create(MachineComponent)
	entry := world.Entry(entity)
	MachineComponent.SetValue(entry, Machine{})

	system := NewSystem()
	system.Update(world, 1.0/60) // must not panic
}
