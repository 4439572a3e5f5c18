// Package ecs bridges animation instances into donburi worlds. Entities carry
// a Machine component; System steps every machine once per update and
// publishes a typed event for each transition the machines request, so other
// systems can react (footstep audio, ragdoll activation) without polling.
package ecs

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
	"github.com/yohamta/donburi/filter"

	"github.com/Lint111/animgraph"
	"github.com/Lint111/animgraph/mixer"
)

// Machine pairs an instance with the mixer advancing its fades. Mixer may be
// nil when another system owns the blend pipeline.
type Machine struct {
	Instance *animgraph.Instance
	Mixer    *mixer.Mixer
}

// MachineComponent is the donburi component type for Machine.
var MachineComponent = donburi.NewComponentType[Machine]()

// TransitionEvent is published once per transition request observed during
// System.Update. The request is a copy; the mixer consumes the original.
type TransitionEvent struct {
	Entity   donburi.Entity
	Instance string
	Request  animgraph.TransitionRequest
}

// TransitionEventType delivers TransitionEvents. Subscribe with
// events.Subscribe and drain with ProcessEvents after each update.
var TransitionEventType = events.NewEventType[TransitionEvent]()

// Spawn creates an entity carrying the instance and mixer.
func Spawn(w donburi.World, inst *animgraph.Instance, mix *mixer.Mixer) donburi.Entity {
	entity := w.Create(MachineComponent)
	entry := w.Entry(entity)
	MachineComponent.SetValue(entry, Machine{Instance: inst, Mixer: mix})
	return entity
}

// System steps every Machine in the world. It owns the tick counter; hosts
// with their own tick pass dt only and read Tick for diagnostics.
type System struct {
	query *donburi.Query
	tick  uint64
}

// NewSystem builds a system querying all Machine entities.
func NewSystem() *System {
	return &System{query: donburi.NewQuery(filter.Contains(MachineComponent))}
}

// Tick returns the number of updates run so far.
func (s *System) Tick() uint64 { return s.tick }

// Update steps each machine, publishes its pending transition requests as
// events, and advances its mixer by dt. Events are queued; call
// TransitionEventType.ProcessEvents (or events.ProcessAllEvents) afterwards.
func (s *System) Update(w donburi.World, dt float32) {
	s.tick++
	s.query.Each(w, func(entry *donburi.Entry) {
		m := MachineComponent.Get(entry)
		if m.Instance == nil {
			return
		}
		m.Instance.Step(s.tick)
		for layer := 0; layer < m.Instance.NumLayers(); layer++ {
			req, ok := m.Instance.PendingRequest(layer)
			if !ok {
				continue
			}
			TransitionEventType.Publish(w, TransitionEvent{
				Entity:   entry.Entity(),
				Instance: m.Instance.ID(),
				Request:  req,
			})
		}
		if m.Mixer != nil {
			m.Mixer.Advance(s.tick, dt)
		}
	})
}
