// Package feed drives demo animation instances on a fixed tick and
// broadcasts per-tick machine snapshots to websocket subscribers. It is the
// preview surface behind cmd/animview; nothing in the runtime core depends
// on it.
package feed

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Lint111/animgraph"
	"github.com/Lint111/animgraph/graph"
	"github.com/Lint111/animgraph/logging"
	"github.com/Lint111/animgraph/mixer"
)

const (
	defaultTickRate = 30
	writeWait       = 5 * time.Second
)

// DriveFunc scripts an actor's parameters ahead of each tick.
type DriveFunc func(tick uint64, params *animgraph.Parameters)

// ActorConfig declares one demo actor. Layers holds the graphs beyond the
// first; every layer shares the actor's parameter store, so the graphs must
// declare identical parameter lists.
type ActorConfig struct {
	ID     string
	Graph  *graph.Graph
	Layers []*graph.Graph
	Clips  animgraph.ClipSource
	Drive  DriveFunc
}

type actor struct {
	id    string
	inst  *animgraph.Instance
	mix   *mixer.Mixer
	drive DriveFunc
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// HubConfig configures NewHub. TickRate defaults to 30; Publisher may be nil.
type HubConfig struct {
	TickRate  int
	Publisher logging.Publisher
	Logger    *log.Logger
}

// Hub owns the demo actors and the subscriber set. Actors are registered
// before RunSimulation starts; subscribers come and go at any time.
type Hub struct {
	mu          sync.Mutex
	actors      []*actor
	subscribers map[string]*subscriber
	nextSub     atomic.Uint64
	tick        uint64
	tickRate    int
	pub         logging.Publisher
	logger      *log.Logger
}

// NewHub creates a hub with no actors and no subscribers.
func NewHub(cfg HubConfig) *Hub {
	tickRate := cfg.TickRate
	if tickRate <= 0 {
		tickRate = defaultTickRate
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		subscribers: make(map[string]*subscriber),
		tickRate:    tickRate,
		pub:         cfg.Publisher,
		logger:      logger,
	}
}

// TickRate returns the simulation rate in ticks per second.
func (h *Hub) TickRate() int { return h.tickRate }

// AddActor builds an instance and mixer from the config and registers them.
func (h *Hub) AddActor(cfg ActorConfig) error {
	inst, err := animgraph.NewInstance(animgraph.InstanceConfig{
		ID:        cfg.ID,
		Graph:     cfg.Graph,
		Clips:     cfg.Clips,
		Publisher: h.pub,
	})
	if err != nil {
		return fmt.Errorf("feed: actor %q: %w", cfg.ID, err)
	}
	for _, layerGraph := range cfg.Layers {
		if _, err := inst.AddLayer(layerGraph); err != nil {
			return fmt.Errorf("feed: actor %q: %w", cfg.ID, err)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.actors = append(h.actors, &actor{
		id:    cfg.ID,
		inst:  inst,
		mix:   mixer.New(inst, h.pub),
		drive: cfg.Drive,
	})
	return nil
}

// ReplaceActor swaps the named actor for a fresh one built from cfg. Used by
// the hot-reload path: the old instance keeps its baked graph until it is
// dropped here; baked graphs themselves are never mutated.
func (h *Hub) ReplaceActor(id string, cfg ActorConfig) error {
	inst, err := animgraph.NewInstance(animgraph.InstanceConfig{
		ID:        cfg.ID,
		Graph:     cfg.Graph,
		Clips:     cfg.Clips,
		Publisher: h.pub,
	})
	if err != nil {
		return fmt.Errorf("feed: replace actor %q: %w", id, err)
	}
	for _, layerGraph := range cfg.Layers {
		if _, err := inst.AddLayer(layerGraph); err != nil {
			return fmt.Errorf("feed: replace actor %q: %w", id, err)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for i, a := range h.actors {
		if a.id == id {
			h.actors[i] = &actor{
				id:    cfg.ID,
				inst:  inst,
				mix:   mixer.New(inst, h.pub),
				drive: cfg.Drive,
			}
			return nil
		}
	}
	return fmt.Errorf("feed: replace actor %q: not registered", id)
}

// Subscribe registers a websocket connection and returns its id.
func (h *Hub) Subscribe(conn *websocket.Conn) string {
	id := fmt.Sprintf("sub-%d", h.nextSub.Add(1))
	h.mu.Lock()
	h.subscribers[id] = &subscriber{conn: conn}
	h.mu.Unlock()
	return id
}

// Unsubscribe drops the subscriber and closes its connection.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	h.mu.Unlock()
	if ok {
		sub.conn.Close()
	}
}

// RunSimulation drives the fixed-rate tick loop until the stop channel
// closes.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / time.Duration(h.tickRate))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			dt := float32(now.Sub(last).Seconds())
			if dt <= 0 {
				dt = 1 / float32(h.tickRate)
			}
			last = now

			snapshot := h.Advance(dt)
			h.broadcast(snapshot)
		}
	}
}

// Advance runs one simulation step over every actor and returns the
// resulting snapshot. Exposed for tests and for callers with their own loop.
func (h *Hub) Advance(dt float32) StateMessage {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.tick++
	for _, a := range h.actors {
		if a.drive != nil {
			a.drive(h.tick, a.inst.Params())
		}
		a.inst.Step(h.tick)
		a.mix.Advance(h.tick, dt)
	}
	return h.snapshotLocked()
}

// Snapshot returns the current machine state without advancing.
func (h *Hub) Snapshot() StateMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

func (h *Hub) snapshotLocked() StateMessage {
	msg := StateMessage{
		Type:       "state",
		Tick:       h.tick,
		ServerTime: time.Now().UnixMilli(),
		Actors:     make([]ActorSnapshot, 0, len(h.actors)),
	}
	for _, a := range h.actors {
		snap := ActorSnapshot{ID: a.id}
		for layer := 0; layer < a.inst.NumLayers(); layer++ {
			l := a.inst.Layer(layer)
			ls := LayerSnapshot{
				Layer:    layer,
				Graph:    l.Graph().Name(),
				State:    l.StateName(),
				Playback: int32(l.Current().Playback),
				Live:     int32(a.mix.Live(layer)),
				Fading:   a.mix.Fading(layer),
			}
			if p := a.inst.Playback(l.Current().Playback); p != nil {
				ls.Time = p.Time
				ls.Weight = p.Weight
				for _, s := range a.inst.Samplers(p) {
					ls.Samplers = append(ls.Samplers, SamplerSnapshot{
						Clip:   s.Clip,
						Time:   s.Time,
						Weight: s.Weight,
					})
				}
			}
			snap.Layers = append(snap.Layers, ls)
		}
		msg.Actors = append(msg.Actors, snap)
	}
	return msg
}

// broadcast sends the snapshot to every subscriber, dropping the ones whose
// connection fails.
func (h *Hub) broadcast(msg StateMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Printf("feed: marshal state message: %v", err)
		return
	}

	h.mu.Lock()
	subs := make(map[string]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		sub.mu.Lock()
		sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := sub.conn.WriteMessage(websocket.TextMessage, data)
		sub.mu.Unlock()
		if err != nil {
			h.logger.Printf("feed: send to %s: %v", id, err)
			h.Unsubscribe(id)
		}
	}
}
