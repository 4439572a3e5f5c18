package animgraph

import (
	"context"
	"fmt"
	"strings"

	"github.com/Lint111/animgraph/graph"
	"github.com/Lint111/animgraph/logging"
	loggingplayback "github.com/Lint111/animgraph/logging/playback"
)

// PlaybackID identifies one playback record within an instance. Identifiers
// are allocated monotonically and never reused, including across Reset.
type PlaybackID int32

// NoPlayback is the invalid playback identifier.
const NoPlayback PlaybackID = -1

// DefaultMaxSamplers bounds the sampler pool when InstanceConfig leaves
// MaxSamplers unset.
const DefaultMaxSamplers = 64

// PlaybackState pairs a state index with the playback that entered it. A
// layer's PlaybackState is the single authority on what the layer considers
// current; the zero-for-uninitialized form has Playback == NoPlayback.
type PlaybackState struct {
	State    int        `json:"state"`
	Playback PlaybackID `json:"playback"`
}

// Valid reports whether the pair refers to a live playback.
func (s PlaybackState) Valid() bool {
	return s.Playback != NoPlayback
}

// Playback is one activation of a state. Time is the shared normalized-time
// cursor in seconds; for blend states every owned sampler carries the same
// cursor. Weight is the state-level crossfade weight maintained by the blend
// pipeline, independent of the per-sampler blend weights.
type Playback struct {
	ID           PlaybackID `json:"id"`
	State        int        `json:"state"`
	Layer        int        `json:"layer"`
	Time         float32    `json:"time"`
	PreviousTime float32    `json:"previousTime"`
	Speed        float32    `json:"speed"`
	Loop         bool       `json:"loop"`
	Weight       float32    `json:"weight"`
	FirstSampler int        `json:"firstSampler"`
	SamplerCount int        `json:"samplerCount"`
}

// Sampler is one clip evaluation slot. Weight is the in-state blend weight;
// a pose system multiplies it by the owning playback's crossfade weight.
type Sampler struct {
	Clip         int     `json:"clip"`
	Time         float32 `json:"time"`
	PreviousTime float32 `json:"previousTime"`
	Weight       float32 `json:"weight"`
	Layer        int     `json:"layer"`
}

// Layer is one independently evaluated machine sharing the instance's
// parameter store. Layers hold their evaluation while the blend pipeline has
// not acknowledged the current playback, which caps transitions at one per
// tick per layer.
type Layer struct {
	index        int
	graph        *graph.Graph
	current      PlaybackState
	acknowledged PlaybackID
	active       bool
	request      TransitionRequest
	hasRequest   bool
}

// Index returns the layer's position within the instance.
func (l *Layer) Index() int { return l.index }

// Graph returns the baked machine the layer evaluates.
func (l *Layer) Graph() *graph.Graph { return l.graph }

// Current returns the layer's current state and playback.
func (l *Layer) Current() PlaybackState { return l.current }

// Acknowledged returns the last playback the blend pipeline confirmed.
func (l *Layer) Acknowledged() PlaybackID { return l.acknowledged }

// Active reports whether the layer participates in Step.
func (l *Layer) Active() bool { return l.active }

// SetActive toggles the layer's participation in Step. A deactivated layer
// keeps its state and resumes where it left off.
func (l *Layer) SetActive(active bool) { l.active = active }

// StateName resolves the layer's current state name, or "" before entry.
func (l *Layer) StateName() string {
	if !l.current.Valid() {
		return ""
	}
	if state := l.graph.State(l.current.State); state != nil {
		return state.Name
	}
	return ""
}

// InstanceConfig configures NewInstance. Graph and Clips are required;
// MaxSamplers defaults to DefaultMaxSamplers and Publisher may be nil to
// disable diagnostics.
type InstanceConfig struct {
	ID          string
	Graph       *graph.Graph
	Clips       ClipSource
	MaxSamplers int
	Publisher   logging.Publisher
}

// Instance is one actor's animation state, holding the layer list, the
// shared parameter store, and the playback and sampler pools. All methods
// assume a single owning goroutine.
type Instance struct {
	id          string
	clips       ClipSource
	params      *Parameters
	layers      []Layer
	playbacks   []Playback
	samplers    []Sampler
	maxSamplers int
	nextID      PlaybackID
	lastTick    uint64
	pub         logging.Publisher
	scratch     []float32
}

// NewInstance builds an instance with a single layer evaluating cfg.Graph.
// Additional layers are added with AddLayer.
func NewInstance(cfg InstanceConfig) (*Instance, error) {
	if cfg.Graph == nil {
		return nil, fmt.Errorf("animgraph: instance %q: graph required", cfg.ID)
	}
	if cfg.Clips == nil {
		return nil, fmt.Errorf("animgraph: instance %q: clip source required", cfg.ID)
	}
	maxSamplers := cfg.MaxSamplers
	if maxSamplers <= 0 {
		maxSamplers = DefaultMaxSamplers
	}
	id := cfg.ID
	if id == "" {
		id = "instance"
	}
	inst := &Instance{
		id:          id,
		clips:       cfg.Clips,
		params:      NewParameters(cfg.Graph),
		maxSamplers: maxSamplers,
		pub:         cfg.Publisher,
	}
	inst.layers = append(inst.layers, newLayer(0, cfg.Graph))
	return inst, nil
}

func newLayer(index int, g *graph.Graph) Layer {
	return Layer{
		index:        index,
		graph:        g,
		current:      PlaybackState{State: -1, Playback: NoPlayback},
		acknowledged: NoPlayback,
		active:       true,
	}
}

// AddLayer appends a layer evaluating g against the shared parameter store
// and returns its index. The graph's parameter declarations must match the
// instance's, since condition and blend indices are resolved against them.
func (inst *Instance) AddLayer(g *graph.Graph) (int, error) {
	if g == nil {
		return 0, fmt.Errorf("animgraph: instance %q: layer graph required", inst.id)
	}
	if err := compatibleParams(inst.params.Graph(), g); err != nil {
		return 0, fmt.Errorf("animgraph: instance %q: layer graph %q: %w", inst.id, g.Name(), err)
	}
	index := len(inst.layers)
	inst.layers = append(inst.layers, newLayer(index, g))
	return index, nil
}

func compatibleParams(base, g *graph.Graph) error {
	want := base.Params()
	have := g.Params()
	if len(want) != len(have) {
		return fmt.Errorf("declares %d parameters, instance has %d", len(have), len(want))
	}
	for i := range want {
		w, h := want[i], have[i]
		if w.Kind != h.Kind || !strings.EqualFold(strings.TrimSpace(w.Name), strings.TrimSpace(h.Name)) || w.Min != h.Min || w.Max != h.Max {
			return fmt.Errorf("parameter %d (%q) does not match instance declaration %q", i, h.Name, w.Name)
		}
	}
	return nil
}

// ID returns the diagnostic identifier given at construction.
func (inst *Instance) ID() string { return inst.id }

// Params returns the shared parameter store.
func (inst *Instance) Params() *Parameters { return inst.params }

// Clips returns the clip source.
func (inst *Instance) Clips() ClipSource { return inst.clips }

// NumLayers returns the layer count.
func (inst *Instance) NumLayers() int { return len(inst.layers) }

// Layer returns the layer at index, or nil when out of range. The pointer
// stays valid until the next AddLayer.
func (inst *Instance) Layer(index int) *Layer {
	if index < 0 || index >= len(inst.layers) {
		return nil
	}
	return &inst.layers[index]
}

// Playback resolves an identifier to its record, or nil for unknown ids.
// The pointer is valid until the next Step or Reset allocates.
func (inst *Instance) Playback(id PlaybackID) *Playback {
	if id < 0 {
		return nil
	}
	for i := range inst.playbacks {
		if inst.playbacks[i].ID == id {
			return &inst.playbacks[i]
		}
	}
	return nil
}

// PlaybackAt returns the i-th playback in pool order, or nil when out of
// range. Pool order only changes when a playback is released.
func (inst *Instance) PlaybackAt(i int) *Playback {
	if i < 0 || i >= len(inst.playbacks) {
		return nil
	}
	return &inst.playbacks[i]
}

// Samplers returns the live sampler slots owned by the playback. The slice
// aliases the pool; mutations feed straight into the next pose evaluation.
func (inst *Instance) Samplers(p *Playback) []Sampler {
	if p == nil || p.FirstSampler < 0 || p.FirstSampler+p.SamplerCount > len(inst.samplers) {
		return nil
	}
	return inst.samplers[p.FirstSampler : p.FirstSampler+p.SamplerCount]
}

// UsedSamplers returns the number of occupied sampler slots.
func (inst *Instance) UsedSamplers() int { return len(inst.samplers) }

// MaxSamplers returns the pool capacity.
func (inst *Instance) MaxSamplers() int { return inst.maxSamplers }

// NumPlaybacks returns the number of live playback records.
func (inst *Instance) NumPlaybacks() int { return len(inst.playbacks) }

// ReleasePlayback frees a playback record and its sampler block, compacting
// both pools so the slots become allocatable again. The blend pipeline calls
// this once a playback has fully faded out. Releasing a playback a layer
// still considers current is refused.
func (inst *Instance) ReleasePlayback(id PlaybackID) bool {
	if id < 0 {
		return false
	}
	for i := range inst.layers {
		if inst.layers[i].current.Playback == id {
			return false
		}
	}
	idx := -1
	for i := range inst.playbacks {
		if inst.playbacks[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	freed := inst.playbacks[idx]
	inst.samplers = append(inst.samplers[:freed.FirstSampler], inst.samplers[freed.FirstSampler+freed.SamplerCount:]...)
	inst.playbacks = append(inst.playbacks[:idx], inst.playbacks[idx+1:]...)
	for i := range inst.playbacks {
		if inst.playbacks[i].FirstSampler > freed.FirstSampler {
			inst.playbacks[i].FirstSampler -= freed.SamplerCount
		}
	}
	return true
}

// Reset discards all playback and sampler records and returns every layer
// to the uninitialized state, to be re-entered on the next Step. Parameter
// values survive; playback identifiers are not reused.
func (inst *Instance) Reset() {
	payload := loggingplayback.ResetPayload{
		Layers:    len(inst.layers),
		Playbacks: len(inst.playbacks),
		Samplers:  len(inst.samplers),
	}
	inst.playbacks = inst.playbacks[:0]
	inst.samplers = inst.samplers[:0]
	for i := range inst.layers {
		layer := &inst.layers[i]
		layer.current = PlaybackState{State: -1, Playback: NoPlayback}
		layer.acknowledged = NoPlayback
		layer.hasRequest = false
		layer.request = TransitionRequest{}
	}
	loggingplayback.Reset(context.Background(), inst.pub, inst.lastTick, inst.ref(), payload, nil)
}

func (inst *Instance) ref() logging.EntityRef {
	return logging.EntityRef{ID: inst.id, Kind: logging.EntityKindInstance}
}

// scratchWeights returns a zeroed scratch slice of at least n elements,
// reused across activations to keep the tick path allocation-free.
func (inst *Instance) scratchWeights(n int) []float32 {
	if cap(inst.scratch) < n {
		inst.scratch = make([]float32, n)
	}
	s := inst.scratch[:n]
	for i := range s {
		s[i] = 0
	}
	return s
}
