// Package mixer is the blend pipeline behind an animgraph.Instance. It
// consumes the instance's transition requests, runs the crossfade weights
// through gween tweens using each transition's authored curve, advances
// playback and sampler clocks, and re-derives in-state blend weights from
// the live parameter values every advance.
//
// The mixer acknowledges a playback only once its fade-in completes, which
// is what holds the state machine between transitions. Fully faded-out
// playbacks are released back to the instance's pools.
package mixer

import (
	"context"
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/Lint111/animgraph"
	"github.com/Lint111/animgraph/logging"
	loggingplayback "github.com/Lint111/animgraph/logging/playback"
)

type fade struct {
	from   animgraph.PlaybackID
	to     animgraph.PlaybackID
	tween  *gween.Tween
	active bool
}

// Mixer owns the crossfade state for one instance. Like the instance it is
// single-goroutine; call Advance after every Step.
type Mixer struct {
	inst    *animgraph.Instance
	pub     logging.Publisher
	live    []animgraph.PlaybackID
	fades   []fade
	scratch []float32
}

// New builds a mixer for the instance. The publisher may be nil.
func New(inst *animgraph.Instance, pub logging.Publisher) *Mixer {
	m := &Mixer{inst: inst, pub: pub}
	m.syncLayers()
	return m
}

func (m *Mixer) syncLayers() {
	for len(m.live) < m.inst.NumLayers() {
		m.live = append(m.live, animgraph.NoPlayback)
		m.fades = append(m.fades, fade{})
	}
}

// Advance runs one pipeline pass: new requests start fades, every live
// playback's clock and blend weights move forward by dt, and completed
// fades promote and acknowledge their playback.
func (m *Mixer) Advance(tick uint64, dt float32) {
	m.syncLayers()
	m.consumeRequests(tick)
	m.advanceClocks(dt)
	m.applyFades(tick, dt)
}

// Live returns the playback currently owning the layer's pose, which trails
// the layer's current playback while a fade is in flight.
func (m *Mixer) Live(layer int) animgraph.PlaybackID {
	if layer < 0 || layer >= len(m.live) {
		return animgraph.NoPlayback
	}
	return m.live[layer]
}

// Fading reports whether the layer has a crossfade in flight.
func (m *Mixer) Fading(layer int) bool {
	return layer >= 0 && layer < len(m.fades) && m.fades[layer].active
}

func (m *Mixer) consumeRequests(tick uint64) {
	for layer := 0; layer < m.inst.NumLayers(); layer++ {
		req, ok := m.inst.TakeRequest(layer)
		if !ok {
			continue
		}
		if m.fades[layer].active {
			// A replacing request cuts the old fade short.
			m.finishFade(tick, layer)
		}
		to := m.inst.Playback(req.Dest)
		if to == nil {
			// The record vanished (reset); acknowledge so the layer can
			// re-enter instead of holding forever.
			m.inst.AcknowledgePlayback(layer, req.Dest)
			continue
		}
		from := m.live[layer]
		if req.Duration <= 0 || from == animgraph.NoPlayback {
			m.promote(tick, layer, from, req.Dest)
			continue
		}
		to.Weight = 0
		m.fades[layer] = fade{
			from:   from,
			to:     req.Dest,
			tween:  gween.New(0, 1, req.Duration, m.curveFor(layer, req)),
			active: true,
		}
	}
}

func (m *Mixer) curveFor(layer int, req animgraph.TransitionRequest) ease.TweenFunc {
	l := m.inst.Layer(layer)
	if l == nil {
		return ease.Linear
	}
	if t := l.Graph().Transition(req.Source); t != nil && t.Curve != nil {
		return t.Curve
	}
	return ease.Linear
}

func (m *Mixer) advanceClocks(dt float32) {
	for i := 0; i < m.inst.NumPlaybacks(); i++ {
		p := m.inst.PlaybackAt(i)
		layer := m.inst.Layer(p.Layer)
		if layer == nil {
			continue
		}
		state := layer.Graph().State(p.State)
		if state == nil {
			continue
		}

		samplers := m.inst.Samplers(p)
		weights := m.scratchWeights(len(samplers))
		animgraph.StateWeights(weights, state, m.inst.Params())
		for s := range samplers {
			samplers[s].Weight = weights[s]
		}

		duration := animgraph.EffectiveDuration(m.inst.Clips(), state, weights)
		p.PreviousTime = p.Time
		p.Time += dt * p.Speed
		if duration > 0 {
			if p.Loop {
				p.Time = wrap(p.Time, duration)
			} else if p.Time > duration {
				p.Time = duration
			} else if p.Time < 0 {
				p.Time = 0
			}
		}
		for s := range samplers {
			samplers[s].PreviousTime = samplers[s].Time
			samplers[s].Time = p.Time
		}
	}
}

func wrap(t, duration float32) float32 {
	w := float32(math.Mod(float64(t), float64(duration)))
	if w < 0 {
		w += duration
	}
	return w
}

func (m *Mixer) applyFades(tick uint64, dt float32) {
	for layer := range m.fades {
		f := &m.fades[layer]
		if !f.active {
			continue
		}
		to := m.inst.Playback(f.to)
		if to == nil {
			// Reset swept the records out from under the fade.
			f.active = false
			m.live[layer] = animgraph.NoPlayback
			continue
		}
		weight, done := f.tween.Update(dt)
		to.Weight = weight
		if from := m.inst.Playback(f.from); from != nil {
			from.Weight = 1 - weight
		}
		if done {
			m.finishFade(tick, layer)
		}
	}
}

// finishFade snaps the in-flight fade to its end state: full weight on the
// destination, the source released, the layer acknowledged.
func (m *Mixer) finishFade(tick uint64, layer int) {
	f := &m.fades[layer]
	if !f.active {
		return
	}
	from, to := f.from, f.to
	m.fades[layer] = fade{}
	m.promote(tick, layer, from, to)
}

func (m *Mixer) promote(tick uint64, layer int, from, to animgraph.PlaybackID) {
	if p := m.inst.Playback(to); p != nil {
		p.Weight = 1
	}
	if from != animgraph.NoPlayback && from != to {
		if p := m.inst.Playback(from); p != nil {
			p.Weight = 0
		}
		m.inst.ReleasePlayback(from)
	}
	m.live[layer] = to
	m.inst.AcknowledgePlayback(layer, to)

	name := ""
	if l := m.inst.Layer(layer); l != nil {
		if p := m.inst.Playback(to); p != nil {
			if state := l.Graph().State(p.State); state != nil {
				name = state.Name
			}
		}
	}
	loggingplayback.Promoted(context.Background(), m.pub, tick, m.ref(), loggingplayback.PromotedPayload{
		State:    name,
		Layer:    layer,
		Playback: int32(to),
	}, nil)
}

func (m *Mixer) ref() logging.EntityRef {
	return logging.EntityRef{ID: m.inst.ID(), Kind: logging.EntityKindInstance}
}

func (m *Mixer) scratchWeights(n int) []float32 {
	if cap(m.scratch) < n {
		m.scratch = make([]float32, n)
	}
	s := m.scratch[:n]
	for i := range s {
		s[i] = 0
	}
	return s
}
