package animgraph

import (
	"math"

	"github.com/Lint111/animgraph/blend"
	"github.com/Lint111/animgraph/graph"
)

// StateWeights fills dst with the in-state blend weights of the state under
// the current parameter values. dst must hold state.ClipCount() elements.
// Single-clip states weight their one sampler fully; blend states delegate
// to the blend package.
func StateWeights(dst []float32, state *graph.State, params *Parameters) {
	switch state.Kind {
	case graph.KindLinearBlend:
		blend.Linear(dst, params.BlendValue(state.BlendParam), state.Thresholds)
	case graph.KindDirectional2D:
		input := blend.Point{X: params.Float(state.ParamX), Y: params.Float(state.ParamY)}
		blend.Directional(dst, input, state.Positions)
	default:
		for i := range dst {
			dst[i] = 0
		}
		if len(dst) > 0 {
			dst[0] = 1
		}
	}
}

// EffectiveDuration returns the weighted loop duration of a state: each
// clip's duration divided by its clip speed, weighted by the in-state blend
// weights. Single-clip states report the raw clip duration.
func EffectiveDuration(clips ClipSource, state *graph.State, weights []float32) float32 {
	if state.Kind == graph.KindSingleClip {
		return clips.ClipDuration(state.Clip)
	}
	var total float32
	for i, w := range weights {
		if w <= 0 || i >= len(state.Clips) {
			continue
		}
		speed := state.ClipSpeeds[i]
		if speed <= 0 {
			speed = 1
		}
		total += w * (clips.ClipDuration(state.Clips[i]) / speed)
	}
	return total
}

// sanitizeOffset normalizes a transition's start offset: looping states wrap
// into [0,1), non-looping states clamp to [0,1].
func sanitizeOffset(offset float32, loop bool) float32 {
	if loop {
		wrapped := offset - float32(math.Floor(float64(offset)))
		if wrapped >= 1 || wrapped < 0 {
			return 0
		}
		return wrapped
	}
	if offset < 0 {
		return 0
	}
	if offset > 1 {
		return 1
	}
	return offset
}

// activate allocates a playback and its sampler block for entering a state.
// It fails without side effects when the sampler pool cannot hold the
// state's clips, leaving the caller free to retry on a later tick.
func (inst *Instance) activate(layer *Layer, stateIndex int, offset float32) (PlaybackID, bool) {
	state := layer.graph.State(stateIndex)
	if state == nil {
		return NoPlayback, false
	}
	count := state.ClipCount()
	if count <= 0 || len(inst.samplers)+count > inst.maxSamplers {
		return NoPlayback, false
	}

	speed := state.Speed
	if state.SpeedParam != graph.NoParam {
		speed *= inst.params.Float(state.SpeedParam)
	}
	offset = sanitizeOffset(offset, state.Loop)

	weights := inst.scratchWeights(count)
	StateWeights(weights, state, inst.params)
	start := offset * EffectiveDuration(inst.clips, state, weights)

	first := len(inst.samplers)
	if state.Kind == graph.KindSingleClip {
		inst.samplers = append(inst.samplers, Sampler{
			Clip:         state.Clip,
			Time:         start,
			PreviousTime: start,
			Weight:       1,
			Layer:        layer.index,
		})
	} else {
		for i, clip := range state.Clips {
			inst.samplers = append(inst.samplers, Sampler{
				Clip:         clip,
				Time:         start,
				PreviousTime: start,
				Weight:       weights[i],
				Layer:        layer.index,
			})
		}
	}

	id := inst.nextID
	inst.nextID++
	inst.playbacks = append(inst.playbacks, Playback{
		ID:           id,
		State:        stateIndex,
		Layer:        layer.index,
		Time:         start,
		PreviousTime: start,
		Speed:        speed,
		Loop:         state.Loop,
		Weight:       1,
		FirstSampler: first,
		SamplerCount: count,
	})
	return id, true
}
