package animgraph

import (
	"context"

	"github.com/Lint111/animgraph/graph"
	loggingplayback "github.com/Lint111/animgraph/logging/playback"
	loggingtransitions "github.com/Lint111/animgraph/logging/transitions"
)

// Step evaluates every active layer once. A layer whose current playback has
// not been acknowledged by the blend pipeline holds instead of evaluating,
// so at most one transition fires per layer per tick and the pipeline is
// never asked to fade toward more than one pending playback.
func (inst *Instance) Step(tick uint64) {
	inst.lastTick = tick
	for i := range inst.layers {
		inst.stepLayer(tick, &inst.layers[i])
	}
}

func (inst *Instance) stepLayer(tick uint64, layer *Layer) {
	if !layer.active {
		return
	}

	if !layer.current.Valid() {
		inst.enterDefault(tick, layer)
		return
	}

	if layer.acknowledged != layer.current.Playback {
		loggingplayback.LayerSkipped(context.Background(), inst.pub, tick, inst.ref(), loggingplayback.SkippedPayload{
			Layer:        layer.index,
			Playback:     int32(layer.current.Playback),
			Acknowledged: int32(layer.acknowledged),
		}, nil)
		return
	}

	playback := inst.Playback(layer.current.Playback)
	if playback == nil {
		// The record was discarded under us; recover by re-entering.
		layer.current = PlaybackState{State: -1, Playback: NoPlayback}
		layer.acknowledged = NoPlayback
		inst.enterDefault(tick, layer)
		return
	}

	src, transition, ok := inst.selectTransition(layer, playback.Time)
	if !ok {
		return
	}
	inst.takeTransition(tick, layer, src, transition)
}

func (inst *Instance) enterDefault(tick uint64, layer *Layer) {
	stateIndex := layer.graph.DefaultState()
	id, ok := inst.activate(layer, stateIndex, 0)
	if !ok {
		inst.reportDrop(tick, layer, "", stateIndex)
		return
	}
	layer.current = PlaybackState{State: stateIndex, Playback: id}
	inst.setRequest(layer, TransitionRequest{
		Dest:   id,
		Source: graph.EntrySource(),
		Layer:  layer.index,
	})
	loggingtransitions.Entry(context.Background(), inst.pub, tick, inst.ref(), loggingtransitions.EntryPayload{
		State:    layer.StateName(),
		Layer:    layer.index,
		Playback: int32(id),
	}, nil)
}

// selectTransition walks the layer's candidate transitions in priority
// order: the graph-wide any-state list, then the current state's own list,
// then the state's exit group. Within each list declaration order decides
// and the first satisfied transition wins.
func (inst *Instance) selectTransition(layer *Layer, time float32) (graph.TransitionSource, *graph.Transition, bool) {
	g := layer.graph
	current := layer.current.State

	anyState := g.AnyStateTransitions()
	for i := range anyState {
		t := &anyState[i]
		if t.Dest == current && !t.CanTransitionToSelf {
			continue
		}
		if conditionsMet(t, time, inst.params) {
			return graph.TransitionSource{Kind: graph.SourceAnyState, Owner: -1, Index: i}, t, true
		}
	}

	state := g.State(current)
	if state == nil {
		return graph.TransitionSource{}, nil, false
	}
	for i := range state.Transitions {
		t := &state.Transitions[i]
		if conditionsMet(t, time, inst.params) {
			return graph.TransitionSource{Kind: graph.SourceState, Owner: current, Index: i}, t, true
		}
	}

	if state.ExitGroup != graph.NoExitGroup {
		group := g.ExitGroup(state.ExitGroup)
		for i := range group {
			t := &group[i]
			if conditionsMet(t, time, inst.params) {
				return graph.TransitionSource{Kind: graph.SourceExit, Owner: state.ExitGroup, Index: i}, t, true
			}
		}
	}

	return graph.TransitionSource{}, nil, false
}

func (inst *Instance) takeTransition(tick uint64, layer *Layer, src graph.TransitionSource, transition *graph.Transition) {
	fromName := layer.StateName()
	id, ok := inst.activate(layer, transition.Dest, transition.Offset)
	if !ok {
		inst.reportDrop(tick, layer, fromName, transition.Dest)
		return
	}
	layer.current = PlaybackState{State: transition.Dest, Playback: id}
	inst.setRequest(layer, TransitionRequest{
		Dest:     id,
		Duration: transition.Duration,
		Source:   src,
		Layer:    layer.index,
	})
	loggingtransitions.Taken(context.Background(), inst.pub, tick, inst.ref(), loggingtransitions.TakenPayload{
		From:        fromName,
		To:          layer.StateName(),
		Layer:       layer.index,
		Source:      src.Kind.String(),
		SourceIndex: src.Index,
		Duration:    transition.Duration,
		Playback:    int32(id),
	}, nil)
}

func (inst *Instance) reportDrop(tick uint64, layer *Layer, fromName string, dest int) {
	needed := 0
	toName := ""
	if state := layer.graph.State(dest); state != nil {
		needed = state.ClipCount()
		toName = state.Name
	}
	loggingtransitions.Dropped(context.Background(), inst.pub, tick, inst.ref(), loggingtransitions.DroppedPayload{
		From:   fromName,
		To:     toName,
		Layer:  layer.index,
		Needed: needed,
		Free:   inst.maxSamplers - len(inst.samplers),
	}, nil)
}
