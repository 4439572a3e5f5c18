package animgraph

import "github.com/Lint111/animgraph/graph"

// TransitionRequest asks the blend pipeline to fade a layer toward a newly
// allocated playback. Requests are keyed by layer: writing a new request
// before the old one is consumed replaces it, so the pipeline always fades
// toward the layer's latest decision.
type TransitionRequest struct {
	Dest     PlaybackID             `json:"dest"`
	Duration float32                `json:"duration"`
	Source   graph.TransitionSource `json:"source"`
	Layer    int                    `json:"layer"`
}

func (inst *Instance) setRequest(layer *Layer, req TransitionRequest) {
	layer.request = req
	layer.hasRequest = true
}

// TakeRequest consumes the pending request for the layer, if any.
func (inst *Instance) TakeRequest(layer int) (TransitionRequest, bool) {
	l := inst.Layer(layer)
	if l == nil || !l.hasRequest {
		return TransitionRequest{}, false
	}
	req := l.request
	l.hasRequest = false
	l.request = TransitionRequest{}
	return req, true
}

// PendingRequest peeks at the layer's request without consuming it.
func (inst *Instance) PendingRequest(layer int) (TransitionRequest, bool) {
	l := inst.Layer(layer)
	if l == nil || !l.hasRequest {
		return TransitionRequest{}, false
	}
	return l.request, true
}

// AcknowledgePlayback records that the blend pipeline finished moving the
// layer onto the playback. Until the acknowledged id matches the layer's
// current playback, Step holds the layer's evaluation.
func (inst *Instance) AcknowledgePlayback(layer int, id PlaybackID) {
	l := inst.Layer(layer)
	if l == nil {
		return
	}
	l.acknowledged = id
}
