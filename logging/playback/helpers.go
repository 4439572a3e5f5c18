package playback

import (
	"context"

	"github.com/Lint111/animgraph/logging"
)

const (
	// EventLayerSkipped is emitted when a layer holds its evaluation because
	// the blend pipeline has not acknowledged the current playback yet.
	EventLayerSkipped logging.EventType = "playback.layer_skipped"
	// EventPromoted is emitted when a crossfade completes and the incoming
	// playback takes full weight.
	EventPromoted logging.EventType = "playback.promoted"
	// EventReset is emitted when an instance discards its playback and
	// sampler pools.
	EventReset logging.EventType = "playback.reset"
)

// SkippedPayload names the playback the layer is waiting on.
type SkippedPayload struct {
	Layer        int   `json:"layer"`
	Playback     int32 `json:"playback"`
	Acknowledged int32 `json:"acknowledged"`
}

// PromotedPayload describes the playback that finished fading in.
type PromotedPayload struct {
	State    string `json:"state"`
	Layer    int    `json:"layer"`
	Playback int32  `json:"playback"`
}

// ResetPayload records the pool sizes discarded by a reset.
type ResetPayload struct {
	Layers    int `json:"layers"`
	Playbacks int `json:"playbacks"`
	Samplers  int `json:"samplers"`
}

// LayerSkipped publishes a held layer evaluation.
func LayerSkipped(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SkippedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventLayerSkipped,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryRuntime,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// Promoted publishes a completed crossfade.
func Promoted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PromotedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventPromoted,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryRuntime,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// Reset publishes a pool reset.
func Reset(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ResetPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventReset,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryRuntime,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
