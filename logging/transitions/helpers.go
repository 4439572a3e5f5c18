package transitions

import (
	"context"

	"github.com/Lint111/animgraph/logging"
)

const (
	// EventEntry is emitted when a layer enters its default state on the
	// first evaluated tick.
	EventEntry logging.EventType = "transition.entry"
	// EventTaken is emitted when a transition fires and a new playback is
	// allocated.
	EventTaken logging.EventType = "transition.taken"
	// EventDropped is emitted when a selected transition is abandoned
	// because the sampler pool cannot hold the destination state.
	EventDropped logging.EventType = "transition.dropped"
)

// EntryPayload describes a layer's initial state activation.
type EntryPayload struct {
	State    string `json:"state"`
	Layer    int    `json:"layer"`
	Playback int32  `json:"playback"`
}

// TakenPayload captures a fired transition and the playback it produced.
type TakenPayload struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	Layer       int     `json:"layer"`
	Source      string  `json:"source"`
	SourceIndex int     `json:"sourceIndex"`
	Duration    float32 `json:"duration"`
	Playback    int32   `json:"playback"`
}

// DroppedPayload records why a transition could not allocate samplers.
type DroppedPayload struct {
	From   string `json:"from,omitempty"`
	To     string `json:"to"`
	Layer  int    `json:"layer"`
	Needed int    `json:"needed"`
	Free   int    `json:"free"`
}

// Entry publishes the initial activation of a layer.
func Entry(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload EntryPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventEntry,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryRuntime,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// Taken publishes a fired transition.
func Taken(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload TakenPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventTaken,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryRuntime,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// Dropped publishes an abandoned transition. The machine retries on the next
// tick, so the event is a warning rather than an error.
func Dropped(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload DroppedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventDropped,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryRuntime,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
