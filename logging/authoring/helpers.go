package authoring

import (
	"context"

	"github.com/Lint111/animgraph/logging"
)

const (
	// EventLoaded is emitted when a graph document bakes successfully.
	EventLoaded logging.EventType = "authoring.loaded"
	// EventReloadFailed is emitted when a watched document changes but the
	// replacement fails to parse or bake. The previous graph stays active.
	EventReloadFailed logging.EventType = "authoring.reload_failed"
)

// LoadedPayload summarizes a baked document.
type LoadedPayload struct {
	Path   string `json:"path,omitempty"`
	Graph  string `json:"graph"`
	States int    `json:"states"`
	Params int    `json:"params"`
}

// ReloadFailedPayload carries the bake or parse error text.
type ReloadFailedPayload struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Loaded publishes a successful document bake.
func Loaded(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload LoadedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventLoaded,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryAuthoring,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// ReloadFailed publishes a failed hot reload.
func ReloadFailed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ReloadFailedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventReloadFailed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryAuthoring,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
