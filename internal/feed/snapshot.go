package feed

// StateMessage is the wire envelope broadcast to subscribers once per tick.
type StateMessage struct {
	Type       string          `json:"type"`
	Tick       uint64          `json:"tick"`
	ServerTime int64           `json:"serverTime"`
	Actors     []ActorSnapshot `json:"actors"`
}

// ActorSnapshot is one actor's machine state.
type ActorSnapshot struct {
	ID     string          `json:"id"`
	Layers []LayerSnapshot `json:"layers"`
}

// LayerSnapshot captures a layer's current state, its playback clock, and
// the live sampler weights. Live trails Playback while a fade is in flight.
type LayerSnapshot struct {
	Layer    int               `json:"layer"`
	Graph    string            `json:"graph"`
	State    string            `json:"state"`
	Playback int32             `json:"playback"`
	Live     int32             `json:"live"`
	Fading   bool              `json:"fading"`
	Time     float32           `json:"time"`
	Weight   float32           `json:"weight"`
	Samplers []SamplerSnapshot `json:"samplers,omitempty"`
}

// SamplerSnapshot is one clip cursor contributing to a layer's pose.
type SamplerSnapshot struct {
	Clip   int     `json:"clip"`
	Time   float32 `json:"time"`
	Weight float32 `json:"weight"`
}
