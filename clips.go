package animgraph

// ClipSource resolves the clip indices referenced by baked states to their
// durations in seconds. The runtime never inspects clip contents; pose
// sampling happens downstream of the sampler records this package maintains.
type ClipSource interface {
	ClipDuration(clip int) float32
}

// ClipInfo is one entry of a ClipTable.
type ClipInfo struct {
	Name     string  `json:"name"`
	Duration float32 `json:"duration"`
}

// ClipTable is a ClipSource backed by a flat slice, indexed by the clip
// integers states were baked with.
type ClipTable struct {
	clips []ClipInfo
}

// NewClipTable builds a table from the given entries.
func NewClipTable(clips ...ClipInfo) *ClipTable {
	t := &ClipTable{clips: make([]ClipInfo, len(clips))}
	copy(t.clips, clips)
	return t
}

// Add appends a clip and returns its index.
func (t *ClipTable) Add(name string, duration float32) int {
	t.clips = append(t.clips, ClipInfo{Name: name, Duration: duration})
	return len(t.clips) - 1
}

// ClipDuration returns the duration of the clip, or 0 when the index is out
// of range.
func (t *ClipTable) ClipDuration(clip int) float32 {
	if t == nil || clip < 0 || clip >= len(t.clips) {
		return 0
	}
	return t.clips[clip].Duration
}

// ClipName returns the authored name of the clip, or "" when the index is
// out of range.
func (t *ClipTable) ClipName(clip int) string {
	if t == nil || clip < 0 || clip >= len(t.clips) {
		return ""
	}
	return t.clips[clip].Name
}

// NumClips returns the number of registered clips.
func (t *ClipTable) NumClips() int {
	if t == nil {
		return 0
	}
	return len(t.clips)
}
