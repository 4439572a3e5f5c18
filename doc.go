// Package animgraph is the runtime core of a clip-space animation state
// machine. A baked graph (see the graph package) is instantiated per actor;
// each tick the instance evaluates transition conditions against a shared
// parameter store, allocates playback and sampler records for entered
// states, and hands crossfade work to a blend pipeline through per-layer
// transition requests.
//
// The package performs no pose sampling and no locking. One goroutine owns
// an Instance; diagnostics leave through an optional logging.Publisher.
package animgraph
