// Package recorder declares the glue interface the calls
// "Recorder": an external collaborator that appends secondary command
// buffers into a pass's primary command buffer, keyed by submission
// order. The frame executor (package frame) is the only caller; this
// package owns no Vulkan state of its own.
//
// It is grounded on asche's Context/Application split (context.go),
// which let the embedding application supply prepare/cleanup callbacks
// invoked by the frame loop without the context package knowing what
// they did; Recorder generalizes that callback shape into a per-pass,
// per-frame hook with an explicit reset between frames.
package recorder

import vk "github.com/vulkan-go/vulkan"

// Recorder produces secondary command buffers for one or more passes.
// Reset is called once per frame before any Record call, giving the
// recorder a chance to reset its own secondary-buffer pool, the same
// moment `sync(frame,reset)` resets every recorder's pool.
type Recorder interface {
	Reset()
	Record(order int, primary vk.CommandBuffer)
}

// Set is an ordered collection of recorders the executor drives every
// frame. Order of registration does not matter: every recorder in the
// set is invoked for every non-culled subpass, and is expected to
// no-op for orders it has nothing to contribute to.
type Set struct {
	recorders []Recorder
}

// NewSet creates a recorder set from zero or more recorders.
func NewSet(recorders ...Recorder) *Set {
	return &Set{recorders: recorders}
}

// Add appends a recorder to the set.
func (s *Set) Add(r Recorder) { s.recorders = append(s.recorders, r) }

// Reset resets every recorder in the set.
func (s *Set) Reset() {
	for _, r := range s.recorders {
		r.Reset()
	}
}

// Record invokes every recorder for the given subpass order.
func (s *Set) Record(order int, primary vk.CommandBuffer) {
	for _, r := range s.recorders {
		r.Record(order, primary)
	}
}
