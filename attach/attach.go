// Package attach implements the attachment registry: a
// set of typed, indexed slots that hold either a window backing or an
// image allocation, consumed as render targets or read-side images by
// the pass graph.
//
// It is grounded on dieselvk's CoreImage (image.go) and CoreDisplay
// (display.go), which held the same two kinds of backing (texture
// images with device memory, and a window/surface handle) as separate
// ad-hoc maps; Registry unifies them into one indexed slot type so the
// pass graph can address either kind uniformly by attachment index.
package attach

import (
	"fmt"
	"sync"

	vk "github.com/vulkan-go/vulkan"
)

// Kind discriminates the three slot variants a Registry can hold.
type Kind int

const (
	// Empty is the zero value: a declared but unbound slot.
	Empty Kind = iota
	// Window backs the slot with a surface/swapchain handle.
	Window
	// Image backs the slot with a GPU image allocation.
	Image
)

func (k Kind) String() string {
	switch k {
	case Window:
		return "window"
	case Image:
		return "image"
	default:
		return "empty"
	}
}

// RecreateFlags mirrors the bitset a swapchain acquire/present
// returns: {recreate, resize, reformat}. It is declared here,
// not in package swapchain, because the attachment registry is the one
// place the flags accumulate across a frame boundary: during a frame
// only the window slot's recreate-flag accumulator may be OR-ed.
type RecreateFlags uint32

const (
	FlagRecreate RecreateFlags = 1 << iota
	FlagResize
	FlagReformat
)

func (f RecreateFlags) Has(bit RecreateFlags) bool { return f&bit != 0 }

// WindowSurface is the external Window collaborator: acquire(sem),
// present(sem,index), frame.images[], frame.format, frame.(width,
// height). The attachment registry itself
// only stores the handle; package swapchain is the collaborator that
// actually calls Acquire/Present on it.
type WindowSurface interface {
	Surface() vk.Surface
	Acquire(available vk.Semaphore) (imageIndex uint32, ok bool, err error)
	Present(rendered vk.Semaphore, imageIndex uint32) error
	Images() []vk.Image
	Format() vk.Format
	Width() uint32
	Height() uint32
}

// ViewProvider is an optional capability a WindowSurface may implement
// to expose its current per-swapchain-image view set, so the frame
// executor can mirror it into the slot's WindowBacking every acquire
// without the registry reaching back into package platform itself.
type ViewProvider interface {
	ImageViews() []vk.ImageView
}

// WindowBacking is the payload of a Window-kind slot.
type WindowBacking struct {
	Surface WindowSurface

	// recreate is the per-frame OR accumulator fed by swapchain.Acquire;
	// it is the one field mutable while the renderer is "recording" a
	// frame.
	recreate RecreateFlags

	// resizedAtGeneration records the pass-generation counter at which
	// this slot was last resized, so consumers that
	// span a resize boundary can detect a stale prior layout instead of
	// guessing it.
	resizedAtGeneration uint64

	// format/extent/views mirror the swapchain's current state, kept
	// here (rather than re-queried from package swapchain) so the pass
	// graph can build attachment descriptions and framebuffers without
	// importing swapchain. Package frame's executor updates these after
	// every acquire.
	format vk.Format
	extent vk.Extent2D
	views  []vk.ImageView
}

// SetSwapchainState records the current format/extent/per-image view
// set of this window's swapchain. Called by package frame's executor
// after every acquire.
func (w *WindowBacking) SetSwapchainState(format vk.Format, extent vk.Extent2D, views []vk.ImageView) {
	w.format = format
	w.extent = extent
	w.views = views
}

// Format returns the window's current swapchain image format.
func (w *WindowBacking) Format() vk.Format { return w.format }

// Extent returns the window's current swapchain image extent.
func (w *WindowBacking) Extent() vk.Extent2D { return w.extent }

// Views returns the window's current per-swapchain-image view set.
func (w *WindowBacking) Views() []vk.ImageView { return w.views }

// OrRecreateFlags accumulates flags returned by a swapchain acquire.
// Safe to call while the renderer is mid-frame; this is the one
// mutation permitted during recording.
func (w *WindowBacking) OrRecreateFlags(f RecreateFlags) {
	w.recreate |= f
}

// TakeRecreateFlags returns the accumulated flags and resets the
// accumulator, marking the generation at which any resize occurred.
func (w *WindowBacking) TakeRecreateFlags(generation uint64) RecreateFlags {
	f := w.recreate
	w.recreate = 0
	if f.Has(FlagResize) {
		w.resizedAtGeneration = generation
	}
	return f
}

// ResizedAtGeneration reports the pass-generation at which this slot
// was last resized (0 if never).
func (w *WindowBacking) ResizedAtGeneration() uint64 { return w.resizedAtGeneration }

// ImageBacking is the payload of an Image-kind slot: format, extent,
// mip/layer counts, creation flags and the GPU handle, grounded on
// CoreImage's texture_images/texture_device_memory maps.
type ImageBacking struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView

	Format      vk.Format
	Extent      vk.Extent3D
	MipLevels   uint32
	ArrayLayers uint32
	Flags       vk.ImageCreateFlags
}

// Slot is one indexed entry in the registry.
type Slot struct {
	Index  int
	Kind   Kind
	Window *WindowBacking
	Image  *ImageBacking
}

// Registry owns the renderer's attachment slots. Mutation outside of a
// frame is unrestricted; mutation during a frame is limited to OR-ing
// a window slot's recreate-flag accumulator (enforced by the recording
// flag, the "Attachment registry: writable only outside a frame").
type Registry struct {
	mu        sync.RWMutex
	slots     []Slot
	recording bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

// SetRecording toggles the write-guard. The frame executor calls this
// around acquire/record/submit.
func (r *Registry) SetRecording(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recording = v
}

// AddWindow declares a new window-backed slot and returns its index.
func (r *Registry) AddWindow(surface WindowSurface) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return -1, fmt.Errorf("attach: cannot add slot while recording a frame")
	}
	idx := len(r.slots)
	r.slots = append(r.slots, Slot{
		Index:  idx,
		Kind:   Window,
		Window: &WindowBacking{Surface: surface},
	})
	return idx, nil
}

// AddImage declares a new image-backed slot and returns its index.
func (r *Registry) AddImage(img ImageBacking) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return -1, fmt.Errorf("attach: cannot add slot while recording a frame")
	}
	idx := len(r.slots)
	b := img
	r.slots = append(r.slots, Slot{
		Index: idx,
		Kind:  Image,
		Image: &b,
	})
	return idx, nil
}

// AddEmpty reserves a slot index with no backing yet.
func (r *Registry) AddEmpty() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return -1, fmt.Errorf("attach: cannot add slot while recording a frame")
	}
	idx := len(r.slots)
	r.slots = append(r.slots, Slot{Index: idx, Kind: Empty})
	return idx, nil
}

// ReplaceImage rebinds slot idx to a new image backing. Forbidden
// while recording.
func (r *Registry) ReplaceImage(idx int, img ImageBacking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return fmt.Errorf("attach: cannot replace slot %d while recording a frame", idx)
	}
	if idx < 0 || idx >= len(r.slots) {
		return fmt.Errorf("attach: slot %d out of range", idx)
	}
	b := img
	r.slots[idx] = Slot{Index: idx, Kind: Image, Image: &b}
	return nil
}

// OrWindowRecreateFlags accumulates recreate flags on a window slot.
// This is the single mutation the registry permits during recording.
func (r *Registry) OrWindowRecreateFlags(idx int, f RecreateFlags) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if idx < 0 || idx >= len(r.slots) {
		return fmt.Errorf("attach: slot %d out of range", idx)
	}
	s := &r.slots[idx]
	if s.Kind != Window {
		return fmt.Errorf("attach: slot %d is not window-backed", idx)
	}
	s.Window.OrRecreateFlags(f)
	return nil
}

// Slot reads a typed view of a slot by index.
func (r *Registry) Slot(idx int) (Slot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if idx < 0 || idx >= len(r.slots) {
		return Slot{}, false
	}
	return r.slots[idx], true
}

// Enumerate returns a snapshot of all slots in index order.
func (r *Registry) Enumerate() []Slot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Slot, len(r.slots))
	copy(out, r.slots)
	return out
}

// NonEmpty reports whether slot idx is bound to a window or image, the
// check required before a pass consuming it as an attachment may
// proceed: that slot must be non-empty by the time pass warmup runs,
// or the pass is skipped.
func (r *Registry) NonEmpty(idx int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if idx < 0 || idx >= len(r.slots) {
		return false
	}
	return r.slots[idx].Kind != Empty
}
