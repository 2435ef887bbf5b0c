// Package swapchain implements the swapchain coordinator: a thin
// layer over one or more platform windows that turns each window's
// raw acquire/present result into the {recreate, resize, reformat}
// flag vocabulary the rest of the renderer reacts to, and tracks
// per-window purge generations.
//
// It is grounded on dieselvk's CoreSwapchain (swapchain.go), which
// built the vk.Swapchain, image views and depth framebuffer directly;
// here that heavy lifting belongs to the external Window collaborator
// (the "Window: acquire(sem), present(sem,index), frame.images[],
// frame.format, frame.(width,height)"), and the coordinator only
// compares what a window reports frame to frame to decide what must be
// rebuilt — the same comparison asche's prepareSwapchain (context.go)
// made inline against SwapchainDimensions before deciding to hand off
// an OldSwapchain.
package swapchain

import (
	"sync"

	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/vkgraph/attach"
	"github.com/andewx/vkgraph/vklog"
)

// NoImage is the sentinel for "surface unusable".
const NoImage = ^uint32(0)

// Window is the external collaborator. Each window
// owns its own Vulkan surface and swapchain and knows how to acquire
// and present against it; the coordinator never touches Vulkan
// swapchain objects directly. It is an alias for attach.WindowSurface
// so a window-backed attachment slot and a swapchain-coordinator
// target are always the same concrete value.
type Window = attach.WindowSurface

// Purger is an optional capability a Window may implement so the
// coordinator's purge can tell it to drop images older than the
// current generation, per "purge(window): drops images
// older than the current generation."
type Purger interface {
	Purge(generation uint64)
}

type windowState struct {
	generation          uint64
	lastWidth, lastHeight uint32
	lastFormat          vk.Format
	seenOnce            bool
}

// Coordinator is the renderer-owned swapchain coordinator.
type Coordinator struct {
	mu    sync.Mutex
	state map[Window]*windowState
	log   *vklog.Logger
}

// New creates an empty coordinator.
func New(log *vklog.Logger) *Coordinator {
	return &Coordinator{state: make(map[Window]*windowState), log: log}
}

func (c *Coordinator) stateFor(w Window) *windowState {
	s, ok := c.state[w]
	if !ok {
		s = &windowState{}
		c.state[w] = s
	}
	return s
}

// Acquire implements the `acquire(window, available_sem) →
// (image_index, flags)`. It derives resize/reformat by comparing the
// window's current dimensions/format against what was observed last
// time, and folds in whatever the window itself reports (an
// out-of-date or suboptimal acquire).
func (c *Coordinator) Acquire(window Window, available vk.Semaphore) (uint32, attach.RecreateFlags, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok, err := window.Acquire(available)

	var flags attach.RecreateFlags
	st := c.stateFor(window)

	width, height, format := window.Width(), window.Height(), window.Format()
	if st.seenOnce {
		if width != st.lastWidth || height != st.lastHeight {
			flags |= attach.FlagResize | attach.FlagRecreate
		}
		if format != st.lastFormat {
			flags |= attach.FlagReformat | attach.FlagRecreate
		}
	}
	if !ok {
		flags |= attach.FlagRecreate
	}

	st.lastWidth, st.lastHeight, st.lastFormat = width, height, format
	st.seenOnce = true

	if flags.Has(attach.FlagRecreate) {
		st.generation++
		if c.log != nil {
			c.log.Debugf("swapchain: window %p recreate flags=%#x (generation=%d)", window, flags, st.generation)
		}
	}

	if err != nil {
		return NoImage, flags, err
	}
	if !ok {
		return NoImage, flags, nil
	}
	return idx, flags, nil
}

// Present implements the `present(rendered_sem, windows[],
// indices[]) → flags[]`: an atomic-looking multi-surface present that
// never panics — a per-surface present failure only sets that
// surface's recreate flag, the others still report whatever their own
// present returned.
func (c *Coordinator) Present(rendered vk.Semaphore, windows []Window, indices []uint32) []attach.RecreateFlags {
	out := make([]attach.RecreateFlags, len(windows))
	for i, w := range windows {
		if w == nil {
			continue
		}
		if err := w.Present(rendered, indices[i]); err != nil {
			out[i] |= attach.FlagRecreate
			if c.log != nil {
				c.log.Warnf("swapchain: present failed on window %p: %v", w, err)
			}
		}
	}
	return out
}

// Purge implements the `purge(window)`. If the window exposes
// Purger, the coordinator hands it the generation at which it last
// recreated so the window can drop any image still referenced by a
// stale generation.
func (c *Coordinator) Purge(window Window) {
	c.mu.Lock()
	st, ok := c.state[window]
	gen := uint64(0)
	if ok {
		gen = st.generation
	}
	c.mu.Unlock()
	if p, ok := window.(Purger); ok {
		p.Purge(gen)
	}
}

// Forget drops a window's tracked state, e.g. when it is closed.
func (c *Coordinator) Forget(window Window) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.state, window)
}
