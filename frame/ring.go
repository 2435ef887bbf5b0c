// Package frame implements the virtual-frame ring and the frame
// executor that drives acquire→record→submit→present→sync.
//
// It is grounded on dieselvk's PerFrame/CoreRenderInstance
// (instance.go): PerFrame held one command pool, one primary command
// buffer, one fence and two semaphores per swapchain image, rotated by
// `current_frame`; Ring generalizes that to this module's graphics+
// compute halves and a per-window sync-object vector sized to however
// many windows the renderer actually has this frame, rather than a
// single hardcoded swapchain.
package frame

import (
	"context"
	"sync"
	"sync/atomic"

	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/sync/errgroup"

	"github.com/andewx/vkgraph/vkerr"
	"github.com/andewx/vkgraph/vklog"
)

// Submitted is a bitmask over {∅, G, C, G|C}.
type Submitted uint8

const (
	SubmittedGraphics Submitted = 1 << iota
	SubmittedCompute
)

// SubmittedNone is the zero value: neither half has submitted yet.
const SubmittedNone Submitted = 0

func (s Submitted) Has(bit Submitted) bool { return s&bit != 0 }

// WindowSync is one entry in a frame's growable per-window sync-object
// vector : an image-available semaphore plus the image index
// the last acquire against that window returned.
type WindowSync struct {
	AttachmentIndex int
	Available       vk.Semaphore
	ImageIndex      uint32
	Valid           bool
}

// half is the graphics or compute command-recording state for one
// frame: one command pool, one primary command buffer, one fence.
type half struct {
	pool   vk.CommandPool
	cmd    vk.CommandBuffer
	fence  vk.Fence
	family uint32
}

func newHalf(device vk.Device, family uint32) (half, error) {
	var h half
	h.family = family
	res := vk.CreateCommandPool(device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: family,
	}, nil, &h.pool)
	if res != vk.Success {
		return h, vkerr.Fatal(res)
	}
	cmds := make([]vk.CommandBuffer, 1)
	res = vk.AllocateCommandBuffers(device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        h.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, cmds)
	if res != vk.Success {
		return h, vkerr.Fatal(res)
	}
	h.cmd = cmds[0]
	res = vk.CreateFence(device, &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}, nil, &h.fence)
	if res != vk.Success {
		return h, vkerr.Fatal(res)
	}
	return h, nil
}

func (h *half) destroy(device vk.Device) {
	if h.fence != vk.NullFence {
		vk.DestroyFence(device, h.fence, nil)
	}
	if h.pool != vk.NullCommandPool {
		vk.DestroyCommandPool(device, h.pool, nil)
	}
}

// Frame is one slot of the virtual-frame ring.
type Frame struct {
	index int

	graphics half
	compute  half

	rendered  vk.Semaphore
	submitted Submitted

	mu      sync.Mutex
	windows []WindowSync
}

// Index returns this frame's stable ring index in [0, N).
func (f *Frame) Index() int { return f.index }

// GraphicsCmd returns the frame's graphics primary command buffer.
func (f *Frame) GraphicsCmd() vk.CommandBuffer { return f.graphics.cmd }

// ComputeCmd returns the frame's compute primary command buffer.
func (f *Frame) ComputeCmd() vk.CommandBuffer { return f.compute.cmd }

// Submitted reports which halves were submitted this rotation.
func (f *Frame) Submitted() Submitted { return f.submitted }

// Windows returns the frame's current per-window sync-object vector.
func (f *Frame) Windows() []WindowSync {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]WindowSync, len(f.windows))
	copy(out, f.windows)
	return out
}

// resize grows or shrinks the frame's window sync-object vector to
// match count (the acquire step 1: "shrink or grow the frame's
// sync-object array to match"). New entries start invalid and are
// assigned a semaphore lazily by ensureSemaphore.
func (f *Frame) resize(count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.windows) == count {
		return
	}
	if len(f.windows) > count {
		f.windows = f.windows[:count]
		return
	}
	for len(f.windows) < count {
		f.windows = append(f.windows, WindowSync{AttachmentIndex: -1})
	}
}

// ensureSemaphore allocates the image-available semaphore for window
// slot i if missing, then records the attachment index and image
// index this acquire returned.
func (f *Frame) ensureSemaphore(device vk.Device, i int, attachmentIndex int) (vk.Semaphore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := &f.windows[i]
	w.AttachmentIndex = attachmentIndex
	if w.Available == vk.NullSemaphore {
		var sem vk.Semaphore
		res := vk.CreateSemaphore(device, &vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}, nil, &sem)
		if res != vk.Success {
			return vk.NullSemaphore, vkerr.Fatal(res)
		}
		w.Available = sem
	}
	return w.Available, nil
}

func (f *Frame) setAcquired(i int, imageIndex uint32, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows[i].ImageIndex = imageIndex
	f.windows[i].Valid = ok
}

func (f *Frame) destroy(device vk.Device) {
	f.graphics.destroy(device)
	f.compute.destroy(device)
	if f.rendered != vk.NullSemaphore {
		vk.DestroySemaphore(device, f.rendered, nil)
	}
	for _, w := range f.windows {
		if w.Available != vk.NullSemaphore {
			vk.DestroySemaphore(device, w.Available, nil)
		}
	}
}

// Ring is the FIFO ring of N virtual frames, addressed by a stable
// index (the "Frames are addressed by a stable index in [0, N),
// ... rotated in a FIFO ring").
type Ring struct {
	device  vk.Device
	frames  []*Frame
	current int

	log *vklog.Logger

	// liveObjects is a monotonic counter of frame-owned Vulkan objects
	// ever allocated (command pools, fences, semaphores), exposed to
	// clients worried about leaks across recreate cycles; it never
	// decrements, since the design gives no API to reclaim ring slots
	// once created ("leak accounting").
	liveObjects int64
}

// New creates a ring of count frames, each with its own graphics and
// compute half against the given queue families.
func New(device vk.Device, graphicsFamily, computeFamily uint32, count int, log *vklog.Logger) (*Ring, error) {
	r := &Ring{device: device, log: log}
	for i := 0; i < count; i++ {
		f := &Frame{index: i}
		var err error
		f.graphics, err = newHalf(device, graphicsFamily)
		if err != nil {
			return nil, err
		}
		f.compute, err = newHalf(device, computeFamily)
		if err != nil {
			return nil, err
		}
		res := vk.CreateSemaphore(device, &vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}, nil, &f.rendered)
		if res != vk.Success {
			return nil, vkerr.Fatal(res)
		}
		r.frames = append(r.frames, f)
		atomic.AddInt64(&r.liveObjects, 5) // pool+fence x2 halves + rendered semaphore
	}
	if log != nil {
		log.Debugf("frame: ring created with %d frames", count)
	}
	return r, nil
}

// Len returns the number of frames in the ring.
func (r *Ring) Len() int { return len(r.frames) }

// Current returns the currently addressed frame.
func (r *Ring) Current() *Frame { return r.frames[r.current] }

// CurrentIndex returns the currently addressed frame's stable index.
func (r *Ring) CurrentIndex() int { return r.current }

// Advance rotates the ring to the next frame.
func (r *Ring) Advance() {
	r.current = (r.current + 1) % len(r.frames)
}

// At returns the frame at a specific ring index.
func (r *Ring) At(i int) *Frame { return r.frames[i] }

// LiveObjects returns the monotonic count of Vulkan objects the ring
// allocated in New (a supplemented feature). The count never goes
// down when objects are destroyed, and the per-window semaphores a
// frame creates later are not counted.
func (r *Ring) LiveObjects() int64 { return atomic.LoadInt64(&r.liveObjects) }

// SyncAll waits every frame's set fences concurrently; the coarsest
// cancellation path is sync_all_frames followed by teardown, so it
// fans the per-frame fence waits out with
// golang.org/x/sync/errgroup instead of dieselvk's sequential
// destroy_per_frame loop (instance.go), since frames share no state
// during a wait.
func (r *Ring) SyncAll(ctx context.Context, reset bool) error {
	g, _ := errgroup.WithContext(ctx)
	for _, f := range r.frames {
		f := f
		g.Go(func() error {
			return Sync(r.device, f, reset)
		})
	}
	return g.Wait()
}

// Sync implements `sync(frame, reset)`: wait on the
// fence(s) actually set in `submitted`; if reset, reset those fences,
// clear `submitted`, reset both command pools.
func Sync(device vk.Device, f *Frame, reset bool) error {
	var fences []vk.Fence
	if f.submitted.Has(SubmittedGraphics) {
		fences = append(fences, f.graphics.fence)
	}
	if f.submitted.Has(SubmittedCompute) {
		fences = append(fences, f.compute.fence)
	}
	if len(fences) == 0 {
		return nil
	}
	res := vk.WaitForFences(device, uint32(len(fences)), fences, vk.True, vk.MaxUint64)
	if res != vk.Success {
		return vkerr.Fatal(res)
	}
	if !reset {
		return nil
	}
	res = vk.ResetFences(device, uint32(len(fences)), fences)
	if res != vk.Success {
		return vkerr.Fatal(res)
	}
	vk.ResetCommandPool(device, f.graphics.pool, vk.CommandPoolResetFlags(vk.CommandPoolResetReleaseResourcesBit))
	vk.ResetCommandPool(device, f.compute.pool, vk.CommandPoolResetFlags(vk.CommandPoolResetReleaseResourcesBit))
	f.submitted = SubmittedNone
	return nil
}

// Clear implements the `clear(frame)`: sync(frame, false) then
// destroy the frame's per-frame objects.
func (r *Ring) Clear(f *Frame) error {
	if err := Sync(r.device, f, false); err != nil {
		return err
	}
	f.destroy(r.device)
	return nil
}

// Destroy tears down every frame in the ring. Callers should
// SyncAll(ctx, false) first to ensure no frame's resources are still
// in flight.
func (r *Ring) Destroy() {
	for _, f := range r.frames {
		f.destroy(r.device)
	}
}
