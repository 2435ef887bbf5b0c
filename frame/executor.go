package frame

import (
	"context"
	"sync"

	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/vkgraph/attach"
	"github.com/andewx/vkgraph/depsync"
	"github.com/andewx/vkgraph/graph"
	"github.com/andewx/vkgraph/recorder"
	"github.com/andewx/vkgraph/swapchain"
	"github.com/andewx/vkgraph/vkerr"
	"github.com/andewx/vkgraph/vklog"
	"github.com/andewx/vkgraph/vkrange"
)

// QueueSet holds the graphics and compute queues plus the per-queue
// mutex each one requires: graphics and compute each have their own
// mutex, held only around QueueSubmit and QueuePresent.
type QueueSet struct {
	Graphics       vk.Queue
	Compute        vk.Queue
	GraphicsFamily uint32
	ComputeFamily  uint32
	TransferFamily uint32

	graphicsMu sync.Mutex
	computeMu  sync.Mutex
}

// FlushFunc is a best-effort external hook (the step 6: "flush
// the pipeline cache and the descriptor pool"), invoked after a
// successful submit. Failures are not reported: a flush is an
// optimization, never required for correctness.
type FlushFunc func()

// Executor is the frame executor, component G: it owns no Vulkan
// objects of its own beyond what Ring gives it, and drives
// acquire→record→submit→present→sync across the attachment registry,
// swapchain coordinator, pass graph and dependency pool. It is
// grounded on dieselvk's CoreRenderInstance.Update (instance.go),
// which inlined this same loop (acquire, resize-on-suboptimal,
// record, submit, present, rotate) against one hardcoded swapchain
// and one hardcoded render pass.
type Executor struct {
	device vk.Device
	ring   *Ring

	attachments *attach.Registry
	swap        *swapchain.Coordinator
	graph       *graph.Graph
	recorders   *recorder.Set
	queues      *QueueSet
	dep         *depsync.DependencyObject

	log *vklog.Logger

	imageCount int

	FlushPipelineCache FlushFunc
	FlushDescriptorPool FlushFunc
	ResetDescriptorPool FlushFunc
}

// NewExecutor wires the components an executor drives. imageCount is
// the number of framebuffers to build per render-pass chain (normally
// the swapchain image count).
func NewExecutor(device vk.Device, ring *Ring, attachments *attach.Registry, swap *swapchain.Coordinator, g *graph.Graph, recorders *recorder.Set, queues *QueueSet, dep *depsync.DependencyObject, imageCount int, log *vklog.Logger) *Executor {
	return &Executor{
		device:      device,
		ring:        ring,
		attachments: attachments,
		swap:        swap,
		graph:       g,
		recorders:   recorders,
		queues:      queues,
		dep:         dep,
		imageCount:  imageCount,
		log:         log,
	}
}

type windowSlot struct {
	index  int
	window swapchain.Window
}

// submitSync accumulates the dependency-pool wait and signal
// semaphores gathered while recording one half of a frame, so Submit
// can thread them into the eventual vk.QueueSubmit alongside the
// per-window image-available/rendered semaphores (submit step 2: "the
// dependency pool's output waits ... the pool's signals").
type submitSync struct {
	waitSems   []vk.Semaphore
	waitStages []vk.PipelineStageFlags
	signalSems []vk.Semaphore
}

// addWait records a caught semaphore/stage pair, skipping a sentinel
// or already-recorded semaphore (a shared object caught by more than
// one pass in the same half must not wait twice).
func (s *submitSync) addWait(sem vk.Semaphore, stage vk.PipelineStageFlags) {
	if sem == vk.NullSemaphore {
		return
	}
	for _, existing := range s.waitSems {
		if existing == sem {
			return
		}
	}
	s.waitSems = append(s.waitSems, sem)
	s.waitStages = append(s.waitStages, stage)
}

// addSignal records a prepared signal semaphore, skipping a sentinel
// or one already recorded (Claim's semaphore-sharing means two
// injections in the same pass can hand back the same object).
func (s *submitSync) addSignal(sem vk.Semaphore) {
	if sem == vk.NullSemaphore {
		return
	}
	for _, existing := range s.signalSems {
		if existing == sem {
			return
		}
	}
	s.signalSems = append(s.signalSems, sem)
}

// resolveImage resolves the vk.Image an attachment index currently
// backs: the swapchain image at imageIndex for a window slot, or the
// allocation's handle for an image slot.
func (ex *Executor) resolveImage(idx int, imageIndex uint32) vk.Image {
	slot, ok := ex.attachments.Slot(idx)
	if !ok {
		return vk.Image(vk.NullHandle)
	}
	switch slot.Kind {
	case attach.Window:
		images := slot.Window.Surface.Images()
		if int(imageIndex) < len(images) {
			return images[imageIndex]
		}
	case attach.Image:
		return slot.Image.Handle
	}
	return vk.Image(vk.NullHandle)
}

func (ex *Executor) windowSlots() []windowSlot {
	var out []windowSlot
	for _, s := range ex.attachments.Enumerate() {
		if s.Kind == attach.Window {
			out = append(out, windowSlot{index: s.Index, window: s.Window.Surface})
		}
	}
	return out
}

// Acquire implements the `acquire(frame)` sequence. It first waits on
// this frame's own fence(s) from its previous rotation through the
// ring and resets its command pools, guaranteeing a frame's resources
// are never reused before the GPU has actually finished with them
// ("a frame acquired from the ring observes its fence(s) signaled
// before any of its command pools are reset").
func (ex *Executor) Acquire(ctx context.Context, f *Frame) error {
	if err := Sync(ex.device, f, true); err != nil {
		return err
	}
	if ex.recorders != nil {
		ex.recorders.Reset()
	}

	ex.attachments.SetRecording(true)
	defer ex.attachments.SetRecording(false)

	windows := ex.windowSlots()
	f.resize(len(windows))

	var accumulated attach.RecreateFlags
	for i, w := range windows {
		sem, err := f.ensureSemaphore(ex.device, i, w.index)
		if err != nil {
			return err
		}
		idx, flags, err := ex.swap.Acquire(w.window, sem)
		f.setAcquired(i, idx, err == nil && idx != swapchain.NoImage)
		if err := ex.attachments.OrWindowRecreateFlags(w.index, flags); err != nil && ex.log != nil {
			ex.log.Warnf("frame: acquire: %v", err)
		}
		accumulated |= flags
		ex.mirrorSwapchainState(w)
		if err != nil {
			return vkerr.Wrap(err)
		}
	}

	if accumulated.Has(attach.FlagRecreate) {
		if err := ex.ring.SyncAll(ctx, false); err != nil {
			return err
		}
		if accumulated.Has(attach.FlagResize) && ex.ResetDescriptorPool != nil {
			ex.ResetDescriptorPool()
		}
		ex.graph.Invalidate()
		for _, w := range windows {
			ex.swap.Purge(w.window)
		}
	}

	return ex.graph.Warmup(ex.device, ex.imageCount)
}

// mirrorSwapchainState copies a window's current format/extent/view
// set into its attachment slot's WindowBacking every acquire (not just
// on a recreate), since the slot starts zero-valued at AddWindow and
// the pass builder's dimension check and framebuffer views both read
// straight from the registry rather than back through package
// platform.
func (ex *Executor) mirrorSwapchainState(w windowSlot) {
	slot, ok := ex.attachments.Slot(w.index)
	if !ok || slot.Window == nil {
		return
	}
	var views []vk.ImageView
	if vp, ok := w.window.(attach.ViewProvider); ok {
		views = vp.ImageViews()
	}
	slot.Window.SetSwapchainState(w.window.Format(), vk.Extent2D{Width: w.window.Width(), Height: w.window.Height()}, views)
}

// chainIsCulled reports whether every member of a render-pass chain
// starting at master was culled (e.g. its attachment went empty).
func chainIsCulled(master *graph.Pass) bool {
	for p := master; p != nil; p = p.Next() {
		if !p.Culled() {
			return false
		}
	}
	return true
}

// Record implements the `record(cmd, first..first+n,
// injection)` for one half (graphics or compute) of one frame: catch
// phase, begin phase, record phase, end phase, prepare phase.
func (ex *Executor) Record(f *Frame, cmd vk.CommandBuffer, typ graph.Type, imageIndex uint32) (*submitSync, error) {
	res := vk.ResetCommandBuffer(cmd, vk.CommandBufferResetFlags(0))
	if res != vk.Success {
		return nil, vkerr.Fatal(res)
	}
	res = vk.BeginCommandBuffer(cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	})
	if res != vk.Success {
		return nil, vkerr.Fatal(res)
	}

	deps := &submitSync{}
	for _, p := range ex.graph.Passes() {
		if p.Type() != typ || p.Culled() {
			continue
		}
		if typ == graph.Render {
			if !p.IsChainLast() {
				continue
			}
			master := p.Master()
			if chainIsCulled(master) {
				continue
			}
			if err := ex.recordRenderChain(cmd, master, imageIndex, deps); err != nil {
				return nil, err
			}
			continue
		}
		if err := ex.recordComputePass(cmd, p, imageIndex, deps); err != nil {
			return nil, err
		}
	}

	res = vk.EndCommandBuffer(cmd)
	if res != vk.Success {
		return nil, vkerr.Fatal(res)
	}
	return deps, nil
}

// catchPass emits the catch phase for one pass's injections, depends
// and first-use-in-chain consumes, per the record catch phase.
func (ex *Executor) catchPass(cmd vk.CommandBuffer, p *graph.Pass, imageIndex uint32, deps *submitSync) {
	inj := depsync.InjectionID(uint64(p.Order()) + 1)
	var barriers []depsync.BarrierSpec

	for _, c := range p.Injections() {
		switch c.Kind {
		case depsync.CmdWait, depsync.CmdWaitRange:
			res := c.Dep.Pool().Catch(inj, depsync.CatchInput{
				Ref:       c.Ref,
				Range:     c.Range,
				DstFamily: c.Family,
				DstAccess: c.Access,
				DstStage:  c.Stage,
				Layout:    c.Layout,
			})
			barriers = append(barriers, res.Barriers...)
			deps.addWait(res.Semaphore, res.WaitStage)
		}
	}

	for _, d := range p.Depends() {
		if d.IsDependencyObject() {
			res := ex.dep.Pool().Catch(inj, depsync.CatchInput{
				Ref:       d.Ref,
				Range:     d.Range,
				DstFamily: d.Family,
				DstAccess: d.DstAccess,
				DstStage:  d.DstStage,
				Layout:    d.FinalLayout,
			})
			deps.addWait(res.Semaphore, res.WaitStage)
			if res.Matched {
				barriers = append(barriers, res.Barriers...)
			} else {
				// Nothing was pending to wait on: guarantee the first
				// use of this image still reaches a known layout.
				barriers = append(barriers, depsync.InitialTransition(d.Ref, d.Range, d.FinalLayout, d.DstAccess, d.DstStage))
			}
			continue
		}
		if !d.Flags.Has(graph.IsSubpass) {
			barriers = append(barriers, plainDependBarrier(d))
		}
	}

	for _, c := range p.Consumes() {
		if c.PrevPass < 0 || !c.Flags.Has(graph.FirstUseInChain) {
			continue
		}
		rng := c.Range
		if prevRange, ok := ex.prevConsumeRange(c); ok {
			rng = vkrange.Merge(prevRange, c.Range, ex.attachmentFormat(c.AttachmentIndex))
		}
		executionOnly := !vkrange.Writes(c.Access) && c.InitialLayout == c.FinalLayout
		barriers = append(barriers, depsync.BarrierSpec{
			Ref: vkrange.Ref{
				AttachmentIndex: c.AttachmentIndex,
				Image:           ex.resolveImage(c.AttachmentIndex, imageIndex),
			},
			Range:         rng,
			DstAccess:     c.Access,
			DstStage:      c.Stage,
			OldLayout:     c.InitialLayout,
			NewLayout:     c.FinalLayout,
			ExecutionOnly: executionOnly,
		})
	}

	flushBarriers(cmd, barriers)
}

// prevConsumeRange looks up the view range the consume at c.PrevPass/
// c.PrevConsume declared, so catchPass can merge it with c's own range
// per the range-merging rule for consecutive consumes.
func (ex *Executor) prevConsumeRange(c graph.Consume) (vkrange.Range, bool) {
	passes := ex.graph.Passes()
	if c.PrevPass < 0 || c.PrevPass >= len(passes) {
		return vkrange.Range{}, false
	}
	prevConsumes := passes[c.PrevPass].Consumes()
	if c.PrevConsume < 0 || c.PrevConsume >= len(prevConsumes) {
		return vkrange.Range{}, false
	}
	return prevConsumes[c.PrevConsume].Range, true
}

// attachmentFormat resolves the format backing an attachment slot, or
// the zero format if the slot is empty (vkrange then resolves the
// aspect as color only).
func (ex *Executor) attachmentFormat(idx int) vk.Format {
	slot, ok := ex.attachments.Slot(idx)
	if !ok {
		return vk.Format(0)
	}
	switch slot.Kind {
	case attach.Window:
		return slot.Window.Format()
	case attach.Image:
		return slot.Image.Format
	}
	return vk.Format(0)
}

// plainDependBarrier builds the barrier for a plain (non-dependency-
// object) Depend record. Without NeedsTransition, a plain pair names
// no specific image: it is a pure execution/memory barrier. With it,
// d.Ref/d.InitialLayout/d.FinalLayout are populated by the caller and
// an image memory barrier carries the explicit layout transition.
func plainDependBarrier(d graph.Depend) depsync.BarrierSpec {
	b := depsync.BarrierSpec{
		SrcAccess: d.SrcAccess,
		DstAccess: d.DstAccess,
		SrcStage:  d.SrcStage,
		DstStage:  d.DstStage,
	}
	if d.Flags.Has(graph.NeedsTransition) {
		b.Ref = d.Ref
		b.OldLayout = d.InitialLayout
		b.NewLayout = d.FinalLayout
	} else {
		b.ExecutionOnly = true
	}
	return b
}

func flushBarriers(cmd vk.CommandBuffer, barriers []depsync.BarrierSpec) {
	if len(barriers) == 0 {
		return
	}
	for _, b := range barriers {
		if b.ExecutionOnly {
			vk.CmdPipelineBarrier(cmd, b.SrcStage, b.DstStage, vk.DependencyFlags(0), 0, nil, 0, nil, 0, nil)
			continue
		}
		img := vk.ImageMemoryBarrier{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       b.SrcAccess,
			DstAccessMask:       b.DstAccess,
			OldLayout:           b.OldLayout,
			NewLayout:           b.NewLayout,
			SrcQueueFamilyIndex: b.SrcFamily,
			DstQueueFamilyIndex: b.DstFamily,
			Image:               b.Ref.Image,
			SubresourceRange:    b.Range.ToVulkan(1, 1),
		}
		vk.CmdPipelineBarrier(cmd, b.SrcStage, b.DstStage, vk.DependencyFlags(0), 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{img})
	}
}

func (ex *Executor) recordRenderChain(cmd vk.CommandBuffer, master *graph.Pass, imageIndex uint32, deps *submitSync) error {
	for p := master; p != nil; p = p.Next() {
		ex.catchPass(cmd, p, imageIndex, deps)
	}

	clearValues := make([]vk.ClearValue, 0, len(master.Consumes()))
	for _, c := range master.Consumes() {
		if c.Clear != nil {
			clearValues = append(clearValues, *c.Clear)
		}
	}
	w, h := master.GetSize()
	vk.CmdBeginRenderPass(cmd, &vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      master.RenderPassHandle(),
		Framebuffer:     master.Framebuffer(int(imageIndex)),
		RenderArea:      vk.Rect2D{Extent: vk.Extent2D{Width: w, Height: h}},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}, vk.SubpassContentsInline)

	first := true
	for p := master; p != nil; p = p.Next() {
		if !first {
			vk.CmdNextSubpass(cmd, vk.SubpassContentsInline)
		}
		first = false

		var subpassBarriers []depsync.BarrierSpec
		for _, d := range p.Depends() {
			if !d.IsDependencyObject() && d.Flags.Has(graph.IsSubpass) {
				subpassBarriers = append(subpassBarriers, plainDependBarrier(d))
			}
		}
		flushBarriers(cmd, subpassBarriers)

		if ex.recorders != nil {
			ex.recorders.Record(p.Order(), cmd)
		}
	}

	vk.CmdEndRenderPass(cmd)

	for p := master; p != nil; p = p.Next() {
		ex.preparePass(cmd, p, deps)
	}
	return nil
}

func (ex *Executor) recordComputePass(cmd vk.CommandBuffer, p *graph.Pass, imageIndex uint32, deps *submitSync) error {
	ex.catchPass(cmd, p, imageIndex, deps)
	if ex.recorders != nil {
		ex.recorders.Record(p.Order(), cmd)
	}
	ex.preparePass(cmd, p, deps)
	return nil
}

// preparePass implements the record prepare phase: prepare signals in
// injections and in dependency-object depends, threading each signal's
// semaphore into deps (the submission's signal list) and flushing any
// release-half barrier a cross-family transfer returns ("emit the
// release half at prepare time").
func (ex *Executor) preparePass(cmd vk.CommandBuffer, p *graph.Pass, deps *submitSync) {
	inj := depsync.InjectionID(uint64(p.Order()) + 1)
	srcFamily := ex.queues.GraphicsFamily
	if p.Type() != graph.Render {
		srcFamily = ex.queues.ComputeFamily
	}
	var barriers []depsync.BarrierSpec
	for _, c := range p.Injections() {
		if c.Kind != depsync.CmdSignal && c.Kind != depsync.CmdSignalRange {
			continue
		}
		obj, barrier, err := c.Dep.Pool().Prepare(ex.device, inj, depsync.PrepareInput{
			Ref:       c.Ref,
			Range:     c.Range,
			Access:    c.Access,
			Stage:     c.Stage,
			Layout:    c.Layout,
			SrcFamily: srcFamily,
			DstFamily: c.Family,
		})
		if err != nil {
			if ex.log != nil {
				ex.log.Warnf("frame: prepare: %v", err)
			}
			continue
		}
		deps.addSignal(obj.Semaphore())
		if barrier != nil {
			barriers = append(barriers, *barrier)
		}
	}
	for _, d := range p.Depends() {
		if !d.IsDependencyObject() {
			continue
		}
		obj, barrier, err := ex.dep.Pool().Prepare(ex.device, inj, depsync.PrepareInput{
			Ref:       d.Ref,
			Range:     d.Range,
			Access:    d.DstAccess,
			Stage:     d.DstStage,
			Layout:    d.FinalLayout,
			SrcFamily: srcFamily,
			DstFamily: d.Family,
		})
		if err != nil {
			if ex.log != nil {
				ex.log.Warnf("frame: prepare: %v", err)
			}
			continue
		}
		deps.addSignal(obj.Semaphore())
		if barrier != nil {
			barriers = append(barriers, *barrier)
		}
	}
	flushBarriers(cmd, barriers)
}

// Submit implements the `submit(frame)` sequence for both
// halves of a frame.
func (ex *Executor) Submit(ctx context.Context, f *Frame) error {
	windows := ex.windowSlots()

	numRender := 0
	numCompute := 0
	for _, p := range ex.graph.Passes() {
		if p.Culled() {
			continue
		}
		switch p.Type() {
		case graph.Render:
			numRender++
		default:
			numCompute++
		}
	}

	if numRender > 0 {
		var imageIndex uint32
		for _, w := range f.Windows() {
			if w.Valid {
				imageIndex = w.ImageIndex
				break
			}
		}
		deps, err := ex.Record(f, f.GraphicsCmd(), graph.Render, imageIndex)
		if err != nil {
			ex.abort()
			return err
		}
		if err := ex.submitHalf(f, true, windows, deps); err != nil {
			ex.abort()
			return err
		}
		f.submitted |= SubmittedGraphics

		presentWindows := make([]swapchain.Window, len(windows))
		indices := make([]uint32, len(windows))
		for i, w := range windows {
			presentWindows[i] = w.window
		}
		for i, ws := range f.Windows() {
			indices[i] = ws.ImageIndex
		}
		flags := ex.swap.Present(f.rendered, presentWindows, indices)
		for i, fl := range flags {
			if err := ex.attachments.OrWindowRecreateFlags(windows[i].index, fl); err != nil && ex.log != nil {
				ex.log.Warnf("frame: submit: %v", err)
			}
		}
	}

	if numCompute > 0 {
		deps, err := ex.Record(f, f.ComputeCmd(), graph.Compute, 0)
		if err != nil {
			ex.abort()
			return err
		}
		if err := ex.submitHalf(f, false, windows, deps); err != nil {
			ex.abort()
			return err
		}
		f.submitted |= SubmittedCompute
	}

	ex.finalize(true)

	if ex.FlushPipelineCache != nil {
		ex.FlushPipelineCache()
	}
	if ex.FlushDescriptorPool != nil {
		ex.FlushDescriptorPool()
	}
	return nil
}

// finalize implements the step 5, "Finalize the dependency pool
// for [first, first+n)": every non-culled pass's injection is finished
// against every dependency-object pool that any pass's injections
// referenced, plus the renderer's own pool (Finish is a no-op for a
// pool holding nothing of that injection).
func (ex *Executor) finalize(success bool) {
	pools := map[*depsync.Pool]bool{ex.dep.Pool(): true}
	for _, p := range ex.graph.Passes() {
		for _, c := range p.Injections() {
			if c.Dep != nil {
				pools[c.Dep.Pool()] = true
			}
		}
	}
	for _, p := range ex.graph.Passes() {
		if p.Culled() {
			continue
		}
		inj := depsync.InjectionID(uint64(p.Order()) + 1)
		for pool := range pools {
			pool.Finish(inj, success)
		}
	}
}

func (ex *Executor) abort() {
	ex.finalize(false)
}

func (ex *Executor) submitHalf(f *Frame, graphics bool, windows []windowSlot, deps *submitSync) error {
	var waitSems []vk.Semaphore
	var waitStages []vk.PipelineStageFlags
	var signalSems []vk.Semaphore
	var cmd vk.CommandBuffer
	var queue vk.Queue
	var mu *sync.Mutex
	var fence vk.Fence

	if deps != nil {
		// The dependency pool's output waits come first, then (on the
		// graphics half only) the per-window image-available
		// semaphores; signals are the pool's signals plus, on the
		// graphics half, the frame's rendered semaphore.
		waitSems = append(waitSems, deps.waitSems...)
		waitStages = append(waitStages, deps.waitStages...)
		signalSems = append(signalSems, deps.signalSems...)
	}

	if graphics {
		cmd = f.GraphicsCmd()
		queue = ex.queues.Graphics
		mu = &ex.queues.graphicsMu
		fence = f.graphics.fence
		for _, ws := range f.Windows() {
			if ws.Valid {
				waitSems = append(waitSems, ws.Available)
				waitStages = append(waitStages, vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit))
			}
		}
		if len(windows) > 0 {
			signalSems = append(signalSems, f.rendered)
		}
	} else {
		cmd = f.ComputeCmd()
		queue = ex.queues.Compute
		mu = &ex.queues.computeMu
		fence = f.compute.fence
	}

	mu.Lock()
	defer mu.Unlock()
	res := vk.QueueSubmit(queue, 1, []vk.SubmitInfo{{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(waitSems)),
		PWaitSemaphores:      waitSems,
		PWaitDstStageMask:    waitStages,
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cmd},
		SignalSemaphoreCount: uint32(len(signalSems)),
		PSignalSemaphores:    signalSems,
	}}, fence)
	if res != vk.Success {
		return vkerr.Fatal(res)
	}
	return nil
}
