// Package depsync implements the sync-object pool that is the central
// invariant of the render-graph executor. A Pool owns a deque of
// reusable sync objects (semaphores plus barrier metadata) that chain
// dependencies across passes and across frames.
//
// It is grounded on dieselvk's instance.go, whose CoreRenderInstance
// already kept a flat "recycled_semaphores []vk.Semaphore" slice next
// to its PerFrame fences — the same reuse-pool idea, generalized here
// into a full claim/prepare/catch/finish state machine.
package depsync

import (
	"sync"

	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/vkgraph/vkerr"
	"github.com/andewx/vkgraph/vklog"
	"github.com/andewx/vkgraph/vkrange"
)

// Stage is a sync object's position in its lifecycle:
//
//	unused -> prepare -> pending -> catch -> used -> unused
//
// with a same-injection short-circuit prepare -> prepare-catch when
// the catch observes a signal issued in the same submission.
type Stage int

const (
	Unused Stage = iota
	Prepare
	PrepareCatch
	Pending
	Catch
	Used
)

func (s Stage) String() string {
	switch s {
	case Prepare:
		return "prepare"
	case PrepareCatch:
		return "prepare-catch"
	case Pending:
		return "pending"
	case Catch:
		return "catch"
	case Used:
		return "used"
	default:
		return "unused"
	}
}

// Flags records what an Object's barrier actually needs, following a
// needs_barrier/needs_memory_hazard derivation.
type Flags uint8

const (
	HasSemaphore Flags = 1 << iota
	HasBarrier
	HasMemoryHazard
)

// InjectionID identifies the submission that currently owns an
// Object, matching the "injection pointer (the submission that
// currently owns it)". It is opaque to callers outside this package
// and package frame, which mints one per record() call.
type InjectionID uint64

// Object is one entry in a Pool's deque (the "Dependency sync
// object").
type Object struct {
	stage Stage
	flags Flags

	ref vkrange.Ref
	rng vkrange.Range

	srcAccess, dstAccess vk.AccessFlags
	srcStage, dstStage   vk.PipelineStageFlags
	oldLayout, newLayout vk.ImageLayout
	srcFamily, dstFamily uint32
	discard              bool
	concurrent           bool

	injection InjectionID
	semaphore vk.Semaphore

	// waitCredit is seeded to the pool's configured capacity whenever
	// a signal is prepared with a semaphore, and decremented on each
	// catch ("Wait credit").
	waitCredit int
}

func (o *Object) Stage() Stage          { return o.stage }
func (o *Object) Flags() Flags          { return o.flags }
func (o *Object) Semaphore() vk.Semaphore { return o.semaphore }
func (o *Object) DstStage() vk.PipelineStageFlags { return o.dstStage }

// BarrierSpec describes one image memory (or execution-only) barrier
// a Prepare/Catch call decided was necessary. Package frame's record
// walk accumulates a slice of these and flushes it with one
// vk.CmdPipelineBarrier call per BarrierSpec.
type BarrierSpec struct {
	Ref        vkrange.Ref
	Range      vkrange.Range
	SrcAccess  vk.AccessFlags
	DstAccess  vk.AccessFlags
	SrcStage   vk.PipelineStageFlags
	DstStage   vk.PipelineStageFlags
	OldLayout  vk.ImageLayout
	NewLayout  vk.ImageLayout
	SrcFamily  uint32
	DstFamily  uint32
	// ExecutionOnly marks a pure pipeline barrier with no memory/image
	// component (the "execution-only when no writes and no
	// transition").
	ExecutionOnly bool
}

// QueueFamilies is the pool's view of which queue family index backs
// each operation kind, the "tracks queue-family indices for
// graphics, compute, and transfer".
type QueueFamilies struct {
	Graphics uint32
	Compute  uint32
	Transfer uint32
}

// Pool owns a deque of sync objects shared across the passes of a
// renderer. Semaphore-bearing objects are kept toward the front: the
// front region is reserved for semaphore-bearing entries.
type Pool struct {
	mu       sync.Mutex
	objects  []*Object
	families QueueFamilies
	capacity int
	log      *vklog.Logger
}

// New creates a Pool. capacity seeds every signal's wait credit; it
// must be >= 1.
func New(families QueueFamilies, capacity int, log *vklog.Logger) *Pool {
	if capacity < 1 {
		capacity = 1
	}
	return &Pool{families: families, capacity: capacity, log: log}
}

// findShareable looks for another object prepare-staged in the same
// injection with the same destination family (the Claim step 1,
// "first look for another object prepare-staged in the same injection
// with the same destination family — if found, share its semaphore").
// Caller holds p.mu.
func (p *Pool) findShareable(inj InjectionID, dstFamily uint32) *Object {
	for _, o := range p.objects {
		if o.stage == Prepare && o.injection == inj && o.dstFamily == dstFamily && o.flags&HasSemaphore != 0 {
			return o
		}
	}
	return nil
}

func (p *Pool) findUnused(needSemaphore bool) *Object {
	for _, o := range p.objects {
		if o.stage != Unused {
			continue
		}
		if needSemaphore && o.flags&HasSemaphore == 0 {
			continue
		}
		if !needSemaphore && o.flags&HasSemaphore != 0 {
			continue
		}
		return o
	}
	return nil
}

// Claim performs the Claim (by prepare) step. device is used to
// allocate a fresh semaphore only when nothing reusable is found.
func (p *Pool) Claim(device vk.Device, inj InjectionID, needSemaphore bool, dstFamily uint32) (*Object, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if needSemaphore {
		if shared := p.findShareable(inj, dstFamily); shared != nil {
			return shared, nil
		}
		if reused := p.findUnused(true); reused != nil {
			return reused, nil
		}
		var sem vk.Semaphore
		ret := vk.CreateSemaphore(device, &vk.SemaphoreCreateInfo{
			SType: vk.StructureTypeSemaphoreCreateInfo,
		}, nil, &sem)
		if err := vkerr.Fatal(ret); err != nil {
			return nil, err
		}
		obj := &Object{flags: HasSemaphore, semaphore: sem}
		p.pushFront(obj)
		p.log.Debugf("depsync: allocated new semaphore, pool size now %d", len(p.objects))
		return obj, nil
	}

	if reused := p.findUnused(false); reused != nil {
		return reused, nil
	}
	obj := &Object{}
	p.objects = append(p.objects, obj)
	return obj, nil
}

// pushFront keeps semaphore-bearing entries at the front of the deque
//. Caller holds p.mu.
func (p *Pool) pushFront(o *Object) {
	p.objects = append(p.objects, nil)
	copy(p.objects[1:], p.objects)
	p.objects[0] = o
}

// PrepareInput is the signal description the Prepare step
// consumes: the access/stage the producer used and the family/layout
// it produced into.
type PrepareInput struct {
	Ref        vkrange.Ref
	Range      vkrange.Range
	Access     vk.AccessFlags
	Stage      vk.PipelineStageFlags
	Layout     vk.ImageLayout
	SrcFamily  uint32
	DstFamily  uint32
	Discard    bool
	Concurrent bool
}

// Prepare performs the Prepare (signal) step. On success it
// returns the Object now staged in Prepare, and the release-half
// BarrierSpec to emit immediately if one is needed (for a cross-family
// transfer); the acquire half is produced later by Catch.
func (p *Pool) Prepare(device vk.Device, inj InjectionID, in PrepareInput) (*Object, *BarrierSpec, error) {
	crossFamily := in.SrcFamily != in.DstFamily && in.SrcFamily != vk.QueueFamilyIgnored && in.DstFamily != vk.QueueFamilyIgnored
	transfer := crossFamily && !in.Concurrent && !in.Discard

	// The "layout changes" disjunct of needs_barrier/needs_memory_hazard
	// is not evaluated here: the consumer's target layout, and so
	// whether a transition is even needed, is only known once Catch
	// sees the waiting side. Catch's own BarrierSpec still carries
	// OldLayout/NewLayout for that case; this only governs whether
	// Prepare's immediate release-half barrier fires.
	needsBarrier := (!crossFamily && vkrange.Writes(in.Access)) || transfer
	needsHazard := (!crossFamily && vkrange.Writes(in.Access)) || (crossFamily && transfer)

	obj, err := p.Claim(device, inj, true, in.DstFamily)
	if err != nil {
		return nil, nil, err
	}

	p.mu.Lock()
	obj.stage = Prepare
	obj.injection = inj
	obj.ref = in.Ref
	obj.rng = in.Range
	obj.srcAccess = in.Access
	obj.srcStage = in.Stage
	obj.dstAccess = 0
	obj.dstStage = 0
	obj.oldLayout = in.Layout
	obj.newLayout = in.Layout
	obj.srcFamily = in.SrcFamily
	obj.dstFamily = in.DstFamily
	obj.discard = in.Discard
	obj.concurrent = in.Concurrent
	obj.waitCredit = p.capacity
	obj.flags |= HasSemaphore
	if needsBarrier {
		obj.flags |= HasBarrier
	} else {
		obj.flags &^= HasBarrier
	}
	if needsHazard {
		obj.flags |= HasMemoryHazard
	} else {
		obj.flags &^= HasMemoryHazard
	}
	p.mu.Unlock()

	if !transfer {
		return obj, nil, nil
	}

	// Release half now; dst access/stage are zeroed.
	return obj, &BarrierSpec{
		Ref:       in.Ref,
		Range:     in.Range,
		SrcAccess: in.Access,
		DstAccess: 0,
		SrcStage:  in.Stage,
		DstStage:  0,
		OldLayout: in.Layout,
		NewLayout: in.Layout,
		SrcFamily: in.SrcFamily,
		DstFamily: in.DstFamily,
	}, nil
}

// CatchInput describes the wait the Catch step is resolving:
// the family and range the waiting operation needs satisfied.
type CatchInput struct {
	Ref       vkrange.Ref
	Range     vkrange.Range
	DstFamily uint32
	DstAccess vk.AccessFlags
	DstStage  vk.PipelineStageFlags
	Layout    vk.ImageLayout
}

// CatchResult is what a successful Catch hands back to the caller: at
// most one semaphore/stage pair to add to the submission's wait list,
// and zero or more barriers to flush before recording continues.
type CatchResult struct {
	Semaphore vk.Semaphore
	WaitStage vk.PipelineStageFlags
	Barriers  []BarrierSpec
	Matched   bool
}

// Catch performs the Catch (wait) step. It scans the pool for
// pending (or same-injection prepare) objects matching (ref, range,
// dstFamily), moves each to catch/prepare-catch, and emits its barrier
// if required: one BarrierSpec per matching object, with no merging of
// masks across objects.
func (p *Pool) Catch(inj InjectionID, in CatchInput) CatchResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	var res CatchResult
	for _, o := range p.objects {
		if o.stage != Pending && !(o.stage == Prepare && o.injection == inj) {
			continue
		}
		if o.dstFamily != in.DstFamily {
			continue
		}
		if o.ref != in.Ref || !vkrange.Overlaps(o.rng, in.Range) {
			continue
		}

		if o.stage == Prepare {
			o.stage = PrepareCatch
		} else {
			o.stage = Catch
		}

		if o.flags&HasBarrier != 0 {
			spec := BarrierSpec{
				Ref:       o.ref,
				Range:     o.rng,
				SrcAccess: o.srcAccess,
				DstAccess: in.DstAccess,
				SrcStage:  o.srcStage,
				DstStage:  in.DstStage,
				OldLayout: o.oldLayout,
				NewLayout: in.Layout,
				SrcFamily: o.srcFamily,
				DstFamily: o.dstFamily,
			}
			if o.srcFamily != o.dstFamily && !o.concurrent && !o.discard {
				// Acquire half: src access/stage zeroed.
				spec.SrcAccess = 0
				spec.SrcStage = 0
			}
			res.Barriers = append(res.Barriers, spec)
		}

		o.dstAccess = in.DstAccess
		o.dstStage = in.DstStage
		if res.Semaphore == vk.NullSemaphore && o.flags&HasSemaphore != 0 {
			res.Semaphore = o.semaphore
			res.WaitStage = in.DstStage
		}
		o.waitCredit--
		res.Matched = true
	}
	return res
}

// InitialTransition performs the Initial transitions step: for
// every operation-reference image not matched by any wait, a single
// UNDEFINED -> target_layout barrier must be emitted so the first use
// of an image inside an operation reaches a known layout.
func InitialTransition(ref vkrange.Ref, rng vkrange.Range, target vk.ImageLayout, dstAccess vk.AccessFlags, dstStage vk.PipelineStageFlags) BarrierSpec {
	return BarrierSpec{
		Ref:       ref,
		Range:     rng,
		SrcAccess: 0,
		DstAccess: dstAccess,
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		DstStage:  dstStage,
		OldLayout: vk.ImageLayoutUndefined,
		NewLayout: target,
		SrcFamily: vk.QueueFamilyIgnored,
		DstFamily: vk.QueueFamilyIgnored,
	}
}

// Finish performs the Finish step: on success, every object this
// injection touched moves prepare->pending, and catch->used|unused
// (used iff it still has an outstanding wait, i.e. waitCredit > 0);
// on abort, catch objects revert to pending and everything else to
// unused. Finish must be called exactly once per record, win or lose
// ("Propagation").
func (p *Pool) Finish(inj InjectionID, success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, o := range p.objects {
		if o.injection != inj {
			continue
		}
		switch o.stage {
		case Prepare:
			if success {
				o.stage = Pending
			} else {
				o.stage = Unused
				p.release(o)
			}
		case PrepareCatch:
			if success {
				if o.waitCredit > 0 {
					o.stage = Used
				} else {
					o.stage = Unused
					p.release(o)
				}
			} else {
				o.stage = Unused
				p.release(o)
			}
		case Catch:
			if success {
				if o.waitCredit > 0 {
					o.stage = Used
				} else {
					o.stage = Unused
					p.release(o)
				}
			} else {
				// Undo: caught objects revert to pending.
				o.stage = Pending
			}
		case Used:
			if o.waitCredit <= 0 {
				o.stage = Unused
				p.release(o)
			}
		}
	}
}

// release clears an object's identity fields so it can be claimed
// fresh, keeping the semaphore handle (if any) for reuse. Caller
// holds p.mu.
func (p *Pool) release(o *Object) {
	o.injection = 0
	o.srcAccess, o.dstAccess = 0, 0
	o.srcStage, o.dstStage = 0, 0
	o.oldLayout, o.newLayout = vk.ImageLayoutUndefined, vk.ImageLayoutUndefined
	o.srcFamily, o.dstFamily = 0, 0
	o.discard, o.concurrent = false, false
	o.waitCredit = 0
}

// Destroy releases every semaphore the pool has created. Called once
// the owning renderer has synced all frames and is tearing down.
func (p *Pool) Destroy(device vk.Device) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, o := range p.objects {
		if o.flags&HasSemaphore != 0 && o.semaphore != vk.NullSemaphore {
			vk.DestroySemaphore(device, o.semaphore, nil)
			o.semaphore = vk.NullSemaphore
		}
	}
	p.objects = nil
}

// Len reports the deque's current size, mainly for tests asserting
// shrink/grow behavior.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.objects)
}

// Families returns the queue-family indices this pool was configured
// with.
func (p *Pool) Families() QueueFamilies { return p.families }
