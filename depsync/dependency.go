package depsync

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/vkgraph/vkrange"
)

// CommandKind discriminates the four injection-command primitives:
// wait, wait-range, signal, signal-range.
type CommandKind int

const (
	CmdWait CommandKind = iota
	CmdWaitRange
	CmdSignal
	CmdSignalRange
)

// Command is one entry client code appends to a Pass's injection list
// before a frame runs, carrying the dependency object, its ref/range,
// and the stage/access mask the injection waits on or signals.
type Command struct {
	Kind   CommandKind
	Dep    *DependencyObject
	Ref    vkrange.Ref
	Range  vkrange.Range
	Stage  vk.PipelineStageFlags
	Access vk.AccessFlags
	Family uint32
	Layout vk.ImageLayout
}

// DependencyObject is the public handle to a pool of
// reusable synchronization primitives used to chain two operations
// across passes (and across frames, when the consumer runs later than
// the producer). One DependencyObject owns exactly one Pool.
type DependencyObject struct {
	device   vk.Device
	pool     *Pool
	families QueueFamilies
}

// Create allocates a dependency object's pool for the given queue
// families and per-signal wait capacity.
func Create(device vk.Device, families QueueFamilies, waitCapacity int) *DependencyObject {
	return &DependencyObject{
		device:   device,
		pool:     New(families, waitCapacity, nil),
		families: families,
	}
}

// Destroy releases every semaphore the backing pool holds.
func (d *DependencyObject) Destroy() { d.pool.Destroy(d.device) }

// GetDevice returns the device the object was created against.
func (d *DependencyObject) GetDevice() vk.Device { return d.device }

// Pool exposes the backing sync-object pool to the frame executor.
func (d *DependencyObject) Pool() *Pool { return d.pool }

// Wait builds a whole-resource wait command; a caller narrowing to a
// subrange should use WaitRange instead.
func (d *DependencyObject) Wait(ref vkrange.Ref, family uint32, access vk.AccessFlags, stage vk.PipelineStageFlags) Command {
	return Command{Kind: CmdWait, Dep: d, Ref: ref, Family: family, Access: access, Stage: stage}
}

// WaitRange narrows the wait to an explicit subresource range.
func (d *DependencyObject) WaitRange(ref vkrange.Ref, rng vkrange.Range, family uint32, access vk.AccessFlags, stage vk.PipelineStageFlags) Command {
	return Command{Kind: CmdWaitRange, Dep: d, Ref: ref, Range: rng, Family: family, Access: access, Stage: stage}
}

// Signal builds a whole-resource signal command.
func (d *DependencyObject) Signal(ref vkrange.Ref, family uint32, access vk.AccessFlags, stage vk.PipelineStageFlags, layout vk.ImageLayout) Command {
	return Command{Kind: CmdSignal, Dep: d, Ref: ref, Family: family, Access: access, Stage: stage, Layout: layout}
}

// SignalRange narrows the signal to an explicit subresource range.
func (d *DependencyObject) SignalRange(ref vkrange.Ref, rng vkrange.Range, family uint32, access vk.AccessFlags, stage vk.PipelineStageFlags, layout vk.ImageLayout) Command {
	return Command{Kind: CmdSignalRange, Dep: d, Ref: ref, Range: rng, Family: family, Access: access, Stage: stage, Layout: layout}
}
