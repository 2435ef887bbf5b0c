package platform

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/vkgraph/internal/vkutil"
	"github.com/andewx/vkgraph/vkerr"
)

// Device owns the logical device and the three queues package frame's
// executor and depsync's Pool need, grounded on dieselvk/asche's
// basePlatform device/queue creation (platform.go, lines ~140-240),
// which picked one graphics family (optionally a second present
// family) by linear scan. Device instead defers family selection to
// vkutil.NegotiateQueueFamilies and always requests up to three
// distinct queue families (graphics/compute/transfer), deduplicating
// when a GPU folds them together.
type Device struct {
	handle vk.Device

	families vkutil.QueueFamilies

	graphicsQueue vk.Queue
	computeQueue  vk.Queue
	transferQueue vk.Queue
}

// NewDevice negotiates queue families against gpu, requests the given
// device extensions/layers, and creates the logical device plus its
// queue handles.
func NewDevice(inst *Instance, requiredExt, wantedExt []string, validationLayers []string) (*Device, error) {
	actualExt, err := vkutil.DeviceExtensions(inst.GPU())
	if err != nil {
		return nil, err
	}
	neg := vkutil.NewNegotiator(wantedExt, requiredExt, actualExt)
	if ok, missing := neg.HasRequired(); !ok {
		return nil, vkerr.Wrap(fmt.Errorf("platform: missing required device extensions: %v", missing))
	}
	enabledExt := neg.Enable()

	props := vkutil.QueueProperties(inst.GPU())
	families := vkutil.NegotiateQueueFamilies(props)
	if !families.HasGraphics {
		return nil, vkerr.Wrap(fmt.Errorf("platform: no queue family supports graphics"))
	}

	queueInfos := dedupedQueueInfos(families)

	var handle vk.Device
	ret := vk.CreateDevice(inst.GPU(), &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(enabledExt)),
		PpEnabledExtensionNames: enabledExt,
		EnabledLayerCount:       uint32(len(validationLayers)),
		PpEnabledLayerNames:     validationLayers,
	}, nil, &handle)
	if err := vkerr.Fatal(ret); err != nil {
		return nil, err
	}

	d := &Device{handle: handle, families: families}
	vk.GetDeviceQueue(handle, families.Graphics, 0, &d.graphicsQueue)
	vk.GetDeviceQueue(handle, families.Compute, 0, &d.computeQueue)
	vk.GetDeviceQueue(handle, families.Transfer, 0, &d.transferQueue)
	return d, nil
}

// dedupedQueueInfos builds one vk.DeviceQueueCreateInfo per distinct
// family index among graphics/compute/transfer, since Vulkan rejects
// two create-infos naming the same family.
func dedupedQueueInfos(families vkutil.QueueFamilies) []vk.DeviceQueueCreateInfo {
	seen := map[uint32]bool{}
	priorities := []float32{1.0}
	var infos []vk.DeviceQueueCreateInfo
	add := func(family uint32) {
		if seen[family] {
			return
		}
		seen[family] = true
		infos = append(infos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: priorities,
		})
	}
	add(families.Graphics)
	add(families.Compute)
	add(families.Transfer)
	return infos
}

// Handle returns the raw vk.Device.
func (d *Device) Handle() vk.Device { return d.handle }

// Families returns the negotiated queue family indices.
func (d *Device) Families() vkutil.QueueFamilies { return d.families }

// GraphicsQueue returns the graphics queue.
func (d *Device) GraphicsQueue() vk.Queue { return d.graphicsQueue }

// ComputeQueue returns the compute queue.
func (d *Device) ComputeQueue() vk.Queue { return d.computeQueue }

// TransferQueue returns the transfer queue.
func (d *Device) TransferQueue() vk.Queue { return d.transferQueue }

// Destroy tears the logical device down. Callers must have already
// idled the device (vk.DeviceWaitIdle) and destroyed everything built
// on top of it.
func (d *Device) Destroy() {
	if d.handle != vk.NullDevice {
		vk.DestroyDevice(d.handle, nil)
	}
}
