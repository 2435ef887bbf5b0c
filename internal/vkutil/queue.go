package vkutil

import vk "github.com/vulkan-go/vulkan"

// QueueFamilies is the result of negotiating a physical device's queue
// families down to the three roles the dependency pool and frame
// executor care about (the QueueFamilies), generalizing
// dieselvk's CoreQueue (queue.go), which tracked every family's
// properties and a parallel "bound" bitset but left picking a
// graphics/present family to callers.
type QueueFamilies struct {
	Graphics uint32
	Compute  uint32
	Transfer uint32

	HasGraphics bool
	HasCompute  bool
	HasTransfer bool
}

// QueueProperties fetches a physical device's queue family property
// list, dieselvk's NewCoreQueue minus the per-index binding bookkeeping
// (package frame owns exactly one graphics and one compute queue per
// executor, so there is nothing left to bind against).
func QueueProperties(gpu vk.PhysicalDevice) []vk.QueueFamilyProperties {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, props)
	for i := range props {
		props[i].Deref()
	}
	return props
}

// NegotiateQueueFamilies picks one family per role: the first family
// advertising Graphics, the first advertising Compute (preferring one
// that does not also advertise Graphics, for true async compute), and
// the first advertising Transfer (preferring one with neither Graphics
// nor Compute, Vulkan's dedicated-transfer-queue convention).
func NegotiateQueueFamilies(props []vk.QueueFamilyProperties) QueueFamilies {
	var qf QueueFamilies

	for i, p := range props {
		if !qf.HasGraphics && p.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			qf.Graphics = uint32(i)
			qf.HasGraphics = true
		}
	}

	for i, p := range props {
		if p.QueueFlags&vk.QueueFlags(vk.QueueComputeBit) == 0 {
			continue
		}
		isAsync := p.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) == 0
		if !qf.HasCompute || isAsync {
			qf.Compute = uint32(i)
			qf.HasCompute = true
			if isAsync {
				break
			}
		}
	}

	for i, p := range props {
		if p.QueueFlags&vk.QueueFlags(vk.QueueTransferBit) == 0 {
			continue
		}
		dedicated := p.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) == 0 &&
			p.QueueFlags&vk.QueueFlags(vk.QueueComputeBit) == 0
		if !qf.HasTransfer || dedicated {
			qf.Transfer = uint32(i)
			qf.HasTransfer = true
			if dedicated {
				break
			}
		}
	}
	if !qf.HasTransfer && qf.HasGraphics {
		qf.Transfer = qf.Graphics
		qf.HasTransfer = true
	}

	return qf
}
