package vkutil

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/vkgraph/vkerr"
)

// CreateCommandPool creates a resettable command pool against family,
// generalizing dieselvk's NewCorePool (pools.go), which hardcoded the
// VK_COMMAND_POOL_CREATE_RESET_COMMAND_BUFFER_BIT flag as a raw
// literal rather than the named vk constant.
func CreateCommandPool(device vk.Device, family uint32) (vk.CommandPool, error) {
	var pool vk.CommandPool
	ret := vk.CreateCommandPool(device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: family,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}, nil, &pool)
	if err := vkerr.Fatal(ret); err != nil {
		return vk.NullCommandPool, err
	}
	return pool, nil
}

// AllocatePrimary allocates count primary command buffers from pool.
func AllocatePrimary(device vk.Device, pool vk.CommandPool, count uint32) ([]vk.CommandBuffer, error) {
	bufs := make([]vk.CommandBuffer, count)
	ret := vk.AllocateCommandBuffers(device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	}, bufs)
	if err := vkerr.Fatal(ret); err != nil {
		return nil, err
	}
	return bufs, nil
}

// CreateFence creates a fence, optionally pre-signaled so the first
// wait on a freshly-created virtual frame never blocks.
func CreateFence(device vk.Device, signaled bool) (vk.Fence, error) {
	var flags vk.FenceCreateFlags
	if signaled {
		flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	ret := vk.CreateFence(device, &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: flags,
	}, nil, &fence)
	if err := vkerr.Fatal(ret); err != nil {
		return vk.NullFence, err
	}
	return fence, nil
}

// CreateSemaphore creates a binary semaphore.
func CreateSemaphore(device vk.Device) (vk.Semaphore, error) {
	var sem vk.Semaphore
	ret := vk.CreateSemaphore(device, &vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}, nil, &sem)
	if err := vkerr.Fatal(ret); err != nil {
		return vk.NullSemaphore, err
	}
	return sem, nil
}
