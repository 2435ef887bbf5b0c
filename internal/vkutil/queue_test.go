package vkutil

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"

	"github.com/stretchr/testify/assert"
)

func TestNegotiateQueueFamiliesPrefersAsyncCompute(t *testing.T) {
	props := []vk.QueueFamilyProperties{
		{QueueFlags: vk.QueueFlags(vk.QueueGraphicsBit) | vk.QueueFlags(vk.QueueComputeBit)},
		{QueueFlags: vk.QueueFlags(vk.QueueComputeBit)},
		{QueueFlags: vk.QueueFlags(vk.QueueTransferBit)},
	}
	qf := NegotiateQueueFamilies(props)

	assert.True(t, qf.HasGraphics)
	assert.Equal(t, uint32(0), qf.Graphics)

	assert.True(t, qf.HasCompute)
	assert.Equal(t, uint32(1), qf.Compute, "should prefer the dedicated async-compute family over the combined one")

	assert.True(t, qf.HasTransfer)
	assert.Equal(t, uint32(2), qf.Transfer, "should prefer the dedicated transfer family")
}

func TestNegotiateQueueFamiliesFallsBackToCombinedQueue(t *testing.T) {
	props := []vk.QueueFamilyProperties{
		{QueueFlags: vk.QueueFlags(vk.QueueGraphicsBit) | vk.QueueFlags(vk.QueueComputeBit) | vk.QueueFlags(vk.QueueTransferBit)},
	}
	qf := NegotiateQueueFamilies(props)

	assert.True(t, qf.HasGraphics)
	assert.True(t, qf.HasCompute)
	assert.True(t, qf.HasTransfer)
	assert.Equal(t, uint32(0), qf.Graphics)
	assert.Equal(t, uint32(0), qf.Compute)
	assert.Equal(t, uint32(0), qf.Transfer)
}

func TestNegotiateQueueFamiliesTransferFallsBackToGraphics(t *testing.T) {
	props := []vk.QueueFamilyProperties{
		{QueueFlags: vk.QueueFlags(vk.QueueGraphicsBit)},
	}
	qf := NegotiateQueueFamilies(props)

	assert.True(t, qf.HasTransfer)
	assert.Equal(t, qf.Graphics, qf.Transfer)
}
