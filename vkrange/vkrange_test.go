package vkrange

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
	"github.com/stretchr/testify/assert"
)

func TestFormatAspect(t *testing.T) {
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectDepthBit), FormatAspect(vk.FormatD32Sfloat))
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectStencilBit), FormatAspect(vk.FormatS8Uint))
	assert.Equal(t,
		vk.ImageAspectFlags(vk.ImageAspectDepthBit)|vk.ImageAspectFlags(vk.ImageAspectStencilBit),
		FormatAspect(vk.FormatD24UnormS8Uint))
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectColorBit), FormatAspect(vk.FormatR8g8b8a8Unorm))
}

func TestHasDepthStencil(t *testing.T) {
	assert.True(t, HasDepthStencil(vk.FormatD32Sfloat))
	assert.True(t, HasDepthStencil(vk.FormatS8Uint))
	assert.False(t, HasDepthStencil(vk.FormatR8g8b8a8Unorm))
}

func TestWrites(t *testing.T) {
	assert.True(t, Writes(vk.AccessFlags(vk.AccessColorAttachmentWriteBit)))
	assert.True(t, Writes(vk.AccessFlags(vk.AccessTransferWriteBit)))
	assert.False(t, Writes(vk.AccessFlags(vk.AccessColorAttachmentReadBit)))
	assert.False(t, Writes(vk.AccessFlags(vk.AccessShaderReadBit)))
}

func TestMergeBoundedRanges(t *testing.T) {
	prev := Range{Aspect: vk.ImageAspectFlags(vk.ImageAspectColorBit), BaseMip: 0, MipCount: 1, BaseLayer: 0, LayerCount: 1}
	cur := Range{Aspect: vk.ImageAspectFlags(vk.ImageAspectColorBit), BaseMip: 1, MipCount: 2, BaseLayer: 0, LayerCount: 1}
	out := Merge(prev, cur, vk.FormatR8g8b8a8Unorm)
	assert.Equal(t, uint32(0), out.BaseMip)
	assert.Equal(t, uint32(3), out.MipCount)
	assert.Equal(t, uint32(0), out.BaseLayer)
	assert.Equal(t, uint32(1), out.LayerCount)
}

func TestMergeRemainingIsSticky(t *testing.T) {
	prev := Range{BaseMip: 0, MipCount: Remaining, BaseLayer: 0, LayerCount: 1}
	cur := Range{BaseMip: 2, MipCount: 3, BaseLayer: 0, LayerCount: Remaining}
	out := Merge(prev, cur, vk.FormatR8g8b8a8Unorm)
	assert.Equal(t, uint32(Remaining), out.MipCount)
	assert.Equal(t, uint32(Remaining), out.LayerCount)
}

func TestOverlapsDisjointMips(t *testing.T) {
	a := Range{BaseMip: 0, MipCount: 1, BaseLayer: 0, LayerCount: 1}
	b := Range{BaseMip: 1, MipCount: 1, BaseLayer: 0, LayerCount: 1}
	assert.False(t, Overlaps(a, b))
}

func TestOverlapsSameAspectAndRange(t *testing.T) {
	a := Range{Aspect: vk.ImageAspectFlags(vk.ImageAspectColorBit), BaseMip: 0, MipCount: Remaining, BaseLayer: 0, LayerCount: Remaining}
	b := Range{Aspect: vk.ImageAspectFlags(vk.ImageAspectColorBit), BaseMip: 0, MipCount: 1, BaseLayer: 0, LayerCount: 1}
	assert.True(t, Overlaps(a, b))
}

func TestOverlapsDisjointAspect(t *testing.T) {
	a := Range{Aspect: vk.ImageAspectFlags(vk.ImageAspectDepthBit)}
	b := Range{Aspect: vk.ImageAspectFlags(vk.ImageAspectStencilBit)}
	assert.False(t, Overlaps(a, b))
}

func TestRangeToVulkanSubstitutesRemaining(t *testing.T) {
	r := Range{BaseMip: 1, MipCount: Remaining, BaseLayer: 0, LayerCount: Remaining}
	out := r.ToVulkan(4, 6)
	assert.Equal(t, uint32(3), out.LevelCount)
	assert.Equal(t, uint32(6), out.LayerCount)
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectColorBit), out.AspectMask)
}
