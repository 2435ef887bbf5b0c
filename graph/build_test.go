package graph

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
	"github.com/stretchr/testify/assert"
)

func TestBlendAttachmentStateDefaultsToDisabled(t *testing.T) {
	c := &Consume{}
	got := blendAttachmentState(c)
	assert.Equal(t, vk.False, got.BlendEnable)
}

func TestBlendAttachmentStateUsesExplicitBlend(t *testing.T) {
	blend := BlendState{
		Enable:         true,
		SrcColorFactor: vk.BlendFactorSrcAlpha,
		DstColorFactor: vk.BlendFactorOneMinusSrcAlpha,
		ColorOp:        vk.BlendOpAdd,
	}
	c := &Consume{Flags: ExplicitBlend, Blend: &blend}
	got := blendAttachmentState(c)
	assert.Equal(t, vk.True, got.BlendEnable)
	assert.Equal(t, vk.BlendFactorSrcAlpha, got.SrcColorBlendFactor)
	assert.Equal(t, vk.BlendFactorOneMinusSrcAlpha, got.DstColorBlendFactor)
	assert.Equal(t, vk.BlendOpAdd, got.ColorBlendOp)
}

func TestBlendAttachmentStateIgnoresBlendWithoutExplicitFlag(t *testing.T) {
	blend := BlendState{Enable: true}
	c := &Consume{Blend: &blend}
	got := blendAttachmentState(c)
	assert.Equal(t, vk.False, got.BlendEnable, "a Blend value without ExplicitBlend must not enable blending")
}

func TestLoadOpForUndefinedInitialLayoutIsDontCare(t *testing.T) {
	c := &Consume{InitialLayout: vk.ImageLayoutUndefined}
	assert.Equal(t, vk.AttachmentLoadOpDontCare, loadOpFor(c))
}

func TestLoadOpForKnownInitialLayoutLoads(t *testing.T) {
	c := &Consume{InitialLayout: vk.ImageLayoutColorAttachmentOptimal}
	assert.Equal(t, vk.AttachmentLoadOpLoad, loadOpFor(c))
}

func TestLoadOpForClearWins(t *testing.T) {
	clear := vk.ClearValue{}
	c := &Consume{InitialLayout: vk.ImageLayoutColorAttachmentOptimal, Clear: &clear}
	assert.Equal(t, vk.AttachmentLoadOpClear, loadOpFor(c))
}
