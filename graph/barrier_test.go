package graph

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
	"github.com/stretchr/testify/assert"
)

func TestStageForExplicitStageWins(t *testing.T) {
	c := &Consume{Stage: vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit)}
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit), StageFor(c, vk.FormatR8g8b8a8Unorm))
}

func TestStageForDerivesDepthStencilStage(t *testing.T) {
	c := &Consume{}
	got := StageFor(c, vk.FormatD32Sfloat)
	want := vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit) | vk.PipelineStageFlags(vk.PipelineStageLateFragmentTestsBit)
	assert.Equal(t, want, got)
}

func TestStageForDerivesColorStage(t *testing.T) {
	c := &Consume{}
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit), StageFor(c, vk.FormatR8g8b8a8Unorm))
}

func TestLayoutForColorWrite(t *testing.T) {
	got := LayoutFor(vk.AccessFlags(vk.AccessColorAttachmentWriteBit), vk.FormatR8g8b8a8Unorm)
	assert.Equal(t, vk.ImageLayoutColorAttachmentOptimal, got)
}

func TestLayoutForDepthWrite(t *testing.T) {
	got := LayoutFor(vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit), vk.FormatD32Sfloat)
	assert.Equal(t, vk.ImageLayoutDepthStencilAttachmentOptimal, got)
}

func TestLayoutForDepthRead(t *testing.T) {
	got := LayoutFor(vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit), vk.FormatD32Sfloat)
	assert.Equal(t, vk.ImageLayoutDepthStencilReadOnlyOptimal, got)
}

func TestLayoutForTransfer(t *testing.T) {
	assert.Equal(t, vk.ImageLayoutTransferDstOptimal,
		LayoutFor(vk.AccessFlags(vk.AccessTransferWriteBit), vk.FormatR8g8b8a8Unorm))
	assert.Equal(t, vk.ImageLayoutTransferSrcOptimal,
		LayoutFor(vk.AccessFlags(vk.AccessTransferReadBit), vk.FormatR8g8b8a8Unorm))
}

func TestLayoutForDefaultsToShaderReadOnly(t *testing.T) {
	got := LayoutFor(vk.AccessFlags(vk.AccessShaderReadBit), vk.FormatR8g8b8a8Unorm)
	assert.Equal(t, vk.ImageLayoutShaderReadOnlyOptimal, got)
}

func TestDeriveConsumeLayoutsFirstUseIsUndefined(t *testing.T) {
	c := &Consume{Access: vk.AccessFlags(vk.AccessColorAttachmentWriteBit)}
	deriveConsumeLayouts(c, vk.FormatR8g8b8a8Unorm, vk.ImageLayoutUndefined, false)
	assert.Equal(t, vk.ImageLayoutUndefined, c.InitialLayout)
	assert.Equal(t, vk.ImageLayoutColorAttachmentOptimal, c.FinalLayout)
}

func TestDeriveConsumeLayoutsFollowsPredecessorFinal(t *testing.T) {
	c := &Consume{Access: vk.AccessFlags(vk.AccessShaderReadBit)}
	deriveConsumeLayouts(c, vk.FormatR8g8b8a8Unorm, vk.ImageLayoutColorAttachmentOptimal, true)
	assert.Equal(t, vk.ImageLayoutColorAttachmentOptimal, c.InitialLayout)
	assert.Equal(t, vk.ImageLayoutShaderReadOnlyOptimal, c.FinalLayout)
}

func TestAttachmentDescriptionClearedLoadOp(t *testing.T) {
	clear := vk.ClearValue{}
	c := &Consume{Clear: &clear}
	d := attachmentDescription(vk.FormatR8g8b8a8Unorm, vk.SampleCountFlagBits(vk.SampleCount1Bit), c, c)
	assert.Equal(t, vk.AttachmentLoadOpClear, d.LoadOp)
	assert.Equal(t, vk.AttachmentStoreOpStore, d.StoreOp)
}

func TestAttachmentDescriptionFirstUseWithoutClearIsDontCare(t *testing.T) {
	first := &Consume{Flags: FirstUseInChain}
	last := &Consume{}
	d := attachmentDescription(vk.FormatR8g8b8a8Unorm, vk.SampleCountFlagBits(vk.SampleCount1Bit), first, last)
	assert.Equal(t, vk.AttachmentLoadOpDontCare, d.LoadOp)
}

func TestAttachmentDescriptionLoadsExistingContents(t *testing.T) {
	c := &Consume{}
	d := attachmentDescription(vk.FormatR8g8b8a8Unorm, vk.SampleCountFlagBits(vk.SampleCount1Bit), c, c)
	assert.Equal(t, vk.AttachmentLoadOpLoad, d.LoadOp)
}

func TestAttachmentDescriptionStencilFollowsDepthFormat(t *testing.T) {
	c := &Consume{Flags: FirstUseInChain}
	d := attachmentDescription(vk.FormatD24UnormS8Uint, vk.SampleCountFlagBits(vk.SampleCount1Bit), c, c)
	assert.Equal(t, vk.AttachmentLoadOpDontCare, d.StencilLoadOp)
	assert.Equal(t, vk.AttachmentStoreOpStore, d.StencilStoreOp)
}

func TestAttachmentDescriptionDiscardSkipsStore(t *testing.T) {
	c := &Consume{Flags: Discard}
	d := attachmentDescription(vk.FormatR8g8b8a8Unorm, vk.SampleCountFlagBits(vk.SampleCount1Bit), c, c)
	assert.Equal(t, vk.AttachmentStoreOpDontCare, d.StoreOp, "a discarded last use must not store")
}

func TestAttachmentDescriptionStencilFollowsCorrectedLoadOpAcrossFirstAndLast(t *testing.T) {
	clear := vk.ClearValue{}
	first := &Consume{Clear: &clear}
	last := &Consume{Flags: Discard}
	d := attachmentDescription(vk.FormatD24UnormS8Uint, vk.SampleCountFlagBits(vk.SampleCount1Bit), first, last)
	assert.Equal(t, vk.AttachmentLoadOpClear, d.LoadOp)
	assert.Equal(t, vk.AttachmentStoreOpDontCare, d.StoreOp)
	assert.Equal(t, d.LoadOp, d.StencilLoadOp, "stencil load must track the corrected, first-derived load op")
	assert.Equal(t, d.StoreOp, d.StencilStoreOp, "stencil store must track the corrected, last-derived store op")
}

func TestChainDependenciesBracketsEntryAndExit(t *testing.T) {
	deps := chainDependencies(3)
	assert.Len(t, deps, 4) // entry + 2 inter-subpass + exit
	assert.Equal(t, vk.MaxUint32, deps[0].SrcSubpass)
	assert.Equal(t, uint32(0), deps[0].DstSubpass)
	assert.Equal(t, uint32(2), deps[len(deps)-1].SrcSubpass)
	assert.Equal(t, vk.MaxUint32, deps[len(deps)-1].DstSubpass)
}
