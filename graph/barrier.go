package graph

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/vkgraph/vkrange"
)

// StageFor derives the vk.PipelineStageFlags a consume implies when
// none was given explicitly, per attachment reads/writes
// imply the fragment-test or color-attachment-output stage depending
// on aspect, everything else falls back to the consume's own stage.
func StageFor(c *Consume, format vk.Format) vk.PipelineStageFlags {
	if c.Stage != 0 {
		return c.Stage
	}
	if vkrange.HasDepthStencil(format) {
		return vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit) |
			vk.PipelineStageFlags(vk.PipelineStageLateFragmentTestsBit)
	}
	return vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
}

// LayoutFor derives the vk.ImageLayout a consume implies from its
// access mask and the attachment's format (the "Layout
// derivation"): a write-only depth/stencil access selects the
// depth/stencil-attachment-optimal layout, a read-only one selects the
// read-only-optimal variant, and color accesses select
// color-attachment-optimal. Accesses with no attachment-shaped bit set
// (e.g. a plain shader-read for a sampled image) select
// shader-read-only-optimal.
func LayoutFor(access vk.AccessFlags, format vk.Format) vk.ImageLayout {
	depthStencil := vkrange.HasDepthStencil(format)
	attachmentRead := access&vk.AccessFlags(vk.AccessColorAttachmentReadBit) != 0 ||
		access&vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit) != 0
	attachmentWrite := access&vk.AccessFlags(vk.AccessColorAttachmentWriteBit) != 0 ||
		access&vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit) != 0

	switch {
	case depthStencil && attachmentWrite:
		return vk.ImageLayoutDepthStencilAttachmentOptimal
	case depthStencil && attachmentRead:
		return vk.ImageLayoutDepthStencilReadOnlyOptimal
	case !depthStencil && attachmentWrite:
		return vk.ImageLayoutColorAttachmentOptimal
	case !depthStencil && attachmentRead:
		return vk.ImageLayoutColorAttachmentOptimal
	case access&vk.AccessFlags(vk.AccessTransferWriteBit) != 0:
		return vk.ImageLayoutTransferDstOptimal
	case access&vk.AccessFlags(vk.AccessTransferReadBit) != 0:
		return vk.ImageLayoutTransferSrcOptimal
	default:
		return vk.ImageLayoutShaderReadOnlyOptimal
	}
}

// deriveConsumeLayouts fills in a consume's InitialLayout/FinalLayout
// given its predecessor (if any) in the same chain: the initial
// layout is the predecessor's final layout (or vk.ImageLayoutUndefined
// for the first use of a slot), and the final layout is this
// consume's own derived layout.
func deriveConsumeLayouts(c *Consume, format vk.Format, predecessorFinal vk.ImageLayout, hadPredecessor bool) {
	c.FinalLayout = LayoutFor(c.Access, format)
	if !hadPredecessor {
		c.InitialLayout = vk.ImageLayoutUndefined
		return
	}
	c.InitialLayout = predecessorFinal
}

// attachmentDescription builds the vk.AttachmentDescription for one
// attachment of a subpass chain: the chain's first consumer of this
// attachment decides LoadOp (clear if cleared, don't-care if flagged
// FirstUseInChain, load otherwise); the last consumer decides StoreOp
// (store unless flagged Discard). Stencil ops mirror the same
// load/store decision whenever the format carries a stencil aspect,
// so they never drift from the corrected, first/last-derived values
// even when first and last are different passes in the chain.
func attachmentDescription(format vk.Format, samples vk.SampleCountFlagBits, first, last *Consume) vk.AttachmentDescription {
	loadOp := vk.AttachmentLoadOpLoad
	switch {
	case first.Clear != nil:
		loadOp = vk.AttachmentLoadOpClear
	case first.Flags.Has(FirstUseInChain):
		loadOp = vk.AttachmentLoadOpDontCare
	}
	storeOp := vk.AttachmentStoreOpDontCare
	if !last.Flags.Has(Discard) {
		storeOp = vk.AttachmentStoreOpStore
	}
	stencilLoad := vk.AttachmentLoadOpDontCare
	stencilStore := vk.AttachmentStoreOpDontCare
	if vkrange.FormatAspect(format)&vk.ImageAspectFlags(vk.ImageAspectStencilBit) != 0 {
		stencilLoad = loadOp
		stencilStore = storeOp
	}
	return vk.AttachmentDescription{
		Format:         format,
		Samples:        samples,
		LoadOp:         loadOp,
		StoreOp:        storeOp,
		StencilLoadOp:  stencilLoad,
		StencilStoreOp: stencilStore,
		InitialLayout:  first.InitialLayout,
		FinalLayout:    last.FinalLayout,
	}
}
