package graph

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/vkgraph/attach"
	"github.com/andewx/vkgraph/vkerr"
	"github.com/andewx/vkgraph/vkrange"
)

// slotView is the per-attachment information build needs: its format,
// extent, and per-swapchain-image view set (a single-element slice for
// image-backed slots, one view per swapchain image for window-backed
// ones).
type slotView struct {
	format vk.Format
	extent vk.Extent2D
	views  []vk.ImageView
	kind   attach.Kind
}

func (g *Graph) resolveSlot(idx int) (slotView, bool) {
	s, ok := g.attachments.Slot(idx)
	if !ok || s.Kind == attach.Empty {
		return slotView{}, false
	}
	switch s.Kind {
	case attach.Window:
		return slotView{
			format: s.Window.Format(),
			extent: s.Window.Extent(),
			views:  s.Window.Views(),
			kind:   attach.Window,
		}, true
	case attach.Image:
		return slotView{
			format: s.Image.Format,
			extent: vk.Extent2D{Width: s.Image.Extent.Width, Height: s.Image.Extent.Height},
			views:  []vk.ImageView{s.Image.View},
			kind:   attach.Image,
		}, true
	}
	return slotView{}, false
}

// build realizes every not-yet-built render-pass chain into one
// vk.RenderPass plus one vk.Framebuffer per swapchain image. It acts
// as the pass builder, grounded on dieselvk's
// CoreRenderPass.CreateRenderPass (renderpass.go), which hardcoded one
// color+depth attachment pair into a single subpass; this generalizes
// that pattern to an arbitrary attachment set and subpass count,
// deriving descriptions and references from each pass's consume list
// instead of two fixed slots.
func (g *Graph) build(device vk.Device, imageCount int) error {
	for _, p := range g.passes {
		if p.typ != Render || !p.IsChainMaster() {
			continue
		}
		if err := g.buildChain(device, p, imageCount); err != nil {
			return err
		}
	}
	return nil
}

// buildChain builds the single vk.RenderPass (and per-image
// framebuffers) backing the subpass chain starting at master.
func (g *Graph) buildChain(device vk.Device, master *Pass, imageCount int) error {
	var chain []*Pass
	for p := master; p != nil; p = p.next {
		chain = append(chain, p)
	}

	// Collect the distinct attachment indices this chain touches, in
	// first-seen order, and validate the "at most one window
	// color backbuffer, at most one depth attachment per subpass"
	// constraints.
	var attachmentOrder []int
	seen := make(map[int]bool)
	windowColorSeen := false
	for _, p := range chain {
		depthSeen := false
		for ci := range p.consumes {
			c := &p.consumes[ci]
			if !seen[c.AttachmentIndex] {
				seen[c.AttachmentIndex] = true
				attachmentOrder = append(attachmentOrder, c.AttachmentIndex)
			}
			sv, ok := g.resolveSlot(c.AttachmentIndex)
			if !ok {
				if g.log != nil {
					g.log.Debugf("graph: pass %d skipped, attachment %d is empty", p.order, c.AttachmentIndex)
				}
				p.culled = true
				continue
			}
			if vkrange.HasDepthStencil(sv.format) {
				if depthSeen {
					return vkerr.Wrap(fmt.Errorf("graph: pass %d consumes more than one depth/stencil attachment", p.order))
				}
				depthSeen = true
			} else if sv.kind == attach.Window {
				if windowColorSeen && c.Access&vk.AccessFlags(vk.AccessColorAttachmentWriteBit) != 0 {
					return vkerr.Wrap(fmt.Errorf("graph: pass %d consumes more than one window color backbuffer", p.order))
				}
				windowColorSeen = true
			}
		}
	}
	if len(attachmentOrder) == 0 || anyCulled(chain) {
		return nil
	}

	// Dimension consistency: every attachment in the chain must share
	// the same extent (the "dimension-consistency skip-with-
	// debug-note" — mismatched passes are logged and skipped rather
	// than treated as a fatal error).
	var width, height uint32
	slots := make(map[int]slotView, len(attachmentOrder))
	for i, idx := range attachmentOrder {
		sv, ok := g.resolveSlot(idx)
		if !ok {
			return nil
		}
		slots[idx] = sv
		if i == 0 {
			width, height = sv.extent.Width, sv.extent.Height
			continue
		}
		if sv.extent.Width != width || sv.extent.Height != height {
			if g.log != nil {
				g.log.Debugf("graph: chain at pass %d skipped, attachment %d extent %dx%d mismatches chain extent %dx%d",
					master.order, idx, sv.extent.Width, sv.extent.Height, width, height)
			}
			return nil
		}
	}

	// Derive per-attachment layouts by walking each attachment's
	// consume history across the chain.
	lastConsumeOf := make(map[int]*Consume)
	firstConsumeOf := make(map[int]*Consume)
	for _, p := range chain {
		for ci := range p.consumes {
			c := &p.consumes[ci]
			sv := slots[c.AttachmentIndex]
			prev, had := lastConsumeOf[c.AttachmentIndex]
			var predecessorFinal vk.ImageLayout
			if had {
				predecessorFinal = prev.FinalLayout
			}
			deriveConsumeLayouts(c, sv.format, predecessorFinal, had)
			lastConsumeOf[c.AttachmentIndex] = c
			if _, ok := firstConsumeOf[c.AttachmentIndex]; !ok {
				firstConsumeOf[c.AttachmentIndex] = c
			}
		}
	}
	// A window-backed attachment's final layout in the last subpass
	// that uses it is PresentSrc, per the swapchain
	// coordinator presents directly from the framebuffer.
	for idx, c := range lastConsumeOf {
		if slots[idx].kind == attach.Window {
			c.FinalLayout = vk.ImageLayoutPresentSrc
		}
	}

	attachmentIndex := make(map[int]uint32, len(attachmentOrder))
	descriptions := make([]vk.AttachmentDescription, len(attachmentOrder))
	for i, idx := range attachmentOrder {
		attachmentIndex[idx] = uint32(i)
		sv := slots[idx]
		first := firstConsumeOf[idx]
		last := lastConsumeOf[idx]
		descriptions[i] = attachmentDescription(sv.format, vk.SampleCountFlagBits(vk.SampleCount1Bit), first, last)
	}

	subpasses := make([]vk.SubpassDescription, len(chain))
	var allColorRefs [][]vk.AttachmentReference
	var allDepthRefs []*vk.AttachmentReference
	for si, p := range chain {
		var colorRefs []vk.AttachmentReference
		var depthRef *vk.AttachmentReference
		var blendStates []vk.PipelineColorBlendAttachmentState
		for ci := range p.consumes {
			c := &p.consumes[ci]
			ref := vk.AttachmentReference{
				Attachment: attachmentIndex[c.AttachmentIndex],
				Layout:     c.FinalLayout,
			}
			if vkrange.HasDepthStencil(slots[c.AttachmentIndex].format) {
				r := ref
				depthRef = &r
			} else {
				colorRefs = append(colorRefs, ref)
				blendStates = append(blendStates, blendAttachmentState(c))
			}
		}
		p.blendStates = blendStates
		allColorRefs = append(allColorRefs, colorRefs)
		allDepthRefs = append(allDepthRefs, depthRef)
		sd := vk.SubpassDescription{
			PipelineBindPoint:    vk.PipelineBindPointGraphics,
			ColorAttachmentCount: uint32(len(colorRefs)),
		}
		if len(colorRefs) > 0 {
			sd.PColorAttachments = allColorRefs[si]
		}
		if depthRef != nil {
			sd.PDepthStencilAttachment = allDepthRefs[si]
		}
		subpasses[si] = sd
	}

	dependencies := chainDependencies(len(chain))

	var renderPass vk.RenderPass
	res := vk.CreateRenderPass(device, &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(descriptions)),
		PAttachments:    descriptions,
		SubpassCount:    uint32(len(subpasses)),
		PSubpasses:      subpasses,
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}, nil, &renderPass)
	if res != vk.Success {
		return vkerr.Fatal(res)
	}

	framebuffers := make([]vk.Framebuffer, imageCount)
	for img := 0; img < imageCount; img++ {
		views := make([]vk.ImageView, len(attachmentOrder))
		for i, idx := range attachmentOrder {
			sv := slots[idx]
			if len(sv.views) == 1 {
				views[i] = sv.views[0]
			} else if img < len(sv.views) {
				views[i] = sv.views[img]
			}
		}
		var fb vk.Framebuffer
		res := vk.CreateFramebuffer(device, &vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      renderPass,
			AttachmentCount: uint32(len(views)),
			PAttachments:    views,
			Width:           width,
			Height:          height,
			Layers:          1,
		}, nil, &fb)
		if res != vk.Success {
			return vkerr.Fatal(res)
		}
		framebuffers[img] = fb
	}

	for _, p := range chain {
		p.renderPass = renderPass
		p.framebuffers = framebuffers
		p.width, p.height = width, height
		p.layers = 1
	}
	return nil
}

// blendAttachmentState derives a color attachment's pipeline blend
// state from its consume record: the caller's explicit BlendState if
// ExplicitBlend is set and one was supplied, else blending disabled
// with the default RGBA write mask.
func blendAttachmentState(c *Consume) vk.PipelineColorBlendAttachmentState {
	if c.Flags.Has(ExplicitBlend) && c.Blend != nil {
		b := c.Blend
		return vk.PipelineColorBlendAttachmentState{
			BlendEnable:         toVkBool(b.Enable),
			SrcColorBlendFactor: b.SrcColorFactor,
			DstColorBlendFactor: b.DstColorFactor,
			ColorBlendOp:        b.ColorOp,
			SrcAlphaBlendFactor: b.SrcAlphaFactor,
			DstAlphaBlendFactor: b.DstAlphaFactor,
			AlphaBlendOp:        b.AlphaOp,
			ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
				vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
		}
	}
	return vk.PipelineColorBlendAttachmentState{
		BlendEnable: vk.False,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}
}

func toVkBool(v bool) vk.Bool32 {
	if v {
		return vk.True
	}
	return vk.False
}

// loadOpFor derives loadOp from the chain-entry consume: clear if
// cleared, else load if its initial layout is known, else don't-care.
func loadOpFor(c *Consume) vk.AttachmentLoadOp {
	switch {
	case c.Clear != nil:
		return vk.AttachmentLoadOpClear
	case c.InitialLayout != vk.ImageLayoutUndefined:
		return vk.AttachmentLoadOpLoad
	default:
		return vk.AttachmentLoadOpDontCare
	}
}

// chainDependencies builds the entry/exit external dependencies plus
// one inter-subpass dependency per adjacent pair, generalizing
// CoreRenderPass's two-dependency external pattern to a chain of
// arbitrary length.
func chainDependencies(numSubpasses int) []vk.SubpassDependency {
	deps := []vk.SubpassDependency{
		{
			SrcSubpass:      vk.MaxUint32,
			DstSubpass:      0,
			SrcStageMask:    vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
			DstStageMask:    vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			SrcAccessMask:   vk.AccessFlags(vk.AccessMemoryReadBit),
			DstAccessMask:   vk.AccessFlags(vk.AccessColorAttachmentReadBit) | vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
			DependencyFlags: vk.DependencyFlags(vk.DependencyByRegionBit),
		},
	}
	for i := 0; i < numSubpasses-1; i++ {
		deps = append(deps, vk.SubpassDependency{
			SrcSubpass:      uint32(i),
			DstSubpass:      uint32(i + 1),
			SrcStageMask:    vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			DstStageMask:    vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit) | vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
			SrcAccessMask:   vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
			DstAccessMask:   vk.AccessFlags(vk.AccessColorAttachmentReadBit) | vk.AccessFlags(vk.AccessInputAttachmentReadBit),
			DependencyFlags: vk.DependencyFlags(vk.DependencyByRegionBit),
		})
	}
	deps = append(deps, vk.SubpassDependency{
		SrcSubpass:      uint32(numSubpasses - 1),
		DstSubpass:      vk.MaxUint32,
		SrcStageMask:    vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstStageMask:    vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
		SrcAccessMask:   vk.AccessFlags(vk.AccessColorAttachmentReadBit) | vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
		DstAccessMask:   vk.AccessFlags(vk.AccessMemoryReadBit),
		DependencyFlags: vk.DependencyFlags(vk.DependencyByRegionBit),
	})
	return deps
}

func anyCulled(chain []*Pass) bool {
	for _, p := range chain {
		if p.culled {
			return true
		}
	}
	return false
}
