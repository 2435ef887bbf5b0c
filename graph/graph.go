package graph

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/vkgraph/attach"
	"github.com/andewx/vkgraph/vklog"
)

// Graph is the full ordered pass list for one renderer. It is
// grounded on CoreRenderInstance (instance.go), which
// held a single implicit pass; Graph generalizes that to an ordered
// collection with its own generation counter driving its invalidation
// protocol.
type Graph struct {
	attachments *attach.Registry
	log         *vklog.Logger

	passes     []*Pass
	generation uint64

	built bool
}

// New creates an empty graph over the given attachment registry.
func New(attachments *attach.Registry, log *vklog.Logger) *Graph {
	return &Graph{attachments: attachments, log: log}
}

// AddPass appends a pass to the graph in submission order and
// invalidates any prior build.
func (g *Graph) AddPass(p *Pass) {
	p.order = len(g.passes)
	g.passes = append(g.passes, p)
	g.built = false
}

// Passes returns the graph's passes in submission order.
func (g *Graph) Passes() []*Pass { return g.passes }

// Generation returns the graph's current build generation, the pass
// generation counter. It increments on every successful
// (re)build and is handed to renderables/computables via Pass.GetState
// so they can detect a stale cached pipeline.
func (g *Graph) Generation() uint64 { return g.generation }

// Invalidate forces the next Warmup to rebuild from scratch, e.g.
// after a swapchain recreate changes attachment formats or extents.
func (g *Graph) Invalidate() {
	g.built = false
	for _, p := range g.passes {
		p.invalidate()
	}
}

// chainPasses groups the graph's render passes into maximal subpass
// chains: consecutive render passes sharing identical framebuffer
// dimensions and attachment set membership may be merged into one
// vk.RenderPass with multiple subpasses ("Subpass chains").
// Compute passes always start a new, single-member chain.
func (g *Graph) chainPasses() {
	var chainStart *Pass
	var prevSig string
	for _, p := range g.passes {
		p.master = p
		p.next = nil
		p.index = 0
		if p.typ != Render {
			chainStart = nil
			prevSig = ""
			continue
		}
		sig := renderSignature(p)
		if chainStart != nil && sig == prevSig {
			p.master = chainStart
			p.index = chainStart.chainLen()
			chainStart.appendToChain(p)
		} else {
			chainStart = p
		}
		prevSig = sig
	}
}

// chainLen counts the passes in p's chain, p included, which is the
// subpass index the next appended pass receives; used only while p is
// a chain master being extended.
func (p *Pass) chainLen() int {
	n := 1
	cur := p
	for cur.next != nil {
		cur = cur.next
		n++
	}
	return n
}

func (p *Pass) appendToChain(next *Pass) {
	cur := p
	for cur.next != nil {
		cur = cur.next
	}
	cur.next = next
}

// renderSignature produces a string that is equal for two render
// passes exactly when they may share one vk.RenderPass as successive
// subpasses: same ordered set of attachment indices.
func renderSignature(p *Pass) string {
	s := ""
	for _, c := range p.consumes {
		s += fmt.Sprintf("%d,", c.AttachmentIndex)
	}
	return s
}

// Warmup performs the single-writer graph walk:
// resolve each consume's Prev back-reference to the most recent prior
// consume of the same attachment slot, derive initial/final layouts,
// group render passes into subpass chains, then call build to realize
// Vulkan render passes and framebuffers. Warmup is a no-op if the
// graph was already built at the current attachment generation and no
// pass has been mutated since.
func (g *Graph) Warmup(device vk.Device, imageCount int) error {
	if g.built {
		return nil
	}
	g.resolveBackReferences()
	g.chainPasses()
	g.markFirstUseInChain()
	if err := g.build(device, imageCount); err != nil {
		return err
	}
	g.generation++
	for _, p := range g.passes {
		p.SetState(State{Generation: g.generation})
	}
	g.built = true
	return nil
}

// markFirstUseInChain sets FirstUseInChain on each consume that is the
// first occurrence of its attachment within the consuming pass's own
// subpass chain (not the first occurrence ever, which resolveBackReferences'
// Prev already tracks separately). A render pass's chain shares one
// vk.RenderPass, so only the chain's entry consume of an attachment
// needs a barrier emitted before the chain is recorded; later subpasses
// in the same chain reuse the layout the render pass itself maintains.
// Compute passes are single-member chains, so each consume is its own
// chain's first use unless the same pass already consumed that
// attachment.
func (g *Graph) markFirstUseInChain() {
	for _, p := range g.passes {
		if p.typ != Render || !p.IsChainMaster() {
			continue
		}
		seen := make(map[int]bool)
		for cur := p; cur != nil; cur = cur.next {
			for ci := range cur.consumes {
				c := &cur.consumes[ci]
				if seen[c.AttachmentIndex] {
					c.Flags &^= FirstUseInChain
					continue
				}
				seen[c.AttachmentIndex] = true
				c.Flags |= FirstUseInChain
			}
		}
	}
	for _, p := range g.passes {
		if p.typ == Render {
			continue
		}
		seen := make(map[int]bool)
		for ci := range p.consumes {
			c := &p.consumes[ci]
			if seen[c.AttachmentIndex] {
				c.Flags &^= FirstUseInChain
				continue
			}
			seen[c.AttachmentIndex] = true
			c.Flags |= FirstUseInChain
		}
	}
}

// resolveBackReferences walks the graph in submission order, tracking
// the most recent pass/consume-index to touch each attachment slot,
// and fills in each consume's PrevPass/PrevConsume.
func (g *Graph) resolveBackReferences() {
	type producer struct {
		pass    int
		consume int
	}
	last := make(map[int]producer)
	for pi, p := range g.passes {
		for ci := range p.consumes {
			c := &p.consumes[ci]
			if prev, ok := last[c.AttachmentIndex]; ok {
				c.PrevPass = prev.pass
				c.PrevConsume = prev.consume
			} else {
				c.PrevPass = -1
				c.PrevConsume = -1
			}
			last[c.AttachmentIndex] = producer{pass: pi, consume: ci}
		}
	}
}
