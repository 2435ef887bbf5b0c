// Package graph implements the pass model and render-graph executor
// core: passes, pass graph merging, and barrier derivation. It is
// grounded on dieselvk's CoreRenderPass
// (renderpass.go), which hand-built one vk.RenderPass with a hardcoded
// color+depth vk.AttachmentDescription pair; Pass and Graph generalize
// that into an ordered, mergeable list driven by per-attachment
// consume metadata instead of a fixed two-attachment layout.
package graph

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/vkgraph/depsync"
	"github.com/andewx/vkgraph/vkrange"
)

// Type discriminates the pass kinds.
type Type int

const (
	Render Type = iota
	Compute
	ComputeAsync
)

// ConsumeFlag carries the boolean attributes that attach to a
// consume record (viewed?, explicit-blend?, first-use-in-chain?) plus
// the two access-mask qualifiers (discard, async-compute) that aren't
// themselves vk.AccessFlags bits.
type ConsumeFlag uint16

const (
	Viewed ConsumeFlag = 1 << iota
	ExplicitBlend
	FirstUseInChain
	Discard
	AsyncCompute
)

func (f ConsumeFlag) Has(bit ConsumeFlag) bool { return f&bit != 0 }

// BlendState is the per-attachment blend op state a consume may carry
// ("optional ... per-attachment blend op state").
type BlendState struct {
	Enable         bool
	SrcColorFactor vk.BlendFactor
	DstColorFactor vk.BlendFactor
	ColorOp        vk.BlendOp
	SrcAlphaFactor vk.BlendFactor
	DstAlphaFactor vk.BlendFactor
	AlphaOp        vk.BlendOp
}

// Consume is a pass's declared use of one attachment slot, a consume
// record. The derived fields (Prev/InitialLayout/
// FinalLayout) are populated by Graph.Warmup during a single-writer
// graph walk.
type Consume struct {
	AttachmentIndex int
	Flags           ConsumeFlag
	Access          vk.AccessFlags
	Stage           vk.PipelineStageFlags
	Range           vkrange.Range

	// Prev is an index into the producing pass's own consume slice,
	// never an owning pointer ("Back-references"); -1 means
	// no prior consume of this slot exists yet.
	PrevPass    int
	PrevConsume int

	InitialLayout vk.ImageLayout
	FinalLayout   vk.ImageLayout

	Clear *vk.ClearValue
	Blend *BlendState
}

// DependFlag carries the two boolean attributes that attach to
// the plain-pair variant of a depend record.
type DependFlag uint8

const (
	IsSubpass DependFlag = 1 << iota
	NeedsTransition
)

func (f DependFlag) Has(bit DependFlag) bool { return f&bit != 0 }

// Depend is a pass-level dependency record ("Depend record"):
// either a reference into a dependency-object pool (DepObj != nil), or
// a plain source/destination access+stage pair.
type Depend struct {
	// DepObj, Ref and Range are set for the dependency-object variant.
	DepObj *depsync.DependencyObject
	Ref    vkrange.Ref
	Range  vkrange.Range
	Family uint32

	// SrcAccess/DstAccess (maskf/mask) and SrcStage/DstStage
	// (stagef/stage) are set for the plain variant.
	SrcAccess vk.AccessFlags
	DstAccess vk.AccessFlags
	SrcStage  vk.PipelineStageFlags
	DstStage  vk.PipelineStageFlags
	Flags     DependFlag

	// Derived fields, populated during warmup.
	Format        vk.Format
	InitialLayout vk.ImageLayout
	FinalLayout   vk.ImageLayout
}

// IsDependencyObject reports whether this is variant (i), a reference
// into a dependency pool, rather than the plain access/stage pair.
func (d *Depend) IsDependencyObject() bool { return d.DepObj != nil }

// State is the opaque token a pass hands to renderables/computables so
// they can tell whether their cached pipeline has gone stale: a
// mismatch against the pass generation counter forces pipeline
// reacquisition.
type State struct {
	Generation uint64
}

// Pass is one node in the render graph ("Pass").
type Pass struct {
	order int
	typ   Type

	consumes   []Consume
	depends    []Depend
	injections []depsync.Command

	generation State
	culled     bool

	// Subpass-chain linkage : master is the first pass
	// of the chain this pass belongs to (itself, if it is the first);
	// next points at the next pass in the chain or nil.
	master *Pass
	next   *Pass
	index  int // subpass index within the chain

	// Render-pass-only fields.
	framebufferViews [][]vk.ImageView // per swapchain image (or len==1)
	framebuffers     []vk.Framebuffer
	clearValues      []vk.ClearValue
	blendStates      []vk.PipelineColorBlendAttachmentState
	renderPass       vk.RenderPass
	width, height    uint32
	layers           uint32
}

// NewPass creates an unlinked, unbuilt pass of the given type at the
// given submission order.
func NewPass(order int, typ Type) *Pass {
	p := &Pass{order: order, typ: typ}
	p.master = p
	return p
}

func (p *Pass) Order() int   { return p.order }
func (p *Pass) Type() Type   { return p.typ }
func (p *Pass) Culled() bool { return p.culled }
func (p *Pass) SetCulled(v bool) { p.culled = v }
func (p *Pass) Consumes() []Consume { return p.consumes }
func (p *Pass) Depends() []Depend   { return p.depends }
func (p *Pass) Injections() []depsync.Command { return p.injections }
func (p *Pass) RenderPassHandle() vk.RenderPass { return p.renderPass }
func (p *Pass) Framebuffer(i int) vk.Framebuffer {
	if i < 0 || i >= len(p.framebuffers) {
		return vk.NullFramebuffer
	}
	return p.framebuffers[i]
}

// BlendStates returns one vk.PipelineColorBlendAttachmentState per
// color attachment, in the same order as this subpass's color
// references, for recorders building a pipeline against this pass.
func (p *Pass) BlendStates() []vk.PipelineColorBlendAttachmentState { return p.blendStates }

// IsChainMaster reports whether p is the first pass of its subpass
// chain (the "only the last pass in such a chain actually
// executes ... on behalf of the whole chain" — master is the first).
func (p *Pass) IsChainMaster() bool { return p.master == p }

// IsChainLast reports whether p is the last pass of its subpass
// chain.
func (p *Pass) IsChainLast() bool { return p.next == nil }

// Master returns the first pass of p's subpass chain.
func (p *Pass) Master() *Pass { return p.master }

// Next returns the following pass in p's subpass chain, or nil.
func (p *Pass) Next() *Pass { return p.next }

// SubpassIndex returns p's index within its chain.
func (p *Pass) SubpassIndex() int { return p.index }

// invalidate drops the cached Vulkan render pass and framebuffers,
// per the invalidation protocol: "any mutation to a pass's
// consume/depend list invalidates the graph, forcing full
// destruct+rebuild of dependent passes before next use."
func (p *Pass) invalidate() {
	p.renderPass = vk.NullRenderPass
	p.framebuffers = nil
	p.framebufferViews = nil
}

// Consume appends a consume record for a single attachment.
func (p *Pass) Consume(attachmentIndex int, access vk.AccessFlags, stage vk.PipelineStageFlags, rng vkrange.Range, flags ConsumeFlag) {
	p.consumes = append(p.consumes, Consume{
		AttachmentIndex: attachmentIndex,
		Access:          access,
		Stage:           stage,
		Range:           rng,
		Flags:           flags,
		PrevPass:        -1,
		PrevConsume:     -1,
	})
	p.invalidate()
}

// ConsumeArray appends one consume record per attachment index in
// indices, all sharing the same access/stage/range/flags.
func (p *Pass) ConsumeArray(indices []int, access vk.AccessFlags, stage vk.PipelineStageFlags, rng vkrange.Range, flags ConsumeFlag) {
	for _, idx := range indices {
		p.Consume(idx, access, stage, rng, flags)
	}
}

// ConsumeVariadic is the variadic form of ConsumeArray.
func (p *Pass) ConsumeVariadic(access vk.AccessFlags, stage vk.PipelineStageFlags, rng vkrange.Range, flags ConsumeFlag, indices ...int) {
	p.ConsumeArray(indices, access, stage, rng, flags)
}

// Clear sets the clear value for the most recently added consume of
// attachmentIndex.
func (p *Pass) Clear(attachmentIndex int, value vk.ClearValue) {
	for i := len(p.consumes) - 1; i >= 0; i-- {
		if p.consumes[i].AttachmentIndex == attachmentIndex {
			v := value
			p.consumes[i].Clear = &v
			p.invalidate()
			return
		}
	}
}

// Blend sets the blend state for the most recently added consume of
// attachmentIndex.
func (p *Pass) Blend(attachmentIndex int, state BlendState) {
	for i := len(p.consumes) - 1; i >= 0; i-- {
		if p.consumes[i].AttachmentIndex == attachmentIndex {
			s := state
			p.consumes[i].Blend = &s
			p.invalidate()
			return
		}
	}
}

// AddDepend appends a dependency record and invalidates the pass.
func (p *Pass) AddDepend(d Depend) {
	p.depends = append(p.depends, d)
	p.invalidate()
}

// AddInjection appends an ad-hoc dependency reference issued by the
// client before a frame. The injection is stored whatever the pass's
// position in its subpass chain: neither this method nor package frame
// checks for or drops an injection on a non-last chain member, and the
// frame executor processes every member's injections.
func (p *Pass) AddInjection(c depsync.Command) {
	p.injections = append(p.injections, c)
}

// Release detaches the pass's cached Vulkan objects so it can be
// rebuilt or discarded ("release").
func (p *Pass) Release() {
	p.invalidate()
	p.consumes = nil
	p.depends = nil
	p.injections = nil
}

// GetState returns the pass's current generation token.
func (p *Pass) GetState() State { return p.generation }

// SetState installs a new generation token, e.g. after a rebuild.
func (p *Pass) SetState(s State) { p.generation = s }

// GetSize returns the framebuffer dimensions warmup computed.
func (p *Pass) GetSize() (width, height uint32) { return p.width, p.height }

// GetNumParents returns the number of distinct passes that produced an
// attachment this pass consumes (i.e. the passes referenced by this
// pass's consumes' Prev back-references).
func (p *Pass) GetNumParents(passes []*Pass) int {
	return len(p.parentIndices(passes))
}

// GetParent returns the i'th distinct producer pass, in consume order.
func (p *Pass) GetParent(passes []*Pass, i int) *Pass {
	idxs := p.parentIndices(passes)
	if i < 0 || i >= len(idxs) {
		return nil
	}
	return passes[idxs[i]]
}

func (p *Pass) parentIndices(passes []*Pass) []int {
	seen := make(map[int]bool)
	var out []int
	for _, c := range p.consumes {
		if c.PrevPass < 0 {
			continue
		}
		if !seen[c.PrevPass] {
			seen[c.PrevPass] = true
			out = append(out, c.PrevPass)
		}
	}
	return out
}
