package graph

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andewx/vkgraph/attach"
	"github.com/andewx/vkgraph/vkrange"
)

func rngFull() vkrange.Range {
	return vkrange.Range{Aspect: vk.ImageAspectFlags(vk.ImageAspectColorBit), MipCount: vkrange.Remaining, LayerCount: vkrange.Remaining}
}

func TestChainPassesMergesConsecutiveSameAttachmentSet(t *testing.T) {
	g := New(attach.New(), nil)
	p0 := NewPass(0, Render)
	p0.Consume(0, vk.AccessFlags(vk.AccessColorAttachmentWriteBit), 0, rngFull(), 0)
	p1 := NewPass(1, Render)
	p1.Consume(0, vk.AccessFlags(vk.AccessColorAttachmentWriteBit), 0, rngFull(), 0)
	p2 := NewPass(2, Render)
	p2.Consume(1, vk.AccessFlags(vk.AccessColorAttachmentWriteBit), 0, rngFull(), 0)
	g.AddPass(p0)
	g.AddPass(p1)
	g.AddPass(p2)

	g.chainPasses()

	assert.True(t, p0.IsChainMaster())
	assert.Same(t, p0, p1.Master())
	assert.True(t, p1.IsChainLast())
	assert.False(t, p1.IsChainMaster())
	assert.Same(t, p1, p0.Next())
	assert.Equal(t, 1, p1.SubpassIndex())

	assert.True(t, p2.IsChainMaster(), "different attachment set must start a new chain")
	assert.True(t, p2.IsChainLast())
}

func TestChainPassesComputeBreaksChain(t *testing.T) {
	g := New(attach.New(), nil)
	p0 := NewPass(0, Render)
	p0.Consume(0, vk.AccessFlags(vk.AccessColorAttachmentWriteBit), 0, rngFull(), 0)
	compute := NewPass(1, Compute)
	p1 := NewPass(2, Render)
	p1.Consume(0, vk.AccessFlags(vk.AccessColorAttachmentWriteBit), 0, rngFull(), 0)
	g.AddPass(p0)
	g.AddPass(compute)
	g.AddPass(p1)

	g.chainPasses()

	assert.True(t, p0.IsChainLast())
	assert.True(t, p1.IsChainMaster(), "a compute pass must break an otherwise-identical chain")
}

func TestResolveBackReferencesLinksConsecutiveConsumesOfSameSlot(t *testing.T) {
	g := New(attach.New(), nil)
	p0 := NewPass(0, Render)
	p0.Consume(0, vk.AccessFlags(vk.AccessColorAttachmentWriteBit), 0, rngFull(), 0)
	p1 := NewPass(1, Render)
	p1.Consume(0, vk.AccessFlags(vk.AccessColorAttachmentReadBit), 0, rngFull(), 0)
	g.AddPass(p0)
	g.AddPass(p1)

	g.resolveBackReferences()
	g.chainPasses()
	g.markFirstUseInChain()

	require.Len(t, p0.consumes, 1)
	assert.Equal(t, -1, p0.consumes[0].PrevPass)
	assert.True(t, p0.consumes[0].Flags.Has(FirstUseInChain))

	require.Len(t, p1.consumes, 1)
	assert.Equal(t, 0, p1.consumes[0].PrevPass)
	assert.Equal(t, 0, p1.consumes[0].PrevConsume)
	assert.False(t, p1.consumes[0].Flags.Has(FirstUseInChain), "second subpass of the same chain reuses the chain's first use")
}

func TestMarkFirstUseInChainResetsAcrossSeparateChains(t *testing.T) {
	g := New(attach.New(), nil)
	p0 := NewPass(0, Render)
	p0.Consume(0, vk.AccessFlags(vk.AccessColorAttachmentWriteBit), 0, rngFull(), 0)
	p1 := NewPass(1, Render)
	p1.Consume(1, vk.AccessFlags(vk.AccessColorAttachmentWriteBit), 0, rngFull(), 0)
	p2 := NewPass(2, Render)
	p2.Consume(0, vk.AccessFlags(vk.AccessShaderReadBit), 0, rngFull(), 0)
	g.AddPass(p0)
	g.AddPass(p1)
	g.AddPass(p2)

	g.resolveBackReferences()
	g.chainPasses()
	g.markFirstUseInChain()

	require.True(t, p2.IsChainMaster(), "different attachment set must start a new chain")
	assert.Equal(t, 0, p2.consumes[0].PrevPass, "attachment 0 was last produced by p0")
	assert.True(t, p2.consumes[0].Flags.Has(FirstUseInChain), "p2 is a new chain even though p0 produced this attachment earlier")
}

func TestPassGetParentFollowsPrevBackReferences(t *testing.T) {
	g := New(attach.New(), nil)
	producer := NewPass(0, Render)
	producer.Consume(0, vk.AccessFlags(vk.AccessColorAttachmentWriteBit), 0, rngFull(), 0)
	consumer := NewPass(1, Render)
	consumer.Consume(0, vk.AccessFlags(vk.AccessShaderReadBit), 0, rngFull(), 0)
	g.AddPass(producer)
	g.AddPass(consumer)
	g.resolveBackReferences()

	assert.Equal(t, 1, consumer.GetNumParents(g.Passes()))
	assert.Same(t, producer, consumer.GetParent(g.Passes(), 0))
	assert.Nil(t, consumer.GetParent(g.Passes(), 1))
}
