package frame

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
	"github.com/stretchr/testify/assert"

	"github.com/andewx/vkgraph/graph"
	"github.com/andewx/vkgraph/vkrange"
)

func TestPlainDependBarrierWithoutTransitionIsExecutionOnly(t *testing.T) {
	d := graph.Depend{
		SrcAccess: vk.AccessFlags(vk.AccessShaderWriteBit),
		DstAccess: vk.AccessFlags(vk.AccessShaderReadBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit),
	}
	b := plainDependBarrier(d)
	assert.True(t, b.ExecutionOnly)
	assert.Equal(t, vk.ImageLayout(0), b.OldLayout)
}

func TestPlainDependBarrierWithTransitionCarriesRefAndLayouts(t *testing.T) {
	d := graph.Depend{
		Ref:           vkrange.Ref{AttachmentIndex: 2},
		InitialLayout: vk.ImageLayoutUndefined,
		FinalLayout:   vk.ImageLayoutGeneral,
		Flags:         graph.NeedsTransition,
	}
	b := plainDependBarrier(d)
	assert.False(t, b.ExecutionOnly)
	assert.Equal(t, 2, b.Ref.AttachmentIndex)
	assert.Equal(t, vk.ImageLayoutGeneral, b.NewLayout)
}
