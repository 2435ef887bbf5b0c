package frame

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmittedBitmask(t *testing.T) {
	s := SubmittedNone
	assert.False(t, s.Has(SubmittedGraphics))
	s |= SubmittedGraphics
	assert.True(t, s.Has(SubmittedGraphics))
	assert.False(t, s.Has(SubmittedCompute))
	s |= SubmittedCompute
	assert.True(t, s.Has(SubmittedGraphics))
	assert.True(t, s.Has(SubmittedCompute))
}

func TestFrameResizeGrowsWithInvalidEntries(t *testing.T) {
	f := &Frame{}
	f.resize(3)
	ws := f.Windows()
	require.Len(t, ws, 3)
	for _, w := range ws {
		assert.Equal(t, -1, w.AttachmentIndex)
		assert.False(t, w.Valid)
	}
}

func TestFrameResizeShrinksWithoutTouchingSurvivors(t *testing.T) {
	f := &Frame{}
	f.resize(2)
	f.setAcquired(0, 5, true)
	f.resize(1)
	ws := f.Windows()
	require.Len(t, ws, 1)
	assert.Equal(t, uint32(5), ws[0].ImageIndex)
	assert.True(t, ws[0].Valid)
}

func TestFrameResizeIsNoopWhenUnchanged(t *testing.T) {
	f := &Frame{}
	f.resize(2)
	f.setAcquired(1, 9, true)
	f.resize(2)
	ws := f.Windows()
	require.Len(t, ws, 2)
	assert.Equal(t, uint32(9), ws[1].ImageIndex)
}

func TestSyncNoopWhenNothingSubmitted(t *testing.T) {
	f := &Frame{submitted: SubmittedNone}
	err := Sync(vk.Device(0), f, true)
	assert.NoError(t, err)
	assert.Equal(t, SubmittedNone, f.submitted)
}
