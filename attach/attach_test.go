package attach

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindow struct{}

func (fakeWindow) Surface() vk.Surface { return vk.NullSurface }
func (fakeWindow) Acquire(vk.Semaphore) (uint32, bool, error) { return 0, true, nil }
func (fakeWindow) Present(vk.Semaphore, uint32) error         { return nil }
func (fakeWindow) Images() []vk.Image                         { return nil }
func (fakeWindow) Format() vk.Format                           { return vk.FormatB8g8r8a8Unorm }
func (fakeWindow) Width() uint32                               { return 800 }
func (fakeWindow) Height() uint32                              { return 600 }

func TestAddWindowAndImage(t *testing.T) {
	r := New()
	wi, err := r.AddWindow(fakeWindow{})
	require.NoError(t, err)
	assert.Equal(t, 0, wi)

	ii, err := r.AddImage(ImageBacking{Format: vk.FormatR8g8b8a8Unorm})
	require.NoError(t, err)
	assert.Equal(t, 1, ii)

	assert.True(t, r.NonEmpty(wi))
	assert.True(t, r.NonEmpty(ii))
	assert.False(t, r.NonEmpty(99))
}

func TestRecordingGuardBlocksMutation(t *testing.T) {
	r := New()
	r.SetRecording(true)
	_, err := r.AddWindow(fakeWindow{})
	assert.Error(t, err)
	_, err = r.AddImage(ImageBacking{})
	assert.Error(t, err)
	_, err = r.AddEmpty()
	assert.Error(t, err)
}

func TestRecordingGuardAllowsWindowRecreateFlagOr(t *testing.T) {
	r := New()
	idx, err := r.AddWindow(fakeWindow{})
	require.NoError(t, err)
	r.SetRecording(true)
	assert.NoError(t, r.OrWindowRecreateFlags(idx, FlagResize))

	s, ok := r.Slot(idx)
	require.True(t, ok)
	got := s.Window.TakeRecreateFlags(1)
	assert.True(t, got.Has(FlagResize))
	assert.Equal(t, uint64(1), s.Window.ResizedAtGeneration())
}

func TestOrWindowRecreateFlagsRejectsImageSlot(t *testing.T) {
	r := New()
	idx, err := r.AddImage(ImageBacking{})
	require.NoError(t, err)
	assert.Error(t, r.OrWindowRecreateFlags(idx, FlagResize))
}

func TestEnumerateSnapshotsSlots(t *testing.T) {
	r := New()
	_, _ = r.AddEmpty()
	_, _ = r.AddImage(ImageBacking{})
	slots := r.Enumerate()
	require.Len(t, slots, 2)
	assert.Equal(t, Empty, slots[0].Kind)
	assert.Equal(t, Image, slots[1].Kind)
}

func TestReplaceImageForbiddenWhileRecording(t *testing.T) {
	r := New()
	idx, _ := r.AddImage(ImageBacking{})
	r.SetRecording(true)
	assert.Error(t, r.ReplaceImage(idx, ImageBacking{}))
	r.SetRecording(false)
	assert.NoError(t, r.ReplaceImage(idx, ImageBacking{Format: vk.FormatR8g8b8a8Unorm}))
}
