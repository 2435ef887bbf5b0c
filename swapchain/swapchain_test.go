package swapchain

import (
	"errors"
	"testing"

	vk "github.com/vulkan-go/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andewx/vkgraph/attach"
)

type fakeWindow struct {
	width, height uint32
	format        vk.Format
	ok            bool
	acquireErr    error
	presentErr    error
}

func (w *fakeWindow) Surface() vk.Surface { return vk.NullSurface }
func (w *fakeWindow) Acquire(vk.Semaphore) (uint32, bool, error) {
	return 0, w.ok, w.acquireErr
}
func (w *fakeWindow) Present(vk.Semaphore, uint32) error { return w.presentErr }
func (w *fakeWindow) Images() []vk.Image                 { return nil }
func (w *fakeWindow) Format() vk.Format                  { return w.format }
func (w *fakeWindow) Width() uint32                      { return w.width }
func (w *fakeWindow) Height() uint32                     { return w.height }

func TestAcquireFirstCallHasNoRecreateFlags(t *testing.T) {
	c := New(nil)
	w := &fakeWindow{width: 800, height: 600, format: vk.FormatB8g8r8a8Unorm, ok: true}

	idx, flags, err := c.Acquire(w, vk.NullSemaphore)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), idx)
	assert.False(t, flags.Has(attach.FlagRecreate))
}

func TestAcquireDimensionChangeSetsResizeAndRecreate(t *testing.T) {
	c := New(nil)
	w := &fakeWindow{width: 800, height: 600, format: vk.FormatB8g8r8a8Unorm, ok: true}
	_, _, _ = c.Acquire(w, vk.NullSemaphore)

	w.width = 1024
	_, flags, err := c.Acquire(w, vk.NullSemaphore)
	require.NoError(t, err)
	assert.True(t, flags.Has(attach.FlagResize))
	assert.True(t, flags.Has(attach.FlagRecreate))
	assert.False(t, flags.Has(attach.FlagReformat))
}

func TestAcquireFormatChangeSetsReformatAndRecreate(t *testing.T) {
	c := New(nil)
	w := &fakeWindow{width: 800, height: 600, format: vk.FormatB8g8r8a8Unorm, ok: true}
	_, _, _ = c.Acquire(w, vk.NullSemaphore)

	w.format = vk.FormatR8g8b8a8Unorm
	_, flags, err := c.Acquire(w, vk.NullSemaphore)
	require.NoError(t, err)
	assert.True(t, flags.Has(attach.FlagReformat))
	assert.True(t, flags.Has(attach.FlagRecreate))
	assert.False(t, flags.Has(attach.FlagResize))
}

func TestAcquireUnusableSurfaceReturnsNoImage(t *testing.T) {
	c := New(nil)
	w := &fakeWindow{width: 800, height: 600, ok: false}
	idx, flags, err := c.Acquire(w, vk.NullSemaphore)
	require.NoError(t, err)
	assert.Equal(t, NoImage, idx)
	assert.True(t, flags.Has(attach.FlagRecreate))
}

func TestAcquirePropagatesError(t *testing.T) {
	c := New(nil)
	boom := errors.New("boom")
	w := &fakeWindow{ok: false, acquireErr: boom}
	_, _, err := c.Acquire(w, vk.NullSemaphore)
	assert.ErrorIs(t, err, boom)
}

func TestPresentNeverPanicsOnPartialFailure(t *testing.T) {
	c := New(nil)
	good := &fakeWindow{ok: true}
	bad := &fakeWindow{ok: true, presentErr: errors.New("surface lost")}

	flags := c.Present(vk.NullSemaphore, []Window{good, bad}, []uint32{0, 1})
	require.Len(t, flags, 2)
	assert.False(t, flags[0].Has(attach.FlagRecreate))
	assert.True(t, flags[1].Has(attach.FlagRecreate))
}

func TestForgetDropsWindowState(t *testing.T) {
	c := New(nil)
	w := &fakeWindow{width: 800, height: 600, ok: true}
	_, _, _ = c.Acquire(w, vk.NullSemaphore)
	c.Forget(w)

	w.width = 1024
	_, flags, _ := c.Acquire(w, vk.NullSemaphore)
	assert.False(t, flags.Has(attach.FlagResize), "forgotten window must not compare against stale dimensions")
}
