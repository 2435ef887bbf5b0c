package vkconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultIsSafe(t *testing.T) {
	c := Default()
	assert.Equal(t, 2, c.FrameCount)
	assert.GreaterOrEqual(t, c.WaitCapacity, 1)
	assert.False(t, c.HasLinked())
}

func TestGetFallsBackToLinked(t *testing.T) {
	base := Default()
	base.Extra["present_mode"] = "fifo"
	linked := Default()
	linked.Extra["validation_verbose"] = "1"
	base.Linked = linked

	v, ok := base.Get("present_mode")
	assert.True(t, ok)
	assert.Equal(t, "fifo", v)

	v, ok = base.Get("validation_verbose")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = base.Get("missing")
	assert.False(t, ok)
}
