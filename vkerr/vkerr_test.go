package vkerr

import (
	"errors"
	"testing"

	vk "github.com/vulkan-go/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFatalNilOnSuccess(t *testing.T) {
	assert.NoError(t, Fatal(vk.Success))
}

func TestFatalWrapsFailure(t *testing.T) {
	err := Fatal(vk.ErrorDeviceLost)
	require.Error(t, err)
	fe, ok := AsFatal(err)
	require.True(t, ok)
	assert.Equal(t, vk.ErrorDeviceLost, fe.Result)
	assert.Contains(t, fe.Site, "TestFatalWrapsFailure")
}

func TestWrapPreservesUnderlyingError(t *testing.T) {
	underlying := errors.New("boom")
	err := Wrap(underlying)
	require.Error(t, err)
	assert.ErrorIs(t, err, underlying)
}

func TestWrapNilIsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil))
}

func TestAsFatalFalseForOtherErrors(t *testing.T) {
	_, ok := AsFatal(errors.New("not fatal"))
	assert.False(t, ok)
}

func TestSkipAndWarnErrorMessages(t *testing.T) {
	skip := &SkipError{Pass: 3, Reason: "zero extent"}
	assert.Contains(t, skip.Error(), "pass 3")
	warn := &WarnError{Reason: "unreferenced wait"}
	assert.Contains(t, warn.Error(), "unreferenced wait")
}
