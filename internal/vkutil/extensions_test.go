package vkutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNegotiatorHasRequired(t *testing.T) {
	n := NewNegotiator(nil, []string{"VK_KHR_surface", "VK_KHR_swapchain"}, []string{"VK_KHR_surface"})
	ok, missing := n.HasRequired()
	assert.False(t, ok)
	assert.Equal(t, []string{"VK_KHR_swapchain"}, missing)
}

func TestNegotiatorHasRequiredSatisfied(t *testing.T) {
	n := NewNegotiator(nil, []string{"VK_KHR_surface"}, []string{"VK_KHR_surface", "VK_KHR_swapchain"})
	ok, missing := n.HasRequired()
	assert.True(t, ok)
	assert.Empty(t, missing)
}

func TestNegotiatorHasWanted(t *testing.T) {
	n := NewNegotiator([]string{"VK_EXT_debug_utils"}, nil, []string{"VK_KHR_surface"})
	ok, missing := n.HasWanted()
	assert.False(t, ok)
	assert.Equal(t, []string{"VK_EXT_debug_utils"}, missing)
}

func TestNegotiatorEnableDedupsAndFiltersWantedByActual(t *testing.T) {
	n := NewNegotiator(
		[]string{"VK_EXT_debug_utils", "VK_KHR_surface"},
		[]string{"VK_KHR_surface"},
		[]string{"VK_KHR_surface"},
	)
	enabled := n.Enable()
	assert.Equal(t, []string{"VK_KHR_surface"}, enabled)
}

func TestNegotiatorEnableIncludesAdvertisedWanted(t *testing.T) {
	n := NewNegotiator(
		[]string{"VK_EXT_debug_utils"},
		[]string{"VK_KHR_surface"},
		[]string{"VK_KHR_surface", "VK_EXT_debug_utils"},
	)
	enabled := n.Enable()
	assert.ElementsMatch(t, []string{"VK_KHR_surface", "VK_EXT_debug_utils"}, enabled)
}
