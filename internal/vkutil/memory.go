package vkutil

import vk "github.com/vulkan-go/vulkan"

// FindMemoryType implements dieselvk's FindRequiredMemoryType
// (extensions.go): the first memory type index whose bit is set in
// typeBits and whose property flags satisfy want.
func FindMemoryType(props vk.PhysicalDeviceMemoryProperties, typeBits uint32, want vk.MemoryPropertyFlagBits) (uint32, bool) {
	for i := uint32(0); i < vk.MaxMemoryTypes; i++ {
		if typeBits&(1<<i) == 0 {
			continue
		}
		props.MemoryTypes[i].Deref()
		if props.MemoryTypes[i].PropertyFlags&vk.MemoryPropertyFlags(want) == vk.MemoryPropertyFlags(want) {
			return i, true
		}
	}
	return 0, false
}

// FindMemoryTypeFallback is FindMemoryType, but falls back to any
// type-bit match with no property requirement when want cannot be
// satisfied exactly — dieselvk's FindRequiredMemoryTypeFallback.
func FindMemoryTypeFallback(props vk.PhysicalDeviceMemoryProperties, typeBits uint32, want vk.MemoryPropertyFlagBits) (uint32, bool) {
	if idx, ok := FindMemoryType(props, typeBits, want); ok {
		return idx, true
	}
	if want != 0 {
		return FindMemoryType(props, typeBits, 0)
	}
	return 0, false
}
