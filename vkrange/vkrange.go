// Package vkrange holds the resource-reference and subresource-range
// types shared by the pass graph (package graph) and the dependency
// pool (package depsync), so neither has to import the other to agree
// on what a "consume" or a "signal" is guarding.
//
// The range-merging rules are grounded on dieselvk's CreateFrameImageView
// (swapchain.go), which built a single hardcoded
// vk.ImageSubresourceRange per image; Range generalizes that into a
// "remaining" (zero-means-to-the-end) convention.
package vkrange

import vk "github.com/vulkan-go/vulkan"

// Ref identifies the resource a consume, depend, or sync object
// guards: either an attachment-registry slot or a raw Vulkan image
// handle (for resources the attachment registry doesn't track, e.g.
// one supplied ad hoc by a recorder).
type Ref struct {
	AttachmentIndex int
	Image           vk.Image
	Format          vk.Format
}

// Remaining is the sentinel a zero mip/layer count is compared
// against: "remaining" meaning to the end of the resource.
const Remaining = 0

// Range is the view range of a consume or a sync object: an aspect
// set plus a mipmap and layer window. A zero Count means "remaining".
type Range struct {
	Aspect     vk.ImageAspectFlags
	BaseMip    uint32
	MipCount   uint32
	BaseLayer  uint32
	LayerCount uint32
}

// FormatAspect derives the aspect mask implied by a format: depth/
// stencil formats select the depth and/or stencil aspects, anything
// else selects color. This is the "format-aspect" input to the range
// merge rule for consecutive consumes.
func FormatAspect(format vk.Format) vk.ImageAspectFlags {
	switch format {
	case vk.FormatD16Unorm, vk.FormatD32Sfloat, vk.FormatX8D24UnormPack32:
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	case vk.FormatS8Uint:
		return vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	case vk.FormatD16UnormS8Uint, vk.FormatD24UnormS8Uint, vk.FormatD32SfloatS8Uint:
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit) | vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	default:
		return vk.ImageAspectFlags(vk.ImageAspectColorBit)
	}
}

// HasDepthStencil reports whether format carries a depth or stencil
// aspect.
func HasDepthStencil(format vk.Format) bool {
	a := FormatAspect(format)
	return a&vk.ImageAspectFlags(vk.ImageAspectDepthBit) != 0 ||
		a&vk.ImageAspectFlags(vk.ImageAspectStencilBit) != 0
}

// Writes reports whether mask sets any of the write-kind access bits
// (the "Access-writes predicate": write, attachment-write,
// storage-write, transfer-write).
func Writes(mask vk.AccessFlags) bool {
	const writeBits = vk.AccessFlags(vk.AccessShaderWriteBit) |
		vk.AccessFlags(vk.AccessColorAttachmentWriteBit) |
		vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit) |
		vk.AccessFlags(vk.AccessTransferWriteBit) |
		vk.AccessFlags(vk.AccessHostWriteBit) |
		vk.AccessFlags(vk.AccessMemoryWriteBit)
	return mask&writeBits != 0
}

func min(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

func max(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// Merge implements the range-merging rule for two consecutive
// consumes of the same slot:
//
//	aspectMask = intersect((prev.aspect | con.aspect), format-aspect)
//	baseMip    = min(prev, con)
//	baseLayer  = min(prev, con)
//	levelCount = REMAINING if either numMipmaps==0, else max-extent
//	layerCount analogous
func Merge(prev, cur Range, format vk.Format) Range {
	fa := FormatAspect(format)
	out := Range{
		Aspect:    (prev.Aspect | cur.Aspect) & fa,
		BaseMip:   min(prev.BaseMip, cur.BaseMip),
		BaseLayer: min(prev.BaseLayer, cur.BaseLayer),
	}
	if prev.MipCount == Remaining || cur.MipCount == Remaining {
		out.MipCount = Remaining
	} else {
		prevEnd := prev.BaseMip + prev.MipCount
		curEnd := cur.BaseMip + cur.MipCount
		out.MipCount = max(prevEnd, curEnd) - out.BaseMip
	}
	if prev.LayerCount == Remaining || cur.LayerCount == Remaining {
		out.LayerCount = Remaining
	} else {
		prevEnd := prev.BaseLayer + prev.LayerCount
		curEnd := cur.BaseLayer + cur.LayerCount
		out.LayerCount = max(prevEnd, curEnd) - out.BaseLayer
	}
	return out
}

// Overlaps reports whether two ranges on the same Ref could guard a
// common subresource — used by depsync.Pool.Catch to decide whether a
// pending sync object answers a wait.
func Overlaps(a, b Range) bool {
	bothBounded := a.MipCount != Remaining && b.MipCount != Remaining
	if bothBounded {
		aMipEnd := a.BaseMip + a.MipCount
		bMipEnd := b.BaseMip + b.MipCount
		if aMipEnd <= b.BaseMip || bMipEnd <= a.BaseMip {
			return false
		}
	}
	bothBoundedLayers := a.LayerCount != Remaining && b.LayerCount != Remaining
	if bothBoundedLayers {
		aLayerEnd := a.BaseLayer + a.LayerCount
		bLayerEnd := b.BaseLayer + b.LayerCount
		if aLayerEnd <= b.BaseLayer || bLayerEnd <= a.BaseLayer {
			return false
		}
	}
	if a.Aspect != 0 && b.Aspect != 0 && a.Aspect&b.Aspect == 0 {
		return false
	}
	return true
}

// ToVulkan converts Range into a vk.ImageSubresourceRange given the
// count to substitute for "remaining" (callers pass the resource's
// actual mip/array-layer count).
func (r Range) ToVulkan(remainingMips, remainingLayers uint32) vk.ImageSubresourceRange {
	mc := r.MipCount
	if mc == Remaining {
		mc = remainingMips - r.BaseMip
	}
	lc := r.LayerCount
	if lc == Remaining {
		lc = remainingLayers - r.BaseLayer
	}
	aspect := r.Aspect
	if aspect == 0 {
		aspect = vk.ImageAspectFlags(vk.ImageAspectColorBit)
	}
	return vk.ImageSubresourceRange{
		AspectMask:     aspect,
		BaseMipLevel:   r.BaseMip,
		LevelCount:     mc,
		BaseArrayLayer: r.BaseLayer,
		LayerCount:     lc,
	}
}
