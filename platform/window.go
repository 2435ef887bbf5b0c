package platform

import (
	"fmt"
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/vkgraph/vkerr"
	"github.com/andewx/vkgraph/vklog"
)

// Window is a glfw-backed implementation of attach.WindowSurface and
// swapchain.Window/Purger, grounded on dieselvk/asche's CoreDisplay
// (display.go, surface + size) and CoreSwapchain (swapchain.go,
// format/extent negotiation and vk.CreateSwapchain). dieselvk split
// those two concerns across CoreDisplay/CoreSwapchain and rebuilt the
// swapchain manually from an outer render loop; Window folds both into
// one value that recreates its own swapchain when Acquire reports it
// is out of date, since the Acquire/Present collaborator contract here
// is defined per-window, not per-frame.
type Window struct {
	mu sync.Mutex

	glfw *glfw.Window

	inst   *Instance
	device *Device

	surface vk.Surface

	swapchain    vk.Swapchain
	images       []vk.Image
	imageViews   []vk.ImageView
	format       vk.SurfaceFormat
	extent       vk.Extent2D
	depth        int
	log          *vklog.Logger
}

// CreateGLFWWindow creates a bare, Vulkan-ready glfw window (no OpenGL
// context). Callers need one of these before instance creation, since
// the instance's required extension list comes from
// window.GetRequiredInstanceExtensions().
func CreateGLFWWindow(width, height int, title string) (*glfw.Window, error) {
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, vkerr.Wrap(fmt.Errorf("platform: glfw.CreateWindow: %w", err))
	}
	return win, nil
}

// NewWindow wraps an already-created glfw window with a Vulkan surface
// and an initial swapchain; depth is the requested swapchain image
// count, clamped to the surface's limits.
func NewWindow(inst *Instance, device *Device, win *glfw.Window, depth int, log *vklog.Logger) (*Window, error) {
	surfacePtr, err := win.CreateWindowSurface(inst.Handle(), nil)
	if err != nil {
		return nil, vkerr.Wrap(fmt.Errorf("platform: CreateWindowSurface: %w", err))
	}

	w := &Window{
		glfw:    win,
		inst:    inst,
		device:  device,
		surface: vk.SurfaceFromPointer(surfacePtr),
		depth:   depth,
		log:     log,
	}
	if err := w.recreateSwapchain(vk.NullSwapchain); err != nil {
		return nil, err
	}
	return w, nil
}

// recreateSwapchain selects a format, clamps the image count, and
// creates a new swapchain, chaining the outgoing one via OldSwapchain
// exactly as dieselvk/asche's NewCoreSwapchain does.
func (w *Window) recreateSwapchain(old vk.Swapchain) error {
	gpu := w.inst.GPU()

	var caps vk.SurfaceCapabilities
	if err := vkerr.Fatal(vk.GetPhysicalDeviceSurfaceCapabilities(gpu, w.surface, &caps)); err != nil {
		return err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()

	var formatCount uint32
	vk.GetPhysicalDeviceSurfaceFormats(gpu, w.surface, &formatCount, nil)
	formats := make([]vk.SurfaceFormat, formatCount)
	vk.GetPhysicalDeviceSurfaceFormats(gpu, w.surface, &formatCount, formats)
	if formatCount == 0 {
		return vkerr.Wrap(fmt.Errorf("platform: surface advertises no formats"))
	}
	formats[0].Deref()
	format := formats[0]
	if format.Format == vk.FormatUndefined {
		format.Format = vk.FormatB8g8r8a8Unorm
	}
	w.format = format

	extent := caps.CurrentExtent
	if extent.Width == vk.MaxUint32 {
		fbw, fbh := w.glfw.GetFramebufferSize()
		extent.Width, extent.Height = uint32(fbw), uint32(fbh)
	}
	w.extent = extent

	desired := uint32(w.depth)
	if caps.MaxImageCount > 0 && desired > caps.MaxImageCount {
		desired = caps.MaxImageCount
	}
	if desired < caps.MinImageCount {
		desired = caps.MinImageCount
	}

	preTransform := caps.CurrentTransform
	if vk.SurfaceTransformFlagBits(caps.SupportedTransforms)&vk.SurfaceTransformIdentityBit != 0 {
		preTransform = vk.SurfaceTransformIdentityBit
	}

	compositeAlpha := vk.CompositeAlphaOpaqueBit
	for _, candidate := range []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	} {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(candidate) != 0 {
			compositeAlpha = candidate
			break
		}
	}

	var swapchain vk.Swapchain
	ret := vk.CreateSwapchain(w.device.Handle(), &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          w.surface,
		MinImageCount:    desired,
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     preTransform,
		CompositeAlpha:   compositeAlpha,
		ImageSharingMode: vk.SharingModeExclusive,
		PresentMode:      vk.PresentModeFifo,
		OldSwapchain:     old,
		Clipped:          vk.True,
	}, nil, &swapchain)
	if err := vkerr.Fatal(ret); err != nil {
		return err
	}
	if old != vk.NullSwapchain {
		w.destroyImageViews()
		vk.DestroySwapchain(w.device.Handle(), old, nil)
	}
	w.swapchain = swapchain

	var imageCount uint32
	vk.GetSwapchainImages(w.device.Handle(), w.swapchain, &imageCount, nil)
	w.images = make([]vk.Image, imageCount)
	vk.GetSwapchainImages(w.device.Handle(), w.swapchain, &imageCount, w.images)

	w.imageViews = make([]vk.ImageView, imageCount)
	for i, img := range w.images {
		var view vk.ImageView
		ret := vk.CreateImageView(w.device.Handle(), &vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    img,
			ViewType: vk.ImageViewType2d,
			Format:   format.Format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleR,
				G: vk.ComponentSwizzleG,
				B: vk.ComponentSwizzleB,
				A: vk.ComponentSwizzleA,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}, nil, &view)
		if err := vkerr.Fatal(ret); err != nil {
			return err
		}
		w.imageViews[i] = view
	}
	return nil
}

func (w *Window) destroyImageViews() {
	for _, v := range w.imageViews {
		if v != vk.NullImageView {
			vk.DestroyImageView(w.device.Handle(), v, nil)
		}
	}
	w.imageViews = nil
}

// Surface returns the underlying vk.Surface.
func (w *Window) Surface() vk.Surface { return w.surface }

// Acquire implements attach.WindowSurface. A vk.ErrorOutOfDate result
// recreates the swapchain in place and reports ok=false so package
// swapchain's coordinator marks this frame's window as needing a
// recreate. A vk.Suboptimal result is treated like vk.Success: the
// image index is returned with ok=true and no recreate happens.
func (w *Window) Acquire(available vk.Semaphore) (uint32, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var imageIndex uint32
	ret := vk.AcquireNextImage(w.device.Handle(), w.swapchain, vk.MaxUint64, available, nil, &imageIndex)
	switch ret {
	case vk.Success, vk.Suboptimal:
		return imageIndex, true, nil
	case vk.ErrorOutOfDate:
		w.log.Debugf("platform: swapchain out of date, recreating")
		if err := w.recreateSwapchain(w.swapchain); err != nil {
			return 0, false, err
		}
		return 0, false, nil
	default:
		return 0, false, vkerr.Fatal(ret)
	}
}

// Present implements attach.WindowSurface.
func (w *Window) Present(rendered vk.Semaphore, imageIndex uint32) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	ret := vk.QueuePresent(w.device.GraphicsQueue(), &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{rendered},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{w.swapchain},
		PImageIndices:      []uint32{imageIndex},
	})
	switch ret {
	case vk.Success, vk.Suboptimal:
		return nil
	case vk.ErrorOutOfDate:
		return w.recreateSwapchain(w.swapchain)
	default:
		return vkerr.Fatal(ret)
	}
}

// Images returns the current swapchain image handles.
func (w *Window) Images() []vk.Image { return w.images }

// ImageViews implements attach.ViewProvider, returning the current
// per-swapchain-image color view set built in recreateSwapchain.
func (w *Window) ImageViews() []vk.ImageView { return w.imageViews }

// Format returns the current surface format.
func (w *Window) Format() vk.Format { return w.format.Format }

// Width returns the current swapchain extent width.
func (w *Window) Width() uint32 { return w.extent.Width }

// Height returns the current swapchain extent height.
func (w *Window) Height() uint32 { return w.extent.Height }

// Purge implements swapchain.Purger. This module keeps only the
// current swapchain's image views, so there is nothing generation-aged
// to drop; it exists so package swapchain's optional-capability check
// finds an implementation instead of silently skipping purge.
func (w *Window) Purge(generation uint64) {}

// ShouldClose reports whether the underlying glfw window has received
// a close request.
func (w *Window) ShouldClose() bool { return w.glfw.ShouldClose() }

// PollEvents pumps the glfw event queue. Callers run this once per
// iteration of their render loop, outside any Acquire/Present pair.
func PollEvents() { glfw.PollEvents() }

// Destroy tears down the swapchain, its image views, and the surface.
// The underlying glfw window is left to the caller (glfw.Terminate
// must run after every Window is destroyed).
func (w *Window) Destroy() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.destroyImageViews()
	if w.swapchain != vk.NullSwapchain {
		vk.DestroySwapchain(w.device.Handle(), w.swapchain, nil)
	}
	vk.DestroySurface(w.inst.Handle(), w.surface, nil)
}
