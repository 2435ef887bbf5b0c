// Command triangle is the S1 end-to-end scenario: one window, one
// render pass, one window-backed color attachment, a clear, no depth.
// It is the live-window smoke test this module ships in place of a
// device-backed unit test, the same role dieselvk/asche's own
// test/render_test.go plays for its CoreRenderInstance.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
	lin "github.com/xlab/linmath"

	"github.com/andewx/vkgraph/attach"
	"github.com/andewx/vkgraph/depsync"
	"github.com/andewx/vkgraph/frame"
	"github.com/andewx/vkgraph/graph"
	"github.com/andewx/vkgraph/platform"
	"github.com/andewx/vkgraph/recorder"
	"github.com/andewx/vkgraph/swapchain"
	"github.com/andewx/vkgraph/vkconfig"
	"github.com/andewx/vkgraph/vklog"
	"github.com/andewx/vkgraph/vkrange"
)

func main() {
	validation := flag.Bool("validation", false, "enable VK_LAYER_KHRONOS_validation")
	flag.Parse()

	logger := vklog.New(nil)
	cfg := vkconfig.Default()

	if err := glfw.Init(); err != nil {
		log.Fatalf("triangle: glfw.Init: %v", err)
	}
	defer glfw.Terminate()

	glfwWin, err := platform.CreateGLFWWindow(1024, 768, "vkgraph triangle")
	if err != nil {
		log.Fatalf("triangle: %v", err)
	}

	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		log.Fatalf("triangle: vk.Init: %v", err)
	}

	inst, err := platform.NewInstance(platform.Options{
		AppName:                    cfg.Name,
		RequiredInstanceExtensions: glfwWin.GetRequiredInstanceExtensions(),
		Validation:                 *validation,
		Debug:                      *validation,
	}, logger)
	if err != nil {
		log.Fatalf("triangle: %v", err)
	}
	defer inst.Destroy()

	device, err := platform.NewDevice(inst, []string{"VK_KHR_swapchain"}, nil, nil)
	if err != nil {
		log.Fatalf("triangle: %v", err)
	}
	defer device.Destroy()

	win, err := platform.NewWindow(inst, device, glfwWin, cfg.FrameCount, logger)
	if err != nil {
		log.Fatalf("triangle: %v", err)
	}
	defer win.Destroy()

	attachments := attach.New()
	windowIdx, err := attachments.AddWindow(win)
	if err != nil {
		log.Fatalf("triangle: %v", err)
	}

	g := graph.New(attachments, logger)

	pass := graph.NewPass(0, graph.Render)
	pass.Consume(windowIdx,
		vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
		vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		vkrange.Range{Aspect: vk.ImageAspectFlags(vk.ImageAspectColorBit), MipCount: vkrange.Remaining, LayerCount: vkrange.Remaining},
		graph.Viewed,
	)
	pass.Clear(windowIdx, vk.NewClearValue([]float32{0.1, 0.2, 0.3, 1.0}))
	g.AddPass(pass)

	swap := swapchain.New(logger)

	families := device.Families()
	ring, err := frame.New(device.Handle(), families.Graphics, families.Compute, cfg.FrameCount, logger)
	if err != nil {
		log.Fatalf("triangle: %v", err)
	}
	defer ring.Destroy()

	dep := depsync.Create(device.Handle(), depsync.QueueFamilies{
		Graphics: families.Graphics,
		Compute:  families.Compute,
		Transfer: families.Transfer,
	}, cfg.WaitCapacity)
	defer dep.Destroy()

	recorders := recorder.NewSet(&clearOnlyRecorder{})

	queues := &frame.QueueSet{
		Graphics:       device.GraphicsQueue(),
		Compute:        device.ComputeQueue(),
		GraphicsFamily: families.Graphics,
		ComputeFamily:  families.Compute,
		TransferFamily: families.Transfer,
	}

	executor := frame.NewExecutor(device.Handle(), ring, attachments, swap, g, recorders, queues, dep, cfg.FrameCount, logger)

	// projection is unused by this scene (it has no geometry) but wired
	// up to exercise the reserved xlab/linmath dependency, mirroring
	// dieselvk/asche's math.go VulkanProjectionMat fixup.
	var proj, clip lin.Mat4x4
	proj.Fill(1.0)
	vulkanProjection(&clip, &proj)

	ctx := context.Background()
	for !win.ShouldClose() {
		platform.PollEvents()

		f := ring.Current()
		if err := executor.Acquire(ctx, f); err != nil {
			logger.Warnf("triangle: acquire: %v", err)
			time.Sleep(16 * time.Millisecond)
			continue
		}
		if err := executor.Submit(ctx, f); err != nil {
			logger.Warnf("triangle: submit: %v", err)
		}
		ring.Advance()
	}

	_ = ring.SyncAll(ctx, false)
}

// clearOnlyRecorder records nothing beyond what the render pass's own
// load/clear op already does; S1 has no geometry, only a clear.
type clearOnlyRecorder struct{}

func (r *clearOnlyRecorder) Reset()                              {}
func (r *clearOnlyRecorder) Record(order int, _ vk.CommandBuffer) {}

// vulkanProjection converts an OpenGL-style projection matrix to
// Vulkan's topLeft/[0,1]-depth clip space, identical to dieselvk/
// asche's math.go VulkanProjectionMat.
func vulkanProjection(m *lin.Mat4x4, proj *lin.Mat4x4) {
	m.Fill(1.0)
	m.ScaleAniso(m, 1.0, -1.0, 1.0)
	m.ScaleAniso(m, 1.0, 1.0, 0.5)
	m.Translate(0.0, 0.0, 1.0)
	m.Mult(m, proj)
}
