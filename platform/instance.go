// Package platform is the ambient bootstrap layer: instance/device/
// queue negotiation and a glfw-backed Window, external collaborators
// kept out of scope for the core (attach/depsync/graph/frame/recorder).
//
// It is grounded on dieselvk/asche's Platform/Application split
// (application.go, platform.go): NewPlatform there did instance
// creation, debug-callback registration, gpu selection and device
// creation in one function driven by an Application interface; Instance
// here keeps that same shape but drops the decorator-interface
// indirection asche used (VulkanSwapchainDimensions,
// VulkanContextPrepare, ...) since this module's Config
// (vkconfig.Config) already carries the renderer's tunables.
package platform

import (
	"fmt"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/vkgraph/internal/vkutil"
	"github.com/andewx/vkgraph/vkerr"
	"github.com/andewx/vkgraph/vklog"
)

// Instance owns the Vulkan instance and the chosen physical device,
// grounded on dieselvk's platform struct (platform.go) minus the
// surface/device fields, which belong to Window and Device here.
type Instance struct {
	handle vk.Instance
	gpu    vk.PhysicalDevice

	gpuProperties    vk.PhysicalDeviceProperties
	memoryProperties vk.PhysicalDeviceMemoryProperties

	debugCallback vk.DebugReportCallback

	log *vklog.Logger
}

// Options configures instance creation. AppName mirrors asche's
// Application.VulkanAppName (platform.go); the engine name is fixed to
// "vkgraph" and is not configurable. WantedInstanceExtensions/Validation follow
// vkconfig.Config.Validation and this module's core-supplied extension
// list (surface + swapchain are required elsewhere by Window/Device).
type Options struct {
	AppName                  string
	RequiredInstanceExtensions []string
	WantedInstanceExtensions   []string
	Validation                 bool
	Debug                      bool
}

// NewInstance creates a Vulkan instance and selects the first
// available physical device (dieselvk's "multiple GPUs not supported
// yet" comment in platform.go — this module keeps that same
// single-GPU simplification; picking among several is left to a
// higher layer that can inspect Instance.GPUProperties()).
func NewInstance(opts Options, log *vklog.Logger) (*Instance, error) {
	actualExt, err := vkutil.InstanceExtensions()
	if err != nil {
		return nil, err
	}
	negExt := vkutil.NewNegotiator(opts.WantedInstanceExtensions, opts.RequiredInstanceExtensions, actualExt)
	if ok, missing := negExt.HasRequired(); !ok {
		return nil, vkerr.Wrap(fmt.Errorf("platform: missing required instance extensions: %v", missing))
	}
	enabledExt := negExt.Enable()

	var layers []string
	if opts.Validation {
		actualLayers, err := vkutil.ValidationLayers()
		if err != nil {
			return nil, err
		}
		negLayers := vkutil.NewNegotiator([]string{"VK_LAYER_KHRONOS_validation"}, nil, actualLayers)
		layers = negLayers.Enable()
		if len(layers) == 0 && log != nil {
			log.Warnf("platform: validation requested but VK_LAYER_KHRONOS_validation is not available")
		}
	}

	inst := &Instance{log: log}
	appName := opts.AppName
	if appName == "" {
		appName = "vkgraph"
	}
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         vk.MakeVersion(1, 0, 0),
			ApplicationVersion: vk.MakeVersion(1, 0, 0),
			PApplicationName:   safeString(appName),
			PEngineName:        safeString("vkgraph"),
		},
		EnabledExtensionCount:   uint32(len(enabledExt)),
		PpEnabledExtensionNames: enabledExt,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}, nil, &inst.handle)
	if err := vkerr.Fatal(ret); err != nil {
		return nil, err
	}
	vk.InitInstance(inst.handle)

	if opts.Debug {
		ret := vk.CreateDebugReportCallback(inst.handle, &vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit) | vk.DebugReportFlags(vk.DebugReportWarningBit),
			PfnCallback: debugCallback(log),
		}, nil, &inst.debugCallback)
		if err := vkerr.Fatal(ret); err != nil {
			return nil, err
		}
	}

	var gpuCount uint32
	if err := vkerr.Fatal(vk.EnumeratePhysicalDevices(inst.handle, &gpuCount, nil)); err != nil {
		return nil, err
	}
	if gpuCount == 0 {
		return nil, vkerr.Wrap(fmt.Errorf("platform: no Vulkan-capable GPU found"))
	}
	gpus := make([]vk.PhysicalDevice, gpuCount)
	if err := vkerr.Fatal(vk.EnumeratePhysicalDevices(inst.handle, &gpuCount, gpus)); err != nil {
		return nil, err
	}
	inst.gpu = gpus[0]
	vk.GetPhysicalDeviceProperties(inst.gpu, &inst.gpuProperties)
	inst.gpuProperties.Deref()
	vk.GetPhysicalDeviceMemoryProperties(inst.gpu, &inst.memoryProperties)
	inst.memoryProperties.Deref()

	return inst, nil
}

// Handle returns the raw vk.Instance.
func (i *Instance) Handle() vk.Instance { return i.handle }

// GPU returns the selected physical device.
func (i *Instance) GPU() vk.PhysicalDevice { return i.gpu }

// GPUProperties returns the selected device's properties.
func (i *Instance) GPUProperties() vk.PhysicalDeviceProperties { return i.gpuProperties }

// MemoryProperties returns the selected device's memory properties,
// for callers doing their own allocation (the external
// Allocator collaborator).
func (i *Instance) MemoryProperties() vk.PhysicalDeviceMemoryProperties { return i.memoryProperties }

// Destroy tears the instance (and debug callback, if any) down.
func (i *Instance) Destroy() {
	if i.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(i.handle, i.debugCallback, nil)
	}
	if i.handle != vk.NullInstance {
		vk.DestroyInstance(i.handle, nil)
	}
}

func safeString(s string) string {
	return s + "\x00"
}

func debugCallback(log *vklog.Logger) vk.DebugReportCallbackFunction {
	return func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64,
		location uint, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
		if log != nil {
			log.Warnf("vulkan debug: %s", pMessage)
		}
		return vk.Bool32(vk.False)
	}
}
