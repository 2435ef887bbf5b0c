// Package vkutil holds the low-level Vulkan plumbing every other
// package in this module needs but none of them owns outright:
// instance/device extension and validation-layer negotiation, memory
// type lookup, and small command-pool/buffer helpers.
//
// It is grounded on dieselvk's extensions.go/extensions_2.go
// (InstanceExtensions/DeviceExtensions/ValidationLayers plus the
// Base{Instance,Device,Layer}Extensions wanted/required/actual sets)
// and on asche's util.go, which duplicated the same three enumeration
// functions; vkutil keeps one copy and generalizes the three ad hoc
// "Base*Extensions" types into a single Negotiator.
package vkutil

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/vkgraph/vkerr"
)

// InstanceExtensions lists every instance extension the platform's
// Vulkan loader advertises.
func InstanceExtensions() ([]string, error) {
	var count uint32
	if err := vkerr.Fatal(vk.EnumerateInstanceExtensionProperties("", &count, nil)); err != nil {
		return nil, err
	}
	list := make([]vk.ExtensionProperties, count)
	if err := vkerr.Fatal(vk.EnumerateInstanceExtensionProperties("", &count, list)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, ext := range list {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// DeviceExtensions lists every extension gpu advertises.
func DeviceExtensions(gpu vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if err := vkerr.Fatal(vk.EnumerateDeviceExtensionProperties(gpu, "", &count, nil)); err != nil {
		return nil, err
	}
	list := make([]vk.ExtensionProperties, count)
	if err := vkerr.Fatal(vk.EnumerateDeviceExtensionProperties(gpu, "", &count, list)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, ext := range list {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// ValidationLayers lists every instance layer the loader advertises.
func ValidationLayers() ([]string, error) {
	var count uint32
	if err := vkerr.Fatal(vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil, err
	}
	list := make([]vk.LayerProperties, count)
	if err := vkerr.Fatal(vk.EnumerateInstanceLayerProperties(&count, list)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, layer := range list {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, nil
}

// Negotiator reconciles a wanted/required extension or layer request
// against what a platform (or a specific gpu) actually advertises. It
// generalizes dieselvk's three near-identical Base{Instance,Device,
// Layer}Extensions types into one, parameterized by whichever `actual`
// slice the caller already fetched.
type Negotiator struct {
	wanted   []string
	required []string
	actual   []string
}

// NewNegotiator builds a Negotiator over an already-fetched `actual`
// list (the result of InstanceExtensions, DeviceExtensions or
// ValidationLayers).
func NewNegotiator(wanted, required, actual []string) *Negotiator {
	return &Negotiator{wanted: wanted, required: required, actual: actual}
}

func contains(haystack []string, needle string) bool {
	for _, a := range haystack {
		if a == needle {
			return true
		}
	}
	return false
}

// HasRequired reports whether every required name is present, and
// lists whichever ones are missing.
func (n *Negotiator) HasRequired() (bool, []string) {
	var missing []string
	for _, req := range n.required {
		if !contains(n.actual, req) {
			missing = append(missing, req)
		}
	}
	return len(missing) == 0, missing
}

// HasWanted reports whether every wanted (optional) name is present,
// and lists whichever ones are missing.
func (n *Negotiator) HasWanted() (bool, []string) {
	var missing []string
	for _, want := range n.wanted {
		if !contains(n.actual, want) {
			missing = append(missing, want)
		}
	}
	return len(missing) == 0, missing
}

// Enable returns the list to actually request: every required name,
// plus every wanted name the platform advertises, deduplicated.
func (n *Negotiator) Enable() []string {
	out := append([]string{}, n.required...)
	for _, want := range n.wanted {
		if contains(n.required, want) {
			continue
		}
		if contains(n.actual, want) {
			out = append(out, want)
		}
	}
	return out
}
