// Package vkerr implements the renderer's error taxonomy: fatal,
// transient recreate, skip, and warn. It generalizes dieselvk/asche's
// errors.go (isError/newError/orPanic/checkErr), which stringified
// every Vulkan failure into a bare fmt.Errorf and panicked on it; here
// each class is a distinct type so callers can discriminate with
// errors.As instead of matching on message text.
package vkerr

import (
	"errors"
	"fmt"
	"runtime"

	vk "github.com/vulkan-go/vulkan"
)

// FatalError means a Vulkan allocation or submission failed, or a
// fence reset failed. The frame must be finalized on the abort path
// and the renderer is only usable again after a sync-all-frames and
// teardown.
type FatalError struct {
	Result vk.Result
	Site   string
	Err    error
}

func (e *FatalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vkgraph: fatal: %s (result=%d) at %s", e.Err, e.Result, e.Site)
	}
	return fmt.Sprintf("vkgraph: fatal: vulkan result %d at %s", e.Result, e.Site)
}

func (e *FatalError) Unwrap() error { return e.Err }

// RecreateError is not a real error: the swapchain reported
// out-of-date or suboptimal and the caller should fold it into the
// recreate-flags protocol.
type RecreateError struct {
	Flags int
}

func (e *RecreateError) Error() string {
	return fmt.Sprintf("vkgraph: swapchain recreate requested (flags=%#x)", e.Flags)
}

// SkipError means a pass could not be built this frame (zero or
// mismatched framebuffer dimensions, missing framebuffer, unbuilt
// render pass). Logged at debug level; the pass is silently skipped
// and its injections are still finalized.
type SkipError struct {
	Pass   int
	Reason string
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("vkgraph: skipping pass %d: %s", e.Pass, e.Reason)
}

// WarnError is a validation-only mismatch that is ignored at runtime
// (e.g. an injection waits on a resource the operation doesn't
// reference, or a clear targets an aspect the format doesn't have).
type WarnError struct {
	Reason string
}

func (e *WarnError) Error() string { return "vkgraph: " + e.Reason }

// IsError reports whether ret is a Vulkan failure code.
func IsError(ret vk.Result) bool { return ret != vk.Success }

// Fatal wraps a failing vk.Result into a *FatalError tagged with the
// caller's source location, or returns nil if ret is vk.Success. The
// call-site capture mirrors errors.go's newError, which used
// runtime.Caller for the same purpose but never resolved it to a
// usable frame (newStackFrame was referenced but never defined in the
// teacher).
func Fatal(ret vk.Result) error {
	if ret == vk.Success {
		return nil
	}
	site := "unknown"
	if pc, file, line, ok := runtime.Caller(1); ok {
		name := "?"
		if fn := runtime.FuncForPC(pc); fn != nil {
			name = fn.Name()
		}
		site = fmt.Sprintf("%s (%s:%d)", name, file, line)
	}
	return &FatalError{Result: ret, Site: site}
}

// Wrap tags an arbitrary error as fatal, attaching the call site.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	site := "unknown"
	if pc, file, line, ok := runtime.Caller(1); ok {
		name := "?"
		if fn := runtime.FuncForPC(pc); fn != nil {
			name = fn.Name()
		}
		site = fmt.Sprintf("%s (%s:%d)", name, file, line)
	}
	return &FatalError{Site: site, Err: err}
}

// AsFatal reports whether err (or something it wraps) is a FatalError.
func AsFatal(err error) (*FatalError, bool) {
	var fe *FatalError
	ok := errors.As(err, &fe)
	return fe, ok
}
