// Package vkconfig holds the renderer's tunables. It keeps the shape
// of dieselvk's Usage (usage.go): a typed core plus an open string bag
// for forward-compatible, platform-specific knobs in Extra, and a
// Linked field that chains configurations, the same role
// Usage.Linked_usage played for chaining property sets.
package vkconfig

// Config is the set of tunables left to the renderer's
// creator: how many virtual frames are in the ring, how many times a
// dependency-pool semaphore may be reused before it is retired, and
// whether the validation layer is requested.
type Config struct {
	// Name tags the configuration the way Usage.Name tagged a
	// property bag.
	Name string

	// FrameCount is N from the "Virtual frame": frames are
	// addressed by a stable index in [0, N) and rotated FIFO.
	FrameCount int

	// WaitCapacity seeds every dependency-pool signal's wait credit
	// ("Wait credit"). Must be >= 1.
	WaitCapacity int

	// Validation requests the VK_LAYER_KHRONOS_validation layer.
	Validation bool

	// Extra carries platform-specific overrides that don't warrant a
	// dedicated field, mirroring Usage.String_props.
	Extra map[string]string

	// Linked chains a secondary configuration, exactly as
	// Usage.Linked_usage did.
	Linked *Config
}

// Default returns a Config with the renderer's baseline tunables: a
// double-buffered ring of 2 frames and a wait capacity of 1
// (every signal must be caught exactly once before its semaphore is
// retired, the strictest and safest setting).
func Default() *Config {
	return &Config{
		Name:         "vkgraph",
		FrameCount:   2,
		WaitCapacity: 1,
		Extra:        make(map[string]string),
	}
}

// HasLinked reports whether a secondary configuration is chained.
func (c *Config) HasLinked() bool { return c.Linked != nil }

// Get looks up an Extra key, falling back to the linked configuration
// the way Usage chained lookups through Linked_usage.
func (c *Config) Get(key string) (string, bool) {
	if v, ok := c.Extra[key]; ok {
		return v, true
	}
	if c.HasLinked() {
		return c.Linked.Get(key)
	}
	return "", false
}
