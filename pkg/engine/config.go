package engine

import (
	"time"

	"github.com/protosentry/detector/pkg/probe"
	"github.com/protosentry/detector/pkg/protocol"
)

// DetectionConfig controls a Detector's behavior for every call it
// serves. It is immutable once passed to New: nothing in the
// engine mutates it after construction, so a single Detector can be
// shared across goroutines without synchronization.
type DetectionConfig struct {
	// EnabledProtocols restricts which protocols the engine will report.
	// An empty slice means "every protocol the registries know about".
	EnabledProtocols []protocol.Type
	MinConfidence    float64
	MinDataSize      int
	MaxDataSize      int
	Probe            probe.Config
}

// DefaultDetectionConfig returns the engine's out-of-the-box settings.
func DefaultDetectionConfig() DetectionConfig {
	return DetectionConfig{
		MinConfidence: 0.8,
		MinDataSize:   4,
		MaxDataSize:   1 << 20, // 1 MiB
		Probe:         probe.DefaultConfig(),
	}
}

// Validate reports a ConfigError for any setting that would make the
// engine impossible to run correctly rather than merely less effective.
func (c DetectionConfig) Validate() error {
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return errConfigError("min_confidence must be within [0, 1]")
	}
	if c.MinDataSize <= 0 {
		return errConfigError("min_data_size must be positive")
	}
	if c.MaxDataSize < c.MinDataSize {
		return errConfigError("max_data_size must be >= min_data_size")
	}
	if c.Probe.MaxProbeTime <= 0 {
		return errConfigError("probe.max_probe_time must be positive")
	}
	if c.Probe.BufferSize <= 0 {
		return errConfigError("probe.buffer_size must be positive")
	}
	return nil
}

// enabledSet returns EnabledProtocols as a set, and whether the set
// should be treated as "everything enabled".
func (c DetectionConfig) enabledSet() (map[protocol.Type]bool, bool) {
	if len(c.EnabledProtocols) == 0 {
		return nil, true
	}
	set := make(map[protocol.Type]bool, len(c.EnabledProtocols))
	for _, t := range c.EnabledProtocols {
		set[t] = true
	}
	return set, false
}

func (c DetectionConfig) maxProbeTime() time.Duration {
	if c.Probe.MaxProbeTime <= 0 {
		return 100 * time.Millisecond
	}
	return c.Probe.MaxProbeTime
}
