// Package probe implements the engine's probe battery: the ProtocolProbe
// extension point, the built-in heuristic and statistical probes, a
// worked custom-probe example (STUN), and the registry that indexes
// probes by the protocol(s) they recognize.
package probe

import (
	"time"

	"github.com/protosentry/detector/pkg/protocol"
)

// Strategy selects how aggressively the engine probes a connection.
type Strategy int

const (
	StrategyPassive Strategy = iota
	StrategyActive
	StrategyHybrid
	StrategyAdaptive
)

func (s Strategy) String() string {
	switch s {
	case StrategyActive:
		return "active"
	case StrategyHybrid:
		return "hybrid"
	case StrategyAdaptive:
		return "adaptive"
	default:
		return "passive"
	}
}

// Config controls how the probe battery runs for a single Detect call.
type Config struct {
	Strategy        Strategy
	MaxProbeTime    time.Duration
	MinConfidence   float64
	EnableSIMD      bool
	EnableHeuristic bool
	BufferSize      int
}

// DefaultConfig returns the engine's default probe configuration.
func DefaultConfig() Config {
	return Config{
		Strategy:        StrategyPassive,
		MaxProbeTime:    100 * time.Millisecond,
		MinConfidence:   0.8,
		EnableSIMD:      true,
		EnableHeuristic: true,
		BufferSize:      4096,
	}
}

// ProtocolProbe is the extension point third-party recognizers implement
// to add protocol support without modifying the engine itself.
type ProtocolProbe interface {
	// Name identifies the probe in logs and DetectionResult.DetectorName.
	Name() string
	// SupportedProtocols lists every protocol this probe can report.
	SupportedProtocols() []protocol.Type
	// Probe inspects data and, if it recognizes a protocol, returns a
	// populated Info and true. It must never block or allocate
	// unboundedly relative to len(data).
	Probe(data []byte, ctx *Context) (protocol.Info, bool, error)
	// Priority reports the probe's relative priority. Registry records
	// probes in registration order and does not sort them by Priority.
	Priority() uint8
	// NeedsMoreData reports whether data is too short for this probe to
	// reach a verdict, so the engine can decide whether to wait for more.
	NeedsMoreData(data []byte) bool
}

// BasePriority is the default Priority a probe should report absent any
// other signal, matching the reference implementation's default.
const BasePriority uint8 = 50

// DefaultMinProbeDataSize is the reference implementation's default
// PassiveProbe::min_data_size: short of this many bytes, a probe
// declines to run rather than guess from a handful of bytes.
const DefaultMinProbeDataSize = 16

// DefaultNeedsMoreData is the shared "need at least DefaultMinProbeDataSize
// bytes" rule most probes use for NeedsMoreData.
func DefaultNeedsMoreData(data []byte) bool {
	return len(data) < DefaultMinProbeDataSize
}
