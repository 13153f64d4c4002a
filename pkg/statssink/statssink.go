// Package statssink keeps operational counters for a Detector separate
// from the Detector itself. The engine's DetectionConfig and registries
// are immutable for the life of a Detector; counters are the one thing
// that legitimately changes on every call, so they live in their own
// type behind atomics rather than inside the engine.
package statssink

import (
	"sync"
	"sync/atomic"

	"github.com/protosentry/detector/pkg/protocol"
)

// Sink accumulates detection counters. All methods are safe for
// concurrent use from multiple goroutines sharing one Detector.
type Sink struct {
	totalDetections uint64
	totalErrors     uint64
	totalElapsedNs  uint64

	mu        sync.RWMutex
	byProtocol map[protocol.Type]uint64
	byMethod   map[protocol.Method]uint64
}

// New returns an empty Sink.
func New() *Sink {
	return &Sink{
		byProtocol: make(map[protocol.Type]uint64),
		byMethod:   make(map[protocol.Method]uint64),
	}
}

// RecordResult records a successful detection.
func (s *Sink) RecordResult(r protocol.Result) {
	atomic.AddUint64(&s.totalDetections, 1)
	atomic.AddUint64(&s.totalElapsedNs, uint64(r.Elapsed))

	s.mu.Lock()
	s.byProtocol[r.Info.ProtocolType]++
	s.byMethod[r.Method]++
	s.mu.Unlock()
}

// RecordError records a failed detection call.
func (s *Sink) RecordError() {
	atomic.AddUint64(&s.totalErrors, 1)
}

// Snapshot is a point-in-time copy of the sink's counters.
type Snapshot struct {
	TotalDetections uint64
	TotalErrors     uint64
	TotalElapsedNs  uint64
	ByProtocol      map[protocol.Type]uint64
	ByMethod        map[protocol.Method]uint64
}

// Snapshot returns a copy of the current counters. The returned maps are
// independent of the sink's internal state.
func (s *Sink) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byProtocol := make(map[protocol.Type]uint64, len(s.byProtocol))
	for k, v := range s.byProtocol {
		byProtocol[k] = v
	}
	byMethod := make(map[protocol.Method]uint64, len(s.byMethod))
	for k, v := range s.byMethod {
		byMethod[k] = v
	}

	return Snapshot{
		TotalDetections: atomic.LoadUint64(&s.totalDetections),
		TotalErrors:     atomic.LoadUint64(&s.totalErrors),
		TotalElapsedNs:  atomic.LoadUint64(&s.totalElapsedNs),
		ByProtocol:      byProtocol,
		ByMethod:        byMethod,
	}
}
