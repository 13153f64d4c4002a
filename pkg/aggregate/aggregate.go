// Package aggregate combines the candidates a probe battery produced
// into a single verdict: drop anything Unknown, sort by confidence, gate
// on a minimum, and break ties deterministically.
package aggregate

import (
	"sort"
	"time"

	"github.com/protosentry/detector/pkg/probe"
	"github.com/protosentry/detector/pkg/protocol"
)

// Aggregator reduces a probe battery's candidate list to a verdict.
type Aggregator struct{}

// New returns an Aggregator. It holds no state; every call is
// independent of every other.
func New() *Aggregator {
	return &Aggregator{}
}

// Aggregate drops Unknown candidates (Custom is kept - a caller's custom
// probe reporting Custom is a real verdict, not a non-answer), sorts the
// rest by confidence descending, and returns the winner if it clears
// minConfidence. The sort is stable, so on equal confidence the
// first-seen candidate wins - i.e. the one from the probe that ran first.
func (a *Aggregator) Aggregate(candidates []protocol.Info, minConfidence float64) (protocol.Info, bool) {
	filtered := make([]protocol.Info, 0, len(candidates))
	for _, c := range candidates {
		if c.ProtocolType == protocol.Unknown {
			continue
		}
		filtered = append(filtered, c)
	}
	if len(filtered) == 0 {
		return protocol.Info{}, false
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Confidence > filtered[j].Confidence
	})

	best := filtered[0]
	if best.Confidence < minConfidence {
		return protocol.Info{}, false
	}
	return best, true
}

// MethodForStrategy maps a probe.Strategy to the protocol.Method
// DetectionResult reports, so a caller can tell from the result alone
// which strategy produced it without threading the Config through.
func MethodForStrategy(s probe.Strategy) protocol.Method {
	switch s {
	case probe.StrategyActive:
		return protocol.MethodActive
	case probe.StrategyHybrid:
		return protocol.MethodHybrid
	case probe.StrategyAdaptive:
		return protocol.MethodHeuristic
	default:
		return protocol.MethodPassive
	}
}

// CreateResult aggregates candidates and, on success, wraps the winner in
// a protocol.Result carrying elapsed time, the producing strategy's
// Method, and the detector's name.
func (a *Aggregator) CreateResult(
	candidates []protocol.Info,
	minConfidence float64,
	strategy probe.Strategy,
	detectorName string,
	elapsed time.Duration,
) (protocol.Result, bool) {
	best, ok := a.Aggregate(candidates, minConfidence)
	if !ok {
		return protocol.Result{}, false
	}
	return protocol.Result{
		Info:         best,
		Elapsed:      elapsed.Nanoseconds(),
		Method:       MethodForStrategy(strategy),
		DetectorName: detectorName,
	}, true
}
