package probe

import (
	"time"

	"github.com/protosentry/detector/pkg/protocol"
)

// Context is per-call scratch state threaded through every probe a single
// Detect invocation runs. It is never shared across calls and carries no
// synchronization - the engine that owns it is responsible for not
// handing it to more than one goroutine at a time.
type Context struct {
	StartTime         time.Time
	BytesRead         int
	AttemptCount      int
	CurrentConfidence float64
	Candidates        []protocol.Info
}

// NewContext starts a fresh probing context for data of the given length.
func NewContext(dataLen int) *Context {
	return &Context{
		StartTime: time.Now(),
		BytesRead: dataLen,
	}
}

// AddCandidate records a probe's output and tracks the running best
// confidence seen so far.
func (c *Context) AddCandidate(info protocol.Info) {
	c.AttemptCount++
	c.Candidates = append(c.Candidates, info)
	if info.Confidence > c.CurrentConfidence {
		c.CurrentConfidence = info.Confidence
	}
}

// BestCandidate returns the highest-confidence candidate recorded so far.
func (c *Context) BestCandidate() (protocol.Info, bool) {
	if len(c.Candidates) == 0 {
		return protocol.Info{}, false
	}
	best := c.Candidates[0]
	for _, cand := range c.Candidates[1:] {
		if cand.Confidence > best.Confidence {
			best = cand
		}
	}
	return best, true
}

// IsTimeout reports whether maxProbeTime has elapsed since StartTime.
func (c *Context) IsTimeout(maxProbeTime time.Duration) bool {
	return time.Since(c.StartTime) >= maxProbeTime
}
