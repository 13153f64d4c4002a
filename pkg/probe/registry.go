package probe

import (
	"sync"

	"github.com/protosentry/detector/pkg/protocol"
)

// Registry indexes registered probes by the protocol(s) they support,
// plus a separate list of global probes consulted regardless of which
// protocols are enabled.
type Registry struct {
	mu     sync.RWMutex
	probes map[protocol.Type][]ProtocolProbe
	global []ProtocolProbe
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{probes: make(map[protocol.Type][]ProtocolProbe)}
}

// RegisterProbe indexes p under every protocol it reports supporting.
func (r *Registry) RegisterProbe(p ProtocolProbe) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range p.SupportedProtocols() {
		r.probes[t] = append(r.probes[t], p)
	}
}

// RegisterGlobalProbe adds p to the set consulted for every detection
// call, independent of which protocols are enabled.
func (r *Registry) RegisterGlobalProbe(p ProtocolProbe) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.global = append(r.global, p)
}

// GetProbes returns every probe registered for t, plus the global probes.
func (r *Registry) GetProbes(t protocol.Type) []ProtocolProbe {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ProtocolProbe, 0, len(r.probes[t])+len(r.global))
	out = append(out, r.probes[t]...)
	out = append(out, r.global...)
	return out
}

// GetProbesForEnabledProtocol returns every probe registered for t, but
// only if t itself is in the enabled set - strict filtering that a
// caller running a restricted DetectionConfig.EnabledProtocols uses to
// avoid running probes for protocols it isn't interested in, even when
// those probes would also happen to recognize t as a side effect.
func (r *Registry) GetProbesForEnabledProtocol(t protocol.Type, enabled map[protocol.Type]bool) []ProtocolProbe {
	if !enabled[t] {
		return nil
	}
	return r.GetProbes(t)
}

// AllProbes returns every distinct probe registered, across every
// protocol bucket and the global set. Kept for callers that want a flat
// view (diagnostics, counting); prefer GetProbes/GetProbesForEnabledProtocol
// for actual detection, since this does not respect protocol filtering.
func (r *Registry) AllProbes() []ProtocolProbe {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[ProtocolProbe]bool)
	var out []ProtocolProbe
	for _, probes := range r.probes {
		for _, p := range probes {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	for _, p := range r.global {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
