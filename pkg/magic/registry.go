package magic

import (
	"sort"
	"strconv"

	"github.com/coregx/ahocorasick"

	"github.com/protosentry/detector/pkg/protocol"
)

// ALPNDetector is the narrow interface the registry needs from
// pkg/tlsalpn to hand a TLS ClientHello off for protocol negotiation
// once a TLS signature has fired. Declared here, not imported from
// tlsalpn, so the registry can be tested without a real TLS parser.
type ALPNDetector interface {
	Detect(data []byte, enabled map[protocol.Type]bool, allEnabled bool) (protocol.Info, bool)
}

// Registry holds the compiled signature set: a byte-indexed map for
// signatures anchored at offset 0, a small linear-scan list for
// signatures anchored further into the buffer (there are few enough of
// these that indexing them isn't worth the complexity), and one shared
// Aho-Corasick automaton for anywhere-in-buffer signatures.
type Registry struct {
	byFirstByte map[byte][]Signature
	offsetted   []Signature
	anywhere    []Signature
	automaton   *ahocorasick.Automaton
	all         []Signature
	alpn        ALPNDetector
}

// NewRegistry builds a registry from the built-in signature table plus
// any extra signatures supplied by the caller (e.g. from
// CustomSignatureBuilder or an operator-provided config file).
func NewRegistry(extra ...Signature) (*Registry, error) {
	sigs := append(builtinSignatures(), extra...)
	r := &Registry{
		byFirstByte: make(map[byte][]Signature),
		all:         sigs,
	}

	builder := ahocorasick.NewBuilder()
	hasAnywhere := false
	for _, s := range sigs {
		if s.Offset < 0 {
			r.anywhere = append(r.anywhere, s)
			builder.AddPattern(s.Pattern)
			hasAnywhere = true
			continue
		}
		if len(s.Pattern) == 0 {
			continue
		}
		if s.Offset > 0 {
			// data[0] tells us nothing about what appears at s.Offset, so
			// this signature can't be keyed by it - it needs linear scan.
			r.offsetted = append(r.offsetted, s)
			continue
		}
		key := s.Pattern[0]
		r.byFirstByte[key] = append(r.byFirstByte[key], s)
		if s.CaseInsensitive {
			// index under the other ASCII case too, so data[0] finds it
			alt := key
			switch {
			case 'a' <= key && key <= 'z':
				alt = key - ('a' - 'A')
			case 'A' <= key && key <= 'Z':
				alt = key + ('a' - 'A')
			}
			if alt != key {
				r.byFirstByte[alt] = append(r.byFirstByte[alt], s)
			}
		}
	}
	if hasAnywhere {
		auto, err := builder.Build()
		if err != nil {
			return nil, err
		}
		r.automaton = auto
	}
	return r, nil
}

// SetALPNDetector wires a TLS ALPN parser in. When unset, a TLS signature
// hit is returned as plain TLS with no ALPN-derived upgrade.
func (r *Registry) SetALPNDetector(d ALPNDetector) {
	r.alpn = d
}

// QuickDetect runs the byte-indexed lookup: check only the signatures
// whose first byte matches data[0], skipping any signature whose
// protocol the caller hasn't enabled, and falling back to the first-byte
// heuristic when nothing fixed-offset matches. This is the fast path the
// engine runs before any probe.
//
// enabled and allEnabled describe the caller's enabled-protocol filter:
// allEnabled true means every protocol is accepted and enabled is
// ignored; otherwise only protocols present (and true) in enabled match.
func (r *Registry) QuickDetect(data []byte, enabled map[protocol.Type]bool, allEnabled bool) (protocol.Info, bool) {
	if len(data) == 0 {
		return protocol.Info{}, false
	}

	for _, s := range r.byFirstByte[data[0]] {
		if !allEnabled && !enabled[s.Protocol] {
			continue
		}
		if !s.Matches(data) {
			continue
		}
		if s.Protocol == protocol.TLS && r.alpn != nil {
			if info, ok := r.alpn.Detect(data, enabled, allEnabled); ok {
				return info, true
			}
		}
		return protocol.New(s.Protocol, s.Confidence), true
	}

	for _, s := range r.offsetted {
		if !allEnabled && !enabled[s.Protocol] {
			continue
		}
		if s.Matches(data) {
			return protocol.New(s.Protocol, s.Confidence), true
		}
	}

	if r.automaton != nil {
		if m := r.automaton.Find(data, 0); m != nil {
			if s, ok := r.signatureForMatch(data, m.Start, m.End); ok && (allEnabled || enabled[s.Protocol]) {
				return protocol.New(s.Protocol, s.Confidence), true
			}
		}
	}

	if info, ok := heuristicByFirstByte(data); ok && (allEnabled || enabled[info.ProtocolType]) {
		return info, true
	}
	return protocol.Info{}, false
}

// signatureForMatch resolves which anywhere-signature produced an
// automaton hit by re-checking the matched span against each candidate;
// the automaton itself only reports offsets, not which pattern matched.
func (r *Registry) signatureForMatch(data []byte, start, end int) (Signature, bool) {
	span := data[start:end]
	for _, s := range r.anywhere {
		if len(s.Pattern) == end-start && string(s.Pattern) == string(span) {
			return s, true
		}
	}
	return Signature{}, false
}

// DeepDetect exhaustively evaluates every signature against data and
// returns every hit sorted by confidence descending. Unlike QuickDetect,
// every candidate records a "match_offset" metadata entry so a caller can
// see exactly where in the buffer each signature fired.
func (r *Registry) DeepDetect(data []byte) []protocol.Info {
	var results []protocol.Info
	for _, s := range r.all {
		offset := matchOffset(s, data)
		if offset < 0 {
			continue
		}
		info := protocol.New(s.Protocol, s.Confidence)
		info.AddMetadata("match_offset", strconv.Itoa(offset))
		info.AddMetadata("signature", s.Name)
		results = append(results, info)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	return results
}

func matchOffset(s Signature, data []byte) int {
	if s.Offset >= 0 {
		if s.Matches(data) {
			return s.Offset
		}
		return -1
	}
	if len(data) < len(s.Pattern) {
		return -1
	}
	for i := 0; i+len(s.Pattern) <= len(data); i++ {
		if Signature{Name: s.Name, Protocol: s.Protocol, Pattern: s.Pattern, Offset: i, CaseInsensitive: s.CaseInsensitive}.Matches(data) {
			return i
		}
	}
	return -1
}

// SupportedProtocols returns every distinct protocol this registry can
// signal, in the order signatures were registered.
func (r *Registry) SupportedProtocols() []protocol.Type {
	seen := make(map[protocol.Type]bool)
	var out []protocol.Type
	for _, s := range r.all {
		if !seen[s.Protocol] {
			seen[s.Protocol] = true
			out = append(out, s.Protocol)
		}
	}
	return out
}

// SignaturesFor returns every signature registered for a given protocol.
func (r *Registry) SignaturesFor(t protocol.Type) []Signature {
	var out []Signature
	for _, s := range r.all {
		if s.Protocol == t {
			out = append(out, s)
		}
	}
	return out
}
