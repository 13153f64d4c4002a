// Package magic implements a byte-indexed signature registry: the first
// detection pass the engine runs, matching known fixed-offset and
// anywhere-in-buffer byte patterns before any heuristic probe runs.
package magic

import (
	"bytes"

	"github.com/protosentry/detector/pkg/pattern"
	"github.com/protosentry/detector/pkg/protocol"
)

// Signature is a single fixed or anywhere-in-buffer byte pattern bound to
// a protocol and a confidence value.
type Signature struct {
	Name            string
	Protocol        protocol.Type
	Pattern         []byte
	Offset          int // -1 means "anywhere in the buffer"
	CaseInsensitive bool
	Confidence      float64
}

// WithCaseInsensitive returns a copy of the signature matched
// case-insensitively.
func (s Signature) WithCaseInsensitive() Signature {
	s.CaseInsensitive = true
	return s
}

// Matches reports whether data satisfies this signature.
func (s Signature) Matches(data []byte) bool {
	if s.Offset < 0 {
		if s.CaseInsensitive {
			return pattern.FindCaseInsensitive(data, s.Pattern) >= 0
		}
		return pattern.Contains(data, s.Pattern)
	}
	end := s.Offset + len(s.Pattern)
	if end > len(data) {
		return false
	}
	window := data[s.Offset:end]
	if s.CaseInsensitive {
		return bytes.EqualFold(window, s.Pattern)
	}
	return bytes.Equal(window, s.Pattern)
}
