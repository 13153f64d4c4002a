package magic

import "github.com/protosentry/detector/pkg/protocol"

// CustomSignatureBuilder builds a Signature fluently, for callers adding
// their own protocol fingerprints to a Registry.
type CustomSignatureBuilder struct {
	sig Signature
}

// NewCustomSignature starts building a signature for the given protocol.
func NewCustomSignature(name string, t protocol.Type) *CustomSignatureBuilder {
	return &CustomSignatureBuilder{sig: Signature{Name: name, Protocol: t, Offset: -1, Confidence: 0.7}}
}

// AtOffset sets a fixed offset (use -1, the default, for "anywhere").
func (b *CustomSignatureBuilder) AtOffset(offset int) *CustomSignatureBuilder {
	b.sig.Offset = offset
	return b
}

// Pattern sets the byte pattern to match.
func (b *CustomSignatureBuilder) Pattern(p []byte) *CustomSignatureBuilder {
	b.sig.Pattern = p
	return b
}

// CaseInsensitive marks the match as ASCII case-insensitive.
func (b *CustomSignatureBuilder) CaseInsensitive() *CustomSignatureBuilder {
	b.sig.CaseInsensitive = true
	return b
}

// Confidence sets the confidence this signature reports on a match.
func (b *CustomSignatureBuilder) Confidence(c float64) *CustomSignatureBuilder {
	b.sig.Confidence = c
	return b
}

// Build returns the finished Signature.
func (b *CustomSignatureBuilder) Build() Signature {
	if b.sig.Offset == 0 && b.sig.Pattern == nil {
		b.sig.Offset = -1
	}
	return b.sig
}
