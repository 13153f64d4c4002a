// Package tlsalpn parses just enough of a TLS ClientHello to recover the
// ALPN extension, so the engine can tell HTTP/1.1, HTTP/2, and HTTP/3
// apart on a TLS-wrapped connection without terminating TLS. It never
// returns an error: malformed or truncated input simply yields "no
// match", since a partial read is an expected, not exceptional, case for
// a detector running on a live stream prefix.
package tlsalpn

import (
	"encoding/binary"

	"golang.org/x/crypto/cryptobyte"

	"github.com/protosentry/detector/pkg/protocol"
)

const (
	recordTypeHandshake   byte = 0x16
	handshakeTypeClientHi byte = 0x01
	extensionTypeALPN     uint16 = 0x0010

	minDataSize = 64
)

// Detector recovers ALPN protocol names from a TLS ClientHello record.
type Detector struct {
	minDataSize int
	enabled     map[string]protocol.Type
}

// NewDetector builds a detector recognizing the engine's fixed set of ALPN
// protocol IDs: h2 and its draft identifiers, http/1.1, http/1.0, h3 and
// its draft identifiers.
func NewDetector() *Detector {
	return &Detector{
		minDataSize: minDataSize,
		enabled: map[string]protocol.Type{
			"h2":       protocol.HTTP2,
			"h2-16":    protocol.HTTP2,
			"h2-14":    protocol.HTTP2,
			"http/1.1": protocol.HTTP1_1,
			"http/1.0": protocol.HTTP1_0,
			"h3":       protocol.HTTP3,
			"h3-29":    protocol.HTTP3,
			"h3-28":    protocol.HTTP3,
		},
	}
}

// Detect parses data as a TLS record and, if it is a ClientHello carrying
// an ALPN extension, returns the resulting protocol.Info. It reports
// false for anything that is not a well-formed-enough ClientHello -
// including a record type that isn't Handshake, which lets callers use
// this as a plain "is this TLS with ALPN" probe too.
//
// enabled and allEnabled describe the caller's enabled-protocol filter:
// when the ALPN list resolves to a primary protocol that isn't in that
// set, Detect falls back to plain TLS rather than reporting a protocol
// the caller never asked for.
func (d *Detector) Detect(data []byte, enabled map[protocol.Type]bool, allEnabled bool) (protocol.Info, bool) {
	if len(data) < 5 || data[0] != recordTypeHandshake {
		return protocol.Info{}, false
	}

	recordLen := int(binary.BigEndian.Uint16(data[3:5]))
	body := data[5:]
	if recordLen < len(body) {
		body = body[:recordLen]
	}
	if len(body) < 4 || body[0] != handshakeTypeClientHi {
		return protocol.Info{}, false
	}

	names, ok := d.parseClientHelloALPN(body[4:])
	if !ok {
		return protocol.Info{}, false
	}
	return d.createProtocolInfo(names, enabled, allEnabled), true
}

// parseClientHelloALPN walks a ClientHello body (post handshake header)
// to the extensions list and extracts the ALPN protocol name list.
func (d *Detector) parseClientHelloALPN(body []byte) ([]string, bool) {
	s := cryptobyte.String(body)

	// client_version (2) + random (32)
	if !s.Skip(2) || !s.Skip(32) {
		return nil, false
	}

	var sessionID cryptobyte.String
	if !s.ReadUint8LengthPrefixed(&sessionID) {
		return nil, false
	}

	var cipherSuites cryptobyte.String
	if !s.ReadUint16LengthPrefixed(&cipherSuites) {
		return nil, false
	}

	var compressionMethods cryptobyte.String
	if !s.ReadUint8LengthPrefixed(&compressionMethods) {
		return nil, false
	}

	if s.Empty() {
		return nil, false
	}

	var extensions cryptobyte.String
	if !s.ReadUint16LengthPrefixed(&extensions) {
		return nil, false
	}

	return parseExtensionsForALPN(extensions)
}

func parseExtensionsForALPN(extensions cryptobyte.String) ([]string, bool) {
	for !extensions.Empty() {
		var extType uint16
		var extData cryptobyte.String
		if !extensions.ReadUint16(&extType) || !extensions.ReadUint16LengthPrefixed(&extData) {
			return nil, false
		}
		if extType == extensionTypeALPN {
			return parseALPNProtocolList(extData)
		}
	}
	return nil, false
}

func parseALPNProtocolList(extData cryptobyte.String) ([]string, bool) {
	var list cryptobyte.String
	if !extData.ReadUint16LengthPrefixed(&list) {
		return nil, false
	}
	var names []string
	for !list.Empty() {
		var name cryptobyte.String
		if !list.ReadUint8LengthPrefixed(&name) {
			return nil, false
		}
		names = append(names, string(name))
	}
	if len(names) == 0 {
		return nil, false
	}
	return names, true
}

// determinePrimary returns the first ALPN name this detector recognizes,
// in the order the client offered them - the client's own preference
// order, which is what a real ALPN negotiation would honor too.
func (d *Detector) determinePrimary(names []string) (protocol.Type, string, bool) {
	for _, n := range names {
		if t, ok := d.enabled[n]; ok {
			return t, n, true
		}
	}
	return protocol.Unknown, "", false
}

func (d *Detector) calculateConfidence(names []string) float64 {
	confidence := 0.85
	for _, n := range names {
		if hasPrefix(n, "h2") {
			confidence += 0.10
			break
		}
	}
	for _, n := range names {
		if hasPrefix(n, "h3") {
			confidence += 0.10
			break
		}
	}
	if confidence > 0.95 {
		confidence = 0.95
	}
	return confidence
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// createProtocolInfo builds the Info to return for a parsed ALPN list.
// Per the registry's quick-detect contract: a primary protocol is only
// reported when it is itself in the caller's enabled set; otherwise this
// falls back to a plain TLS info carrying the ALPN names as evidence.
func (d *Detector) createProtocolInfo(names []string, enabled map[protocol.Type]bool, allEnabled bool) protocol.Info {
	primary, name, ok := d.determinePrimary(names)
	if ok && (allEnabled || enabled[primary]) {
		info := protocol.New(primary, d.calculateConfidence(names))
		info.AddFeature("alpn:" + name)
		info.AddMetadata("alpn_protocols", joinALPN(names))
		return info
	}

	info := protocol.New(protocol.TLS, 0.7)
	for _, n := range names {
		info.AddFeature("alpn:" + n)
	}
	info.AddMetadata("alpn_protocols", joinALPN(names))
	return info
}

func joinALPN(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ","
		}
		out += n
	}
	return out
}
