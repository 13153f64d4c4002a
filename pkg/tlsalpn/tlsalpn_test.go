package tlsalpn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protosentry/detector/pkg/protocol"
)

// buildClientHello assembles a minimal, well-formed TLS 1.2 ClientHello
// record carrying the given ALPN protocol names, for use as test input.
func buildClientHello(alpnNames []string) []byte {
	var alpnList []byte
	for _, n := range alpnNames {
		alpnList = append(alpnList, byte(len(n)))
		alpnList = append(alpnList, n...)
	}
	alpnExtData := append([]byte{byte(len(alpnList) >> 8), byte(len(alpnList))}, alpnList...)

	var extensions []byte
	if len(alpnNames) > 0 {
		extensions = append(extensions, 0x00, 0x10) // ALPN extension type
		extensions = append(extensions, byte(len(alpnExtData)>>8), byte(len(alpnExtData)))
		extensions = append(extensions, alpnExtData...)
	}

	var body []byte
	body = append(body, 0x03, 0x03)                 // client_version
	body = append(body, make([]byte, 32)...)        // random
	body = append(body, 0x00)                       // session_id length 0
	body = append(body, 0x00, 0x02, 0x13, 0x01)      // cipher_suites: len=2, one suite
	body = append(body, 0x01, 0x00)                  // compression_methods: len=1, null
	body = append(body, byte(len(extensions)>>8), byte(len(extensions)))
	body = append(body, extensions...)

	handshake := append([]byte{handshakeTypeClientHi, 0x00, byte(len(body) >> 8), byte(len(body))}, body...)

	record := append([]byte{recordTypeHandshake, 0x03, 0x01, byte(len(handshake) >> 8), byte(len(handshake))}, handshake...)
	return record
}

func TestDetectH2(t *testing.T) {
	d := NewDetector()
	data := buildClientHello([]string{"h2", "http/1.1"})
	info, ok := d.Detect(data, nil, true)
	require.True(t, ok)
	assert.Equal(t, protocol.HTTP2, info.ProtocolType)
	assert.InDelta(t, 0.95, info.Confidence, 0.001)
	assert.True(t, info.HasFeature("alpn:h2"))
}

func TestDetectHTTP11Only(t *testing.T) {
	d := NewDetector()
	data := buildClientHello([]string{"http/1.1"})
	info, ok := d.Detect(data, nil, true)
	require.True(t, ok)
	assert.Equal(t, protocol.HTTP1_1, info.ProtocolType)
	assert.InDelta(t, 0.85, info.Confidence, 0.001)
}

func TestDetectH3(t *testing.T) {
	d := NewDetector()
	data := buildClientHello([]string{"h3"})
	info, ok := d.Detect(data, nil, true)
	require.True(t, ok)
	assert.Equal(t, protocol.HTTP3, info.ProtocolType)
	assert.InDelta(t, 0.95, info.Confidence, 0.001)
}

func TestDetectUnrecognizedALPNFallsBackToTLS(t *testing.T) {
	d := NewDetector()
	data := buildClientHello([]string{"spdy/3.1"})
	info, ok := d.Detect(data, nil, true)
	require.True(t, ok)
	assert.Equal(t, protocol.TLS, info.ProtocolType)
	assert.InDelta(t, 0.7, info.Confidence, 0.001)
}

func TestDetectFallsBackToTLSWhenPrimaryNotInEnabledSet(t *testing.T) {
	d := NewDetector()
	data := buildClientHello([]string{"h2", "http/1.1"})
	enabled := map[protocol.Type]bool{protocol.TLS: true}
	info, ok := d.Detect(data, enabled, false)
	require.True(t, ok)
	assert.Equal(t, protocol.TLS, info.ProtocolType)
	assert.InDelta(t, 0.7, info.Confidence, 0.001)
	assert.Equal(t, "h2,http/1.1", info.Metadata["alpn_protocols"])
}

func TestDetectNoALPNExtension(t *testing.T) {
	d := NewDetector()
	data := buildClientHello(nil)
	_, ok := d.Detect(data, nil, true)
	assert.False(t, ok)
}

func TestDetectNotTLS(t *testing.T) {
	d := NewDetector()
	_, ok := d.Detect([]byte("GET / HTTP/1.1\r\n"), nil, true)
	assert.False(t, ok)
}

func TestDetectTruncatedNeverPanics(t *testing.T) {
	d := NewDetector()
	full := buildClientHello([]string{"h2"})
	for i := 0; i <= len(full); i++ {
		assert.NotPanics(t, func() {
			d.Detect(full[:i], nil, true)
		})
	}
}
