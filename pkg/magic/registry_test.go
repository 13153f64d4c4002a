package magic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protosentry/detector/pkg/protocol"
)

func TestQuickDetectHTTP(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	info, ok := r.QuickDetect([]byte("GET /index.html HTTP/1.1\r\nHost: example.com\r\n\r\n"), nil, true)
	require.True(t, ok)
	assert.Equal(t, protocol.HTTP1_1, info.ProtocolType)
	assert.GreaterOrEqual(t, info.Confidence, 0.8)
}

func TestQuickDetectTLSWithoutALPN(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	info, ok := r.QuickDetect([]byte{0x16, 0x03, 0x01, 0x00, 0x05}, nil, true)
	require.True(t, ok)
	assert.Equal(t, protocol.TLS, info.ProtocolType)
}

func TestQuickDetectSSH(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	info, ok := r.QuickDetect([]byte("SSH-2.0-OpenSSH_9.0\r\n"), nil, true)
	require.True(t, ok)
	assert.Equal(t, protocol.SSH, info.ProtocolType)
	assert.InDelta(t, 0.99, info.Confidence, 0.001)
}

func TestQuickDetectGRPCAnywhere(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	data := []byte{0x00, 0x00, 0x00, 0x00, 0x10}
	data = append(data, []byte("content-type: application/grpc+proto\r\n")...)
	info, ok := r.QuickDetect(data, nil, true)
	require.True(t, ok)
	assert.Equal(t, protocol.GRPC, info.ProtocolType)
}

func TestQuickDetectHeuristicFallback(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	// 0xC0 has the high bit set and doesn't match any fixed signature.
	info, ok := r.QuickDetect([]byte{0xC0, 0x01, 0x02, 0x03}, nil, true)
	require.True(t, ok)
	assert.Equal(t, protocol.QUIC, info.ProtocolType)
	assert.Less(t, info.Confidence, 0.5)
}

func TestQuickDetectNoMatch(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	_, ok := r.QuickDetect([]byte{0x01, 0x02, 0x03}, nil, true)
	assert.False(t, ok)
}

func TestQuickDetectDNSSignatureAtItsOwnOffset(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	// transaction ID is arbitrary; the signature lives at offset 2.
	data := []byte{0x12, 0x34, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00}
	info, ok := r.QuickDetect(data, nil, true)
	require.True(t, ok)
	assert.Equal(t, protocol.DNS, info.ProtocolType)
	assert.InDelta(t, 0.80, info.Confidence, 0.001)
}

func TestQuickDetectMySQLSignatureAtItsOwnOffset(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	data := []byte{0x4a, 0x00, 0x00, 0x00, 0x0A, 0x35, 0x2e, 0x37}
	info, ok := r.QuickDetect(data, nil, true)
	require.True(t, ok)
	assert.Equal(t, protocol.MySQL, info.ProtocolType)
	assert.InDelta(t, 0.80, info.Confidence, 0.001)
}

func TestQuickDetectRespectsEnabledFilter(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	enabled := map[protocol.Type]bool{protocol.TLS: true}
	_, ok := r.QuickDetect([]byte("SSH-2.0-OpenSSH_9.0\r\n"), enabled, false)
	assert.False(t, ok, "SSH is disabled, QuickDetect must not return it")
}

func TestDeepDetectAttachesMatchOffset(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	data := []byte("POST /rpc HTTP/1.1\r\ncontent-type: application/grpc\r\n\r\n")
	results := r.DeepDetect(data)
	require.NotEmpty(t, results)
	for _, res := range results {
		_, hasOffset := res.Metadata["match_offset"]
		assert.True(t, hasOffset)
	}
	// confidence descending
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Confidence, results[i].Confidence)
	}
}

type fakeALPN struct {
	info protocol.Info
	ok   bool
}

func (f fakeALPN) Detect(data []byte, enabled map[protocol.Type]bool, allEnabled bool) (protocol.Info, bool) {
	return f.info, f.ok
}

func TestQuickDetectDelegatesTLSToALPN(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	r.SetALPNDetector(fakeALPN{info: protocol.New(protocol.HTTP2, 0.95), ok: true})

	info, ok := r.QuickDetect([]byte{0x16, 0x03, 0x01, 0x00, 0x05}, nil, true)
	require.True(t, ok)
	assert.Equal(t, protocol.HTTP2, info.ProtocolType)
}

func TestCustomSignatureBuilder(t *testing.T) {
	sig := NewCustomSignature("my-proto", protocol.Custom).
		Pattern([]byte("MYPROTO/1")).
		AtOffset(0).
		Confidence(0.95).
		Build()

	r, err := NewRegistry(sig)
	require.NoError(t, err)

	info, ok := r.QuickDetect([]byte("MYPROTO/1 HELLO"), nil, true)
	require.True(t, ok)
	assert.Equal(t, protocol.Custom, info.ProtocolType)
}
