package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoClampsConfidence(t *testing.T) {
	over := New(HTTP2, 1.5)
	under := New(HTTP2, -0.5)
	assert.Equal(t, 1.0, over.Confidence)
	assert.Equal(t, 0.0, under.Confidence)
}

func TestInfoIsConfident(t *testing.T) {
	info := New(TLS, 0.82)
	assert.True(t, info.IsConfident(0.8))
	assert.False(t, info.IsConfident(0.9))
}

func TestInfoFeaturesAndMetadata(t *testing.T) {
	info := New(HTTP2, 0.9)
	info.AddFeature("h2")
	info.AddMetadata("alpn", "h2")
	require.True(t, info.HasFeature("h2"))
	assert.False(t, info.HasFeature("h3"))
	assert.Equal(t, "h2", info.Metadata["alpn"])
}

func TestTypeFamily(t *testing.T) {
	cases := map[Type]Family{
		HTTP1_1:   FamilyHTTP,
		GRPC:      FamilyRPC,
		WebSocket: FamilyWebSocket,
		QUIC:      FamilyQUIC,
		MQTT:      FamilyIoT,
		TCP:       FamilyTransport,
		TLS:       FamilySecurity,
		SSH:       FamilyRemote,
		Redis:     FamilyDatabase,
		Unknown:   FamilyUnknown,
	}
	for typ, want := range cases {
		assert.Equal(t, want, typ.Family(), "protocol %s", typ)
	}
}

func TestDefaultPort(t *testing.T) {
	port, ok := HTTP1_1.DefaultPort()
	assert.True(t, ok)
	assert.Equal(t, uint16(80), port)

	_, ok = Unknown.DefaultPort()
	assert.False(t, ok)
}

func TestResultPredicates(t *testing.T) {
	r := Result{Info: New(HTTP2, 0.85), Method: MethodHeuristic, DetectorName: "heuristic"}
	assert.True(t, r.IsHighConfidence())
	assert.True(t, r.IsAcceptable(0.5))
	assert.False(t, Result{Info: New(HTTP2, 0.3)}.IsHighConfidence())
}

func TestCommonUpgradePathsIncludesHTTPUpgrade(t *testing.T) {
	paths := CommonUpgradePaths()
	require.NotEmpty(t, paths)
	found := false
	for _, p := range paths {
		if p.From == HTTP1_1 && p.To == WebSocket && p.Method == UpgradeHTTPUpgrade {
			found = true
		}
	}
	assert.True(t, found)
}
