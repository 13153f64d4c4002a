package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protosentry/detector/pkg/probe"
	"github.com/protosentry/detector/pkg/protocol"
)

func TestBuildAppliesDefaultsWithoutAFile(t *testing.T) {
	c := New("")
	require.NoError(t, c.Load())

	dc, err := c.Build()
	require.NoError(t, err)
	assert.Equal(t, 0.8, dc.MinConfidence)
	assert.Equal(t, 4, dc.MinDataSize)
	assert.Equal(t, 1<<20, dc.MaxDataSize)
	assert.Equal(t, probe.StrategyPassive, dc.Probe.Strategy)
	assert.Empty(t, dc.EnabledProtocols)
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "detector.yaml")
	contents := []byte(`
min_confidence: 0.6
min_data_size: 8
max_data_size: 2048
enabled_protocols:
  - TLS
  - SSH
probe:
  strategy: active
  max_probe_time: 50ms
  buffer_size: 8192
`)
	require.NoError(t, os.WriteFile(path, contents, 0o644))

	c := New(path)
	require.NoError(t, c.Load())

	dc, err := c.Build()
	require.NoError(t, err)
	assert.Equal(t, 0.6, dc.MinConfidence)
	assert.Equal(t, 8, dc.MinDataSize)
	assert.Equal(t, 2048, dc.MaxDataSize)
	assert.Equal(t, probe.StrategyActive, dc.Probe.Strategy)
	assert.Equal(t, 8192, dc.Probe.BufferSize)
	assert.ElementsMatch(t, []protocol.Type{protocol.TLS, protocol.SSH}, dc.EnabledProtocols)
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("min_data_size: 0\n"), 0o644))

	c := New(path)
	require.NoError(t, c.Load())

	_, err := c.Build()
	assert.Error(t, err)
}

func TestWatchReceivesReloadedValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "detector.yaml")
	require.NoError(t, os.WriteFile(path, []byte("min_confidence: 0.5\n"), 0o644))

	c := New(path)
	require.NoError(t, c.Load())
	ch := c.Watch()

	require.NoError(t, os.WriteFile(path, []byte("min_confidence: 0.9\n"), 0o644))
	require.NoError(t, c.Load())

	select {
	case fc := <-ch:
		assert.Equal(t, 0.9, fc.MinConfidence)
	default:
		t.Fatal("expected a watch notification after reload")
	}
}
