package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protosentry/detector/pkg/probe"
	"github.com/protosentry/detector/pkg/protocol"
)

func TestDefaultDetectionConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultDetectionConfig().Validate())
}

func TestValidateRejectsOutOfRangeMinConfidence(t *testing.T) {
	cfg := DefaultDetectionConfig()
	cfg.MinConfidence = 1.5
	assert.Error(t, cfg.Validate())

	cfg.MinConfidence = -0.1
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveMinDataSize(t *testing.T) {
	cfg := DefaultDetectionConfig()
	cfg.MinDataSize = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsMaxBelowMin(t *testing.T) {
	cfg := DefaultDetectionConfig()
	cfg.MinDataSize = 100
	cfg.MaxDataSize = 10
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveMaxProbeTime(t *testing.T) {
	cfg := DefaultDetectionConfig()
	cfg.Probe.MaxProbeTime = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveBufferSize(t *testing.T) {
	cfg := DefaultDetectionConfig()
	cfg.Probe.BufferSize = 0
	assert.Error(t, cfg.Validate())
}

func TestEnabledSetEmptyMeansEverything(t *testing.T) {
	cfg := DefaultDetectionConfig()
	set, all := cfg.enabledSet()
	assert.Nil(t, set)
	assert.True(t, all)
}

func TestEnabledSetRestrictsToNamedProtocols(t *testing.T) {
	cfg := DefaultDetectionConfig()
	cfg.EnabledProtocols = []protocol.Type{protocol.TLS, protocol.SSH}
	set, all := cfg.enabledSet()
	assert.False(t, all)
	assert.True(t, set[protocol.TLS])
	assert.True(t, set[protocol.SSH])
	assert.False(t, set[protocol.HTTP1_1])
}

func TestMaxProbeTimeFallsBackWhenUnset(t *testing.T) {
	cfg := DefaultDetectionConfig()
	cfg.Probe.MaxProbeTime = 0
	assert.Equal(t, 100*time.Millisecond, cfg.maxProbeTime())
}

func TestMaxProbeTimeHonorsConfiguredValue(t *testing.T) {
	cfg := DefaultDetectionConfig()
	cfg.Probe.MaxProbeTime = 250 * time.Millisecond
	assert.Equal(t, 250*time.Millisecond, cfg.maxProbeTime())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultDetectionConfig()
	cfg.MinConfidence = 2.0
	_, err := New(cfg, nil)
	require.Error(t, err)

	var detErr *DetectorError
	require.ErrorAs(t, err, &detErr)
	assert.Equal(t, KindConfigError, detErr.Kind)
}

func TestNewDefaultsLoggerWhenNil(t *testing.T) {
	_, err := New(DefaultDetectionConfig(), nil)
	assert.NoError(t, err)
}

func TestDefaultProbeConfigMatchesPassiveStrategy(t *testing.T) {
	assert.Equal(t, probe.StrategyPassive, probe.DefaultConfig().Strategy)
}
