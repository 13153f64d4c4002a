package probe

import (
	"crypto/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatisticalProbeHighEntropy(t *testing.T) {
	p := NewStatisticalProbe(32)
	ctx := NewContext(0)
	data := make([]byte, 4096)
	_, err := rand.Read(data)
	require.NoError(t, err)

	info, ok, err := p.Probe(data, ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, info.HasFeature("high-entropy"))
}

func TestStatisticalProbeTextLike(t *testing.T) {
	p := NewStatisticalProbe(32)
	ctx := NewContext(0)
	data := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog. ", 4))

	info, ok, err := p.Probe(data, ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, info.HasFeature("text-like"))
}

func TestStatisticalProbeBelowMinSample(t *testing.T) {
	p := NewStatisticalProbe(64)
	ctx := NewContext(0)
	_, ok, err := p.Probe([]byte("short"), ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStatisticalProbeNeedsMoreData(t *testing.T) {
	p := NewStatisticalProbe(64)
	assert.True(t, p.NeedsMoreData(make([]byte, 10)))
	assert.False(t, p.NeedsMoreData(make([]byte, 100)))
}
