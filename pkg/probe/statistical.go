package probe

import (
	"math"
	"strconv"

	"github.com/protosentry/detector/pkg/protocol"
)

// StatisticalProbe classifies a buffer by shape rather than signature:
// byte-value entropy, the fraction of printable ASCII, and whether
// fixed-size fields repeat at a regular period. It is registered
// globally and runs in the same pass as the structural probes, whether or
// not they already reached MinConfidence; its candidates carry low
// confidence, so they decide the verdict only when nothing ranks higher.
// Near-maximum entropy ("looks like ciphertext") is reported as Unknown
// with a "high-entropy" feature, which the aggregator drops; a text-like
// buffer is reported as HTTP/1.1 at 0.4 and periodic binary framing as
// Custom at 0.45.
type StatisticalProbe struct {
	minSample int
}

// NewStatisticalProbe builds the probe. minSample is the minimum number
// of bytes required before any scoring is attempted (below it entropy
// estimates are too noisy to act on).
func NewStatisticalProbe(minSample int) *StatisticalProbe {
	if minSample <= 0 {
		minSample = 32
	}
	return &StatisticalProbe{minSample: minSample}
}

func (p *StatisticalProbe) Name() string { return "statistical" }

func (p *StatisticalProbe) SupportedProtocols() []protocol.Type {
	return []protocol.Type{protocol.HTTP1_1, protocol.Custom}
}

func (p *StatisticalProbe) Priority() uint8 { return 200 }

func (p *StatisticalProbe) NeedsMoreData(data []byte) bool {
	return len(data) < p.minSample
}

func (p *StatisticalProbe) Probe(data []byte, ctx *Context) (protocol.Info, bool, error) {
	if len(data) < p.minSample {
		return protocol.Info{}, false, nil
	}

	entropy := shannonEntropy(data)
	asciiRatio := printableASCIIRatio(data)
	periodic, period := detectPeriodicity(data)

	var info protocol.Info
	switch {
	case entropy >= 7.5:
		// Near-maximum entropy: almost certainly ciphertext or compressed
		// data riding on TLS, QUIC, or an equivalent encrypted channel, but
		// nothing here says which one.
		info = protocol.New(protocol.Unknown, 0.55)
		info.AddFeature("high-entropy")
	case asciiRatio >= 0.95:
		info = protocol.New(protocol.HTTP1_1, 0.4)
		info.AddFeature("text-like")
	case periodic:
		info = protocol.New(protocol.Custom, 0.45)
		info.AddFeature("periodic-framing")
		info.AddMetadata("period_bytes", strconv.Itoa(period))
	default:
		return protocol.Info{}, false, nil
	}

	ctx.AddCandidate(info)
	return info, true, nil
}

func shannonEntropy(data []byte) float64 {
	var counts [256]int
	for _, b := range data {
		counts[b]++
	}
	n := float64(len(data))
	var entropy float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		freq := float64(c) / n
		entropy -= freq * math.Log2(freq)
	}
	return entropy
}

func printableASCIIRatio(data []byte) float64 {
	printable := 0
	for _, b := range data {
		if b == '\t' || b == '\r' || b == '\n' || (b >= 0x20 && b < 0x7f) {
			printable++
		}
	}
	return float64(printable) / float64(len(data))
}

// detectPeriodicity looks for a short period (4..32 bytes) at which the
// buffer's byte values repeat closely, the signature of a binary protocol
// with fixed-size framing (e.g. a fixed header repeating every N bytes in
// a stream of same-sized messages).
func detectPeriodicity(data []byte) (bool, int) {
	if len(data) < 64 {
		return false, 0
	}
	for period := 4; period <= 32; period++ {
		matches := 0
		total := 0
		for i := period; i < len(data); i++ {
			total++
			if data[i] == data[i-period] {
				matches++
			}
		}
		if total > 0 && float64(matches)/float64(total) >= 0.6 {
			return true, period
		}
	}
	return false, 0
}
