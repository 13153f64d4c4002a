package magic

import "github.com/protosentry/detector/pkg/protocol"

// heuristicByFirstByte is the last-resort classifier QuickDetect falls
// back to when no fixed-offset or anywhere signature matched. It looks
// only at the leading byte (and, for DNS, the fact that it is zero),
// which is why every confidence value here is deliberately low.
func heuristicByFirstByte(data []byte) (protocol.Info, bool) {
	b := data[0]

	switch {
	case b >= 0x14 && b <= 0x17:
		return protocol.New(protocol.TLS, 0.5), true
	case b&0x80 != 0:
		return protocol.New(protocol.QUIC, 0.4), true
	case b == 'G' || b == 'P' || b == 'H' || b == 'D' || b == 'O' || b == 'T':
		return protocol.New(protocol.HTTP1_1, 0.3), true
	case b == 0x00:
		return protocol.New(protocol.DNS, 0.3), true
	default:
		return protocol.Info{}, false
	}
}
