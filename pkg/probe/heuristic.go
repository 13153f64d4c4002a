package probe

import (
	"bytes"

	"golang.org/x/net/http2"

	"github.com/gorilla/websocket"

	"github.com/protosentry/detector/pkg/pattern"
	"github.com/protosentry/detector/pkg/protocol"
)

// HeuristicProbe runs a fixed battery of structural checks - frame
// headers, fixed prefixes, bit patterns - in priority order and returns
// the single highest-confidence result. It never needs a network round
// trip, which is why it is registered as a global probe: every Detect
// call that reaches the probe battery runs it whenever at least one of
// its supported protocols is enabled.
type HeuristicProbe struct{}

// NewHeuristicProbe constructs the stateless heuristic probe.
func NewHeuristicProbe() *HeuristicProbe { return &HeuristicProbe{} }

func (p *HeuristicProbe) Name() string { return "heuristic" }

func (p *HeuristicProbe) SupportedProtocols() []protocol.Type {
	return []protocol.Type{
		protocol.HTTP3, protocol.QUIC, protocol.HTTP2, protocol.GRPC,
		protocol.HTTP1_1, protocol.HTTP1_0, protocol.TLS, protocol.SSH,
		protocol.WebSocket,
	}
}

func (p *HeuristicProbe) Priority() uint8 { return 80 }

func (p *HeuristicProbe) NeedsMoreData(data []byte) bool {
	return DefaultNeedsMoreData(data)
}

// Probe runs every detector in priority order and keeps the best result.
// Order matters only for the tie-break: HTTP/3 and gRPC are checked
// before their more general HTTP/1 and TLS relatives because a positive
// match on the specific protocol is more informative than the generic one.
func (p *HeuristicProbe) Probe(data []byte, ctx *Context) (protocol.Info, bool, error) {
	if p.NeedsMoreData(data) {
		return protocol.Info{}, false, nil
	}
	type candidate struct {
		info protocol.Info
		conf float64
	}

	quicConf := detectQUIC(data)
	var best candidate

	consider := func(info protocol.Info, conf float64) {
		if conf > best.conf {
			best = candidate{info: info, conf: conf}
		}
	}

	if info, conf, ok := detectHTTP3(data, quicConf); ok {
		consider(info, conf)
	}
	if quicConf > 0 {
		consider(protocol.New(protocol.QUIC, quicConf), quicConf)
	}
	if info, conf, ok := detectHTTP2(data); ok {
		consider(info, conf)
	}
	if info, conf, ok := detectGRPC(data); ok {
		consider(info, conf)
	}
	if info, conf, ok := detectHTTP1(data); ok {
		consider(info, conf)
	}
	if info, conf, ok := detectTLS(data); ok {
		consider(info, conf)
	}
	if info, conf, ok := detectSSH(data); ok {
		consider(info, conf)
	}
	if info, conf, ok := detectWebSocket(data); ok {
		consider(info, conf)
	}

	if best.conf == 0 {
		return protocol.Info{}, false, nil
	}
	ctx.AddCandidate(best.info)
	return best.info, true, nil
}

func detectHTTP1(data []byte) (protocol.Info, float64, bool) {
	prefixes := []struct {
		p    string
		conf float64
	}{
		{"GET ", 0.9}, {"POST ", 0.9}, {"PUT ", 0.85},
		{"HEAD ", 0.85}, {"DELETE ", 0.85}, {"OPTIONS ", 0.85},
	}
	for _, pr := range prefixes {
		if len(data) >= len(pr.p) && string(data[:len(pr.p)]) == pr.p {
			return protocol.New(protocol.HTTP1_1, pr.conf), pr.conf, true
		}
	}
	if len(data) >= 8 && string(data[:7]) == "HTTP/1." {
		return protocol.New(protocol.HTTP1_1, 0.95), 0.95, true
	}
	return protocol.Info{}, 0, false
}

func detectHTTP2(data []byte) (protocol.Info, float64, bool) {
	preface := []byte(http2.ClientPreface)
	if len(data) >= len(preface) && bytes.Equal(data[:len(preface)], preface) {
		info := protocol.New(protocol.HTTP2, 1.0)
		info.AddFeature("preface")
		return info, 1.0, true
	}
	if len(data) < 9 {
		return protocol.Info{}, 0, false
	}
	fr, err := http2.ReadFrameHeader(bytes.NewReader(data))
	if err != nil {
		return protocol.Info{}, 0, false
	}
	if fr.Type == http2.FrameHeaders || fr.Type == http2.FrameSettings {
		return protocol.New(protocol.HTTP2, 0.8), 0.8, true
	}
	return protocol.Info{}, 0, false
}

func detectQUIC(data []byte) float64 {
	if len(data) < 5 {
		return 0
	}
	if data[0]&0x80 == 0 {
		return 0
	}
	version := uint32(data[1])<<24 | uint32(data[2])<<16 | uint32(data[3])<<8 | uint32(data[4])
	switch version {
	case 0x00000001:
		return 0.95
	case 0xff00001d:
		return 0.9
	case 0x00000000:
		return 0.7
	default:
		return 0.6
	}
}

var http3FrameTypePositions = []int{16, 20, 24, 28, 32, 36, 40, 44, 48, 52}

func detectHTTP3(data []byte, quicConf float64) (protocol.Info, float64, bool) {
	if quicConf <= 0.7 {
		return protocol.Info{}, 0, false
	}
	boost := 0.0
	if pattern.BoundedFind(data, []byte("h3-")) >= 0 || pattern.BoundedFind(data, []byte("h3")) >= 0 {
		boost += 0.2
	}
	for _, pos := range http3FrameTypePositions {
		if pos >= len(data) {
			break
		}
		switch data[pos] {
		case 0x0, 0x1, 0x4, 0x5, 0x7, 0xd, 0xe:
			boost += 0.1
		}
	}
	if pattern.Contains(data, []byte{0x01, 0x40}) || pattern.Contains(data, []byte{0x06, 0x40}) {
		boost += 0.1
	}
	if boost == 0 {
		conf := quicConf * 0.6
		return protocol.New(protocol.HTTP3, conf), conf, conf > 0.5
	}
	conf := quicConf + boost
	if conf > 0.95 {
		conf = 0.95
	}
	return protocol.New(protocol.HTTP3, conf), conf, true
}

func detectGRPC(data []byte) (protocol.Info, float64, bool) {
	conf := 0.0
	preface := []byte(http2.ClientPreface)
	if len(data) >= len(preface) && bytes.Equal(data[:len(preface)], preface) {
		conf += 0.4
	}
	if pattern.BoundedFind(data, []byte("application/grpc")) >= 0 {
		conf += 0.5
	}
	for _, pos := range []int{0, 24, 33} {
		if pos >= len(data) {
			continue
		}
		if data[pos] <= 0x08 {
			conf += 0.3
			break
		}
	}
	if conf >= 0.8 && conf < 0.9 {
		conf = 0.9
	}
	if conf > 0.5 {
		return protocol.New(protocol.GRPC, conf), conf, true
	}
	return protocol.Info{}, 0, false
}

func detectTLS(data []byte) (protocol.Info, float64, bool) {
	if len(data) < 3 {
		return protocol.Info{}, 0, false
	}
	if data[0] < 0x14 || data[0] > 0x17 {
		return protocol.Info{}, 0, false
	}
	if data[1] != 0x03 || data[2] > 0x04 {
		return protocol.Info{}, 0, false
	}
	if data[0] == 0x16 {
		return protocol.New(protocol.TLS, 0.95), 0.95, true
	}
	return protocol.New(protocol.TLS, 0.8), 0.8, true
}

func detectSSH(data []byte) (protocol.Info, float64, bool) {
	switch {
	case len(data) >= 7 && string(data[:7]) == "SSH-2.0":
		return protocol.New(protocol.SSH, 0.98), 0.98, true
	case len(data) >= 6 && string(data[:6]) == "SSH-1.":
		return protocol.New(protocol.SSH, 0.95), 0.95, true
	case len(data) >= 4 && string(data[:4]) == "SSH-":
		return protocol.New(protocol.SSH, 0.9), 0.9, true
	}
	if len(data) < 6 {
		return protocol.Info{}, 0, false
	}
	length := uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])
	padding := data[4]
	if length > 0 && length < 65536 && padding < 255 {
		return protocol.New(protocol.SSH, 0.6), 0.6, true
	}
	return protocol.Info{}, 0, false
}

func detectWebSocket(data []byte) (protocol.Info, float64, bool) {
	httpShaped := pattern.BoundedFind(data, []byte("HTTP/")) >= 0 ||
		pattern.BoundedFind(data, []byte("GET ")) >= 0 ||
		pattern.BoundedFind(data, []byte("POST ")) >= 0

	if httpShaped {
		upgraded := pattern.FindCaseInsensitive(data, []byte("Upgrade: websocket")) >= 0 ||
			pattern.FindCaseInsensitive(data, []byte("Upgrade:websocket")) >= 0
		if !upgraded {
			return protocol.Info{}, 0, false
		}
		conf := 0.75
		if pattern.Contains(data, []byte("HTTP/1.1 101")) {
			conf = 0.98
		}
		info := protocol.New(protocol.WebSocket, conf)
		info.AddFeature("http-upgrade")
		return info, conf, true
	}

	if len(data) < 2 {
		return protocol.Info{}, 0, false
	}
	opcode := int(data[0] & 0x0F)
	switch opcode {
	case websocket.TextMessage, websocket.BinaryMessage,
		websocket.CloseMessage, websocket.PingMessage, websocket.PongMessage:
	default:
		return protocol.Info{}, 0, false
	}
	payloadLen := data[1] & 0x7F
	if payloadLen > 125 {
		return protocol.Info{}, 0, false
	}
	info := protocol.New(protocol.WebSocket, 0.6)
	info.AddFeature("raw-frame")
	return info, 0.6, true
}
