package probe

import (
	"github.com/pion/stun"

	"github.com/protosentry/detector/pkg/protocol"
)

// StunProbe is the worked example of a custom ProtocolProbe: a
// third-party recognizer wired in without any change to the engine
// itself. It defers the magic-cookie and attribute-framing checks
// entirely to github.com/pion/stun rather than re-implementing STUN's
// wire format by hand.
type StunProbe struct{}

// NewStunProbe constructs the STUN probe.
func NewStunProbe() *StunProbe { return &StunProbe{} }

func (p *StunProbe) Name() string { return "stun" }

func (p *StunProbe) SupportedProtocols() []protocol.Type {
	return []protocol.Type{protocol.STUN}
}

func (p *StunProbe) Priority() uint8 { return BasePriority }

func (p *StunProbe) NeedsMoreData(data []byte) bool {
	return len(data) < 20 // STUN header is fixed at 20 bytes
}

func (p *StunProbe) Probe(data []byte, ctx *Context) (protocol.Info, bool, error) {
	if !stun.IsMessage(data) {
		return protocol.Info{}, false, nil
	}

	msg := &stun.Message{Raw: append([]byte(nil), data...)}
	if err := msg.Decode(); err != nil {
		// The magic cookie matched but the message doesn't fully decode
		// (truncated attributes, bad length) - report it at reduced
		// confidence rather than treating it as a hard failure.
		info := protocol.New(protocol.STUN, 0.6)
		ctx.AddCandidate(info)
		return info, true, nil
	}

	info := protocol.New(protocol.STUN, 0.95)
	info.AddFeature(msg.Type.String())
	ctx.AddCandidate(info)
	return info, true, nil
}
