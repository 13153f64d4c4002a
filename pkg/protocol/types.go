// Package protocol defines the closed set of application-layer protocols
// the detection engine recognizes, and the value types probes exchange.
package protocol

import "fmt"

// Type is the closed enumeration of recognized protocols. Ordering exists
// only for deterministic tie-breaking and carries no semantic weight.
type Type int

const (
	Unknown Type = iota
	TCP
	UDP
	HTTP1_0
	HTTP1_1
	HTTP2
	HTTP3
	QUIC
	TLS
	SSH
	WebSocket
	GRPC
	MQTT
	FTP
	SMTP
	DNS
	Redis
	MySQL
	STUN
	Custom
)

var names = map[Type]string{
	Unknown:   "Unknown",
	TCP:       "TCP",
	UDP:       "UDP",
	HTTP1_0:   "HTTP/1.0",
	HTTP1_1:   "HTTP/1.1",
	HTTP2:     "HTTP/2",
	HTTP3:     "HTTP/3",
	QUIC:      "QUIC",
	TLS:       "TLS",
	SSH:       "SSH",
	WebSocket: "WebSocket",
	GRPC:      "gRPC",
	MQTT:      "MQTT",
	FTP:       "FTP",
	SMTP:      "SMTP",
	DNS:       "DNS",
	Redis:     "Redis",
	MySQL:     "MySQL",
	STUN:      "STUN",
	Custom:    "Custom",
}

// String returns the human-readable protocol name.
func (t Type) String() string {
	if name, ok := names[t]; ok {
		return name
	}
	return "Unknown"
}

// DefaultPort returns the conventional port for the protocol, if any.
func (t Type) DefaultPort() (uint16, bool) {
	switch t {
	case HTTP1_0, HTTP1_1, WebSocket:
		return 80, true
	case HTTP2, HTTP3, GRPC, QUIC, TLS:
		return 443, true
	case MQTT:
		return 1883, true
	case SSH:
		return 22, true
	case FTP:
		return 21, true
	case SMTP:
		return 25, true
	case DNS:
		return 53, true
	case Redis:
		return 6379, true
	case MySQL:
		return 3306, true
	case STUN:
		return 3478, true
	default:
		return 0, false
	}
}

// IsHTTPFamily reports whether the protocol is part of the HTTP family.
func (t Type) IsHTTPFamily() bool {
	switch t {
	case HTTP1_0, HTTP1_1, HTTP2, HTTP3, GRPC, WebSocket:
		return true
	default:
		return false
	}
}

// SupportsUpgrade reports whether a connection using this protocol can be
// the source side of a protocol upgrade (e.g. an HTTP/1.1 Upgrade header,
// or a bare TCP stream preceding TLS).
func (t Type) SupportsUpgrade() bool {
	switch t {
	case HTTP1_0, HTTP1_1, HTTP2, TCP:
		return true
	default:
		return false
	}
}

// IsEncrypted reports whether traffic of this protocol is opaque
// ciphertext at the point the engine observes it.
func (t Type) IsEncrypted() bool {
	switch t {
	case HTTP2, HTTP3, GRPC, QUIC, TLS, SSH:
		return true
	default:
		return false
	}
}

// Family groups related protocols for policy and reporting purposes.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyHTTP
	FamilyRPC
	FamilyWebSocket
	FamilyQUIC
	FamilyIoT
	FamilyTransport
	FamilySecurity
	FamilyRemote
	FamilyDatabase
)

func (f Family) String() string {
	switch f {
	case FamilyHTTP:
		return "HTTP"
	case FamilyRPC:
		return "RPC"
	case FamilyWebSocket:
		return "WebSocket"
	case FamilyQUIC:
		return "QUIC"
	case FamilyIoT:
		return "IoT"
	case FamilyTransport:
		return "Transport"
	case FamilySecurity:
		return "Security"
	case FamilyRemote:
		return "Remote"
	case FamilyDatabase:
		return "Database"
	default:
		return "Unknown"
	}
}

// Family returns the protocol family this protocol belongs to.
func (t Type) Family() Family {
	switch t {
	case HTTP1_0, HTTP1_1, HTTP2, HTTP3:
		return FamilyHTTP
	case GRPC:
		return FamilyRPC
	case WebSocket:
		return FamilyWebSocket
	case QUIC:
		return FamilyQUIC
	case MQTT:
		return FamilyIoT
	case TCP, UDP:
		return FamilyTransport
	case TLS, STUN:
		return FamilySecurity
	case SSH, FTP:
		return FamilyRemote
	case Redis, MySQL, DNS, SMTP:
		return FamilyDatabase
	default:
		return FamilyUnknown
	}
}

// All returns every recognized protocol type except Unknown and Custom.
func All() []Type {
	return []Type{
		TCP, UDP, HTTP1_0, HTTP1_1, HTTP2, HTTP3, QUIC, TLS, SSH,
		WebSocket, GRPC, MQTT, FTP, SMTP, DNS, Redis, MySQL, STUN,
	}
}

// Info is a candidate classification produced by a probe or the magic
// registry. Confidence is clamped to [0, 1] on construction.
type Info struct {
	ProtocolType Type
	Version      string
	Confidence   float64
	Features     []string
	Metadata     map[string]string
}

// New creates an Info with confidence clamped into [0, 1] and an
// initialized metadata map.
func New(t Type, confidence float64) Info {
	return Info{
		ProtocolType: t,
		Confidence:   clamp01(confidence),
		Metadata:     make(map[string]string),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// WithVersion sets the version string and returns the receiver for chaining.
func (i Info) WithVersion(v string) Info {
	i.Version = v
	return i
}

// AddFeature appends a feature tag (e.g. "h2", "masked-frame").
func (i *Info) AddFeature(feature string) {
	i.Features = append(i.Features, feature)
}

// AddMetadata records a metadata key/value pair, lazily allocating the map.
func (i *Info) AddMetadata(key, value string) {
	if i.Metadata == nil {
		i.Metadata = make(map[string]string)
	}
	i.Metadata[key] = value
}

// IsConfident reports whether confidence meets or exceeds threshold.
func (i Info) IsConfident(threshold float64) bool {
	return i.Confidence >= threshold
}

// HasFeature reports whether the given feature tag was recorded.
func (i Info) HasFeature(feature string) bool {
	for _, f := range i.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// Method identifies which detection strategy produced a Result.
type Method int

const (
	MethodPassive Method = iota
	MethodActive
	MethodHeuristic
	MethodSimdAccelerated
	MethodHybrid
)

func (m Method) String() string {
	switch m {
	case MethodPassive:
		return "passive"
	case MethodActive:
		return "active"
	case MethodHeuristic:
		return "heuristic"
	case MethodSimdAccelerated:
		return "simd_accelerated"
	case MethodHybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// Result is the engine's verdict: a classification, how long detection
// took, which strategy produced it, and the name of the producing probe.
type Result struct {
	Info         Info
	Elapsed      int64 // nanoseconds
	Method       Method
	DetectorName string
}

// IsHighConfidence reports confidence >= 0.8, the fixed bar for "high
// confidence" regardless of the caller's configured minimum.
func (r Result) IsHighConfidence() bool {
	return r.Info.Confidence >= 0.8
}

// IsAcceptable reports whether confidence meets the caller-supplied
// threshold.
func (r Result) IsAcceptable(threshold float64) bool {
	return r.Info.Confidence >= threshold
}

func (r Result) String() string {
	return fmt.Sprintf("%s (confidence=%.2f, method=%s, by=%s)",
		r.Info.ProtocolType, r.Info.Confidence, r.Method, r.DetectorName)
}

// UpgradeMethod names how a connection transitions from one protocol to
// another.
type UpgradeMethod int

const (
	UpgradeHTTPUpgrade UpgradeMethod = iota
	UpgradeALPN
	UpgradeDirect
	UpgradeTunnel
	UpgradeNegotiation
	UpgradeCustom
)

func (m UpgradeMethod) String() string {
	switch m {
	case UpgradeHTTPUpgrade:
		return "http_upgrade"
	case UpgradeALPN:
		return "alpn"
	case UpgradeDirect:
		return "direct"
	case UpgradeTunnel:
		return "tunnel"
	case UpgradeNegotiation:
		return "negotiation"
	case UpgradeCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// UpgradePath describes a known transition between two protocols. It is
// inert data: the engine never performs an upgrade itself, but callers
// building an upgrade subsystem on top of this engine's output can use
// these paths to decide what to do with a Result.
type UpgradePath struct {
	From   Type
	To     Type
	Method UpgradeMethod
}

// CommonUpgradePaths returns the catalog of upgrade transitions a real
// deployment is likely to encounter.
func CommonUpgradePaths() []UpgradePath {
	return []UpgradePath{
		{From: HTTP1_1, To: HTTP2, Method: UpgradeHTTPUpgrade},
		{From: HTTP1_1, To: HTTP2, Method: UpgradeALPN},
		{From: HTTP2, To: GRPC, Method: UpgradeDirect},
		{From: HTTP1_1, To: WebSocket, Method: UpgradeHTTPUpgrade},
		{From: TCP, To: TLS, Method: UpgradeNegotiation},
		{From: TLS, To: HTTP2, Method: UpgradeALPN},
		{From: TLS, To: HTTP1_1, Method: UpgradeALPN},
	}
}
