package magic

import "github.com/protosentry/detector/pkg/protocol"

// builtinSignatures is the default signature table. It mirrors the
// built-in table psi_detector's MagicDetector::load_common_signatures
// loads: fixed-offset method/banner prefixes at high confidence, a
// handful of low-confidence single-byte and single-character signatures
// that exist mainly to seed deep_detect, and one anywhere-in-buffer
// signature (gRPC's content-type) that benefits from the Aho-Corasick
// automaton instead of a linear scan.
func builtinSignatures() []Signature {
	return []Signature{
		{Name: "http-get", Protocol: protocol.HTTP1_1, Pattern: []byte("GET "), Offset: 0, Confidence: 0.95},
		{Name: "http-post", Protocol: protocol.HTTP1_1, Pattern: []byte("POST "), Offset: 0, Confidence: 0.95},
		{Name: "http-put", Protocol: protocol.HTTP1_1, Pattern: []byte("PUT "), Offset: 0, Confidence: 0.95},
		{Name: "http-head", Protocol: protocol.HTTP1_1, Pattern: []byte("HEAD "), Offset: 0, Confidence: 0.95},
		{Name: "http-options", Protocol: protocol.HTTP1_1, Pattern: []byte("OPTIONS "), Offset: 0, Confidence: 0.95},
		{Name: "http-delete", Protocol: protocol.HTTP1_1, Pattern: []byte("DELETE "), Offset: 0, Confidence: 0.95},
		{Name: "http-1x-response", Protocol: protocol.HTTP1_1, Pattern: []byte("HTTP/1."), Offset: 0, Confidence: 0.98},
		{Name: "http2-preface", Protocol: protocol.HTTP2, Pattern: []byte("PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n"), Offset: 0, Confidence: 1.00},
		{Name: "tls-clienthello", Protocol: protocol.TLS, Pattern: []byte{0x16, 0x03}, Offset: 0, Confidence: 0.90},
		{Name: "quic-long-header", Protocol: protocol.QUIC, Pattern: []byte{0x80}, Offset: 0, Confidence: 0.70},
		{Name: "ssh-banner", Protocol: protocol.SSH, Pattern: []byte("SSH-"), Offset: 0, Confidence: 0.99},
		{Name: "ftp-banner", Protocol: protocol.FTP, Pattern: []byte("220 "), Offset: 0, Confidence: 0.85},
		{Name: "smtp-banner", Protocol: protocol.SMTP, Pattern: []byte("220 "), Offset: 0, Confidence: 0.80},
		{Name: "grpc-content-type", Protocol: protocol.GRPC, Pattern: []byte("application/grpc"), Offset: -1, Confidence: 0.95},
		{Name: "dns-header", Protocol: protocol.DNS, Pattern: []byte{0x00, 0x00, 0x01, 0x00}, Offset: 2, Confidence: 0.80},
		{Name: "mqtt-connect", Protocol: protocol.MQTT, Pattern: []byte{0x10}, Offset: 0, Confidence: 0.70},
		{Name: "redis-simple-string-ok", Protocol: protocol.Redis, Pattern: []byte("+OK\r\n"), Offset: 0, Confidence: 0.90},
		{Name: "mysql-protocol-10", Protocol: protocol.MySQL, Pattern: []byte{0x0A}, Offset: 4, Confidence: 0.80},
	}
}
