package engine

import "fmt"

// Code is a stable numeric identifier for a DetectorError kind, useful
// for log correlation and metrics across process restarts when the Go
// error value itself can't be compared.
type Code uint32

const (
	CodeInsufficientData  Code = 1002
	CodeDataTooLarge      Code = 1003
	CodeNoProtocolDetected Code = 1004
	CodeDetectionFailed   Code = 1005
	CodeUnsupportedProtocol Code = 1006
	CodeConfigError       Code = 1008
	CodeTimeout           Code = 1011
	CodeInternal          Code = 1999
)

// Kind is the closed set of error kinds the engine can return.
type Kind int

const (
	KindInsufficientData Kind = iota
	KindDataTooLarge
	KindNoProtocolDetected
	KindDetectionFailed
	KindUnsupportedProtocol
	KindConfigError
	KindTimeout
	KindInternal
)

// DetectorError is the engine's single error type. Every failure mode
// described in spec.md §7 is a DetectorError distinguished by Kind.
type DetectorError struct {
	Kind    Kind
	Message string
}

func (e *DetectorError) Error() string {
	return fmt.Sprintf("%s: %s", e.codeName(), e.Message)
}

func (e *DetectorError) codeName() string {
	switch e.Kind {
	case KindInsufficientData:
		return "insufficient_data"
	case KindDataTooLarge:
		return "data_too_large"
	case KindNoProtocolDetected:
		return "no_protocol_detected"
	case KindDetectionFailed:
		return "detection_failed"
	case KindUnsupportedProtocol:
		return "unsupported_protocol"
	case KindConfigError:
		return "config_error"
	case KindTimeout:
		return "timeout"
	default:
		return "internal_error"
	}
}

// Code returns the stable numeric code for this error's Kind.
func (e *DetectorError) Code() Code {
	switch e.Kind {
	case KindInsufficientData:
		return CodeInsufficientData
	case KindDataTooLarge:
		return CodeDataTooLarge
	case KindNoProtocolDetected:
		return CodeNoProtocolDetected
	case KindDetectionFailed:
		return CodeDetectionFailed
	case KindUnsupportedProtocol:
		return CodeUnsupportedProtocol
	case KindConfigError:
		return CodeConfigError
	case KindTimeout:
		return CodeTimeout
	default:
		return CodeInternal
	}
}

// IsRecoverable reports whether a caller can reasonably retry (e.g. after
// collecting more bytes) rather than treating this as terminal.
func (e *DetectorError) IsRecoverable() bool {
	switch e.Kind {
	case KindInsufficientData, KindDetectionFailed, KindTimeout:
		return true
	default:
		return false
	}
}

// IsConfigError reports whether this error stems from the caller's
// DetectionConfig rather than from the input data.
func (e *DetectorError) IsConfigError() bool {
	return e.Kind == KindConfigError || e.Kind == KindUnsupportedProtocol
}

func errInsufficientData(msg string) *DetectorError {
	return &DetectorError{Kind: KindInsufficientData, Message: msg}
}

func errDataTooLarge(msg string) *DetectorError {
	return &DetectorError{Kind: KindDataTooLarge, Message: msg}
}

func errNoProtocolDetected(msg string) *DetectorError {
	return &DetectorError{Kind: KindNoProtocolDetected, Message: msg}
}

func errConfigError(msg string) *DetectorError {
	return &DetectorError{Kind: KindConfigError, Message: msg}
}

func errUnsupportedProtocol(msg string) *DetectorError {
	return &DetectorError{Kind: KindUnsupportedProtocol, Message: msg}
}

func errTimeout(msg string) *DetectorError {
	return &DetectorError{Kind: KindTimeout, Message: msg}
}
