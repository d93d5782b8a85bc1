package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies market-data failures so callers can pattern-match
// instead of parsing messages.
type ErrorKind int

const (
	// KindRateLimited: admission budget exhausted after the maximum wait.
	KindRateLimited ErrorKind = iota + 1
	// KindUpstreamUnavailable: retry budget exhausted against 429/5xx/timeouts.
	KindUpstreamUnavailable
	// KindMalformedUpstreamResponse: payload decoded but missing expected fields.
	KindMalformedUpstreamResponse
	// KindBadUpstreamRequest: upstream rejected the request as invalid; not transient.
	KindBadUpstreamRequest
	// KindInsufficientHistory: fewer data points than an indicator or forecast requires.
	KindInsufficientHistory
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindMalformedUpstreamResponse:
		return "malformed_upstream_response"
	case KindBadUpstreamRequest:
		return "bad_upstream_request"
	case KindInsufficientHistory:
		return "insufficient_history"
	default:
		return "unknown"
	}
}

// MarketError is a tagged error carrying the originating cause.
type MarketError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *MarketError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *MarketError) Unwrap() error { return e.Cause }

// NewMarketError builds a tagged error.
func NewMarketError(kind ErrorKind, message string, cause error) *MarketError {
	return &MarketError{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the ErrorKind from err, or 0 if err is not a MarketError.
func KindOf(err error) ErrorKind {
	var me *MarketError
	if errors.As(err, &me) {
		return me.Kind
	}
	return 0
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool { return KindOf(err) == kind }
