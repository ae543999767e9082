package model

import "errors"

// ErrModelThrottled indicates the provider rejected the request due to rate
// limiting. Callers/retry layers may retry with backoff (spec §4.8, §7).
var ErrModelThrottled = errors.New("model: throttled")

// ErrContextWindowOverflow indicates the provider rejected the request
// because the prompt exceeds the model's context window. The agent facade
// recovers by invoking the configured ConversationManager.ReduceContext and
// retrying once (spec §4.3, §4.7, §7).
var ErrContextWindowOverflow = errors.New("model: context window overflow")

// ProviderErrorKind classifies provider failures into a small set of
// categories suitable for retry and UX decisions.
type ProviderErrorKind string

const (
	ProviderErrorKindAuth           ProviderErrorKind = "auth"
	ProviderErrorKindInvalidRequest ProviderErrorKind = "invalid_request"
	ProviderErrorKindRateLimited    ProviderErrorKind = "rate_limited"
	ProviderErrorKindUnavailable    ProviderErrorKind = "unavailable"
	ProviderErrorKindUnknown        ProviderErrorKind = "unknown"
)

// ProviderError describes a failure returned by a model provider adapter. It
// crosses the Client boundary so the core can surface stable, structured
// information without depending on provider SDK error types.
type ProviderError struct {
	Provider  string
	Operation string
	Kind      ProviderErrorKind
	Code      string
	Message   string
	Retryable bool
	Cause     error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if msg == "" {
		msg = "provider error"
	}
	op := e.Operation
	if op == "" {
		op = "request"
	}
	return e.Provider + " " + string(e.Kind) + " (" + op + "): " + msg
}

// Unwrap returns the underlying cause to preserve the original error chain.
func (e *ProviderError) Unwrap() error { return e.Cause }

// AsProviderError returns the first ProviderError in err's chain, if any.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
