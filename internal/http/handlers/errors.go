// Package handlers defines HTTP-layer error codes used across all API
// endpoints. The codes supplement human-readable messages with a stable,
// machine-readable taxonomy; handlers pick the most specific code and pass
// it to fail() together with the HTTP status.
//
// Benign race outcomes (losing an accept, replaying a cancellation report)
// are deliberately not error codes: they are returned as success-shaped
// bodies with status "already_handled", because the protocol expects those
// races and must not alarm operators.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeEnqueueFailed    = "enqueue_failed"
	ErrCodePollFailed       = "poll_failed"
	ErrCodeCallFailed       = "call_failed"
	ErrCodeReportFailed     = "report_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// StatusAlreadyHandled is the body status for expected race losers.
const StatusAlreadyHandled = "already_handled"
