package errors

// ErrorCode identifies one of the error kinds spec.md §7 distinguishes.
type ErrorCode string

const (
	// Malformed input: HTTP body, template, resource handle.
	ErrCodeMalformedInput ErrorCode = "malformed_input"

	// Unknown vendor/endpoint: rejected synchronously, never enqueued.
	ErrCodeUnknownVendor   ErrorCode = "unknown_vendor"
	ErrCodeUnknownEndpoint ErrorCode = "unknown_endpoint"

	// Upstream transport failure: HTTP/TCP call to a vendor failed.
	ErrCodeUpstreamTransport ErrorCode = "upstream_transport_failure"

	// Upstream schema drift: a formatter raised on a response.
	ErrCodeUpstreamSchemaDrift ErrorCode = "upstream_schema_drift"

	// Database consistency: insert or introspection failed.
	ErrCodeDatabaseError ErrorCode = "database_error"

	// Broker disconnect: the TCP state machine dropped to Disconnected.
	ErrCodeBrokerDisconnected ErrorCode = "broker_disconnected"

	// Coverage planning could not find endpoints to cover required columns.
	ErrCodeUncoverable ErrorCode = "uncoverable_template"

	// Catch-all for handler panics recovered by the HTTP middleware.
	ErrCodeInternalError ErrorCode = "internal_error"

	ErrCodeConfigError ErrorCode = "config_error"
)

// Error satisfies the error interface, letting an ErrorCode be returned
// directly wherever a terminal, classifiable failure needs to propagate
// without a wrapping type (the pipeline's Enqueue, notably).
func (e ErrorCode) Error() string {
	return string(e)
}

// IsRetryable reports whether the decorator layer should retry rather than
// surface the error as a terminal Response.
func (e ErrorCode) IsRetryable() bool {
	switch e {
	case ErrCodeUpstreamTransport, ErrCodeBrokerDisconnected:
		return true
	default:
		return false
	}
}

// HTTPStatus returns the HTTP status the front-end uses when this error
// aborts a synchronous request (malformed input, unknown vendor/endpoint).
// Errors that instead populate a Response (upstream/database/broker kinds)
// never reach this path — they resolve the pipeline's waiter instead.
func (e ErrorCode) HTTPStatus() int {
	switch e {
	case ErrCodeMalformedInput, ErrCodeUnknownVendor, ErrCodeUnknownEndpoint, ErrCodeUncoverable:
		return 400
	case ErrCodeConfigError, ErrCodeInternalError:
		return 500
	default:
		return 500
	}
}
