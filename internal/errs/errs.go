// Package errs defines the error taxonomy shared by every worker: six kinds,
// each a concrete type so a caller can type-switch or errors.As instead of
// matching on string prefixes.
package errs

import "fmt"

// Kind identifies which of the six propagation classes an error belongs to.
type Kind string

const (
	KindVenue       Kind = "venue_error"
	KindValidation  Kind = "validation_error"
	KindPolicy      Kind = "policy_reject"
	KindTransport   Kind = "transport_error"
	KindStateStore  Kind = "state_store_error"
	KindFatal       Kind = "fatal"
)

// VenueReason enumerates the sub-kinds a venue adapter can fail with.
type VenueReason string

const (
	VenueTimeout     VenueReason = "timeout"
	VenueTransport   VenueReason = "transport"
	VenueParse       VenueReason = "parse"
	VenueRateLimited VenueReason = "rate_limited"
	VenueHTTPError   VenueReason = "http_error"
)

// VenueError is returned by every Venue Adapter call on remote failure.
// It never panics the worker that raised it; callers treat the datum as
// missing for this tick.
type VenueError struct {
	Venue      string
	Reason     VenueReason
	Message    string
	HTTPStatus int
	Original   error
}

func (e *VenueError) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("venue %s: %s (%s, http %d)", e.Venue, e.Message, e.Reason, e.HTTPStatus)
	}
	return fmt.Sprintf("venue %s: %s (%s)", e.Venue, e.Message, e.Reason)
}

func (e *VenueError) Unwrap() error { return e.Original }
func (e *VenueError) Kind() Kind    { return KindVenue }

func NewVenueError(venue string, reason VenueReason, msg string, status int, orig error) *VenueError {
	return &VenueError{Venue: venue, Reason: reason, Message: msg, HTTPStatus: status, Original: orig}
}

// ValidationError marks a record that violates a data invariant (bid > ask,
// negative quantity, and so on). The offending record is discarded silently
// by the caller; this type exists so the discard decision can be logged at
// debug level with a reason.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("validation: %s: %s", e.Field, e.Message) }
func (e *ValidationError) Kind() Kind    { return KindValidation }

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

// PolicyReject marks a signal suppressed by the Alert Gate (blacklist,
// cooldown, failed safety check). It is data, not an exception: the signal
// carries this as its rejection reason.
type PolicyReject struct {
	Reason string
}

func (e *PolicyReject) Error() string { return fmt.Sprintf("policy reject: %s", e.Reason) }
func (e *PolicyReject) Kind() Kind    { return KindPolicy }

func NewPolicyReject(reason string) *PolicyReject { return &PolicyReject{Reason: reason} }

// TransportError marks a failed notification dispatch. The Alert Gate
// retries per the documented backoff before giving up.
type TransportError struct {
	Message    string
	RetryAfter int // seconds advertised by the transport, 0 if none
	Original   error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport: %s", e.Message) }
func (e *TransportError) Unwrap() error { return e.Original }
func (e *TransportError) Kind() Kind    { return KindTransport }

func NewTransportError(msg string, retryAfter int, orig error) *TransportError {
	return &TransportError{Message: msg, RetryAfter: retryAfter, Original: orig}
}

// StateStoreError marks the shared KV store unreachable. The worker that
// hits this marks itself unhealthy; the orchestrator's supervisor notes it
// and, past a configurable threshold, escalates to a logged critical
// condition without aborting the process.
type StateStoreError struct {
	Op       string
	Original error
}

func (e *StateStoreError) Error() string { return fmt.Sprintf("state store %s: %v", e.Op, e.Original) }
func (e *StateStoreError) Unwrap() error { return e.Original }
func (e *StateStoreError) Kind() Kind    { return KindStateStore }

func NewStateStoreError(op string, orig error) *StateStoreError {
	return &StateStoreError{Op: op, Original: orig}
}

// Fatal is the only kind allowed to abort the process. main checks for it
// at startup (bad config, missing required env var) and calls os.Exit(1)
// after logging.
type Fatal struct {
	Message  string
	Original error
}

func (e *Fatal) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("fatal: %s: %v", e.Message, e.Original)
	}
	return fmt.Sprintf("fatal: %s", e.Message)
}
func (e *Fatal) Unwrap() error { return e.Original }
func (e *Fatal) Kind() Kind    { return KindFatal }

func NewFatal(msg string, orig error) *Fatal { return &Fatal{Message: msg, Original: orig} }
