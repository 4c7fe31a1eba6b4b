// Package notify defines the notification transport boundary: the
// Telegram bot UI and any other downstream subscriber are external
// collaborators (Non-goals), modeled here as an interface only, plus one
// thin concrete webhook sender for operational alerting.
package notify

import (
	"context"
	"time"
)

// RateLimitError is returned by a Transport when the remote side has
// throttled this process; RetryAfter mirrors the server-provided value so
// the Alert Gate can honor it, per §4.8 "Failure semantics".
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string { return "notification transport rate-limited" }

// Message is the rendered, transport-agnostic notification payload.
type Message struct {
	StrategyID string
	Text       string
}

// Transport is the narrow surface the Alert Gate dispatches through.
// WebhookTransport in this package is the one concrete implementation;
// others (Telegram, Slack) live outside this module's Non-goals-bound
// core. Send must not block past ctx's deadline.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}
