package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	maxMessageBytes  = 4096
	messagesPerSec   = 1
	messagesPerMin   = 20
)

// WebhookTransport posts a truncated message body to a single configured
// URL, rate-limited to <= 1/sec and <= 20/min so a burst of signals cannot
// itself trip the receiving side's own throttling.
type WebhookTransport struct {
	url        string
	httpClient *http.Client
	perSecond  *rate.Limiter
	perMinute  *rate.Limiter
}

func NewWebhookTransport(url string, httpClient *http.Client) *WebhookTransport {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookTransport{
		url:        url,
		httpClient: httpClient,
		perSecond:  rate.NewLimiter(rate.Limit(messagesPerSec), 1),
		perMinute:  rate.NewLimiter(rate.Limit(float64(messagesPerMin)/60.0), messagesPerMin),
	}
}

func (w *WebhookTransport) Send(ctx context.Context, msg Message) error {
	if err := w.perSecond.Wait(ctx); err != nil {
		return err
	}
	if err := w.perMinute.Wait(ctx); err != nil {
		return err
	}

	body := msg.Text
	if len(body) > maxMessageBytes {
		body = body[:maxMessageBytes]
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewBufferString(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 5 * time.Second
		if v := resp.Header.Get("Retry-After"); v != "" {
			if secs, err := strconv.Atoi(v); err == nil {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return &RateLimitError{RetryAfter: retryAfter}
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
