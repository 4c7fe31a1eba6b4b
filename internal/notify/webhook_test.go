package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestWebhookTransport_TruncatesLongMessages(t *testing.T) {
	var gotLen int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, maxMessageBytes+100)
		n, _ := r.Body.Read(buf)
		gotLen = n
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wt := NewWebhookTransport(srv.URL, srv.Client())
	err := wt.Send(context.Background(), Message{Text: strings.Repeat("x", maxMessageBytes+500)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLen > maxMessageBytes {
		t.Errorf("expected body truncated to %d bytes, got %d", maxMessageBytes, gotLen)
	}
}

func TestWebhookTransport_RateLimitsToOnePerSecond(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wt := NewWebhookTransport(srv.URL, srv.Client())
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := wt.Send(context.Background(), Message{Text: "hi"}); err != nil {
			t.Fatalf("unexpected error on send %d: %v", i, err)
		}
	}
	elapsed := time.Since(start)
	if elapsed < 2*time.Second {
		t.Errorf("expected 3 sends at <=1/sec to take at least ~2s, took %v", elapsed)
	}
}

func TestWebhookTransport_ParsesRateLimitResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", strconv.Itoa(30))
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	wt := NewWebhookTransport(srv.URL, srv.Client())
	err := wt.Send(context.Background(), Message{Text: "hi"})
	rlErr, ok := err.(*RateLimitError)
	if !ok {
		t.Fatalf("expected *RateLimitError, got %T (%v)", err, err)
	}
	if rlErr.RetryAfter != 30*time.Second {
		t.Errorf("expected RetryAfter 30s, got %v", rlErr.RetryAfter)
	}
}

func TestWebhookTransport_ErrorsOnServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	wt := NewWebhookTransport(srv.URL, srv.Client())
	if err := wt.Send(context.Background(), Message{Text: "hi"}); err == nil {
		t.Fatal("expected an error for a 500 response")
	}
}
