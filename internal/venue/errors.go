package venue

import (
	"context"
	"errors"
	"net/http"

	"arbiscan/internal/errs"
)

// classifyHTTPErr maps a transport-level failure from an adapter's doGet into the
// §4.1 VenueError taxonomy: timeout, transport, parse, rate_limited,
// http_error.
func classifyHTTPErr(venueID string, err error, status int) error {
	if err == nil && status == 0 {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.NewVenueError(venueID, errs.VenueTimeout, "request timed out", 0, err)
	}
	if status == http.StatusTooManyRequests {
		return errs.NewVenueError(venueID, errs.VenueRateLimited, "rate limited", status, err)
	}
	if status >= 400 {
		return errs.NewVenueError(venueID, errs.VenueHTTPError, "non-2xx response", status, err)
	}
	if err != nil {
		return errs.NewVenueError(venueID, errs.VenueTransport, err.Error(), 0, err)
	}
	return nil
}

func parseErr(venueID string, err error) error {
	return errs.NewVenueError(venueID, errs.VenueParse, "malformed response body: "+err.Error(), 0, err)
}
