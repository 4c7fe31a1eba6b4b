package validator

import "math"

// sqrtFloat is isolated in its own file so the one unavoidable float
// conversion (decimal lacks a native sqrt) is visible and auditable at a
// glance; everything else in this package stays decimal end to end.
func sqrtFloat(v float64) float64 {
	return math.Sqrt(v)
}
