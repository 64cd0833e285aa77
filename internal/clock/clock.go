// Package clock converts the absolute deadlines accepted by rwspin's timed
// acquire variants into a single nanosecond-scale comparison against the
// monotonic clock, so timed loops never need to special-case wall-clock
// adjustments.
package clock

import "time"

// Source supplies the current time; it exists so callers (and tests) can
// substitute a fake clock without perturbing the monotonic-reading contract
// that time.Now() provides in production.
type Source func() time.Time

// Real is the production Source: time.Now(), which on every supported
// platform carries a monotonic reading alongside its wall-clock value.
func Real() time.Time { return time.Now() }

// Expired reports whether deadline has already passed as observed by now.
// Both values are compared with their monotonic component when present,
// exactly as time.Time.Before does, so a deadline built from time.Now()
// plus a duration is immune to wall-clock adjustments made while a caller
// is spinning. Implemented in terms of Remaining so the two never disagree.
func Expired(now, deadline time.Time) bool {
	_, expired := Remaining(now, deadline)
	return expired
}

// Remaining returns the nanoseconds left until deadline, and whether it has
// already passed. A negative or zero remaining duration is reported as
// expired.
func Remaining(now, deadline time.Time) (ns int64, expired bool) {
	d := deadline.Sub(now)
	if d <= 0 {
		return 0, true
	}
	return int64(d), false
}
