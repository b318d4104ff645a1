package market

import "errors"

// ErrUnavailable marks data that could not be obtained: a missing credential,
// an exhausted retry budget, or an upstream "no data" sentinel. It is the
// typed replacement for the silent nil the source system used; callers treat
// it as a degraded result, never as a crash.
var ErrUnavailable = errors.New("market: data unavailable")

// Unavailable reports whether err represents absent-but-non-fatal data.
func Unavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
