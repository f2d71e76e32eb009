// Package ranges maps a requested display range onto a provider
// sampling interval, a lookback start and a cache TTL.
package ranges

import "time"

// Resolution is the fetch policy for one display range.
type Resolution struct {
	// Interval is the provider bar size, e.g. "5m" or "1d".
	Interval string
	// Start is the lookback boundary. It deliberately overshoots the
	// nominal range so at least one full trading session is captured
	// across weekends and timezones; callers trim if they need an exact
	// window.
	Start time.Time
	// TTL scales with how quickly the data goes stale: intraday bars in
	// minutes, multi-year charts in a day.
	TTL time.Duration
}

// Supported range identifiers. These are stable strings because they are
// embedded in cache keys.
const (
	Range1D  = "1d"
	Range5D  = "5d"
	Range1Mo = "1mo"
	Range6Mo = "6mo"
	RangeYTD = "ytd"
	Range1Y  = "1y"
	Range5Y  = "5y"
)

// Canonical folds a requested range onto the identifier of the policy
// bucket that serves it: aliases map to their bucket and anything
// unknown maps to the one-month default. Cache keys must be built from
// this value, never from the caller's raw text, so equivalent requests
// share one entry instead of fragmenting the cache.
func Canonical(rng string) string {
	switch rng {
	case Range1D, Range5D, Range1Mo, Range6Mo, RangeYTD, Range1Y, Range5Y:
		return rng
	case "1w":
		// Legacy alias for the five-day window.
		return Range5D
	default:
		return Range1Mo
	}
}

// Resolve returns the fetch policy for rng. Unknown or empty ranges fall
// back to the one-month bucket.
func Resolve(rng string) Resolution {
	return resolveAt(rng, time.Now())
}

func resolveAt(rng string, now time.Time) Resolution {
	switch Canonical(rng) {
	case Range1D:
		return Resolution{Interval: "5m", Start: now.AddDate(0, 0, -2), TTL: 5 * time.Minute}
	case Range5D:
		return Resolution{Interval: "15m", Start: now.AddDate(0, 0, -7), TTL: 15 * time.Minute}
	case Range1Mo:
		return Resolution{Interval: "1d", Start: now.AddDate(0, -1, 0), TTL: time.Hour}
	case Range6Mo:
		return Resolution{Interval: "1d", Start: now.AddDate(0, -6, 0), TTL: 6 * time.Hour}
	case RangeYTD:
		return Resolution{
			Interval: "1d",
			Start:    time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()),
			TTL:      6 * time.Hour,
		}
	case Range1Y:
		return Resolution{Interval: "1d", Start: now.AddDate(-1, 0, 0), TTL: 12 * time.Hour}
	case Range5Y:
		return Resolution{Interval: "1wk", Start: now.AddDate(-5, 0, 0), TTL: 24 * time.Hour}
	default:
		return Resolution{Interval: "1d", Start: now.AddDate(0, -1, 0), TTL: time.Hour}
	}
}
