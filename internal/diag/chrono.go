package diag

import "time"

// Chrono is an event time-stamper (spec.md §6: "Chrono::timestamp()"),
// the minimal capability the estimators fall back to when a caller
// does not supply its own callTime.
type Chrono struct{}

// Timestamp returns the current wall-clock time in nanoseconds.
func (Chrono) Timestamp() int64 {
	return time.Now().UnixNano()
}
