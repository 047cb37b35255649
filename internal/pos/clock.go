package pos

import "time"

// Clock abstracts wall time so the re-tap grouping window and timestamp-based
// ids stay deterministic in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the Clock used outside of tests.
var SystemClock Clock = systemClock{}
