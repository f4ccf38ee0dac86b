package clock

import "time"

// Clock abstracts wall-clock reads. Workflow timestamps (approvals,
// decisions, status changes) always come from an injected Clock so tests can
// pin them.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock. All timestamps are UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Fixed returns a Clock pinned to a single instant, normalised to UTC.
func Fixed(t time.Time) Clock { return fixedClock{t: t.UTC()} }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }
