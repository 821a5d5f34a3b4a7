package clock

import "time"

// Clock abstracts wall-clock reads so that date-sensitive rules
// (retroactive check-ins, pending-hold expiry) stay deterministic in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// System returns a Clock backed by time.Now.
func System() Clock { return systemClock{} }

// Fixed returns a Clock frozen at the given instant.
func Fixed(t time.Time) Clock { return fixedClock{t: t.UTC()} }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }
