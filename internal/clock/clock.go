// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts time lookups so elapsed-time reporting is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// System is a Clock backed by the system time.
type System struct{}

func (System) Now() time.Time {
	return time.Now()
}

// Fake is a Clock whose time only moves when told to.
type Fake struct {
	current time.Time
}

// NewFake creates a Fake clock pinned at t.
func NewFake(t time.Time) *Fake {
	return &Fake{current: t}
}

func (f *Fake) Now() time.Time {
	return f.current
}

// Advance moves the fake time forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.current = f.current.Add(d)
}
