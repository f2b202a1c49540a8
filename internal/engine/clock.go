package engine

import (
	"time"

	"cloud.google.com/go/civil"
)

// Clock supplies the current instant and calendar date in one canonical
// time zone. Every "today" decision in the engine goes through it.
type Clock interface {
	Now() time.Time
	Today() civil.Date
}

// SystemClock reads the wall clock in a fixed location.
//
// Thread-safety: SystemClock is immutable and safe for concurrent use.
type SystemClock struct {
	loc *time.Location
}

// NewSystemClock creates a clock for loc. A nil loc means UTC.
func NewSystemClock(loc *time.Location) *SystemClock {
	if loc == nil {
		loc = time.UTC
	}
	return &SystemClock{loc: loc}
}

// Now returns the current time in the clock's location.
func (c *SystemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// Today returns the calendar date of Now.
func (c *SystemClock) Today() civil.Date {
	return civil.DateOf(c.Now())
}

// Location returns the canonical time zone.
func (c *SystemClock) Location() *time.Location {
	return c.loc
}
