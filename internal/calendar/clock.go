package calendar

import "time"

// Clock maps instants onto dates in the configured zone. All servers share
// the same zone, so the day cutoff is globally consistent.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

func NewClock(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc, now: time.Now}
}

// FixedClock always reports t. Used by tests and the seed tool.
func FixedClock(t time.Time, loc *time.Location) *Clock {
	c := NewClock(loc)
	c.now = func() time.Time { return t }
	return c
}

func (c *Clock) Now() time.Time           { return c.now() }
func (c *Clock) Today() Date              { return DateOf(c.now(), c.loc) }
func (c *Clock) DateOf(t time.Time) Date  { return DateOf(t, c.loc) }
func (c *Clock) Location() *time.Location { return c.loc }
