// Package clock lets services ask for "today" without reaching for time.Now,
// so date-sensitive code can be tested against a fixed instant.
package clock

import "time"

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Clock reports the current instant.
type Clock interface {
	Now() time.Time
}

type realClock struct {
	loc *time.Location
}

// Real returns the wall clock in loc. A nil loc means time.Local.
func Real(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return realClock{loc: loc}
}

func (c realClock) Now() time.Time { return time.Now().In(c.loc) }

// Fixed always returns t until Set is called.
type Fixed struct {
	t time.Time
}

func NewFixed(t time.Time) *Fixed { return &Fixed{t: t} }

func (f *Fixed) Now() time.Time { return f.t }

func (f *Fixed) Set(t time.Time) { f.t = t }

// Today formats the clock's current date as YYYY-MM-DD.
func Today(c Clock) string {
	return c.Now().Format(DateLayout)
}
