package market

import "time"

// Session describes the trading day of an instrument. Open/Close are
// clock times in the session's location; the spread optimizer widens quotes
// near both edges of the day.
type Session struct {
	Open  time.Duration // offset from midnight, e.g. 9h30m
	Close time.Duration // offset from midnight, e.g. 16h
	Loc   *time.Location
}

// DefaultSession is a 09:30-16:00 UTC day, the usual equities shape.
func DefaultSession() Session {
	return Session{
		Open:  9*time.Hour + 30*time.Minute,
		Close: 16 * time.Hour,
		Loc:   time.UTC,
	}
}

func (s Session) location() *time.Location {
	if s.Loc == nil {
		return time.UTC
	}
	return s.Loc
}

// sinceMidnight returns t's offset into its day.
func (s Session) sinceMidnight(t time.Time) time.Duration {
	t = t.In(s.location())
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, s.location())
	return t.Sub(midnight)
}

// NearOpen reports whether t falls within window of the session open,
// on either side of it.
func (s Session) NearOpen(t time.Time, window time.Duration) bool {
	d := s.sinceMidnight(t) - s.Open
	if d < 0 {
		d = -d
	}
	return d <= window
}

// NearClose reports whether t falls within window of the session close.
func (s Session) NearClose(t time.Time, window time.Duration) bool {
	d := s.sinceMidnight(t) - s.Close
	if d < 0 {
		d = -d
	}
	return d <= window
}
