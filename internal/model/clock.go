package model

import "time"

// Clock supplies the current moment. Domain code never calls time.Now
// directly so lifecycle rules stay testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct {
	loc *time.Location
}

// NewSystemClock returns a Clock reporting wall time in loc.
func NewSystemClock(loc *time.Location) Clock {
	return systemClock{loc: loc}
}

func (c systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}
