// Package clock supplies the current business time. Every "today" decision
// in the application goes through a Clock so that date bucketing does not
// depend on the host timezone.
package clock

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day layout used for day buckets.
const DateLayout = "2006-01-02"

// DefaultOffset is the Manaus offset used when none is configured.
const DefaultOffset = -4 * time.Hour

// Clock abstracts time retrieval for deterministic testing.
type Clock interface {
	Now() time.Time
}

// Business reports wall-clock time in a single fixed operating timezone.
type Business struct {
	loc *time.Location
}

// NewBusiness returns a Business clock at the given UTC offset.
func NewBusiness(offset time.Duration) Business {
	return Business{loc: Zone(offset)}
}

// Now returns the current instant in the business timezone.
func (b Business) Now() time.Time {
	return time.Now().In(b.Location())
}

// Location returns the business timezone.
func (b Business) Location() *time.Location {
	if b.loc == nil {
		return time.UTC
	}
	return b.loc
}

// Zone builds a fixed zone for a UTC offset, e.g. -4h gives "UTC-04:00".
func Zone(offset time.Duration) *time.Location {
	secs := int(offset / time.Second)
	sign := "+"
	abs := secs
	if secs < 0 {
		sign = "-"
		abs = -secs
	}
	name := fmt.Sprintf("UTC%s%02d:%02d", sign, abs/3600, (abs%3600)/60)
	return time.FixedZone(name, secs)
}

// Fixed always returns the same instant.
type Fixed time.Time

// Now implements Clock.
func (f Fixed) Now() time.Time { return time.Time(f) }

// Day formats t as a calendar day in t's own location.
func Day(t time.Time) string {
	return t.Format(DateLayout)
}

// MinutesOfDay returns minutes elapsed since midnight in t's location.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
