// Package week maps "{year}-W{week}" identifiers to the six business days
// (Monday to Saturday) shown in every weekly grid, and back.
package week

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"lidercheck/internal/clock"
)

// BusinessDays is the number of days in a weekly grid. Sunday is a
// non-working day and never appears.
const BusinessDays = 6

// ErrMalformed reports an identifier without a usable "{year}-W{week}" shape.
// Callers treat it as "no week selected".
var ErrMalformed = errors.New("week: malformed identifier")

// Week is a resolved week identifier.
type Week struct {
	Year   int
	Number int
	Monday time.Time
	// Days holds Monday..Saturday as YYYY-MM-DD.
	Days []string
}

// ID returns the canonical identifier, e.g. "2024-W01".
func (w Week) ID() string {
	return fmt.Sprintf("%d-W%02d", w.Year, w.Number)
}

// Contains reports whether day (YYYY-MM-DD) is one of the week's business days.
func (w Week) Contains(day string) bool {
	return w.Index(day) >= 0
}

// Index returns the position of day within Days, or -1.
func (w Week) Index(day string) int {
	for i, d := range w.Days {
		if d == day {
			return i
		}
	}
	return -1
}

// Parse splits an identifier into year and week number.
func Parse(id string) (year, number int, err error) {
	parts := strings.Split(strings.TrimSpace(id), "-W")
	if len(parts) != 2 {
		return 0, 0, ErrMalformed
	}
	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, ErrMalformed
	}
	number, err = strconv.Atoi(parts[1])
	if err != nil || number < 1 || number > 53 {
		return 0, 0, ErrMalformed
	}
	return year, number, nil
}

// Resolve returns the Monday and the six business days of the identified week.
func Resolve(id string) (Week, error) {
	year, number, err := Parse(id)
	if err != nil {
		return Week{}, err
	}
	return Of(year, number), nil
}

// Of resolves a year and week number. The representative date is taken from
// the week that contains January 4th, so week 1 is always the first week with
// a Thursday, matching NumberOf.
func Of(year, number int) Week {
	rep := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC).AddDate(0, 0, (number-1)*7)
	monday := MondayOf(rep)

	days := make([]string, BusinessDays)
	for i := range days {
		days[i] = clock.Day(monday.AddDate(0, 0, i))
	}
	return Week{Year: year, Number: number, Monday: monday, Days: days}
}

// MondayOf shifts d back to the Monday of its week. Sunday counts as day 7.
func MondayOf(d time.Time) time.Time {
	wd := int(d.Weekday())
	offset := wd - 1
	if wd == 0 {
		offset = 6
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location()).AddDate(0, 0, -offset)
}

// NumberOf returns the ISO week number of d's calendar day.
func NumberOf(d time.Time) int {
	_, n := isoYearWeek(d)
	return n
}

// IdentifierOf returns the identifier whose week contains d.
func IdentifierOf(d time.Time) string {
	y, n := isoYearWeek(d)
	return fmt.Sprintf("%d-W%02d", y, n)
}

func isoYearWeek(d time.Time) (int, int) {
	t := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	t = t.AddDate(0, 0, 4-wd)
	yearStart := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	days := t.Sub(yearStart).Hours() / 24
	return t.Year(), int(math.Ceil((days + 1) / 7))
}
