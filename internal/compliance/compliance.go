// Package compliance derives attendance grids from checklist submissions:
// a per-leader and a per-line status for each business day of a week, and
// the live list of leaders who are late for today's checklist.
//
// Everything here is a pure read-side aggregation recomputed on every call.
package compliance

import (
	"fmt"
	"strings"

	"lidercheck/internal/checklist"
	"lidercheck/internal/clock"
)

// Status is the derived state of one grid cell.
type Status string

const (
	StatusOK      Status = "OK"
	StatusNG      Status = "NG"
	StatusPending Status = "PENDING"
)

// TieBreak chooses one log when several compete for the same slot.
type TieBreak string

const (
	// FirstFound keeps the first log in input order.
	FirstFound TieBreak = "first"
	// MostRecent keeps the log with the latest date.
	MostRecent TieBreak = "recent"
)

// ParseTieBreak validates a configured tie-break name.
func ParseTieBreak(s string) (TieBreak, error) {
	switch tb := TieBreak(strings.ToLower(strings.TrimSpace(s))); tb {
	case "", FirstFound:
		return FirstFound, nil
	case MostRecent:
		return MostRecent, nil
	default:
		return "", fmt.Errorf("unknown tie-break %q", s)
	}
}

// Pick returns the winning log among candidates.
func (tb TieBreak) Pick(candidates []checklist.Log) (checklist.Log, bool) {
	if len(candidates) == 0 {
		return checklist.Log{}, false
	}
	best := candidates[0]
	if tb != MostRecent {
		return best, true
	}
	for _, l := range candidates[1:] {
		if l.Date.After(best.Date) {
			best = l
		}
	}
	return best, true
}

// Cutoffs maps a shift to the minute of the business day after which a
// missing checklist is overdue. Shifts without an entry are always overdue.
type Cutoffs map[string]int

// DefaultCutoffs are 07:30 for shift 1 and 17:30 for shift 2.
var DefaultCutoffs = Cutoffs{
	checklist.Shift1: 7*60 + 30,
	checklist.Shift2: 17*60 + 30,
}

// Builder computes grids against a business clock.
type Builder struct {
	Clock    clock.Clock
	Keywords checklist.LeaderKeywords
	TieBreak TieBreak
	Cutoffs  Cutoffs
}

// NewBuilder returns a Builder with the default keywords and cutoffs.
func NewBuilder(c clock.Clock, tb TieBreak) *Builder {
	return &Builder{
		Clock:    c,
		Keywords: checklist.LeaderKeywords(checklist.DefaultLeaderKeywords),
		TieBreak: tb,
		Cutoffs:  DefaultCutoffs,
	}
}

func shiftMatches(filter, shift string) bool {
	return filter == "" || filter == checklist.ShiftAll || filter == shift
}
