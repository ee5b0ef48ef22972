package compliance

import (
	"strings"
	"time"

	"lidercheck/internal/checklist"
	"lidercheck/internal/clock"
	"lidercheck/internal/week"
)

// LeaderCell is one leader-day status. LogID is set when Status is OK.
type LeaderCell struct {
	Date   string `json:"date"`
	Status Status `json:"status"`
	LogID  string `json:"logId,omitempty"`
}

// LeaderRow is one leader's week.
type LeaderRow struct {
	User     checklist.User `json:"user"`
	Statuses []LeaderCell   `json:"statuses"`
}

// LineCell is one line-day status.
type LineCell struct {
	Date       string   `json:"date"`
	Status     Status   `json:"status"`
	LeaderName string   `json:"leaderName,omitempty"`
	LogIDs     []string `json:"logIds"`
	// LogID is the tie-break winner among LogIDs, for single drill-down.
	LogID string `json:"logId,omitempty"`
}

// LineRow is one production line's week.
type LineRow struct {
	Line     string     `json:"line"`
	Statuses []LineCell `json:"statuses"`
}

// bucketByDay groups logs by business day, keeping input order, and drops
// days outside the week.
func bucketByDay(w week.Week, logs []checklist.Log, loc *time.Location) map[string][]checklist.Log {
	out := make(map[string][]checklist.Log, len(w.Days))
	for _, l := range logs {
		day := l.Day(loc)
		if w.Contains(day) {
			out[day] = append(out[day], l)
		}
	}
	return out
}

// Leaders builds the per-leader grid. A leader's cell matches a log the
// leader authored on that day; with a shift filter other than ALL only
// leaders of that shift can match.
func (b *Builder) Leaders(w week.Week, shift string, users []checklist.User, logs []checklist.Log) []LeaderRow {
	now := b.Clock.Now()
	today := clock.Day(now)
	byDay := bucketByDay(w, logs, now.Location())

	leaders := b.Keywords.Leaders(users)
	rows := make([]LeaderRow, 0, len(leaders))
	for _, leader := range leaders {
		inShift := shiftMatches(shift, leader.Shift)
		cells := make([]LeaderCell, 0, len(w.Days))
		for _, day := range w.Days {
			var candidates []checklist.Log
			if inShift {
				for _, l := range byDay[day] {
					if l.UserID == leader.Matricula {
						candidates = append(candidates, l)
					}
				}
			}
			cells = append(cells, b.leaderCell(day, today, candidates))
		}
		rows = append(rows, LeaderRow{User: leader, Statuses: cells})
	}
	return rows
}

func (b *Builder) leaderCell(day, today string, candidates []checklist.Log) LeaderCell {
	if l, ok := b.TieBreak.Pick(candidates); ok {
		return LeaderCell{Date: day, Status: StatusOK, LogID: l.ID}
	}
	if day < today {
		return LeaderCell{Date: day, Status: StatusNG}
	}
	return LeaderCell{Date: day, Status: StatusPending}
}

// Lines builds the per-line grid. A log counts toward a line when its line
// matches and, under a shift filter, its author belongs to that shift.
func (b *Builder) Lines(w week.Week, shift string, lines []string, users []checklist.User, logs []checklist.Log) []LineRow {
	loc := b.Clock.Now().Location()
	authorShift := make(map[string]string, len(users))
	for _, u := range users {
		authorShift[u.Matricula] = u.Shift
	}

	filtered := make([]checklist.Log, 0, len(logs))
	for _, l := range logs {
		if shift == "" || shift == checklist.ShiftAll {
			filtered = append(filtered, l)
			continue
		}
		if s, ok := authorShift[l.UserID]; ok && s == shift {
			filtered = append(filtered, l)
		}
	}
	byDay := bucketByDay(w, filtered, loc)

	rows := make([]LineRow, 0, len(lines))
	for _, line := range lines {
		cells := make([]LineCell, 0, len(w.Days))
		for _, day := range w.Days {
			var candidates []checklist.Log
			for _, l := range byDay[day] {
				if l.Line == line {
					candidates = append(candidates, l)
				}
			}
			cells = append(cells, b.lineCell(day, candidates))
		}
		rows = append(rows, LineRow{Line: line, Statuses: cells})
	}
	return rows
}

func (b *Builder) lineCell(day string, candidates []checklist.Log) LineCell {
	if len(candidates) == 0 {
		return LineCell{Date: day, Status: StatusPending, LogIDs: []string{}}
	}

	status := StatusOK
	seen := make(map[string]bool)
	var names []string
	ids := make([]string, 0, len(candidates))
	for _, l := range candidates {
		if l.NGCount > 0 {
			status = StatusNG
		}
		if first := checklist.FirstName(l.UserName); !seen[first] {
			seen[first] = true
			names = append(names, first)
		}
		ids = append(ids, l.ID)
	}
	winner, _ := b.TieBreak.Pick(candidates)

	return LineCell{
		Date:       day,
		Status:     status,
		LeaderName: strings.Join(names, " / "),
		LogIDs:     ids,
		LogID:      winner.ID,
	}
}
