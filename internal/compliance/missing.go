package compliance

import (
	"lidercheck/internal/checklist"
	"lidercheck/internal/clock"
)

// MissingLeaders returns, as of now, the names of leaders with no log dated
// today whose shift cutoff has passed. Leaders without a known shift are
// listed as soon as their log is absent.
func (b *Builder) MissingLeaders(users []checklist.User, logs []checklist.Log) []string {
	now := b.Clock.Now()
	today := clock.Day(now)
	minutes := clock.MinutesOfDay(now)

	submitted := make(map[string]bool)
	for _, l := range logs {
		if l.Day(now.Location()) == today {
			submitted[l.UserID] = true
		}
	}

	var names []string
	for _, leader := range b.Keywords.Leaders(users) {
		if submitted[leader.Matricula] {
			continue
		}
		if cutoff, ok := b.Cutoffs[leader.Shift]; ok && minutes < cutoff {
			continue
		}
		names = append(names, leader.Name)
	}
	return names
}
