package checklist

import "strings"

// DefaultLeaderKeywords are the role fragments that mark a leadership role.
var DefaultLeaderKeywords = []string{"lider", "líder", "supervisor", "coordenador"}

// LeaderKeywords classifies users as leaders by case-insensitive substring
// match on their role text. The set is data, loaded from seed configuration.
type LeaderKeywords []string

// IsLeader reports whether role contains any keyword.
func (k LeaderKeywords) IsLeader(role string) bool {
	role = strings.ToLower(role)
	for _, kw := range k {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(role, kw) {
			return true
		}
	}
	return false
}

// Leaders filters users down to leaders, preserving order.
func (k LeaderKeywords) Leaders(users []User) []User {
	out := make([]User, 0, len(users))
	for _, u := range users {
		if k.IsLeader(u.Role) {
			out = append(out, u)
		}
	}
	return out
}
