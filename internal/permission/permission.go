// Package permission decides role to module access from a sparse override
// table with per-module defaults.
package permission

import (
	"fmt"
	"strings"

	"lidercheck/internal/checklist"
)

// Module is a closed set of gated application areas.
type Module string

const (
	Checklist   Module = "CHECKLIST"
	Meeting     Module = "MEETING"
	Maintenance Module = "MAINTENANCE"
	Audit       Module = "AUDIT"
	Admin       Module = "ADMIN"
)

// Modules lists every module in display order.
var Modules = []Module{Checklist, Meeting, Maintenance, Audit, Admin}

// ParseModule validates a module name.
func ParseModule(s string) (Module, error) {
	m := Module(strings.ToUpper(strings.TrimSpace(s)))
	switch m {
	case Checklist, Meeting, Maintenance, Audit, Admin:
		return m, nil
	}
	return "", fmt.Errorf("unknown module %q", s)
}

// Default is the access applied when no explicit row exists.
func (m Module) Default() bool {
	switch m {
	case Checklist, Meeting, Maintenance:
		return true
	case Audit, Admin:
		return false
	}
	return false
}

// Rule is one explicit override row. (Role, Module) is unique.
type Rule struct {
	Role    string `json:"role"`
	Module  Module `json:"module"`
	Allowed bool   `json:"allowed"`
}

type key struct {
	role   string
	module Module
}

// SuperAdmin identifies accounts that bypass the table.
type SuperAdmin struct {
	Matricula string
	Roles     []string
}

// Is reports whether u is a super-admin.
func (s SuperAdmin) Is(u checklist.User) bool {
	if u.IsAdmin {
		return true
	}
	if s.Matricula != "" && u.Matricula == s.Matricula {
		return true
	}
	for _, r := range s.Roles {
		if r != "" && u.Role == r {
			return true
		}
	}
	return false
}

// Gate evaluates access decisions.
type Gate struct {
	super SuperAdmin
	rules map[key]bool
}

// NewGate indexes rules. A later duplicate (role, module) row wins.
func NewGate(super SuperAdmin, rules []Rule) *Gate {
	g := &Gate{super: super, rules: make(map[key]bool, len(rules))}
	for _, r := range rules {
		g.rules[key{role: r.Role, module: r.Module}] = r.Allowed
	}
	return g
}

// Allowed reports whether u may enter module m.
func (g *Gate) Allowed(u checklist.User, m Module) bool {
	if g.super.Is(u) {
		return true
	}
	if allowed, ok := g.rules[key{role: u.Role, module: m}]; ok {
		return allowed
	}
	return m.Default()
}

// Toggle flips an explicit row, or creates an allowed row when none exists,
// and returns the updated table.
func Toggle(rules []Rule, role string, m Module) []Rule {
	out := make([]Rule, 0, len(rules)+1)
	next := true
	for _, r := range rules {
		if r.Role == role && r.Module == m {
			next = !r.Allowed
			continue
		}
		out = append(out, r)
	}
	return append(out, Rule{Role: role, Module: m, Allowed: next})
}
