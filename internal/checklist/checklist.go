// Package checklist holds the shift-checklist data model shared by the
// store, the compliance matrices and the report assembler.
package checklist

import (
	"strings"
	"time"

	"lidercheck/internal/clock"
)

// Response is a single checklist answer.
type Response string

const (
	OK Response = "OK"
	NG Response = "NG"
	NA Response = "N/A"
)

// Valid reports whether r is one of OK, NG, N/A.
func (r Response) Valid() bool {
	switch r {
	case OK, NG, NA:
		return true
	}
	return false
}

// ItemType separates the leader checklist from machine maintenance items.
type ItemType string

const (
	ItemLeader      ItemType = "LEADER"
	ItemMaintenance ItemType = "MAINTENANCE"
)

// Normalize applies the persisted default: absent type means LEADER.
func (t ItemType) Normalize() ItemType {
	if t == "" {
		return ItemLeader
	}
	return t
}

// LogType separates production checklists from maintenance checklists.
type LogType string

const (
	LogProduction  LogType = "PRODUCTION"
	LogMaintenance LogType = "MAINTENANCE"
)

// Normalize applies the persisted default: absent type means PRODUCTION.
func (t LogType) Normalize() LogType {
	if t == "" {
		return LogProduction
	}
	return t
}

// Shift filter values.
const (
	Shift1   = "1"
	Shift2   = "2"
	ShiftAll = "ALL"
)

// User is an application user. Matricula is the unique identity.
type User struct {
	Matricula string `json:"matricula"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Shift     string `json:"shift,omitempty"`
	Email     string `json:"email,omitempty"`
	IsAdmin   bool   `json:"isAdmin"`
}

// FirstName returns the text before the first space of the name.
func FirstName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.IndexByte(name, ' '); i >= 0 {
		return name[:i]
	}
	return name
}

// Item is a configured checklist prompt.
type Item struct {
	ID       string   `json:"id"`
	Category string   `json:"category"`
	Text     string   `json:"text"`
	Evidence string   `json:"evidence,omitempty"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Type     ItemType `json:"type,omitempty"`
}

// Evidence documents an NG answer.
type Evidence struct {
	Comment string `json:"comment"`
	Photo   string `json:"photo,omitempty"`
}

// Log is one checklist submission.
type Log struct {
	ID                string              `json:"id"`
	UserID            string              `json:"userId"`
	UserName          string              `json:"userName"`
	UserRole          string              `json:"userRole"`
	Line              string              `json:"line"`
	Date              time.Time           `json:"date"`
	ItemsCount        int                 `json:"itemsCount"`
	NGCount           int                 `json:"ngCount"`
	Observation       string              `json:"observation"`
	Data              map[string]Response `json:"data"`
	EvidenceData      map[string]Evidence `json:"evidenceData,omitempty"`
	Type              LogType             `json:"type,omitempty"`
	MaintenanceTarget string              `json:"maintenanceTarget,omitempty"`
}

// Day returns the calendar day of the submission in loc.
func (l Log) Day(loc *time.Location) string {
	return clock.Day(l.Date.In(loc))
}

// CountNG counts NG answers.
func (l Log) CountNG() int {
	n := 0
	for _, r := range l.Data {
		if r == NG {
			n++
		}
	}
	return n
}

// Meeting is an append-only meeting record.
type Meeting struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Date         time.Time `json:"date"`
	StartTime    string    `json:"startTime"`
	EndTime      string    `json:"endTime,omitempty"`
	PhotoURL     string    `json:"photoUrl,omitempty"`
	Participants []string  `json:"participants"`
	Topics       string    `json:"topics"`
	CreatedBy    string    `json:"createdBy"`
}
