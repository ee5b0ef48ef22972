package main

import (
	"time"

	"lidercheck/internal/checklist"
	"lidercheck/internal/compliance"
	"lidercheck/internal/permission"
	"lidercheck/internal/view"
)

// maskedPassword is what the admin screen sends back for an untouched
// password field.
const maskedPassword = "******"

type credentials struct {
	Matricula string `json:"matricula" validate:"required"`
	Password  string `json:"password" validate:"required"`
}

type registerRequest struct {
	Matricula string `json:"matricula" validate:"required,max=64"`
	Name      string `json:"name" validate:"required,max=120"`
	Role      string `json:"role" validate:"required"`
	Shift     string `json:"shift" validate:"required,oneof=1 2"`
	Email     string `json:"email" validate:"omitempty,email"`
	Password  string `json:"password" validate:"required,min=4"`
}

type userRequest struct {
	Matricula string `json:"matricula" validate:"required,max=64"`
	Name      string `json:"name" validate:"required,max=120"`
	Role      string `json:"role" validate:"required"`
	Shift     string `json:"shift" validate:"omitempty,oneof=1 2"`
	Email     string `json:"email" validate:"omitempty,email"`
	Password  string `json:"password"`
	IsAdmin   bool   `json:"isAdmin"`
}

// sessionResponse answers login and check-auth.
type sessionResponse struct {
	User    checklist.User             `json:"user"`
	Modules map[permission.Module]bool `json:"modules"`
	Menu    []view.View                `json:"menu"`
}

type logRequest struct {
	ID                string                        `json:"id" validate:"required"`
	Line              string                        `json:"line"`
	Date              *time.Time                    `json:"date"`
	Observation       string                        `json:"observation"`
	Data              map[string]checklist.Response `json:"data" validate:"required,min=1"`
	EvidenceData      map[string]checklist.Evidence `json:"evidenceData"`
	Type              checklist.LogType             `json:"type" validate:"omitempty,oneof=PRODUCTION MAINTENANCE"`
	MaintenanceTarget string                        `json:"maintenanceTarget"`
}

type itemsRequest struct {
	Items   []checklist.Item `json:"items" validate:"dive"`
	Version *int64           `json:"version"`
}

type namesRequest struct {
	Names   []string `json:"names"`
	Version *int64   `json:"version"`
}

type permissionsRequest struct {
	Rules   []permission.Rule `json:"rules" validate:"dive"`
	Version *int64            `json:"version"`
}

type toggleRequest struct {
	Role   string `json:"role" validate:"required"`
	Module string `json:"module" validate:"required"`
}

type versionResponse struct {
	Version int64 `json:"version"`
}

type meetingRequest struct {
	ID           string     `json:"id"`
	Title        string     `json:"title" validate:"required"`
	Date         *time.Time `json:"date"`
	StartTime    string     `json:"startTime" validate:"required"`
	EndTime      string     `json:"endTime"`
	PhotoURL     string     `json:"photoUrl"`
	Participants []string   `json:"participants" validate:"required,min=1"`
	Topics       string     `json:"topics" validate:"required"`
}

type weeklyRequest struct {
	Line  string `json:"line" validate:"required"`
	Shift string `json:"shift" validate:"required,oneof=1 2"`
	Week  string `json:"week" validate:"required"`
}

type backupRequest struct {
	FileName string `json:"fileName" validate:"required"`
	Data     string `json:"data" validate:"required"`
}

type backupResponse struct {
	File string `json:"file"`
}

// leaderAudit is the leader dashboard payload. Week is empty when no valid
// week was selected.
type leaderAudit struct {
	Week    string                 `json:"week"`
	Days    []string               `json:"days"`
	Rows    []compliance.LeaderRow `json:"rows"`
	Missing []string               `json:"missing"`
}

type lineAudit struct {
	Week string               `json:"week"`
	Days []string             `json:"days"`
	Rows []compliance.LineRow `json:"rows"`
}

type missingResponse struct {
	Missing []string `json:"missing"`
}

type reportFile struct {
	Name string
	Data []byte
}
