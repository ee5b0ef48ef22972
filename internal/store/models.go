package store

import (
	"time"

	"github.com/uptrace/bun"
)

// userRecord models the users row.
type userRecord struct {
	bun.BaseModel `bun:"table:users"`

	Matricula    string `bun:"matricula,pk"`
	Name         string `bun:"name"`
	Role         string `bun:"role"`
	Shift        string `bun:"shift"`
	Email        string `bun:"email"`
	PasswordHash string `bun:"password_hash"`
	IsAdmin      bool   `bun:"is_admin"`
}

// logRecord models the logs row. Answers, evidence, type and maintenance
// target travel together in Data. Type is copied into its own column so
// queries can filter on it.
type logRecord struct {
	bun.BaseModel `bun:"table:logs"`

	ID          string    `bun:"id,pk"`
	UserID      string    `bun:"user_id"`
	UserName    string    `bun:"user_name"`
	UserRole    string    `bun:"user_role"`
	Line        string    `bun:"line"`
	Date        time.Time `bun:"date"`
	ItemsCount  int       `bun:"items_count"`
	NGCount     int       `bun:"ng_count"`
	Observation string    `bun:"observation"`
	Data        string    `bun:"data"`
	Type        string    `bun:"type"`
}

// meetingRecord models the meetings row.
type meetingRecord struct {
	bun.BaseModel `bun:"table:meetings"`

	ID           string    `bun:"id,pk"`
	Title        string    `bun:"title"`
	Date         time.Time `bun:"date"`
	StartTime    string    `bun:"start_time"`
	EndTime      string    `bun:"end_time"`
	PhotoURL     string    `bun:"photo_url"`
	Participants []string  `bun:"participants"`
	Topics       string    `bun:"topics"`
	CreatedBy    string    `bun:"created_by"`
}

type itemRecord struct {
	bun.BaseModel `bun:"table:config_items"`

	ID       string `bun:"id,pk"`
	Position int    `bun:"position"`
	Category string `bun:"category"`
	Text     string `bun:"text"`
	Evidence string `bun:"evidence"`
	ImageURL string `bun:"image_url"`
	Type     string `bun:"type"`
}

type lineRecord struct {
	bun.BaseModel `bun:"table:config_lines"`

	Name     string `bun:"name,pk"`
	Position int    `bun:"position"`
}

type roleRecord struct {
	bun.BaseModel `bun:"table:config_roles"`

	Name     string `bun:"name,pk"`
	Position int    `bun:"position"`
}

type permissionRecord struct {
	bun.BaseModel `bun:"table:config_permissions"`

	Role    string `bun:"role,pk"`
	Module  string `bun:"module,pk"`
	Allowed bool   `bun:"allowed"`
}

type versionRecord struct {
	bun.BaseModel `bun:"table:config_versions"`

	Name    string `bun:"name,pk"`
	Version int64  `bun:"version"`
}

type migrationRecord struct {
	bun.BaseModel `bun:"table:schema_migrations"`

	Name      string    `bun:"name,pk"`
	AppliedAt time.Time `bun:"applied_at"`
}
