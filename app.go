package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"lidercheck/internal/apperr"
	"lidercheck/internal/checklist"
	"lidercheck/internal/clock"
	"lidercheck/internal/compliance"
	"lidercheck/internal/config"
	"lidercheck/internal/permission"
	"lidercheck/internal/report"
	"lidercheck/internal/store"
	"lidercheck/internal/week"
)

type appConfig struct {
	Store     *store.Store
	Clock     clock.Clock
	Seed      config.Seed
	TieBreak  compliance.TieBreak
	Logger    *zap.Logger
	BackupDir string
	// Loader overrides how report images are fetched.
	Loader report.ImageLoader
}

// app holds the services shared by the HTTP handlers and the CLI.
type app struct {
	store     *store.Store
	clock     clock.Clock
	loc       *time.Location
	matrices  *compliance.Builder
	assembler *report.Assembler
	renderer  report.XLSXRenderer
	super     permission.SuperAdmin
	logger    *zap.Logger
	backupDir string
}

func newApp(cfg appConfig) (*app, error) {
	if cfg.Store == nil {
		return nil, errors.New("app: store required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewBusiness(clock.DefaultOffset)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	cutoffs, err := cfg.Seed.ShiftCutoffs()
	if err != nil {
		return nil, err
	}
	loc := cfg.Clock.Now().Location()

	matrices := compliance.NewBuilder(cfg.Clock, cfg.TieBreak)
	matrices.Cutoffs = cutoffs
	if len(cfg.Seed.LeaderKeywords) > 0 {
		matrices.Keywords = checklist.LeaderKeywords(cfg.Seed.LeaderKeywords)
	}

	assembler := report.NewAssembler(cfg.TieBreak, loc, cfg.Logger.Named("report"))
	if cfg.Loader != nil {
		assembler.Loader = cfg.Loader
	}

	return &app{
		store:     cfg.Store,
		clock:     cfg.Clock,
		loc:       loc,
		matrices:  matrices,
		assembler: assembler,
		super:     permission.SuperAdmin{Matricula: cfg.Seed.SuperAdmin.Matricula, Roles: cfg.Seed.SuperAdmin.Roles},
		logger:    cfg.Logger,
		backupDir: cfg.BackupDir,
	}, nil
}

// gate loads the current permission table.
func (a *app) gate(ctx context.Context) (*permission.Gate, error) {
	rules, err := a.store.Permissions(ctx)
	if err != nil {
		return nil, err
	}
	return permission.NewGate(a.super, rules), nil
}

func (a *app) register(ctx context.Context, req registerRequest) (checklist.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return checklist.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := checklist.User{
		Matricula: strings.TrimSpace(req.Matricula),
		Name:      strings.TrimSpace(req.Name),
		Role:      req.Role,
		Shift:     req.Shift,
		Email:     strings.TrimSpace(req.Email),
	}
	if err := a.store.CreateUser(ctx, u, string(hash)); err != nil {
		return checklist.User{}, err
	}
	return u, nil
}

// authenticate checks a matricula and password. Unknown users and wrong
// passwords fail the same way.
func (a *app) authenticate(ctx context.Context, matricula, password string) (checklist.User, error) {
	u, hash, err := a.store.User(ctx, strings.TrimSpace(matricula))
	if errors.Is(err, apperr.ErrNotFound) {
		return checklist.User{}, apperr.NotFound("invalid credentials")
	}
	if err != nil {
		return checklist.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return checklist.User{}, apperr.NotFound("invalid credentials")
	}
	return u, nil
}

func (a *app) updateUser(ctx context.Context, original string, req userRequest) error {
	var hash string
	if req.Password != "" && req.Password != maskedPassword {
		b, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		hash = string(b)
	}
	u := checklist.User{
		Matricula: strings.TrimSpace(req.Matricula),
		Name:      strings.TrimSpace(req.Name),
		Role:      req.Role,
		Shift:     req.Shift,
		Email:     strings.TrimSpace(req.Email),
		IsAdmin:   req.IsAdmin,
	}
	return a.store.UpdateUser(ctx, original, u, hash)
}

// submitLog validates a checklist submission, stamps it with its author and
// the business clock, and stores it. Resubmitting an id replaces the answers.
func (a *app) submitLog(ctx context.Context, author checklist.User, req logRequest) (checklist.Log, error) {
	l := checklist.Log{
		ID:                strings.TrimSpace(req.ID),
		UserID:            author.Matricula,
		UserName:          author.Name,
		UserRole:          author.Role,
		Line:              strings.TrimSpace(req.Line),
		Observation:       req.Observation,
		Data:              req.Data,
		EvidenceData:      req.EvidenceData,
		Type:              req.Type.Normalize(),
		MaintenanceTarget: strings.TrimSpace(req.MaintenanceTarget),
	}
	if l.Type == checklist.LogMaintenance {
		if l.MaintenanceTarget == "" {
			return checklist.Log{}, apperr.Validation("maintenance target is required")
		}
		if l.Line == "" {
			l.Line = l.MaintenanceTarget
		}
	}
	if l.Line == "" {
		return checklist.Log{}, apperr.Validation("line is required")
	}

	for id, r := range l.Data {
		if !r.Valid() {
			return checklist.Log{}, apperr.Validation("item %s: invalid answer %q", id, r)
		}
		if r != checklist.NG {
			continue
		}
		ev := l.EvidenceData[id]
		if strings.TrimSpace(ev.Comment) == "" && strings.TrimSpace(ev.Photo) == "" {
			return checklist.Log{}, apperr.Validation("item %s is NG and needs a comment or photo", id)
		}
	}
	l.ItemsCount = len(l.Data)
	l.NGCount = l.CountNG()

	if req.Date != nil && !req.Date.IsZero() {
		l.Date = *req.Date
	} else {
		l.Date = a.clock.Now()
	}

	if err := a.store.UpsertLog(ctx, l); err != nil {
		return checklist.Log{}, err
	}
	return l, nil
}

func (a *app) appendMeeting(ctx context.Context, author checklist.User, req meetingRequest) (checklist.Meeting, error) {
	participants := make([]string, 0, len(req.Participants))
	for _, p := range req.Participants {
		if p = strings.TrimSpace(p); p != "" {
			participants = append(participants, p)
		}
	}
	if len(participants) == 0 {
		return checklist.Meeting{}, apperr.Validation("at least one participant is required")
	}
	m := checklist.Meeting{
		ID:           strings.TrimSpace(req.ID),
		Title:        strings.TrimSpace(req.Title),
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		PhotoURL:     req.PhotoURL,
		Participants: participants,
		Topics:       req.Topics,
		CreatedBy:    author.Name,
	}
	if req.Date != nil && !req.Date.IsZero() {
		m.Date = *req.Date
	} else {
		m.Date = a.clock.Now()
	}
	return a.store.AppendMeeting(ctx, m)
}

// weekLogs returns the users and the logs dated inside the business days
// of w.
func (a *app) weekLogs(ctx context.Context, w week.Week, line string) ([]checklist.User, []checklist.Log, error) {
	from, err := time.ParseInLocation(clock.DateLayout, w.Days[0], a.loc)
	if err != nil {
		return nil, nil, err
	}
	to := from.AddDate(0, 0, week.BusinessDays)

	users, err := a.store.Users(ctx)
	if err != nil {
		return nil, nil, err
	}
	logs, err := a.store.QueryLogs(ctx, store.LogFilter{From: from, To: to, Line: line})
	if err != nil {
		return nil, nil, err
	}
	return users, logs, nil
}

// leaderAudit builds the leader dashboard. A malformed week skips the grid.
func (a *app) leaderAudit(ctx context.Context, weekID, shift string) (leaderAudit, error) {
	missing, err := a.missingLeaders(ctx)
	if err != nil {
		return leaderAudit{}, err
	}
	out := leaderAudit{Days: []string{}, Rows: []compliance.LeaderRow{}, Missing: missing}

	w, err := week.Resolve(weekID)
	if err != nil {
		return out, nil
	}
	users, logs, err := a.weekLogs(ctx, w, "")
	if err != nil {
		return leaderAudit{}, err
	}
	out.Week = w.ID()
	out.Days = w.Days
	out.Rows = a.matrices.Leaders(w, shiftFilter(shift), users, logs)
	return out, nil
}

// lineAudit builds the line dashboard. A malformed week skips the grid.
func (a *app) lineAudit(ctx context.Context, weekID, shift string) (lineAudit, error) {
	out := lineAudit{Days: []string{}, Rows: []compliance.LineRow{}}
	w, err := week.Resolve(weekID)
	if err != nil {
		return out, nil
	}
	lines, err := a.store.Lines(ctx)
	if err != nil {
		return lineAudit{}, err
	}
	users, logs, err := a.weekLogs(ctx, w, "")
	if err != nil {
		return lineAudit{}, err
	}
	out.Week = w.ID()
	out.Days = w.Days
	out.Rows = a.matrices.Lines(w, shiftFilter(shift), lines, users, logs)
	return out, nil
}

func (a *app) missingLeaders(ctx context.Context) ([]string, error) {
	users, err := a.store.Users(ctx)
	if err != nil {
		return nil, err
	}
	logs, err := a.store.QueryLogs(ctx, store.LogFilter{Day: clock.Day(a.clock.Now())})
	if err != nil {
		return nil, err
	}
	missing := a.matrices.MissingLeaders(users, logs)
	if missing == nil {
		missing = []string{}
	}
	return missing, nil
}

func shiftFilter(s string) string {
	if s == "" {
		return checklist.ShiftAll
	}
	return strings.ToUpper(s)
}

func (a *app) weeklyReport(ctx context.Context, line, shift, weekID string) (reportFile, error) {
	w, err := week.Resolve(weekID)
	if err != nil {
		return reportFile{}, apperr.Validation("invalid week %q", weekID)
	}
	items, err := a.store.Items(ctx, checklist.ItemLeader)
	if err != nil {
		return reportFile{}, err
	}
	users, logs, err := a.weekLogs(ctx, w, line)
	if err != nil {
		return reportFile{}, err
	}

	wb, err := a.assembler.Weekly(ctx, report.WeeklyInput{
		Line:  line,
		Shift: strings.ToUpper(strings.TrimSpace(shift)),
		Week:  w,
		Items: items,
		Logs:  logs,
		Users: users,
	})
	if err != nil {
		return reportFile{}, err
	}
	data, err := a.renderer.Render(wb)
	if err != nil {
		return reportFile{}, err
	}
	return reportFile{Name: wb.FileName, Data: data}, nil
}

func (a *app) meetingReport(ctx context.Context, id string) (reportFile, error) {
	m, err := a.store.Meeting(ctx, id)
	if err != nil {
		return reportFile{}, err
	}
	wb, err := a.assembler.Meeting(ctx, m)
	if err != nil {
		return reportFile{}, err
	}
	data, err := a.renderer.Render(wb)
	if err != nil {
		return reportFile{}, err
	}
	return reportFile{Name: wb.FileName, Data: data}, nil
}

// backupWeekly renders the weekly workbook and keeps a copy in the backup
// directory.
func (a *app) backupWeekly(ctx context.Context, req weeklyRequest) (string, error) {
	file, err := a.weeklyReport(ctx, req.Line, req.Shift, req.Week)
	if err != nil {
		return "", err
	}
	w, _ := week.Resolve(req.Week)
	return a.writeBackup(report.BackupName(req.Line, req.Shift, w), file.Data)
}

// writeBackup stores data under the base name of name inside the backup
// directory and returns the written path.
func (a *app) writeBackup(name string, data []byte) (string, error) {
	base := filepath.Base(filepath.Clean(strings.ReplaceAll(name, `\`, "/")))
	if base == "." || base == "/" || base == ".." {
		return "", apperr.Validation("invalid file name %q", name)
	}
	if err := os.MkdirAll(a.backupDir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	path := filepath.Join(a.backupDir, base)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	a.logger.Info("backup saved", zap.String("file", path), zap.Int("bytes", len(data)))
	return path, nil
}

// snapshot writes a copy of the database to a temporary file. The returned
// func removes it.
func (a *app) snapshot(ctx context.Context) (string, func(), error) {
	dir, err := os.MkdirTemp("", "lidercheck-backup-")
	if err != nil {
		return "", nil, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	path := filepath.Join(dir, "lidercheck.db")
	if err := a.store.Snapshot(ctx, path); err != nil {
		cleanup()
		if errors.Is(err, store.ErrSnapshotUnsupported) {
			return "", nil, apperr.Validation("database download is only available for sqlite")
		}
		return "", nil, err
	}
	return path, cleanup, nil
}
