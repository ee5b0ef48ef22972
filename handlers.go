package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"

	"lidercheck/internal/apperr"
	"lidercheck/internal/checklist"
	"lidercheck/internal/permission"
	"lidercheck/internal/store"
	"lidercheck/internal/view"
)

// Session handlers
func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := s.decode(r, &creds); err != nil {
		s.fail(w, r, err)
		return
	}

	u, err := s.authenticate(r.Context(), creds.Matricula, creds.Password)
	if errors.Is(err, apperr.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, apperr.Message(err))
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.startSession(w, r, u); err != nil {
		s.fail(w, r, fmt.Errorf("save session: %w", err))
		return
	}
	s.writeSession(w, r, u)
}

func (s *server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessions.Get(r, sessionName)
	s.endSession(w, r, session)
	w.WriteHeader(http.StatusOK)
}

func (s *server) checkAuthHandler(w http.ResponseWriter, r *http.Request) {
	if len(s.csrfKey) > 0 {
		w.Header().Set("X-CSRF-Token", csrf.Token(r))
	}
	s.writeSession(w, r, currentUser(r))
}

// writeSession answers with the user, the modules it may enter and the
// main menu it should see.
func (s *server) writeSession(w http.ResponseWriter, r *http.Request, u checklist.User) {
	gate, err := s.gate(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	modules := make(map[permission.Module]bool, len(permission.Modules))
	for _, m := range permission.Modules {
		modules[m] = gate.Allowed(u, m)
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		User:    u,
		Modules: modules,
		Menu:    view.Machine{Gate: gate}.Menu(u),
	})
}

func (s *server) registerHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.register(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// User handlers
func (s *server) getUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.Users(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *server) createUserHandler(w http.ResponseWriter, r *http.Request) {
	s.registerHandler(w, r)
}

func (s *server) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	original := mux.Vars(r)["matricula"]

	var req userRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.updateUser(r.Context(), original, req); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *server) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	matricula := mux.Vars(r)["matricula"]
	if matricula == currentUser(r).Matricula {
		s.fail(w, r, apperr.Validation("cannot delete the signed-in user"))
		return
	}
	if err := s.store.DeleteUser(r.Context(), matricula); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Log handlers

// getLogsHandler lists logs. Users without the audit module only see their
// own submissions.
func (s *server) getLogsHandler(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	q := r.URL.Query()

	filter := store.LogFilter{
		UserID: q.Get("user"),
		Day:    q.Get("date"),
		Line:   q.Get("line"),
	}
	switch strings.ToLower(q.Get("history")) {
	case "":
	case "production":
		filter.ExcludeType = checklist.LogMaintenance
	case "maintenance":
		filter.Type = checklist.LogMaintenance
	case "personal":
		filter.UserID = u.Matricula
	default:
		s.fail(w, r, apperr.Validation("unknown history %q", q.Get("history")))
		return
	}
	if t := q.Get("type"); t != "" {
		filter.Type = checklist.LogType(strings.ToUpper(t))
		if filter.Type != checklist.LogProduction && filter.Type != checklist.LogMaintenance {
			s.fail(w, r, apperr.Validation("unknown log type %q", t))
			return
		}
	}

	canAudit, err := s.allowed(r, permission.Audit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !canAudit {
		filter.UserID = u.Matricula
	}

	logs, err := s.store.QueryLogs(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *server) getLogHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	l, err := s.store.Log(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	canAudit, err := s.allowed(r, permission.Audit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !canAudit && l.UserID != currentUser(r).Matricula {
		s.fail(w, r, apperr.NotFound("log %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *server) submitLogHandler(w http.ResponseWriter, r *http.Request) {
	var req logRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	module := permission.Checklist
	if req.Type.Normalize() == checklist.LogMaintenance {
		module = permission.Maintenance
	}
	ok, err := s.allowed(r, module)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusForbidden, fmt.Sprintf("access to %s denied", module))
		return
	}

	l, err := s.submitLog(r.Context(), currentUser(r), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *server) allowed(r *http.Request, m permission.Module) (bool, error) {
	gate, err := s.gate(r.Context())
	if err != nil {
		return false, err
	}
	return gate.Allowed(currentUser(r), m), nil
}

// Config handlers
func (s *server) getItemsHandler(w http.ResponseWriter, r *http.Request) {
	var t checklist.ItemType
	if raw := r.URL.Query().Get("type"); raw != "" {
		var err error
		if t, err = parseItemType(raw); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	items, err := s.store.Items(r.Context(), t)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeVersioned(w, r, store.KindItems, items)
}

func (s *server) replaceItemsHandler(w http.ResponseWriter, r *http.Request) {
	var req itemsRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	v, err := s.store.ReplaceItems(r.Context(), req.Items, versionOption(req.Version)...)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, versionResponse{Version: v})
}

func (s *server) replaceItemsOfTypeHandler(w http.ResponseWriter, r *http.Request) {
	t, err := parseItemType(mux.Vars(r)["type"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req itemsRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	v, err := s.store.ReplaceItemsOfType(r.Context(), t, req.Items, versionOption(req.Version)...)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, versionResponse{Version: v})
}

func (s *server) getMaintenanceItemsHandler(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.MaintenanceItems(r.Context(), mux.Vars(r)["target"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *server) getLinesHandler(w http.ResponseWriter, r *http.Request) {
	lines, err := s.store.Lines(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeVersioned(w, r, store.KindLines, lines)
}

func (s *server) replaceLinesHandler(w http.ResponseWriter, r *http.Request) {
	var req namesRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	v, err := s.store.ReplaceLines(r.Context(), req.Names, versionOption(req.Version)...)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, versionResponse{Version: v})
}

func (s *server) getRolesHandler(w http.ResponseWriter, r *http.Request) {
	roles, err := s.store.Roles(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeVersioned(w, r, store.KindRoles, roles)
}

func (s *server) replaceRolesHandler(w http.ResponseWriter, r *http.Request) {
	var req namesRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	v, err := s.store.ReplaceRoles(r.Context(), req.Names, versionOption(req.Version)...)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, versionResponse{Version: v})
}

func (s *server) getPermissionsHandler(w http.ResponseWriter, r *http.Request) {
	rules, err := s.store.Permissions(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeVersioned(w, r, store.KindPermissions, rules)
}

func (s *server) replacePermissionsHandler(w http.ResponseWriter, r *http.Request) {
	var req permissionsRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	for i, rule := range req.Rules {
		m, err := permission.ParseModule(string(rule.Module))
		if err != nil {
			s.fail(w, r, apperr.Validation("rule %d: %v", i, err))
			return
		}
		req.Rules[i].Module = m
	}
	v, err := s.store.ReplacePermissions(r.Context(), req.Rules, versionOption(req.Version)...)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, versionResponse{Version: v})
}

func (s *server) togglePermissionHandler(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	m, err := permission.ParseModule(req.Module)
	if err != nil {
		s.fail(w, r, apperr.Validation("%v", err))
		return
	}
	rules, err := s.store.TogglePermission(r.Context(), req.Role, m)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

// writeVersioned answers with v and the table version in X-Config-Version,
// which clients send back as the optimistic version token.
func (s *server) writeVersioned(w http.ResponseWriter, r *http.Request, kind string, v any) {
	version, err := s.store.Version(r.Context(), kind)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("X-Config-Version", fmt.Sprint(version))
	writeJSON(w, http.StatusOK, v)
}

func versionOption(v *int64) []store.ReplaceOption {
	if v == nil {
		return nil
	}
	return []store.ReplaceOption{store.IfVersion(*v)}
}

func parseItemType(raw string) (checklist.ItemType, error) {
	switch t := checklist.ItemType(strings.ToUpper(raw)); t {
	case checklist.ItemLeader, checklist.ItemMaintenance:
		return t, nil
	}
	return "", apperr.Validation("unknown item type %q", raw)
}

// Meeting handlers
func (s *server) getMeetingsHandler(w http.ResponseWriter, r *http.Request) {
	meetings, err := s.store.Meetings(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meetings)
}

func (s *server) getMeetingHandler(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.Meeting(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *server) createMeetingHandler(w http.ResponseWriter, r *http.Request) {
	var req meetingRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	m, err := s.appendMeeting(r.Context(), currentUser(r), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *server) exportMeetingHandler(w http.ResponseWriter, r *http.Request) {
	file, err := s.meetingReport(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeWorkbook(w, file)
}

// Audit handlers
func (s *server) leaderAuditHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := s.leaderAudit(r.Context(), q.Get("week"), q.Get("shift"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) lineAuditHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := s.lineAudit(r.Context(), q.Get("week"), q.Get("shift"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) missingLeadersHandler(w http.ResponseWriter, r *http.Request) {
	missing, err := s.missingLeaders(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, missingResponse{Missing: missing})
}

func (s *server) weeklyReportHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := weeklyRequest{Line: q.Get("line"), Shift: q.Get("shift"), Week: q.Get("week")}
	if err := s.check(&req); err != nil {
		s.fail(w, r, err)
		return
	}
	file, err := s.weeklyReport(r.Context(), req.Line, req.Shift, req.Week)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeWorkbook(w, file)
}

func (s *server) weeklyBackupHandler(w http.ResponseWriter, r *http.Request) {
	var req weeklyRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	path, err := s.backupWeekly(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, backupResponse{File: path})
}

// Backup handlers
func (s *server) saveBackupHandler(w http.ResponseWriter, r *http.Request) {
	var req backupRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	raw := req.Data
	if i := strings.Index(raw, ";base64,"); i >= 0 {
		raw = raw[i+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		s.fail(w, r, apperr.Validation("invalid base64 data"))
		return
	}
	path, err := s.writeBackup(req.FileName, data)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, backupResponse{File: path})
}

func (s *server) downloadDatabaseHandler(w http.ResponseWriter, r *http.Request) {
	path, cleanup, err := s.snapshot(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer cleanup()

	name := "lidercheck_backup_" + s.clock.Now().Format("2006-01-02") + ".db"
	w.Header().Set("Content-Type", "application/x-sqlite3")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeFile(w, r, path)
}
