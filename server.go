package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"lidercheck/internal/apperr"
	"lidercheck/internal/checklist"
	"lidercheck/internal/permission"
	"lidercheck/internal/report"
)

const sessionName = "lidercheck_session"

type serverConfig struct {
	SessionSecret string
	SessionIdle   time.Duration
	SecureCookies bool
	// CSRFKey enables CSRF protection when set.
	CSRFKey string
}

type server struct {
	*app
	sessions *sessions.CookieStore
	idle     time.Duration
	secure   bool
	csrfKey  []byte
	validate *validator.Validate
}

func newServer(a *app, cfg serverConfig) *server {
	cs := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	cs.Options.Path = "/"
	cs.Options.HttpOnly = true
	cs.Options.Secure = cfg.SecureCookies
	cs.Options.SameSite = http.SameSiteLaxMode

	idle := cfg.SessionIdle
	if idle <= 0 {
		idle = 30 * time.Minute
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	return &server{
		app:      a,
		sessions: cs,
		idle:     idle,
		secure:   cfg.SecureCookies,
		csrfKey:  []byte(cfg.CSRFKey),
		validate: v,
	}
}

func (s *server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.healthHandler).Methods("GET")

	// Sessions
	api.HandleFunc("/login", s.loginHandler).Methods("POST")
	api.HandleFunc("/logout", s.logoutHandler).Methods("POST")
	api.HandleFunc("/register", s.registerHandler).Methods("POST")
	api.HandleFunc("/check-auth", s.requireAuth(s.checkAuthHandler)).Methods("GET")

	// Users
	api.HandleFunc("/users", s.requireModule(permission.Admin, s.getUsersHandler)).Methods("GET")
	api.HandleFunc("/users", s.requireModule(permission.Admin, s.createUserHandler)).Methods("POST")
	api.HandleFunc("/users/{matricula}", s.requireModule(permission.Admin, s.updateUserHandler)).Methods("PUT")
	api.HandleFunc("/users/{matricula}", s.requireModule(permission.Admin, s.deleteUserHandler)).Methods("DELETE")

	// Checklist logs
	api.HandleFunc("/logs", s.requireAuth(s.getLogsHandler)).Methods("GET")
	api.HandleFunc("/logs", s.requireAuth(s.submitLogHandler)).Methods("POST")
	api.HandleFunc("/logs/{id}", s.requireAuth(s.getLogHandler)).Methods("GET")

	// Configuration
	api.HandleFunc("/config/items", s.requireAuth(s.getItemsHandler)).Methods("GET")
	api.HandleFunc("/config/items", s.requireModule(permission.Admin, s.replaceItemsHandler)).Methods("PUT")
	api.HandleFunc("/config/items/{type}", s.requireModule(permission.Admin, s.replaceItemsOfTypeHandler)).Methods("PUT")
	api.HandleFunc("/config/maintenance/{target}", s.requireModule(permission.Maintenance, s.getMaintenanceItemsHandler)).Methods("GET")
	api.HandleFunc("/config/lines", s.getLinesHandler).Methods("GET")
	api.HandleFunc("/config/lines", s.requireModule(permission.Admin, s.replaceLinesHandler)).Methods("PUT")
	api.HandleFunc("/config/roles", s.getRolesHandler).Methods("GET")
	api.HandleFunc("/config/roles", s.requireModule(permission.Admin, s.replaceRolesHandler)).Methods("PUT")
	api.HandleFunc("/config/permissions", s.requireAuth(s.getPermissionsHandler)).Methods("GET")
	api.HandleFunc("/config/permissions", s.requireModule(permission.Admin, s.replacePermissionsHandler)).Methods("PUT")
	api.HandleFunc("/config/permissions/toggle", s.requireModule(permission.Admin, s.togglePermissionHandler)).Methods("POST")

	// Meetings
	api.HandleFunc("/meetings", s.requireModule(permission.Meeting, s.getMeetingsHandler)).Methods("GET")
	api.HandleFunc("/meetings", s.requireModule(permission.Meeting, s.createMeetingHandler)).Methods("POST")
	api.HandleFunc("/meetings/{id}", s.requireModule(permission.Meeting, s.getMeetingHandler)).Methods("GET")
	api.HandleFunc("/meetings/{id}/export", s.requireModule(permission.Meeting, s.exportMeetingHandler)).Methods("GET")

	// Audit and reports
	api.HandleFunc("/audit/leaders", s.requireModule(permission.Audit, s.leaderAuditHandler)).Methods("GET")
	api.HandleFunc("/audit/lines", s.requireModule(permission.Audit, s.lineAuditHandler)).Methods("GET")
	api.HandleFunc("/audit/missing", s.requireModule(permission.Audit, s.missingLeadersHandler)).Methods("GET")
	api.HandleFunc("/reports/weekly", s.requireModule(permission.Audit, s.weeklyReportHandler)).Methods("GET")
	api.HandleFunc("/reports/weekly/backup", s.requireModule(permission.Audit, s.weeklyBackupHandler)).Methods("POST")

	// Backups
	api.HandleFunc("/backup/save", s.requireModule(permission.Admin, s.saveBackupHandler)).Methods("POST")
	api.HandleFunc("/admin/backup", s.requireModule(permission.Admin, s.downloadDatabaseHandler)).Methods("GET")

	if len(s.csrfKey) == 0 {
		return r
	}
	protect := csrf.Protect(s.csrfKey,
		csrf.Secure(s.secure),
		csrf.Path("/"),
		csrf.RequestHeader("X-CSRF-Token"),
	)
	h := protect(r)
	if s.secure {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type ctxKey int

const userKey ctxKey = iota

// currentUser returns the user stored by requireAuth.
func currentUser(r *http.Request) checklist.User {
	u, _ := r.Context().Value(userKey).(checklist.User)
	return u
}

// requireAuth rejects requests without a live session. The session expires
// after the idle period and every authenticated request refreshes it.
func (s *server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := s.sessions.Get(r, sessionName)

		matricula, ok := session.Values["matricula"].(string)
		if !ok || matricula == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		now := s.clock.Now().Unix()
		lastActivity, ok := session.Values["last_activity"].(int64)
		if !ok || now-lastActivity > int64(s.idle.Seconds()) {
			s.endSession(w, r, session)
			writeError(w, http.StatusUnauthorized, "session expired")
			return
		}

		u, _, err := s.store.User(r.Context(), matricula)
		if errors.Is(err, apperr.ErrNotFound) {
			s.endSession(w, r, session)
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if err != nil {
			s.fail(w, r, err)
			return
		}

		session.Values["last_activity"] = now
		if err := session.Save(r, w); err != nil {
			s.logger.Warn("save session", zap.Error(err))
		}

		next(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	}
}

// requireModule gates a handler on the permission table.
func (s *server) requireModule(m permission.Module, next http.HandlerFunc) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		gate, err := s.gate(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if !gate.Allowed(currentUser(r), m) {
			writeError(w, http.StatusForbidden, fmt.Sprintf("access to %s denied", m))
			return
		}
		next(w, r)
	})
}

func (s *server) startSession(w http.ResponseWriter, r *http.Request, u checklist.User) error {
	session, _ := s.sessions.Get(r, sessionName)
	session.Values["matricula"] = u.Matricula
	session.Values["last_activity"] = s.clock.Now().Unix()
	return session.Save(r, w)
}

func (s *server) endSession(w http.ResponseWriter, r *http.Request, session *sessions.Session) {
	delete(session.Values, "matricula")
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		s.logger.Warn("clear session", zap.Error(err))
	}
}

// decode reads a JSON body into dst and validates it.
func (s *server) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("invalid JSON")
	}
	return s.check(dst)
}

func (s *server) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return apperr.Validation("%s", err.Error())
	}
	msgs := make([]string, 0, len(fields))
	for _, fe := range fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return apperr.Validation("invalid fields: %s", strings.Join(msgs, ", "))
}

// fail writes err with the status of its taxonomy class.
func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeError(w, status, apperr.Message(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeWorkbook(w http.ResponseWriter, file reportFile) {
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	_, _ = w.Write(file.Data)
}
