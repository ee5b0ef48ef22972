package store

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"lidercheck/internal/apperr"
	"lidercheck/internal/checklist"
	"lidercheck/internal/clock"
)

// LogFilter narrows QueryLogs. Zero fields do not filter.
type LogFilter struct {
	UserID string
	// Day is an exact business day, YYYY-MM-DD.
	Day  string
	From time.Time
	To   time.Time
	Line string
	// Type keeps only logs of that type. ExcludeType drops them.
	Type        checklist.LogType
	ExcludeType checklist.LogType
	Limit       int
}

// UpsertLog inserts a log or, when the id exists, updates its line, counts,
// observation and payload in one statement. Only the original author may
// overwrite a log; any other user gets a ConflictError.
func (s *Store) UpsertLog(ctx context.Context, l checklist.Log) error {
	if l.ID == "" {
		return apperr.Validation("log id is required")
	}
	data, err := encodePayload(l)
	if err != nil {
		return err
	}
	rec := &logRecord{
		ID:          l.ID,
		UserID:      l.UserID,
		UserName:    l.UserName,
		UserRole:    l.UserRole,
		Line:        l.Line,
		Date:        l.Date.UTC(),
		ItemsCount:  l.ItemsCount,
		NGCount:     l.NGCount,
		Observation: l.Observation,
		Data:        data,
		Type:        string(l.Type.Normalize()),
	}

	res, err := s.db.NewInsert().
		Model(rec).
		On("CONFLICT (id) DO UPDATE").
		Set("line = EXCLUDED.line").
		Set("items_count = EXCLUDED.items_count").
		Set("ng_count = EXCLUDED.ng_count").
		Set("observation = EXCLUDED.observation").
		Set("data = EXCLUDED.data").
		Set("type = EXCLUDED.type").
		Where("user_id = EXCLUDED.user_id").
		Exec(ctx)
	if err != nil {
		return storageError(err, "upsert log")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageError(err, "upsert log")
	}
	if n == 0 {
		return apperr.Conflict("log %s belongs to another user", l.ID)
	}
	return nil
}

// Log returns one log by id.
func (s *Store) Log(ctx context.Context, id string) (checklist.Log, error) {
	rec := new(logRecord)
	err := s.db.NewSelect().Model(rec).Where("id = ?", id).Scan(ctx)
	if isNoRows(err) {
		return checklist.Log{}, apperr.NotFound("log %s not found", id)
	}
	if err != nil {
		return checklist.Log{}, storageError(err, "get log")
	}
	return s.toLog(rec)
}

// Logs returns the most recent logs, newest first.
func (s *Store) Logs(ctx context.Context) ([]checklist.Log, error) {
	return s.QueryLogs(ctx, LogFilter{})
}

// QueryLogs returns logs matching the filter, newest first, bounded by the
// filter limit or the store default.
func (s *Store) QueryLogs(ctx context.Context, filter LogFilter) ([]checklist.Log, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = s.logLimit
	}

	var recs []logRecord
	q := s.db.NewSelect().Model(&recs)
	q, err := s.applyLogFilter(q, filter)
	if err != nil {
		return nil, err
	}
	if err := q.OrderExpr("date DESC").Limit(limit).Scan(ctx); err != nil {
		return nil, storageError(err, "query logs")
	}

	out := make([]checklist.Log, 0, len(recs))
	for i := range recs {
		l, err := s.toLog(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// CountLogs returns the number of stored logs.
func (s *Store) CountLogs(ctx context.Context) (int, error) {
	n, err := s.db.NewSelect().Model((*logRecord)(nil)).Count(ctx)
	if err != nil {
		return 0, storageError(err, "count logs")
	}
	return n, nil
}

func (s *Store) applyLogFilter(q *bun.SelectQuery, filter LogFilter) (*bun.SelectQuery, error) {
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Line != "" {
		q = q.Where("line = ?", filter.Line)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", string(filter.Type.Normalize()))
	}
	if filter.ExcludeType != "" {
		q = q.Where("type <> ?", string(filter.ExcludeType.Normalize()))
	}
	if filter.Day != "" {
		start, err := time.ParseInLocation(clock.DateLayout, filter.Day, s.loc)
		if err != nil {
			return nil, apperr.Validation("invalid date %q", filter.Day)
		}
		q = q.Where("date >= ?", start.UTC()).
			Where("date < ?", start.AddDate(0, 0, 1).UTC())
	}
	if !filter.From.IsZero() {
		q = q.Where("date >= ?", filter.From.UTC())
	}
	if !filter.To.IsZero() {
		q = q.Where("date < ?", filter.To.UTC())
	}
	return q, nil
}

func (s *Store) toLog(rec *logRecord) (checklist.Log, error) {
	p, err := decodePayload(rec.Data)
	if err != nil {
		return checklist.Log{}, fmt.Errorf("store: log %s: %w", rec.ID, err)
	}
	return checklist.Log{
		ID:                rec.ID,
		UserID:            rec.UserID,
		UserName:          rec.UserName,
		UserRole:          rec.UserRole,
		Line:              rec.Line,
		Date:              rec.Date.In(s.loc),
		ItemsCount:        rec.ItemsCount,
		NGCount:           rec.NGCount,
		Observation:       rec.Observation,
		Data:              p.Answers,
		EvidenceData:      p.Evidence,
		Type:              p.Type,
		MaintenanceTarget: p.MaintenanceTarget,
	}, nil
}
