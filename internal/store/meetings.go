package store

import (
	"context"

	"github.com/google/uuid"

	"lidercheck/internal/apperr"
	"lidercheck/internal/checklist"
)

// Meetings returns the most recent meetings, newest first.
func (s *Store) Meetings(ctx context.Context) ([]checklist.Meeting, error) {
	var recs []meetingRecord
	if err := s.db.NewSelect().
		Model(&recs).
		OrderExpr("date DESC").
		Limit(s.meetingLimit).
		Scan(ctx); err != nil {
		return nil, storageError(err, "list meetings")
	}
	out := make([]checklist.Meeting, 0, len(recs))
	for _, rec := range recs {
		out = append(out, s.toMeeting(rec))
	}
	return out, nil
}

// Meeting returns one meeting by id.
func (s *Store) Meeting(ctx context.Context, id string) (checklist.Meeting, error) {
	rec := new(meetingRecord)
	err := s.db.NewSelect().Model(rec).Where("id = ?", id).Scan(ctx)
	if isNoRows(err) {
		return checklist.Meeting{}, apperr.NotFound("meeting %s not found", id)
	}
	if err != nil {
		return checklist.Meeting{}, storageError(err, "get meeting")
	}
	return s.toMeeting(*rec), nil
}

// AppendMeeting stores a new meeting and returns it with its id. Meetings
// are never updated; reusing an id is a conflict.
func (s *Store) AppendMeeting(ctx context.Context, m checklist.Meeting) (checklist.Meeting, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	participants := m.Participants
	if participants == nil {
		participants = []string{}
	}
	rec := &meetingRecord{
		ID:           m.ID,
		Title:        m.Title,
		Date:         m.Date.UTC(),
		StartTime:    m.StartTime,
		EndTime:      m.EndTime,
		PhotoURL:     m.PhotoURL,
		Participants: participants,
		Topics:       m.Topics,
		CreatedBy:    m.CreatedBy,
	}

	exists, err := s.db.NewSelect().Model((*meetingRecord)(nil)).Where("id = ?", m.ID).Exists(ctx)
	if err != nil {
		return checklist.Meeting{}, storageError(err, "check meeting")
	}
	if exists {
		return checklist.Meeting{}, apperr.Conflict("meeting %s already exists", m.ID)
	}
	if _, err := s.db.NewInsert().Model(rec).Exec(ctx); err != nil {
		return checklist.Meeting{}, storageError(err, "append meeting")
	}
	return s.toMeeting(*rec), nil
}

func (s *Store) toMeeting(rec meetingRecord) checklist.Meeting {
	return checklist.Meeting{
		ID:           rec.ID,
		Title:        rec.Title,
		Date:         rec.Date.In(s.loc),
		StartTime:    rec.StartTime,
		EndTime:      rec.EndTime,
		PhotoURL:     rec.PhotoURL,
		Participants: rec.Participants,
		Topics:       rec.Topics,
		CreatedBy:    rec.CreatedBy,
	}
}
