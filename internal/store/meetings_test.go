package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lidercheck/internal/apperr"
	"lidercheck/internal/checklist"
)

func TestAppendMeeting(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.AppendMeeting(ctx, checklist.Meeting{
		Title:        "DDS",
		Date:         at("2024-01-02", 7, 0),
		StartTime:    "07:00",
		Participants: []string{"Ana", "Bruno", "Ana"},
		Topics:       "Safety",
		CreatedBy:    "Ana Souza",
	})
	require.NoError(t, err)
	_, err = uuid.Parse(first.ID)
	require.NoError(t, err)

	_, err = s.AppendMeeting(ctx, checklist.Meeting{ID: "m2", Title: "Kaizen", Date: at("2024-01-03", 9, 0), Participants: []string{"Carla"}, Topics: "Flow"})
	require.NoError(t, err)

	_, err = s.AppendMeeting(ctx, checklist.Meeting{ID: "m2", Title: "Again"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	meetings, err := s.Meetings(ctx)
	require.NoError(t, err)
	require.Len(t, meetings, 2)
	assert.Equal(t, "m2", meetings[0].ID)
	assert.Equal(t, []string{"Ana", "Bruno", "Ana"}, meetings[1].Participants)

	got, err := s.Meeting(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "DDS", got.Title)
	assert.True(t, got.Date.Equal(at("2024-01-02", 7, 0)))

	_, err = s.Meeting(ctx, "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
