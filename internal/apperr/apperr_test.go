package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("save log: %w", Validation("line is required"))

	require.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
	assert.Equal(t, "line is required", Message(err))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, HTTPStatus(nil))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("user %s", "42")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(Conflict("matricula %s", "42")))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(Unavailable(errors.New("dial tcp"), "ping")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestRichErrorCarriesCategory(t *testing.T) {
	err := NotFound("log %s", "abc")

	var rich *goerrors.Error
	require.True(t, errors.As(err, &rich))
	assert.Equal(t, goerrors.CategoryNotFound, rich.Category)
	assert.Equal(t, textCodeNotFound, rich.TextCode)

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "NOT_FOUND", e.TextCode())
}

func TestUnavailableNil(t *testing.T) {
	assert.NoError(t, Unavailable(nil, "ping"))
}

func TestPartialData(t *testing.T) {
	err := PartialData("image for item 7", errors.New("bad png"))
	assert.ErrorIs(t, err, ErrPartialData)
	assert.Contains(t, err.Error(), "item 7")
}

func TestMessageHidesServerDetail(t *testing.T) {
	err := Unavailable(errors.New("dial tcp 10.0.0.5:5432: connection refused"), "get user")
	assert.Equal(t, "storage unavailable", Message(err))
	assert.Contains(t, err.Error(), "10.0.0.5")

	assert.Equal(t, "internal error", Message(errors.New("decode log payload: bad")))
	assert.Equal(t, "matricula 42 already exists", Message(Conflict("matricula %s already exists", "42")))
}
