package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindConflict, http.StatusBadRequest},
		{KindAuthentication, http.StatusUnauthorized},
		{KindValidation, http.StatusUnprocessableEntity},
		{KindNotFound, http.StatusNotFound},
		{KindInternal, http.StatusInternalServerError},
		{Kind("bogus"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.HTTPStatus())
		})
	}
}

func TestIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("create user: %w", Conflict("Username already registered"))

	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("UNIQUE constraint failed: users.username")
	err := Wrap(KindConflict, "Username already registered", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "UNIQUE constraint failed")
	assert.Equal(t, "Username already registered", PublicMessage(err))
}

func TestPublicMessageHidesInternalErrors(t *testing.T) {
	assert.Equal(t, "Internal server error", PublicMessage(errors.New("disk I/O error")))
	assert.Equal(t, KindInternal, KindOf(errors.New("disk I/O error")))
	assert.Equal(t, "No records found", PublicMessage(NotFound("No records found")))
}
