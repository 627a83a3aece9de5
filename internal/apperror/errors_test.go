package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeCodeAndMessage(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"not found", NewNotFound("mission not found"), http.StatusNotFound, "mission not found"},
		{"conflict", NewConflict("already claimed"), http.StatusConflict, "already claimed"},
		{"validation", NewValidation("not complete"), http.StatusUnprocessableEntity, "not complete"},
		{"unavailable", NewUnavailable("loading"), http.StatusServiceUnavailable, "loading"},
		{"wrapped app error", fmt.Errorf("claiming: %w", NewUnauthorized("expired")), http.StatusUnauthorized, "expired"},
		{"plain error", errors.New("dial tcp: refused"), http.StatusInternalServerError, "an unexpected error occurred"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, SafeCode(tc.err))
			assert.Equal(t, tc.message, SafeMessage(tc.err))
		})
	}
}

func TestInternalCauseStaysServerSide(t *testing.T) {
	cause := errors.New("remote answered 500")

	err := NewBadGateway("Could not claim the reward.", cause)
	assert.Equal(t, http.StatusBadGateway, SafeCode(err))
	assert.Equal(t, "Could not claim the reward.", SafeMessage(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "remote answered 500")

	internal := NewInternal(cause)
	assert.NotContains(t, SafeMessage(internal), "remote")
	assert.True(t, Is(internal, "internal_error"))
	assert.False(t, Is(cause, "internal_error"))
}
