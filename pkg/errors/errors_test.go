package errors

import (
	"database/sql"
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsIdentity(t *testing.T) {
	err := Clone(ErrInvalidTransition, "cannot move session from CONDUCTED to SCHEDULED")

	assert.Equal(t, http.StatusConflict, err.Status)
	assert.Equal(t, "cannot move session from CONDUCTED to SCHEDULED", err.Message)
	assert.True(t, stdErrors.Is(err, ErrInvalidTransition))
	assert.False(t, stdErrors.Is(err, ErrNotFound))
	assert.Equal(t, "invalid status transition", ErrInvalidTransition.Message)
}

func TestWrapUnwraps(t *testing.T) {
	wrapped := Wrap(fmt.Errorf("load session: %w", sql.ErrNoRows), ErrInternal.Code, ErrInternal.Status, "failed to load session")

	assert.True(t, stdErrors.Is(wrapped, sql.ErrNoRows))
	assert.Contains(t, wrapped.Error(), "failed to load session")
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	plain := FromError(stdErrors.New("boom"))
	assert.Equal(t, ErrInternal.Code, plain.Code)
	assert.Equal(t, http.StatusInternalServerError, plain.Status)

	nested := fmt.Errorf("handler: %w", Clone(ErrInvalidAmount, "payment exceeds the outstanding amount"))
	assert.Equal(t, ErrInvalidAmount.Code, FromError(nested).Code)
}
