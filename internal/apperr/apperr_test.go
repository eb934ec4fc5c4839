package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("create expense: %w", Validation("amount must be positive"))

	assert.Equal(t, KindValidation, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindValidation))
	assert.False(t, Is(wrapped, KindNotFound))
	assert.Equal(t, "create expense: amount must be positive", wrapped.Error())

	assert.Equal(t, KindUnknown, KindOf(errors.New("disk full")))
	assert.False(t, Is(nil, KindUnknown))
}

func TestNotFoundMessage(t *testing.T) {
	err := NotFound("group", 42)
	assert.Equal(t, "group not found: 42", err.Error())
	assert.Equal(t, KindNotFound, err.Kind)
}

func TestValidationCauseUnwraps(t *testing.T) {
	cause := errors.New("bad percent")
	err := ValidationCause(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "bad percent", err.Error())
}
