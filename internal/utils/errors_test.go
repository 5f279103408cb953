package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Error(t *testing.T) {
	assert.Equal(t, "bad input", (&ValidationError{Message: "bad input"}).Error())
	assert.Equal(t, "arima_p: must be an integer", (&ValidationError{Field: "arima_p", Message: "must be an integer"}).Error())
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("validation failed")

	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "validation failed", validationErr.Message)
	assert.Empty(t, validationErr.Field)
}

func TestNewFieldError(t *testing.T) {
	err := NewFieldError("forecast_steps", "got %q, want a positive integer", "ten")

	assert.Equal(t, `forecast_steps: got "ten", want a positive integer`, err.Error())
}

func TestIsValidationError(t *testing.T) {
	wrapped := fmt.Errorf("parse form: %w", NewFieldError("symbols", "required"))

	assert.True(t, IsValidationError(wrapped))
	assert.False(t, IsValidationError(errors.New("plain")))
	assert.False(t, IsValidationError(nil))
}
