package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrNoHandler", ErrNoHandler},
		{"ErrTransientProvider", ErrTransientProvider},
		{"ErrMalformedResponse", ErrMalformedResponse},
		{"ErrValidation", ErrValidation},
		{"ErrCriticalBatch", ErrCriticalBatch},
		{"ErrPersistence", ErrPersistence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrors_AreDistinct(t *testing.T) {
	all := []error{
		ErrNotFound, ErrInvalidInput, ErrUnsupportedType, ErrNoHandler,
		ErrTransientProvider, ErrMalformedResponse, ErrValidation,
		ErrCriticalBatch, ErrPersistence,
	}
	for i, a := range all {
		for j, b := range all {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
		}
	}
}

func TestErrors_Wrapping(t *testing.T) {
	wrapped := fmt.Errorf("openai: status 503: %w", ErrTransientProvider)
	assert.True(t, errors.Is(wrapped, ErrTransientProvider))
	assert.False(t, errors.Is(wrapped, ErrCriticalBatch))

	double := fmt.Errorf("segment doc-1: %w", wrapped)
	assert.True(t, errors.Is(double, ErrTransientProvider))
}
