package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryablePerCategory(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		err       *AppError
		category  Category
		retryable bool
	}{
		{API("x", cause), CategoryAPI, true},
		{RateLimited(cause), CategoryAPI, true},
		{Network("x", cause), CategoryNetwork, true},
		{Safety("x", nil), CategorySafety, false},
		{Permissions("x", nil), CategoryPermissions, false},
		{Validation("x"), CategoryValidation, false},
		{Auth("x", nil), CategoryAuth, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.retryable, tt.err.Retryable)
			assert.False(t, tt.err.Timestamp.IsZero())
		})
	}
}

func TestRateLimitedMessageIsDistinct(t *testing.T) {
	rl := RateLimited(nil)
	generic := API("Upstream fault.", nil)
	assert.True(t, rl.RateLimited)
	assert.False(t, generic.RateLimited)
	assert.NotEqual(t, rl.Message, generic.Message)
}

func TestWrapPassesThroughAppError(t *testing.T) {
	orig := Safety("blocked", nil)
	wrapped := fmt.Errorf("send: %w", orig)

	got := Wrap(wrapped)
	assert.Same(t, orig, got)
	assert.True(t, errors.Is(wrapped, ErrSafety))
	assert.False(t, errors.Is(wrapped, ErrAPI))
}

func TestWrapUnknown(t *testing.T) {
	got := Wrap(errors.New("socket hang up"))
	require.NotNil(t, got)
	assert.Equal(t, CategoryAPI, got.Category)
	assert.True(t, got.Retryable)

	timeout := Wrap(context.DeadlineExceeded)
	assert.Equal(t, CategoryAPI, timeout.Category)
	assert.Contains(t, timeout.Message, "timed out")

	assert.Nil(t, Wrap(nil))
	assert.Equal(t, Category(""), CategoryOf(nil))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: no route")
	err := Network("offline", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "NETWORK")
}
