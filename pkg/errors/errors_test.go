package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_MessageIncludesCause(t *testing.T) {
	err := NewInternalError("failed to search articles", context.DeadlineExceeded)
	assert.Equal(t, "INTERNAL: failed to search articles: context deadline exceeded", err.Error())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTypeOf_WrappedAppError(t *testing.T) {
	wrapped := fmt.Errorf("users adapter: %w", NewUnavailableError("store unreachable", nil))
	assert.Equal(t, ErrorTypeUnavailable, TypeOf(wrapped))
	assert.True(t, IsType(wrapped, ErrorTypeUnavailable))
	assert.False(t, IsType(wrapped, ErrorTypeValidation))
}

func TestTypeOf_PlainError(t *testing.T) {
	assert.Equal(t, ErrorTypeInternal, TypeOf(fmt.Errorf("boom")))
	assert.False(t, IsType(nil, ErrorTypeInternal))
}
