package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/require"
)

func fastRetryHandler(maxRetries int) *RetryHandler {
	return NewRetryHandler(RetryConfig{
		MaxRetries:     maxRetries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	})
}

func TestRetryHandlerSucceedsAfterTransientFailures(t *testing.T) {
	handler := fastRetryHandler(3)

	var calls int
	err := handler.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &openai.Error{StatusCode: http.StatusServiceUnavailable}
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestRetryHandlerStopsOnNonRetryable(t *testing.T) {
	handler := fastRetryHandler(3)

	var calls int
	apiErr := &openai.Error{StatusCode: http.StatusUnauthorized}
	err := handler.Do(context.Background(), func() error {
		calls++
		return apiErr
	})

	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestRetryHandlerExhaustsAttempts(t *testing.T) {
	handler := fastRetryHandler(2)

	var calls int
	err := handler.Do(context.Background(), func() error {
		calls++
		return &openai.Error{StatusCode: http.StatusTooManyRequests}
	})

	require.Error(t, err)
	require.Equal(t, 3, calls)
}

func TestRetryHandlerRespectsContextCancel(t *testing.T) {
	handler := NewRetryHandler(RetryConfig{
		MaxRetries:     5,
		InitialBackoff: 50 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := handler.Do(ctx, func() error {
		return &openai.Error{StatusCode: http.StatusBadGateway}
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestShouldRetryContextErrors(t *testing.T) {
	require.False(t, shouldRetry(context.Canceled))
	require.False(t, shouldRetry(context.DeadlineExceeded))
	require.False(t, shouldRetry(errors.New("arbitrary failure")))
}
