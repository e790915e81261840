package llm

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/m4xw311/steward/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts uint) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func TestWithRetryRecoversFromTransient(t *testing.T) {
	calls := 0
	p := ProviderFunc(func(ctx context.Context, prompt string, opts Options) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.Transient(fmt.Errorf("429"), "rate limited")
		}
		return "calendar", nil
	})

	out, err := WithRetry(p, fastPolicy(3)).Complete(context.Background(), "x", Options{})
	require.NoError(t, err)
	assert.Equal(t, "calendar", out)
	assert.Equal(t, 3, calls)
}

func TestWithRetryIsBounded(t *testing.T) {
	calls := 0
	p := ProviderFunc(func(ctx context.Context, prompt string, opts Options) (string, error) {
		calls++
		return "", errors.Transient(fmt.Errorf("503"), "unavailable")
	})

	_, err := WithRetry(p, fastPolicy(2)).Complete(context.Background(), "x", Options{})
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	assert.Equal(t, 2, calls)
}

func TestWithRetryDoesNotRetryOtherErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  error
	}{
		{"fatal", errors.Fatal(nil, "no key")},
		{"unclassified", fmt.Errorf("bad request")},
	} {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			p := ProviderFunc(func(ctx context.Context, prompt string, opts Options) (string, error) {
				calls++
				return "", tc.err
			})

			_, err := WithRetry(p, fastPolicy(5)).Complete(context.Background(), "x", Options{})
			assert.ErrorIs(t, err, tc.err)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestWithTimeoutClassifiesDeadline(t *testing.T) {
	p := ProviderFunc(func(ctx context.Context, prompt string, opts Options) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	_, err := WithTimeout(p, 5*time.Millisecond).Complete(context.Background(), "x", Options{})
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithTimeoutLeavesCallerCancellation(t *testing.T) {
	p := ProviderFunc(func(ctx context.Context, prompt string, opts Options) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WithTimeout(p, time.Minute).Complete(ctx, "x", Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.IsTransient(err))
}

func TestWithTimeoutDisabled(t *testing.T) {
	p := &MockProvider{}
	assert.Same(t, CompletionProvider(p), WithTimeout(p, 0))
}
