package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/m4xw311/steward/errors"
)

// RetryPolicy bounds the retries of transient completion failures.
type RetryPolicy struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy returns the policy used when configuration leaves it unset.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     8 * time.Second,
	}
}

type retrying struct {
	next   CompletionProvider
	policy RetryPolicy
	log    *slog.Logger
}

// WithRetry retries p with exponential backoff while it fails with a
// TransientError. Other errors are returned after the first attempt.
func WithRetry(p CompletionProvider, policy RetryPolicy) CompletionProvider {
	def := DefaultRetryPolicy()
	if policy.MaxAttempts == 0 {
		policy.MaxAttempts = def.MaxAttempts
	}
	if policy.InitialInterval <= 0 {
		policy.InitialInterval = def.InitialInterval
	}
	if policy.MaxInterval <= 0 {
		policy.MaxInterval = def.MaxInterval
	}
	return &retrying{next: p, policy: policy, log: slog.Default().With("component", "llm.retry")}
}

func (r *retrying) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.policy.InitialInterval
	b.MaxInterval = r.policy.MaxInterval

	attempt := 0
	op := func() (string, error) {
		attempt++
		out, err := r.next.Complete(ctx, prompt, opts)
		if err != nil && !errors.IsTransient(err) {
			return "", backoff.Permanent(err)
		}
		return out, err
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(r.policy.MaxAttempts),
		backoff.WithNotify(func(err error, wait time.Duration) {
			r.log.Warn("completion failed, retrying", "attempt", attempt, "wait", wait, "error", err)
		}),
	)
}

type timeouting struct {
	next    CompletionProvider
	timeout time.Duration
}

// WithTimeout bounds every call to p by d. A call cut off by d fails with a
// TransientError. d <= 0 disables the bound.
func WithTimeout(p CompletionProvider, d time.Duration) CompletionProvider {
	if d <= 0 {
		return p
	}
	return &timeouting{next: p, timeout: d}
}

func (t *timeouting) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	out, err := t.next.Complete(callCtx, prompt, opts)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return "", errors.Transient(err, "completion timed out after %s", t.timeout)
	}
	return out, err
}
