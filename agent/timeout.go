package agent

import (
	"context"
	"time"

	"github.com/m4xw311/steward/errors"
)

// CallWithTimeout runs fn under a deadline of d (none when d <= 0). If
// the deadline, rather than the caller, ended the call, the error is
// returned as a TransientError.
func CallWithTimeout(ctx context.Context, d time.Duration, what string, fn func(context.Context) error) error {
	if d <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	err := fn(callCtx)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return errors.Transient(err, "%s timed out after %s", what, d)
	}
	return err
}
