package restclient

import (
	"context"
	"errors"
	"net"
	"time"
)

// RetryPolicy retries transient network failures. Dial errors are retried
// for any method since the request never left; timeouts only when the
// method is idempotent.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

func (r RetryPolicy) Do(ctx context.Context, idempotent bool, fn func() error) error {
	var err error
	for i := 0; i <= r.MaxRetries; i++ {
		err = fn()
		if err == nil || !retryable(err, idempotent) {
			return err
		}
		if i == r.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(r.Delay):
		}
	}
	return err
}

func retryable(err error, idempotent bool) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	if !idempotent {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
