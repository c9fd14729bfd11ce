package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/socialfeed/internal/domain"
)

// Timeouts bounds calls to the store and the media relay. A zero value
// leaves the caller's deadline in charge.
type Timeouts struct {
	Store time.Duration
	Media time.Duration
}

func bounded(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// transient marks an expired deadline as a retryable I/O failure.
func transient(err error) error {
	if err == nil || errors.Is(err, domain.ErrTransientIO) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrTransientIO, err)
	}
	return err
}
