package relay

import (
	"context"
	"math/rand/v2"
	"time"
)

const minBackoff = 50 * time.Millisecond

// Backoff retries an operation with random exponential delays.
//
// Report, if set, sees every failure and may return a non-nil error to stop
// retrying. MaxWait caps a single delay; zero means no cap.
type Backoff struct {
	Report  func(error) error
	MaxWait time.Duration
}

// Retry calls try until it succeeds, Report aborts, or ctx is cancelled. A
// context that is already done returns ctx.Err() without calling try.
func (b Backoff) Retry(ctx context.Context, try func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	wait := minBackoff
	for {
		started := time.Now()
		err := try()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if b.Report != nil {
			if err := b.Report(err); err != nil {
				return err
			}
		}

		// A slow attempt sets the floor for the next wait.
		if elapsed := time.Since(started); wait < elapsed {
			wait = elapsed
		}
		wait += rand.N(wait)
		if b.MaxWait > 0 && wait > b.MaxWait {
			wait = b.MaxWait
		}

		t := time.NewTimer(wait)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
}
