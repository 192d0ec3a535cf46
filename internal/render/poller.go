package render

import (
	"context"
	"time"
)

// Outcome is the poller's verdict for one wait.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	// OutcomeUndetermined means the job did not reach a terminal status
	// within the polling window. It is not a failure; the job may still
	// complete later.
	OutcomeUndetermined Outcome = "undetermined"
)

// PollResult carries the outcome and the last status observed.
type PollResult struct {
	Outcome Outcome
	Status  Status
}

const (
	defaultPollInterval = 3 * time.Second
	defaultPollTimeout  = 2 * time.Minute
)

// Poller repeatedly queries job status at a fixed interval until the job is
// terminal or the timeout elapses.
type Poller struct {
	Client   Client
	Interval time.Duration
	Timeout  time.Duration
}

// Wait polls until the job completes, fails, or the window closes. The
// context cancels the wait between ticks, so cancellation latency is
// bounded by the interval. Status read errors do not abort the wait; the
// job may still resolve on a later tick.
func (p *Poller) Wait(ctx context.Context, jobID string) (PollResult, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	var last Status
	for {
		status, err := p.Client.Status(ctx, jobID)
		if err == nil {
			last = status
			switch status.Status {
			case StatusCompleted:
				return PollResult{Outcome: OutcomeCompleted, Status: status}, nil
			case StatusFailed:
				return PollResult{Outcome: OutcomeFailed, Status: status}, nil
			}
		} else if ctx.Err() != nil {
			return PollResult{Outcome: OutcomeUndetermined, Status: last}, ctx.Err()
		}

		select {
		case <-ctx.Done():
			return PollResult{Outcome: OutcomeUndetermined, Status: last}, ctx.Err()
		case <-deadline.C:
			return PollResult{Outcome: OutcomeUndetermined, Status: last}, nil
		case <-time.After(interval):
		}
	}
}
