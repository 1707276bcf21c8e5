package health

import (
	"context"
	"time"
)

// Checker probes a single target.
type Checker interface {
	Check(ctx context.Context, target string) (*CheckResult, error)
}

// CheckResult is the outcome of one probe. A failed probe also returns an
// error describing why.
type CheckResult struct {
	Success      bool
	Latency      time.Duration
	ErrorMessage string
	CheckedAt    time.Time
}

func failed(elapsed time.Duration, msg string) *CheckResult {
	return &CheckResult{
		Success:      false,
		Latency:      elapsed,
		ErrorMessage: msg,
		CheckedAt:    time.Now().UTC(),
	}
}
