package health

import (
	"context"
	"fmt"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// Compile-time interface guard.
var _ Checker = (*ICMPChecker)(nil)

// ICMPChecker pings a host. Unprivileged mode uses UDP ping sockets, which
// on Linux requires net.ipv4.ping_group_range to include the process group.
type ICMPChecker struct {
	timeout    time.Duration
	count      int
	privileged bool
}

// NewICMPChecker creates a checker sending count echo requests per check.
func NewICMPChecker(timeout time.Duration, count int, privileged bool) *ICMPChecker {
	if count <= 0 {
		count = 1
	}
	return &ICMPChecker{timeout: timeout, count: count, privileged: privileged}
}

// Check succeeds when at least one echo reply arrives before the timeout.
func (c *ICMPChecker) Check(ctx context.Context, target string) (*CheckResult, error) {
	pinger, err := probing.NewPinger(target)
	if err != nil {
		return failed(0, fmt.Sprintf("resolve %q: %v", target, err)), fmt.Errorf("resolve %q: %w", target, err)
	}
	pinger.Count = c.count
	pinger.Timeout = c.timeout
	pinger.SetPrivileged(c.privileged)

	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- pinger.Run() }()

	select {
	case err = <-done:
	case <-ctx.Done():
		pinger.Stop()
		<-done
		return failed(time.Since(start), ctx.Err().Error()), fmt.Errorf("ping %s: %w", target, ctx.Err())
	}
	elapsed := time.Since(start)
	if err != nil {
		return failed(elapsed, err.Error()), fmt.Errorf("ping %s: %w", target, err)
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		msg := fmt.Sprintf("no reply from %s (%d sent)", target, stats.PacketsSent)
		return failed(elapsed, msg), fmt.Errorf("ping %s: no reply", target)
	}
	return &CheckResult{Success: true, Latency: stats.AvgRtt, CheckedAt: time.Now().UTC()}, nil
}
