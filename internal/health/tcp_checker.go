package health

import (
	"context"
	"fmt"
	"net"
	"time"
)

// Compile-time interface guard.
var _ Checker = (*TCPChecker)(nil)

// TCPChecker tests TCP connectivity to host:port targets such as a broker
// or cache.
type TCPChecker struct {
	timeout time.Duration
}

// NewTCPChecker creates a new TCP checker with the given connection timeout.
func NewTCPChecker(timeout time.Duration) *TCPChecker {
	return &TCPChecker{timeout: timeout}
}

// Check connects to the target (host:port) and measures connection time.
func (c *TCPChecker) Check(ctx context.Context, target string) (*CheckResult, error) {
	if _, _, err := net.SplitHostPort(target); err != nil {
		return failed(0, fmt.Sprintf("invalid target %q: %v", target, err)), fmt.Errorf("invalid target %q: %w", target, err)
	}

	start := time.Now()
	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", target)
	elapsed := time.Since(start)
	if err != nil {
		return failed(elapsed, err.Error()), fmt.Errorf("tcp connect %s: %w", target, err)
	}
	conn.Close()

	return &CheckResult{Success: true, Latency: elapsed, CheckedAt: time.Now().UTC()}, nil
}
