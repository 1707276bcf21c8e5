package health

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Compile-time interface guard.
var _ Checker = (*SQLChecker)(nil)

var errNoDatabase = errors.New("no database configured")

// SQLChecker pings the shared database. The target is ignored.
type SQLChecker struct {
	db *sql.DB
}

func NewSQLChecker(db *sql.DB) *SQLChecker {
	return &SQLChecker{db: db}
}

func (c *SQLChecker) Check(ctx context.Context, _ string) (*CheckResult, error) {
	if c.db == nil {
		return failed(0, errNoDatabase.Error()), errNoDatabase
	}
	start := time.Now()
	err := c.db.PingContext(ctx)
	elapsed := time.Since(start)
	if err != nil {
		return failed(elapsed, err.Error()), fmt.Errorf("ping database: %w", err)
	}
	return &CheckResult{Success: true, Latency: elapsed, CheckedAt: time.Now().UTC()}, nil
}
