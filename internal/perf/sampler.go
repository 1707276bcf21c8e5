package perf

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"time"
)

// Sampler reads one set of metrics. Metrics it cannot measure are left out
// of the map rather than reported as zero.
type Sampler interface {
	Sample(ctx context.Context) (map[string]float64, error)
}

// hostSampler reads machine-wide CPU, memory, disk and network counters.
// Implemented per platform.
type hostSampler interface {
	sample(into map[string]float64) error
}

// RuntimeSampler reports process runtime metrics, host metrics where the
// platform supports them, database pool usage and API latency.
type RuntimeSampler struct {
	host   hostSampler
	db     *sql.DB
	apiURL string
	client *http.Client
}

// NewRuntimeSampler creates a sampler. db and apiURL are optional.
func NewRuntimeSampler(cfg PerfConfig, db *sql.DB) *RuntimeSampler {
	return &RuntimeSampler{
		host:   newHostSampler(cfg.DiskPath),
		db:     db,
		apiURL: cfg.APIURL,
		client: &http.Client{Timeout: cfg.APITimeout},
	}
}

// Sample implements Sampler. Partial results are returned together with
// the joined errors of the parts that failed.
func (s *RuntimeSampler) Sample(ctx context.Context) (map[string]float64, error) {
	out := make(map[string]float64, 8)

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	out[MetricGoroutines] = float64(runtime.NumGoroutine())
	out[MetricHeapInUse] = float64(ms.HeapInuse) / (1 << 20)

	var errs []error
	if s.host != nil {
		if err := s.host.sample(out); err != nil {
			errs = append(errs, fmt.Errorf("host metrics: %w", err))
		}
	}
	if s.db != nil {
		out[MetricDBConnections] = float64(s.db.Stats().OpenConnections)
	}
	if s.apiURL != "" {
		latency, err := s.apiLatency(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("api latency: %w", err))
		} else {
			out[MetricAPILatency] = latency
		}
	}
	return out, errors.Join(errs...)
}

// apiLatency times a GET against the configured URL in milliseconds. Any
// response counts; only transport failures are errors.
func (s *RuntimeSampler) apiLatency(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL, http.NoBody)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	resp.Body.Close()
	return float64(time.Since(start).Microseconds()) / 1000, nil
}

// diskPercent is the used share of a filesystem, counting blocks reserved
// for root as used.
func diskPercent(blocks, avail uint64) float64 {
	if blocks == 0 || avail > blocks {
		return 0
	}
	return float64(blocks-avail) / float64(blocks) * 100
}
