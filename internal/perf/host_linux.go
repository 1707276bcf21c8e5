//go:build linux

package perf

import (
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"
)

// procHost reads /proc through procfs and the disk through statfs. CPU and
// network figures are deltas, so the first sample omits them.
type procHost struct {
	diskPath string

	mu       sync.Mutex
	fs       *procfs.FS
	prevCPU  *procfs.CPUStat
	prevNet  uint64
	havePrev bool
}

func newHostSampler(diskPath string) hostSampler {
	return &procHost{diskPath: diskPath}
}

func (h *procHost) sample(into map[string]float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.fs == nil {
		fs, err := procfs.NewDefaultFS()
		if err != nil {
			return fmt.Errorf("open procfs: %w", err)
		}
		h.fs = &fs
	}

	var errs []error

	if stat, err := h.fs.Stat(); err != nil {
		errs = append(errs, fmt.Errorf("read stat: %w", err))
	} else {
		cur := stat.CPUTotal
		if h.prevCPU != nil {
			if pct, ok := cpuPercent(*h.prevCPU, cur); ok {
				into[MetricCPU] = pct
			}
		}
		h.prevCPU = &cur
	}

	if mi, err := h.fs.Meminfo(); err != nil {
		errs = append(errs, fmt.Errorf("read meminfo: %w", err))
	} else if mi.MemTotal != nil && mi.MemAvailable != nil && *mi.MemTotal > 0 {
		used := float64(*mi.MemTotal - *mi.MemAvailable)
		into[MetricMemory] = used / float64(*mi.MemTotal) * 100
	}

	if nd, err := h.fs.NetDev(); err != nil {
		errs = append(errs, fmt.Errorf("read net/dev: %w", err))
	} else {
		total := nd.Total()
		bytes := total.RxBytes + total.TxBytes
		if h.havePrev && bytes >= h.prevNet {
			into[MetricNetworkIO] = float64(bytes - h.prevNet)
		}
		h.prevNet = bytes
		h.havePrev = true
	}

	if h.diskPath != "" {
		var st unix.Statfs_t
		if err := unix.Statfs(h.diskPath, &st); err != nil {
			errs = append(errs, fmt.Errorf("statfs %s: %w", h.diskPath, err))
		} else if st.Blocks > 0 {
			into[MetricDisk] = diskPercent(st.Blocks, st.Bavail)
		}
	}

	return errors.Join(errs...)
}

func cpuPercent(prev, cur procfs.CPUStat) (float64, bool) {
	idle := func(c procfs.CPUStat) float64 { return c.Idle + c.Iowait }
	total := func(c procfs.CPUStat) float64 {
		return c.User + c.Nice + c.System + c.Idle + c.Iowait + c.IRQ + c.SoftIRQ + c.Steal
	}
	dTotal := total(cur) - total(prev)
	if dTotal <= 0 {
		return 0, false
	}
	return (1 - (idle(cur)-idle(prev))/dTotal) * 100, true
}
