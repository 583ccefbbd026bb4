package heimdall

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// HostSampler reports CPU and memory usage of the local host, in percent.
type HostSampler interface {
	Sample(ctx context.Context) (cpuUsage, memUsage float64, err error)
}

// Prober reports whether a device address is reachable.
type Prober interface {
	Probe(ctx context.Context, address string) bool
}

// SystemSampler samples the local host through gopsutil.
type SystemSampler struct{}

func (SystemSampler) Sample(ctx context.Context) (float64, float64, error) {
	// Interval 0 compares against the previous call, so the first sample after startup may read 0.
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sample cpu: %w", err)
	}
	if len(percents) == 0 {
		return 0, 0, errors.New("failed to sample cpu: no values")
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sample memory: %w", err)
	}

	return percents[0], vm.UsedPercent, nil
}

// TCPProber treats a device as online when a TCP connection to its address succeeds within Timeout.
type TCPProber struct {
	Timeout time.Duration
}

func (p TCPProber) Probe(ctx context.Context, address string) bool {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
