package heimdall

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/yggdrasil/internal/domain"
	"github.com/pscheid92/yggdrasil/internal/metrics"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentProbes = 16

// Monitor produces a full NetworkState every interval on an unbuffered channel.
type Monitor struct {
	inventory Inventory
	sampler   HostSampler
	prober    Prober
	clock     clockwork.Clock
	interval  time.Duration
	out       chan domain.NetworkState
}

func NewMonitor(inventory Inventory, sampler HostSampler, prober Prober, clock clockwork.Clock, interval time.Duration) *Monitor {
	return &Monitor{
		inventory: inventory,
		sampler:   sampler,
		prober:    prober,
		clock:     clock,
		interval:  interval,
		out:       make(chan domain.NetworkState),
	}
}

// Listen returns the snapshot channel. It is closed once Run returns.
func (m *Monitor) Listen() <-chan domain.NetworkState {
	return m.out
}

// Run samples immediately and then once per interval, blocking on each send until it is
// received. It returns when ctx is cancelled and closes the channel on the way out.
func (m *Monitor) Run(ctx context.Context) {
	defer close(m.out)

	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		state := m.Snapshot(ctx)

		select {
		case m.out <- state:
			metrics.MonitorSamplesTotal.Inc()
		case <-ctx.Done():
			slog.Info("Network monitor stopped")
			return
		}

		select {
		case <-ticker.Chan():
		case <-ctx.Done():
			slog.Info("Network monitor stopped")
			return
		}
	}
}

// Snapshot builds one NetworkState in inventory order.
func (m *Monitor) Snapshot(ctx context.Context) domain.NetworkState {
	state := make(domain.NetworkState, len(m.inventory.Devices))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentProbes)

	for i, d := range m.inventory.Devices {
		state[i] = domain.Device{
			Name:         d.Name,
			Connection:   d.Kind(),
			Capabilities: capabilities(d.Capabilities),
		}

		if d.Kind() == domain.ConnectionOrigin {
			state[i].Online = true
			cpuUsage, memUsage, err := m.sampler.Sample(ctx)
			if err != nil {
				slog.Warn("Host sample failed", "device", d.Name, "error", err)
				continue
			}
			state[i].CPUUsage = round(cpuUsage)
			state[i].MemUsage = round(memUsage)
			continue
		}

		g.Go(func() error {
			state[i].Online = m.prober.Probe(gctx, d.Address)
			return nil
		})
	}
	_ = g.Wait()

	online := 0
	for _, d := range state {
		if d.Online {
			online++
		}
	}
	metrics.MonitorDevicesOnline.Set(float64(online))

	return state
}

func capabilities(c []string) []string {
	out := make([]string, len(c))
	copy(out, c)
	return out
}

func round(v float64) float64 {
	return math.Round(v*10) / 10
}
