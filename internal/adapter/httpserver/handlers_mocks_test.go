package httpserver

import (
	"context"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/yggdrasil/internal/broadcast"
	"github.com/pscheid92/yggdrasil/internal/domain"
	"github.com/pscheid92/yggdrasil/internal/platform/config"
)

// --- Mock implementations ---

type mockAstronomyService struct {
	pictureFn func(ctx context.Context) (domain.Picture, error)
	fitsFn    func(ctx context.Context) (domain.FitsListing, error)
}

func (m *mockAstronomyService) PictureOfTheDay(ctx context.Context) (domain.Picture, error) {
	if m.pictureFn != nil {
		return m.pictureFn(ctx)
	}
	return domain.Picture{Date: "2024-03-10", Title: "Horsehead", MediaType: "image"}, nil
}

func (m *mockAstronomyService) FitsOfTheDay(ctx context.Context) (domain.FitsListing, error) {
	if m.fitsFn != nil {
		return m.fitsFn(ctx)
	}
	return domain.FitsListing{Date: "2024-03-10", Files: []string{}}, nil
}

// --- Test server ---

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:                       "test",
		Port:                         "0",
		MaxWebSocketConnections:      100,
		MaxWebSocketConnectionsPerIP: 10,
		WebSocketConnectRate:         100,
		APIRateLimit:                 100,
		APIRateBurst:                 100,
	}
}

func withHealthChecks(checks ...HealthCheck) func(*config.Config, *serverDeps) {
	return func(_ *config.Config, d *serverDeps) {
		d.healthChecks = checks
	}
}

func withConfig(mutate func(*config.Config)) func(*config.Config, *serverDeps) {
	return func(cfg *config.Config, _ *serverDeps) {
		mutate(cfg)
	}
}

func withStream(stream stateStream) func(*config.Config, *serverDeps) {
	return func(_ *config.Config, d *serverDeps) {
		d.stream = stream
	}
}

type serverDeps struct {
	healthChecks []HealthCheck
	stream       stateStream
	clock        clockwork.Clock
}

func newTestServer(t *testing.T, astronomy domain.AstronomyService, opts ...func(*config.Config, *serverDeps)) *Server {
	t.Helper()

	cfg := testConfig()
	deps := &serverDeps{
		stream: broadcast.NewChannel[domain.NetworkState](),
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(cfg, deps)
	}

	return NewServer(cfg, astronomy, deps.stream, deps.clock, deps.healthChecks)
}
