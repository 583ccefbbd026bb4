package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/yggdrasil/internal/adapter/httpserver"
	"github.com/pscheid92/yggdrasil/internal/app"
	"github.com/pscheid92/yggdrasil/internal/broadcast"
	"github.com/pscheid92/yggdrasil/internal/domain"
	"github.com/pscheid92/yggdrasil/internal/earendel"
	"github.com/pscheid92/yggdrasil/internal/heimdall"
	"github.com/pscheid92/yggdrasil/internal/platform/config"
	"github.com/pscheid92/yggdrasil/internal/platform/logging"
	"github.com/pscheid92/yggdrasil/internal/platform/tracing"
	"github.com/pscheid92/yggdrasil/internal/platform/version"
)

const shutdownTimeout = 10 * time.Second

type shutdownDeps struct {
	server         *httpserver.Server
	stopMonitor    context.CancelFunc
	bridge         *broadcast.Bridge[domain.NetworkState]
	channel        *broadcast.Channel[domain.NetworkState]
	tracerShutdown func(context.Context) error
}

func runGracefulShutdown(deps shutdownDeps) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := deps.server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		// The monitor closes its channel, so the bridge worker exits on its own.
		deps.stopMonitor()
		select {
		case <-deps.bridge.Done():
		case <-shutdownCtx.Done():
			slog.Warn("Bridge worker did not exit before shutdown deadline")
		}

		// Ends sessions that outlived the HTTP shutdown (hijacked WebSocket connections).
		deps.channel.Close()

		if err := deps.tracerShutdown(shutdownCtx); err != nil {
			slog.Error("Tracer shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupTracing(cfg *config.Config) func(context.Context) error {
	shutdown, err := tracing.Init(context.Background(), tracing.Config{
		ServiceName:    version.Service,
		ServiceVersion: version.Version,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		slog.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	return shutdown
}

func setupMonitor(cfg *config.Config, clock clockwork.Clock) *heimdall.Monitor {
	inventory, err := heimdall.LoadInventory(context.Background(), cfg.HeimdallInventory)
	if err != nil {
		slog.Error("Failed to load device inventory", "path", cfg.HeimdallInventory, "error", err)
		os.Exit(1)
	}
	slog.Info("Device inventory loaded", "devices", len(inventory.Devices))

	prober := heimdall.TCPProber{Timeout: cfg.HeimdallProbeTimeout}
	return heimdall.NewMonitor(inventory, heimdall.SystemSampler{}, prober, clock, cfg.HeimdallInterval)
}

func setupAstronomy(cfg *config.Config, clock clockwork.Clock) *app.Service {
	client, err := earendel.NewClient(earendel.Config{
		APIURL:  cfg.APODAPIURL,
		APIKey:  cfg.APODAPIKey,
		PageURL: cfg.APODPageURL,
		Timeout: cfg.UpstreamTimeout,
	})
	if err != nil {
		slog.Error("Failed to create APOD client", "error", err)
		os.Exit(1)
	}
	return app.NewService(client, client, clock)
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Version)

	tracerShutdown := setupTracing(cfg)

	monitor := setupMonitor(cfg, clock)
	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	go monitor.Run(monitorCtx)

	channel := broadcast.NewChannel[domain.NetworkState]()
	bridge := broadcast.NewBridge(monitor.Listen(), channel)
	bridge.Start()

	astronomy := setupAstronomy(cfg, clock)

	healthChecks := []httpserver.HealthCheck{httpserver.BridgeCheck(bridge)}

	srv := httpserver.NewServer(cfg, astronomy, bridge, clock, healthChecks)

	done := runGracefulShutdown(shutdownDeps{
		server:         srv,
		stopMonitor:    stopMonitor,
		bridge:         bridge,
		channel:        channel,
		tracerShutdown: tracerShutdown,
	})

	if err := srv.Start(); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
	if day, ok := astronomy.CachedDay(); ok {
		slog.Info("Picture cache at shutdown", "day", day)
	}
	slog.Info("Shutdown complete")
}
