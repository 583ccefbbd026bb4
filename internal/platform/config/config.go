package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"7032"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	APODAPIURL      string        `env:"APOD_API_URL" default:"https://api.nasa.gov/planetary/apod"`
	APODAPIKey      string        `env:"APOD_API_KEY" default:"DEMO_KEY"`
	APODPageURL     string        `env:"APOD_PAGE_URL" default:"https://apod.nasa.gov/apod/"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" default:"15s"`

	HeimdallInventory    string        `env:"HEIMDALL_INVENTORY"`
	HeimdallInterval     time.Duration `env:"HEIMDALL_INTERVAL" default:"2s"`
	HeimdallProbeTimeout time.Duration `env:"HEIMDALL_PROBE_TIMEOUT" default:"500ms"`

	MaxWebSocketConnections      int     `env:"MAX_WEBSOCKET_CONNECTIONS" default:"1000"`
	MaxWebSocketConnectionsPerIP int     `env:"MAX_WEBSOCKET_CONNECTIONS_PER_IP" default:"20"`
	WebSocketConnectRate         float64 `env:"WEBSOCKET_CONNECT_RATE" default:"5"`

	APIRateLimit float64 `env:"API_RATE_LIMIT" default:"2"`
	APIRateBurst int     `env:"API_RATE_BURST" default:"10"`

	TracingEnabled bool `env:"TRACING_ENABLED" default:"false"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	urls := map[string]string{
		"APOD_API_URL":  cfg.APODAPIURL,
		"APOD_PAGE_URL": cfg.APODPageURL,
	}
	for name, value := range urls {
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL", name)
		}
	}

	if cfg.APODAPIKey == "" {
		return errors.New("APOD_API_KEY is required")
	}

	durations := map[string]time.Duration{
		"UPSTREAM_TIMEOUT":       cfg.UpstreamTimeout,
		"HEIMDALL_INTERVAL":      cfg.HeimdallInterval,
		"HEIMDALL_PROBE_TIMEOUT": cfg.HeimdallProbeTimeout,
	}
	for name, value := range durations {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	if cfg.HeimdallProbeTimeout >= cfg.HeimdallInterval {
		return errors.New("HEIMDALL_PROBE_TIMEOUT must be shorter than HEIMDALL_INTERVAL")
	}

	if cfg.MaxWebSocketConnections <= 0 || cfg.MaxWebSocketConnectionsPerIP <= 0 {
		return errors.New("websocket connection limits must be positive")
	}
	if cfg.MaxWebSocketConnectionsPerIP > cfg.MaxWebSocketConnections {
		return errors.New("MAX_WEBSOCKET_CONNECTIONS_PER_IP cannot exceed MAX_WEBSOCKET_CONNECTIONS")
	}
	if cfg.WebSocketConnectRate <= 0 || cfg.APIRateLimit <= 0 || cfg.APIRateBurst <= 0 {
		return errors.New("rate limits must be positive")
	}

	return nil
}
