package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/yggdrasil/internal/metrics"
)

// Transport delivers one serialized message to a connected client.
type Transport interface {
	Send(data []byte) error
}

// EndReason records why a session stopped.
type EndReason string

const (
	EndTransportFailed EndReason = "transport_failed"
	EndChannelClosed   EndReason = "channel_closed"
	EndCanceled        EndReason = "canceled"
)

// Subscriber hands out subscriptions without exposing the publishing side.
type Subscriber[T any] interface {
	Subscribe() *Subscription[T]
}

// Session streams every value it receives from its subscription to one client.
// A session is single-use: once Run returns it cannot be resumed.
type Session[T any] struct {
	id           uuid.UUID
	subscription *Subscription[T]
	transport    Transport
	clock        clockwork.Clock
}

// NewSession subscribes immediately, so values published after this call are not missed.
func NewSession[T any](source Subscriber[T], transport Transport, clock clockwork.Clock) *Session[T] {
	return &Session[T]{
		id:           uuid.New(),
		subscription: source.Subscribe(),
		transport:    transport,
		clock:        clock,
	}
}

// ID identifies the session in logs.
func (s *Session[T]) ID() uuid.UUID {
	return s.id
}

// Run delivers values until the transport fails, the channel closes or ctx is cancelled.
// The subscription is released before Run returns.
func (s *Session[T]) Run(ctx context.Context) EndReason {
	metrics.StreamSessionsActive.Inc()
	start := s.clock.Now()

	reason := s.loop(ctx)

	s.subscription.Close()
	metrics.StreamSessionsActive.Dec()
	metrics.StreamSessionsEnded.WithLabelValues(string(reason)).Inc()
	slog.Debug("Stream session ended",
		"session_id", s.id.String(),
		"reason", string(reason),
		"duration", s.clock.Since(start),
	)
	return reason
}

func (s *Session[T]) loop(ctx context.Context) EndReason {
	for {
		value, err := s.subscription.Recv(ctx)
		if err != nil {
			var lagged *LaggedError
			if errors.As(err, &lagged) {
				slog.Debug("Stream session lagged", "session_id", s.id.String(), "skipped", lagged.Skipped)
				continue
			}
			if errors.Is(err, ErrClosed) {
				return EndChannelClosed
			}
			return EndCanceled
		}

		data, err := json.Marshal(value)
		if err != nil {
			slog.Error("Failed to marshal snapshot", "session_id", s.id.String(), "error", err)
			continue
		}

		if err := s.transport.Send(data); err != nil {
			// Expected whenever a client closes or reloads the page.
			slog.Debug("Stream send failed", "session_id", s.id.String(), "error", err)
			return EndTransportFailed
		}
		metrics.StreamMessagesSent.Inc()
	}
}
