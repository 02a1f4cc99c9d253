package repository

import (
	"context"

	"TradePulse/internal/domain/models"
)

// TickStream is an ordered per-symbol source of ticks. Implementations must
// preserve the per-symbol ordering guarantee; everything else is theirs.
type TickStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	IsConnected() bool
	Close() error
}

// SignalPublisher is an append-only at-least-once channel for signals.
// Publish either succeeds or reports failure; it never silently drops.
type SignalPublisher interface {
	Publish(ctx context.Context, s *models.Signal) error
	Close() error
}

// OrderPublisher is the at-least-once channel for order intents.
type OrderPublisher interface {
	Publish(ctx context.Context, o *models.OrderIntent) error
	Close() error
}

// SignalSource delivers signals to the decision engine. Ack confirms a
// message so it is not redelivered.
type SignalSource interface {
	Read(ctx context.Context) (<-chan *SignalMessage, <-chan error)
	Ack(ctx context.Context, id string) error
	Close() error
}

// SignalMessage pairs a decoded signal with its delivery id.
type SignalMessage struct {
	ID     string
	Signal *models.Signal
}

// DecisionArchive stores emitted order intents append-only.
type DecisionArchive interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, o *models.OrderIntent) error
	Close() error
}

// Metrics records operational measurements.
type Metrics interface {
	RecordTick(symbol string)
	RecordSignal(symbol, model string)
	RecordDecision(symbol, outcome string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordBackendHealth(backend string, healthy bool)
	RecordLatency(op string, seconds float64)
}
