package feed

import (
	"context"

	"TradePulse/internal/domain/models"
	pkgkafka "TradePulse/pkg/kafka"
)

// Forwarder publishes ticks to the tick topic keyed by symbol, so one
// symbol's ticks always land on one partition.
type Forwarder struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewForwarder creates a Kafka tick forwarder.
func NewForwarder(producer *pkgkafka.Producer, topic string) *Forwarder {
	return &Forwarder{producer: producer, topic: topic}
}

// Process publishes the tick in the wire schema {symbol, t, c, v, b, a}.
func (f *Forwarder) Process(ctx context.Context, t *models.Tick) error {
	msg := struct {
		Symbol string  `json:"symbol"`
		T      int64   `json:"t"`
		C      float64 `json:"c"`
		V      float64 `json:"v"`
		B      float64 `json:"b,omitempty"`
		A      float64 `json:"a,omitempty"`
	}{
		Symbol: t.Symbol,
		T:      t.Timestamp,
		C:      t.Price,
		V:      t.Volume,
		B:      t.Bid,
		A:      t.Ask,
	}
	return f.producer.Publish(ctx, f.topic, []byte(t.Symbol), msg)
}
