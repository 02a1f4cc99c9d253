package usecase

import (
	"context"
	"encoding/json"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	pkgkafka "TradePulse/pkg/kafka"
)

// TickHandler consumes tick messages from Kafka and feeds the pattern
// engine. Ticks are keyed by symbol on the producer side, so the consumer's
// per-partition serialization keeps one symbol's ticks in order.
type TickHandler struct {
	topic   string
	engine  *PatternEngine
	metrics domrepo.Metrics
}

func NewTickHandler(topic string, engine *PatternEngine, metrics domrepo.Metrics) *TickHandler {
	return &TickHandler{topic: topic, engine: engine, metrics: metrics}
}

func (h *TickHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, t, c, v[, b, a]}
func (h *TickHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		T      int64   `json:"t"`
		C      float64 `json:"c"`
		V      float64 `json:"v"`
		B      float64 `json:"b"`
		A      float64 `json:"a"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("tick_unmarshal")
		return err
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}

	_, err := h.engine.ProcessTick(ctx, &models.Tick{
		Symbol:    m.Symbol,
		Timestamp: m.T,
		Price:     m.C,
		Volume:    m.V,
		Bid:       m.B,
		Ask:       m.A,
	})
	return err
}

var _ pkgkafka.MessageHandler = (*TickHandler)(nil)
