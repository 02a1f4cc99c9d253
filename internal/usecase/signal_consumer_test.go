package usecase

import (
	"context"
	"testing"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/engine"
	"TradePulse/pkg/logger"
)

type fakeSource struct {
	acked []string
}

func (f *fakeSource) Read(context.Context) (<-chan *domrepo.SignalMessage, <-chan error) {
	return nil, nil
}

func (f *fakeSource) Ack(_ context.Context, id string) error {
	f.acked = append(f.acked, id)
	return nil
}

func (f *fakeSource) Close() error { return nil }

type fakeOrders struct {
	published []*models.OrderIntent
}

func (f *fakeOrders) Publish(_ context.Context, o *models.OrderIntent) error {
	f.published = append(f.published, o)
	return nil
}

func (f *fakeOrders) Close() error { return nil }

type neutralForecast struct{}

func (neutralForecast) Forecast(context.Context, string, []float64) (models.ForecastResult, error) {
	return models.ForecastResult{}, nil
}

type neutralSentiment struct{}

func (neutralSentiment) Sentiment(context.Context, string, string) (models.SentimentScore, error) {
	return models.SentimentScore{}, nil
}

type emptyAccount struct{}

func (emptyAccount) Snapshot(context.Context) (models.AccountSnapshot, error) {
	return models.AccountSnapshot{}, nil
}

func newDecisionEngine(cfg engine.Config) *engine.Engine {
	return engine.New(cfg, neutralForecast{}, neutralSentiment{}, emptyAccount{}, nil, logger.Nop(), nopMetrics{})
}

func consumerSignal(score float64) *domrepo.SignalMessage {
	return &domrepo.SignalMessage{
		ID: "msg-1",
		Signal: &models.Signal{
			ID:          "sig-1",
			Symbol:      "AAPL",
			Timestamp:   100,
			Score:       score,
			Confidence:  0.8,
			SourceModel: "stub",
			Snapshot:    models.IndicatorSnapshot{Symbol: "AAPL", Timestamp: 100, Price: 150, RSI: 50},
		},
	}
}

func TestHandleSuppressedSignalIsAcked(t *testing.T) {
	src := &fakeSource{}
	orders := &fakeOrders{}
	c := NewSignalConsumer(src, newDecisionEngine(engine.DefaultConfig()), orders, nil, logger.Nop(), nopMetrics{})

	c.handle(context.Background(), consumerSignal(0.1))

	if len(orders.published) != 0 {
		t.Fatalf("suppressed signal emitted an order: %+v", orders.published)
	}
	if len(src.acked) != 1 || src.acked[0] != "msg-1" {
		t.Fatalf("suppressed signal must still be acked, got %v", src.acked)
	}
}

func TestHandleEmittedOrderIsPublishedThenAcked(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.OrderThreshold = 0.2
	src := &fakeSource{}
	orders := &fakeOrders{}
	c := NewSignalConsumer(src, newDecisionEngine(cfg), orders, nil, logger.Nop(), nopMetrics{})

	c.handle(context.Background(), consumerSignal(0.8))

	if len(orders.published) != 1 {
		t.Fatalf("expected one order, got %d", len(orders.published))
	}
	if orders.published[0].SignalID != "sig-1" {
		t.Fatalf("order not linked to signal: %+v", orders.published[0])
	}
	if len(src.acked) != 1 {
		t.Fatalf("expected ack after publish, got %v", src.acked)
	}
}
