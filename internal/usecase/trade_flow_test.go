package usecase

import (
	"context"
	"testing"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/emitter"
	"TradePulse/internal/engine"
	"TradePulse/internal/indicator"
	"TradePulse/internal/inference"
	"TradePulse/pkg/logger"
)

type steadyBackend struct{}

func (steadyBackend) Name() string { return "onnx" }

func (steadyBackend) HealthCheck(context.Context) error { return nil }

func (steadyBackend) Infer(_ context.Context, _ string, _ models.IndicatorSnapshot) (models.InferenceResult, error) {
	return models.InferenceResult{Direction: 1, Confidence: 0.8, Model: "onnx"}, nil
}

type bullishForecast struct{}

func (bullishForecast) Forecast(_ context.Context, symbol string, history []float64) (models.ForecastResult, error) {
	last := history[len(history)-1]
	return models.ForecastResult{Symbol: symbol, Values: []float64{last * 1.5}, Confidence: 0.9}, nil
}

type mildSentiment struct{}

func (mildSentiment) Sentiment(_ context.Context, symbol, window string) (models.SentimentScore, error) {
	return models.SentimentScore{Symbol: symbol, Score: 0.5, Window: window}, nil
}

type fundedAccount struct{}

func (fundedAccount) Snapshot(context.Context) (models.AccountSnapshot, error) {
	return models.AccountSnapshot{Equity: 1_000_000, BuyingPower: 1_000_000}, nil
}

// A steadily rising symbol must come out the far end as a BUY: the ticks
// converge the EMAs, the published signal scores positive, and the decision
// engine sizes an order inside the configured bounds.
func TestRisingTicksProduceBuyOrder(t *testing.T) {
	pub := &fakePublisher{}
	log := logger.Nop()
	store := indicator.NewStore()
	chain := inference.NewChain(log, nopMetrics{}, []inference.Backend{steadyBackend{}, inference.NewStub()})
	em := emitter.New(pub, log, nopMetrics{}, emitter.WithCooldown(0))
	pe := NewPatternEngine(store, chain, em, log, nopMetrics{})

	ctx := context.Background()
	var last *models.Signal
	for i := 0; i < 20; i++ {
		sig, err := pe.ProcessTick(ctx, &models.Tick{
			Symbol:    "AAPL",
			Timestamp: int64(100 + i),
			Price:     100 + float64(i),
			Volume:    10,
		})
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if sig != nil {
			last = sig
		}
	}
	if last == nil {
		t.Fatalf("no signal emitted after 20 ticks")
	}

	snap := last.Snapshot
	if snap.EMAFast <= snap.EMASlow {
		t.Fatalf("fast EMA should lead slow on a rising ramp: fast=%v slow=%v", snap.EMAFast, snap.EMASlow)
	}
	if snap.EMAFast >= snap.Price {
		t.Fatalf("EMA should lag a rising ramp: fast=%v price=%v", snap.EMAFast, snap.Price)
	}
	if snap.RSI <= 70 {
		t.Fatalf("monotonic gains should drive RSI high, got %v", snap.RSI)
	}
	if last.Score <= 0 {
		t.Fatalf("rising ramp should score positive, got %v", last.Score)
	}

	cfg := engine.DefaultConfig()
	eng := engine.New(cfg, bullishForecast{}, mildSentiment{}, fundedAccount{}, nil, log, nopMetrics{})

	intent, outcome, err := eng.Decide(ctx, last)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if outcome != engine.OutcomeOrderEmitted || intent == nil {
		t.Fatalf("expected an order, got outcome=%v intent=%v", outcome, intent)
	}
	if intent.Side != models.SideBuy {
		t.Fatalf("expected BUY, got %v (combined=%v factors=%+v)", intent.Side, intent.CombinedScore, intent.Factors)
	}
	if intent.CombinedScore <= cfg.OrderThreshold {
		t.Fatalf("combined score %v should clear the threshold %v", intent.CombinedScore, cfg.OrderThreshold)
	}
	if intent.Quantity < cfg.MinQty || intent.Quantity > cfg.MaxQty {
		t.Fatalf("quantity %v outside [%v, %v]", intent.Quantity, cfg.MinQty, cfg.MaxQty)
	}
	if intent.SignalID != last.ID {
		t.Fatalf("order not linked to its signal: %q vs %q", intent.SignalID, last.ID)
	}
}
