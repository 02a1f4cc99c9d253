package engine

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/leaderboard"
	"TradePulse/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordTick(string)                {}
func (nopMetrics) RecordSignal(string, string)      {}
func (nopMetrics) RecordDecision(string, string)    {}
func (nopMetrics) RecordError(string)               {}
func (nopMetrics) RecordLastPrice(string, float64)  {}
func (nopMetrics) RecordBackendHealth(string, bool) {}
func (nopMetrics) RecordLatency(string, float64)    {}

type fakeForecast struct {
	res   models.ForecastResult
	err   error
	delay time.Duration
	calls int
}

func (f *fakeForecast) Forecast(ctx context.Context, symbol string, history []float64) (models.ForecastResult, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return models.ForecastResult{}, ctx.Err()
		}
	}
	if f.err != nil {
		return models.ForecastResult{}, f.err
	}
	return f.res, nil
}

type fakeSentiment struct {
	res   models.SentimentScore
	err   error
	delay time.Duration
	calls int
}

func (f *fakeSentiment) Sentiment(ctx context.Context, symbol, window string) (models.SentimentScore, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return models.SentimentScore{}, ctx.Err()
		}
	}
	if f.err != nil {
		return models.SentimentScore{}, f.err
	}
	return f.res, nil
}

type fakeAccount struct {
	snap models.AccountSnapshot
	err  error
}

func (f *fakeAccount) Snapshot(context.Context) (models.AccountSnapshot, error) {
	return f.snap, f.err
}

func signal(score float64) *models.Signal {
	return &models.Signal{
		ID:          "sig-1",
		Symbol:      "AAPL",
		Timestamp:   100,
		Score:       score,
		Confidence:  0.8,
		SourceModel: "stub",
		Snapshot: models.IndicatorSnapshot{
			Symbol:    "AAPL",
			Timestamp: 100,
			Price:     150,
			EMAFast:   149,
			EMASlow:   148,
			VWAP:      148.5,
			RSI:       50,
		},
	}
}

func newEngine(cfg Config, f *fakeForecast, s *fakeSentiment, a *fakeAccount, board *leaderboard.Tracker) *Engine {
	return New(cfg, f, s, a, board, logger.Nop(), nopMetrics{})
}

func TestDecideBelowMagnitudeGate(t *testing.T) {
	f := &fakeForecast{}
	s := &fakeSentiment{}
	e := newEngine(DefaultConfig(), f, s, &fakeAccount{}, nil)

	intent, outcome, err := e.Decide(context.Background(), signal(0.1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeSuppressed || intent != nil {
		t.Fatalf("expected suppression, got %v %+v", outcome, intent)
	}
	if f.calls != 0 || s.calls != 0 {
		t.Fatalf("providers must not be called below the gate")
	}
}

func TestDecideEmitsBuyOrder(t *testing.T) {
	f := &fakeForecast{res: models.ForecastResult{
		Symbol:     "AAPL",
		Values:     []float64{225}, // +50% vs 150
		Confidence: 0.9,
	}}
	s := &fakeSentiment{res: models.SentimentScore{Symbol: "AAPL", Score: 0.5, Window: "1h"}}
	e := newEngine(DefaultConfig(), f, s, &fakeAccount{snap: models.AccountSnapshot{Equity: 1e6, BuyingPower: 1e6}}, nil)

	intent, outcome, err := e.Decide(context.Background(), signal(0.8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeOrderEmitted || intent == nil {
		t.Fatalf("expected an order, got %v %+v", outcome, intent)
	}
	if intent.Side != models.SideBuy {
		t.Fatalf("expected BUY, got %s", intent.Side)
	}

	// 0.4*0.8 + 0.3*(0.5*0.9) + 0.2*0.5 + 0
	want := 0.32 + 0.135 + 0.1
	if math.Abs(intent.CombinedScore-want) > 1e-9 {
		t.Fatalf("combined %v, want %v", intent.CombinedScore, want)
	}
	if intent.Quantity < 1 || intent.Quantity > 1000 {
		t.Fatalf("quantity out of bounds: %v", intent.Quantity)
	}
	if intent.SignalID != "sig-1" {
		t.Fatalf("intent not linked to signal: %q", intent.SignalID)
	}
}

func TestDecideEmitsSellOrder(t *testing.T) {
	f := &fakeForecast{res: models.ForecastResult{
		Symbol:     "AAPL",
		Values:     []float64{75}, // -50% vs 150
		Confidence: 0.9,
	}}
	s := &fakeSentiment{res: models.SentimentScore{Symbol: "AAPL", Score: -0.5, Window: "1h"}}
	e := newEngine(DefaultConfig(), f, s, &fakeAccount{}, nil)

	intent, outcome, err := e.Decide(context.Background(), signal(-0.8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeOrderEmitted || intent == nil {
		t.Fatalf("expected an order, got %v %+v", outcome, intent)
	}
	if intent.Side != models.SideSell {
		t.Fatalf("expected SELL, got %s", intent.Side)
	}
}

func TestDecideNeutralSubstitutionEqualsExplicitNeutral(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OrderThreshold = 0.2

	failing := newEngine(cfg,
		&fakeForecast{err: errors.New("service down")},
		&fakeSentiment{err: errors.New("service down")},
		&fakeAccount{}, nil)
	neutral := newEngine(cfg,
		&fakeForecast{res: models.ForecastResult{Symbol: "AAPL"}},
		&fakeSentiment{res: models.SentimentScore{Symbol: "AAPL", Window: "1h"}},
		&fakeAccount{}, nil)

	a, aOut, err := failing.Decide(context.Background(), signal(0.8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, bOut, err := neutral.Decide(context.Background(), signal(0.8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aOut != bOut {
		t.Fatalf("outcomes differ: %v vs %v", aOut, bOut)
	}
	if a.CombinedScore != b.CombinedScore {
		t.Fatalf("neutral substitution changed the score: %v vs %v", a.CombinedScore, b.CombinedScore)
	}
	if a.Factors != b.Factors {
		t.Fatalf("factor breakdowns differ: %+v vs %+v", a.Factors, b.Factors)
	}
}

func TestDecideEnrichmentBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OrderThreshold = 0.2
	cfg.EnrichmentBudget = 50 * time.Millisecond
	cfg.ForecastTimeout = time.Second
	cfg.SentimentTimeout = time.Second

	f := &fakeForecast{delay: time.Second, res: models.ForecastResult{Values: []float64{300}, Confidence: 1}}
	s := &fakeSentiment{delay: time.Second, res: models.SentimentScore{Score: 1}}
	e := newEngine(cfg, f, s, &fakeAccount{}, nil)

	start := time.Now()
	intent, outcome, err := e.Decide(context.Background(), signal(0.8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("budget not enforced, took %v", elapsed)
	}
	if outcome != OutcomeOrderEmitted || intent == nil {
		t.Fatalf("expected order from the signal term alone, got %v", outcome)
	}
	// both branches timed out: enrichment terms must be neutral
	if intent.Factors.Forecast != 0 || intent.Factors.Sentiment != 0 {
		t.Fatalf("expected neutral enrichment terms, got %+v", intent.Factors)
	}
}

func TestDecideModelBias(t *testing.T) {
	board := leaderboard.NewTracker()
	for i := 0; i < 5; i++ {
		if err := board.Submit(models.RewardRecord{Model: "stub", Symbol: "AAPL", Reward: 10, Timestamp: 1}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	cfg := DefaultConfig()
	cfg.OrderThreshold = 0.2

	biased := newEngine(cfg, &fakeForecast{err: errors.New("down")}, &fakeSentiment{err: errors.New("down")}, &fakeAccount{}, board)
	flat := newEngine(cfg, &fakeForecast{err: errors.New("down")}, &fakeSentiment{err: errors.New("down")}, &fakeAccount{}, nil)

	a, _, err := biased.Decide(context.Background(), signal(0.8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _, err := flat.Decide(context.Background(), signal(0.8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Factors.ModelBias <= 1 {
		t.Fatalf("expected positive bias, got %v", a.Factors.ModelBias)
	}
	if a.CombinedScore <= b.CombinedScore {
		t.Fatalf("rewarded model should score higher: %v vs %v", a.CombinedScore, b.CombinedScore)
	}
}

func TestSizeRespectsBuyingPower(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinQty = 0.1
	e := newEngine(cfg, &fakeForecast{}, &fakeSentiment{}, &fakeAccount{snap: models.AccountSnapshot{BuyingPower: 300}}, nil)

	snap := models.IndicatorSnapshot{Symbol: "AAPL", Price: 150}
	qty := e.size(context.Background(), snap, 0.9, enrichment{})
	if qty > 2 {
		t.Fatalf("quantity exceeds buying power: %v", qty)
	}
}

func TestSizeVolatilityShrinks(t *testing.T) {
	e := newEngine(DefaultConfig(), &fakeForecast{}, &fakeSentiment{}, &fakeAccount{}, nil)

	calm := models.IndicatorSnapshot{Symbol: "AAPL", Price: 150}
	choppy := models.IndicatorSnapshot{Symbol: "AAPL", Price: 150, ATR: 15}

	a := e.size(context.Background(), calm, 0.9, enrichment{})
	b := e.size(context.Background(), choppy, 0.9, enrichment{})
	if b >= a {
		t.Fatalf("volatility should shrink position: calm=%v choppy=%v", a, b)
	}
}

func TestSizeClamped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseQty = 10000
	e := newEngine(cfg, &fakeForecast{}, &fakeSentiment{}, &fakeAccount{}, nil)

	snap := models.IndicatorSnapshot{Symbol: "AAPL", Price: 150}
	if qty := e.size(context.Background(), snap, 1, enrichment{}); qty != cfg.MaxQty {
		t.Fatalf("expected clamp to max, got %v", qty)
	}

	cfg = DefaultConfig()
	cfg.BaseQty = 0.1
	e = newEngine(cfg, &fakeForecast{}, &fakeSentiment{}, &fakeAccount{}, nil)
	if qty := e.size(context.Background(), snap, 0.01, enrichment{}); qty != cfg.MinQty {
		t.Fatalf("expected clamp to min, got %v", qty)
	}
}

func TestMomentumTerm(t *testing.T) {
	overbought := models.IndicatorSnapshot{Price: 100, RSI: 80}
	if m := momentum(overbought); m != -0.5 {
		t.Fatalf("overbought momentum %v", m)
	}
	oversold := models.IndicatorSnapshot{Price: 100, RSI: 20}
	if m := momentum(oversold); m != 0.5 {
		t.Fatalf("oversold momentum %v", m)
	}
	volatile := models.IndicatorSnapshot{Price: 100, RSI: 80, ATR: 10}
	if m := momentum(volatile); m != -0.25 {
		t.Fatalf("volatility damping wrong: %v", m)
	}
	neutral := models.IndicatorSnapshot{Price: 100, RSI: 50}
	if m := momentum(neutral); m != 0 {
		t.Fatalf("neutral momentum %v", m)
	}
}
