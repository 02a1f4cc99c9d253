package usecase

import (
	"context"
	"errors"
	"testing"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/emitter"
	"TradePulse/internal/indicator"
	"TradePulse/internal/inference"
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

type fakePublisher struct {
	published []*models.Signal
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, s *models.Signal) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, s)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func newTestEngine(pub *fakePublisher, opts ...emitter.Option) *PatternEngine {
	log := logger.Nop()
	store := indicator.NewStore()
	chain := inference.NewChain(log, nopMetrics{}, []inference.Backend{inference.NewStub()})
	em := emitter.New(pub, log, nopMetrics{}, opts...)
	return NewPatternEngine(store, chain, em, log, nopMetrics{})
}

func TestProcessTickPublishesSignal(t *testing.T) {
	pub := &fakePublisher{}
	pe := newTestEngine(pub, emitter.WithCooldown(0))

	sig, err := pe.ProcessTick(context.Background(), &models.Tick{Symbol: "AAPL", Timestamp: 100, Price: 150, Volume: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig == nil || len(pub.published) != 1 {
		t.Fatalf("expected one published signal, got %v", pub.published)
	}
	if sig.Symbol != "AAPL" || sig.SourceModel != "stub" {
		t.Fatalf("unexpected signal: %+v", sig)
	}
}

func TestProcessTickStaleDroppedSilently(t *testing.T) {
	pub := &fakePublisher{}
	pe := newTestEngine(pub, emitter.WithCooldown(0))
	ctx := context.Background()

	if _, err := pe.ProcessTick(ctx, &models.Tick{Symbol: "AAPL", Timestamp: 100, Price: 150, Volume: 10}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sig, err := pe.ProcessTick(ctx, &models.Tick{Symbol: "AAPL", Timestamp: 90, Price: 149, Volume: 10})
	if err != nil {
		t.Fatalf("stale tick must not surface an error: %v", err)
	}
	if sig != nil {
		t.Fatalf("stale tick produced a signal: %+v", sig)
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected one published signal, got %d", len(pub.published))
	}
}

func TestProcessTickCooldownSuppresses(t *testing.T) {
	pub := &fakePublisher{}
	pe := newTestEngine(pub) // default 30s cooldown
	ctx := context.Background()

	if _, err := pe.ProcessTick(ctx, &models.Tick{Symbol: "AAPL", Timestamp: 100, Price: 150, Volume: 10}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sig, err := pe.ProcessTick(ctx, &models.Tick{Symbol: "AAPL", Timestamp: 110, Price: 151, Volume: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig != nil {
		t.Fatalf("cooldown ignored: %+v", sig)
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected one published signal, got %d", len(pub.published))
	}
}

func TestProcessTickPublishFailurePropagates(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel down")}
	pe := newTestEngine(pub, emitter.WithCooldown(0), emitter.WithRetry(2, 1))

	_, err := pe.ProcessTick(context.Background(), &models.Tick{Symbol: "AAPL", Timestamp: 100, Price: 150, Volume: 10})
	if !errors.Is(err, emitter.ErrPublishFailed) {
		t.Fatalf("expected ErrPublishFailed, got %v", err)
	}
}

func TestTickHandlerDecodesAndNormalizes(t *testing.T) {
	pub := &fakePublisher{}
	pe := newTestEngine(pub, emitter.WithCooldown(0))
	h := NewTickHandler("ticks.global", pe, nopMetrics{})

	if h.Topic() != "ticks.global" {
		t.Fatalf("topic %q", h.Topic())
	}

	// millisecond timestamp is normalized to seconds
	msg := []byte(`{"symbol":"AAPL","t":1700000000000,"c":150.5,"v":10}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected one signal, got %d", len(pub.published))
	}
	if ts := pub.published[0].Timestamp; ts != 1700000000 {
		t.Fatalf("timestamp not normalized: %d", ts)
	}

	if err := h.Handle(context.Background(), []byte("{broken")); err == nil {
		t.Fatalf("expected unmarshal error")
	}
}
