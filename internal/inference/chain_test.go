package inference

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
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

type fakeBackend struct {
	name      string
	healthErr error
	inferErr  error
	probes    int
	infers    int
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) HealthCheck(context.Context) error {
	f.probes++
	return f.healthErr
}

func (f *fakeBackend) Infer(_ context.Context, _ string, _ models.IndicatorSnapshot) (models.InferenceResult, error) {
	f.infers++
	if f.inferErr != nil {
		return models.InferenceResult{}, f.inferErr
	}
	return models.InferenceResult{Direction: 0.5, Confidence: 0.8, Model: f.name}, nil
}

func snapshot() models.IndicatorSnapshot {
	return models.IndicatorSnapshot{Symbol: "AAPL", Price: 102, EMAFast: 101, EMASlow: 100}
}

func TestChainFallsThroughToStub(t *testing.T) {
	gpu := &fakeBackend{name: "tensorrt", healthErr: errors.New("down")}
	cpu := &fakeBackend{name: "onnx", inferErr: errors.New("boom")}
	c := NewChain(logger.Nop(), nopMetrics{}, []Backend{gpu, cpu, NewStub()})

	res, err := c.Infer(context.Background(), "AAPL", snapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Model != "stub" {
		t.Fatalf("expected stub result, got %q", res.Model)
	}
	if gpu.infers != 0 {
		t.Fatalf("unhealthy backend must not be called, got %d infers", gpu.infers)
	}
	if cpu.infers != 1 {
		t.Fatalf("expected one cpu attempt, got %d", cpu.infers)
	}
}

func TestChainPrefersFirstHealthyBackend(t *testing.T) {
	gpu := &fakeBackend{name: "tensorrt"}
	cpu := &fakeBackend{name: "onnx"}
	c := NewChain(logger.Nop(), nopMetrics{}, []Backend{gpu, cpu, NewStub()})

	res, err := c.Infer(context.Background(), "AAPL", snapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Model != "tensorrt" {
		t.Fatalf("expected gpu result, got %q", res.Model)
	}
	if cpu.infers != 0 {
		t.Fatalf("lower backend called despite healthy gpu")
	}
}

func TestChainCachesHealthProbes(t *testing.T) {
	b := &fakeBackend{name: "onnx"}
	c := NewChain(logger.Nop(), nopMetrics{}, []Backend{b}, WithHealthTTL(time.Hour, time.Hour))

	for i := 0; i < 5; i++ {
		if _, err := c.Infer(context.Background(), "AAPL", snapshot()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if b.probes != 1 {
		t.Fatalf("expected a single cached probe, got %d", b.probes)
	}
}

func TestChainReprobesAfterNegativeTTL(t *testing.T) {
	b := &fakeBackend{name: "onnx", healthErr: errors.New("down")}
	c := NewChain(logger.Nop(), nopMetrics{}, []Backend{b, NewStub()},
		WithHealthTTL(time.Hour, time.Millisecond))

	if _, err := c.Infer(context.Background(), "AAPL", snapshot()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	b.healthErr = nil
	res, err := c.Infer(context.Background(), "AAPL", snapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Model != "onnx" {
		t.Fatalf("recovered backend not picked up, got %q", res.Model)
	}
	if b.probes != 2 {
		t.Fatalf("expected reprobe after negative TTL, got %d probes", b.probes)
	}
}

func TestChainEmptyReturnsUnavailable(t *testing.T) {
	c := NewChain(logger.Nop(), nopMetrics{}, nil)
	_, err := c.Infer(context.Background(), "AAPL", snapshot())
	if !errors.Is(err, ErrInferenceUnavailable) {
		t.Fatalf("expected ErrInferenceUnavailable, got %v", err)
	}
}

func TestStubDeterministicAndBounded(t *testing.T) {
	s := NewStub()
	snap := snapshot()
	a, _ := s.Infer(context.Background(), "AAPL", snap)
	b, _ := s.Infer(context.Background(), "AAPL", snap)
	if a != b {
		t.Fatalf("stub not deterministic: %+v vs %+v", a, b)
	}
	if a.Direction < -1 || a.Direction > 1 {
		t.Fatalf("direction out of range: %v", a.Direction)
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		t.Fatalf("confidence out of range: %v", a.Confidence)
	}
}

type gatedBackend struct {
	name    string
	release chan struct{}
	probes  int32
}

func (g *gatedBackend) Name() string { return g.name }

func (g *gatedBackend) HealthCheck(context.Context) error {
	atomic.AddInt32(&g.probes, 1)
	<-g.release
	return nil
}

func (g *gatedBackend) Infer(_ context.Context, _ string, _ models.IndicatorSnapshot) (models.InferenceResult, error) {
	return models.InferenceResult{Direction: 1, Confidence: 1, Model: g.name}, nil
}

func TestInferDoesNotBlockBehindProbe(t *testing.T) {
	gpu := &gatedBackend{name: "tensorrt", release: make(chan struct{})}
	c := NewChain(logger.Nop(), nopMetrics{}, []Backend{gpu, NewStub()})

	first := make(chan models.InferenceResult, 1)
	go func() {
		res, _ := c.Infer(context.Background(), "AAPL", snapshot())
		first <- res
	}()

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&gpu.probes) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("probe never started")
		}
		time.Sleep(time.Millisecond)
	}

	// with the probe still in flight, other symbols must degrade to the
	// stub immediately instead of queueing on the chain mutex
	second := make(chan models.InferenceResult, 1)
	go func() {
		res, _ := c.Infer(context.Background(), "MSFT", snapshot())
		second <- res
	}()
	select {
	case res := <-second:
		if res.Model != "stub" {
			t.Fatalf("expected stub while probe in flight, got %q", res.Model)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("Infer blocked behind an in-flight health probe")
	}

	close(gpu.release)
	select {
	case res := <-first:
		if res.Model != "tensorrt" {
			t.Fatalf("prober should use the probed backend, got %q", res.Model)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("probing Infer never returned")
	}
	if n := atomic.LoadInt32(&gpu.probes); n != 1 {
		t.Fatalf("expected exactly one probe, got %d", n)
	}
}
