package inference

import (
	"context"
	"sync"
	"time"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	"TradePulse/pkg/logger"
)

// ChainOption configures Chain.
type ChainOption func(*Chain)

// WithHealthTTL sets how long healthy and unhealthy probe results are cached.
// The negative TTL is kept short so a recovered accelerator is picked up
// quickly, while a dead one does not add a probe to every tick.
func WithHealthTTL(positive, negative time.Duration) ChainOption {
	return func(c *Chain) {
		if positive > 0 {
			c.positiveTTL = positive
		}
		if negative > 0 {
			c.negativeTTL = negative
		}
	}
}

type healthEntry struct {
	healthy   bool
	checkedAt time.Time
	probing   bool
}

// Chain tries backends in descending performance order and degrades to the
// next one on failure. The stub terminates the chain, so Infer only returns
// ErrInferenceUnavailable if the chain was built without one.
type Chain struct {
	backends    []Backend
	log         *logger.Logger
	metrics     domrepo.Metrics
	positiveTTL time.Duration
	negativeTTL time.Duration

	mu     sync.Mutex
	health map[string]healthEntry
}

// NewChain creates a fallback chain over the given backends, first is
// preferred.
func NewChain(log *logger.Logger, metrics domrepo.Metrics, backends []Backend, opts ...ChainOption) *Chain {
	c := &Chain{
		backends:    backends,
		log:         log,
		metrics:     metrics,
		positiveTTL: 30 * time.Second,
		negativeTTL: 5 * time.Second,
		health:      make(map[string]healthEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// available consults the cached probe result, refreshing it lazily when the
// entry expired. The probe itself runs outside the mutex: the expired entry
// is marked in-flight under the lock, so exactly one goroutine probes while
// concurrent callers keep using the previous verdict. An unknown backend
// reads as unavailable until its first probe completes.
func (c *Chain) available(ctx context.Context, b Backend) bool {
	name := b.Name()

	c.mu.Lock()
	e, ok := c.health[name]
	if ok {
		ttl := c.positiveTTL
		if !e.healthy {
			ttl = c.negativeTTL
		}
		if e.probing || time.Since(e.checkedAt) < ttl {
			c.mu.Unlock()
			return e.healthy
		}
	}
	c.health[name] = healthEntry{healthy: ok && e.healthy, checkedAt: e.checkedAt, probing: true}
	c.mu.Unlock()

	err := b.HealthCheck(ctx)
	healthy := err == nil

	c.mu.Lock()
	c.health[name] = healthEntry{healthy: healthy, checkedAt: time.Now()}
	c.mu.Unlock()

	c.metrics.RecordBackendHealth(name, healthy)
	if !healthy {
		c.log.Warn("inference backend unhealthy",
			logger.String("backend", name), logger.Error(err))
	}
	return healthy
}

// Infer runs the snapshot through the first healthy backend, degrading down
// the chain on any failure. Degradations are observable but never reach the
// tick hot path as errors.
func (c *Chain) Infer(ctx context.Context, symbol string, snap models.IndicatorSnapshot) (models.InferenceResult, error) {
	for i, b := range c.backends {
		if !c.available(ctx, b) {
			continue
		}
		res, err := b.Infer(ctx, symbol, snap)
		if err == nil {
			return res, nil
		}
		c.metrics.RecordError("inference_" + b.Name())
		c.log.Warn("inference degraded",
			logger.String("backend", b.Name()),
			logger.String("symbol", symbol),
			logger.Int("remaining", len(c.backends)-i-1),
			logger.Error(err))
		// an infer failure is stronger evidence than a stale health probe
		c.mu.Lock()
		c.health[b.Name()] = healthEntry{healthy: false, checkedAt: time.Now()}
		c.mu.Unlock()
	}
	return models.InferenceResult{}, ErrInferenceUnavailable
}
