package emitter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	"TradePulse/pkg/logger"
)

// ErrPublishFailed means the downstream channel rejected the signal after
// every retry. The signal is not dropped silently; the caller decides.
var ErrPublishFailed = errors.New("signal publish failed")

// Option configures Emitter.
type Option func(*Emitter)

// WithCooldown sets the per-symbol publish cooldown. Zero disables it.
func WithCooldown(d time.Duration) Option {
	return func(e *Emitter) { e.cooldown = d }
}

// WithRetry sets the publish retry count and the delay between attempts.
func WithRetry(max int, delay time.Duration) Option {
	return func(e *Emitter) {
		if max > 0 {
			e.maxRetries = max
		}
		if delay > 0 {
			e.retryDelay = delay
		}
	}
}

// Emitter converts indicator snapshots and inference results into signals
// and publishes them at-least-once.
type Emitter struct {
	pub        domrepo.SignalPublisher
	log        *logger.Logger
	metrics    domrepo.Metrics
	cooldown   time.Duration
	maxRetries int
	retryDelay time.Duration

	mu       sync.Mutex
	lastEmit map[string]int64 // symbol -> unix seconds of last published signal
}

// New creates an Emitter.
func New(pub domrepo.SignalPublisher, log *logger.Logger, metrics domrepo.Metrics, opts ...Option) *Emitter {
	e := &Emitter{
		pub:        pub,
		log:        log,
		metrics:    metrics,
		cooldown:   30 * time.Second,
		maxRetries: 3,
		retryDelay: 500 * time.Millisecond,
		lastEmit:   make(map[string]int64),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score blends the inference direction with the snapshot's EMA and VWAP
// deviations into [-1, 1]. Pure function: identical inputs always produce
// the identical score.
func Score(snap models.IndicatorSnapshot, res models.InferenceResult) float64 {
	score := 0.6 * res.Direction * res.Confidence
	if snap.EMASlow > 0 {
		dev := (snap.Price - snap.EMASlow) / snap.EMASlow
		score += 0.25 * clamp(dev*5, -1, 1)
	}
	if snap.VWAP > 0 {
		dev := (snap.Price - snap.VWAP) / snap.VWAP
		score += 0.15 * clamp(dev*5, -1, 1)
	}
	return clamp(score, -1, 1)
}

// Emit builds a signal and publishes it. A signal falling inside the
// symbol's cooldown window is computed but not published and Emit returns
// (nil, nil). Exhausted publish retries surface ErrPublishFailed.
func (e *Emitter) Emit(ctx context.Context, snap models.IndicatorSnapshot, res models.InferenceResult) (*models.Signal, error) {
	sig := &models.Signal{
		ID:          uuid.NewString(),
		Symbol:      snap.Symbol,
		Timestamp:   snap.Timestamp,
		Score:       Score(snap, res),
		Confidence:  res.Confidence,
		SourceModel: res.Model,
		Snapshot:    snap,
	}

	if !e.claimSlot(snap.Symbol, snap.Timestamp) {
		return nil, nil
	}

	if err := e.publish(ctx, sig); err != nil {
		// free the slot so the next tick may try again
		e.mu.Lock()
		delete(e.lastEmit, snap.Symbol)
		e.mu.Unlock()
		return nil, err
	}

	e.metrics.RecordSignal(sig.Symbol, sig.SourceModel)
	return sig, nil
}

// claimSlot reserves the cooldown slot for the symbol if it is open.
func (e *Emitter) claimSlot(symbol string, ts int64) bool {
	if e.cooldown <= 0 {
		return true
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	// tick timestamps are unix seconds; the duration comparison keeps a
	// sub-second cooldown from truncating to zero
	last, ok := e.lastEmit[symbol]
	if ok && time.Duration(ts-last)*time.Second < e.cooldown {
		return false
	}
	e.lastEmit[symbol] = ts
	return true
}

func (e *Emitter) publish(ctx context.Context, sig *models.Signal) error {
	var last error
	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		last = e.pub.Publish(ctx, sig)
		if last == nil {
			return nil
		}
		e.log.Warn("signal publish attempt failed",
			logger.String("symbol", sig.Symbol),
			logger.Int("attempt", attempt),
			logger.Int("max", e.maxRetries),
			logger.Error(last))
		if attempt < e.maxRetries {
			select {
			case <-time.After(e.retryDelay):
			case <-ctx.Done():
				e.metrics.RecordError("signal_publish")
				return fmt.Errorf("%w: %s", ErrPublishFailed, ctx.Err())
			}
		}
	}
	e.metrics.RecordError("signal_publish")
	return fmt.Errorf("%w after %d attempts: %s", ErrPublishFailed, e.maxRetries, last)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
