package usecase

import (
	"context"
	"errors"
	"time"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/emitter"
	"TradePulse/internal/indicator"
	"TradePulse/internal/inference"
	"TradePulse/pkg/logger"
)

// PatternEngine turns one tick into at most one published signal: indicator
// update, inference, scoring, publish. Per-symbol ordering is the caller's
// responsibility; ticks for one symbol must arrive here sequentially.
type PatternEngine struct {
	store   *indicator.Store
	chain   *inference.Chain
	emitter *emitter.Emitter
	log     *logger.Logger
	metrics domrepo.Metrics
}

// NewPatternEngine creates a PatternEngine.
func NewPatternEngine(
	store *indicator.Store,
	chain *inference.Chain,
	em *emitter.Emitter,
	log *logger.Logger,
	metrics domrepo.Metrics,
) *PatternEngine {
	return &PatternEngine{
		store:   store,
		chain:   chain,
		emitter: em,
		log:     log,
		metrics: metrics,
	}
}

// ProcessTick runs the full per-tick pipeline. Stale ticks are counted and
// dropped without touching state. A cooldown suppression returns (nil, nil).
// A publish failure after retries propagates so the caller can retry the
// whole tick.
func (p *PatternEngine) ProcessTick(ctx context.Context, t *models.Tick) (*models.Signal, error) {
	start := time.Now()
	p.metrics.RecordTick(t.Symbol)
	p.metrics.RecordLastPrice(t.Symbol, t.Price)

	snap, err := p.store.Update(t)
	if err != nil {
		if errors.Is(err, indicator.ErrStaleTick) {
			p.metrics.RecordError("stale_tick")
			p.log.Debug("stale tick dropped",
				logger.String("symbol", t.Symbol),
				logger.Int64("ts", t.Timestamp))
			return nil, nil
		}
		return nil, err
	}

	res, err := p.chain.Infer(ctx, t.Symbol, snap)
	if err != nil {
		// the chain ends in a stub backend, so this only happens when the
		// chain was built without one
		p.metrics.RecordError("inference")
		return nil, err
	}

	sig, err := p.emitter.Emit(ctx, snap, res)
	if err != nil {
		return nil, err
	}
	p.metrics.RecordLatency("process_tick", time.Since(start).Seconds())
	if sig != nil {
		p.log.Info("signal published",
			logger.String("symbol", sig.Symbol),
			logger.String("model", sig.SourceModel),
			logger.Float64("score", sig.Score))
	}
	return sig, nil
}
