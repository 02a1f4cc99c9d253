package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	domsvc "TradePulse/internal/domain/service"
	"TradePulse/internal/leaderboard"
	"TradePulse/pkg/logger"
)

// Outcome of a decision. Suppression is a normal outcome, not an error.
type Outcome string

const (
	OutcomeSuppressed   Outcome = "SUPPRESSED"
	OutcomeOrderEmitted Outcome = "ORDER_EMITTED"
)

// Weights for the combined score terms.
type Weights struct {
	Signal    float64
	Forecast  float64
	Sentiment float64
	Momentum  float64
}

// Config holds the engine's tunable parameters.
type Config struct {
	MinScore         float64 // magnitude gate before enrichment
	OrderThreshold   float64 // |combined| needed to emit an order
	Weights          Weights
	ForecastTimeout  time.Duration
	SentimentTimeout time.Duration
	EnrichmentBudget time.Duration // total tick-to-decision ceiling
	SentimentWindow  string
	BaseQty          float64
	MinQty           float64
	MaxQty           float64
	ModelBias        float64 // max leaderboard bias applied to the signal term
	HistoryLen       int
}

// DefaultConfig returns the documented default weights and thresholds.
func DefaultConfig() Config {
	return Config{
		MinScore:       0.3,
		OrderThreshold: 0.4,
		Weights: Weights{
			Signal:    0.4,
			Forecast:  0.3,
			Sentiment: 0.2,
			Momentum:  0.1,
		},
		ForecastTimeout:  2 * time.Second,
		SentimentTimeout: 1500 * time.Millisecond,
		EnrichmentBudget: 3 * time.Second,
		SentimentWindow:  "1h",
		BaseQty:          100,
		MinQty:           1,
		MaxQty:           1000,
		ModelBias:        0.1,
		HistoryLen:       100,
	}
}

// Engine fuses signals with forecasts, sentiment and account context into
// sized order intents. Each signal is an independent unit of work.
type Engine struct {
	cfg       Config
	forecast  domsvc.ForecastProvider
	sentiment domsvc.SentimentProvider
	account   domsvc.AccountProvider
	board     *leaderboard.Tracker
	log       *logger.Logger
	metrics   domrepo.Metrics

	mu        sync.Mutex
	histories map[string][]float64 // recent prices per symbol for forecasting
}

// New creates a decision engine.
func New(
	cfg Config,
	forecast domsvc.ForecastProvider,
	sentiment domsvc.SentimentProvider,
	account domsvc.AccountProvider,
	board *leaderboard.Tracker,
	log *logger.Logger,
	metrics domrepo.Metrics,
) *Engine {
	if cfg.HistoryLen <= 1 {
		cfg.HistoryLen = 100
	}
	return &Engine{
		cfg:       cfg,
		forecast:  forecast,
		sentiment: sentiment,
		account:   account,
		board:     board,
		log:       log,
		metrics:   metrics,
		histories: make(map[string][]float64),
	}
}

// Decide runs one signal through the gate, enrichment, scoring and sizing
// steps and returns the order intent when one is emitted. A nil intent with
// OutcomeSuppressed is the normal below-threshold result.
func (e *Engine) Decide(ctx context.Context, sig *models.Signal) (*models.OrderIntent, Outcome, error) {
	start := time.Now()
	defer func() {
		e.metrics.RecordLatency("decide", time.Since(start).Seconds())
	}()

	history := e.recordPrice(sig.Symbol, sig.Snapshot.Price)

	if abs(sig.Score) < e.cfg.MinScore {
		e.metrics.RecordDecision(sig.Symbol, string(OutcomeSuppressed))
		e.log.Debug("signal below magnitude gate",
			logger.String("symbol", sig.Symbol),
			logger.Float64("score", sig.Score))
		return nil, OutcomeSuppressed, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.EnrichmentBudget)
	defer cancel()

	enr := e.enrich(ctx, sig, history)
	combined, factors := e.combine(sig, enr)

	if abs(combined) < e.cfg.OrderThreshold {
		e.metrics.RecordDecision(sig.Symbol, string(OutcomeSuppressed))
		e.log.Debug("combined score below order threshold",
			logger.String("symbol", sig.Symbol),
			logger.Float64("combined", combined))
		return nil, OutcomeSuppressed, nil
	}

	side := models.SideBuy
	if combined < 0 {
		side = models.SideSell
	}

	qty := e.size(ctx, sig.Snapshot, combined, enr)

	intent := &models.OrderIntent{
		ID:            uuid.NewString(),
		Symbol:        sig.Symbol,
		Side:          side,
		Quantity:      qty,
		CombinedScore: combined,
		Factors:       factors,
		SignalID:      sig.ID,
		Timestamp:     time.Now().Unix(),
	}

	e.metrics.RecordDecision(sig.Symbol, string(OutcomeOrderEmitted))
	e.log.Info("order intent emitted",
		logger.String("symbol", sig.Symbol),
		logger.String("side", string(side)),
		logger.Float64("qty", qty),
		logger.Float64("combined", combined),
		logger.String("model", sig.SourceModel))
	return intent, OutcomeOrderEmitted, nil
}

// recordPrice appends the price to the symbol's bounded history and returns
// a copy safe to hand to the forecast provider.
func (e *Engine) recordPrice(symbol string, price float64) []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	h := append(e.histories[symbol], price)
	if len(h) > e.cfg.HistoryLen {
		h = h[len(h)-e.cfg.HistoryLen:]
	}
	e.histories[symbol] = h
	out := make([]float64, len(h))
	copy(out, h)
	return out
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
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
