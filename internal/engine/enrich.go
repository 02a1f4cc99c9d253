package engine

import (
	"context"

	"TradePulse/internal/domain/models"
	"TradePulse/pkg/logger"
)

// enrichment carries the fan-out results. Neutral defaults stand in for any
// branch that failed or timed out: zero forecast confidence and zero
// sentiment contribute nothing to the combined score.
type enrichment struct {
	forecast  models.ForecastResult
	sentiment models.SentimentScore
}

// enrich requests the forecast and the sentiment score concurrently, each
// bounded by its own timeout under the caller's total budget. A nil provider
// resolves immediately to its neutral value. The two
// branches share no mutable state; each writes only its own field after the
// join.
func (e *Engine) enrich(ctx context.Context, sig *models.Signal, history []float64) enrichment {
	var enr enrichment
	enr.sentiment = models.SentimentScore{Symbol: sig.Symbol, Window: e.cfg.SentimentWindow}
	enr.forecast = models.ForecastResult{Symbol: sig.Symbol}

	type forecastOut struct {
		res models.ForecastResult
		err error
	}
	type sentimentOut struct {
		res models.SentimentScore
		err error
	}

	fCh := make(chan forecastOut, 1)
	sCh := make(chan sentimentOut, 1)

	go func() {
		if e.forecast == nil {
			fCh <- forecastOut{res: models.ForecastResult{Symbol: sig.Symbol}}
			return
		}
		fctx, cancel := context.WithTimeout(ctx, e.cfg.ForecastTimeout)
		defer cancel()
		res, err := e.forecast.Forecast(fctx, sig.Symbol, history)
		fCh <- forecastOut{res: res, err: err}
	}()
	go func() {
		if e.sentiment == nil {
			sCh <- sentimentOut{res: models.SentimentScore{Symbol: sig.Symbol, Window: e.cfg.SentimentWindow}}
			return
		}
		sctx, cancel := context.WithTimeout(ctx, e.cfg.SentimentTimeout)
		defer cancel()
		res, err := e.sentiment.Sentiment(sctx, sig.Symbol, e.cfg.SentimentWindow)
		sCh <- sentimentOut{res: res, err: err}
	}()

	for i := 0; i < 2; i++ {
		select {
		case f := <-fCh:
			if f.err != nil {
				e.metrics.RecordError("forecast")
				e.log.Warn("forecast unavailable, using neutral default",
					logger.String("symbol", sig.Symbol), logger.Error(f.err))
			} else {
				enr.forecast = f.res
			}
		case s := <-sCh:
			if s.err != nil {
				e.metrics.RecordError("sentiment")
				e.log.Warn("sentiment unavailable, using neutral default",
					logger.String("symbol", sig.Symbol), logger.Error(s.err))
			} else {
				enr.sentiment = s.res
			}
		case <-ctx.Done():
			// budget exceeded: whatever has not resolved stays neutral
			e.metrics.RecordError("enrichment_timeout")
			e.log.Warn("enrichment budget exceeded",
				logger.String("symbol", sig.Symbol))
			return enr
		}
	}
	return enr
}
