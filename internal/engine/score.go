package engine

import (
	"math"

	"TradePulse/internal/domain/models"
)

// combine computes the weighted multi-factor score and its breakdown.
//
// Terms: the signal score (scaled by the source model's leaderboard bias),
// the forecast direction times its confidence, the raw sentiment score, and
// an RSI/volatility momentum adjustment.
func (e *Engine) combine(sig *models.Signal, enr enrichment) (float64, models.FactorBreakdown) {
	w := e.cfg.Weights

	bias := e.modelBias(sig.SourceModel)
	signalTerm := sig.Score * bias
	forecastTerm := enr.forecast.Direction(sig.Snapshot.Price) * enr.forecast.Confidence
	sentimentTerm := enr.sentiment.Score
	momentumTerm := momentum(sig.Snapshot)

	factors := models.FactorBreakdown{
		SignalScore: w.Signal * signalTerm,
		Forecast:    w.Forecast * forecastTerm,
		Sentiment:   w.Sentiment * sentimentTerm,
		Momentum:    w.Momentum * momentumTerm,
		ModelBias:   bias,
	}

	combined := factors.SignalScore + factors.Forecast + factors.Sentiment + factors.Momentum
	return clamp(combined, -1, 1), factors
}

// modelBias scales the signal term by the source model's average reward,
// bounded to [1-ModelBias, 1+ModelBias]. A model with no reward history is
// unbiased.
func (e *Engine) modelBias(model string) float64 {
	if e.board == nil || e.cfg.ModelBias <= 0 {
		return 1
	}
	avg, ok := e.board.ModelAverage(model)
	if !ok {
		return 1
	}
	return 1 + e.cfg.ModelBias*math.Tanh(avg)
}

// momentum derives the RSI/volatility adjustment: overbought pushes against
// buying, oversold pushes against selling, and elevated volatility shrinks
// the term toward zero.
func momentum(snap models.IndicatorSnapshot) float64 {
	var m float64
	switch {
	case snap.RSI > 70:
		m = -0.5
	case snap.RSI < 30:
		m = 0.5
	}
	if snap.Price > 0 && snap.ATR > 0 {
		m /= 1 + 10*snap.ATR/snap.Price
	}
	return m
}
