package service

import (
	"context"

	"TradePulse/internal/domain/models"
)

// ForecastProvider returns a short-horizon price forecast for a symbol from
// its recent price history.
type ForecastProvider interface {
	Forecast(ctx context.Context, symbol string, history []float64) (models.ForecastResult, error)
}

// SentimentProvider returns an aggregated sentiment score for a symbol over
// a time window such as "1h".
type SentimentProvider interface {
	Sentiment(ctx context.Context, symbol, window string) (models.SentimentScore, error)
}

// AccountProvider exposes a read-only snapshot of account state, consulted
// by the decision engine for sizing constraints only.
type AccountProvider interface {
	Snapshot(ctx context.Context) (models.AccountSnapshot, error)
}
