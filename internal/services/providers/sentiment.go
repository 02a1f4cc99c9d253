package providers

import (
	"context"
	"fmt"
	"time"

	"TradePulse/internal/domain/models"
	domsvc "TradePulse/internal/domain/service"
	"TradePulse/pkg/cache"
)

// HTTPSentimentProvider calls the external sentiment service. Responses are
// cached briefly; sentiment does not move tick to tick.
type HTTPSentimentProvider struct {
	base     *httpBase
	cache    *cache.Memory
	cacheTTL time.Duration
}

// NewHTTPSentimentProvider creates a sentiment client.
func NewHTTPSentimentProvider(baseURL string, timeout, cacheTTL time.Duration) *HTTPSentimentProvider {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &HTTPSentimentProvider{
		base:     newHTTPBase(baseURL, timeout),
		cache:    cache.NewMemory(cache.WithMaxSize(512)),
		cacheTTL: cacheTTL,
	}
}

type sentimentResp struct {
	Score float64 `json:"sentiment_score"`
}

// Sentiment returns the aggregated sentiment score for a symbol over the
// window.
func (p *HTTPSentimentProvider) Sentiment(ctx context.Context, symbol, window string) (models.SentimentScore, error) {
	key := symbol + ":" + window
	if v, err := p.cache.Get(key); err == nil {
		return v.(models.SentimentScore), nil
	}

	var resp sentimentResp
	err := p.base.getJSON(ctx, "/api/sentiment", map[string]string{
		"symbol": symbol,
		"window": window,
	}, &resp)
	if err != nil {
		return models.SentimentScore{}, fmt.Errorf("sentiment %s: %w", symbol, err)
	}

	out := models.SentimentScore{Symbol: symbol, Score: resp.Score, Window: window}
	p.cache.Set(key, out, p.cacheTTL)
	return out, nil
}

var _ domsvc.SentimentProvider = (*HTTPSentimentProvider)(nil)
