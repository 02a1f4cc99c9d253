package providers

import (
	"context"
	"fmt"
	"time"

	"TradePulse/internal/domain/models"
	domsvc "TradePulse/internal/domain/service"
)

// HTTPForecastProvider calls the external forecast service.
type HTTPForecastProvider struct {
	base    *httpBase
	horizon int
}

// NewHTTPForecastProvider creates a forecast client.
func NewHTTPForecastProvider(baseURL string, timeout time.Duration) *HTTPForecastProvider {
	return &HTTPForecastProvider{base: newHTTPBase(baseURL, timeout), horizon: 10}
}

type forecastReq struct {
	Symbol  string    `json:"symbol"`
	History []float64 `json:"history"`
	Horizon int       `json:"horizon"`
}

type forecastResp struct {
	Forecast   []float64 `json:"forecast"`
	Confidence []float64 `json:"confidence"`
}

// Forecast requests a short-horizon forecast from the symbol's recent
// history. At most the last 60 points are sent.
func (p *HTTPForecastProvider) Forecast(ctx context.Context, symbol string, history []float64) (models.ForecastResult, error) {
	if len(history) > 60 {
		history = history[len(history)-60:]
	}
	var resp forecastResp
	err := p.base.postJSON(ctx, "/infer/forecast", forecastReq{
		Symbol:  symbol,
		History: history,
		Horizon: p.horizon,
	}, &resp)
	if err != nil {
		return models.ForecastResult{}, fmt.Errorf("forecast %s: %w", symbol, err)
	}

	out := models.ForecastResult{Symbol: symbol, Values: resp.Forecast}
	if len(resp.Confidence) > 0 {
		out.Confidence = resp.Confidence[0]
	}
	return out, nil
}

var _ domsvc.ForecastProvider = (*HTTPForecastProvider)(nil)
