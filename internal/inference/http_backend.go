package inference

import (
	"context"
	"fmt"
	"time"

	"TradePulse/internal/domain/models"
	xhttp "TradePulse/pkg/http"
)

// httpBackend is the shared shape of the CPU and GPU runner clients: a JSON
// POST to the runner's /infer endpoint and a GET against /health.
type httpBackend struct {
	name    string
	baseURL string
	client  *xhttp.Client
}

type inferRequest struct {
	Symbol   string             `json:"symbol"`
	Features map[string]float64 `json:"features"`
}

type inferResponse struct {
	Direction  float64 `json:"direction"`
	Confidence float64 `json:"confidence"`
}

func newHTTPBackend(name, baseURL string, timeout time.Duration) *httpBackend {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &httpBackend{
		name:    name,
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

func (b *httpBackend) Name() string { return b.name }

func (b *httpBackend) HealthCheck(ctx context.Context) error {
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    b.baseURL + "/health",
	}, nil)
	if err != nil {
		return fmt.Errorf("%s health: %w", b.name, err)
	}
	return nil
}

func (b *httpBackend) Infer(ctx context.Context, symbol string, snap models.IndicatorSnapshot) (models.InferenceResult, error) {
	req := inferRequest{
		Symbol: symbol,
		Features: map[string]float64{
			"price":    snap.Price,
			"ema_fast": snap.EMAFast,
			"ema_slow": snap.EMASlow,
			"vwap":     snap.VWAP,
			"std":      snap.StdDev,
			"rsi":      snap.RSI,
			"atr":      snap.ATR,
		},
	}
	var resp inferResponse
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     b.baseURL + "/infer",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    req,
	}, &resp)
	if err != nil {
		return models.InferenceResult{}, fmt.Errorf("%s infer: %w", b.name, err)
	}
	return models.InferenceResult{
		Direction:  clamp(resp.Direction, -1, 1),
		Confidence: clamp(resp.Confidence, 0, 1),
		Model:      b.name,
	}, nil
}

// NewONNXBackend creates the CPU runner client.
func NewONNXBackend(baseURL string, timeout time.Duration) Backend {
	return newHTTPBackend("onnx", baseURL, timeout)
}

// NewTensorRTBackend creates the GPU runner client. A shorter timeout than
// the CPU path is expected; the accelerator should answer faster or not at
// all.
func NewTensorRTBackend(baseURL string, timeout time.Duration) Backend {
	return newHTTPBackend("tensorrt", baseURL, timeout)
}
