package inference

import (
	"context"
	"errors"

	"TradePulse/internal/domain/models"
)

// ErrInferenceUnavailable means every backend in the chain failed, including
// the stub. The stub never fails, so seeing this error is a bug.
var ErrInferenceUnavailable = errors.New("no inference backend available")

// Backend is one model runtime. The set of implementations is closed: the
// deterministic stub, the CPU (ONNX) runner and the GPU (TensorRT) runner.
type Backend interface {
	Name() string
	HealthCheck(ctx context.Context) error
	Infer(ctx context.Context, symbol string, snap models.IndicatorSnapshot) (models.InferenceResult, error)
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
