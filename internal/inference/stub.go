package inference

import (
	"context"

	"TradePulse/internal/domain/models"
)

// Stub is the last-resort backend: a pure function of the snapshot. It is
// always available and never returns an error.
type Stub struct{}

// NewStub creates the deterministic stub backend.
func NewStub() *Stub { return &Stub{} }

func (s *Stub) Name() string { return "stub" }

func (s *Stub) HealthCheck(context.Context) error { return nil }

// Infer scores the snapshot from the EMA crossover and the deviation of the
// current price from the slow EMA. Identical snapshots always yield the same
// result.
func (s *Stub) Infer(_ context.Context, _ string, snap models.IndicatorSnapshot) (models.InferenceResult, error) {
	var direction float64
	if snap.EMASlow > 0 {
		dev := (snap.Price - snap.EMASlow) / snap.EMASlow
		cross := (snap.EMAFast - snap.EMASlow) / snap.EMASlow
		direction = clamp(dev*5+cross*10, -1, 1)
	}
	confidence := clamp(0.35+0.3*abs(direction), 0, 1)
	return models.InferenceResult{
		Direction:  direction,
		Confidence: confidence,
		Model:      s.Name(),
	}, nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
