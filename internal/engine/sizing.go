package engine

import (
	"context"

	"TradePulse/internal/domain/models"
	"TradePulse/pkg/logger"
)

// size derives the position quantity: base size scaled up by combined
// confidence, scaled down by recent volatility, capped by the account's
// buying power and clamped to the configured [min, max] range.
func (e *Engine) size(ctx context.Context, snap models.IndicatorSnapshot, combined float64, enr enrichment) float64 {
	confidence := abs(combined)
	if enr.forecast.Confidence > 0 && enr.forecast.Confidence < confidence {
		confidence = enr.forecast.Confidence
	}

	qty := e.cfg.BaseQty * (0.5 + 1.5*confidence)

	if snap.Price > 0 && snap.ATR > 0 {
		qty /= 1 + 10*snap.ATR/snap.Price
	}

	if e.account != nil && snap.Price > 0 {
		acct, err := e.account.Snapshot(ctx)
		if err != nil {
			// sizing proceeds without the account cap
			e.log.Warn("account snapshot unavailable", logger.Error(err))
		} else if acct.BuyingPower > 0 {
			if maxAffordable := acct.BuyingPower / snap.Price; qty > maxAffordable {
				qty = maxAffordable
			}
		}
	}

	return clamp(qty, e.cfg.MinQty, e.cfg.MaxQty)
}
