package providers

import (
	"context"
	"fmt"
	"time"

	"TradePulse/internal/domain/models"
	domsvc "TradePulse/internal/domain/service"
)

// HTTPAccountProvider reads the account snapshot from the account service.
type HTTPAccountProvider struct {
	base *httpBase
}

// NewHTTPAccountProvider creates an account-context client.
func NewHTTPAccountProvider(baseURL string, timeout time.Duration) *HTTPAccountProvider {
	return &HTTPAccountProvider{base: newHTTPBase(baseURL, timeout)}
}

type accountResp struct {
	Equity      float64            `json:"equity"`
	BuyingPower float64            `json:"buying_power"`
	Positions   map[string]float64 `json:"positions"`
}

func (p *HTTPAccountProvider) Snapshot(ctx context.Context) (models.AccountSnapshot, error) {
	var resp accountResp
	if err := p.base.getJSON(ctx, "/api/account", nil, &resp); err != nil {
		return models.AccountSnapshot{}, fmt.Errorf("account snapshot: %w", err)
	}
	return models.AccountSnapshot{
		Equity:      resp.Equity,
		BuyingPower: resp.BuyingPower,
		Positions:   resp.Positions,
	}, nil
}

var _ domsvc.AccountProvider = (*HTTPAccountProvider)(nil)

// StaticAccountProvider returns a fixed snapshot, for development setups
// without an account service.
type StaticAccountProvider struct {
	snapshot models.AccountSnapshot
}

// NewStaticAccountProvider creates a provider with fixed equity and buying
// power.
func NewStaticAccountProvider(equity, buyingPower float64) *StaticAccountProvider {
	return &StaticAccountProvider{snapshot: models.AccountSnapshot{
		Equity:      equity,
		BuyingPower: buyingPower,
		Positions:   map[string]float64{},
	}}
}

func (p *StaticAccountProvider) Snapshot(context.Context) (models.AccountSnapshot, error) {
	return p.snapshot, nil
}

var _ domsvc.AccountProvider = (*StaticAccountProvider)(nil)
