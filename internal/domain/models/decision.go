package models

// Side of an order intent.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
	SideHold Side = "HOLD"
)

// FactorBreakdown records the individual weighted terms that produced a
// combined score, kept on the order intent for audit.
type FactorBreakdown struct {
	SignalScore float64 `json:"signal_score"`
	Forecast    float64 `json:"forecast"`
	Sentiment   float64 `json:"sentiment"`
	Momentum    float64 `json:"momentum"` // RSI/volatility adjustment
	ModelBias   float64 `json:"model_bias"`
}

// OrderIntent is the sized trading decision produced for one qualifying
// signal. Immutable once created.
type OrderIntent struct {
	ID            string          `json:"id"`
	Symbol        string          `json:"symbol"`
	Side          Side            `json:"side"`
	Quantity      float64         `json:"qty"`
	CombinedScore float64         `json:"combined_score"`
	Factors       FactorBreakdown `json:"factors"`
	SignalID      string          `json:"signal_id"`
	Timestamp     int64           `json:"timestamp"`
}

// AccountSnapshot is an opaque read-only view of account holdings, consulted
// for sizing constraints only.
type AccountSnapshot struct {
	Equity      float64
	BuyingPower float64
	Positions   map[string]float64 // symbol -> held quantity
}
