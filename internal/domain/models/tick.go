package models

// Tick is a single market data point for one symbol. Ticks are produced
// externally and must arrive in non-decreasing timestamp order per symbol.
type Tick struct {
	Symbol    string
	Timestamp int64 // unix seconds
	Price     float64
	Volume    float64
	Bid       float64 // 0 when not quoted
	Ask       float64 // 0 when not quoted
}

// IndicatorSnapshot is the read-only view of one symbol's indicator state
// taken immediately after a tick was applied.
type IndicatorSnapshot struct {
	Symbol    string
	Timestamp int64
	Price     float64
	Volume    float64
	EMAFast   float64
	EMASlow   float64
	VWAP      float64
	Mean      float64
	Variance  float64
	StdDev    float64
	ATR       float64
	RSI       float64
	Count     int64
}
