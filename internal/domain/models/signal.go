package models

// InferenceResult is what a model backend returns for one snapshot.
type InferenceResult struct {
	Direction  float64 // [-1, 1]
	Confidence float64 // [0, 1]
	Model      string  // backend name that produced the result
}

// Signal is an immutable trading signal derived from one indicator snapshot
// and one inference result.
type Signal struct {
	ID          string            `json:"id"`
	Symbol      string            `json:"symbol"`
	Timestamp   int64             `json:"timestamp"`
	Score       float64           `json:"score"`      // [-1, 1]
	Confidence  float64           `json:"confidence"` // [0, 1]
	SourceModel string            `json:"source_model"`
	Snapshot    IndicatorSnapshot `json:"snapshot"`
}

// ForecastResult is the forecast provider's response. Ephemeral, never stored.
type ForecastResult struct {
	Symbol     string    `json:"symbol"`
	Values     []float64 `json:"forecast"`
	Confidence float64   `json:"confidence"`
}

// Direction reports the sign of the forecast relative to the reference price,
// normalized to [-1, 1].
func (f ForecastResult) Direction(refPrice float64) float64 {
	if len(f.Values) == 0 || refPrice <= 0 {
		return 0
	}
	d := (f.Values[0] - refPrice) / refPrice
	if d > 1 {
		d = 1
	} else if d < -1 {
		d = -1
	}
	return d
}

// SentimentScore is the sentiment provider's response. Ephemeral.
type SentimentScore struct {
	Symbol string  `json:"symbol"`
	Score  float64 `json:"sentiment_score"` // [-1, 1]
	Window string  `json:"window"`
}
