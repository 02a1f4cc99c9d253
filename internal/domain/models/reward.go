package models

// RewardRecord is an append-only reward submission for a (model, symbol) pair.
type RewardRecord struct {
	Model     string  `json:"model"`
	Symbol    string  `json:"symbol"`
	Reward    float64 `json:"reward"`
	Timestamp int64   `json:"timestamp"`
}

// LeaderboardEntry is the running aggregate for one (model, symbol) pair.
type LeaderboardEntry struct {
	Model            string  `json:"model"`
	Symbol           string  `json:"symbol"`
	CumulativeReward float64 `json:"cumulative_reward"`
	SampleCount      int64   `json:"sample_count"`
	AverageReward    float64 `json:"average_reward"`
}
