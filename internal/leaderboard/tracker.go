package leaderboard

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"TradePulse/internal/domain/models"
)

// ErrInvalidReward marks a malformed submission. Leaderboard state is not
// touched.
var ErrInvalidReward = errors.New("invalid reward")

type entry struct {
	mu         sync.Mutex
	model      string
	symbol     string
	cumulative float64
	count      int64
	order      int64 // insertion order, final ranking tiebreaker
}

// Tracker maintains ranked reward aggregates per (model, symbol) pair.
// Distinct keys never block each other; submissions for the same key are
// serialized on the entry's own mutex.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string]*entry
	nextOrd int64
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[string]*entry)}
}

func key(model, symbol string) string {
	return model + "\x00" + symbol
}

// Submit appends one reward to the (model, symbol) aggregate, creating the
// entry on first occurrence.
func (t *Tracker) Submit(rec models.RewardRecord) error {
	if rec.Model == "" || rec.Symbol == "" {
		return fmt.Errorf("%w: empty model or symbol", ErrInvalidReward)
	}
	if math.IsNaN(rec.Reward) || math.IsInf(rec.Reward, 0) {
		return fmt.Errorf("%w: non-finite reward %v", ErrInvalidReward, rec.Reward)
	}

	k := key(rec.Model, rec.Symbol)
	t.mu.RLock()
	e, ok := t.entries[k]
	t.mu.RUnlock()
	if !ok {
		t.mu.Lock()
		if e, ok = t.entries[k]; !ok {
			e = &entry{model: rec.Model, symbol: rec.Symbol, order: t.nextOrd}
			t.nextOrd++
			t.entries[k] = e
		}
		t.mu.Unlock()
	}

	e.mu.Lock()
	e.cumulative += rec.Reward
	e.count++
	e.mu.Unlock()
	return nil
}

// Top returns the n entries with the highest average reward. Ties break by
// sample count descending, then by insertion order.
func (t *Tracker) Top(n int) []models.LeaderboardEntry {
	t.mu.RLock()
	snapshot := make([]*entry, 0, len(t.entries))
	for _, e := range t.entries {
		snapshot = append(snapshot, e)
	}
	t.mu.RUnlock()

	out := make([]models.LeaderboardEntry, 0, len(snapshot))
	orders := make(map[string]int64, len(snapshot))
	for _, e := range snapshot {
		e.mu.Lock()
		le := models.LeaderboardEntry{
			Model:            e.model,
			Symbol:           e.symbol,
			CumulativeReward: e.cumulative,
			SampleCount:      e.count,
		}
		e.mu.Unlock()
		if le.SampleCount > 0 {
			le.AverageReward = le.CumulativeReward / float64(le.SampleCount)
		}
		orders[key(le.Model, le.Symbol)] = e.order
		out = append(out, le)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AverageReward != out[j].AverageReward {
			return out[i].AverageReward > out[j].AverageReward
		}
		if out[i].SampleCount != out[j].SampleCount {
			return out[i].SampleCount > out[j].SampleCount
		}
		return orders[key(out[i].Model, out[i].Symbol)] < orders[key(out[j].Model, out[j].Symbol)]
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// ModelAverage returns the mean reward across every symbol for one model,
// used by the decision engine to bias model-sourced signals. The second
// return is false when the model has no samples.
func (t *Tracker) ModelAverage(model string) (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var sum float64
	var count int64
	for _, e := range t.entries {
		if e.model != model {
			continue
		}
		e.mu.Lock()
		sum += e.cumulative
		count += e.count
		e.mu.Unlock()
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}
