package leaderboard

import (
	"errors"
	"math"
	"sync"
	"testing"

	"TradePulse/internal/domain/models"
)

func reward(model, symbol string, r float64) models.RewardRecord {
	return models.RewardRecord{Model: model, Symbol: symbol, Reward: r, Timestamp: 1}
}

func TestSubmitAggregates(t *testing.T) {
	tr := NewTracker()
	for _, r := range []float64{1, 2, 3} {
		if err := tr.Submit(reward("m1", "AAPL", r)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	top := tr.Top(10)
	if len(top) != 1 {
		t.Fatalf("expected one entry, got %d", len(top))
	}
	e := top[0]
	if e.CumulativeReward != 6 || e.SampleCount != 3 || e.AverageReward != 2 {
		t.Fatalf("bad aggregate: %+v", e)
	}
}

func TestSubmitInvalid(t *testing.T) {
	tr := NewTracker()
	cases := []models.RewardRecord{
		reward("", "AAPL", 1),
		reward("m1", "", 1),
		reward("m1", "AAPL", math.NaN()),
		reward("m1", "AAPL", math.Inf(1)),
		reward("m1", "AAPL", math.Inf(-1)),
	}
	for _, c := range cases {
		if err := tr.Submit(c); !errors.Is(err, ErrInvalidReward) {
			t.Fatalf("expected ErrInvalidReward for %+v, got %v", c, err)
		}
	}
	if len(tr.Top(10)) != 0 {
		t.Fatalf("invalid submission mutated state")
	}
}

func TestTopOrdering(t *testing.T) {
	tr := NewTracker()
	// avg 2.0, count 2
	tr.Submit(reward("m1", "AAPL", 1))
	tr.Submit(reward("m1", "AAPL", 3))
	// avg 3.0, count 1
	tr.Submit(reward("m2", "AAPL", 3))
	// avg 2.0, count 3, inserted after m1/AAPL
	tr.Submit(reward("m1", "MSFT", 2))
	tr.Submit(reward("m1", "MSFT", 2))
	tr.Submit(reward("m1", "MSFT", 2))

	top := tr.Top(10)
	if len(top) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(top))
	}
	if top[0].Model != "m2" {
		t.Fatalf("expected m2 first, got %+v", top[0])
	}
	// avg tie (2.0): higher sample count wins
	if top[1].Symbol != "MSFT" || top[2].Symbol != "AAPL" {
		t.Fatalf("tie broken wrongly: %+v then %+v", top[1], top[2])
	}
}

func TestTopInsertionOrderTiebreak(t *testing.T) {
	tr := NewTracker()
	tr.Submit(reward("m1", "AAPL", 1))
	tr.Submit(reward("m2", "AAPL", 1))
	tr.Submit(reward("m3", "AAPL", 1))

	top := tr.Top(10)
	want := []string{"m1", "m2", "m3"}
	for i, m := range want {
		if top[i].Model != m {
			t.Fatalf("position %d: expected %s, got %s", i, m, top[i].Model)
		}
	}
}

func TestTopLimit(t *testing.T) {
	tr := NewTracker()
	tr.Submit(reward("m1", "AAPL", 3))
	tr.Submit(reward("m2", "AAPL", 2))
	tr.Submit(reward("m3", "AAPL", 1))

	top := tr.Top(2)
	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
	if top[0].Model != "m1" || top[1].Model != "m2" {
		t.Fatalf("wrong order: %+v", top)
	}
}

func TestModelAverageAcrossSymbols(t *testing.T) {
	tr := NewTracker()
	tr.Submit(reward("m1", "AAPL", 2))
	tr.Submit(reward("m1", "MSFT", 4))

	avg, ok := tr.ModelAverage("m1")
	if !ok {
		t.Fatalf("expected samples for m1")
	}
	if avg != 3 {
		t.Fatalf("expected average 3, got %v", avg)
	}

	if _, ok := tr.ModelAverage("nope"); ok {
		t.Fatalf("expected no samples for unknown model")
	}
}

func TestSubmitConcurrent(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	const workers = 8
	const per = 100
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < per; i++ {
				if err := tr.Submit(reward("m1", "AAPL", 1)); err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	top := tr.Top(1)
	if len(top) != 1 || top[0].SampleCount != workers*per {
		t.Fatalf("lost submissions: %+v", top)
	}
	if top[0].CumulativeReward != float64(workers*per) {
		t.Fatalf("lost reward sum: %+v", top[0])
	}
}
