package indicator

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"TradePulse/internal/domain/models"
)

// ErrStaleTick marks an out-of-order tick. The tick is rejected and state is
// left exactly as it was.
var ErrStaleTick = errors.New("stale tick")

// StoreOption configures Store.
type StoreOption func(*storeConfig)

type storeConfig struct {
	FastPeriod int
	SlowPeriod int
	RSIPeriod  int
	ATRPeriod  int
}

// WithEMAPeriods sets the fast and slow EMA periods.
func WithEMAPeriods(fast, slow int) StoreOption {
	return func(c *storeConfig) {
		if fast > 0 {
			c.FastPeriod = fast
		}
		if slow > 0 {
			c.SlowPeriod = slow
		}
	}
}

// WithRSIPeriod sets the RSI smoothing period.
func WithRSIPeriod(n int) StoreOption {
	return func(c *storeConfig) {
		if n > 0 {
			c.RSIPeriod = n
		}
	}
}

// WithATRPeriod sets the ATR window length.
func WithATRPeriod(n int) StoreOption {
	return func(c *storeConfig) {
		if n > 0 {
			c.ATRPeriod = n
		}
	}
}

// symbolState holds every incremental accumulator for one symbol. It is
// confined to its own mutex; distinct symbols never contend.
type symbolState struct {
	mu        sync.Mutex
	lastTS    int64
	lastPrice float64
	emaFast   *ema
	emaSlow   *ema
	vwap      vwap
	welford   welford
	rsi       *wilder
	trueRange *ring
	seen      bool
}

// Store maintains per-symbol incremental indicator state. The symbol map is
// read-mostly; states are created lazily on the first tick for a symbol.
type Store struct {
	cfg    storeConfig
	mu     sync.RWMutex
	states map[string]*symbolState
}

// NewStore creates an indicator store.
func NewStore(opts ...StoreOption) *Store {
	cfg := storeConfig{
		FastPeriod: 10,
		SlowPeriod: 20,
		RSIPeriod:  14,
		ATRPeriod:  14,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Store{cfg: cfg, states: make(map[string]*symbolState)}
}

func (s *Store) state(symbol string) *symbolState {
	s.mu.RLock()
	st, ok := s.states[symbol]
	s.mu.RUnlock()
	if ok {
		return st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok = s.states[symbol]; ok {
		return st
	}
	st = &symbolState{
		emaFast:   newEMA(s.cfg.FastPeriod),
		emaSlow:   newEMA(s.cfg.SlowPeriod),
		rsi:       newWilder(s.cfg.RSIPeriod),
		trueRange: newRing(s.cfg.ATRPeriod),
	}
	s.states[symbol] = st
	return st
}

// Update applies one tick and returns the resulting snapshot. Ticks with a
// timestamp older than the last accepted tick for the same symbol are
// rejected with ErrStaleTick before any accumulator is touched.
func (s *Store) Update(t *models.Tick) (models.IndicatorSnapshot, error) {
	if t == nil || t.Symbol == "" {
		return models.IndicatorSnapshot{}, fmt.Errorf("invalid tick: %+v", t)
	}

	st := s.state(t.Symbol)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.seen && t.Timestamp < st.lastTS {
		return models.IndicatorSnapshot{}, fmt.Errorf("%w: %s tick at %d before %d",
			ErrStaleTick, t.Symbol, t.Timestamp, st.lastTS)
	}

	if st.seen {
		tr := math.Abs(t.Price - st.lastPrice)
		if t.Ask > 0 && t.Bid > 0 && t.Ask-t.Bid > tr {
			tr = t.Ask - t.Bid
		}
		st.trueRange.push(tr)
	}

	fast := st.emaFast.update(t.Price)
	slow := st.emaSlow.update(t.Price)
	vw := st.vwap.update(t.Price, t.Volume)
	st.welford.update(t.Price)
	st.rsi.update(t.Price)

	st.lastTS = t.Timestamp
	st.lastPrice = t.Price
	st.seen = true

	return models.IndicatorSnapshot{
		Symbol:    t.Symbol,
		Timestamp: t.Timestamp,
		Price:     t.Price,
		Volume:    t.Volume,
		EMAFast:   fast,
		EMASlow:   slow,
		VWAP:      vw,
		Mean:      st.welford.mean,
		Variance:  st.welford.variance(),
		StdDev:    st.welford.stdDev(),
		ATR:       st.trueRange.mean(),
		RSI:       st.rsi.rsi(),
		Count:     st.welford.count,
	}, nil
}

// Reset discards all accumulated state for a symbol. The next tick starts a
// fresh accumulation (the windowed-VWAP escape hatch).
func (s *Store) Reset(symbol string) {
	s.mu.Lock()
	delete(s.states, symbol)
	s.mu.Unlock()
}

// Symbols returns the symbols with live state, for health reporting.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.states))
	for sym := range s.states {
		out = append(out, sym)
	}
	return out
}
