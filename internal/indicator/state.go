package indicator

import "math"

// ema is an exponential moving average seeded with the first observation.
type ema struct {
	alpha  float64
	value  float64
	primed bool
}

func newEMA(period int) *ema {
	return &ema{alpha: 2.0 / (float64(period) + 1)}
}

func (e *ema) update(x float64) float64 {
	if !e.primed {
		e.value = x
		e.primed = true
		return e.value
	}
	e.value += e.alpha * (x - e.value)
	return e.value
}

// vwap accumulates price*volume and volume since initialization. No decay;
// callers needing a windowed VWAP reset the symbol state.
type vwap struct {
	pv  float64
	vol float64
}

func (v *vwap) update(price, volume float64) float64 {
	v.pv += price * volume
	v.vol += volume
	if v.vol == 0 {
		return 0
	}
	return v.pv / v.vol
}

// welford tracks running mean and variance without a catastrophic
// sum-of-squares cancellation.
type welford struct {
	count int64
	mean  float64
	m2    float64
}

func (w *welford) update(x float64) {
	w.count++
	delta := x - w.mean
	w.mean += delta / float64(w.count)
	w.m2 += delta * (x - w.mean)
}

func (w *welford) variance() float64 {
	if w.count < 2 {
		return 0
	}
	v := w.m2 / float64(w.count-1)
	if v < 0 {
		return 0
	}
	return v
}

func (w *welford) stdDev() float64 {
	return math.Sqrt(w.variance())
}

// wilder smooths gains and losses for RSI with alpha = 1/period.
type wilder struct {
	period  int
	prev    float64
	avgGain float64
	avgLoss float64
	primed  bool
	samples int
}

func newWilder(period int) *wilder {
	return &wilder{period: period}
}

func (r *wilder) update(price float64) {
	if !r.primed {
		r.prev = price
		r.primed = true
		return
	}
	change := price - r.prev
	r.prev = price
	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}
	alpha := 1.0 / float64(r.period)
	if r.samples == 0 {
		r.avgGain, r.avgLoss = gain, loss
	} else {
		r.avgGain += alpha * (gain - r.avgGain)
		r.avgLoss += alpha * (loss - r.avgLoss)
	}
	r.samples++
}

// rsi returns 50 (neutral) until at least one price change was seen.
func (r *wilder) rsi() float64 {
	if r.samples == 0 {
		return 50
	}
	if r.avgLoss == 0 {
		if r.avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := r.avgGain / r.avgLoss
	return 100 - 100/(1+rs)
}

// ring is a fixed-size buffer of true-range values with an O(1) running sum.
type ring struct {
	buf  []float64
	head int
	n    int
	sum  float64
}

func newRing(size int) *ring {
	return &ring{buf: make([]float64, size)}
}

func (r *ring) push(x float64) {
	if r.n == len(r.buf) {
		r.sum -= r.buf[r.head]
	} else {
		r.n++
	}
	r.buf[r.head] = x
	r.sum += x
	r.head = (r.head + 1) % len(r.buf)
}

func (r *ring) mean() float64 {
	if r.n == 0 {
		return 0
	}
	return r.sum / float64(r.n)
}
