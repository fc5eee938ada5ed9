package tmi

import "time"

// backoff grows the reconnect delay multiplicatively. Next is called on every
// connection attempt, so after n failed attempts Current is base*decay^n,
// capped at max.
type backoff struct {
	base  time.Duration
	max   time.Duration
	decay float64
	cur   time.Duration
}

func newBackoff(base, max time.Duration, decay float64) *backoff {
	return &backoff{base: base, max: max, decay: decay, cur: base}
}

func (b *backoff) Next() time.Duration {
	next := time.Duration(float64(b.cur) * b.decay)
	if next >= b.max {
		next = b.max
	}
	b.cur = next
	return next
}

func (b *backoff) Current() time.Duration {
	return b.cur
}

func (b *backoff) Reset() {
	b.cur = b.base
}
