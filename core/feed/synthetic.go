package feed

import (
	"context"
	"math/rand/v2"
	"sync"
)

// Random emits a uniformly random price in [Min, Max) on every fetch.
type Random struct {
	Symbol string
	Min    float64
	Max    float64

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandom creates a Random source. A nil rnd uses a randomly seeded generator.
func NewRandom(symbol string, lo, hi float64, rnd *rand.Rand) *Random {
	if hi < lo {
		lo, hi = hi, lo
	}
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Random{Symbol: symbol, Min: lo, Max: hi, rnd: rnd}
}

func (r *Random) Name() string {
	return "synthetic"
}

func (r *Random) Fetch(ctx context.Context) (Value, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	price := r.Min + r.rnd.Float64()*(r.Max-r.Min)
	r.mu.Unlock()
	return QuoteValue(r.Symbol, price), nil
}

// Sequence emits a fixed list of values in order. Once exhausted it either
// starts over (Loop) or keeps repeating the last value.
type Sequence struct {
	Loop bool

	mu     sync.Mutex
	values []Value
	pos    int
}

// NewSequence creates a Sequence over values.
func NewSequence(loop bool, values ...Value) *Sequence {
	return &Sequence{Loop: loop, values: values}
}

func (s *Sequence) Name() string {
	return "sequence"
}

func (s *Sequence) Fetch(ctx context.Context) (Value, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.values) == 0 {
		return "", Fatal(ErrEmptySequence)
	}
	if s.pos >= len(s.values) {
		if !s.Loop {
			return s.values[len(s.values)-1], nil
		}
		s.pos = 0
	}
	v := s.values[s.pos]
	s.pos++
	return v, nil
}
