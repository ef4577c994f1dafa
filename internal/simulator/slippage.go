package simulator

import (
	"math/rand"
	"sync"
	"time"
)

// SlippageSource draws the execution-price offset, in price units.
// Injectable so tests can pin it to zero.
type SlippageSource interface {
	Draw() float64
}

// UniformSlippage draws uniformly from [0, Max). Safe for concurrent use.
type UniformSlippage struct {
	mu  sync.Mutex
	max float64
	rnd *rand.Rand
}

func NewUniformSlippage(max float64) *UniformSlippage {
	return &UniformSlippage{
		max: max,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (u *UniformSlippage) Draw() float64 {
	if u.max <= 0 {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.rnd.Float64() * u.max
}

// Fixed always returns itself. Used in tests and for slippage-free runs.
type Fixed float64

func (f Fixed) Draw() float64 { return float64(f) }
