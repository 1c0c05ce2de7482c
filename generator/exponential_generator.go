package generator

import (
	"math"
	"sync"
	"sync/atomic"
)

const (
	ExponentialPercentileDefault = float64(95)
	ExponentialFractionDefault   = float64(0.8571428571) // 1/7
)

// ExponentialGenerator produces a sequence of integers following an
// exponential distribution. The default settings make 95% of draws fall in
// the 1/7 of the range closest to zero.
type ExponentialGenerator struct {
	// The exponential constant to use.
	gamma  float64
	source Source

	mu   sync.Mutex
	last atomic.Int64
}

func NewExponentialGeneratorByMean(mean float64, opts ...Option) *ExponentialGenerator {
	return &ExponentialGenerator{
		gamma:  1.0 / mean,
		source: buildOptions(opts).source,
	}
}

// NewExponentialGenerator creates a generator where percentile% of the
// draws are smaller than theRange.
func NewExponentialGenerator(percentile, theRange float64, opts ...Option) *ExponentialGenerator {
	return &ExponentialGenerator{
		gamma:  -math.Log(1.0-percentile/100.0) / theRange,
		source: buildOptions(opts).source,
	}
}

func (self *ExponentialGenerator) Next() int64 {
	self.mu.Lock()
	defer self.mu.Unlock()
	// 1-u lies in (0, 1], which keeps the logarithm finite
	u := 1.0 - self.source.Float64()
	next := int64(-math.Log(u) / self.gamma)
	self.last.Store(next)
	return next
}

func (self *ExponentialGenerator) Last() int64 {
	return self.last.Load()
}

func (self *ExponentialGenerator) Mean() float64 {
	return 1.0 / self.gamma
}
