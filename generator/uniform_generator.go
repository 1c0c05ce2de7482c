package generator

import (
	"sync"
	"sync/atomic"
)

// UniformGenerator generates integers uniformly distributed in
// [lowerBound, upperBound].
type UniformGenerator struct {
	lowerBound int64
	upperBound int64
	interval   uint64
	source     Source

	mu   sync.Mutex
	last atomic.Int64
}

func NewUniformGenerator(lowerBound, upperBound int64, opts ...Option) *UniformGenerator {
	if lowerBound > upperBound {
		lowerBound, upperBound = upperBound, lowerBound
	}
	object := &UniformGenerator{
		lowerBound: lowerBound,
		upperBound: upperBound,
		interval:   intervalSize(lowerBound, upperBound),
		source:     buildOptions(opts).source,
	}
	object.last.Store(lowerBound - 1)
	return object
}

func (self *UniformGenerator) Next() int64 {
	self.mu.Lock()
	defer self.mu.Unlock()
	value := int64(uint64(self.lowerBound) + self.source.Uint64N(self.interval))
	self.last.Store(value)
	return value
}

func (self *UniformGenerator) Last() int64 {
	return self.last.Load()
}

func (self *UniformGenerator) Mean() float64 {
	return uniformMean(self.lowerBound, self.interval)
}
