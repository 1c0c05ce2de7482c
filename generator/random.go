package generator

import (
	"math/rand/v2"
)

// Source is the randomness a generator consumes but does not own.
type Source interface {
	// Float64 returns a uniform float64 in [0.0, 1.0).
	Float64() float64
	// Uint64N returns a uniform uint64 in [0, n). It panics if n == 0.
	Uint64N(n uint64) uint64
}

type runtimeSource struct{}

func (runtimeSource) Float64() float64 {
	return rand.Float64()
}

func (runtimeSource) Uint64N(n uint64) uint64 {
	return rand.Uint64N(n)
}

// DefaultSource draws from the top level functions of math/rand/v2. Their
// state is kept per thread by the runtime, so concurrent callers never
// contend on it.
var DefaultSource Source = runtimeSource{}

// NewSeededSource returns a deterministic source for reproducible runs.
// It is not safe for concurrent use by itself; every generator in this
// package serializes its own draws.
func NewSeededSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

type options struct {
	source Source
}

// Option configures a generator at construction.
type Option func(*options)

// WithSource makes the generator draw from s instead of DefaultSource.
func WithSource(s Source) Option {
	return func(o *options) {
		if s != nil {
			o.source = s
		}
	}
}

func buildOptions(opts []Option) *options {
	o := &options{
		source: DefaultSource,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
