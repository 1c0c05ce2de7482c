package generator

import (
	"errors"
	"strconv"
)

var (
	ErrUnsupported = errors.New("unsupported operation")
)

// Generator produces a lazy, infinite sequence of values of type T.
type Generator[T any] interface {
	// Next generates the next value in the distribution.
	Next() T
	// Last returns the previous value generated, e.g. the return value of
	// the last call to Next(). It never draws a new value.
	Last() T
}

// IntegerGenerator is a generator capable of generating integers.
type IntegerGenerator interface {
	Generator[int64]
	// Mean returns the expected value of the distribution.
	Mean() float64
}

// NextString generates the next value of g in its decimal form.
func NextString(g Generator[int64]) string {
	return strconv.FormatInt(g.Next(), 10)
}

// LastString returns the last value of g in its decimal form.
func LastString(g Generator[int64]) string {
	return strconv.FormatInt(g.Last(), 10)
}

// ConstantGenerator is a trivial integer generator that always returns
// the same value.
type ConstantGenerator struct {
	value int64
}

func NewConstantGenerator(value int64) *ConstantGenerator {
	return &ConstantGenerator{
		value: value,
	}
}

func (self *ConstantGenerator) Next() int64 {
	return self.value
}

func (self *ConstantGenerator) Last() int64 {
	return self.value
}

func (self *ConstantGenerator) Mean() float64 {
	return float64(self.value)
}
