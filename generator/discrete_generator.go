package generator

import (
	"sync"
)

type Pair struct {
	Weight float64
	Value  string
}

// DiscreteGenerator generates a distribution by choosing from a discrete set
// of values, each value drawn with a probability proportional to its weight.
type DiscreteGenerator struct {
	source Source

	mu        sync.Mutex
	values    []Pair
	sum       float64
	lastValue string
}

func NewDiscreteGenerator(opts ...Option) *DiscreteGenerator {
	return &DiscreteGenerator{
		source: buildOptions(opts).source,
	}
}

// AddValue adds a value with the given weight. Non-positive weights are
// ignored.
func (self *DiscreteGenerator) AddValue(weight float64, value string) {
	if !(weight > 0) {
		return
	}
	self.mu.Lock()
	defer self.mu.Unlock()
	self.values = append(self.values, Pair{
		Weight: weight,
		Value:  value,
	})
	self.sum += weight
}

// Next returns a value chosen by weight, or "" if no value has been added.
func (self *DiscreteGenerator) Next() string {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.nextLocked()
}

func (self *DiscreteGenerator) nextLocked() string {
	if len(self.values) == 0 {
		return ""
	}
	value := self.source.Float64() * self.sum
	chosen := self.values[len(self.values)-1].Value
	for _, p := range self.values {
		if value < p.Weight {
			chosen = p.Value
			break
		}
		value -= p.Weight
	}
	self.lastValue = chosen
	return chosen
}

// Last returns the last value drawn. If nothing has been drawn yet, a value
// is drawn first.
func (self *DiscreteGenerator) Last() string {
	self.mu.Lock()
	defer self.mu.Unlock()
	if len(self.lastValue) == 0 {
		return self.nextLocked()
	}
	return self.lastValue
}
