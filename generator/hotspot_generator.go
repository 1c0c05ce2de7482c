package generator

import (
	"math"
	"sync"
	"sync/atomic"
)

// HotspotGenerator generates integers resembling a hotspot distribution
// where x% of operations access y% of data items. The parameters specify
// the bounds for the numbers, the percentage of the interval which
// comprises the hot set and the percentage of operations that access
// the hot set. Numbers of the hot set are always smaller than any number
// in the cold set. Elements from the hot set and the cold set are chosen
// using a uniform distribution.
//
// A HotspotGenerator is safe for concurrent use. Next draws under an
// instance lock; Last reads without it.
type HotspotGenerator struct {
	lowerBound     int64
	upperBound     int64
	hotInterval    uint64
	coldInterval   uint64
	hotsetFraction float64
	hotOpnFraction float64
	source         Source

	mu   sync.Mutex
	last atomic.Int64
}

func checkFraction(value float64) float64 {
	// written so that NaN is rejected too
	if !(value >= 0.0 && value <= 1.0) {
		return 0.0
	}
	return value
}

// intervalSize returns the number of integers in [lowerBound, upperBound].
// The whole int64 domain does not fit in an uint64 and saturates.
func intervalSize(lowerBound, upperBound int64) uint64 {
	n := uint64(upperBound - lowerBound)
	if n == math.MaxUint64 {
		return n
	}
	return n + 1
}

func hotIntervalSize(interval uint64, hotsetFraction float64) uint64 {
	if hotsetFraction >= 1.0 {
		return interval
	}
	hot := uint64(float64(interval) * hotsetFraction)
	if hot > interval {
		return interval
	}
	return hot
}

// NewHotspotGenerator creates a generator for the inclusive range
// [lowerBound, upperBound]. hotsetFraction is the fraction of the range that
// is hot, hotOpnFraction is the fraction of draws that hit the hot set.
// Fractions outside [0, 1] are treated as 0 and inverted bounds are swapped,
// so construction always succeeds. The first value is drawn before the
// generator is returned, which makes Last valid right away.
func NewHotspotGenerator(
	lowerBound, upperBound int64,
	hotsetFraction, hotOpnFraction float64,
	opts ...Option) *HotspotGenerator {

	hotsetFraction = checkFraction(hotsetFraction)
	hotOpnFraction = checkFraction(hotOpnFraction)
	if lowerBound > upperBound {
		lowerBound, upperBound = upperBound, lowerBound
	}
	interval := intervalSize(lowerBound, upperBound)
	hotInterval := hotIntervalSize(interval, hotsetFraction)
	object := &HotspotGenerator{
		lowerBound:     lowerBound,
		upperBound:     upperBound,
		hotInterval:    hotInterval,
		coldInterval:   interval - hotInterval,
		hotsetFraction: hotsetFraction,
		hotOpnFraction: hotOpnFraction,
		source:         buildOptions(opts).source,
	}
	object.Next()
	return object
}

// chooseHot decides the set for a draw of r in [0, 1). A set with no keys
// is never chosen: a zero sized hot set sends every draw to the cold set and
// a zero sized cold set sends every draw to the hot set. The whole interval
// holds at least one key, so one of the two is always usable.
func (self *HotspotGenerator) chooseHot(r float64) bool {
	switch {
	case self.hotInterval == 0:
		return false
	case self.coldInterval == 0:
		return true
	default:
		return r < self.hotOpnFraction
	}
}

func (self *HotspotGenerator) Next() int64 {
	self.mu.Lock()
	defer self.mu.Unlock()

	var offset uint64
	if self.chooseHot(self.source.Float64()) {
		// Choose a value from the hot set.
		offset = self.source.Uint64N(self.hotInterval)
	} else {
		// Choose a value from the cold set.
		offset = self.hotInterval + self.source.Uint64N(self.coldInterval)
	}
	value := int64(uint64(self.lowerBound) + offset)
	self.last.Store(value)
	return value
}

func (self *HotspotGenerator) Last() int64 {
	return self.last.Load()
}

func (self *HotspotGenerator) NextString() string {
	return NextString(self)
}

func (self *HotspotGenerator) LastString() string {
	return LastString(self)
}

// hotProbability is the probability that a draw lands in the hot set,
// after the empty set policy of chooseHot is applied.
func (self *HotspotGenerator) hotProbability() float64 {
	switch {
	case self.hotInterval == 0:
		return 0.0
	case self.coldInterval == 0:
		return 1.0
	default:
		return self.hotOpnFraction
	}
}

func uniformMean(start int64, size uint64) float64 {
	if size == 0 {
		return 0
	}
	return float64(start) + float64(size-1)/2.0
}

func (self *HotspotGenerator) Mean() float64 {
	p := self.hotProbability()
	coldStart := int64(uint64(self.lowerBound) + self.hotInterval)
	return p*uniformMean(self.lowerBound, self.hotInterval) +
		(1-p)*uniformMean(coldStart, self.coldInterval)
}

func (self *HotspotGenerator) LowerBound() int64 {
	return self.lowerBound
}

func (self *HotspotGenerator) UpperBound() int64 {
	return self.upperBound
}

func (self *HotspotGenerator) HotsetFraction() float64 {
	return self.hotsetFraction
}

func (self *HotspotGenerator) HotOpnFraction() float64 {
	return self.hotOpnFraction
}

// HotInterval returns the number of keys in the hot set
// [LowerBound, LowerBound+HotInterval).
func (self *HotspotGenerator) HotInterval() uint64 {
	return self.hotInterval
}

// ColdInterval returns the number of keys in the cold set
// [LowerBound+HotInterval, UpperBound].
func (self *HotspotGenerator) ColdInterval() uint64 {
	return self.coldInterval
}

// IsHot reports whether value lies in the hot set.
func (self *HotspotGenerator) IsHot(value int64) bool {
	if value < self.lowerBound || value > self.upperBound {
		return false
	}
	return uint64(value)-uint64(self.lowerBound) < self.hotInterval
}
