package generator

import (
	"errors"
	"sync"
	"sync/atomic"
)

// CounterGenerator generates a sequence of integers 0, 1, ...
type CounterGenerator struct {
	count atomic.Int64
}

// NewCounterGenerator creates a counter that starts at startCount.
func NewCounterGenerator(startCount int64) *CounterGenerator {
	object := &CounterGenerator{}
	object.count.Store(startCount - 1)
	return object
}

func (self *CounterGenerator) Next() int64 {
	return self.count.Add(1)
}

func (self *CounterGenerator) Last() int64 {
	return self.count.Load()
}

func (self *CounterGenerator) Mean() float64 {
	panic(ErrUnsupported)
}

const (
	// The size of the window of pending acknowledgements.
	acknowledgedWindowSize = 1 << 20
	acknowledgedWindowMask = acknowledgedWindowSize - 1
)

var (
	ErrTooManyUnacknowledged = errors.New("too many unacknowledged insertion keys")
)

// AcknowledgedCounterGenerator is a CounterGenerator whose Last only
// advances once every value up to it has been acknowledged. It is used to
// track the keys that are known to be present in the database.
type AcknowledgedCounterGenerator struct {
	*CounterGenerator

	mu     sync.Mutex
	window []bool
	limit  atomic.Int64
}

func NewAcknowledgedCounterGenerator(startCount int64) *AcknowledgedCounterGenerator {
	object := &AcknowledgedCounterGenerator{
		CounterGenerator: NewCounterGenerator(startCount),
		window:           make([]bool, acknowledgedWindowSize),
	}
	object.limit.Store(startCount - 1)
	return object
}

// Last returns the largest value such that it and all values before it
// have been acknowledged.
func (self *AcknowledgedCounterGenerator) Last() int64 {
	return self.limit.Load()
}

// Acknowledge makes value eligible to be returned by Last.
func (self *AcknowledgedCounterGenerator) Acknowledge(value int64) error {
	self.mu.Lock()
	defer self.mu.Unlock()

	slot := value & acknowledgedWindowMask
	if self.window[slot] {
		return ErrTooManyUnacknowledged
	}
	self.window[slot] = true

	limit := self.limit.Load()
	advanced := 0
	for ; advanced < acknowledgedWindowSize; advanced++ {
		slot := (limit + 1 + int64(advanced)) & acknowledgedWindowMask
		if !self.window[slot] {
			break
		}
		self.window[slot] = false
	}
	self.limit.Store(limit + int64(advanced))
	return nil
}
