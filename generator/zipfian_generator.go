package generator

import (
	"math"
	"sync"
	"sync/atomic"
)

const (
	ZipfianConstant = float64(0.99)
)

// zetaStatic computes the zeta constant needed for the distribution
// incrementally, for a distribution that has n items now but used to have
// st items, starting from initialSum.
func zetaStatic(st, n int64, theta, initialSum float64) float64 {
	sum := initialSum
	for i := st; i < n; i++ {
		sum += 1 / math.Pow(float64(i+1), theta)
	}
	return sum
}

// ZipfianGenerator generates a zipfian distribution. It produces a sequence
// of items, such that some items are more popular than others. The popular
// items are clustered together: min is the most popular, min+1 the next most
// popular, and so on. Use ScrambledZipfianGenerator to scatter them across
// the item space instead.
//
// Initializing this generator may take a long time for large item counts,
// since zeta is a sum over all items. Growing the item count later computes
// zeta incrementally.
//
// The algorithm is from "Quickly Generating Billion-Record Synthetic
// Databases", Jim Gray et al, SIGMOD 1994.
type ZipfianGenerator struct {
	// Number of items.
	items int64
	// Min item to generate.
	base   int64
	source Source

	mu sync.Mutex
	// Computed parameters for generating the distribution.
	alpha, zetan, eta, theta, zeta2theta float64
	// The number of items used to compute zetan the last time.
	countForZeta int64
	// If false, a smaller item count passed to NextWithItemCount keeps the
	// old zeta instead of recomputing it from scratch.
	allowItemCountDecrease bool

	last atomic.Int64
}

// NewZipfianGeneratorByItems creates a generator for items in
// [0, items-1].
func NewZipfianGeneratorByItems(items int64, opts ...Option) *ZipfianGenerator {
	return NewZipfianGeneratorByInterval(0, items-1, opts...)
}

// NewZipfianGeneratorByInterval creates a generator for items in
// [min, max] with the default zipfian constant.
func NewZipfianGeneratorByInterval(min, max int64, opts ...Option) *ZipfianGenerator {
	return NewZipfianGeneratorWithConstant(min, max, ZipfianConstant, opts...)
}

func NewZipfianGeneratorWithConstant(min, max int64, zipfianConstant float64, opts ...Option) *ZipfianGenerator {
	zetan := zetaStatic(0, max-min+1, zipfianConstant, 0)
	return NewZipfianGenerator(min, max, zipfianConstant, zetan, opts...)
}

// NewZipfianGenerator creates a zipfian generator for items between min and
// max (inclusive) for the specified zipfian constant, using the precomputed
// value of zeta.
func NewZipfianGenerator(min, max int64, zipfianConstant, zetan float64, opts ...Option) *ZipfianGenerator {
	if min > max {
		min, max = max, min
	}
	items := max - min + 1
	theta := zipfianConstant
	zeta2theta := zetaStatic(0, 2, theta, 0)
	object := &ZipfianGenerator{
		items:        items,
		base:         min,
		source:       buildOptions(opts).source,
		alpha:        1.0 / (1.0 - theta),
		zetan:        zetan,
		theta:        theta,
		zeta2theta:   zeta2theta,
		countForZeta: items,
	}
	object.eta = object.computeEta()
	object.Next()
	return object
}

func (self *ZipfianGenerator) computeEta() float64 {
	return (1 - math.Pow(2.0/float64(self.items), 1-self.theta)) / (1 - self.zeta2theta/self.zetan)
}

// Next generates the next item. This distribution is skewed toward lower
// integers; e.g. min is the most popular, min+1 the next most popular, etc.
func (self *ZipfianGenerator) Next() int64 {
	return self.NextWithItemCount(self.items)
}

// NextWithItemCount generates the next item from a population of
// itemCount items.
func (self *ZipfianGenerator) NextWithItemCount(itemCount int64) int64 {
	self.mu.Lock()
	defer self.mu.Unlock()

	if itemCount != self.countForZeta {
		if itemCount > self.countForZeta {
			self.zetan = zetaStatic(self.countForZeta, itemCount, self.theta, self.zetan)
			self.countForZeta = itemCount
			self.eta = self.computeEta()
		} else if self.allowItemCountDecrease {
			self.zetan = zetaStatic(0, itemCount, self.theta, 0)
			self.countForZeta = itemCount
			self.eta = self.computeEta()
		}
	}

	u := self.source.Float64()
	uz := u * self.zetan
	var ret int64
	switch {
	case uz < 1.0:
		ret = self.base
	case uz < 1.0+math.Pow(0.5, self.theta):
		ret = self.base + 1
	default:
		ret = self.base + int64(float64(itemCount)*math.Pow(self.eta*u-self.eta+1.0, self.alpha))
	}
	self.last.Store(ret)
	return ret
}

func (self *ZipfianGenerator) Last() int64 {
	return self.last.Load()
}

func (self *ZipfianGenerator) Mean() float64 {
	panic(ErrUnsupported)
}

const (
	scrambledZipfianItemCount = int64(10000000000)
	// zeta(0, scrambledZipfianItemCount) for ZipfianConstant.
	scrambledZipfianZetan = float64(26.46902820178302)
)

// ScrambledZipfianGenerator generates a zipfian distribution with the
// popular items scattered throughout the item space, by hashing the rank
// drawn from a fixed size zipfian generator.
type ScrambledZipfianGenerator struct {
	gen       *ZipfianGenerator
	min       int64
	max       int64
	itemCount int64
	last      atomic.Int64
}

func NewScrambledZipfianGeneratorByItems(items int64, opts ...Option) *ScrambledZipfianGenerator {
	return NewScrambledZipfianGenerator(0, items-1, opts...)
}

func NewScrambledZipfianGenerator(min, max int64, opts ...Option) *ScrambledZipfianGenerator {
	if min > max {
		min, max = max, min
	}
	object := &ScrambledZipfianGenerator{
		gen: NewZipfianGenerator(0, scrambledZipfianItemCount-1,
			ZipfianConstant, scrambledZipfianZetan, opts...),
		min:       min,
		max:       max,
		itemCount: max - min + 1,
	}
	object.Next()
	return object
}

func (self *ScrambledZipfianGenerator) Next() int64 {
	ret := self.gen.Next()
	ret = self.min + int64(Hash(ret)%uint64(self.itemCount))
	self.last.Store(ret)
	return ret
}

func (self *ScrambledZipfianGenerator) Last() int64 {
	return self.last.Load()
}

// Mean is that of a uniform distribution, since the hashing spreads the
// popular items evenly.
func (self *ScrambledZipfianGenerator) Mean() float64 {
	return float64(self.min+self.max) / 2.0
}

// SkewedLatestGenerator generates a popularity distribution of items,
// skewed to favor recent items significantly more than older items.
type SkewedLatestGenerator struct {
	basis   Generator[int64]
	zipfian *ZipfianGenerator
	last    atomic.Int64
}

func NewSkewedLatestGenerator(basis Generator[int64], opts ...Option) *SkewedLatestGenerator {
	items := basis.Last()
	if items < 1 {
		items = 1
	}
	object := &SkewedLatestGenerator{
		basis:   basis,
		zipfian: NewZipfianGeneratorByItems(items, opts...),
	}
	object.Next()
	return object
}

// Next generates the next value, skewed toward the latest value of basis.
func (self *SkewedLatestGenerator) Next() int64 {
	max := self.basis.Last()
	next := max
	if max > 0 {
		next = max - self.zipfian.NextWithItemCount(max)
	}
	self.last.Store(next)
	return next
}

func (self *SkewedLatestGenerator) Last() int64 {
	return self.last.Load()
}

func (self *SkewedLatestGenerator) Mean() float64 {
	panic(ErrUnsupported)
}
