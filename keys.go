package hotbench

import (
	"context"
	"fmt"
	"math"

	g "github.com/hhkbp2/hotbench/generator"
	"golang.org/x/sync/errgroup"
)

// KeySample summarizes keys drawn from a hotspot generator.
type KeySample struct {
	Draws int64
	Hot   int64
	Min   int64
	Max   int64
}

// HotFraction returns the observed fraction of hot keys.
func (self *KeySample) HotFraction() float64 {
	if self.Draws == 0 {
		return 0
	}
	return float64(self.Hot) / float64(self.Draws)
}

func (self *KeySample) merge(other *KeySample) {
	if other.Draws == 0 {
		return
	}
	if self.Draws == 0 || other.Min < self.Min {
		self.Min = other.Min
	}
	if self.Draws == 0 || other.Max > self.Max {
		self.Max = other.Max
	}
	self.Draws += other.Draws
	self.Hot += other.Hot
}

// SampleKeys draws n keys from gen with the given number of goroutines
// sharing the generator.
func SampleKeys(ctx context.Context, gen *g.HotspotGenerator, n int64, threads int) (*KeySample, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative sample size %d", ErrInvalidProperty, n)
	}
	if threads <= 0 {
		return nil, fmt.Errorf("%w: thread count must be positive", ErrInvalidProperty)
	}
	samples := make([]KeySample, threads)
	group, ctx := errgroup.WithContext(ctx)
	for i := 0; i < threads; i++ {
		draws := n / int64(threads)
		if int64(i) < n%int64(threads) {
			draws++
		}
		sample := &samples[i]
		group.Go(func() error {
			sample.Min, sample.Max = math.MaxInt64, math.MinInt64
			for j := int64(0); j < draws; j++ {
				if j&0xfff == 0 && ctx.Err() != nil {
					return ctx.Err()
				}
				key := gen.Next()
				if gen.IsHot(key) {
					sample.Hot++
				}
				sample.Min = min(sample.Min, key)
				sample.Max = max(sample.Max, key)
				sample.Draws++
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	ret := &KeySample{}
	for i := range samples {
		ret.merge(&samples[i])
	}
	return ret, nil
}
