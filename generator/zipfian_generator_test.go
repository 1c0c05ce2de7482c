package generator

import (
	"testing"

	"github.com/hhkbp2/testify/require"
)

func TestZipfianGenerator(t *testing.T) {
	runTestZipfianGenerator(t, func(min, max int64) IntegerGenerator {
		return NewZipfianGeneratorByInterval(min, max)
	})
}

func TestScrambledZipfianGenerator(t *testing.T) {
	runTestZipfianGenerator(t, func(min, max int64) IntegerGenerator {
		return NewScrambledZipfianGenerator(min, max)
	})
}

func runTestZipfianGenerator(t *testing.T, f func(min, max int64) IntegerGenerator) {
	min := int64(1000)
	max := int64(2000)
	g := f(min, max)
	total := 1000
	for i := 0; i < total; i++ {
		last := g.Next()
		require.True(t, last >= min && last <= max)
		require.Equal(t, last, g.Last())
	}
}

func TestZipfianGeneratorSkew(t *testing.T) {
	zg := NewZipfianGeneratorByItems(1000, WithSource(NewSeededSource(13)))
	total := 20000
	counts := make(map[int64]int)
	for i := 0; i < total; i++ {
		counts[zg.Next()]++
	}
	// the first item is the most popular one
	require.True(t, counts[0] > counts[1])
	require.True(t, counts[1] > counts[100])
	require.Panics(t, func() { zg.Mean() })
}

func TestZipfianGeneratorGrowingItemCount(t *testing.T) {
	zg := NewZipfianGeneratorByItems(10)
	for i := 0; i < 1000; i++ {
		v := zg.NextWithItemCount(100)
		require.True(t, v >= 0 && v < 100)
	}
}

func TestSkewedLatestGenerator(t *testing.T) {
	basis := NewCounterGenerator(0)
	for i := 0; i < 100; i++ {
		basis.Next()
	}
	g := NewSkewedLatestGenerator(basis, WithSource(NewSeededSource(17)))
	total := 5000
	recent := 0
	for i := 0; i < total; i++ {
		v := g.Next()
		require.True(t, v >= 0 && v <= basis.Last())
		require.Equal(t, v, g.Last())
		if v >= 80 {
			recent++
		}
	}
	// the latest fifth of the items gets most of the draws
	require.True(t, recent > total/2)
	for i := 0; i < 100; i++ {
		basis.Next()
	}
	for i := 0; i < 100; i++ {
		v := g.Next()
		require.True(t, v >= 0 && v <= basis.Last())
	}
}

func TestHash(t *testing.T) {
	require.Equal(t, Hash(12345), Hash(12345))
	require.NotEqual(t, Hash(1), Hash(2))
}
