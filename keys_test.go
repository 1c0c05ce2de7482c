package hotbench

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	g "github.com/hhkbp2/hotbench/generator"
	"github.com/hhkbp2/testify/require"
)

func TestSampleKeys(t *testing.T) {
	gen := g.NewHotspotGenerator(100, 1099, 0.2, 0.8, g.WithSource(g.NewSeededSource(7)))
	sample, err := SampleKeys(context.Background(), gen, 20000, 4)
	require.Nil(t, err)
	require.Equal(t, int64(20000), sample.Draws)
	require.True(t, sample.Min >= 100)
	require.True(t, sample.Max <= 1099)
	require.InDelta(t, 0.8, sample.HotFraction(), 0.02)
}

func TestSampleKeysReproducible(t *testing.T) {
	draw := func() *KeySample {
		gen := g.NewHotspotGenerator(0, 999, 0.1, 0.9, g.WithSource(g.NewSeededSource(42)))
		sample, err := SampleKeys(context.Background(), gen, 1000, 1)
		require.Nil(t, err)
		return sample
	}
	require.Equal(t, draw(), draw())
}

func TestSampleKeysEmpty(t *testing.T) {
	gen := g.NewHotspotGenerator(0, 9, 0.5, 0.5)
	sample, err := SampleKeys(context.Background(), gen, 0, 3)
	require.Nil(t, err)
	require.Equal(t, int64(0), sample.Draws)
	require.Equal(t, 0.0, sample.HotFraction())

	_, err = SampleKeys(context.Background(), gen, -1, 1)
	require.True(t, errors.Is(err, ErrInvalidProperty))
	_, err = SampleKeys(context.Background(), gen, 1, 0)
	require.True(t, errors.Is(err, ErrInvalidProperty))
}

func TestSampleKeysCanceled(t *testing.T) {
	gen := g.NewHotspotGenerator(0, 9, 0.5, 0.5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := SampleKeys(ctx, gen, 100, 2)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestSampleKeysOutput(t *testing.T) {
	var buf bytes.Buffer
	props := Properties{
		"lower":  "0",
		"upper":  "99",
		"hotset": "0.2",
		"hotopn": "1",
		"n":      "500",
		"seed":   "1",
	}
	require.Nil(t, sampleKeys(context.Background(), props, &buf))
	out := buf.String()
	require.True(t, strings.Contains(out, "range: [0, 99]\n"))
	require.True(t, strings.Contains(out, "hot set: 20 keys, cold set: 80 keys\n"))
	require.True(t, strings.Contains(out, "draws: 500, hot: 500, hot fraction: 1.0000 (expected 1.0000)\n"))

	props["seed"] = "soon"
	require.True(t, errors.Is(sampleKeys(context.Background(), props, &buf), ErrInvalidProperty))
}
