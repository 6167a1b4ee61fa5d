package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlpha(t *testing.T) {
	assert.InDelta(t, 0.0948, Alpha(1, 1.0/60), 1e-3)
	assert.Greater(t, Alpha(10, 1.0/60), Alpha(1, 1.0/60))
	assert.Greater(t, Alpha(1, 0.1), Alpha(1, 0.01))
}

func TestOneEuroConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*OneEuroConfig)
	}{
		{"zero frequency", func(c *OneEuroConfig) { c.Frequency = 0 }},
		{"negative min cutoff", func(c *OneEuroConfig) { c.MinCutoff = -1 }},
		{"negative beta", func(c *OneEuroConfig) { c.Beta = -0.1 }},
		{"zero d cutoff", func(c *OneEuroConfig) { c.DCutoff = 0 }},
		{"nan beta", func(c *OneEuroConfig) { c.Beta = math.NaN() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultOneEuroConfig()
			tt.mutate(&cfg)
			_, err := NewOneEuro(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			_, err = NewOneEuroSmoother(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	assert.NoError(t, DefaultOneEuroConfig().Validate())
}

func TestOneEuroFirstSample(t *testing.T) {
	f, err := NewOneEuro(DefaultOneEuroConfig())
	require.NoError(t, err)

	pos, vel := f.Filter(0.42, 3.0)
	assert.Equal(t, 0.42, pos)
	assert.Equal(t, 0.0, vel)
}

func TestOneEuroRejectsNonMonotonicTime(t *testing.T) {
	f, err := NewOneEuro(DefaultOneEuroConfig())
	require.NoError(t, err)
	ref, err := NewOneEuro(DefaultOneEuroConfig())
	require.NoError(t, err)

	f.Filter(0.5, 1.0)
	ref.Filter(0.5, 1.0)

	t.Run("duplicate", func(t *testing.T) {
		pos, vel := f.Filter(0.6, 1.0)
		assert.True(t, math.IsNaN(pos))
		assert.True(t, math.IsNaN(vel))
	})

	t.Run("backwards", func(t *testing.T) {
		pos, _ := f.Filter(0.6, 0.5)
		assert.True(t, math.IsNaN(pos))
	})

	t.Run("state untouched", func(t *testing.T) {
		got, gotVel := f.Filter(0.6, 1.0+1.0/60)
		want, wantVel := ref.Filter(0.6, 1.0+1.0/60)
		assert.Equal(t, want, got)
		assert.Equal(t, wantVel, gotVel)
	})
}

func TestOneEuroStep(t *testing.T) {
	cfg := DefaultOneEuroConfig()
	stepped, err := NewOneEuro(cfg)
	require.NoError(t, err)
	timed, err := NewOneEuro(cfg)
	require.NoError(t, err)

	values := []float64{0.1, 0.15, 0.3, 0.28, 0.5, 0.52}
	for i, v := range values {
		gp, gv := stepped.Step(v)
		wp, wv := timed.Filter(v, float64(i)/cfg.Frequency)
		assert.InDelta(t, wp, gp, 1e-12, "sample %d", i)
		assert.InDelta(t, wv, gv, 1e-9, "sample %d", i)
	}
}

func TestOneEuroFastMotionLagsLess(t *testing.T) {
	slow := DefaultOneEuroConfig()
	fast := DefaultOneEuroConfig()
	fast.Beta = 1

	run := func(cfg OneEuroConfig) float64 {
		f, err := NewOneEuro(cfg)
		require.NoError(t, err)
		var out float64
		for i := 0; i < 30; i++ {
			out, _ = f.Step(float64(i) * 0.02)
		}
		return out
	}
	target := 29 * 0.02
	assert.Less(t, target-run(fast), target-run(slow))
}

func TestOneEuroSetParams(t *testing.T) {
	f, err := NewOneEuro(DefaultOneEuroConfig())
	require.NoError(t, err)

	require.NoError(t, f.SetParams(2.0, 0.05))
	assert.Equal(t, 2.0, f.Config().MinCutoff)
	assert.Equal(t, 0.05, f.Config().Beta)

	assert.ErrorIs(t, f.SetParams(0, 0.05), ErrInvalidConfig)
	assert.Equal(t, 2.0, f.Config().MinCutoff)
}

func TestOneEuroSmootherDuplicateTimestamp(t *testing.T) {
	s, err := NewOneEuroSmoother(DefaultOneEuroConfig())
	require.NoError(t, err)

	s.Smooth(frameAt(1, 0.5, 0.5))
	out := s.Smooth(frameAt(1, 0.6, 0.6))
	require.NotNil(t, out.Position)
	assert.True(t, math.IsNaN(out.Position.X))
	assert.True(t, math.IsNaN(out.Position.Y))
	assert.False(t, out.Valid())
}

func TestOneEuroSmootherClamps(t *testing.T) {
	s, err := NewOneEuroSmoother(DefaultOneEuroConfig())
	require.NoError(t, err)

	out := s.Smooth(frameAt(0, 1.2, -0.1))
	assert.Equal(t, 1.0, out.Position.X)
	assert.Equal(t, 0.0, out.Position.Y)
}

func TestOneEuroSmootherSetParams(t *testing.T) {
	s, err := NewOneEuroSmoother(DefaultOneEuroConfig())
	require.NoError(t, err)
	assert.NoError(t, s.SetParams(0.5, 0.01))
	assert.Error(t, s.SetParams(0.5, -1))
}
