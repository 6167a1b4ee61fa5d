package orientation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"default", DefaultConfig(), true},
		{"equal thresholds", Config{EnterDeg: 30, ExitDeg: 30}, false},
		{"inverted", Config{EnterDeg: 40, ExitDeg: 30}, false},
		{"negative", Config{EnterDeg: -5, ExitDeg: 30}, false},
		{"above 180", Config{EnterDeg: 20, ExitDeg: 190}, false},
		{"nan", Config{EnterDeg: math.NaN(), ExitDeg: 30}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGate(tt.cfg)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestGateHysteresis(t *testing.T) {
	g, err := NewGate(Config{EnterDeg: 25, ExitDeg: 35})
	require.NoError(t, err)
	assert.False(t, g.Facing())

	steps := []struct {
		angle float64
		want  bool
	}{
		{50, false},
		{30, false}, // inside the band, was not facing
		{25, false}, // enter is strict
		{24, true},
		{30, true}, // inside the band, was facing
		{35, true}, // exit is strict
		{36, false},
		{30, false},
		{10, true},
	}
	for i, s := range steps {
		assert.Equal(t, s.want, g.Update(s.angle), "step %d angle %v", i, s.angle)
	}
}

func TestGateHoldsThroughBandOscillation(t *testing.T) {
	g, err := NewGate(Config{EnterDeg: 30, ExitDeg: 45})
	require.NoError(t, err)

	require.True(t, g.Update(20))
	for i, a := range []float64{35, 40, 35, 40, 35, 40} {
		assert.True(t, g.Update(a), "step %d angle %v", i, a)
	}
	require.False(t, g.Update(50))
	for i, a := range []float64{35, 40, 35, 40} {
		assert.False(t, g.Update(a), "step %d angle %v", i, a)
	}
}

func TestGateIgnoresNaN(t *testing.T) {
	g, err := NewGate(DefaultConfig())
	require.NoError(t, err)

	assert.False(t, g.Update(math.NaN()))
	g.Update(10)
	assert.True(t, g.Update(math.NaN()))
	assert.True(t, math.IsNaN(g.Angle()))
}

func TestGateReset(t *testing.T) {
	g, err := NewGate(DefaultConfig())
	require.NoError(t, err)

	g.Update(5)
	require.True(t, g.Facing())
	assert.Equal(t, 5.0, g.Angle())

	g.Reset()
	assert.False(t, g.Facing())
	assert.True(t, math.IsNaN(g.Angle()))
	assert.Equal(t, DefaultConfig(), g.Config())
}
