package filter

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/mudra/internal/frame"
)

// frameAt builds a tracked frame for sample i of a 60Hz stream.
func frameAt(i int, x, y float64) frame.SensorFrame {
	return frame.SensorFrame{
		Timestamp:  int64(math.Round(float64(i) * 1000 / 60)),
		TrackingOK: true,
		PalmFacing: true,
		Label:      frame.LabelOpenPalm,
		Confidence: 0.9,
		Position:   &frame.Point{X: x, Y: y},
	}
}

func allKinds(t *testing.T) map[string]Smoother {
	t.Helper()
	out := map[string]Smoother{}

	oe, err := NewOneEuroSmoother(DefaultOneEuroConfig())
	require.NoError(t, err)
	out["one_euro"] = oe

	d, err := NewDESP(DefaultDESPConfig())
	require.NoError(t, err)
	out["desp"] = d

	for _, mode := range []PhysicsMode{ModeSmoothed, ModePredictive, ModeAdaptive} {
		cfg := DefaultPhysicsConfig()
		cfg.Mode = mode
		p, err := NewPhysics(cfg)
		require.NoError(t, err)
		out["physics_"+string(mode)] = p
	}
	return out
}

func TestSmoothersConvergeToStep(t *testing.T) {
	for name, s := range allKinds(t) {
		t.Run(name, func(t *testing.T) {
			s.Smooth(frameAt(0, 0.2, 0.2))

			var dist []float64
			for i := 1; i < 300; i++ {
				out := s.Smooth(frameAt(i, 0.8, 0.8))
				require.NotNil(t, out.Position)
				dist = append(dist, math.Hypot(out.Position.X-0.8, out.Position.Y-0.8))
			}
			assert.Less(t, dist[len(dist)-1], 1e-3)
		})
	}
}

func TestSmoothersApproachMonotonically(t *testing.T) {
	// The 1€ filter is a convex blend toward a constant target and the
	// critically damped spring does not overshoot.
	for name, s := range allKinds(t) {
		if name != "one_euro" && name != "physics_smoothed" {
			continue
		}
		t.Run(name, func(t *testing.T) {
			s.Smooth(frameAt(0, 0.2, 0.5))
			prev := math.Inf(1)
			for i := 1; i < 300; i++ {
				out := s.Smooth(frameAt(i, 0.8, 0.5))
				d := math.Abs(out.Position.X - 0.8)
				assert.LessOrEqual(t, d, prev+1e-9, "frame %d", i)
				prev = d
			}
		})
	}
}

func TestSmoothersReduceJitter(t *testing.T) {
	for name, s := range allKinds(t) {
		t.Run(name, func(t *testing.T) {
			rng := rand.New(rand.NewPCG(7, 11))
			var in, out []float64
			for i := 0; i < 600; i++ {
				x := 0.5 + rng.NormFloat64()*0.01
				sm := s.Smooth(frameAt(i, x, 0.5))
				if i < 60 {
					continue
				}
				in = append(in, x)
				out = append(out, sm.Position.X)
			}
			assert.Less(t, stat.Variance(out, nil), stat.Variance(in, nil))
		})
	}
}

func TestSmoothersReduceUniformJitter(t *testing.T) {
	// Stationary hand at 0.5 with uniform noise in ±0.05.
	for name, s := range allKinds(t) {
		t.Run(name, func(t *testing.T) {
			rng := rand.New(rand.NewPCG(3, 5))
			var in, out []float64
			for i := 0; i < 600; i++ {
				x := 0.5 + (rng.Float64()*2-1)*0.05
				sm := s.Smooth(frameAt(i, x, 0.5))
				if i < 60 {
					continue
				}
				in = append(in, x)
				out = append(out, sm.Position.X)
			}
			assert.Less(t, stat.Variance(out, nil), stat.Variance(in, nil))
		})
	}
}

func TestSmoothersResetIsIdempotent(t *testing.T) {
	for name, s := range allKinds(t) {
		t.Run(name, func(t *testing.T) {
			seq := []frame.SensorFrame{
				frameAt(0, 0.1, 0.9),
				frameAt(1, 0.3, 0.7),
				frameAt(2, 0.6, 0.4),
				frameAt(3, 0.65, 0.35),
			}
			run := func() []frame.SmoothedFrame {
				var res []frame.SmoothedFrame
				for _, f := range seq {
					res = append(res, s.Smooth(f))
				}
				return res
			}

			s.Smooth(frameAt(0, 0.9, 0.9))
			s.Reset()
			first := run()
			s.Reset()
			s.Reset()
			second := run()
			assert.Equal(t, first, second)
		})
	}
}

func TestSmoothersTrackingLost(t *testing.T) {
	for name, s := range allKinds(t) {
		t.Run(name, func(t *testing.T) {
			s.Smooth(frameAt(0, 0.4, 0.4))
			s.Smooth(frameAt(1, 0.5, 0.5))

			lost := frameAt(2, 0.5, 0.5)
			lost.TrackingOK = false
			out := s.Smooth(lost)
			assert.Nil(t, out.Position)
			assert.Nil(t, out.Velocity)
			assert.Nil(t, out.Prediction)

			noPos := frameAt(3, 0, 0)
			noPos.Position = nil
			assert.Nil(t, s.Smooth(noPos).Position)

			// State was reset: the next frame starts fresh at the raw value.
			out = s.Smooth(frameAt(4, 0.9, 0.1))
			require.NotNil(t, out.Position)
			assert.InDelta(t, 0.9, out.Position.X, 1e-9)
			assert.InDelta(t, 0.1, out.Position.Y, 1e-9)
		})
	}
}

func TestSmoothersKeepMetadata(t *testing.T) {
	for name, s := range allKinds(t) {
		t.Run(name, func(t *testing.T) {
			f := frameAt(5, 0.5, 0.5)
			f.HandID = "left"
			f.Label = frame.LabelVictory
			f.Confidence = 0.83
			out := s.Smooth(f)
			assert.Equal(t, f.Timestamp, out.Timestamp)
			assert.Equal(t, "left", out.HandID)
			assert.Equal(t, frame.LabelVictory, out.Label)
			assert.Equal(t, 0.83, out.Confidence)
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		kind Kind
		want Kind
	}{
		{KindOneEuro, KindOneEuro},
		{KindDESP, KindDESP},
		{KindPhysics, KindPhysics},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Kind = tt.kind
			require.NoError(t, cfg.Validate())
			s, err := New(cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Kind())
		})
	}

	t.Run("unknown", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Kind = "kalman"
		_, err := New(cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	invalid := []struct {
		kind   Kind
		mutate func(*Config)
	}{
		{KindOneEuro, func(c *Config) { c.OneEuro.MinCutoff = -1 }},
		{KindDESP, func(c *Config) { c.DESP.Alpha = 1 }},
		{KindPhysics, func(c *Config) { c.Physics.Mass = 0 }},
	}
	for _, tt := range invalid {
		t.Run("invalid "+string(tt.kind), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Kind = tt.kind
			tt.mutate(&cfg)
			s, err := New(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.True(t, s == nil, "got non-nil %T", s)
		})
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("physics")
	require.NoError(t, err)
	assert.Equal(t, KindPhysics, k)

	_, err = ParseKind("nope")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
