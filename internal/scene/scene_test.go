package scene

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/promoreel/internal/counter"
	"github.com/ivlev/promoreel/internal/easing"
	"github.com/ivlev/promoreel/internal/interpolate"
	"github.com/ivlev/promoreel/internal/particles"
	"github.com/ivlev/promoreel/internal/spring"
	"github.com/ivlev/promoreel/internal/stagger"
)

func heroLike() *Scene {
	return &Scene{
		ID: "hero",
		Params: []Param{
			{Name: "logoScale", Signal: Spring{Config: spring.Config{Damping: 12, Stiffness: 80, Mass: 0.8, DurationInFrames: 40, FPS: 30}}},
			{Name: "logoOpacity", Signal: interpolate.MustNew([]float64{0, 15}, []float64{0, 1}, interpolate.WithEasing(easing.CubicOut))},
			{Name: "gradientAngle", Signal: interpolate.Ramp(135, 0.3)},
			{Name: "orbX", Signal: particles.Oscillator{Wave: particles.Sine, Amplitude: 15, Period: 30}},
		},
		Groups: []NamedGroup{{
			Name:  "tagline",
			Text:  "Ship promos in minutes",
			Split: stagger.Words,
			Group: stagger.FromSeconds(0, 0, 0.08, 0.7, 30, easing.BackOut(1.4), stagger.Prop{Name: "y", From: 60, To: 0}),
		}},
		Counters: []NamedCounter{{
			Name: "users",
			Counter: counter.Counter{
				From: 0, To: 240909, DurationSeconds: 1.8, FPS: 30, Easing: easing.CubicInOut,
				Format: counter.Format{Separator: ",", Suffix: "+"},
			},
		}},
		Particles: &particles.Field{Count: 20, XMul: 97, XAdd: 13, YMul: 67, YAdd: 29, SizeBase: 2, SizeMod: 3, FadeFrames: 20, OpacityBase: 0.4},
	}
}

func TestEvaluate(t *testing.T) {
	s := heroLike()
	require.NoError(t, s.Validate())

	start := s.Evaluate(0)
	assert.Equal(t, 0.0, start.Values["logoScale"])
	assert.Equal(t, 0.0, start.Values["logoOpacity"])
	assert.Equal(t, 135.0, start.Values["gradientAngle"])
	assert.Equal(t, 0.0, start.Values["orbX"])
	assert.Equal(t, "0+", start.Text["users"])
	require.Len(t, start.Elements["tagline"], 4)
	assert.InDelta(t, 60, start.Elements["tagline"][0].Values["y"], 1e-9)
	assert.Len(t, start.Particles, 20)

	later := s.Evaluate(100)
	assert.Equal(t, 1.0, later.Values["logoOpacity"])
	assert.InDelta(t, 165, later.Values["gradientAngle"], 1e-9)
	assert.InDelta(t, 15*math.Sin(100.0/30), later.Values["orbX"], 1e-12)
	assert.Equal(t, "240,909+", later.Text["users"])
	assert.Equal(t, 240909.0, later.Values["users"])
	for _, el := range later.Elements["tagline"] {
		assert.InDelta(t, 0, el.Values["y"], 1e-9)
	}
}

func TestEvaluateIsOrderIndependent(t *testing.T) {
	s := heroLike()
	a := s.Evaluate(42)
	_ = s.Evaluate(7)
	_ = s.Evaluate(120)
	assert.Equal(t, a, s.Evaluate(42))
}

func TestNamesAndSignal(t *testing.T) {
	s := heroLike()
	assert.Equal(t, []string{"gradientAngle", "logoOpacity", "logoScale", "orbX", "users"}, s.Names())

	sig, ok := s.Signal("users")
	require.True(t, ok)
	assert.Equal(t, 240909.0, sig.At(54))

	_, ok = s.Signal("missing")
	assert.False(t, ok)
}

func TestComposedSignals(t *testing.T) {
	cardY := Spring{Config: spring.Config{Damping: 13, Stiffness: 85, Mass: 0.7, FPS: 30}, Start: 18}
	translate := Sum{
		Affine{Signal: cardY, Scale: -50, Offset: 50},
		particles.Oscillator{Amplitude: 4, Period: 30},
	}
	assert.Equal(t, 50.0, translate.At(0))
	assert.InDelta(t, 4*math.Sin(300.0/30), translate.At(300), 1e-3)

	mapped := Spring{Config: spring.Default(30), From: 0.5, To: 1.2}
	assert.Equal(t, 0.5, mapped.At(0))

	shifted := Shifted{Signal: interpolate.MustNew([]float64{0, 10}, []float64{0, 1}), Delay: 5}
	assert.Equal(t, 0.0, shifted.At(5))
	assert.Equal(t, 0.5, shifted.At(10))
}

func TestSettleFrame(t *testing.T) {
	s := heroLike()
	// four words, last delay 3*2.4 frames, 21 frame tween; counter ends at 54
	assert.InDelta(t, 54, s.SettleFrame(), 1e-9)
}

func TestValidateAggregates(t *testing.T) {
	s := &Scene{
		ID: "broken",
		Params: []Param{
			{Name: "a", Signal: Const(1)},
			{Name: "a", Signal: Const(2)},
			{Name: "b"},
			{Name: "c", Signal: Spring{Config: spring.Config{Mass: 0, Stiffness: 1, FPS: 30}}},
		},
		Groups:   []NamedGroup{{Name: "g", Group: stagger.Group{Count: 2}}},
		Counters: []NamedCounter{{Name: "n", Counter: counter.Counter{To: 5, DurationSeconds: 1}}},
	}
	err := s.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidScene))
	assert.True(t, errors.Is(err, spring.ErrInvalidSpringConfig))
	assert.True(t, errors.Is(err, stagger.ErrInvalidGroup))
	assert.True(t, errors.Is(err, counter.ErrInvalidCounter))
	assert.Contains(t, err.Error(), `duplicate name "a"`)
	assert.Contains(t, err.Error(), `param "b"`)
}
