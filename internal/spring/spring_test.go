package spring

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func logoSpring() Config {
	return Config{Damping: 12, Stiffness: 80, Mass: 0.8, DurationInFrames: 40, FPS: 30}
}

func TestPreStartClamp(t *testing.T) {
	c := logoSpring()
	assert.Equal(t, Evaluate(0, c), Evaluate(-5, c))
	assert.Equal(t, 0.0, Evaluate(-100, c))
	assert.Equal(t, 0.0, Velocity(-1, c))
}

func TestConverges(t *testing.T) {
	configs := map[string]Config{
		"under":    logoSpring(),
		"critical": {Damping: 20, Stiffness: 100, Mass: 1, FPS: 30},
		"over":     {Damping: 40, Stiffness: 100, Mass: 1, FPS: 30},
	}

	for name, c := range configs {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, 1.0, Evaluate(3000, c), SettleEpsilon)
		})
	}
}

func TestUnderdampedOvershoots(t *testing.T) {
	c := Config{Damping: 10, Stiffness: 80, Mass: 0.8, FPS: 30}
	peak := 0.0
	for f := 0; f < 120; f++ {
		if v := Evaluate(float64(f), c); v > peak {
			peak = v
		}
	}
	assert.Greater(t, peak, 1.0)

	c.OvershootClamping = true
	for f := 0; f < 120; f++ {
		assert.LessOrEqual(t, Evaluate(float64(f), c), 1.0)
	}
}

func TestOverdampedIsMonotonic(t *testing.T) {
	c := Config{Damping: 40, Stiffness: 100, Mass: 1, FPS: 30}
	prev := 0.0
	for f := 1; f < 200; f++ {
		v := Evaluate(float64(f), c)
		assert.GreaterOrEqual(t, v, prev)
		assert.LessOrEqual(t, v, 1.0)
		prev = v
	}
}

func TestCriticalMatchesNeighbours(t *testing.T) {
	critical := Config{Damping: 20, Stiffness: 100, Mass: 1, FPS: 30}
	under := critical
	under.Damping = 19.999
	over := critical
	over.Damping = 20.001

	for _, f := range []float64{1, 5, 10, 30} {
		assert.InDelta(t, Evaluate(f, critical), Evaluate(f, under), 1e-3)
		assert.InDelta(t, Evaluate(f, critical), Evaluate(f, over), 1e-3)
	}
}

func TestVelocityMatchesDerivative(t *testing.T) {
	for _, c := range []Config{logoSpring(), {Damping: 20, Stiffness: 100, Mass: 1, FPS: 30}, {Damping: 40, Stiffness: 100, Mass: 1, FPS: 30}} {
		const h = 1e-4
		for _, f := range []float64{2, 8, 20} {
			numeric := (Evaluate(f+h, c) - Evaluate(f-h, c)) / (2 * h) * c.FPS
			assert.InDelta(t, numeric, Velocity(f, c), 1e-3)
		}
	}
}

func TestRepeatable(t *testing.T) {
	c := logoSpring()
	a := Evaluate(17, c)
	_ = Evaluate(90, c)
	_ = Evaluate(3, c)
	assert.Equal(t, a, Evaluate(17, c))
}

func TestSettle(t *testing.T) {
	c := logoSpring()
	f, ok := SettleFrame(c, SettleEpsilon)
	assert.True(t, ok)
	assert.Greater(t, f, 0)
	for g := f; g < f+300; g++ {
		assert.Less(t, abs(Evaluate(float64(g), c)-1), SettleEpsilon)
	}

	_, ok = SettleFrame(Config{Damping: 0, Stiffness: 100, Mass: 1, FPS: 30}, SettleEpsilon)
	assert.False(t, ok)
}

func TestSettledPrefersDuration(t *testing.T) {
	c := logoSpring()
	assert.False(t, Settled(39, c))
	assert.True(t, Settled(40, c))

	c.DurationInFrames = 0
	f, _ := SettleFrame(c, SettleEpsilon)
	assert.False(t, Settled(float64(f-1), c))
	assert.True(t, Settled(float64(f), c))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"valid", logoSpring(), true},
		{"default", Default(30), true},
		{"zero mass", Config{Damping: 10, Stiffness: 100, Mass: 0, FPS: 30}, false},
		{"negative stiffness", Config{Damping: 10, Stiffness: -1, Mass: 1, FPS: 30}, false},
		{"negative damping", Config{Damping: -1, Stiffness: 100, Mass: 1, FPS: 30}, false},
		{"no fps", Config{Damping: 10, Stiffness: 100, Mass: 1}, false},
		{"negative duration", Config{Damping: 10, Stiffness: 100, Mass: 1, FPS: 30, DurationInFrames: -3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, ErrInvalidSpringConfig))
			}
		})
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func TestMatchesClosedForm(t *testing.T) {
	// critical damping: x(t) = 1 - e^(-w0 t)(1 + w0 t), v(t) = w0^2 t e^(-w0 t)
	c := Config{Damping: 20, Stiffness: 100, Mass: 1, FPS: 30}
	w0 := 10.0
	for _, f := range []float64{1, 7, 15, 45, 90} {
		tt := f / c.FPS
		assert.InDelta(t, 1-math.Exp(-w0*tt)*(1+w0*tt), Evaluate(f, c), 1e-9, "frame %g", f)
		assert.InDelta(t, w0*w0*tt*math.Exp(-w0*tt), Velocity(f, c), 1e-9, "frame %g", f)
	}
}

func TestOrderIndependent(t *testing.T) {
	c := logoSpring()
	late := Evaluate(33, c)
	_ = Evaluate(2, c)
	_ = Evaluate(90, c)
	assert.Equal(t, late, Evaluate(33, c))
}
