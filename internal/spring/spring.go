package spring

import (
	"errors"
	"fmt"
	"math"

	"github.com/charmbracelet/harmonica"
)

var ErrInvalidSpringConfig = errors.New("invalid spring config")

// SettleEpsilon is the distance from the target under which a spring is
// considered at rest. Convergence is asymptotic, never compare with 1.
const SettleEpsilon = 1e-3

// maxSettleSeconds bounds the settle search for very soft springs.
const maxSettleSeconds = 120

// Config describes a damped oscillator driven from 0 towards 1.
// DurationInFrames is advisory: it never changes the value, it only tells
// callers how long the entrance is expected to take.
type Config struct {
	Damping           float64 `yaml:"damping" json:"damping"`
	Stiffness         float64 `yaml:"stiffness" json:"stiffness"`
	Mass              float64 `yaml:"mass" json:"mass"`
	DurationInFrames  int     `yaml:"duration_in_frames,omitempty" json:"durationInFrames,omitempty"`
	FPS               float64 `yaml:"fps,omitempty" json:"fps,omitempty"`
	OvershootClamping bool    `yaml:"overshoot_clamping,omitempty" json:"overshootClamping,omitempty"`
}

// Default matches the usual authoring defaults (damping 10, stiffness 100, mass 1).
func Default(fps float64) Config {
	return Config{Damping: 10, Stiffness: 100, Mass: 1, FPS: fps}
}

func (c Config) Validate() error {
	switch {
	case c.Mass <= 0:
		return fmt.Errorf("%w: mass must be positive, got %g", ErrInvalidSpringConfig, c.Mass)
	case c.Stiffness <= 0:
		return fmt.Errorf("%w: stiffness must be positive, got %g", ErrInvalidSpringConfig, c.Stiffness)
	case c.Damping < 0:
		return fmt.Errorf("%w: damping must not be negative, got %g", ErrInvalidSpringConfig, c.Damping)
	case c.FPS <= 0:
		return fmt.Errorf("%w: fps must be positive, got %g", ErrInvalidSpringConfig, c.FPS)
	case c.DurationInFrames < 0:
		return fmt.Errorf("%w: duration must be positive, got %d", ErrInvalidSpringConfig, c.DurationInFrames)
	}
	return nil
}

// Evaluate returns the spring position after elapsedFrames. Negative input
// is clamped to the rest state at 0: entrances never run before their start.
// Each call advances a fresh spring from rest in one step of the full
// elapsed time, so any frame can be asked in any order.
func Evaluate(elapsedFrames float64, c Config) float64 {
	if elapsedFrames <= 0 {
		return 0
	}
	v, _ := step(elapsedFrames, c)
	if c.OvershootClamping && v > 1 {
		return 1
	}
	return v
}

// Velocity is the rate of change in units per second.
func Velocity(elapsedFrames float64, c Config) float64 {
	if elapsedFrames <= 0 {
		return 0
	}
	_, vel := step(elapsedFrames, c)
	return vel
}

func step(elapsedFrames float64, c Config) (pos, vel float64) {
	w0 := math.Sqrt(c.Stiffness / c.Mass)
	zeta := c.Damping / (2 * math.Sqrt(c.Stiffness*c.Mass))
	return harmonica.NewSpring(elapsedFrames/c.FPS, w0, zeta).Update(0, 0, 1)
}

// SettleFrame reports the first whole frame from which the spring stays
// within eps of its target. Undamped springs never settle.
func SettleFrame(c Config, eps float64) (int, bool) {
	if c.Damping == 0 {
		return 0, false
	}
	limit := int(c.FPS * maxSettleSeconds)
	last := -1
	for f := 0; f <= limit; f++ {
		if math.Abs(Evaluate(float64(f), c)-1) >= eps {
			last = f
		}
	}
	if last == limit {
		return 0, false
	}
	return last + 1, true
}

// Settled tells whether the entrance should be treated as finished.
// An explicit DurationInFrames wins over the physical settle point.
func Settled(elapsedFrames float64, c Config) bool {
	if c.DurationInFrames > 0 {
		return elapsedFrames >= float64(c.DurationInFrames)
	}
	f, ok := SettleFrame(c, SettleEpsilon)
	return ok && elapsedFrames >= float64(f)
}
