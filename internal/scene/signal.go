package scene

import (
	"github.com/ivlev/promoreel/internal/spring"
)

// Signal is a scalar function of the scene-local frame. interpolate.Descriptor
// and particles.Oscillator satisfy it directly.
type Signal interface {
	At(frame float64) float64
}

type validator interface {
	Validate() error
}

// Const is a fixed value.
type Const float64

func (c Const) At(float64) float64 { return float64(c) }

// Spring drives a spring entrance that starts at Start, mapped onto
// [From, To]. A zero mapping is the raw 0 -> 1 progress.
type Spring struct {
	Config   spring.Config
	Start    float64
	From, To float64
}

func (s Spring) At(frame float64) float64 {
	p := spring.Evaluate(frame-s.Start, s.Config)
	if s.From == 0 && s.To == 0 {
		return p
	}
	return s.From + (s.To-s.From)*p
}

func (s Spring) Validate() error { return s.Config.Validate() }

// Affine is Offset + Scale*Signal.
type Affine struct {
	Signal Signal
	Scale  float64
	Offset float64
}

func (a Affine) At(frame float64) float64 {
	return a.Offset + a.Scale*a.Signal.At(frame)
}

func (a Affine) Validate() error { return validateSignal(a.Signal) }

// Sum adds several signals, e.g. an entrance offset plus a floating bob.
type Sum []Signal

func (s Sum) At(frame float64) float64 {
	v := 0.0
	for _, sig := range s {
		v += sig.At(frame)
	}
	return v
}

func (s Sum) Validate() error {
	for _, sig := range s {
		if err := validateSignal(sig); err != nil {
			return err
		}
	}
	return nil
}

// Shifted evaluates Signal at frame-Delay, used for per-element copies of
// one curve (card i starts i*step frames later).
type Shifted struct {
	Signal Signal
	Delay  float64
}

func (s Shifted) At(frame float64) float64 { return s.Signal.At(frame - s.Delay) }

func (s Shifted) Validate() error { return validateSignal(s.Signal) }

func validateSignal(s Signal) error {
	if s == nil {
		return errNilSignal
	}
	if v, ok := s.(validator); ok {
		return v.Validate()
	}
	return nil
}
