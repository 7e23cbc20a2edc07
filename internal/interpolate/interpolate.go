package interpolate

import (
	"errors"
	"fmt"

	"github.com/ivlev/promoreel/internal/easing"
)

var ErrInvalidDomain = errors.New("invalid interpolation domain")

// Extrapolation decides what happens outside the input domain.
type Extrapolation int

const (
	Clamp Extrapolation = iota
	Extend
)

func (e Extrapolation) String() string {
	if e == Extend {
		return "extend"
	}
	return "clamp"
}

// ParseExtrapolation accepts "clamp", "extend" and "" (clamp).
func ParseExtrapolation(s string) (Extrapolation, error) {
	switch s {
	case "", "clamp":
		return Clamp, nil
	case "extend":
		return Extend, nil
	}
	return Clamp, fmt.Errorf("unknown extrapolation %q", s)
}

// Descriptor is an immutable frame -> value mapping. Domain and Range are
// breakpoint lists of equal length; each segment is interpolated on its own.
type Descriptor struct {
	domain []float64
	rng    []float64
	easing easing.Easing
	left   Extrapolation
	right  Extrapolation
}

type Option func(*Descriptor)

func WithEasing(e easing.Easing) Option { return func(d *Descriptor) { d.easing = e } }

func WithLeft(x Extrapolation) Option { return func(d *Descriptor) { d.left = x } }

func WithRight(x Extrapolation) Option { return func(d *Descriptor) { d.right = x } }

// ClampBoth clamps on both sides.
func ClampBoth() Option {
	return func(d *Descriptor) {
		d.left = Clamp
		d.right = Clamp
	}
}

// ExtendBoth extrapolates on both sides.
func ExtendBoth() Option {
	return func(d *Descriptor) {
		d.left = Extend
		d.right = Extend
	}
}

// New validates and builds a descriptor. Defaults: linear easing, clamp on
// both sides.
func New(domain, rng []float64, opts ...Option) (Descriptor, error) {
	if err := validate(domain, rng); err != nil {
		return Descriptor{}, err
	}
	d := Descriptor{
		domain: append([]float64(nil), domain...),
		rng:    append([]float64(nil), rng...),
		easing: easing.Linear,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d, nil
}

// MustNew panics on invalid input. Use only for static tables.
func MustNew(domain, rng []float64, opts ...Option) Descriptor {
	d, err := New(domain, rng, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// Evaluate is the one-shot form of New(...).At(frame).
func Evaluate(frame float64, domain, rng []float64, e easing.Easing, left, right Extrapolation) (float64, error) {
	if err := validate(domain, rng); err != nil {
		return 0, err
	}
	return evaluate(frame, domain, rng, e, left, right), nil
}

// At evaluates the descriptor. It is total once New has succeeded.
func (d Descriptor) At(frame float64) float64 {
	if len(d.domain) < 2 {
		return 0
	}
	return evaluate(frame, d.domain, d.rng, d.easing, d.left, d.right)
}

// AtFrame is At for integer frames.
func (d Descriptor) AtFrame(frame int) float64 {
	return d.At(float64(frame))
}

// Shift returns a copy whose domain is translated by delta frames.
func (d Descriptor) Shift(delta float64) Descriptor {
	out := d
	out.domain = make([]float64, len(d.domain))
	for i, v := range d.domain {
		out.domain[i] = v + delta
	}
	return out
}

func (d Descriptor) Domain() []float64 { return append([]float64(nil), d.domain...) }

func (d Descriptor) Range() []float64 { return append([]float64(nil), d.rng...) }

func (d Descriptor) Easing() easing.Easing { return d.easing }

// Ramp is unbounded linear motion: base + frame*rate.
func Ramp(base, rate float64) Descriptor {
	return Descriptor{
		domain: []float64{0, 1},
		rng:    []float64{base, base + rate},
		easing: easing.Linear,
		left:   Extend,
		right:  Extend,
	}
}

func validate(domain, rng []float64) error {
	if len(domain) < 2 {
		return fmt.Errorf("%w: need at least 2 breakpoints, got %d", ErrInvalidDomain, len(domain))
	}
	if len(domain) != len(rng) {
		return fmt.Errorf("%w: domain has %d breakpoints, range has %d", ErrInvalidDomain, len(domain), len(rng))
	}
	for i := 1; i < len(domain); i++ {
		if domain[i] < domain[i-1] {
			return fmt.Errorf("%w: domain must be non-decreasing, got %v", ErrInvalidDomain, domain)
		}
	}
	// Outer segments carry the extrapolation slope and must have width.
	if domain[0] == domain[1] || domain[len(domain)-2] == domain[len(domain)-1] {
		return fmt.Errorf("%w: degenerate outer segment in %v", ErrInvalidDomain, domain)
	}
	return nil
}

func evaluate(frame float64, domain, rng []float64, e easing.Easing, left, right Extrapolation) float64 {
	seg := 0
	for i := 1; i < len(domain)-1; i++ {
		if frame >= domain[i] {
			seg = i
		} else {
			break
		}
	}
	return segment(frame, domain[seg], domain[seg+1], rng[seg], rng[seg+1], e, left, right)
}

func segment(frame, d0, d1, r0, r1 float64, e easing.Easing, left, right Extrapolation) float64 {
	t := (frame - d0) / (d1 - d0)
	if t < 0 && left == Clamp {
		t = 0
	}
	if t > 1 && right == Clamp {
		t = 1
	}
	return lerp(r0, r1, e.Apply(t))
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
