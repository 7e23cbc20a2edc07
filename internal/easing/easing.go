package easing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrUnknownEasing = errors.New("unknown easing")

// Easing maps normalized progress t to eased progress.
// Unbounded easings are defined for any t and may be used to extrapolate;
// bounded ones are only meaningful on [0,1] and clamp their input.
type Easing struct {
	name    string
	fn      func(t float64) float64
	bounded bool
}

// New wraps an arbitrary curve. The curve must be pure.
func New(name string, fn func(t float64) float64) Easing {
	return Easing{name: name, fn: fn}
}

// NewBounded wraps a curve that is only defined on [0,1].
func NewBounded(name string, fn func(t float64) float64) Easing {
	return Easing{name: name, fn: fn, bounded: true}
}

func (e Easing) Name() string {
	if e.name == "" {
		return "linear"
	}
	return e.name
}

func (e Easing) Bounded() bool { return e.bounded }

// Apply evaluates the curve. A zero Easing behaves as Linear.
func (e Easing) Apply(t float64) float64 {
	if e.bounded {
		t = clamp01(t)
	}
	if e.fn == nil {
		return t
	}
	return e.fn(t)
}

var (
	Linear     = New("linear", func(t float64) float64 { return t })
	QuadIn     = PowerIn(2)
	QuadOut    = PowerOut(2)
	CubicIn    = PowerIn(3)
	CubicOut   = PowerOut(3)
	CubicInOut = New("cubic-in-out", easeInOutCubic)
	QuartOut   = PowerOut(4)
	SineInOut  = New("sine.inOut", func(t float64) float64 { return -(math.Cos(math.Pi*t) - 1) / 2 })
)

// PowerIn is t^n.
func PowerIn(n int) Easing {
	return New(fmt.Sprintf("pow%d.in", n), func(t float64) float64 { return pow(t, n) })
}

// PowerOut is 1-(1-t)^n.
func PowerOut(n int) Easing {
	return New(fmt.Sprintf("pow%d.out", n), func(t float64) float64 { return 1 - pow(1-t, n) })
}

// PowerInOut mirrors PowerIn around t=0.5.
func PowerInOut(n int) Easing {
	return New(fmt.Sprintf("pow%d.inOut", n), func(t float64) float64 {
		if t < 0.5 {
			return pow(2, n-1) * pow(t, n)
		}
		return 1 - pow(-2*t+2, n)/2
	})
}

// BackOut overshoots past 1 before settling; s controls the overshoot.
func BackOut(s float64) Easing {
	return New(fmt.Sprintf("back.out(%g)", s), func(t float64) float64 {
		u := t - 1
		return 1 + (s+1)*u*u*u + s*u*u
	})
}

// Bezier is a CSS-style cubic-bezier timing curve anchored at (0,0) and (1,1).
func Bezier(x1, y1, x2, y2 float64) Easing {
	name := fmt.Sprintf("bezier(%g,%g,%g,%g)", x1, y1, x2, y2)
	return NewBounded(name, func(t float64) float64 {
		if t <= 0 || t >= 1 {
			return t
		}
		s := solveBezierX(t, x1, x2)
		return bezierAt(s, y1, y2)
	})
}

// Parse resolves an easing by name. Names follow the CSS/GSAP vocabulary
// used by authoring tools: "linear", "smooth", "cubic-out", "power2.out",
// "back.out(1.7)", "bezier(0.25,0.1,0.25,1)".
func Parse(name string) (Easing, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "", "linear", "none":
		return Linear, nil
	case "smooth", "cubic-in-out", "ease-in-out":
		return CubicInOut, nil
	case "cubic-in", "ease-in":
		return CubicIn, nil
	case "cubic-out", "ease-out":
		return CubicOut, nil
	case "quad-in":
		return QuadIn, nil
	case "quad-out":
		return QuadOut, nil
	case "quart-out":
		return QuartOut, nil
	case "sine.inout", "sine-in-out":
		return SineInOut, nil
	case "back.out", "back-out":
		return BackOut(1.70158), nil
	}

	if strings.HasPrefix(n, "back.out(") && strings.HasSuffix(n, ")") {
		args, err := parseArgs(n[len("back.out("):len(n)-1], 1)
		if err != nil {
			return Easing{}, fmt.Errorf("%w: %q: %v", ErrUnknownEasing, name, err)
		}
		return BackOut(args[0]), nil
	}

	if strings.HasPrefix(n, "bezier(") && strings.HasSuffix(n, ")") {
		args, err := parseArgs(n[len("bezier("):len(n)-1], 4)
		if err != nil {
			return Easing{}, fmt.Errorf("%w: %q: %v", ErrUnknownEasing, name, err)
		}
		return Bezier(args[0], args[1], args[2], args[3]), nil
	}

	// powerN.{in,out,inout}: GSAP power1 is quadratic, power2 cubic and so on
	if strings.HasPrefix(n, "power") {
		base, kind, ok := strings.Cut(n[len("power"):], ".")
		level, err := strconv.Atoi(base)
		if ok && err == nil && level >= 1 && level <= 4 {
			switch kind {
			case "in":
				return PowerIn(level + 1), nil
			case "out":
				return PowerOut(level + 1), nil
			case "inout":
				return PowerInOut(level + 1), nil
			}
		}
	}

	return Easing{}, fmt.Errorf("%w: %q", ErrUnknownEasing, name)
}

// MustParse is Parse for static tables.
func MustParse(name string) Easing {
	e, err := Parse(name)
	if err != nil {
		panic(err)
	}
	return e
}

func parseArgs(s string, want int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != want {
		return nil, fmt.Errorf("want %d arguments, got %d", want, len(parts))
	}
	out := make([]float64, want)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// easeInOutCubic applies smooth easing function
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - pow(-2*t+2, 3)/2
}

// pow calculates x^n
func pow(x float64, n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= x
	}
	return result
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

func bezierAt(s, p1, p2 float64) float64 {
	u := 1 - s
	return 3*u*u*s*p1 + 3*u*s*s*p2 + s*s*s
}

func bezierSlope(s, p1, p2 float64) float64 {
	u := 1 - s
	return 3*u*u*p1 + 6*u*s*(p2-p1) + 3*s*s*(1-p2)
}

// solveBezierX finds the curve parameter for x. Fixed iteration counts keep
// the result identical on every call.
func solveBezierX(x, x1, x2 float64) float64 {
	s := x
	for i := 0; i < 8; i++ {
		d := bezierAt(s, x1, x2) - x
		if math.Abs(d) < 1e-7 {
			return s
		}
		slope := bezierSlope(s, x1, x2)
		if math.Abs(slope) < 1e-6 {
			break
		}
		s -= d / slope
	}

	lo, hi := 0.0, 1.0
	s = x
	for i := 0; i < 40; i++ {
		v := bezierAt(s, x1, x2)
		if math.Abs(v-x) < 1e-7 {
			return s
		}
		if v < x {
			lo = s
		} else {
			hi = s
		}
		s = (lo + hi) / 2
	}
	return s
}
