package audio

import (
	"math"

	"github.com/ivlev/promoreel/internal/interpolate"
)

// Envelope is a gain curve keyed to the global frame.
type Envelope interface {
	GainAt(frame int) float64
}

// Constant is a fixed gain.
type Constant float64

func (c Constant) GainAt(int) float64 { return float64(c) }

// Curve evaluates an interpolation descriptor at the global frame.
type Curve struct {
	interpolate.Descriptor
}

func (c Curve) GainAt(frame int) float64 { return c.AtFrame(frame) }

// Min is the pointwise minimum of several envelopes, e.g. a fade-in
// combined with a fade-out.
type Min []Envelope

func (m Min) GainAt(frame int) float64 {
	if len(m) == 0 {
		return 0
	}
	g := math.Inf(1)
	for _, e := range m {
		g = math.Min(g, e.GainAt(frame))
	}
	return g
}

// FadeInOut builds the usual music bed: rise from 0 to level over fadeIn
// frames from start, fall back to 0 over the last fadeOut frames before end.
// A zero fade leaves that side at level.
func FadeInOut(start, end, fadeIn, fadeOut int, level float64) (Envelope, error) {
	var env Min
	if fadeIn > 0 {
		in, err := interpolate.New(
			[]float64{float64(start), float64(start + fadeIn)},
			[]float64{0, level},
			interpolate.ClampBoth(),
		)
		if err != nil {
			return nil, err
		}
		env = append(env, Curve{in})
	}
	if fadeOut > 0 {
		out, err := interpolate.New(
			[]float64{float64(end - fadeOut), float64(end)},
			[]float64{level, 0},
			interpolate.ClampBoth(),
		)
		if err != nil {
			return nil, err
		}
		env = append(env, Curve{out})
	}
	if len(env) == 0 {
		return Constant(level), nil
	}
	return env, nil
}
