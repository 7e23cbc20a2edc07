package particles

import (
	"math"

	"github.com/ivlev/promoreel/internal/interpolate"
)

// Field describes a family of decorative particles. Every per-index value
// is fixed arithmetic over the index, so there is no generator state.
type Field struct {
	Count int `yaml:"count"`

	XMul int `yaml:"x_mul"`
	XAdd int `yaml:"x_add"`
	YMul int `yaml:"y_mul"`
	YAdd int `yaml:"y_add"`

	SizeBase float64 `yaml:"size_base"`
	SizeMod  int     `yaml:"size_mod"`

	SpeedBase float64 `yaml:"speed_base"`
	SpeedStep float64 `yaml:"speed_step"`
	SpeedMod  int     `yaml:"speed_mod"`

	DelayStep  float64 `yaml:"delay_step"`
	FadeFrames float64 `yaml:"fade_frames"`

	OpacityBase float64 `yaml:"opacity_base"`
	OpacityStep float64 `yaml:"opacity_step"`
	OpacityMod  int     `yaml:"opacity_mod"`

	// Drift scales speed into percent of height per frame.
	Drift   float64  `yaml:"drift"`
	Palette []string `yaml:"palette"`
}

// Spec is the seed of a single particle.
type Spec struct {
	Index      int
	X0, Y0     float64
	Size       float64
	Speed      float64
	PhaseDelay float64
	Peak       float64
	Color      string
}

// State is a particle at one frame, in percent coordinates.
type State struct {
	Index   int     `json:"i"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Size    float64 `json:"size"`
	Opacity float64 `json:"opacity"`
	Color   string  `json:"color,omitempty"`
}

// ParamsForIndex derives the particle seed for index i.
func (f Field) ParamsForIndex(i int) Spec {
	s := Spec{
		Index:      i,
		X0:         float64(posMod(i*f.XMul+f.XAdd, 100)),
		Y0:         float64(posMod(i*f.YMul+f.YAdd, 100)),
		Size:       f.SizeBase + float64(safeMod(i, f.SizeMod)),
		Speed:      f.SpeedBase + float64(safeMod(i, f.SpeedMod))*f.SpeedStep,
		PhaseDelay: float64(i) * f.DelayStep,
		Peak:       f.OpacityBase + float64(safeMod(i, f.OpacityMod))*f.OpacityStep,
	}
	if len(f.Palette) > 0 {
		s.Color = f.Palette[i%len(f.Palette)]
	}
	return s
}

// PositionAtFrame places a particle. Vertical drift wraps in percent space so
// the motion loops without a seam; opacity fades in from the phase delay.
func (f Field) PositionAtFrame(s Spec, frame float64) State {
	y := s.Y0 - frame*s.Speed*f.Drift
	return State{
		Index:   s.Index,
		X:       s.X0,
		Y:       Wrap100(y),
		Size:    s.Size,
		Opacity: f.opacity(s, frame),
		Color:   s.Color,
	}
}

// Snapshot evaluates the whole field at frame.
func (f Field) Snapshot(frame float64) []State {
	out := make([]State, f.Count)
	for i := 0; i < f.Count; i++ {
		out[i] = f.PositionAtFrame(f.ParamsForIndex(i), frame)
	}
	return out
}

func (f Field) opacity(s Spec, frame float64) float64 {
	fade := f.FadeFrames
	if fade <= 0 {
		fade = 1
	}
	d := interpolate.MustNew(
		[]float64{s.PhaseDelay, s.PhaseDelay + fade},
		[]float64{0, s.Peak},
		interpolate.ClampBoth(),
	)
	return d.At(frame)
}

// Wrap100 is a positive modulo into [0,100).
func Wrap100(v float64) float64 {
	return math.Mod(math.Mod(v, 100)+100, 100)
}

func posMod(a, m int) int {
	return ((a % m) + m) % m
}

func safeMod(a, m int) int {
	if m <= 0 {
		return 0
	}
	return a % m
}
