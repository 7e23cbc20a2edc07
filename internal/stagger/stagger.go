package stagger

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/ivlev/promoreel/internal/easing"
	"github.com/ivlev/promoreel/internal/interpolate"
	"github.com/ivlev/promoreel/internal/spring"
)

var ErrInvalidGroup = errors.New("invalid stagger group")

// Motion is the per-element animation. Exactly one of Tween or Spring is used:
// a non-nil Spring wins.
type Motion struct {
	DurationFrames float64
	Easing         easing.Easing
	Spring         *spring.Config
}

// Prop is an animated property going From -> To as progress goes 0 -> 1.
type Prop struct {
	Name string  `yaml:"name" json:"name"`
	From float64 `yaml:"from" json:"from"`
	To   float64 `yaml:"to" json:"to"`
}

// Group schedules N elements in authoring order:
// delay(i) = BaseDelay + i*Step, all in frames relative to Start.
type Group struct {
	Count     int
	Start     float64
	BaseDelay float64
	Step      float64
	Motion    Motion
	Props     []Prop
}

// Element is one unit of the group at a queried frame.
type Element struct {
	Index    int                `json:"index"`
	Delay    float64            `json:"delay"`
	Progress float64            `json:"progress"`
	Values   map[string]float64 `json:"values,omitempty"`
}

// FromSeconds builds a group from timeline-style timings: the stagger and
// per-element duration in seconds, the start in frames.
func FromSeconds(count int, startFrame, staggerSec, durationSec, fps float64, e easing.Easing, props ...Prop) Group {
	return Group{
		Count:  count,
		Start:  startFrame,
		Step:   staggerSec * fps,
		Motion: Motion{DurationFrames: durationSec * fps, Easing: e},
		Props:  props,
	}
}

func (g Group) Validate() error {
	if g.Count < 0 {
		return fmt.Errorf("%w: negative count %d", ErrInvalidGroup, g.Count)
	}
	if g.Step < 0 || g.BaseDelay < 0 {
		return fmt.Errorf("%w: delays must not be negative", ErrInvalidGroup)
	}
	if g.Motion.Spring != nil {
		if err := g.Motion.Spring.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidGroup, err)
		}
		return nil
	}
	if g.Motion.DurationFrames <= 0 {
		return fmt.Errorf("%w: element duration must be positive, got %g", ErrInvalidGroup, g.Motion.DurationFrames)
	}
	return nil
}

// Delay is the offset of element i from the group start.
func (g Group) Delay(i int) float64 {
	return g.BaseDelay + float64(i)*g.Step
}

// ElementDuration is the time one element needs to finish its entrance.
func (g Group) ElementDuration() float64 {
	if g.Motion.Spring != nil {
		if g.Motion.Spring.DurationInFrames > 0 {
			return float64(g.Motion.Spring.DurationInFrames)
		}
		if f, ok := spring.SettleFrame(*g.Motion.Spring, spring.SettleEpsilon); ok {
			return float64(f)
		}
		return math.Inf(1)
	}
	return g.Motion.DurationFrames
}

// SettleFrame is the frame, in the same coordinates as At, by which every
// element has finished: Start + Delay(N-1) + ElementDuration.
func (g Group) SettleFrame() float64 {
	if g.Count == 0 {
		return g.Start
	}
	return g.Start + g.Delay(g.Count-1) + g.ElementDuration()
}

// ProgressAt is the local progress of element i.
func (g Group) ProgressAt(i int, frame float64) float64 {
	local := frame - g.Start - g.Delay(i)
	if g.Motion.Spring != nil {
		return spring.Evaluate(local, *g.Motion.Spring)
	}
	d, err := interpolate.New(
		[]float64{0, g.Motion.DurationFrames},
		[]float64{0, 1},
		interpolate.WithEasing(g.Motion.Easing),
		interpolate.ClampBoth(),
	)
	if err != nil {
		// zero-length tween: a step at the element's start
		if local >= 0 {
			return 1
		}
		return 0
	}
	return d.At(local)
}

// At evaluates every element at frame.
func (g Group) At(frame float64) []Element {
	out := make([]Element, g.Count)
	for i := range out {
		p := g.ProgressAt(i, frame)
		el := Element{Index: i, Delay: g.Delay(i), Progress: p}
		if len(g.Props) > 0 {
			el.Values = make(map[string]float64, len(g.Props))
			for _, prop := range g.Props {
				el.Values[prop.Name] = prop.From + p*(prop.To-prop.From)
			}
		}
		out[i] = el
	}
	return out
}

// Split selects how literal text is cut into animation units.
type Split string

const (
	Words Split = "words"
	Chars Split = "chars"
)

// Units counts the animatable units of text. Only the count matters here;
// the text layout service does the actual splitting and glyph placement.
func Units(text string, mode Split) int {
	if mode == Chars {
		n := 0
		for _, r := range text {
			if !unicode.IsSpace(r) {
				n++
			}
		}
		return n
	}
	return len(strings.Fields(text))
}
