package composition

import (
	"github.com/ivlev/promoreel/internal/audio"
	"github.com/ivlev/promoreel/internal/effects"
	"github.com/ivlev/promoreel/internal/scene"
	"github.com/ivlev/promoreel/internal/timeline"
)

// Composition is a validated document. It is immutable and every method is
// safe to call from many goroutines at once.
type Composition struct {
	FPS            float64
	Width          int
	Height         int
	MaxAudioLayers int
	Timeline       *timeline.Timeline
	Scenes         map[string]*scene.Scene
	Mixer          *audio.Mixer

	presentations map[string]effects.Presentation
}

// SceneFrame is one visible scene with its parameters and how it is drawn
// in the current transition.
type SceneFrame struct {
	timeline.ActiveScene
	Present effects.Params `json:"present"`
	Bag     scene.Bag      `json:"bag"`
}

// Frame is the complete description of one output frame.
type Frame struct {
	Frame      int                       `json:"frame"`
	Clamped    bool                      `json:"clamped,omitempty"`
	Scenes     []SceneFrame              `json:"scenes"`
	Transition *timeline.TransitionState `json:"transition,omitempty"`
	Gains      map[string]float64        `json:"gains,omitempty"`
}

// Frame evaluates a global frame. Out-of-range frames show the nearest end
// scene; audio gains are taken at the raw frame and are 0 outside any layer.
func (c *Composition) Frame(global int) Frame {
	set := c.Timeline.Resolve(global)
	out := Frame{
		Frame:      set.Frame,
		Clamped:    set.Clamped,
		Scenes:     make([]SceneFrame, 0, len(set.Scenes)),
		Transition: set.Transition,
		Gains:      c.Mixer.GainsAtFrame(global),
	}

	for _, as := range set.Scenes {
		sf := SceneFrame{
			ActiveScene: as,
			Present:     effects.Params{Opacity: 1},
			Bag:         c.Scenes[as.Scene].Evaluate(as.LocalFrame),
		}
		if set.Transition != nil && as.Role != timeline.Solo {
			p := c.presentation(set.Transition.Presentation)
			sf.Present = p.Params(set.Transition.Progress, as.Role == timeline.Incoming)
		}
		out.Scenes = append(out.Scenes, sf)
	}
	return out
}

func (c *Composition) presentation(name string) effects.Presentation {
	if p, ok := c.presentations[name]; ok {
		return p
	}
	return effects.Fade{}
}

// Total is the length of the composition in frames.
func (c *Composition) Total() int { return c.Timeline.Total() }

// Presentation returns the presentation used by transition i.
func (c *Composition) Presentation(i int) effects.Presentation {
	return c.presentation(c.Timeline.Transition(i).Presentation)
}
