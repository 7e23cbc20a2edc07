package composition

import (
	"github.com/ivlev/promoreel/internal/counter"
	"github.com/ivlev/promoreel/internal/particles"
	"github.com/ivlev/promoreel/internal/spring"
	"github.com/ivlev/promoreel/internal/stagger"
)

// Document is the YAML form of a composition. Frames are global for the
// timeline and audio, scene-local for everything under scenes.
type Document struct {
	Version        string     `yaml:"version"`
	FPS            float64    `yaml:"fps"`
	Width          int        `yaml:"width"`
	Height         int        `yaml:"height"`
	MaxAudioLayers int        `yaml:"max_audio_layers,omitempty"`
	Scenes         []SceneDoc `yaml:"scenes"`
	Timeline       []EntryDoc `yaml:"timeline"`
	Audio          []AudioDoc `yaml:"audio,omitempty"`
}

type SceneDoc struct {
	ID        string           `yaml:"id"`
	Params    []ParamDoc       `yaml:"params,omitempty"`
	Groups    []GroupDoc       `yaml:"groups,omitempty"`
	Counters  []CounterDoc     `yaml:"counters,omitempty"`
	Particles *particles.Field `yaml:"particles,omitempty"`
}

// EntryDoc is one timeline slot: either scene or transition is set.
type EntryDoc struct {
	Scene      string `yaml:"scene,omitempty"`
	Transition string `yaml:"transition,omitempty"`
	Duration   int    `yaml:"duration"`
}

type ParamDoc struct {
	Name      string `yaml:"name"`
	SignalDoc `yaml:",inline"`
}

// SignalDoc holds exactly one signal kind. Scale and Offset wrap the result
// as Offset + Scale*value; Delay shifts it later in time.
type SignalDoc struct {
	Const       *float64              `yaml:"const,omitempty"`
	Interpolate *CurveDoc             `yaml:"interpolate,omitempty"`
	Spring      *SpringDoc            `yaml:"spring,omitempty"`
	Oscillate   *particles.Oscillator `yaml:"oscillate,omitempty"`
	Ramp        *RampDoc              `yaml:"ramp,omitempty"`
	Sum         []SignalDoc           `yaml:"sum,omitempty"`

	Scale  *float64 `yaml:"scale,omitempty"`
	Offset float64  `yaml:"offset,omitempty"`
	Delay  float64  `yaml:"delay,omitempty"`
}

type CurveDoc struct {
	Domain []float64 `yaml:"domain,flow"`
	Range  []float64 `yaml:"range,flow"`
	Easing string    `yaml:"easing,omitempty"`
	Left   string    `yaml:"left,omitempty"`
	Right  string    `yaml:"right,omitempty"`
}

type SpringDoc struct {
	spring.Config `yaml:",inline"`
	Start         float64   `yaml:"start,omitempty"`
	Map           []float64 `yaml:"map,omitempty,flow"`
}

type RampDoc struct {
	Base float64 `yaml:"base"`
	Rate float64 `yaml:"rate"`
}

// GroupDoc is a staggered reveal. Step and DurationFrames are in frames;
// when zero, Stagger and Duration are read as seconds.
type GroupDoc struct {
	Name           string         `yaml:"name"`
	Text           string         `yaml:"text,omitempty"`
	Split          string         `yaml:"split,omitempty"`
	Count          int            `yaml:"count,omitempty"`
	Start          float64        `yaml:"start,omitempty"`
	BaseDelay      float64        `yaml:"base_delay,omitempty"`
	Step           float64        `yaml:"step,omitempty"`
	Stagger        float64        `yaml:"stagger,omitempty"`
	DurationFrames float64        `yaml:"duration_frames,omitempty"`
	Duration       float64        `yaml:"duration,omitempty"`
	Easing         string         `yaml:"easing,omitempty"`
	Spring         *spring.Config `yaml:"spring,omitempty"`
	Props          []stagger.Prop `yaml:"props,omitempty"`
}

// CounterDoc times are in seconds.
type CounterDoc struct {
	Name     string         `yaml:"name"`
	From     float64        `yaml:"from,omitempty"`
	To       float64        `yaml:"to"`
	Duration float64        `yaml:"duration"`
	Delay    float64        `yaml:"delay,omitempty"`
	Easing   string         `yaml:"easing,omitempty"`
	Format   counter.Format `yaml:"format,omitempty"`
}

// AudioDoc mounts one source on [Start, End). The envelope is Envelope when
// set, else a fade in/out to Level, else a constant Gain (default 1).
type AudioDoc struct {
	ID           string    `yaml:"id"`
	Source       string    `yaml:"source"`
	Start        int       `yaml:"start"`
	End          int       `yaml:"end"`
	Loop         bool      `yaml:"loop,omitempty"`
	SourceFrames int       `yaml:"source_frames,omitempty"`
	Gain         *float64  `yaml:"gain,omitempty"`
	FadeIn       int       `yaml:"fade_in,omitempty"`
	FadeOut      int       `yaml:"fade_out,omitempty"`
	Level        float64   `yaml:"level,omitempty"`
	Envelope     *CurveDoc `yaml:"envelope,omitempty"`
}
