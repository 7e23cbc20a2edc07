package composition

import (
	"errors"
	"fmt"

	"github.com/ivlev/promoreel/internal/audio"
	"github.com/ivlev/promoreel/internal/counter"
	"github.com/ivlev/promoreel/internal/easing"
	"github.com/ivlev/promoreel/internal/effects"
	"github.com/ivlev/promoreel/internal/interpolate"
	"github.com/ivlev/promoreel/internal/scene"
	"github.com/ivlev/promoreel/internal/stagger"
	"github.com/ivlev/promoreel/internal/timeline"
)

var ErrInvalidComposition = errors.New("invalid composition")

// Build validates the document and turns it into an evaluable composition.
// All problems found are reported together; nothing is evaluated unless the
// whole document is valid.
func (d *Document) Build() (*Composition, error) {
	var errs []error
	if d.FPS <= 0 {
		errs = append(errs, fmt.Errorf("%w: fps must be positive, got %g", ErrInvalidComposition, d.FPS))
	}
	if d.Width <= 0 || d.Height <= 0 {
		errs = append(errs, fmt.Errorf("%w: invalid size %dx%d", ErrInvalidComposition, d.Width, d.Height))
	}
	if len(errs) > 0 {
		// every timing below depends on fps
		return nil, errors.Join(errs...)
	}

	scenes := make(map[string]*scene.Scene, len(d.Scenes))
	for i, sd := range d.Scenes {
		s, err := d.buildScene(sd)
		if err != nil {
			errs = append(errs, fmt.Errorf("scene %d: %w", i, err))
			continue
		}
		if _, dup := scenes[s.ID]; dup {
			errs = append(errs, fmt.Errorf("%w: duplicate scene id %q", ErrInvalidComposition, s.ID))
			continue
		}
		scenes[s.ID] = s
	}

	tl, presentations, err := d.buildTimeline(scenes)
	if err != nil {
		errs = append(errs, err)
	}

	mixer, err := d.buildMixer()
	if err != nil {
		errs = append(errs, err)
	}

	if tl != nil && mixer != nil {
		if err := mixer.CheckConcurrency(tl.Total(), d.MaxAudioLayers); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Composition{
		FPS:            d.FPS,
		Width:          d.Width,
		Height:         d.Height,
		MaxAudioLayers: d.MaxAudioLayers,
		Timeline:       tl,
		Scenes:         scenes,
		Mixer:          mixer,
		presentations:  presentations,
	}, nil
}

func (d *Document) buildScene(sd SceneDoc) (*scene.Scene, error) {
	s := &scene.Scene{ID: sd.ID, Particles: sd.Particles}
	var errs []error

	for _, pd := range sd.Params {
		sig, err := buildSignal(pd.SignalDoc, d.FPS)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: param %q: %w", ErrInvalidComposition, sd.ID, pd.Name, err))
			continue
		}
		s.Params = append(s.Params, scene.Param{Name: pd.Name, Signal: sig})
	}

	for _, gd := range sd.Groups {
		g, err := buildGroup(gd, d.FPS)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: group %q: %w", ErrInvalidComposition, sd.ID, gd.Name, err))
			continue
		}
		s.Groups = append(s.Groups, g)
	}

	for _, cd := range sd.Counters {
		e, err := easing.Parse(cd.Easing)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: counter %q: %w", ErrInvalidComposition, sd.ID, cd.Name, err))
			continue
		}
		s.Counters = append(s.Counters, scene.NamedCounter{
			Name: cd.Name,
			Counter: counter.Counter{
				From:            cd.From,
				To:              cd.To,
				DurationSeconds: cd.Duration,
				DelaySeconds:    cd.Delay,
				FPS:             d.FPS,
				Easing:          e,
				Format:          cd.Format,
			},
		})
	}

	if err := s.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return s, nil
}

func buildSignal(sd SignalDoc, fps float64) (scene.Signal, error) {
	var sig scene.Signal
	kinds := 0
	if sd.Const != nil {
		kinds++
		sig = scene.Const(*sd.Const)
	}
	if sd.Interpolate != nil {
		kinds++
		c, err := buildCurve(*sd.Interpolate)
		if err != nil {
			return nil, err
		}
		sig = c
	}
	if sd.Spring != nil {
		kinds++
		cfg := sd.Spring.Config
		if cfg.FPS == 0 {
			cfg.FPS = fps
		}
		sp := scene.Spring{Config: cfg, Start: sd.Spring.Start}
		switch len(sd.Spring.Map) {
		case 0:
		case 2:
			sp.From, sp.To = sd.Spring.Map[0], sd.Spring.Map[1]
		default:
			return nil, fmt.Errorf("spring map needs [from, to], got %v", sd.Spring.Map)
		}
		sig = sp
	}
	if sd.Oscillate != nil {
		kinds++
		sig = *sd.Oscillate
	}
	if sd.Ramp != nil {
		kinds++
		sig = interpolate.Ramp(sd.Ramp.Base, sd.Ramp.Rate)
	}
	if len(sd.Sum) > 0 {
		kinds++
		sum := make(scene.Sum, 0, len(sd.Sum))
		for i, term := range sd.Sum {
			s, err := buildSignal(term, fps)
			if err != nil {
				return nil, fmt.Errorf("sum term %d: %w", i, err)
			}
			sum = append(sum, s)
		}
		sig = sum
	}

	if kinds != 1 {
		return nil, fmt.Errorf("want exactly one of const, interpolate, spring, oscillate, ramp or sum, got %d", kinds)
	}

	if sd.Scale != nil || sd.Offset != 0 {
		scale := 1.0
		if sd.Scale != nil {
			scale = *sd.Scale
		}
		sig = scene.Affine{Signal: sig, Scale: scale, Offset: sd.Offset}
	}
	if sd.Delay != 0 {
		sig = scene.Shifted{Signal: sig, Delay: sd.Delay}
	}
	return sig, nil
}

func buildCurve(cd CurveDoc) (interpolate.Descriptor, error) {
	e, err := easing.Parse(cd.Easing)
	if err != nil {
		return interpolate.Descriptor{}, err
	}
	left, err := interpolate.ParseExtrapolation(cd.Left)
	if err != nil {
		return interpolate.Descriptor{}, err
	}
	right, err := interpolate.ParseExtrapolation(cd.Right)
	if err != nil {
		return interpolate.Descriptor{}, err
	}
	return interpolate.New(cd.Domain, cd.Range,
		interpolate.WithEasing(e),
		interpolate.WithLeft(left),
		interpolate.WithRight(right),
	)
}

func buildGroup(gd GroupDoc, fps float64) (scene.NamedGroup, error) {
	e, err := easing.Parse(gd.Easing)
	if err != nil {
		return scene.NamedGroup{}, err
	}
	split := stagger.Split(gd.Split)
	switch split {
	case "":
		split = stagger.Words
	case stagger.Words, stagger.Chars:
	default:
		return scene.NamedGroup{}, fmt.Errorf("unknown split %q", gd.Split)
	}

	step := gd.Step
	if step == 0 {
		step = gd.Stagger * fps
	}
	duration := gd.DurationFrames
	if duration == 0 {
		duration = gd.Duration * fps
	}

	g := stagger.Group{
		Count:     gd.Count,
		Start:     gd.Start,
		BaseDelay: gd.BaseDelay,
		Step:      step,
		Motion:    stagger.Motion{DurationFrames: duration, Easing: e},
		Props:     gd.Props,
	}
	if gd.Spring != nil {
		cfg := *gd.Spring
		if cfg.FPS == 0 {
			cfg.FPS = fps
		}
		g.Motion.Spring = &cfg
	}
	return scene.NamedGroup{Name: gd.Name, Text: gd.Text, Split: split, Group: g}, nil
}

func (d *Document) buildTimeline(scenes map[string]*scene.Scene) (*timeline.Timeline, map[string]effects.Presentation, error) {
	var errs []error
	slots := make([]timeline.Slot, 0, len(d.Timeline))
	presentations := make(map[string]effects.Presentation)

	for i, e := range d.Timeline {
		switch {
		case e.Scene != "" && e.Transition != "":
			errs = append(errs, fmt.Errorf("%w: timeline entry %d is both scene and transition", ErrInvalidComposition, i))
		case e.Scene != "":
			if _, ok := scenes[e.Scene]; !ok {
				errs = append(errs, fmt.Errorf("%w: timeline entry %d: unknown scene %q", ErrInvalidComposition, i, e.Scene))
			}
			slots = append(slots, timeline.SceneSlot{Scene: e.Scene, DurationInFrames: e.Duration})
		case e.Transition != "":
			p, err := effects.Lookup(e.Transition)
			if err != nil {
				errs = append(errs, fmt.Errorf("%w: timeline entry %d: %w", ErrInvalidComposition, i, err))
				continue
			}
			presentations[e.Transition] = p
			slots = append(slots, timeline.TransitionSlot{DurationInFrames: e.Duration, Presentation: e.Transition})
		default:
			errs = append(errs, fmt.Errorf("%w: timeline entry %d names neither scene nor transition", ErrInvalidComposition, i))
		}
	}
	if len(errs) > 0 {
		return nil, nil, errors.Join(errs...)
	}

	tl, err := timeline.New(slots...)
	if err != nil {
		return nil, nil, err
	}
	return tl, presentations, nil
}

func (d *Document) buildMixer() (*audio.Mixer, error) {
	var errs []error
	layers := make([]audio.Layer, 0, len(d.Audio))
	for _, ad := range d.Audio {
		env, err := buildEnvelope(ad)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: audio %q: %w", audio.ErrInvalidLayer, ad.ID, err))
			continue
		}
		layers = append(layers, audio.Layer{
			ID:           ad.ID,
			Source:       ad.Source,
			Start:        ad.Start,
			End:          ad.End,
			Envelope:     env,
			Loop:         ad.Loop,
			SourceFrames: ad.SourceFrames,
		})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return audio.NewMixer(layers...)
}

func buildEnvelope(ad AudioDoc) (audio.Envelope, error) {
	switch {
	case ad.Envelope != nil:
		c, err := buildCurve(*ad.Envelope)
		if err != nil {
			return nil, err
		}
		return audio.Curve{Descriptor: c}, nil
	case ad.FadeIn > 0 || ad.FadeOut > 0:
		if ad.FadeIn+ad.FadeOut > ad.End-ad.Start {
			return nil, fmt.Errorf("fades of %d+%d frames do not fit [%d, %d)", ad.FadeIn, ad.FadeOut, ad.Start, ad.End)
		}
		return audio.FadeInOut(ad.Start, ad.End, ad.FadeIn, ad.FadeOut, ad.Level)
	case ad.Gain != nil:
		return audio.Constant(*ad.Gain), nil
	}
	return nil, nil
}
