package composition

import (
	"fmt"

	"github.com/ivlev/promoreel/internal/counter"
	"github.com/ivlev/promoreel/internal/particles"
	"github.com/ivlev/promoreel/internal/spring"
	"github.com/ivlev/promoreel/internal/stagger"
)

const (
	promoFPS        = 30
	promoTransition = 20
	promoPresent    = "blur-dissolve"
)

// Promo is the built-in five scene product promo: hero, stats, features,
// steps and call to action, joined by 20 frame blur dissolves, 700 frames
// at 30 fps, with a music bed and four kinds of effects.
func Promo() *Document {
	return &Document{
		Version:        "1.0",
		FPS:            promoFPS,
		Width:          1920,
		Height:         1080,
		MaxAudioLayers: 4,
		Scenes: []SceneDoc{
			heroScene(),
			statsScene(),
			featuresScene(),
			stepsScene(),
			ctaScene(),
		},
		Timeline: []EntryDoc{
			{Scene: "hero", Duration: 150},
			{Transition: promoPresent, Duration: promoTransition},
			{Scene: "stats", Duration: 150},
			{Transition: promoPresent, Duration: promoTransition},
			{Scene: "features", Duration: 150},
			{Transition: promoPresent, Duration: promoTransition},
			{Scene: "steps", Duration: 150},
			{Transition: promoPresent, Duration: promoTransition},
			{Scene: "cta", Duration: 180},
		},
		Audio: promoAudio(),
	}
}

func promoAudio() []AudioDoc {
	layers := []AudioDoc{
		{ID: "music", Source: "music/modern-upbeat-electronic.mp3", Start: 0, End: 700, Loop: true, FadeIn: 45, FadeOut: 50, Level: 0.3},
		{ID: "logo-reveal", Source: "sfx/bright-digital-logo-reveal.mp3", Start: 0, End: 90, Gain: ptr(0.6)},
	}
	// one whoosh just ahead of every transition window
	for i, at := range []int{125, 255, 385, 515} {
		layers = append(layers, AudioDoc{
			ID:     fmt.Sprintf("whoosh-%d", i+1),
			Source: "sfx/smooth-cinematic-whoosh.mp3",
			Start:  at,
			End:    at + 40,
			Gain:   ptr(0.35),
		})
	}
	return append(layers, AudioDoc{ID: "chime", Source: "sfx/bright-success-chime.mp3", Start: 560, End: 640, Gain: ptr(0.45)})
}

func heroScene() SceneDoc {
	return SceneDoc{
		ID: "hero",
		Params: []ParamDoc{
			springParam("logoScale", 0, spring.Config{Damping: 12, Stiffness: 80, Mass: 0.8, DurationInFrames: 40}),
			curve("logoOpacity", []float64{0, 15}, []float64{0, 1}, "cubic-out"),
			curve("glowIntensity", []float64{20, 40}, []float64{0, 1}, "cubic-out"),
			curve("gridOpacity", []float64{0, 30}, []float64{0, 0.06}, ""),
			curve("accentLineOpacity", []float64{30, 50}, []float64{0, 0.6}, ""),
			ramp("gradientAngle", 135, 0.3),
			osc("orb1X", particles.Cosine, 20, 40, 0, 0),
			osc("orb1Y", particles.Sine, 15, 30, 0, 0),
			osc("orb2X", particles.Cosine, 25, 35, 2, 0),
			osc("orb2Y", particles.Sine, 20, 25, 1, 0),
			osc("orb3X", particles.Cosine, 18, 30, 1, 0),
			osc("orb3Y", particles.Sine, 12, 20, 3, 0),
		},
		Groups: []GroupDoc{
			text("tagline", "Create Viral Videos in Minutes", stagger.Words, 0, 0.7, 0.08, "back.out(1.4)",
				fade(), rise(60), grow(0.8), unblur(8)),
			text("subtitle", "Turn ideas into attention-grabbing TikTok, Instagram, and YouTube stories with AI", stagger.Words, 38, 0.5, 0.04, "power2.out",
				fade(), rise(20)),
		},
		Particles: &particles.Field{
			Count: 20, XMul: 97, XAdd: 13, YMul: 67, YAdd: 29,
			SizeBase: 2, SizeMod: 3,
			SpeedBase: 0.3, SpeedStep: 0.15, SpeedMod: 5,
			DelayStep: 3, FadeFrames: 20,
			OpacityBase: 0.4, OpacityStep: 0.2, OpacityMod: 3,
			Drift:   0.3,
			Palette: []string{"#4BDE81", "#6366f1"},
		},
	}
}

var promoStats = []struct {
	name  string
	value float64
	sfx   string
}{
	{"videosCreated", 240909, "+"},
	{"activeCreators", 14258, "+"},
	{"reached100k", 400, "+"},
	{"languages", 32, ""},
}

func statsScene() SceneDoc {
	s := SceneDoc{
		ID: "stats",
		Params: []ParamDoc{
			ramp("bgAngle", 220, 0.2),
			oscOffset("radialScale", 0.05, 40, 1),
			curve("bottomLineWidth", []float64{50, 80}, []float64{0, 400}, "cubic-out"),
		},
		Groups: []GroupDoc{
			text("heading", "Impact", stagger.Chars, 0, 0.4, 0.03, "back.out(1.7)",
				fade(), rise(15), grow(0.6)),
			text("title", "Trusted by Thousands of Creators Worldwide", stagger.Words, 8, 0.6, 0.07, "power3.out",
				fade(), rise(40), unblur(6)),
			cards("cards", len(promoStats), 15, 6, spring.Config{Damping: 14, Stiffness: 100, Mass: 0.6, DurationInFrames: 30}),
			cardFade("cardOpacity", len(promoStats), 15, 6, 12),
		},
	}
	for i, st := range promoStats {
		delay := float64(15 + 6*i)
		big := st.value > 10000
		decimals := 0
		if big {
			decimals = 1
		}
		s.Counters = append(s.Counters, CounterDoc{
			Name:     st.name,
			To:       st.value,
			Duration: 1.8,
			Delay:    delay / promoFPS,
			Easing:   "smooth",
			Format:   counter.Format{Separator: ",", Abbreviate: big, Decimals: decimals, Suffix: st.sfx},
		})
		s.Params = append(s.Params, oscShift(fmt.Sprintf("card%dFloat", i), 4, 25, float64(15*i)))
	}
	return s
}

func featuresScene() SceneDoc {
	s := SceneDoc{
		ID: "features",
		Params: []ParamDoc{
			ramp("bgAngle", 310, 0.15),
		},
		Groups: []GroupDoc{
			text("heading", "Features", stagger.Chars, 0, 0.35, 0.025, "power2.out",
				fade(), rise(12)),
			text("title", "Everything You Need to Create Amazing Videos", stagger.Words, 6, 0.55, 0.06, "power3.out",
				fade(), rise(35), unblur(5)),
			cards("cards", 6, 18, 5, spring.Config{Damping: 14, Stiffness: 90, Mass: 0.7, DurationInFrames: 30}),
			cardFade("cardOpacity", 6, 18, 5, 10),
		},
	}
	for i := 0; i < 6; i++ {
		s.Params = append(s.Params, oscShift(fmt.Sprintf("card%dFloat", i), 3, 28, float64(20*i)))
	}
	return s
}

func stepsScene() SceneDoc {
	cardSpring := spring.Config{Damping: 13, Stiffness: 85, Mass: 0.7, DurationInFrames: 35}
	s := SceneDoc{
		ID: "steps",
		Params: []ParamDoc{
			ramp("bgAngle", 180, 0.2),
			curve("lineProgress", []float64{30, 90}, []float64{0, 1}, "cubic-out"),
		},
		Groups: []GroupDoc{
			text("heading", "How It Works", stagger.Chars, 0, 0.35, 0.025, "power2.out",
				fade(), rise(12)),
			text("title", "Four Easy Steps to Your Story", stagger.Words, 6, 0.55, 0.06, "power3.out",
				fade(), rise(35), unblur(5)),
			cardFade("cardOpacity", 4, 18, 10, 12),
		},
	}
	for i := 0; i < 4; i++ {
		delay := float64(18 + 10*i)
		// the card rises 50px as its spring completes, then keeps bobbing
		s.Params = append(s.Params,
			ParamDoc{
				Name: fmt.Sprintf("card%dTranslateY", i),
				SignalDoc: SignalDoc{Sum: []SignalDoc{
					{Spring: &SpringDoc{Config: cardSpring, Start: delay}, Scale: ptr(-50.0), Offset: 50},
					{Oscillate: &particles.Oscillator{Wave: particles.Sine, Amplitude: 4, Period: 30, Shift: float64(18 * i)}},
				}},
			},
			ParamDoc{
				Name:      fmt.Sprintf("card%dNumberScale", i),
				SignalDoc: SignalDoc{Oscillate: &particles.Oscillator{Wave: particles.Sine, Amplitude: 0.03, Period: 20, Shift: float64(10 * i), Offset: 1}},
			},
		)
	}
	return s
}

func ctaScene() SceneDoc {
	return SceneDoc{
		ID: "cta",
		Params: []ParamDoc{
			ramp("bgAngle", 160, 0.3),
			springParam("buttonScale", 45, spring.Config{Damping: 10, Stiffness: 80, Mass: 0.8, DurationInFrames: 35}),
			curve("buttonOpacity", []float64{45, 55}, []float64{0, 1}, ""),
			springParam("logoScale", 5, spring.Config{Damping: 12, Stiffness: 90, Mass: 0.7, DurationInFrames: 35}),
			curve("logoOpacity", []float64{5, 18}, []float64{0, 1}, ""),
			oscOffset("glowPulse", 0.4, 18, 0.6),
			curve("ring1Scale", []float64{10, 60}, []float64{0.5, 1.2}, "cubic-out"),
			curve("ring1Opacity", []float64{10, 40, 70}, []float64{0, 0.15, 0.05}, ""),
		},
		Groups: []GroupDoc{
			text("headline", "Your Stories Deserve More Views", stagger.Words, 12, 0.65, 0.07, "back.out(1.3)",
				fade(), rise(50), grow(0.85), unblur(8)),
			text("subline", "Join 14,000+ creators turning ideas into videos that get noticed", stagger.Words, 30, 0.45, 0.035, "power2.out",
				fade(), rise(15)),
			text("note", "No credit card required", stagger.Words, 55, 0.4, 0.04, "power2.out",
				fade(), rise(10)),
			text("brand", "revid.ai", stagger.Chars, 60, 0.5, 0.03, "back.out(1.7)",
				fade(), grow(0.5), rise(20)),
		},
		Particles: &particles.Field{
			Count: 30, XMul: 83, XAdd: 17, YMul: 61, YAdd: 23,
			SizeBase: 1.5, SizeMod: 4,
			SpeedBase: 0.2, SpeedStep: 0.1, SpeedMod: 6,
			DelayStep: 2, FadeFrames: 15,
			OpacityBase: 0.3, OpacityStep: 0.15, OpacityMod: 3,
			Drift:   0.25,
			Palette: []string{"#4BDE81", "#6366f1", "#22d3ee"},
		},
	}
}

func curve(name string, domain, rng []float64, easing string) ParamDoc {
	return ParamDoc{Name: name, SignalDoc: SignalDoc{Interpolate: &CurveDoc{Domain: domain, Range: rng, Easing: easing}}}
}

func springParam(name string, start float64, cfg spring.Config) ParamDoc {
	return ParamDoc{Name: name, SignalDoc: SignalDoc{Spring: &SpringDoc{Config: cfg, Start: start}}}
}

func ramp(name string, base, rate float64) ParamDoc {
	return ParamDoc{Name: name, SignalDoc: SignalDoc{Ramp: &RampDoc{Base: base, Rate: rate}}}
}

func osc(name string, wave particles.Wave, amplitude, period, phase, offset float64) ParamDoc {
	return ParamDoc{Name: name, SignalDoc: SignalDoc{Oscillate: &particles.Oscillator{
		Wave: wave, Amplitude: amplitude, Period: period, Phase: phase, Offset: offset,
	}}}
}

func oscOffset(name string, amplitude, period, offset float64) ParamDoc {
	return osc(name, particles.Sine, amplitude, period, 0, offset)
}

func oscShift(name string, amplitude, period, shift float64) ParamDoc {
	p := osc(name, particles.Sine, amplitude, period, 0, 0)
	p.Oscillate.Shift = shift
	return p
}

func text(name, body string, split stagger.Split, start, duration, step float64, easing string, props ...stagger.Prop) GroupDoc {
	return GroupDoc{
		Name:     name,
		Text:     body,
		Split:    string(split),
		Start:    start,
		Duration: duration,
		Stagger:  step,
		Easing:   easing,
		Props:    props,
	}
}

func cards(name string, n int, base, step float64, cfg spring.Config) GroupDoc {
	return GroupDoc{
		Name:      name,
		Count:     n,
		BaseDelay: base,
		Step:      step,
		Spring:    &cfg,
		Props:     []stagger.Prop{{Name: "scale", From: 0, To: 1}},
	}
}

func cardFade(name string, n int, base, step, frames float64) GroupDoc {
	return GroupDoc{
		Name:           name,
		Count:          n,
		BaseDelay:      base,
		Step:           step,
		DurationFrames: frames,
		Props:          []stagger.Prop{{Name: "opacity", From: 0, To: 1}},
	}
}

func fade() stagger.Prop { return stagger.Prop{Name: "opacity", From: 0, To: 1} }
func rise(px float64) stagger.Prop { return stagger.Prop{Name: "y", From: px, To: 0} }
func grow(s float64) stagger.Prop { return stagger.Prop{Name: "scale", From: s, To: 1} }
func unblur(r float64) stagger.Prop { return stagger.Prop{Name: "blur", From: r, To: 0} }

func ptr[T any](v T) *T { return &v }
