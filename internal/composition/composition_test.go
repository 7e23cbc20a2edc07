package composition

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/promoreel/internal/audio"
	"github.com/ivlev/promoreel/internal/easing"
	"github.com/ivlev/promoreel/internal/timeline"
)

func buildPromo(t *testing.T) *Composition {
	t.Helper()
	c, err := Promo().Build()
	require.NoError(t, err)
	return c
}

func TestPromoLayout(t *testing.T) {
	c := buildPromo(t)

	assert.Equal(t, []int{0, 130, 260, 390, 520}, c.Timeline.Starts())
	assert.Equal(t, 700, c.Total())
	assert.Len(t, c.Scenes, 5)
	assert.Equal(t, "blur-dissolve", c.Presentation(0).Name())

	peak, _ := c.Mixer.PeakConcurrency(c.Total())
	assert.LessOrEqual(t, peak, 4)
}

func TestPromoFrames(t *testing.T) {
	c := buildPromo(t)

	first := c.Frame(0)
	require.Len(t, first.Scenes, 1)
	assert.Equal(t, "hero", first.Scenes[0].Scene)
	assert.Equal(t, 1.0, first.Scenes[0].Present.Opacity)
	assert.Equal(t, 135.0, first.Scenes[0].Bag.Values["gradientAngle"])
	assert.Len(t, first.Scenes[0].Bag.Particles, 20)
	assert.Len(t, first.Scenes[0].Bag.Elements["tagline"], 5)
	assert.Equal(t, 0.6, first.Gains["logo-reveal"])
	assert.Equal(t, 0.0, first.Gains["music"])

	mid := c.Frame(140)
	require.Len(t, mid.Scenes, 2)
	require.NotNil(t, mid.Transition)
	assert.Equal(t, 0.5, mid.Transition.Progress)
	assert.Equal(t, timeline.Outgoing, mid.Scenes[0].Role)
	assert.Equal(t, 140, mid.Scenes[0].LocalFrame)
	assert.Equal(t, 0.5, mid.Scenes[0].Present.Opacity)
	assert.Equal(t, timeline.Incoming, mid.Scenes[1].Role)
	assert.Equal(t, 10, mid.Scenes[1].LocalFrame)
	assert.Equal(t, 5.0, mid.Scenes[1].Present.Blur)
	assert.Equal(t, 0.35, mid.Gains["whoosh-1"])

	stats := c.Frame(230)
	require.Len(t, stats.Scenes, 1)
	bag := stats.Scenes[0].Bag
	assert.Equal(t, "240.9K+", bag.Text["videosCreated"])
	assert.Equal(t, "14.3K+", bag.Text["activeCreators"])
	assert.Equal(t, "400+", bag.Text["reached100k"])
	assert.Equal(t, "32", bag.Text["languages"])
	assert.InDelta(t, 0.3, stats.Gains["music"], 1e-12)

	end := c.Frame(699)
	assert.Equal(t, "cta", end.Scenes[0].Scene)
	assert.Equal(t, 179, end.Scenes[0].LocalFrame)
	assert.InDelta(t, 0.3/50, end.Gains["music"], 1e-12)

	past := c.Frame(720)
	assert.True(t, past.Clamped)
	assert.Equal(t, 0.0, past.Gains["music"])
}

func TestCounterStartsWithCard(t *testing.T) {
	c := buildPromo(t)
	stats := c.Scenes["stats"]

	// counters wait for their card: 15 frames for the first, 27 for the third
	assert.Equal(t, "0.0+", stats.Evaluate(14).Text["videosCreated"])
	assert.NotEqual(t, "0.0+", stats.Evaluate(20).Text["videosCreated"])
	assert.Equal(t, "0+", stats.Evaluate(26).Text["reached100k"])
	assert.NotEqual(t, "0+", stats.Evaluate(40).Text["reached100k"])
}

func TestStepsCardTranslate(t *testing.T) {
	c := buildPromo(t)
	steps := c.Scenes["steps"]

	assert.InDelta(t, 50, steps.Evaluate(0).Values["card0TranslateY"], 4)
	assert.InDelta(t, 0, steps.Evaluate(140).Values["card0TranslateY"], 4.1)
	assert.InDelta(t, 1, steps.Evaluate(77).Values["card2NumberScale"], 0.03)
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compositions", "promo.yaml")
	require.NoError(t, Write(Promo(), path))

	doc, err := Read(path)
	require.NoError(t, err)
	fromFile, err := doc.Build()
	require.NoError(t, err)

	builtin := buildPromo(t)
	for _, f := range []int{0, 37, 140, 275, 400, 529, 699} {
		assert.Equal(t, builtin.Frame(f), fromFile.Frame(f), "frame %d", f)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("version: \"1.0\"\nfps: 30\nframerate: 25\n"))
	assert.Error(t, err)
}

func TestParseMinimal(t *testing.T) {
	doc, err := Parse([]byte(`
version: "1.0"
fps: 30
width: 640
height: 360
scenes:
  - id: intro
    params:
      - name: opacity
        interpolate: {domain: [0, 10], range: [0, 1], easing: cubic-out}
      - name: drift
        sum:
          - ramp: {base: 0, rate: 2}
          - const: 5
        scale: 0.5
  - id: outro
timeline:
  - scene: intro
    duration: 40
  - transition: fade
    duration: 10
  - scene: outro
    duration: 40
audio:
  - id: bed
    source: bed.mp3
    start: 0
    end: 70
    fade_in: 10
    level: 0.5
`))
	require.NoError(t, err)
	c, err := doc.Build()
	require.NoError(t, err)

	assert.Equal(t, 70, c.Total())
	f := c.Frame(5)
	assert.Equal(t, easing.CubicOut.Apply(0.5), f.Scenes[0].Bag.Values["opacity"])
	assert.Equal(t, 7.5, f.Scenes[0].Bag.Values["drift"])
	assert.Equal(t, 0.25, f.Gains["bed"])

	cross := c.Frame(35)
	require.Len(t, cross.Scenes, 2)
	assert.Equal(t, 0.5, cross.Scenes[1].Present.Opacity)
}

func TestBuildAggregatesErrors(t *testing.T) {
	doc := &Document{
		FPS: 30, Width: 100, Height: 100,
		Scenes: []SceneDoc{
			{ID: "a", Params: []ParamDoc{
				{Name: "bad-easing", SignalDoc: SignalDoc{Interpolate: &CurveDoc{Domain: []float64{0, 1}, Range: []float64{0, 1}, Easing: "wobble"}}},
				{Name: "two-kinds", SignalDoc: SignalDoc{Const: ptr(1.0), Ramp: &RampDoc{Rate: 1}}},
			}},
		},
		Timeline: []EntryDoc{
			{Scene: "a", Duration: 10},
			{Transition: "wipe", Duration: 5},
			{Scene: "missing", Duration: 10},
		},
		Audio: []AudioDoc{{ID: "x", Start: 10, End: 5}},
	}

	_, err := doc.Build()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidComposition))
	assert.True(t, errors.Is(err, easing.ErrUnknownEasing))
	assert.True(t, errors.Is(err, audio.ErrInvalidLayer))
	assert.Contains(t, err.Error(), "exactly one of")
	assert.Contains(t, err.Error(), `unknown scene "missing"`)
	assert.Contains(t, err.Error(), `"wipe"`)
}

func TestBuildRejectsBadTimeline(t *testing.T) {
	doc := Promo()
	doc.Timeline[1].Duration = 151
	_, err := doc.Build()
	assert.True(t, errors.Is(err, timeline.ErrInvalidTimeline))

	doc = Promo()
	doc.FPS = 0
	_, err = doc.Build()
	assert.True(t, errors.Is(err, ErrInvalidComposition))
}

func TestBuildChecksAudioConcurrency(t *testing.T) {
	doc := Promo()
	doc.MaxAudioLayers = 1
	_, err := doc.Build()
	assert.True(t, errors.Is(err, audio.ErrTooManyLayers))
}

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.yaml")
	fresh := filepath.Join(dir, "fresh.yml")
	require.NoError(t, os.WriteFile(old, []byte("version: \"1.0\"\n"), 0644))
	require.NoError(t, os.WriteFile(fresh, []byte("version: \"1.0\"\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0644))

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	got, err := FindLatest(dir)
	require.NoError(t, err)
	assert.Equal(t, fresh, got)

	_, err = FindLatest(t.TempDir())
	assert.Error(t, err)
}

func TestGeneratePath(t *testing.T) {
	p := GeneratePath("out")
	assert.Equal(t, "out", filepath.Dir(p))
	assert.Contains(t, filepath.Base(p), "composition_")
	assert.Equal(t, ".yaml", filepath.Ext(p))
}

func TestFitTo(t *testing.T) {
	doc := Promo()
	require.NoError(t, doc.FitTo(900))

	c, err := doc.Build()
	require.NoError(t, err)
	assert.Equal(t, 900, c.Total())
	assert.Equal(t, 188, doc.Timeline[0].Duration)
	assert.Equal(t, 228, doc.Timeline[8].Duration)
	assert.Equal(t, promoTransition, doc.Timeline[1].Duration)
	assert.Equal(t, 900, doc.Audio[0].End)
	assert.Equal(t, 90, doc.Audio[1].End)

	assert.Error(t, Promo().FitTo(0))
	assert.Error(t, (&Document{}).FitTo(100))
}

func TestHeroOrbAxes(t *testing.T) {
	hero := buildPromo(t).Scenes["hero"]
	v := hero.Evaluate(10).Values

	assert.InDelta(t, math.Cos(10.0/40)*20, v["orb1X"], 1e-12)
	assert.InDelta(t, 19.378, v["orb1X"], 1e-3)
	assert.InDelta(t, math.Sin(10.0/30)*15, v["orb1Y"], 1e-12)
	assert.InDelta(t, 4.9079, v["orb1Y"], 1e-4)
	assert.InDelta(t, math.Cos(10.0/35+2)*25, v["orb2X"], 1e-12)
	assert.InDelta(t, math.Sin(10.0/25+1)*20, v["orb2Y"], 1e-12)
	assert.InDelta(t, math.Cos(10.0/30+1)*18, v["orb3X"], 1e-12)
	assert.InDelta(t, math.Sin(10.0/20+3)*12, v["orb3Y"], 1e-12)
}
