package audio

import (
	"errors"
	"testing"

	"github.com/gopxl/beep"
	"github.com/ivlev/promoreel/internal/interpolate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func promoLayers(t *testing.T) []Layer {
	t.Helper()
	music, err := FadeInOut(0, 700, 45, 50, 0.3)
	require.NoError(t, err)

	layers := []Layer{
		{ID: "music", Source: "music/bg.mp3", Start: 0, End: 700, Envelope: music, Loop: true, SourceFrames: 600},
		{ID: "logo", Source: "sfx/logo.mp3", Start: 0, End: 90, Envelope: Constant(0.6)},
	}
	for i, at := range []int{125, 255, 385, 515} {
		layers = append(layers, Layer{ID: "whoosh-" + string(rune('1'+i)), Source: "sfx/whoosh.mp3", Start: at, End: at + 40, Envelope: Constant(0.35)})
	}
	layers = append(layers, Layer{ID: "chime", Source: "sfx/chime.mp3", Start: 560, End: 640, Envelope: Constant(0.45)})
	return layers
}

func TestGainsAtFrame(t *testing.T) {
	m, err := NewMixer(promoLayers(t)...)
	require.NoError(t, err)

	g := m.GainsAtFrame(0)
	assert.Equal(t, 0.0, g["music"])
	assert.Equal(t, 0.6, g["logo"])
	assert.Equal(t, 0.0, g["chime"])

	g = m.GainsAtFrame(300)
	assert.InDelta(t, 0.3, g["music"], 1e-12)
	assert.Equal(t, 0.0, g["logo"])

	g = m.GainsAtFrame(675)
	assert.InDelta(t, 0.15, g["music"], 1e-12)

	assert.InDelta(t, 0.3*22/45, m.GainsAtFrame(22)["music"], 1e-12)
}

func TestOutsideWindowIsZero(t *testing.T) {
	// the envelope would extrapolate to a large value, the window still wins
	loud := Curve{interpolate.MustNew([]float64{0, 10}, []float64{0, 1}, interpolate.ExtendBoth())}
	l := Layer{ID: "x", Start: 20, End: 30, Envelope: loud}

	assert.Equal(t, 0.0, l.GainAt(19))
	assert.Equal(t, 0.0, l.GainAt(30))
	assert.Equal(t, 0.0, l.GainAt(-5))
	assert.Equal(t, 1.0, l.GainAt(25)) // clamped to [0,1]
}

func TestNoNormalization(t *testing.T) {
	m, err := NewMixer(
		Layer{ID: "a", Start: 0, End: 10, Envelope: Constant(0.9)},
		Layer{ID: "b", Start: 0, End: 10, Envelope: Constant(0.8)},
	)
	require.NoError(t, err)
	g := m.GainsAtFrame(5)
	assert.Equal(t, 0.9, g["a"])
	assert.Equal(t, 0.8, g["b"])
}

func TestEnvelopeNotWrappedForLoops(t *testing.T) {
	m, err := NewMixer(promoLayers(t)...)
	require.NoError(t, err)
	music := m.Layers()[0]

	// the source loops at 600 frames but the fade-in happens once
	assert.InDelta(t, 0.3, music.GainAt(610), 1e-12)
	off, ok := music.SourceOffset(610)
	assert.True(t, ok)
	assert.Equal(t, 10, off)

	oneShot := Layer{ID: "s", Start: 100, End: 200, SourceFrames: 30}
	off, ok = oneShot.SourceOffset(120)
	assert.True(t, ok)
	assert.Equal(t, 20, off)
	_, ok = oneShot.SourceOffset(140)
	assert.False(t, ok)
}

func TestActiveAndConcurrency(t *testing.T) {
	m, err := NewMixer(promoLayers(t)...)
	require.NoError(t, err)

	assert.Equal(t, []string{"logo", "music"}, m.Active(10))
	assert.Equal(t, []string{"music", "whoosh-2"}, m.Active(260))

	peak, _ := m.PeakConcurrency(700)
	assert.Equal(t, 2, peak)
	assert.NoError(t, m.CheckConcurrency(700, 4))
	assert.NoError(t, m.CheckConcurrency(700, 0))

	err = m.CheckConcurrency(700, 1)
	assert.True(t, errors.Is(err, ErrTooManyLayers))
}

func TestTouchingWindowsDoNotOverlap(t *testing.T) {
	m, err := NewMixer(
		Layer{ID: "a", Start: 0, End: 10},
		Layer{ID: "b", Start: 10, End: 20},
	)
	require.NoError(t, err)
	peak, _ := m.PeakConcurrency(20)
	assert.Equal(t, 1, peak)
}

func TestInvalidLayers(t *testing.T) {
	_, err := NewMixer(
		Layer{ID: "", Start: 0, End: 1},
		Layer{ID: "a", Start: 5, End: 5},
		Layer{ID: "b", Start: 0, End: 1},
		Layer{ID: "b", Start: 0, End: 1},
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidLayer))
	assert.Contains(t, err.Error(), "duplicate id")
	assert.Contains(t, err.Error(), "empty window")
}

func TestMinEnvelope(t *testing.T) {
	assert.Equal(t, 0.0, Min{}.GainAt(3))
	assert.Equal(t, 0.2, Min{Constant(0.5), Constant(0.2)}.GainAt(3))
}

func constantSource(v float64) beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{v, v}
		}
		return len(samples), true
	})
}

func TestGainStreamer(t *testing.T) {
	ramp := Curve{interpolate.MustNew([]float64{0, 4}, []float64{0, 1})}
	l := Layer{ID: "r", Start: 0, End: 10, Envelope: ramp}
	gs := NewGainStreamer(constantSource(1), l, 10, beep.SampleRate(100), 0)

	buf := make([][2]float64, 50)
	n, ok := gs.Stream(buf)
	require.Equal(t, 50, n)
	assert.True(t, ok)
	assert.NoError(t, gs.Err())

	assert.Equal(t, 0.0, buf[0][0])
	assert.Equal(t, 0.25, buf[10][0])
	assert.Equal(t, 0.5, buf[25][1])
	assert.Equal(t, 1.0, buf[45][0])
}

func TestMixdown(t *testing.T) {
	m, err := NewMixer(
		Layer{ID: "whoosh", Start: 2, End: 4, Envelope: Constant(0.5)},
		Layer{ID: "silent", Start: 0, End: 10},
	)
	require.NoError(t, err)

	mix := m.Mixdown(map[string]beep.Streamer{"whoosh": constantSource(1)}, 10, beep.SampleRate(100))
	buf := make([][2]float64, 40)
	n, _ := mix.Stream(buf)
	require.Equal(t, 40, n)

	assert.Equal(t, 0.0, buf[0][0])
	assert.Equal(t, 0.0, buf[19][0])
	assert.Equal(t, 0.5, buf[20][0])
	assert.Equal(t, 0.5, buf[39][1])
}

func TestSampleFrameConversion(t *testing.T) {
	rate := beep.SampleRate(48000)
	assert.Equal(t, 1600, SampleOfFrame(1, 30, rate))
	assert.Equal(t, 0, FrameOfSample(1599, 30, rate))
	assert.Equal(t, 1, FrameOfSample(1600, 30, rate))
}

func TestFadeInOutOneSided(t *testing.T) {
	in, err := FadeInOut(0, 100, 10, 0, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0.25, in.GainAt(5))
	assert.Equal(t, 0.5, in.GainAt(99))

	flat, err := FadeInOut(0, 100, 0, 0, 0.5)
	require.NoError(t, err)
	assert.Equal(t, Constant(0.5), flat)

	_, err = FadeInOut(0, 100, -1, 0, 0.5)
	assert.NoError(t, err)
}
