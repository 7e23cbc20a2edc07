package audio

import (
	"github.com/gopxl/beep"
)

// GainStreamer applies a layer's frame gain to a decoded source. It is the
// renderer-side half of the mixer: gains come from the pure Layer.GainAt, the
// only state is the playback position of the stream itself.
type GainStreamer struct {
	src   beep.Streamer
	layer Layer
	fps   float64
	rate  beep.SampleRate
	pos   int
}

// NewGainStreamer wraps src; startSample is the global sample index of the
// first sample src will produce.
func NewGainStreamer(src beep.Streamer, l Layer, fps float64, rate beep.SampleRate, startSample int) *GainStreamer {
	return &GainStreamer{src: src, layer: l, fps: fps, rate: rate, pos: startSample}
}

func (g *GainStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = g.src.Stream(samples)
	for i := 0; i < n; i++ {
		gain := g.layer.GainAt(FrameOfSample(g.pos, g.fps, g.rate))
		samples[i][0] *= gain
		samples[i][1] *= gain
		g.pos++
	}
	return n, ok
}

func (g *GainStreamer) Err() error { return g.src.Err() }

// FrameOfSample is the video frame a global sample index falls into.
func FrameOfSample(sample int, fps float64, rate beep.SampleRate) int {
	return int(float64(sample) * fps / float64(rate))
}

// SampleOfFrame is the first global sample of a video frame.
func SampleOfFrame(frame int, fps float64, rate beep.SampleRate) int {
	return int(float64(frame) * float64(rate) / fps)
}

// Mixdown mounts every layer that has a decoded source at its window and
// applies its envelope. Sources are expected to be already looping when the
// layer loops; layers without a source are skipped.
func (m *Mixer) Mixdown(sources map[string]beep.Streamer, fps float64, rate beep.SampleRate) *beep.Mixer {
	mix := &beep.Mixer{}
	for _, l := range m.layers {
		src, ok := sources[l.ID]
		if !ok {
			continue
		}
		start := SampleOfFrame(l.Start, fps, rate)
		end := SampleOfFrame(l.End, fps, rate)
		gs := NewGainStreamer(src, l, fps, rate, start)
		mix.Add(beep.Seq(beep.Silence(start), beep.Take(end-start, gs)))
	}
	return mix
}
