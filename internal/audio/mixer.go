package audio

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrInvalidLayer  = errors.New("invalid audio layer")
	ErrTooManyLayers = errors.New("too many concurrent audio layers")
)

// Layer is one audio source mounted on the global timeline for
// [Start, End). Source is an opaque locator handed to the external loader.
type Layer struct {
	ID       string
	Source   string
	Start    int
	End      int
	Envelope Envelope
	Loop     bool
	// SourceFrames is the length of the source in frames, when known.
	// It only matters for looping sources.
	SourceFrames int
}

// Active reports whether the layer is mounted at frame.
func (l Layer) Active(frame int) bool {
	return frame >= l.Start && frame < l.End
}

// GainAt is the layer gain at a global frame. Outside the window the layer
// is unmounted and reports 0 whatever its envelope would extrapolate to.
func (l Layer) GainAt(frame int) float64 {
	if !l.Active(frame) {
		return 0
	}
	if l.Envelope == nil {
		return 1
	}
	return clamp01(l.Envelope.GainAt(frame))
}

// SourceOffset is the frame inside the source that plays at a global frame.
// Looping sources wrap; the gain envelope never does.
func (l Layer) SourceOffset(frame int) (int, bool) {
	if !l.Active(frame) {
		return 0, false
	}
	off := frame - l.Start
	if l.Loop && l.SourceFrames > 0 {
		off %= l.SourceFrames
	} else if l.SourceFrames > 0 && off >= l.SourceFrames {
		return 0, false
	}
	return off, true
}

// Mixer reports per-layer gains. Layers are independent: gains are never
// summed or normalized here, final mixing belongs to the renderer.
type Mixer struct {
	layers []Layer
}

func NewMixer(layers ...Layer) (*Mixer, error) {
	seen := make(map[string]bool, len(layers))
	var errs []error
	for i, l := range layers {
		switch {
		case l.ID == "":
			errs = append(errs, fmt.Errorf("%w: layer %d has no id", ErrInvalidLayer, i))
		case seen[l.ID]:
			errs = append(errs, fmt.Errorf("%w: duplicate id %q", ErrInvalidLayer, l.ID))
		case l.End <= l.Start:
			errs = append(errs, fmt.Errorf("%w: %q: empty window [%d, %d)", ErrInvalidLayer, l.ID, l.Start, l.End))
		case l.SourceFrames < 0:
			errs = append(errs, fmt.Errorf("%w: %q: negative source length", ErrInvalidLayer, l.ID))
		}
		seen[l.ID] = true
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &Mixer{layers: append([]Layer(nil), layers...)}, nil
}

// Layers returns a copy of the configured layers.
func (m *Mixer) Layers() []Layer { return append([]Layer(nil), m.layers...) }

// GainsAtFrame maps every layer id to its gain at frame.
func (m *Mixer) GainsAtFrame(frame int) map[string]float64 {
	out := make(map[string]float64, len(m.layers))
	for _, l := range m.layers {
		out[l.ID] = l.GainAt(frame)
	}
	return out
}

// Active lists the ids of layers mounted at frame, sorted.
func (m *Mixer) Active(frame int) []string {
	var ids []string
	for _, l := range m.layers {
		if l.Active(frame) {
			ids = append(ids, l.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

// PeakConcurrency is the largest number of layers mounted at once within
// [0, total) and the first frame where it happens.
func (m *Mixer) PeakConcurrency(total int) (peak, at int) {
	type edge struct{ frame, delta int }
	edges := make([]edge, 0, 2*len(m.layers))
	for _, l := range m.layers {
		s, e := max(l.Start, 0), min(l.End, total)
		if s >= e {
			continue
		}
		edges = append(edges, edge{s, 1}, edge{e, -1})
	}
	// closing edges first so [a,b) and [b,c) do not count as overlapping
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].frame != edges[j].frame {
			return edges[i].frame < edges[j].frame
		}
		return edges[i].delta < edges[j].delta
	})
	cur := 0
	for _, e := range edges {
		cur += e.delta
		if cur > peak {
			peak, at = cur, e.frame
		}
	}
	return peak, at
}

// CheckConcurrency rejects configurations that would mount more than limit
// sources at once. A limit <= 0 disables the check.
func (m *Mixer) CheckConcurrency(total, limit int) error {
	if limit <= 0 {
		return nil
	}
	peak, at := m.PeakConcurrency(total)
	if peak > limit {
		return fmt.Errorf("%w: %d layers at frame %d (%v), limit %d", ErrTooManyLayers, peak, at, m.Active(at), limit)
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
