package timeline

import (
	"errors"
	"fmt"

	"github.com/ivlev/promoreel/internal/interpolate"
)

var ErrInvalidTimeline = errors.New("invalid timeline")

// Slot is one entry of the authored sequence: a scene or a transition.
type Slot interface {
	slot()
	Frames() int
}

// SceneSlot places a scene for DurationInFrames frames.
type SceneSlot struct {
	Scene            string
	DurationInFrames int
}

// TransitionSlot overlaps the two neighbouring scenes for DurationInFrames.
type TransitionSlot struct {
	DurationInFrames int
	Presentation     string
}

func (SceneSlot) slot()      {}
func (TransitionSlot) slot() {}

func (s SceneSlot) Frames() int      { return s.DurationInFrames }
func (t TransitionSlot) Frames() int { return t.DurationInFrames }

// Role tells the renderer how a scene takes part in the current frame.
type Role string

const (
	Solo     Role = "solo"
	Outgoing Role = "outgoing"
	Incoming Role = "incoming"
)

// ActiveScene is a scene visible at the queried frame.
type ActiveScene struct {
	Index      int    `json:"index"`
	Scene      string `json:"scene"`
	LocalFrame int    `json:"localFrame"`
	Role       Role   `json:"role"`
}

// TransitionState describes an overlap in progress.
type TransitionState struct {
	From         int     `json:"from"`
	To           int     `json:"to"`
	Progress     float64 `json:"progress"`
	Presentation string  `json:"presentation,omitempty"`
}

// ActiveSet is the resolution of one global frame: one scene, or two scenes
// plus the transition between them.
type ActiveSet struct {
	Frame      int              `json:"frame"`
	Clamped    bool             `json:"clamped,omitempty"`
	Scenes     []ActiveScene    `json:"scenes"`
	Transition *TransitionState `json:"transition,omitempty"`
}

// Timeline is immutable after New and safe for concurrent Resolve calls.
type Timeline struct {
	scenes      []SceneSlot
	transitions []TransitionSlot // transitions[i] sits between scene i and i+1
	starts      []int
	total       int
}

// New validates the slot sequence and computes scene starts once.
// Slots must alternate scene/transition/scene, start and end with a scene.
// A transition may not be longer than either neighbour, and the two
// transitions touching a scene must fit inside it so that no more than two
// scenes are ever active together.
func New(slots ...Slot) (*Timeline, error) {
	if len(slots) == 0 {
		return nil, fmt.Errorf("%w: no slots", ErrInvalidTimeline)
	}

	tl := &Timeline{}
	for i, s := range slots {
		wantScene := i%2 == 0
		switch v := s.(type) {
		case SceneSlot:
			if !wantScene {
				return nil, fmt.Errorf("%w: slot %d: scene %q follows another scene", ErrInvalidTimeline, i, v.Scene)
			}
			if v.DurationInFrames <= 0 {
				return nil, fmt.Errorf("%w: scene %q: duration must be positive, got %d", ErrInvalidTimeline, v.Scene, v.DurationInFrames)
			}
			tl.scenes = append(tl.scenes, v)
		case TransitionSlot:
			if wantScene {
				return nil, fmt.Errorf("%w: slot %d: transition must sit between two scenes", ErrInvalidTimeline, i)
			}
			if v.DurationInFrames <= 0 {
				return nil, fmt.Errorf("%w: slot %d: transition duration must be positive, got %d", ErrInvalidTimeline, i, v.DurationInFrames)
			}
			tl.transitions = append(tl.transitions, v)
		default:
			return nil, fmt.Errorf("%w: slot %d: unknown slot type %T", ErrInvalidTimeline, i, s)
		}
	}
	if len(slots)%2 == 0 {
		return nil, fmt.Errorf("%w: timeline must end with a scene", ErrInvalidTimeline)
	}

	for i, tr := range tl.transitions {
		prev, next := tl.scenes[i], tl.scenes[i+1]
		if tr.DurationInFrames > prev.DurationInFrames || tr.DurationInFrames > next.DurationInFrames {
			return nil, fmt.Errorf("%w: transition %d (%d frames) is longer than %q (%d) or %q (%d)",
				ErrInvalidTimeline, i, tr.DurationInFrames, prev.Scene, prev.DurationInFrames, next.Scene, next.DurationInFrames)
		}
	}
	for i, sc := range tl.scenes {
		if i == 0 || i == len(tl.scenes)-1 {
			continue
		}
		in, out := tl.transitions[i-1].DurationInFrames, tl.transitions[i].DurationInFrames
		if in+out > sc.DurationInFrames {
			return nil, fmt.Errorf("%w: scene %q (%d frames) cannot hold both transitions (%d + %d)",
				ErrInvalidTimeline, sc.Scene, sc.DurationInFrames, in, out)
		}
	}

	tl.starts = make([]int, len(tl.scenes))
	at := 0
	for i, sc := range tl.scenes {
		tl.starts[i] = at
		at += sc.DurationInFrames
		if i < len(tl.transitions) {
			at -= tl.transitions[i].DurationInFrames
		}
	}
	tl.total = at
	return tl, nil
}

// Starts returns the global start frame of every scene.
func (t *Timeline) Starts() []int { return append([]int(nil), t.starts...) }

// Total is sum(scene durations) - sum(transition durations).
func (t *Timeline) Total() int { return t.total }

// Len is the number of scenes.
func (t *Timeline) Len() int { return len(t.scenes) }

// Scene returns the slot of scene i.
func (t *Timeline) Scene(i int) SceneSlot { return t.scenes[i] }

// Transition returns the transition after scene i.
func (t *Timeline) Transition(i int) TransitionSlot { return t.transitions[i] }

// TransitionWindow is the global [start, end) overlap after scene i.
func (t *Timeline) TransitionWindow(i int) (int, int) {
	end := t.starts[i] + t.scenes[i].DurationInFrames
	return end - t.transitions[i].DurationInFrames, end
}

// Resolve maps a global frame to the active scene(s). Frames outside
// [0, Total) resolve to the nearest boundary frame and report Clamped, so a
// renderer probing one frame past the end still gets the final state.
func (t *Timeline) Resolve(frame int) ActiveSet {
	set := ActiveSet{Frame: frame}
	if frame < 0 {
		frame = 0
		set.Clamped = true
	} else if frame >= t.total {
		frame = t.total - 1
		set.Clamped = true
	}

	cur := 0
	for i := len(t.starts) - 1; i >= 0; i-- {
		if frame >= t.starts[i] {
			cur = i
			break
		}
	}

	// the newest scene started inside the previous scene's tail
	if cur > 0 {
		ws, we := t.TransitionWindow(cur - 1)
		if frame >= ws && frame < we {
			return t.overlap(set, cur-1, frame, ws)
		}
	}

	set.Scenes = []ActiveScene{{
		Index:      cur,
		Scene:      t.scenes[cur].Scene,
		LocalFrame: frame - t.starts[cur],
		Role:       Solo,
	}}
	return set
}

func (t *Timeline) overlap(set ActiveSet, i, frame, windowStart int) ActiveSet {
	tr := t.transitions[i]
	progress := interpolate.MustNew(
		[]float64{float64(windowStart), float64(windowStart + tr.DurationInFrames)},
		[]float64{0, 1},
		interpolate.ClampBoth(),
	).AtFrame(frame)

	set.Scenes = []ActiveScene{
		{Index: i, Scene: t.scenes[i].Scene, LocalFrame: frame - t.starts[i], Role: Outgoing},
		{Index: i + 1, Scene: t.scenes[i+1].Scene, LocalFrame: frame - t.starts[i+1], Role: Incoming},
	}
	set.Transition = &TransitionState{
		From:         i,
		To:           i + 1,
		Progress:     progress,
		Presentation: tr.Presentation,
	}
	return set
}
