package effects

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnknownPresentation = errors.New("unknown transition presentation")

// Params is how one side of a transition is drawn at a given progress.
// OffsetX is a fraction of the frame width.
type Params struct {
	Opacity float64 `json:"opacity"`
	Blur    float64 `json:"blur"`
	OffsetX float64 `json:"offset_x"`
}

// Presentation maps transition progress to per-side drawing params. The
// timeline only carries the presentation name; compositors look it up here.
type Presentation interface {
	Name() string
	// XfadeName is the matching ffmpeg xfade transition.
	XfadeName() string
	Params(progress float64, entering bool) Params
}

// BlurDissolve cross-fades while blurring the outgoing scene out and the
// incoming scene into focus.
type BlurDissolve struct {
	MaxBlur float64
}

func (BlurDissolve) Name() string      { return "blur-dissolve" }
func (BlurDissolve) XfadeName() string { return "dissolve" }

func (b BlurDissolve) Params(progress float64, entering bool) Params {
	p := clamp01(progress)
	maxBlur := b.MaxBlur
	if maxBlur <= 0 {
		maxBlur = 10
	}
	if entering {
		return Params{Opacity: p, Blur: (1 - p) * maxBlur}
	}
	return Params{Opacity: 1 - p, Blur: p * maxBlur}
}

type Fade struct{}

func (Fade) Name() string      { return "fade" }
func (Fade) XfadeName() string { return "fade" }

func (Fade) Params(progress float64, entering bool) Params {
	p := clamp01(progress)
	if entering {
		return Params{Opacity: p}
	}
	return Params{Opacity: 1 - p}
}

// SlideLeft pushes the outgoing scene out to the left.
type SlideLeft struct{}

func (SlideLeft) Name() string      { return "slide-left" }
func (SlideLeft) XfadeName() string { return "slideleft" }

func (SlideLeft) Params(progress float64, entering bool) Params {
	p := clamp01(progress)
	if entering {
		return Params{Opacity: 1, OffsetX: 1 - p}
	}
	return Params{Opacity: 1, OffsetX: -p}
}

var registry = map[string]Presentation{
	"blur-dissolve": BlurDissolve{MaxBlur: 10},
	"fade":          Fade{},
	"slide-left":    SlideLeft{},
}

// Lookup resolves a presentation by name. The empty name is a plain fade;
// camelCase spellings like "blurDissolve" are accepted.
func Lookup(name string) (Presentation, error) {
	key := normalize(name)
	if key == "" {
		return Fade{}, nil
	}
	p, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownPresentation, name, strings.Join(Names(), ", "))
	}
	return p, nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func normalize(name string) string {
	var sb strings.Builder
	for i, r := range strings.TrimSpace(name) {
		switch {
		case r == '_' || r == ' ':
			sb.WriteByte('-')
		case r >= 'A' && r <= 'Z':
			if i > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(r + ('a' - 'A'))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
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
