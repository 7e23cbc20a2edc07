package composition

import (
	"fmt"
	"math"
)

// FitTo rescales scene durations so the composition lasts totalFrames, for
// example to match a music bed. Transitions keep their length, so the scenes
// together must cover totalFrames plus every overlap. Durations stay whole
// frames; the last scene absorbs the rounding. Audio layers that ran to the
// old end are stretched to the new one.
func (d *Document) FitTo(totalFrames int) error {
	if totalFrames <= 0 {
		return fmt.Errorf("%w: cannot fit to %d frames", ErrInvalidComposition, totalFrames)
	}

	var scenes []int
	sceneSum, overlap := 0, 0
	for i, e := range d.Timeline {
		if e.Scene != "" {
			scenes = append(scenes, i)
			sceneSum += e.Duration
		} else {
			overlap += e.Duration
		}
	}
	if len(scenes) == 0 || sceneSum <= 0 {
		return fmt.Errorf("%w: timeline has no scenes to fit", ErrInvalidComposition)
	}

	oldTotal := sceneSum - overlap
	target := totalFrames + overlap
	scale := float64(target) / float64(sceneSum)

	assigned := 0
	for k, i := range scenes {
		if k == len(scenes)-1 {
			d.Timeline[i].Duration = target - assigned
			break
		}
		n := int(math.Round(float64(d.Timeline[i].Duration) * scale))
		d.Timeline[i].Duration = n
		assigned += n
	}

	for i := range d.Audio {
		if d.Audio[i].End == oldTotal {
			d.Audio[i].End = totalFrames
		}
	}
	return nil
}
