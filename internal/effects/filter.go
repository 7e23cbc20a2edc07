package effects

import "fmt"

// Filter renders one side of a transition as an ffmpeg filter chain for a
// single still frame. Width is needed to turn OffsetX into pixels.
func Filter(p Params, width int) string {
	chain := "format=rgba"
	if p.Blur > 0 {
		chain += fmt.Sprintf(",gblur=sigma=%.3f", p.Blur)
	}
	if p.Opacity < 1 {
		chain += fmt.Sprintf(",colorchannelmixer=aa=%.4f", clamp01(p.Opacity))
	}
	if p.OffsetX != 0 {
		dx := int(p.OffsetX * float64(width))
		if dx > 0 {
			chain += fmt.Sprintf(",pad=iw+%d:ih:%d:0:color=black@0,crop=iw-%d:ih:0:0", dx, dx, dx)
		} else {
			chain += fmt.Sprintf(",crop=iw-%d:ih:%d:0,pad=iw+%d:ih:0:0:color=black@0", -dx, -dx, -dx)
		}
	}
	return chain
}
