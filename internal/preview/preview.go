package preview

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/promoreel/internal/scene"
	"github.com/ivlev/promoreel/internal/system"
)

var ErrUnknownParam = errors.New("unknown scene parameter")

var (
	background = color.RGBA{0x0a, 0x0a, 0x0f, 0xff}
	axis       = color.RGBA{0x30, 0x30, 0x3a, 0xff}
	curve      = color.RGBA{0x4b, 0xde, 0x81, 0xff}
	label      = color.RGBA{0xe0, 0xe0, 0xe0, 0xff}
)

const (
	margin      = 4
	labelHeight = 16
)

// Plot draws one panel per parameter, stacked vertically, each curve
// normalised to its own min/max over local frames [0, frames). No names
// means every numeric output of the scene.
func Plot(ctx context.Context, sc *scene.Scene, names []string, frames, w, h int) (*image.RGBA, error) {
	if len(names) == 0 {
		names = sc.Names()
	}
	if len(names) == 0 || frames < 2 {
		return nil, fmt.Errorf("nothing to plot: %d params over %d frames", len(names), frames)
	}
	signals := make([]scene.Signal, len(names))
	for i, n := range names {
		sig, ok := sc.Signal(n)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownParam, sc.ID, n)
		}
		signals[i] = sig
	}

	panelH := h / len(names)
	if panelH < labelHeight+2*margin+2 {
		return nil, fmt.Errorf("image height %d too small for %d panels", h, len(names))
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, panelH*len(names)))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(system.Workers())
	for i := range names {
		i := i // per-iteration copy (go directive < 1.22)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			panel := system.GetImage(image.Rect(0, 0, w, panelH))
			defer system.PutImage(panel)

			drawPanel(panel, names[i], signals[i], frames)
			// panels own disjoint rows of dst
			draw.Draw(dst, image.Rect(0, i*panelH, w, (i+1)*panelH), panel, image.Point{}, draw.Src)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dst, nil
}

func drawPanel(img *image.RGBA, name string, sig scene.Signal, frames int) {
	b := img.Bounds()
	draw.Draw(img, b, image.NewUniform(background), image.Point{}, draw.Src)

	values := make([]float64, frames)
	lo, hi := math.Inf(1), math.Inf(-1)
	for f := range values {
		v := sig.At(float64(f))
		values[f] = v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	top := margin + labelHeight
	bottom := b.Dy() - margin - 1
	for x := 0; x < b.Dx(); x++ {
		img.SetRGBA(x, bottom, axis)
	}

	toY := func(v float64) int {
		if hi == lo {
			return (top + bottom) / 2
		}
		return bottom - int(math.Round((v-lo)/(hi-lo)*float64(bottom-top)))
	}
	toX := func(f int) int {
		return int(math.Round(float64(f) * float64(b.Dx()-1) / float64(frames-1)))
	}

	px, py := toX(0), toY(values[0])
	for f := 1; f < frames; f++ {
		x, y := toX(f), toY(values[f])
		line(img, px, py, x, y, curve)
		px, py = x, y
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(label),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(margin, margin+basicfont.Face7x13.Ascent),
	}
	d.DrawString(fmt.Sprintf("%s  [%.3g .. %.3g]", name, lo, hi))
}

// line is Bresenham between two points, inclusive.
func line(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		img.SetRGBA(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// WritePNG stores img at path.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
