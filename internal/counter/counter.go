package counter

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/ivlev/promoreel/internal/easing"
	"github.com/ivlev/promoreel/internal/interpolate"
)

var ErrInvalidCounter = errors.New("invalid counter")

// Format renders a live counter value. It never depends on time.
type Format struct {
	Separator   string `yaml:"separator"`
	DecimalMark string `yaml:"decimal_mark"`
	Decimals    int    `yaml:"decimals"`
	Abbreviate  bool   `yaml:"abbreviate"`
	Prefix      string `yaml:"prefix"`
	Suffix      string `yaml:"suffix"`
}

// Counter counts from From to To over DurationSeconds after DelaySeconds.
type Counter struct {
	From            float64
	To              float64
	DurationSeconds float64
	DelaySeconds    float64
	FPS             float64
	Easing          easing.Easing
	Format          Format
}

type abbreviation struct {
	limit  float64
	suffix string
}

var abbreviations = []abbreviation{
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

func (c Counter) Validate() error {
	switch {
	case c.FPS <= 0:
		return fmt.Errorf("%w: fps must be positive, got %g", ErrInvalidCounter, c.FPS)
	case c.DurationSeconds <= 0:
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalidCounter, c.DurationSeconds)
	case c.DelaySeconds < 0:
		return fmt.Errorf("%w: delay must not be negative, got %g", ErrInvalidCounter, c.DelaySeconds)
	case c.Format.Decimals != 0 && c.Format.Decimals != 1:
		return fmt.Errorf("%w: decimals must be 0 or 1, got %d", ErrInvalidCounter, c.Format.Decimals)
	}
	return nil
}

// StartFrame is the first frame of the count.
func (c Counter) StartFrame() float64 { return c.DelaySeconds * c.FPS }

// EndFrame is the frame where the count reaches To.
func (c Counter) EndFrame() float64 { return c.StartFrame() + c.DurationSeconds*c.FPS }

// ValueAt is the numeric count at frame, clamped on both sides.
func (c Counter) ValueAt(frame float64) float64 {
	d, err := interpolate.New(
		[]float64{c.StartFrame(), c.EndFrame()},
		[]float64{c.From, c.To},
		interpolate.WithEasing(c.Easing),
		interpolate.ClampBoth(),
	)
	if err != nil {
		return c.From
	}
	return d.At(frame)
}

// StringAt formats the live value at frame.
func (c Counter) StringAt(frame float64) string {
	return c.Format.Format(c.ValueAt(frame))
}

// Format groups digits in threes and, when enabled, abbreviates with K/M/B
// picked from the value itself so the suffix follows the count.
func (f Format) Format(v float64) string {
	v = roundTo(v, f.Decimals)
	suffix := ""
	if f.Abbreviate {
		for i, a := range abbreviations {
			if math.Abs(v) < a.limit {
				continue
			}
			scaled := roundTo(v/a.limit, f.Decimals)
			// 999.95K shows as 1.0M, not 1,000.0K
			if math.Abs(scaled) >= 1000 && i > 0 {
				a = abbreviations[i-1]
				scaled = roundTo(v/a.limit, f.Decimals)
			}
			v, suffix = scaled, a.suffix
			break
		}
	}
	if v == 0 {
		v = 0 // no "-0"
	}

	pattern := "#,###."
	if f.Decimals == 1 {
		pattern = "#,###.#"
	}
	s := humanize.FormatFloat(pattern, v)

	sep := f.Separator
	mark := f.DecimalMark
	if mark == "" {
		mark = "."
	}
	if sep != "," || mark != "." {
		s = strings.NewReplacer(",", sep, ".", mark).Replace(s)
	}
	return f.Prefix + s + suffix + f.Suffix
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
