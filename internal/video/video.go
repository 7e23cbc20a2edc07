package video

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strings"

	"github.com/ivlev/promoreel/internal/audio"
	"github.com/ivlev/promoreel/internal/composition"
	"github.com/ivlev/promoreel/internal/config"
	"github.com/ivlev/promoreel/internal/effects"
	"github.com/ivlev/promoreel/internal/timeline"
)

var ErrMissingInput = errors.New("missing mux input")

// Muxer собирает отрендеренные клипы сцен и аудио в итоговый файл.
type Muxer interface {
	Mux(ctx context.Context, job Job) error
}

// Job описывает входы сборки: по клипу на сцену в порядке таймлайна
// и путь к источнику для каждого аудиослоя.
type Job struct {
	Comp       *composition.Composition
	SceneClips []string
	Audio      map[string]string
	Output     string
	Params     config.MuxParams
}

type FFmpegMuxer struct{}

func (m *FFmpegMuxer) Mux(ctx context.Context, job Job) error {
	args, err := BuildArgs(job)
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg mux error: %v, output: %s", err, string(out))
	}
	return nil
}

// XfadeOffsets возвращает offset xfade для каждого перехода в секундах:
// момент начала входящей сцены на общем таймлайне.
func XfadeOffsets(tl *timeline.Timeline, fps float64) []float64 {
	starts := tl.Starts()
	offsets := make([]float64, 0, len(starts)-1)
	for i := 1; i < len(starts); i++ {
		offsets = append(offsets, float64(starts[i])/fps)
	}
	return offsets
}

// VideoFilterGraph склеивает входы [0:v]..[n-1:v] через xfade и
// возвращает граф и метку выхода.
func VideoFilterGraph(c *composition.Composition) (string, string) {
	tl := c.Timeline
	if tl.Len() == 1 {
		return "", "0:v"
	}

	var sb strings.Builder
	last := "[0:v]"
	for i, offset := range XfadeOffsets(tl, c.FPS) {
		out := fmt.Sprintf("[v%d]", i+1)
		fmt.Fprintf(&sb, "%s[%d:v]xfade=transition=%s:duration=%f:offset=%f%s;",
			last, i+1, c.Presentation(i).XfadeName(), float64(tl.Transition(i).DurationInFrames)/c.FPS, offset, out)
		last = out
	}
	return strings.TrimSuffix(sb.String(), ";"), strings.Trim(last, "[]")
}

// StillFilterGraph рисует один кадр из статичных картинок сцен: вход k
// соответствует fr.Scenes[k]. Каждая сторона получает свой фильтр перехода,
// входящая сцена накладывается поверх уходящей.
func StillFilterGraph(fr composition.Frame, width int) (string, string) {
	if len(fr.Scenes) == 1 && fr.Scenes[0].Present == (effects.Params{Opacity: 1}) {
		return "", "0:v"
	}

	var sb strings.Builder
	for k, sf := range fr.Scenes {
		fmt.Fprintf(&sb, "[%d:v]%s[s%d];", k, effects.Filter(sf.Present, width), k)
	}
	if len(fr.Scenes) == 1 {
		return strings.TrimSuffix(sb.String(), ";"), "s0"
	}
	sb.WriteString("[s0][s1]overlay=0:0:format=auto[still]")
	return sb.String(), "still"
}

// AudioFilterGraph подключает слой k микшера со входа firstInput+k:
// обрезка по длине окна, задержка до старта и громкость по кривой,
// которая считается по глобальному времени. Слои суммируются amix без
// нормализации и обрезаются по общей длительности.
func AudioFilterGraph(m *audio.Mixer, fps float64, total, firstInput int) (string, string) {
	layers := m.Layers()
	if len(layers) == 0 {
		return "", ""
	}

	var sb strings.Builder
	labels := make([]string, len(layers))
	for k, l := range layers {
		delayMs := int(math.Round(float64(l.Start) / fps * 1000))
		labels[k] = fmt.Sprintf("[a%d]", k)
		fmt.Fprintf(&sb, "[%d:a]atrim=0:%f,asetpts=PTS-STARTPTS,adelay=%d|%d,volume='%s':eval=frame%s;",
			firstInput+k, float64(l.End-l.Start)/fps, delayMs, delayMs, GainExpr(l, fps), labels[k])
	}
	fmt.Fprintf(&sb, "%samix=inputs=%d:duration=longest:normalize=0,atrim=0:%f[aout]",
		strings.Join(labels, ""), len(layers), float64(total)/fps)
	return sb.String(), "aout"
}

// GainExpr переводит громкость слоя в выражение ffmpeg от t (в секундах).
// Громкость берется по кадрам и сворачивается в линейные участки,
// чтобы фейды занимали несколько членов.
func GainExpr(l audio.Layer, fps float64) string {
	pts := breakpoints(l)
	if len(pts) == 1 {
		return formatGain(pts[0].gain)
	}

	// Внутренний член: значение после последней точки излома
	expr := formatGain(pts[len(pts)-1].gain)
	for i := len(pts) - 2; i >= 0; i-- {
		a, b := pts[i], pts[i+1]
		ta, tb := float64(a.frame)/fps, float64(b.frame)/fps
		var piece string
		if a.gain == b.gain {
			piece = formatGain(a.gain)
		} else {
			slope := (b.gain - a.gain) / (tb - ta)
			piece = fmt.Sprintf("%s+(t-%s)*%s", formatGain(a.gain), formatGain(ta), formatGain(slope))
		}
		expr = fmt.Sprintf("if(lt(t,%s),%s,%s)", formatGain(tb), piece, expr)
	}
	return expr
}

type point struct {
	frame int
	gain  float64
}

// breakpoints оставляет кадры, где меняется наклон громкости.
func breakpoints(l audio.Layer) []point {
	last := l.End - 1
	pts := []point{{l.Start, l.GainAt(l.Start)}}
	for f := l.Start + 1; f < last; f++ {
		prev, cur, next := l.GainAt(f-1), l.GainAt(f), l.GainAt(f+1)
		if math.Abs((cur-prev)-(next-cur)) > 1e-9 {
			pts = append(pts, point{f, cur})
		}
	}
	if last > l.Start {
		pts = append(pts, point{last, l.GainAt(last)})
	}
	if len(pts) == 2 && pts[0].gain == pts[1].gain {
		return pts[:1]
	}
	return pts
}

func formatGain(v float64) string {
	s := fmt.Sprintf("%.6f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

// BuildArgs собирает аргументы ffmpeg для задачи.
func BuildArgs(job Job) ([]string, error) {
	c := job.Comp
	if len(job.SceneClips) != c.Timeline.Len() {
		return nil, fmt.Errorf("%w: %d scene clips for %d scenes", ErrMissingInput, len(job.SceneClips), c.Timeline.Len())
	}

	args := []string{"-y"}
	for _, p := range job.SceneClips {
		args = append(args, "-i", p)
	}
	for _, l := range c.Mixer.Layers() {
		src, ok := job.Audio[l.ID]
		if !ok {
			return nil, fmt.Errorf("%w: audio layer %q", ErrMissingInput, l.ID)
		}
		if l.Loop {
			args = append(args, "-stream_loop", "-1")
		}
		args = append(args, "-i", src)
	}

	vGraph, vOut := VideoFilterGraph(c)
	aGraph, aOut := AudioFilterGraph(c.Mixer, c.FPS, c.Total(), len(job.SceneClips))

	graph := strings.Trim(vGraph+";"+aGraph, ";")
	if graph != "" {
		args = append(args, "-filter_complex", graph)
	}
	args = append(args, "-map", mapLabel(vOut))
	if aOut != "" {
		args = append(args, "-map", mapLabel(aOut))
	}

	p := job.Params
	encoder := p.Encoder
	if encoder == "" {
		encoder = "libx264"
	}
	args = append(args, "-r", formatGain(c.FPS), "-c:v", encoder, "-pix_fmt", "yuv420p")
	args = append(args, qualityArgs(encoder, p.Quality)...)
	if aOut != "" {
		args = append(args, "-c:a", "aac")
		if p.SampleRate > 0 {
			args = append(args, "-ar", fmt.Sprintf("%d", p.SampleRate))
		}
	}
	args = append(args, "-t", fmt.Sprintf("%f", float64(c.Total())/c.FPS), job.Output)
	return args, nil
}

func mapLabel(label string) string {
	if strings.Contains(label, ":") {
		return label
	}
	return "[" + label + "]"
}

func qualityArgs(encoder string, quality int) []string {
	if quality <= 0 {
		quality = 23
	}
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox часто не поддерживает -q:v напрямую на всех версиях. Используем битрейт.
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default: // libx264
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}
