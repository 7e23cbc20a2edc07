package main

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dustin/go-humanize"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/spf13/cobra"

	"github.com/ivlev/promoreel/internal/composition"
	"github.com/ivlev/promoreel/internal/engine"
	"github.com/ivlev/promoreel/internal/preview"
	"github.com/ivlev/promoreel/internal/system"
	"github.com/ivlev/promoreel/internal/video"
)

var (
	mixRate     int
	muxRate     int
	gainFrom    int
	gainTo      int
	gainStep    int
	plotParams  []string
	plotWidth   int
	panelHeight int
	clipPaths   []string
	mixdownPath string
	stillGraph  bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Собрать композицию и показать ее структуру",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := loadComposition()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		tl := c.Timeline
		starts := tl.Starts()
		fmt.Fprintf(out, "%dx%d @ %g fps, %d frames (%.2fs)\n", c.Width, c.Height, c.FPS, c.Total(), float64(c.Total())/c.FPS)
		for i := 0; i < tl.Len(); i++ {
			s := tl.Scene(i)
			fmt.Fprintf(out, "  %-10s start %4d  duration %4d\n", s.Scene, starts[i], s.DurationInFrames)
			if i < tl.Len()-1 {
				ws, we := tl.TransitionWindow(i)
				fmt.Fprintf(out, "    -> %s [%d, %d)\n", c.Presentation(i).Name(), ws, we)
			}
		}
		peak, at := c.Mixer.PeakConcurrency(c.Total())
		fmt.Fprintf(out, "audio layers: %d, peak %d at frame %d\n", len(c.Mixer.Layers()), peak, at)
		fmt.Println("[+++] Композиция корректна")
		return nil
	},
}

var frameCmd = &cobra.Command{
	Use:   "frame <n>",
	Short: "Вычислить один глобальный кадр и вывести его в JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid frame %q: %w", args[0], err)
		}
		c, _, err := loadComposition()
		if err != nil {
			return err
		}
		fr := c.Frame(n)
		if stillGraph {
			graph, label := video.StillFilterGraph(fr, c.Width)
			fmt.Fprintf(cmd.OutOrStdout(), "graph: %s\noutput: %s\n", graph, label)
			return nil
		}
		data, err := sonic.ConfigStd.MarshalIndent(fr, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Параллельно вычислить диапазон кадров и записать JSON lines",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, path, err := loadComposition()
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if cfg.OutputPath != "" {
			if dir := filepath.Dir(cfg.OutputPath); dir != "." {
				ensureDir(dir)
			}
			f, err := os.Create(cfg.OutputPath)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		bw := bufio.NewWriter(w)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		eng := engine.New(cfg, c)
		stats, err := eng.Sample(ctx, cfg.From, cfg.To, cfg.Step, func(fr composition.Frame) error {
			line, err := sonic.ConfigStd.Marshal(fr)
			if err != nil {
				return err
			}
			if _, err := bw.Write(line); err != nil {
				return err
			}
			return bw.WriteByte('\n')
		})
		if err != nil {
			return err
		}
		if err := bw.Flush(); err != nil {
			return err
		}

		if cfg.ShowStats {
			fmt.Print(stats.Report(cfg.BuildVersion))
			if path == "" {
				path = "builtin-promo"
			}
			if err := stats.AppendLog(benchmarkLog, cfg.BuildVersion, path); err != nil {
				fmt.Printf("[!] Не удалось записать %s: %v\n", benchmarkLog, err)
			}
		}
		if cfg.OutputPath != "" {
			fmt.Printf("[+++] Кадров записано: %s -> %s\n", humanize.Comma(int64(stats.Frames)), cfg.OutputPath)
		}
		return nil
	},
}

var audioCmd = &cobra.Command{
	Use:   "audio",
	Short: "Громкость слоев по кадрам или сведение WAV источников (--mixdown)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := loadComposition()
		if err != nil {
			return err
		}
		if mixdownPath != "" {
			return mixdown(c, mixdownPath)
		}

		out := cmd.OutOrStdout()
		layers := c.Mixer.Layers()
		step := max(gainStep, 1)
		to := gainTo
		if to <= 0 {
			to = c.Total()
		}

		fmt.Fprintf(out, "%6s", "frame")
		for _, l := range layers {
			fmt.Fprintf(out, " %10s", l.ID)
		}
		fmt.Fprintln(out)
		for f := gainFrom; f < to; f += step {
			gains := c.Mixer.GainsAtFrame(f)
			fmt.Fprintf(out, "%6d", f)
			for _, l := range layers {
				fmt.Fprintf(out, " %10.3f", gains[l.ID])
			}
			fmt.Fprintln(out)
		}
		peak, at := c.Mixer.PeakConcurrency(c.Total())
		fmt.Fprintf(out, "peak concurrency %d at frame %d %v\n", peak, at, c.Mixer.Active(at))
		return nil
	},
}

// mixdown декодирует WAV источник каждого слоя из папки аудио и сводит
// всю композицию с учетом громкости слоев.
func mixdown(c *composition.Composition, out string) error {
	rate := beep.SampleRate(mixRate)
	sources := make(map[string]beep.Streamer)
	for _, l := range c.Mixer.Layers() {
		path := l.Source
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.AudioDir, path)
		}
		f, err := os.Open(path)
		if err != nil {
			fmt.Printf("[!] Слой %s пропущен: %v\n", l.ID, err)
			continue
		}
		s, format, err := wav.Decode(f)
		if err != nil {
			f.Close()
			fmt.Printf("[!] Слой %s пропущен: %v\n", l.ID, err)
			continue
		}
		defer s.Close()

		var src beep.Streamer = s
		if l.Loop {
			src = beep.Loop(-1, s)
		}
		if format.SampleRate != rate {
			src = beep.Resample(4, format.SampleRate, rate, src)
		}
		sources[l.ID] = src
	}

	if dir := filepath.Dir(out); dir != "." {
		ensureDir(dir)
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	total := audioSamples(c.Total(), c.FPS, rate)
	mix := c.Mixer.Mixdown(sources, c.FPS, rate)
	format := beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, beep.Take(total, mix), format); err != nil {
		return fmt.Errorf("encode %s: %w", out, err)
	}
	fmt.Printf("[+++] Сведено слоев: %d/%d -> %s\n", len(sources), len(c.Mixer.Layers()), out)
	return nil
}

func audioSamples(frames int, fps float64, rate beep.SampleRate) int {
	return int(math.Round(float64(frames) * float64(rate) / fps))
}

var previewCmd = &cobra.Command{
	Use:   "preview <scene>",
	Short: "Графики параметров сцены в PNG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := loadComposition()
		if err != nil {
			return err
		}
		id := args[0]
		sc, ok := c.Scenes[id]
		if !ok {
			return fmt.Errorf("unknown scene %q", id)
		}

		frames := int(math.Ceil(sc.SettleFrame())) + 1
		for i := 0; i < c.Timeline.Len(); i++ {
			if s := c.Timeline.Scene(i); s.Scene == id {
				frames = s.DurationInFrames
				break
			}
		}

		names := plotParams
		if len(names) == 0 {
			names = sc.Names()
		}
		img, err := preview.Plot(cmd.Context(), sc, names, frames, plotWidth, panelHeight*len(names))
		if err != nil {
			return err
		}

		out := cfg.OutputPath
		if out == "" {
			ensureDir(outputDir)
			out = filepath.Join(outputDir, fmt.Sprintf("preview_%s_%s.png", id, time.Now().Format("2006-01-02_15-04-05")))
		}
		if err := preview.WritePNG(out, img); err != nil {
			return err
		}
		fmt.Printf("[+++] Превью (%d параметров, %d кадров): %s\n", len(names), frames, out)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Проверять композицию при каждом сохранении файла",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.CompositionPath
		if path == "" {
			latest, err := composition.FindLatest(compositionsDir)
			if err != nil {
				return err
			}
			path = latest
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report := func(c *composition.Composition, err error) {
			if err != nil {
				fmt.Printf("[!] %s: %v\n", path, err)
				return
			}
			fmt.Printf("[+++] %s: %d кадров, %d сцен\n", path, c.Total(), c.Timeline.Len())
		}
		report(composition.Load(path))
		fmt.Printf("[*] Слежение за %s (Ctrl+C для остановки)\n", path)
		return composition.Watch(ctx, path, report)
	},
}

var muxCmd = &cobra.Command{
	Use:   "mux",
	Short: "Собрать клипы сцен и аудио через ffmpeg",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, path, err := loadComposition()
		if err != nil {
			return err
		}

		audioSrc := make(map[string]string)
		for _, l := range c.Mixer.Layers() {
			p := l.Source
			if !filepath.IsAbs(p) {
				p = filepath.Join(cfg.AudioDir, p)
			}
			audioSrc[l.ID] = p
		}

		encoder := cfg.VideoEncoder
		if encoder == "" {
			encoder = system.GetBestH264Encoder()
			if encoder != "libx264" {
				fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoder)
			}
		}

		out := cfg.OutputPath
		if out == "" {
			name := "promo"
			if path != "" {
				name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}
			ensureDir(outputDir)
			out = filepath.Join(outputDir, fmt.Sprintf("%s_%s.mp4", name, time.Now().Format("2006-01-02_15-04-05")))
		}

		job := video.Job{
			Comp:       c,
			SceneClips: clipPaths,
			Audio:      audioSrc,
			Output:     out,
			Params:     cfg.MuxParams(c.Width, c.Height, c.FPS, encoder, muxRate),
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		muxer := &video.FFmpegMuxer{}
		if err := muxer.Mux(ctx, job); err != nil {
			return err
		}
		fmt.Printf("[+++] Успех! Результат: %s\n", out)
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Сохранить встроенное промо в редактируемый YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cfg.OutputPath
		if out == "" {
			out = composition.GeneratePath(compositionsDir)
		}
		doc := composition.Promo()
		if err := applyOverrides(doc); err != nil {
			return err
		}
		if _, err := doc.Build(); err != nil {
			return err
		}
		if err := composition.Write(doc, out); err != nil {
			return err
		}
		fmt.Printf("[+++] Композиция сохранена: %s\n", out)
		return nil
	},
}

func init() {
	frameCmd.Flags().BoolVar(&stillGraph, "still-graph", false,
		"Вывести граф фильтров ffmpeg для кадра из статичных картинок сцен вместо JSON")

	sampleCmd.Flags().IntVar(&cfg.From, "from", 0, "Первый глобальный кадр")
	sampleCmd.Flags().IntVar(&cfg.To, "to", 0, "Конечный кадр, не включая (0 - конец композиции)")
	sampleCmd.Flags().IntVar(&cfg.Step, "step", 1, "Шаг по кадрам")

	audioCmd.Flags().IntVar(&gainFrom, "from", 0, "Первый глобальный кадр")
	audioCmd.Flags().IntVar(&gainTo, "to", 0, "Конечный кадр, не включая (0 - конец композиции)")
	audioCmd.Flags().IntVar(&gainStep, "step", 30, "Шаг по кадрам")
	audioCmd.Flags().StringVar(&cfg.AudioDir, "audio-dir", "input/audio", "Папка, относительно которой ищутся источники слоев")
	audioCmd.Flags().StringVar(&mixdownPath, "mixdown", "", "Свести WAV источники в этот файл")
	audioCmd.Flags().IntVar(&mixRate, "sample-rate", 44100, "Частота дискретизации сведения")

	previewCmd.Flags().StringSliceVar(&plotParams, "params", nil, "Параметры для графика (по умолчанию: все)")
	previewCmd.Flags().IntVar(&plotWidth, "plot-width", 960, "Ширина изображения")
	previewCmd.Flags().IntVar(&panelHeight, "panel-height", 120, "Высота панели одного параметра")

	muxCmd.Flags().StringSliceVar(&clipPaths, "clips", nil, "Клипы сцен в порядке таймлайна")
	muxCmd.Flags().StringVar(&cfg.AudioDir, "audio-dir", "input/audio", "Папка, относительно которой ищутся источники слоев")
	muxCmd.Flags().StringVar(&cfg.VideoEncoder, "encoder", "", "Видеоэнкодер (по умолчанию: лучший доступный H.264)")
	muxCmd.Flags().IntVar(&cfg.Quality, "quality", 0, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	muxCmd.Flags().IntVar(&muxRate, "sample-rate", 48000, "Частота дискретизации аудио")
}
