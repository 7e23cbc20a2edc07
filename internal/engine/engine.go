package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/promoreel/internal/composition"
	"github.com/ivlev/promoreel/internal/config"
	"github.com/ivlev/promoreel/internal/system"
)

var ErrEmptyRange = errors.New("empty frame range")

// Sink получает кадры по возрастанию номера. Ошибка останавливает прогон.
type Sink func(composition.Frame) error

// Engine вычисляет композицию покадрово. Кадры независимы, поэтому
// диапазон раздается ограниченному числу воркеров, а результаты
// упорядочиваются перед передачей в sink.
type Engine struct {
	Config *config.Config
	Comp   *composition.Composition
}

func New(cfg *config.Config, comp *composition.Composition) *Engine {
	return &Engine{Config: cfg, Comp: comp}
}

// Frame вычисляет один глобальный кадр.
func (e *Engine) Frame(n int) composition.Frame {
	return e.Comp.Frame(n)
}

func (e *Engine) workers() int {
	if e.Config != nil && e.Config.Workers > 0 {
		return e.Config.Workers
	}
	return system.Workers()
}

// Sample вычисляет кадры from, from+step, ... до to (не включая).
// to = 0 означает конец композиции, step = 0 означает каждый кадр.
func (e *Engine) Sample(ctx context.Context, from, to, step int, sink Sink) (*Stats, error) {
	if to <= 0 {
		to = e.Comp.Total()
	}
	if step <= 0 {
		step = 1
	}
	if to <= from {
		return nil, fmt.Errorf("%w: [%d, %d)", ErrEmptyRange, from, to)
	}

	frames := make([]int, 0, (to-from+step-1)/step)
	for f := from; f < to; f += step {
		frames = append(frames, f)
	}

	workers := e.workers()
	// Окно в несколько кадров на воркер, чтобы память не росла на длинных прогонах
	window := workers * 4
	stats := &Stats{Workers: workers, Frames: len(frames)}
	start := time.Now()

	for lo := 0; lo < len(frames); lo += window {
		hi := min(lo+window, len(frames))
		batch := make([]composition.Frame, hi-lo)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i := lo; i < hi; i++ {
			i := i // per-iteration copy (go directive < 1.22)
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				batch[i-lo] = e.Comp.Frame(frames[i])
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for _, fr := range batch {
			if err := sink(fr); err != nil {
				return nil, fmt.Errorf("frame %d: %w", fr.Frame, err)
			}
		}
		if e.Config != nil && e.Config.ShowStats {
			fmt.Printf("[>] Вычислено: %d/%d\n", hi, len(frames))
		}
	}

	stats.Elapsed = time.Since(start)
	return stats, nil
}

// Stats: статистика одного прогона Sample.
type Stats struct {
	Workers int
	Frames  int
	Elapsed time.Duration
}

func (s *Stats) FPS() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Frames) / s.Elapsed.Seconds()
}

// Report формирует отчет о производительности.
func (s *Stats) Report(build string) string {
	memLine := "Host Memory: n/a\n"
	if m, err := system.ReadHostMemory(); err == nil {
		memLine = fmt.Sprintf("Host Memory: %d/%d MB (%.1f%%)\n", m.UsedMB, m.TotalMB, m.UsedPercent)
	}
	return fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Workers: %d\n"+
			"Frames: %d\n"+
			"Total Time: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"%s"+
			"----------------------------\n",
		build, s.Workers, s.Frames, s.Elapsed.Seconds(), s.FPS(), memLine,
	)
}

// AppendLog дописывает строку бенчмарка в path.
func (s *Stats) AppendLog(path, build, input string) error {
	entry := fmt.Sprintf("[%s] Build: %s | Input: %s | Frames: %d | Workers: %d | Total: %.2fs | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		build,
		filepath.Base(input),
		s.Frames,
		s.Workers,
		s.Elapsed.Seconds(),
		s.FPS(),
	)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(entry)
	return err
}
