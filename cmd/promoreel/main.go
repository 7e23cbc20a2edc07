package main

import (
	"fmt"
	"log"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/ivlev/promoreel/internal/composition"
	"github.com/ivlev/promoreel/internal/config"
	"github.com/ivlev/promoreel/internal/system"
)

const (
	compositionsDir = "compositions"
	outputDir       = "output"
	benchmarkLog    = "benchmark.log"
)

var buildVersion = "dev"

var (
	cfg = &config.Config{}

	// --fit-audio: трек (или папка), под длительность которого подгоняются сцены
	fitAudio string

	rootCmd = &cobra.Command{
		Use:   "promoreel",
		Short: "Покадровый движок таймлайна промо-ролика",
		Long: `promoreel вычисляет декларативную промо-композицию покадрово.

Каждый кадр является чистой функцией номера кадра и композиции, поэтому
кадры можно запрашивать в любом порядке и параллельно. Без --composition
берется самый свежий файл в compositions/, иначе встроенное промо.

Примеры:
  promoreel validate                            # проверить композицию
  promoreel frame 140                           # один кадр в JSON
  promoreel sample --step 10 -o frames.jsonl    # каждый 10-й кадр
  promoreel audio --step 30                     # громкость слоев во времени
  promoreel preview stats                       # графики сцены stats
  promoreel watch -c compositions/promo.yaml    # проверка при сохранении`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg.BuildVersion = buildVersion
			return cfg.Validate()
		},
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfg.CompositionPath, "composition", "c", "",
		"Путь к YAML композиции (по умолчанию: самый свежий файл в compositions/, иначе встроенное промо)")
	pf.StringVarP(&cfg.OutputPath, "output", "o", "",
		"Выходной файл (по умолчанию зависит от команды)")
	pf.Float64Var(&cfg.FPS, "fps", 0, "FPS (переопределяет значение композиции)")
	pf.IntVar(&cfg.Width, "width", 0, "Ширина (переопределяет значение композиции)")
	pf.IntVar(&cfg.Height, "height", 0, "Высота (переопределяет значение композиции)")
	pf.IntVar(&cfg.Workers, "workers", 0, "Потоки (0 - по числу ядер)")
	pf.IntVar(&cfg.MaxAudioLayers, "max-audio-layers", 0,
		"Максимум одновременных аудиослоев (0 - из композиции)")
	pf.BoolVar(&cfg.ShowStats, "stats", false, "Показывать прогресс и отчет о производительности")
	pf.Float64Var(&cfg.FitDuration, "fit-duration", 0, "Подогнать сцены под общую длительность в секундах")
	pf.StringVar(&fitAudio, "fit-audio", "", "Подогнать сцены под длительность аудио (файл или самый свежий в папке, через ffprobe)")

	rootCmd.AddCommand(validateCmd, frameCmd, sampleCmd, audioCmd, previewCmd, watchCmd, muxCmd, initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("[-] %v", err)
	}
}

// loadDocument выбирает источник композиции и применяет переопределения
// из флагов. Для встроенного промо путь пустой.
func loadDocument() (*composition.Document, string, error) {
	path := cfg.CompositionPath
	if path == "" {
		if latest, err := composition.FindLatest(compositionsDir); err == nil {
			path = latest
			fmt.Printf("[*] Выбрана композиция: %s\n", path)
		}
	}

	var doc *composition.Document
	if path == "" {
		fmt.Println("[*] Используется встроенная промо-композиция")
		doc = composition.Promo()
	} else {
		d, err := composition.Read(path)
		if err != nil {
			return nil, "", err
		}
		doc = d
	}

	if err := applyOverrides(doc); err != nil {
		return nil, "", err
	}
	return doc, path, nil
}

func applyOverrides(doc *composition.Document) error {
	if cfg.FPS > 0 {
		doc.FPS = cfg.FPS
	}
	if cfg.Width > 0 {
		doc.Width = cfg.Width
	}
	if cfg.Height > 0 {
		doc.Height = cfg.Height
	}
	if cfg.MaxAudioLayers > 0 {
		doc.MaxAudioLayers = cfg.MaxAudioLayers
	}

	seconds := cfg.FitDuration
	if fitAudio != "" {
		if fi, err := os.Stat(fitAudio); err == nil && fi.IsDir() {
			latest, err := system.FindLatest(fitAudio, system.AudioExtensions...)
			if err != nil {
				return err
			}
			fitAudio = latest
			fmt.Printf("[*] Выбрано аудио: %s\n", fitAudio)
		}
		d, err := system.GetAudioDuration(fitAudio)
		if err != nil {
			log.Printf("[!] Не удалось получить длительность аудио: %v", err)
		} else {
			seconds = d
			fmt.Printf("[*] Длительность видео установлена по аудио: %.2fs\n", seconds)
		}
	}
	if seconds > 0 {
		if err := doc.FitTo(int(math.Round(seconds * doc.FPS))); err != nil {
			return err
		}
	}
	return nil
}

func loadComposition() (*composition.Composition, string, error) {
	doc, path, err := loadDocument()
	if err != nil {
		return nil, "", err
	}
	c, err := doc.Build()
	if err != nil {
		return nil, "", err
	}
	return c, path, nil
}

func ensureDir(path string) {
	if err := os.MkdirAll(path, 0755); err != nil {
		log.Printf("[!] Не удалось создать %s: %v", path, err)
	}
}
