package system

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

var (
	AudioExtensions       = []string{".mp3", ".wav", ".m4a", ".ogg", ".aac", ".flac"}
	CompositionExtensions = []string{".yaml", ".yml"}
)

// Workers возвращает число потоков по умолчанию: по одному на логическое
// ядро (gopsutil), при ошибке берем значение рантайма Go.
func Workers() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// HostMemory описывает использование памяти для отчета о производительности.
type HostMemory struct {
	TotalMB     uint64
	UsedMB      uint64
	UsedPercent float64
}

func ReadHostMemory() (HostMemory, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return HostMemory{}, err
	}
	return HostMemory{
		TotalMB:     vm.Total / 1024 / 1024,
		UsedMB:      vm.Used / 1024 / 1024,
		UsedPercent: vm.UsedPercent,
	}, nil
}

// FindLatest находит самый свежий файл с одним из расширений exts
// (без учета регистра). Если передан файл, ищем в его директории.
func FindLatest(path string, exts ...string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	dir := path
	if !fi.IsDir() {
		dir = filepath.Dir(path)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time
	for _, f := range files {
		if f.IsDir() || !hasExt(f.Name(), exts) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no %s files found in %s", strings.Join(exts, "/"), dir)
	}
	return latestFile, nil
}

func hasExt(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// GetAudioDuration получает длительность медиафайла в секундах через ffprobe.
func GetAudioDuration(path string) (float64, error) {
	cmd := exec.Command("ffprobe", "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var duration float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &duration); err != nil {
		return 0, err
	}
	return duration, nil
}

// GetBestH264Encoder выбирает лучший доступный H.264 энкодер.
// Приоритеты:
// 1. MacOS (VideoToolbox)
// 2. NVIDIA (NVENC)
// 3. Software (libx264)
func GetBestH264Encoder() string {
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	for _, enc := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(string(out), enc) {
			return enc
		}
	}
	return "libx264"
}
