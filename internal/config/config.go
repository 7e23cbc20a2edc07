package config

import (
	"errors"
	"fmt"
)

// Config is the run configuration assembled from command line flags.
// Zero values leave the composition's own settings in place.
type Config struct {
	CompositionPath string
	OutputPath      string
	AudioDir        string
	FPS             float64
	Width           int
	Height          int
	Workers         int
	MaxAudioLayers  int
	From            int
	To              int
	Step            int
	FitDuration     float64
	VideoEncoder    string
	Quality         int
	ShowStats       bool
	BuildVersion    string
}

// MuxParams is what the ffmpeg adapter needs to assemble the final file.
type MuxParams struct {
	Width, Height int
	FPS           float64
	Encoder       string
	Quality       int
	SampleRate    int
}

// Validate rejects flag combinations that cannot describe a run.
func (c *Config) Validate() error {
	var errs []error
	if c.FPS < 0 {
		errs = append(errs, fmt.Errorf("fps must not be negative, got %g", c.FPS))
	}
	if c.Width < 0 || c.Height < 0 {
		errs = append(errs, fmt.Errorf("invalid size %dx%d", c.Width, c.Height))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.Step < 0 {
		errs = append(errs, fmt.Errorf("step must not be negative, got %d", c.Step))
	}
	if c.To > 0 && c.To < c.From {
		errs = append(errs, fmt.Errorf("empty frame range [%d, %d)", c.From, c.To))
	}
	if c.FitDuration < 0 {
		errs = append(errs, fmt.Errorf("fit duration must not be negative, got %g", c.FitDuration))
	}
	return errors.Join(errs...)
}

// MuxParams fills in the encoder settings for a mux. A zero Quality picks
// the usual default of the chosen encoder.
func (c *Config) MuxParams(width, height int, fps float64, encoder string, sampleRate int) MuxParams {
	quality := c.Quality
	if quality == 0 {
		switch encoder {
		case "h264_videotoolbox":
			quality = 75
		case "h264_nvenc":
			quality = 28
		default:
			quality = 23
		}
	}
	return MuxParams{
		Width:      width,
		Height:     height,
		FPS:        fps,
		Encoder:    encoder,
		Quality:    quality,
		SampleRate: sampleRate,
	}
}
