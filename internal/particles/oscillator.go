package particles

import "math"

// Wave selects the periodic function of an Oscillator.
type Wave string

const (
	Sine   Wave = "sin"
	Cosine Wave = "cos"
)

// Oscillator is closed-form periodic motion used for floating orbs, card
// bobbing and glow pulses: Offset + wave(frame/Period + Phase) * Amplitude.
type Oscillator struct {
	Wave      Wave    `yaml:"wave"`
	Amplitude float64 `yaml:"amplitude"`
	Period    float64 `yaml:"period"`
	Phase     float64 `yaml:"phase"`
	Offset    float64 `yaml:"offset"`
	// Shift is added to the frame before dividing by Period.
	Shift float64 `yaml:"shift"`
}

func (o Oscillator) At(frame float64) float64 {
	if o.Period == 0 {
		return o.Offset
	}
	arg := (frame+o.Shift)/o.Period + o.Phase
	if o.Wave == Cosine {
		return o.Offset + math.Cos(arg)*o.Amplitude
	}
	return o.Offset + math.Sin(arg)*o.Amplitude
}
