package sound

import "fmt"

// SampleRate is the rate, in Hz, of every buffer this package produces.
const SampleRate = 22050

// MaxSamples bounds the length of a synthesized effect (eight seconds).
const MaxSamples = SampleRate * 8

// Wave selects the oscillator used by an effect or a music voice.
type Wave int

const (
	Square Wave = iota
	Sawtooth
	Sine
	Triangle
	Noise
	Wobble // Sum of a cosine and a double-frequency sine.
)

func (w Wave) isValid() bool {
	switch w {
	case Square, Sawtooth, Sine, Triangle, Noise, Wobble:
		return true
	default:
		return false
	}
}

func (w Wave) String() string {
	switch w {
	case Square:
		return "square"
	case Sawtooth:
		return "sawtooth"
	case Sine:
		return "sine"
	case Triangle:
		return "triangle"
	case Noise:
		return "noise"
	case Wobble:
		return "wobble"
	default:
		return fmt.Sprintf("Wave(%d)", int(w))
	}
}

// Spec is the parametric description of one sound effect.
//
// Most fields follow the sfxr conventions: frequencies, durations and
// cutoffs are in 0..1, ramps and slides are in -1..1. The zero value of a
// field is "off" except for LPFCutoff, where 0 means a closed filter; use
// 1 to disable the low-pass stage.
type Spec struct {
	Wave Wave

	StartFreq  float64 // Base frequency.
	Slide      float64 // Frequency slide; positive rises, negative falls.
	DeltaSlide float64 // Acceleration of Slide.
	FreqLimit  float64 // Frequency floor. When nonzero, reaching it ends the effect.

	Duty      float64 // Square wave duty cycle.
	DutySweep float64

	VibratoDepth float64
	VibratoSpeed float64

	ArpeggioMod   float64 // Pitch jump applied once after ArpeggioSpeed elapses.
	ArpeggioSpeed float64

	Attack  float64
	Sustain float64
	Punch   float64 // Extra volume at the start of the sustain stage.
	Decay   float64

	RepeatSpeed float64

	PhaserOffset float64
	PhaserSweep  float64

	LPFCutoff    float64
	LPFRamp      float64
	LPFResonance float64
	HPFCutoff    float64
	HPFRamp      float64

	Volume float64 // Trim in -1..1 applied on top of the fixed output gain.
}

// Data is an immutable buffer of synthesized 16-bit samples. Playbacks
// share a *Data and compare sounds by pointer.
type Data struct {
	samples []int16
}

// NewData wraps samples, capped at MaxSamples, trimming trailing silence.
// The slice is owned by the returned Data afterwards.
func NewData(samples []int16) *Data {
	n := min(len(samples), MaxSamples)
	for n > 0 && samples[n-1] == 0 {
		n--
	}
	return &Data{samples: samples[:n:n]}
}

// Samples returns the sample buffer. Callers must not modify it.
func (d *Data) Samples() []int16 {
	if d == nil {
		return nil
	}
	return d.samples
}

// Len returns the number of samples.
func (d *Data) Len() int {
	if d == nil {
		return 0
	}
	return len(d.samples)
}

// Seconds returns the playback length at SampleRate.
func (d *Data) Seconds() float64 {
	return float64(d.Len()) / SampleRate
}
