package sound

import (
	"math"
	"math/rand/v2"
)

// Supersampling is the number of oscillator steps averaged per synthesis
// sample.
const Supersampling = 8

const noiseLen = 32

// NoiseBuffer holds the random values a noise oscillator steps through
// during one period.
type NoiseBuffer [noiseLen]float64

// FillRandom refills the buffer from the process-global generator.
func (n *NoiseBuffer) FillRandom() {
	for i := range n {
		n[i] = rand.Float64()*2 - 1
	}
}

// FillLCG refills the buffer from a linear congruential generator whose
// state is kept by the caller, so that music voices stay reproducible.
func (n *NoiseBuffer) FillLCG(state *uint32) {
	for i := range n {
		*state = *state*1103515245 + 12345
		n[i] = float64(*state)/float64(1<<31) - 1
	}
}

// Oscillator returns one supersample of the waveform kind at the given
// phase, where 0 <= phase < period and both are measured in supersamples.
// duty only affects Square and is the fraction of the period spent high.
// noise is read by Noise; callers refill it each time the phase wraps.
func Oscillator(kind Wave, phase, period, duty float64, noise *NoiseBuffer) float64 {
	fp := phase / period
	switch kind {
	case Square:
		if fp < duty {
			return 0.5
		}
		return -0.5
	case Sawtooth:
		return 1 - fp*2
	case Sine:
		return math.Sin(fp * 2 * math.Pi)
	case Triangle:
		return 1 - 4*math.Abs(fp-0.5)
	case Noise:
		idx := int(fp * noiseLen)
		if idx >= noiseLen {
			idx = noiseLen - 1
		}
		return noise[idx]
	case Wobble:
		x := fp * 2 * math.Pi
		return (math.Cos(x) + math.Sin(2*x)) * 0.5
	default:
		panic("sound: invalid wave kind " + kind.String())
	}
}
