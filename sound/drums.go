package sound

// Drum kit indices, as referenced by x<index> in score documents.
const (
	DrumKick = iota
	DrumSnare
	DrumClosedHat
	DrumOpenHat
	DrumLowTom
	DrumHighTom
	DrumClap
	DrumCrash
	NumDrums
)

// DrumNames lists the kit in index order.
var DrumNames = [NumDrums]string{
	"kick", "snare", "closed hat", "open hat", "low tom", "high tom", "clap", "crash",
}

var drumSpecs = [NumDrums]Spec{
	DrumKick: {
		Wave: Sine, StartFreq: 0.26, Slide: -0.38,
		Sustain: 0.1, Punch: 0.55, Decay: 0.26,
		LPFCutoff: 1, Volume: 0.6,
	},
	DrumSnare: {
		Wave: Noise, StartFreq: 0.52,
		Sustain: 0.06, Punch: 0.3, Decay: 0.22,
		LPFCutoff: 1, HPFCutoff: 0.12, Volume: 0.2,
	},
	DrumClosedHat: {
		Wave: Noise, StartFreq: 0.82,
		Sustain: 0.02, Decay: 0.09,
		LPFCutoff: 1, HPFCutoff: 0.42,
	},
	DrumOpenHat: {
		Wave: Noise, StartFreq: 0.8,
		Sustain: 0.05, Decay: 0.3,
		LPFCutoff: 1, HPFCutoff: 0.36,
	},
	DrumLowTom: {
		Wave: Triangle, StartFreq: 0.3, Slide: -0.16,
		Sustain: 0.08, Punch: 0.2, Decay: 0.3,
		LPFCutoff: 1, Volume: 0.4,
	},
	DrumHighTom: {
		Wave: Triangle, StartFreq: 0.4, Slide: -0.16,
		Sustain: 0.07, Punch: 0.2, Decay: 0.26,
		LPFCutoff: 1, Volume: 0.4,
	},
	DrumClap: {
		Wave: Noise, StartFreq: 0.6,
		Sustain: 0.05, Punch: 0.4, Decay: 0.2,
		RepeatSpeed: 0.72,
		LPFCutoff: 0.7, HPFCutoff: 0.15,
	},
	DrumCrash: {
		Wave: Noise, StartFreq: 0.9,
		Sustain: 0.1, Decay: 0.62,
		PhaserOffset: 0.1, PhaserSweep: -0.05,
		LPFCutoff: 1, HPFCutoff: 0.25, Volume: -0.2,
	},
}

// DrumKit renders the fixed drum table. It is meant to be called once at
// startup and handed to every score parse in the session.
func DrumKit() []*Data {
	kit := make([]*Data, NumDrums)
	for i, spec := range drumSpecs {
		kit[i] = Synthesize(spec)
	}
	return kit
}
