package sound

import (
	"fmt"
	"slices"
	"sync"
)

// Effects is the game's table of named sound effects.
var Effects = map[string]Spec{
	"blip": {
		Wave: Square, StartFreq: 0.52, Duty: 0.35,
		Sustain: 0.06, Decay: 0.12, LPFCutoff: 1,
	},
	"pickup": {
		Wave: Square, StartFreq: 0.45, Duty: 0.2,
		ArpeggioMod: 0.45, ArpeggioSpeed: 0.6,
		Sustain: 0.08, Punch: 0.4, Decay: 0.25, LPFCutoff: 1,
	},
	"laser": {
		Wave: Sawtooth, StartFreq: 0.75, FreqLimit: 0.2, Slide: -0.5,
		Duty: 0.3, DutySweep: 0.15,
		Sustain: 0.18, Punch: 0.1, Decay: 0.2, LPFCutoff: 1, HPFCutoff: 0.05,
	},
	"explosion": {
		Wave: Noise, StartFreq: 0.18, Slide: -0.08,
		Sustain: 0.3, Punch: 0.6, Decay: 0.55,
		PhaserOffset: -0.3, PhaserSweep: -0.1,
		LPFCutoff: 1, Volume: 0.3,
	},
	"hit": {
		Wave: Noise, StartFreq: 0.42, Slide: -0.3,
		Sustain: 0.04, Decay: 0.18, LPFCutoff: 1, HPFCutoff: 0.08,
	},
	"jump": {
		Wave: Square, StartFreq: 0.35, Slide: 0.22, Duty: 0.5,
		Sustain: 0.15, Decay: 0.2, LPFCutoff: 1, HPFCutoff: 0.1,
	},
	"powerup": {
		Wave: Triangle, StartFreq: 0.3, Slide: 0.15,
		VibratoDepth: 0.3, VibratoSpeed: 0.5,
		RepeatSpeed: 0.55,
		Sustain: 0.3, Decay: 0.35, LPFCutoff: 1,
	},
	"hum": {
		Wave: Wobble, StartFreq: 0.12,
		VibratoDepth: 0.05, VibratoSpeed: 0.3,
		Attack: 0.1, Sustain: 0.6, Decay: 0.1,
		LPFCutoff: 0.4, LPFResonance: 0.5,
	},
	"alarm": {
		Wave: Square, StartFreq: 0.4, Duty: 0.1,
		VibratoDepth: 0.6, VibratoSpeed: 0.25,
		Sustain: 0.5, Decay: 0.1,
		LPFCutoff: 0.6, LPFRamp: 0.2, LPFResonance: 0.3,
	},
}

// EffectNames returns the keys of Effects in sorted order.
func EffectNames() []string {
	names := make([]string, 0, len(Effects))
	for name := range Effects {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Library renders named effects on first use and keeps them, so every
// request for a name returns the same *Data.
type Library struct {
	mu    sync.Mutex
	specs map[string]Spec
	data  map[string]*Data
}

// NewLibrary creates a library over specs. A nil map uses Effects.
func NewLibrary(specs map[string]Spec) *Library {
	if specs == nil {
		specs = Effects
	}
	return &Library{specs: specs, data: make(map[string]*Data)}
}

// Get returns the rendered effect called name.
func (l *Library) Get(name string) (*Data, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if d, ok := l.data[name]; ok {
		return d, nil
	}
	spec, ok := l.specs[name]
	if !ok {
		return nil, fmt.Errorf("unknown sound effect %q", name)
	}
	d := Synthesize(spec)
	l.data[name] = d
	return d, nil
}

// Preload renders every effect in the library.
func (l *Library) Preload() error {
	for name := range l.specs {
		if _, err := l.Get(name); err != nil {
			return err
		}
	}
	return nil
}
