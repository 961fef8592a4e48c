package music

import (
	"fmt"

	"github.com/QEStudios/ProceduralAudio/sound"
)

// Note is one entry of a track. The concrete types are Tone, Rest, Drum
// and the zero-length modifiers Waveform, Loudness, Vibrato, Dutymod and
// Envelope, which change the voice's instrument without taking time.
type Note interface {
	// Length returns how long the note advances the track, in seconds.
	Length() float64
	String() string
	note()
}

// Tone plays a pitched note with the voice's current instrument.
type Tone struct {
	Frequency float64 // Hz
	Duration  float64 // seconds
}

// Rest is silence.
type Rest struct {
	Duration float64
}

// Drum plays a percussion sound from the drum kit at its own pitch.
type Drum struct {
	Sound    *sound.Data
	Duration float64
}

// Waveform selects the oscillator for following tones. Duty only matters
// for sound.Square.
type Waveform struct {
	Kind sound.Wave
	Duty float64
}

// Loudness sets the voice volume, 0..1 for the usual range.
type Loudness struct {
	Level float64
}

// Vibrato modulates the tone period by Depth (a fraction of the period)
// at Speed Hz. A zero depth turns it off.
type Vibrato struct {
	Depth float64
	Speed float64
}

// Dutymod modulates the square duty cycle by Depth at Speed Hz.
type Dutymod struct {
	Depth float64
	Speed float64
}

// Envelope shapes following tones: a linear attack of Attack seconds and
// a linear decay over the final Decay fraction of each note.
type Envelope struct {
	Attack float64
	Decay  float64
}

func (n Tone) Length() float64 { return n.Duration }
func (n Rest) Length() float64 { return n.Duration }
func (n Drum) Length() float64 { return n.Duration }
func (Waveform) Length() float64 { return 0 }
func (Loudness) Length() float64 { return 0 }
func (Vibrato) Length() float64 { return 0 }
func (Dutymod) Length() float64 { return 0 }
func (Envelope) Length() float64 { return 0 }
func (Tone) note() {}
func (Rest) note() {}
func (Drum) note() {}
func (Waveform) note() {}
func (Loudness) note() {}
func (Vibrato) note() {}
func (Dutymod) note() {}
func (Envelope) note() {}
func (n Tone) String() string { return fmt.Sprintf("%.2fHz %.3fs", n.Frequency, n.Duration) }
func (n Rest) String() string { return fmt.Sprintf("rest %.3fs", n.Duration) }
func (n Drum) String() string { return fmt.Sprintf("drum(%d) %.3fs", n.Sound.Len(), n.Duration) }
func (n Waveform) String() string { return fmt.Sprintf("wave %v %.0f%%", n.Kind, n.Duty*100) }
func (n Loudness) String() string { return fmt.Sprintf("loud %.2f", n.Level) }
func (n Vibrato) String() string { return fmt.Sprintf("vib %.3f@%.1fHz", n.Depth, n.Speed) }
func (n Dutymod) String() string { return fmt.Sprintf("dmod %.2f@%.1fHz", n.Depth, n.Speed) }
func (n Envelope) String() string { return fmt.Sprintf("env %.3fs/%.2f", n.Attack, n.Decay) }
