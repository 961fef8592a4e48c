package music

import (
	"math"

	"github.com/QEStudios/ProceduralAudio/sound"
)

const (
	defaultLoudness = 0.5
	defaultAttack   = 0.005
	defaultDecay    = 0.1

	// toneGain keeps five full-volume voices clear of clipping.
	toneGain = 0.4
)

// voice is the live synthesis state of one track.
type voice struct {
	track *Track
	index int // current timed note; len(track.Notes) once done
	done  bool

	// Note boundaries in samples since the start of the part, derived from
	// cumulative seconds so that rounding never accumulates.
	start, end int64
	endSec     float64

	period float64 // supersamples per cycle, fixed for the note
	phase  float64
	noise  sound.NoiseBuffer
	seed   uint32

	wave      sound.Wave
	duty      float64
	loudness  float64
	vibDepth  float64
	vibSpeed  float64
	dmodDepth float64
	dmodSpeed float64
	attack    float64
	decay     float64
}

func (v *voice) resetInstrument(seed uint32) {
	v.wave = sound.Square
	v.duty = 0.5
	v.loudness = defaultLoudness
	v.vibDepth, v.vibSpeed = 0, 0
	v.dmodDepth, v.dmodSpeed = 0, 0
	v.attack = defaultAttack
	v.decay = defaultDecay
	v.seed = seed
	v.phase = 0
}

// begin positions the voice at the first timed note of t.
func (v *voice) begin(t *Track, rate int) {
	v.track = t
	v.index = -1
	v.done = false
	v.start, v.end, v.endSec = 0, 0, 0
	v.advance(rate)
}

// advance moves to the next timed note, applying any modifiers on the way.
func (v *voice) advance(rate int) {
	notes := v.track.Notes
	for {
		v.index++
		if v.index >= len(notes) {
			v.index = len(notes)
			v.done = true
			return
		}
		switch n := notes[v.index].(type) {
		case Waveform:
			v.wave, v.duty = n.Kind, n.Duty
			continue
		case Loudness:
			v.loudness = n.Level
			continue
		case Vibrato:
			v.vibDepth, v.vibSpeed = n.Depth, n.Speed
			continue
		case Dutymod:
			v.dmodDepth, v.dmodSpeed = n.Depth, n.Speed
			continue
		case Envelope:
			v.attack, v.decay = n.Attack, n.Decay
			continue
		case Tone:
			v.period = float64(rate*sound.Supersampling) / n.Frequency
			v.phase = 0
		}

		v.start = v.end
		v.endSec += notes[v.index].Length()
		v.end = int64(math.Round(v.endSec * float64(rate)))
		if v.end > v.start {
			return
		}
	}
}

// sample renders the voice at pos samples into the part.
func (v *voice) sample(pos int64, rate int) float64 {
	elapsed := pos - v.start
	switch n := v.track.Notes[v.index].(type) {
	case Drum:
		data := n.Sound.Samples()
		if elapsed >= int64(len(data)) {
			return 0
		}
		return float64(data[elapsed]) / 32768 * v.loudness / defaultLoudness
	case Tone:
		return v.tone(elapsed, rate)
	default:
		return 0
	}
}

func (v *voice) tone(elapsed int64, rate int) float64 {
	t := float64(elapsed) / float64(rate)
	length := float64(v.end-v.start) / float64(rate)

	env := 1.0
	if v.attack > 0 && t < v.attack {
		env = t / v.attack
	}
	if v.decay > 0 {
		decayStart := length * (1 - v.decay)
		if t > decayStart {
			env = min(env, (length-t)/(length*v.decay))
		}
	}

	period := v.period
	if v.vibDepth != 0 {
		period *= 1 + math.Sin(2*math.Pi*v.vibSpeed*t)*v.vibDepth
	}
	period = max(period, 2)

	duty := v.duty
	if v.dmodDepth != 0 {
		duty += math.Sin(2*math.Pi*v.dmodSpeed*t) * v.dmodDepth
		duty = min(max(duty, 0.01), 0.99)
	}

	var acc float64
	for range sound.Supersampling {
		v.phase++
		if v.phase >= period {
			v.phase = math.Mod(v.phase, period)
			if v.wave == sound.Noise {
				v.noise.FillLCG(&v.seed)
			}
		}
		acc += sound.Oscillator(v.wave, v.phase, period, duty, &v.noise)
	}
	return acc / sound.Supersampling * env * v.loudness * toneGain
}

// Synth streams a Score as 16-bit samples, one voice per track, looping
// through the score's spec forever.
type Synth struct {
	rate   int
	score  *Score
	cursor int
	pos    int64 // samples since the current part began
	stuck  bool  // every reachable part is empty
	voices [NumTracks]voice
}

// NewSynth creates a silent synth rendering at sampleRate.
func NewSynth(sampleRate int) *Synth {
	return &Synth{rate: sampleRate}
}

// Reset starts score from the first entry of its spec, or silences the
// synth when score is nil. Instrument settings return to their defaults.
func (s *Synth) Reset(score *Score) {
	s.score = score
	s.cursor = 0
	s.stuck = false
	if score == nil {
		return
	}
	for i := range s.voices {
		s.voices[i].resetInstrument(uint32(i+1) * 2654435761)
	}
	s.startPart()
	if s.allDone() {
		s.nextPart()
	}
}

// Score returns the score being played, or nil.
func (s *Synth) Score() *Score {
	return s.score
}

// Cursor returns the spec index currently playing.
func (s *Synth) Cursor() int {
	return s.cursor
}

// Render fills out with the next len(out) samples.
func (s *Synth) Render(out []int16) {
	for i := range out {
		out[i] = s.next()
	}
}

func (s *Synth) next() int16 {
	if s.score == nil || s.stuck {
		return 0
	}
	var mix float64
	for i := range s.voices {
		if v := &s.voices[i]; !v.done {
			mix += v.sample(s.pos, s.rate)
		}
	}

	s.pos++
	for i := range s.voices {
		if v := &s.voices[i]; !v.done && s.pos >= v.end {
			v.advance(s.rate)
		}
	}
	if s.allDone() {
		s.nextPart()
	}
	return sound.Clip16(mix)
}

func (s *Synth) allDone() bool {
	for i := range s.voices {
		if !s.voices[i].done {
			return false
		}
	}
	return true
}

func (s *Synth) startPart() {
	s.pos = 0
	part := &s.score.Parts[s.score.Spec[s.cursor]]
	for i := range s.voices {
		s.voices[i].begin(&part.Tracks[i], s.rate)
	}
}

// nextPart performs the loop transition: the cursor moves to the next spec
// entry, wrapping to the loop point, and every voice restarts.
func (s *Synth) nextPart() {
	for range len(s.score.Spec) + 1 {
		s.cursor++
		if s.cursor >= len(s.score.Spec) {
			s.cursor = s.score.LoopPoint
		}
		s.startPart()
		if !s.allDone() {
			return
		}
	}
	s.stuck = true
}
