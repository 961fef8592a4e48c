package mixer

import (
	"log"
	"math"
	"sync"

	"github.com/QEStudios/ProceduralAudio/music"
	"github.com/QEStudios/ProceduralAudio/sound"
)

const (
	// NumSlots is the number of sound effects that can play at once.
	NumSlots = 16

	// Volumes are fixed point, volumeScale meaning full volume.
	volumeScale = 256
)

type Config struct {
	SampleRate  int
	MusicVolume float64
	SoundVolume float64
	Logger      *log.Logger
}

func DefaultConfig() Config {
	return Config{
		SampleRate:  sound.SampleRate,
		MusicVolume: 1,
		SoundVolume: 1,
	}
}

// slot is one playing sound effect.
type slot struct {
	data      *sound.Data
	index     int
	volume    int
	loop      bool
	persisted bool
	paused    bool
	finished  bool
}

func (s *slot) active() bool {
	return s.data != nil && !s.paused && !s.finished
}

// overrun handles a slot that has played its last sample.
func (s *slot) overrun() {
	switch {
	case s.loop:
		s.index = 0
	case s.persisted:
		s.finished = true
	default:
		*s = slot{}
	}
}

// Mixer owns all audio state: the score synth, the music fade, the effect
// slots and the global volumes. Everything is guarded by one mutex, taken
// by the game thread in Apply and the volume setters, and by the audio
// device around each Callback.
type Mixer struct {
	mu     sync.Mutex
	logger *log.Logger
	rate   int

	synth    *music.Synth
	musicBuf []int16
	flag     int

	musicVolume int
	soundVolume int

	// Fade state. fadeLevel runs from volumeScale down to 0, dropping one
	// step every fadeStep samples.
	fading        bool
	fadeTarget    *music.Score
	fadeLevel     int
	fadeStep      int
	fadeCountdown int
	fadeFlag      int
	fadeHasFlag   bool

	slots [NumSlots]slot

	persistDropped sync.Once
	oneshotDropped sync.Once
}

// New creates a silent mixer.
func New(cfg Config) *Mixer {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = sound.SampleRate
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Mixer{
		logger:      cfg.Logger,
		rate:        cfg.SampleRate,
		synth:       music.NewSynth(cfg.SampleRate),
		musicVolume: quantize(cfg.MusicVolume),
		soundVolume: quantize(cfg.SoundVolume),
		fadeLevel:   volumeScale,
	}
}

// SampleRate returns the rate Callback renders at.
func (m *Mixer) SampleRate() int {
	return m.rate
}

func quantize(f float64) int {
	return min(max(int(math.Floor(f*volumeScale+0.5)), 0), volumeScale)
}

// SetMusicVolume sets the music volume, 0..1.
func (m *Mixer) SetMusicVolume(f float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.musicVolume = quantize(f)
}

// SetSoundVolume sets the volume of all sound effects, 0..1.
func (m *Mixer) SetSoundVolume(f float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.soundVolume = quantize(f)
}

// MusicFlag returns the current music flag.
func (m *Mixer) MusicFlag() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flag
}

// Playing returns the score currently audible, which during a fade is
// still the score being faded out.
func (m *Mixer) Playing() *music.Score {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.synth.Score()
}

// PersistedFinished reports whether the persisted, non-looping sound data
// has played to its end.
func (m *Mixer) PersistedFinished(data *sound.Data) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.findPersisted(data)
	return s != nil && s.finished
}

// ActiveSlots returns how many effect slots are in use, paused and
// finished persisted sounds included.
func (m *Mixer) ActiveSlots() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for i := range m.slots {
		if m.slots[i].data != nil {
			n++
		}
	}
	return n
}

// Apply applies every request on b and clears it.
func (m *Mixer) Apply(b *Soundboard) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b.setFlag && !b.changeMusic {
		m.flag = b.flag
	}
	if b.changeMusic {
		m.changeMusic(b.music, b.fadeOut, b.setFlag, b.flag)
	}
	m.applyPersisted(b)
	for _, req := range b.oneshots {
		m.startOneshot(req)
	}
	b.clear()
}

func (m *Mixer) changeMusic(score *music.Score, fadeOut float64, hasFlag bool, flag int) {
	current := m.synth.Score()

	switch {
	case score == current:
		m.cancelFade()
		if hasFlag {
			m.flag = flag
		}
		return
	case m.fading && score == m.fadeTarget:
		if hasFlag {
			m.fadeFlag, m.fadeHasFlag = flag, true
		}
		return
	case current == nil || fadeOut <= 0:
		m.cancelFade()
		m.synth.Reset(score)
		if hasFlag {
			m.flag = flag
		}
		return
	}

	// A fade already under way keeps its level and heads for the new target.
	m.fading = true
	m.fadeTarget = score
	m.fadeStep = max(1, int(math.Round(fadeOut*float64(m.rate)/volumeScale)))
	m.fadeCountdown = m.fadeStep
	m.fadeFlag, m.fadeHasFlag = flag, hasFlag
}

func (m *Mixer) cancelFade() {
	m.fading = false
	m.fadeTarget = nil
	m.fadeLevel = volumeScale
	m.fadeHasFlag = false
}

// finishFade switches to the fade target once the old score is silent.
func (m *Mixer) finishFade() {
	target := m.fadeTarget
	if m.fadeHasFlag {
		m.flag = m.fadeFlag
	}
	m.cancelFade()
	m.synth.Reset(target)
}

func (m *Mixer) findPersisted(data *sound.Data) *slot {
	if data == nil {
		return nil
	}
	for i := range m.slots {
		if s := &m.slots[i]; s.persisted && s.data == data {
			return s
		}
	}
	return nil
}

func (m *Mixer) freeSlot() *slot {
	for i := range m.slots {
		if m.slots[i].data == nil {
			return &m.slots[i]
		}
	}
	return nil
}

func (m *Mixer) applyPersisted(b *Soundboard) {
	for i := range m.slots {
		s := &m.slots[i]
		if !s.persisted {
			continue
		}
		req := b.findPersist(s.data)
		if req == nil || req.reset {
			*s = slot{}
			continue
		}
		s.volume = quantize(req.volume)
		s.paused = !req.play
		s.loop = req.loop
	}

	for _, req := range b.persist {
		if m.findPersisted(req.data) != nil {
			continue
		}
		s := m.freeSlot()
		if s == nil {
			m.persistDropped.Do(func() {
				m.logger.Printf("mixer: all %d sound slots in use, dropping persisted sound", NumSlots)
			})
			continue
		}
		*s = slot{
			data:      req.data,
			volume:    quantize(req.volume),
			loop:      req.loop,
			persisted: true,
			paused:    !req.play,
			finished:  req.data.Len() == 0,
		}
	}
}

func (m *Mixer) startOneshot(req oneshotRequest) {
	if req.data.Len() == 0 {
		return
	}
	s := m.freeSlot()
	if s == nil {
		m.oneshotDropped.Do(func() {
			m.logger.Printf("mixer: all %d sound slots in use, dropping sound", NumSlots)
		})
		return
	}
	*s = slot{data: req.data, volume: quantize(req.volume)}
}

// Callback fills out with the next len(out) samples. It is the audio
// device's entry point and holds the lock for the whole buffer.
func (m *Mixer) Callback(out []int16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fill(out)
}

// fill mixes music and effects into out. The caller holds the lock.
func (m *Mixer) fill(out []int16) {
	if cap(m.musicBuf) < len(out) {
		m.musicBuf = make([]int16, len(out))
	}
	musicBuf := m.musicBuf[:len(out)]
	m.synth.Render(musicBuf)

	for i := range out {
		mus := int(musicBuf[i]) * m.musicVolume * m.fadeLevel >> 16

		if m.fading {
			m.fadeCountdown--
			if m.fadeCountdown <= 0 {
				m.fadeCountdown = m.fadeStep
				m.fadeLevel--
				if m.fadeLevel <= 0 {
					m.finishFade()
					// The rest of the buffer belongs to the new score.
					m.synth.Render(musicBuf[i+1:])
				}
			}
		}

		effects := 0
		for j := range m.slots {
			s := &m.slots[j]
			if !s.active() {
				continue
			}
			samples := s.data.Samples()
			if s.index >= len(samples) {
				s.overrun()
				continue
			}
			effects += int(samples[s.index]) * s.volume >> 8
			s.index++
			if s.index >= len(samples) {
				s.overrun()
			}
		}

		out[i] = clip16(mus + effects*m.soundVolume>>8)
	}
}

func clip16(v int) int16 {
	return int16(min(max(v, math.MinInt16), math.MaxInt16))
}
