// Package device plays a mixer through the host's audio output.
package device

import (
	"encoding/binary"
	"time"

	"github.com/QEStudios/ProceduralAudio/sound"
)

// Source renders mono 16-bit samples on demand. *mixer.Mixer is a Source.
type Source interface {
	Callback(out []int16)
	SampleRate() int
}

type Options struct {
	// SampleRate overrides the source's rate when nonzero.
	SampleRate int

	// BufferSize is the device buffer length; zero leaves it to the driver.
	BufferSize time.Duration
}

func DefaultOptions() Options {
	return Options{SampleRate: sound.SampleRate, BufferSize: 50 * time.Millisecond}
}

func (o Options) rate(src Source) int {
	if o.SampleRate > 0 {
		return o.SampleRate
	}
	return src.SampleRate()
}

// reader adapts a Source to the io.Reader a player pulls PCM bytes from.
type reader struct {
	src     Source
	samples []int16
}

func newReader(src Source, rate int, buffer time.Duration) *reader {
	n := int(buffer.Seconds() * float64(rate))
	return &reader{src: src, samples: make([]int16, max(n, 1024))}
}

// Read fills p with little-endian samples. An odd trailing byte is left
// for the next call.
func (r *reader) Read(p []byte) (int, error) {
	n := len(p) / 2
	if cap(r.samples) < n {
		r.samples = make([]int16, n)
	}
	samples := r.samples[:n]
	r.src.Callback(samples)
	for i, v := range samples {
		binary.LittleEndian.PutUint16(p[2*i:], uint16(v))
	}
	return n * 2, nil
}
