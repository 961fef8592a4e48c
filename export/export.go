// Package export renders scores and effects offline and writes them as
// WAV files.
package export

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/QEStudios/ProceduralAudio/music"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitDepth = 16
	pcm      = 1 // WAVE_FORMAT_PCM
)

// WriteWAV encodes mono 16-bit samples as a WAV stream.
func WriteWAV(w io.WriteSeeker, sampleRate int, samples []int16) error {
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}

	enc := wav.NewEncoder(w, sampleRate, bitDepth, 1, pcm)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("error writing samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("error finishing wav stream: %w", err)
	}
	return nil
}

// WriteFile writes samples to a new WAV file at path.
func WriteFile(path string, sampleRate int, samples []int16) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteWAV(f, sampleRate, samples); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// RenderScore plays score from the start for the given number of seconds,
// following its loop like live playback does.
func RenderScore(score *music.Score, seconds float64, sampleRate int) []int16 {
	synth := music.NewSynth(sampleRate)
	synth.Reset(score)
	out := make([]int16, int(math.Round(seconds*float64(sampleRate))))
	synth.Render(out)
	return out
}
