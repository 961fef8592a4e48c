package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/QEStudios/ProceduralAudio/music"
	"github.com/QEStudios/ProceduralAudio/sound"
	"github.com/go-audio/wav"
)

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	samples := []int16{0, 1000, -1000, 32767, -32768, 42}
	if err := WriteFile(path, sound.SampleRate, samples); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatalf("written file is not a valid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer: %v", err)
	}
	if dec.SampleRate != sound.SampleRate || dec.BitDepth != 16 || dec.NumChans != 1 {
		t.Errorf("unexpected format: %d Hz, %d bits, %d channels", dec.SampleRate, dec.BitDepth, dec.NumChans)
	}
	if len(buf.Data) != len(samples) {
		t.Fatalf("read %d samples, want %d", len(buf.Data), len(samples))
	}
	for i, want := range samples {
		if buf.Data[i] != int(want) {
			t.Errorf("sample %d = %d, want %d", i, buf.Data[i], want)
		}
	}
}

func TestRenderScoreLength(t *testing.T) {
	p := music.Part{Name: 'A'}
	p.Tracks[0].Notes = []music.Note{music.Tone{Frequency: 440, Duration: 0.1}}
	score := &music.Score{Parts: []music.Part{p}, Spec: []int{0}}

	out := RenderScore(score, 0.5, sound.SampleRate)
	if len(out) != sound.SampleRate/2 {
		t.Fatalf("rendered %d samples, want %d", len(out), sound.SampleRate/2)
	}
	// The single part loops, so the end is as loud as the start.
	loud := 0
	for _, v := range out[len(out)-2205:] {
		if v != 0 {
			loud++
		}
	}
	if loud == 0 {
		t.Errorf("expected the score to loop through the whole render")
	}
}
