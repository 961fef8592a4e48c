package music

import (
	"math"
	"strings"
	"testing"

	"github.com/QEStudios/ProceduralAudio/sound"
	"github.com/davecgh/go-spew/spew"
)

const testRate = sound.SampleRate

// partOf builds a part whose first track is notes.
func partOf(name byte, notes ...Note) Part {
	p := Part{Name: name}
	p.Tracks[0].Notes = notes
	return p
}

func samplesFor(seconds float64) int {
	return int(math.Round(seconds * testRate))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		score Score
		ok    bool
	}{
		{"valid", Score{Parts: []Part{{Name: 'A'}}, Spec: []int{0}}, true},
		{"empty spec", Score{Parts: []Part{{Name: 'A'}}}, false},
		{"bad part index", Score{Parts: []Part{{Name: 'A'}}, Spec: []int{1}}, false},
		{"loop past end", Score{Parts: []Part{{Name: 'A'}}, Spec: []int{0}, LoopPoint: 1}, false},
	}
	for _, tt := range tests {
		err := tt.score.Validate()
		if (err == nil) != tt.ok {
			t.Errorf("%s: Validate() = %v, want ok=%v", tt.name, err, tt.ok)
		}
	}
}

func TestDurations(t *testing.T) {
	p := Part{Name: 'A'}
	p.Tracks[0].Notes = []Note{Waveform{Kind: sound.Sine}, Tone{440, 0.5}, Rest{0.25}}
	p.Tracks[2].Notes = []Note{Rest{1}}
	s := Score{Parts: []Part{p}, Spec: []int{0, 0}}

	if d := p.Tracks[0].Duration(); d != 0.75 {
		t.Errorf("track duration = %f, want 0.75", d)
	}
	if d := p.Duration(); d != 1 {
		t.Errorf("part duration = %f, want 1", d)
	}
	if d := s.Duration(); d != 2 {
		t.Errorf("score duration = %f, want 2", d)
	}
}

// TestLoopTransitionIsSampleAccurate renders up to the last sample of the
// first part and checks the cursor only moves on that sample.
func TestLoopTransitionIsSampleAccurate(t *testing.T) {
	score := &Score{
		Parts: []Part{
			partOf('A', Tone{440, 0.1}),
			partOf('B', Tone{220, 0.2}),
		},
		Spec: []int{0, 1},
	}
	s := NewSynth(testRate)
	s.Reset(score)

	n := samplesFor(0.1)
	buf := make([]int16, n-1)
	s.Render(buf)
	if s.Cursor() != 0 {
		t.Fatalf("cursor moved early: %d after %d samples", s.Cursor(), n-1)
	}
	s.Render(buf[:1])
	if s.Cursor() != 1 {
		t.Fatalf("expected cursor 1 after exactly %d samples, got %d", n, s.Cursor())
	}
}

// TestLoopWrapsToLoopPoint follows the cursor sample by sample over several
// passes of the spec and checks every step.
func TestLoopWrapsToLoopPoint(t *testing.T) {
	score := &Score{
		Parts: []Part{
			partOf('A', Tone{440, 0.05}, Rest{0.05}),
			partOf('B', Drum{Duration: 0.1}),
		},
		Spec:      []int{0, 0, 1},
		LoopPoint: 1,
	}
	s := NewSynth(testRate)
	s.Reset(score)

	var visited []int
	last := s.Cursor()
	visited = append(visited, last)
	one := make([]int16, 1)
	for range int(score.Duration()*3*testRate) + 10 {
		s.Render(one)
		if c := s.Cursor(); c != last {
			if c < 0 || c >= len(score.Spec) {
				t.Fatalf("cursor %d out of range", c)
			}
			visited = append(visited, c)
			last = c
		}
	}

	want := []int{0, 1, 2, 1, 2, 1, 2}
	if len(visited) < len(want) {
		t.Fatalf("visited %v, want prefix %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("visited %v, want prefix %v", visited, want)
		}
	}
}

func TestModifiersApplyWithoutTime(t *testing.T) {
	score := &Score{
		Parts: []Part{partOf('A',
			Waveform{Kind: sound.Triangle},
			Loudness{Level: 0.8},
			Tone{330, 0.1},
			Envelope{Attack: 0, Decay: 0},
			Tone{330, 0.1},
		)},
		Spec: []int{0},
	}
	s := NewSynth(testRate)
	s.Reset(score)

	v := &s.voices[0]
	if v.wave != sound.Triangle || v.loudness != 0.8 {
		t.Fatalf("leading modifiers not applied: %s", spew.Sdump(v.wave, v.loudness))
	}
	if _, ok := v.track.Notes[v.index].(Tone); !ok {
		t.Fatalf("voice should rest on a timed note, got %T", v.track.Notes[v.index])
	}

	buf := make([]int16, samplesFor(0.1))
	s.Render(buf)
	if v.attack != 0 || v.decay != 0 {
		t.Errorf("envelope modifier not applied at the note boundary")
	}
	if v.index != 4 {
		t.Errorf("expected voice at note 4, got %d", v.index)
	}
}

func TestRenderProducesSound(t *testing.T) {
	score := &Score{Parts: []Part{partOf('A', Tone{440, 0.25})}, Spec: []int{0}}
	s := NewSynth(testRate)
	s.Reset(score)

	buf := make([]int16, samplesFor(0.25))
	s.Render(buf)
	nonzero := 0
	for _, v := range buf {
		if v != 0 {
			nonzero++
		}
	}
	if nonzero < len(buf)/2 {
		t.Errorf("expected mostly nonzero output, got %d of %d", nonzero, len(buf))
	}
}

func TestDrumStreamsRawSamples(t *testing.T) {
	data := sound.NewData([]int16{1000, -2000, 3000})
	score := &Score{
		Parts: []Part{partOf('A', Loudness{Level: defaultLoudness}, Drum{Sound: data, Duration: 0.01})},
		Spec:  []int{0},
	}
	s := NewSynth(testRate)
	s.Reset(score)

	buf := make([]int16, 4)
	s.Render(buf)
	for i, want := range []int16{1000, -2000, 3000, 0} {
		if d := int(buf[i]) - int(want); d < -1 || d > 1 {
			t.Errorf("sample %d = %d, want %d", i, buf[i], want)
		}
	}
}

func TestResetNilSilences(t *testing.T) {
	s := NewSynth(testRate)
	s.Reset(&Score{Parts: []Part{partOf('A', Tone{440, 1})}, Spec: []int{0}})
	s.Reset(nil)

	buf := make([]int16, 64)
	s.Render(buf)
	for _, v := range buf {
		if v != 0 {
			t.Fatalf("expected silence after Reset(nil)")
		}
	}
	if s.Score() != nil {
		t.Errorf("expected no score after Reset(nil)")
	}
}

func TestEmptyScoreDoesNotSpin(t *testing.T) {
	s := NewSynth(testRate)
	s.Reset(&Score{Parts: []Part{partOf('A', Loudness{Level: 1})}, Spec: []int{0, 0}})

	buf := make([]int16, 16)
	s.Render(buf)
	for _, v := range buf {
		if v != 0 {
			t.Fatalf("expected silence from a score with no timed notes")
		}
	}
}

func TestScoreString(t *testing.T) {
	s := &Score{
		Parts:     []Part{partOf('A', Tone{440, 0.5}), partOf('B', Rest{0.5})},
		Spec:      []int{0, 0, 1},
		LoopPoint: 1,
	}
	out := s.String()
	if !strings.Contains(out, "- Spec: A|AB") {
		t.Errorf("unexpected spec line in:\n%s", out)
	}
	if !strings.Contains(out, "Track 5") {
		t.Errorf("expected a five column table in:\n%s", out)
	}
}
