package sound

import (
	"math"
	"testing"
)

func allSpecs() map[string]Spec {
	specs := make(map[string]Spec)
	for name, spec := range Effects {
		specs["effect "+name] = spec
	}
	for i, spec := range drumSpecs {
		specs["drum "+DrumNames[i]] = spec
	}
	return specs
}

// TestSynthesizeTrimsTrailingSilence checks the buffer bound and that the
// last sample of every rendered effect is nonzero.
func TestSynthesizeTrimsTrailingSilence(t *testing.T) {
	for name, spec := range allSpecs() {
		d := Synthesize(spec)
		if d.Len() > MaxSamples {
			t.Errorf("%s: length %d exceeds MaxSamples %d", name, d.Len(), MaxSamples)
		}
		if d.Len() == 0 {
			t.Errorf("%s: synthesized an empty buffer", name)
			continue
		}
		if last := d.Samples()[d.Len()-1]; last == 0 {
			t.Errorf("%s: trailing sample is zero", name)
		}
	}
}

func TestSynthesizeEnvelopeLength(t *testing.T) {
	spec := Spec{Wave: Square, StartFreq: 0.4, Sustain: 0.2, Decay: 0.2, LPFCutoff: 1}
	d := Synthesize(spec)

	// Sustain and decay each last 0.2² * 100000 synthesis samples at twice
	// the output rate.
	want := (4000 + 4000) / 2
	if d.Len() > want+2 {
		t.Errorf("expected at most %d samples, got %d", want+2, d.Len())
	}
	if d.Len() < want/2 {
		t.Errorf("expected roughly %d samples, got %d", want, d.Len())
	}
}

func TestFreqLimitEndsEarly(t *testing.T) {
	limited := Effects["laser"]
	unlimited := limited
	unlimited.FreqLimit = 0

	a := Synthesize(limited)
	b := Synthesize(unlimited)
	if a.Len() >= b.Len() {
		t.Errorf("expected the frequency floor to end synthesis early: %d >= %d samples", a.Len(), b.Len())
	}
}

func TestClosedLowPassIsSilent(t *testing.T) {
	d := Synthesize(Spec{Wave: Sawtooth, StartFreq: 0.5, Sustain: 0.2})
	if d.Len() != 0 {
		t.Errorf("expected a closed low-pass filter to trim to nothing, got %d samples", d.Len())
	}
}

func TestVolumeTrimScales(t *testing.T) {
	quiet := Spec{Wave: Square, StartFreq: 0.3, Sustain: 0.2, LPFCutoff: 1, Volume: -0.5}
	loud := quiet
	loud.Volume = 0.5

	peak := func(d *Data) int {
		p := 0
		for _, s := range d.Samples() {
			p = max(p, abs(int(s)))
		}
		return p
	}
	if pq, pl := peak(Synthesize(quiet)), peak(Synthesize(loud)); pq >= pl {
		t.Errorf("expected louder trim to raise the peak: quiet %d, loud %d", pq, pl)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestNewDataTrims(t *testing.T) {
	tests := []struct {
		in   []int16
		want int
	}{
		{nil, 0},
		{[]int16{0, 0, 0}, 0},
		{[]int16{1, 0, 2, 0, 0}, 3},
		{[]int16{0, 0, 5}, 3},
	}
	for _, tt := range tests {
		if got := NewData(tt.in).Len(); got != tt.want {
			t.Errorf("NewData(%v).Len() = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNewDataCapsBeforeTrimming(t *testing.T) {
	samples := make([]int16, MaxSamples+10)
	for i := range samples {
		samples[i] = 1
	}
	samples[MaxSamples-1] = 0
	d := NewData(samples)
	if d.Len() != MaxSamples-1 {
		t.Fatalf("expected %d samples, got %d", MaxSamples-1, d.Len())
	}
	if d.Samples()[d.Len()-1] == 0 {
		t.Errorf("capped buffer ends on a zero sample")
	}
}

func TestClip16(t *testing.T) {
	tests := []struct {
		in   float64
		want int16
	}{
		{0, 0},
		{0.5, math.MaxInt16 / 2},
		{1, math.MaxInt16},
		{3, math.MaxInt16},
		{-1, math.MinInt16},
		{-2.5, math.MinInt16},
	}
	for _, tt := range tests {
		if got := Clip16(tt.in); got != tt.want {
			t.Errorf("Clip16(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRepeatRestartsPitch(t *testing.T) {
	spec := Spec{Wave: Square, StartFreq: 0.3, Slide: 0.3, Sustain: 0.2, Decay: 0.2, LPFCutoff: 1, RepeatSpeed: 0.9}
	g := newGenerator(&spec)
	if g.repLimit == 0 {
		t.Fatalf("expected a repeat interval")
	}

	g.next()
	first := g.period
	for range g.repLimit - 2 {
		g.next()
	}
	if g.period == first {
		t.Fatalf("slide did not move the period before the repeat")
	}
	envTime, envStage := g.envTime, g.envStage
	g.next()
	if g.period != first {
		t.Errorf("period after repeat = %v, want %v", g.period, first)
	}
	if g.envStage != envStage || g.envTime != envTime+1 {
		t.Errorf("repeat restarted the envelope: stage %d time %d, was stage %d time %d",
			g.envStage, g.envTime, envStage, envTime)
	}
}

func TestRepeatEndsWithEnvelope(t *testing.T) {
	spec := Spec{Wave: Square, StartFreq: 0.3, Slide: 0.3, Sustain: 0.2, Decay: 0.2, LPFCutoff: 1, RepeatSpeed: 0.9}
	d := Synthesize(spec)

	want := (4000 + 4000) / 2
	if d.Len() > want+2 {
		t.Errorf("repeating effect ran past its envelope: %d samples, want at most %d", d.Len(), want+2)
	}
	if d.Len() < want/2 {
		t.Errorf("expected roughly %d samples, got %d", want, d.Len())
	}
}

func TestArpeggioJumpsOnce(t *testing.T) {
	spec := Spec{Wave: Square, StartFreq: 0.3, Sustain: 0.2, LPFCutoff: 1, ArpeggioMod: 0.5, ArpeggioSpeed: 0.9}
	g := newGenerator(&spec)
	limit, p0 := g.arpLimit, g.period
	if g.arpMod >= 1 {
		t.Fatalf("positive arpeggio should shorten the period, multiplier %v", g.arpMod)
	}

	for i := 1; i < limit; i++ {
		g.next()
		if g.period != p0 {
			t.Fatalf("period changed at step %d, before the arpeggio delay of %d", i, limit)
		}
	}
	g.next()
	want := p0 * g.arpMod
	if g.period != want {
		t.Fatalf("period after arpeggio = %v, want %v", g.period, want)
	}
	for range 100 {
		g.next()
	}
	if g.period != want {
		t.Errorf("arpeggio jumped again: period %v, want %v", g.period, want)
	}
}

// differs reports whether a and b disagree anywhere in their common length.
func differs(a, b *Data) bool {
	as, bs := a.Samples(), b.Samples()
	for i := range min(len(as), len(bs)) {
		if as[i] != bs[i] {
			return true
		}
	}
	return false
}

func TestPhaserChangesOutput(t *testing.T) {
	plain := Spec{Wave: Sawtooth, StartFreq: 0.3, Sustain: 0.2, LPFCutoff: 1}
	phased := plain
	phased.PhaserOffset = 0.5
	phased.PhaserSweep = 0.2

	a, b := Synthesize(plain), Synthesize(phased)
	if a.Len() == 0 || b.Len() == 0 {
		t.Fatalf("expected sound, got %d and %d samples", a.Len(), b.Len())
	}
	if !differs(a, b) {
		t.Errorf("phaser left the output unchanged")
	}

	// A sweep far past the ring length stays inside it.
	phased.PhaserOffset = 1
	phased.PhaserSweep = 1
	if d := Synthesize(phased); d.Len() == 0 {
		t.Errorf("saturated phaser produced no sound")
	}
}

func TestVibratoChangesOutput(t *testing.T) {
	plain := Spec{Wave: Square, StartFreq: 0.3, Sustain: 0.2, LPFCutoff: 1}
	vib := plain
	vib.VibratoDepth = 0.5
	vib.VibratoSpeed = 0.5

	g := newGenerator(&vib)
	if g.vibAmp == 0 || g.vibSpeed == 0 {
		t.Fatalf("vibrato not set up: amp %v speed %v", g.vibAmp, g.vibSpeed)
	}
	if !differs(Synthesize(plain), Synthesize(vib)) {
		t.Errorf("vibrato left the output unchanged")
	}
}

func TestOscillatorRange(t *testing.T) {
	var noise NoiseBuffer
	state := uint32(1)
	noise.FillLCG(&state)

	for _, kind := range []Wave{Square, Sawtooth, Sine, Triangle, Noise, Wobble} {
		const period = 64.0
		for phase := 0.0; phase < period; phase++ {
			v := Oscillator(kind, phase, period, 0.5, &noise)
			if v < -1 || v > 1 {
				t.Fatalf("%v: sample %f at phase %f out of range", kind, v, phase)
			}
		}
	}
}

func TestOscillatorSquareDuty(t *testing.T) {
	high := 0
	for phase := 0.0; phase < 100; phase++ {
		if Oscillator(Square, phase, 100, 0.25, nil) > 0 {
			high++
		}
	}
	if high != 25 {
		t.Errorf("expected 25 high supersamples at 25%% duty, got %d", high)
	}
}

func TestDrumKit(t *testing.T) {
	kit := DrumKit()
	if len(kit) != NumDrums {
		t.Fatalf("expected %d drums, got %d", NumDrums, len(kit))
	}
	for i, d := range kit {
		if d.Len() == 0 {
			t.Errorf("drum %q rendered empty", DrumNames[i])
		}
	}
}

func TestLibraryCaches(t *testing.T) {
	lib := NewLibrary(nil)
	a, err := lib.Get("blip")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	b, _ := lib.Get("blip")
	if a != b {
		t.Errorf("expected the same *Data for repeated lookups")
	}
	if _, err := lib.Get("no such sound"); err == nil {
		t.Errorf("expected an error for an unknown effect")
	}
}
