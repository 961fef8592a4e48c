package sound

import "math"

const (
	// Effects are generated at twice the output rate and decimated.
	synthRate = SampleRate * 2

	phaserLen  = 1024
	outputGain = 0.25
)

// generator holds the running state of one effect synthesis.
type generator struct {
	spec *Spec

	period     float64
	maxPeriod  float64
	slide      float64
	deltaSlide float64
	duty       float64
	dutySweep  float64
	arpMod     float64
	arpTime    int
	arpLimit   int

	envStage  int
	envTime   int
	envLength [3]int

	phase int

	// Low-pass: position, delta, cutoff, cutoff ramp, damping.
	lpPos, lpDelta, lpCutoff, lpRamp, lpDamping float64
	// High-pass: position, cutoff, cutoff ramp.
	hpPos, hpCutoff, hpRamp float64

	vibPhase, vibSpeed, vibAmp float64

	phaser       [phaserLen]float64
	phaserPos    int
	phaserOffset float64
	phaserSweep  float64

	noise NoiseBuffer

	repTime  int
	repLimit int

	finished bool
}

func newGenerator(spec *Spec) *generator {
	g := &generator{spec: spec}
	g.reset(false)
	return g
}

// reset initializes the pitch state. A restart (repeat) keeps the phase,
// filters, phaser and envelope running.
func (g *generator) reset(restart bool) {
	p := g.spec

	g.period = 100 / (p.StartFreq*p.StartFreq + 0.001)
	g.maxPeriod = 100 / (p.FreqLimit*p.FreqLimit + 0.001)
	g.slide = 1 - math.Pow(p.Slide, 3)*0.01
	g.deltaSlide = -math.Pow(p.DeltaSlide, 3) * 0.000001
	g.duty = 0.5 - p.Duty*0.5
	g.dutySweep = -p.DutySweep * 0.00005

	if p.ArpeggioMod >= 0 {
		g.arpMod = 1 - p.ArpeggioMod*p.ArpeggioMod*0.9
	} else {
		g.arpMod = 1 + p.ArpeggioMod*p.ArpeggioMod*10
	}
	g.arpTime = 0
	g.arpLimit = int((1-p.ArpeggioSpeed)*(1-p.ArpeggioSpeed)*20000 + 32)
	if p.ArpeggioSpeed == 1 {
		g.arpLimit = 0
	}

	if restart {
		return
	}

	g.lpPos, g.lpDelta = 0, 0
	g.lpCutoff = math.Pow(p.LPFCutoff, 3) * 0.1
	g.lpRamp = 1 + p.LPFRamp*0.0001
	g.lpDamping = 5 / (1 + p.LPFResonance*p.LPFResonance*20) * (0.01 + g.lpCutoff)
	if g.lpDamping > 0.8 {
		g.lpDamping = 0.8
	}
	g.hpPos = 0
	g.hpCutoff = p.HPFCutoff * p.HPFCutoff * 0.1
	g.hpRamp = 1 + p.HPFRamp*0.0003

	g.vibPhase = 0
	g.vibSpeed = p.VibratoSpeed * p.VibratoSpeed * 0.01
	g.vibAmp = p.VibratoDepth * 0.5

	g.envStage = 0
	g.envTime = 0
	g.envLength[0] = int(p.Attack * p.Attack * 100000)
	g.envLength[1] = int(p.Sustain * p.Sustain * 100000)
	g.envLength[2] = int(p.Decay * p.Decay * 100000)

	g.phaserOffset = p.PhaserOffset * p.PhaserOffset * 1020
	if p.PhaserOffset < 0 {
		g.phaserOffset = -g.phaserOffset
	}
	g.phaserSweep = p.PhaserSweep * p.PhaserSweep
	if p.PhaserSweep < 0 {
		g.phaserSweep = -g.phaserSweep
	}
	g.phaserPos = 0
	clear(g.phaser[:])

	g.noise.FillRandom()

	g.repTime = 0
	g.repLimit = int((1-p.RepeatSpeed)*(1-p.RepeatSpeed)*20000 + 32)
	if p.RepeatSpeed == 0 {
		g.repLimit = 0
	}
}

// envRatio returns t/length, treating an empty stage as already complete.
func envRatio(t, length int) float64 {
	if length <= 0 {
		return 1
	}
	return float64(t) / float64(length)
}

// next produces one sample at synthRate. ok is false once the effect has
// ended, in which case the sample must be discarded.
func (g *generator) next() (sample float64, ok bool) {
	if g.finished {
		return 0, false
	}
	p := g.spec

	g.repTime++
	if g.repLimit != 0 && g.repTime >= g.repLimit {
		g.repTime = 0
		g.reset(true)
	}

	g.arpTime++
	if g.arpLimit != 0 && g.arpTime >= g.arpLimit {
		g.arpLimit = 0
		g.period *= g.arpMod
	}

	g.slide += g.deltaSlide
	g.period *= g.slide
	if g.period > g.maxPeriod {
		g.period = g.maxPeriod
		if p.FreqLimit > 0 {
			g.finished = true
		}
	}

	rperiod := g.period
	if g.vibAmp > 0 {
		g.vibPhase += g.vibSpeed
		rperiod = g.period * (1 + math.Sin(g.vibPhase)*g.vibAmp)
	}
	period := int(rperiod)
	if period < 8 {
		period = 8
	}

	g.duty += g.dutySweep
	g.duty = min(max(g.duty, 0), 0.5)

	g.envTime++
	if g.envTime > g.envLength[g.envStage] {
		g.envTime = 0
		g.envStage++
		if g.envStage == 3 {
			g.finished = true
			return 0, true
		}
	}
	var env float64
	switch g.envStage {
	case 0:
		env = envRatio(g.envTime, g.envLength[0])
	case 1:
		env = 1 + (1-envRatio(g.envTime, g.envLength[1]))*2*p.Punch
	case 2:
		env = 1 - envRatio(g.envTime, g.envLength[2])
	}

	g.phaserOffset += g.phaserSweep
	phaserInt := int(math.Abs(g.phaserOffset))
	if phaserInt > phaserLen-1 {
		phaserInt = phaserLen - 1
	}

	if g.hpRamp != 0 {
		g.hpCutoff *= g.hpRamp
		g.hpCutoff = min(max(g.hpCutoff, 0.00001), 0.1)
	}

	var super float64
	for range Supersampling {
		g.phase++
		if g.phase >= period {
			g.phase %= period
			if p.Wave == Noise {
				g.noise.FillRandom()
			}
		}
		s := Oscillator(p.Wave, float64(g.phase), float64(period), g.duty, &g.noise)

		prev := g.lpPos
		g.lpCutoff *= g.lpRamp
		g.lpCutoff = min(max(g.lpCutoff, 0), 0.1)
		if p.LPFCutoff != 1 {
			g.lpDelta += (s - g.lpPos) * g.lpCutoff
			g.lpDelta -= g.lpDelta * g.lpDamping
		} else {
			g.lpPos = s
			g.lpDelta = 0
		}
		g.lpPos += g.lpDelta

		g.hpPos += g.lpPos - prev
		g.hpPos -= g.hpPos * g.hpCutoff
		s = g.hpPos

		g.phaser[g.phaserPos&(phaserLen-1)] = s
		s += g.phaser[(g.phaserPos-phaserInt+phaserLen)&(phaserLen-1)]
		g.phaserPos = (g.phaserPos + 1) & (phaserLen - 1)

		super += s * env
	}
	return super / Supersampling, true
}

// Synthesize renders spec into a new sound buffer at SampleRate.
//
// Noise waves draw from the process-global random source, so two calls
// with the same noise spec are not bit-identical.
func Synthesize(spec Spec) *Data {
	if !spec.Wave.isValid() {
		panic("sound: invalid wave kind " + spec.Wave.String())
	}
	g := newGenerator(&spec)
	gain := outputGain * (1 + spec.Volume)

	out := make([]int16, 0, initialCapacity(&spec))
	for len(out) < MaxSamples {
		a, ok := g.next()
		if !ok {
			break
		}
		b, _ := g.next()
		out = append(out, Clip16((a+b)*0.5*gain))
	}
	return NewData(out)
}

// initialCapacity estimates the output length from the envelope.
func initialCapacity(spec *Spec) int {
	n := (spec.Attack*spec.Attack + spec.Sustain*spec.Sustain + spec.Decay*spec.Decay) * 100000
	return min(int(n)/2+2, MaxSamples)
}

// Clip16 converts a -1..1 sample to 16 bits, saturating outside that range.
func Clip16(f float64) int16 {
	switch {
	case f >= 1:
		return math.MaxInt16
	case f <= -1:
		return math.MinInt16
	default:
		return int16(f * math.MaxInt16)
	}
}
