package main

import (
	"math"
	"math/rand"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

const (
	soundSampleRate = beep.SampleRate(44100)

	poofSoundDuration = 350 * time.Millisecond
	poofSoundAttack   = 8 * time.Millisecond
)

// poofNoise is white noise through a one-pole low-pass whose cutoff
// sweeps down over the sound, which turns a hiss into a soft "pfff".
type poofNoise struct {
	rng      *rand.Rand
	total    int
	position int
	last     float64
}

func newPoofNoise(rate beep.SampleRate, d time.Duration, seed int64) *poofNoise {
	return &poofNoise{rng: rand.New(rand.NewSource(seed)), total: rate.N(d)}
}

func (p *poofNoise) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if p.position >= p.total {
			return i, i > 0
		}
		progress := float64(p.position) / float64(p.total)
		alpha := 0.35 * (1 - progress*0.9) // smoothing factor, falls with time
		white := p.rng.Float64()*2 - 1
		p.last += alpha * (white - p.last)
		samples[i][0] = p.last
		samples[i][1] = p.last
		p.position++
	}
	return len(samples), true
}

func (p *poofNoise) Err() error { return nil }

// decayEnvelope ramps in over attack samples, then decays exponentially.
type decayEnvelope struct {
	streamer beep.Streamer
	attack   int
	total    int
	position int
}

func newDecayEnvelope(s beep.Streamer, rate beep.SampleRate, d, attack time.Duration) *decayEnvelope {
	return &decayEnvelope{streamer: s, attack: rate.N(attack), total: rate.N(d)}
}

func (e *decayEnvelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		var vol float64
		switch {
		case e.position < e.attack:
			vol = float64(e.position) / float64(e.attack)
		default:
			t := float64(e.position-e.attack) / float64(e.total-e.attack)
			vol = math.Exp(-5 * t)
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *decayEnvelope) Err() error { return e.streamer.Err() }

// newVolume scales a stream linearly; math.Log2(0) is -Inf, so zero is
// mapped to a silent stream.
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}

// newPoofStreamer builds the removal sound at the given linear volume.
func newPoofStreamer(volume float64, seed int64) beep.Streamer {
	noise := newPoofNoise(soundSampleRate, poofSoundDuration, seed)
	shaped := newDecayEnvelope(noise, soundSampleRate, poofSoundDuration, poofSoundAttack)
	return newVolume(shaped, volume)
}

// renderMono drains s into a mono float32 buffer for the output stream.
func renderMono(s beep.Streamer) []float32 {
	var out []float32
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		for i := 0; i < n; i++ {
			out = append(out, float32((buf[i][0]+buf[i][1])/2))
		}
		if !ok || n == 0 {
			return out
		}
	}
}
