package main

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
)

const soundFramesPerBuf = 256 // samples per output callback

// soundBackend abstracts the real PortAudio output stream.
// Allows unit tests to run without an audio device.
type soundBackend interface {
	// Open starts a mono output stream that calls fill for every buffer.
	Open(fill func(out []float32)) error
	Close() error
}

// realSoundBackend wraps gordonklaus/portaudio for production use.
type realSoundBackend struct {
	stream *portaudio.Stream
}

func (r *realSoundBackend) Open(fill func(out []float32)) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init: %w", err)
	}
	stream, err := portaudio.OpenDefaultStream(
		0, // input channels (none)
		1, // output channels: mono
		float64(soundSampleRate),
		soundFramesPerBuf,
		fill,
	)
	if err != nil {
		portaudio.Terminate() //nolint:errcheck
		return fmt.Errorf("portaudio open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()        //nolint:errcheck
		portaudio.Terminate() //nolint:errcheck
		return fmt.Errorf("portaudio start stream: %w", err)
	}
	r.stream = stream
	return nil
}

func (r *realSoundBackend) Close() error {
	if r.stream == nil {
		return nil
	}
	r.stream.Stop() //nolint:errcheck
	err := r.stream.Close()
	portaudio.Terminate() //nolint:errcheck
	r.stream = nil
	return err
}

// SoundService plays the poof sound. The output stream is opened lazily
// on the first Play so a muted user never touches the audio device.
type SoundService struct {
	mu      sync.Mutex
	backend soundBackend
	ring    *RingBuffer
	enabled atomic.Bool
	volume  float64
	opened  bool
	failed  bool
	seed    int64
}

// NewSoundService creates a SoundService backed by PortAudio.
func NewSoundService(enabled bool, volume float64) *SoundService {
	return newSoundServiceWithBackend(&realSoundBackend{}, enabled, volume)
}

// newSoundServiceWithBackend creates a SoundService with injectable backend (for tests).
func newSoundServiceWithBackend(b soundBackend, enabled bool, volume float64) *SoundService {
	s := &SoundService{
		backend: b,
		ring:    NewRingBuffer(soundSampleRate.N(poofSoundDuration) * 4),
		volume:  volume,
	}
	s.enabled.Store(enabled)
	return s
}

// Play queues one poof. It is a no-op while disabled or after the audio
// device failed to open.
func (s *SoundService) Play() {
	if !s.enabled.Load() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ensureOpenLocked() {
		return
	}
	s.seed++
	s.ring.Write(renderMono(newPoofStreamer(s.volume, s.seed)))
}

func (s *SoundService) ensureOpenLocked() bool {
	if s.opened {
		return true
	}
	if s.failed {
		return false
	}
	if err := s.backend.Open(s.fill); err != nil {
		log.Printf("sound: %v — sound disabled for this session", err)
		s.failed = true
		return false
	}
	s.opened = true
	log.Printf("sound: output stream open @ %dHz", int(soundSampleRate))
	return true
}

// fill runs on the audio thread.
func (s *SoundService) fill(out []float32) {
	n := s.ring.Read(out)
	for i := n; i < len(out); i++ {
		out[i] = 0
	}
}

func (s *SoundService) SetEnabled(enabled bool) {
	s.enabled.Store(enabled)
	if !enabled {
		s.ring.Reset()
	}
}

func (s *SoundService) Enabled() bool {
	return s.enabled.Load()
}

// Close stops the output stream if it was opened.
func (s *SoundService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return nil
	}
	s.opened = false
	return s.backend.Close()
}
