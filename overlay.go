package main

import (
	"image"
	"log"
	"time"
)

// releaseGrace is how long a finished overlay stays referenced after it
// has been ordered out, so a fast re-trigger never flashes a stale window.
const releaseGrace = 50 * time.Millisecond

// surface is a borderless, transparent, click-through window that floats
// above everything, joins every Space and never takes focus.
type surface interface {
	SetImage(img image.Image)
	Show()
	// Hide orders the window out of the window list.
	Hide()
	// Close frees the native window. The surface is unusable afterwards.
	Close()
}

type surfaceFactory interface {
	NewSurface(frame Rect) (surface, error)
}

// soundPlayer plays the removal sound. SoundService implements it.
type soundPlayer interface {
	Play()
}

// Overlay is one playing poof effect.
type Overlay struct {
	id     int
	sched  scheduler
	surf   surface
	player *FramePlayer

	stopTicker    func()
	cancelHide    func()
	cancelRelease func()
	shown         bool
	hidden        bool
	closed        bool
	release       func(*Overlay)
}

func (o *Overlay) play() {
	if !o.player.Start(o.surf.SetImage, o.finish) {
		return // no frames: finish already ran
	}
	o.surf.Show()
	o.shown = true
	o.stopTicker = o.sched.Every(frameInterval, o.player.Tick)
}

// finish runs once the player has shown its last frame, or straight away
// when there was nothing to show.
func (o *Overlay) finish() {
	if o.stopTicker != nil {
		o.stopTicker()
		o.stopTicker = nil
	}
	if !o.shown {
		o.hideAndRelease()
		return
	}
	// Leave the last frame up for its full frame interval.
	o.cancelHide = o.sched.After(frameInterval, o.hideAndRelease)
}

func (o *Overlay) hideAndRelease() {
	o.cancelHide = nil
	o.hide()
	o.cancelRelease = o.sched.After(releaseGrace, func() {
		o.cancelRelease = nil
		o.close()
		o.release(o)
	})
}

// retire stops the overlay immediately: the window is hidden and freed
// and no pending callback will touch it again.
func (o *Overlay) retire() {
	for _, cancel := range []func(){o.stopTicker, o.cancelHide, o.cancelRelease} {
		if cancel != nil {
			cancel()
		}
	}
	o.stopTicker, o.cancelHide, o.cancelRelease = nil, nil, nil
	o.hide()
	o.close()
}

func (o *Overlay) hide() {
	if o.hidden || o.closed {
		return
	}
	o.surf.Hide()
	o.hidden = true
}

func (o *Overlay) close() {
	if o.closed {
		return
	}
	o.surf.Close()
	o.closed = true
}

// OverlayManager owns at most one live Overlay. It must only be used from
// the event loop.
type OverlayManager struct {
	sched    scheduler
	surfaces surfaceFactory
	frames   func() []image.Image
	sound    soundPlayer

	current *Overlay
	nextID  int
}

// NewOverlayManager builds a manager. loadFrames is called once per
// overlay; sound may be nil.
func NewOverlayManager(sched scheduler, surfaces surfaceFactory, loadFrames func() []image.Image, sound soundPlayer) *OverlayManager {
	return &OverlayManager{
		sched:    sched,
		surfaces: surfaces,
		frames:   loadFrames,
		sound:    sound,
	}
}

// Show plays one poof centred on at, size points square. A live overlay
// is retired first so two effects are never on screen together.
func (m *OverlayManager) Show(at Point, size float64) {
	if m.current != nil {
		log.Printf("overlay: retiring #%d for a new effect", m.current.id)
		m.current.retire()
		m.current = nil
	}

	frames := m.frames()
	frame := CenteredSquare(at, size)
	surf, err := m.surfaces.NewSurface(frame)
	if err != nil {
		log.Printf("overlay: cannot create window: %v", err)
		return
	}

	m.nextID++
	o := &Overlay{
		id:      m.nextID,
		sched:   m.sched,
		surf:    surf,
		player:  NewFramePlayer(frames),
		release: m.release,
	}
	m.current = o
	debugf("overlay: #%d at %v with %d frames", o.id, frame, len(frames))
	if m.sound != nil {
		m.sound.Play()
	}
	o.play()
}

// Active reports whether an overlay is still referenced.
func (m *OverlayManager) Active() bool {
	return m.current != nil
}

// Close retires any live overlay. Used on shutdown.
func (m *OverlayManager) Close() {
	if m.current != nil {
		m.current.retire()
		m.current = nil
	}
}

func (m *OverlayManager) release(o *Overlay) {
	if m.current == o {
		m.current = nil
		debugf("overlay: #%d released", o.id)
	}
}
