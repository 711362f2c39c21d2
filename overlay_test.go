package main

import (
	"errors"
	"fmt"
	"image"
	"testing"
)

type fakeSurface struct {
	id      int
	frame   Rect
	images  []image.Image
	visible bool
	closes  int
	events  *[]string
}

func (s *fakeSurface) SetImage(img image.Image) { s.images = append(s.images, img) }

func (s *fakeSurface) Show() {
	s.visible = true
	*s.events = append(*s.events, fmt.Sprintf("show#%d", s.id))
}

func (s *fakeSurface) Hide() {
	s.visible = false
	*s.events = append(*s.events, fmt.Sprintf("hide#%d", s.id))
}

func (s *fakeSurface) Close() {
	s.closes++
	*s.events = append(*s.events, fmt.Sprintf("close#%d", s.id))
}

type fakeSurfaceFactory struct {
	surfaces []*fakeSurface
	events   []string
	err      error
}

func (f *fakeSurfaceFactory) NewSurface(frame Rect) (surface, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := &fakeSurface{id: len(f.surfaces) + 1, frame: frame, events: &f.events}
	f.surfaces = append(f.surfaces, s)
	return s, nil
}

func (f *fakeSurfaceFactory) visible() int {
	n := 0
	for _, s := range f.surfaces {
		if s.visible {
			n++
		}
	}
	return n
}

type countingSound struct{ plays int }

func (c *countingSound) Play() { c.plays++ }

func newTestOverlayManager(frames int) (*OverlayManager, *manualScheduler, *fakeSurfaceFactory, *countingSound) {
	sched := newManualScheduler()
	surfaces := &fakeSurfaceFactory{}
	sound := &countingSound{}
	m := NewOverlayManager(sched, surfaces, func() []image.Image { return testFrames(frames) }, sound)
	return m, sched, surfaces, sound
}

func TestOverlayPlaysThenHidesThenReleases(t *testing.T) {
	m, sched, surfaces, sound := newTestOverlayManager(5)

	m.Show(Point{500, 181}, 77)
	if len(surfaces.surfaces) != 1 {
		t.Fatalf("surfaces = %d; want 1", len(surfaces.surfaces))
	}
	s := surfaces.surfaces[0]
	if want := (Rect{X: 461.5, Y: 142.5, Width: 77, Height: 77}); s.frame != want {
		t.Errorf("frame = %v; want %v", s.frame, want)
	}
	if !s.visible || sound.plays != 1 {
		t.Fatalf("visible=%v plays=%d after Show", s.visible, sound.plays)
	}

	sched.Advance(4 * frameInterval)
	if len(s.images) != 4 {
		t.Fatalf("images after 4 ticks = %d; want 4", len(s.images))
	}
	sched.Advance(frameInterval)
	if len(s.images) != 5 || !s.visible {
		t.Fatalf("after 5 ticks images=%d visible=%v; want last frame on screen", len(s.images), s.visible)
	}

	sched.Advance(frameInterval)
	if s.visible {
		t.Fatal("window still visible one frame after the last frame")
	}
	if !m.Active() || s.closes != 0 {
		t.Fatal("overlay released before the grace delay")
	}

	sched.Advance(releaseGrace)
	if m.Active() {
		t.Error("overlay still referenced after the grace delay")
	}
	if s.closes != 1 {
		t.Errorf("Close() called %d times; want 1", s.closes)
	}
	if n := sched.pending(); n != 0 {
		t.Errorf("%d timers still armed", n)
	}
	if len(s.images) != 5 {
		t.Errorf("images = %d; no frame may repeat", len(s.images))
	}
}

func TestOverlayNewEffectRetiresPrevious(t *testing.T) {
	m, sched, surfaces, _ := newTestOverlayManager(5)

	m.Show(Point{100, 300}, 77)
	sched.Advance(2 * frameInterval)
	m.Show(Point{800, 300}, 148)

	want := []string{"show#1", "hide#1", "close#1", "show#2"}
	if fmt.Sprint(surfaces.events) != fmt.Sprint(want) {
		t.Fatalf("events = %v; want %v", surfaces.events, want)
	}
	if n := surfaces.visible(); n != 1 {
		t.Fatalf("visible overlays = %d; want 1", n)
	}

	sched.Advance(10 * frameInterval)
	first, second := surfaces.surfaces[0], surfaces.surfaces[1]
	if len(first.images) != 2 {
		t.Errorf("retired overlay kept animating: %d frames", len(first.images))
	}
	if first.closes != 1 {
		t.Errorf("retired overlay closed %d times; want 1", first.closes)
	}
	if len(second.images) != 5 {
		t.Errorf("new overlay showed %d frames; want 5", len(second.images))
	}
}

func TestOverlayRetiredDuringGraceKeepsNewReference(t *testing.T) {
	m, sched, surfaces, _ := newTestOverlayManager(2)

	m.Show(Point{100, 300}, 77)
	sched.Advance(3 * frameInterval) // 2 frames + last-frame hold: now hidden
	if surfaces.surfaces[0].visible {
		t.Fatal("first overlay should be hidden")
	}
	m.Show(Point{200, 300}, 77) // inside the 50ms grace window

	sched.Advance(releaseGrace)
	if !m.Active() {
		t.Fatal("stale release dropped the new overlay")
	}
	if c := surfaces.surfaces[0].closes; c != 1 {
		t.Errorf("first overlay closed %d times; want 1", c)
	}
}

func TestOverlayZeroFramesCompletesImmediately(t *testing.T) {
	m, sched, surfaces, _ := newTestOverlayManager(0)

	m.Show(Point{500, 500}, 77)
	s := surfaces.surfaces[0]
	for _, e := range surfaces.events {
		if e == "show#1" {
			t.Fatal("zero-frame overlay was shown")
		}
	}
	if len(s.images) != 0 {
		t.Errorf("images = %d; want 0", len(s.images))
	}
	sched.Advance(releaseGrace)
	if m.Active() {
		t.Error("zero-frame overlay still referenced after grace")
	}
	if s.closes != 1 {
		t.Errorf("closes = %d; want 1", s.closes)
	}
}

func TestOverlaySurfaceErrorIsAbsorbed(t *testing.T) {
	m, _, surfaces, _ := newTestOverlayManager(5)
	surfaces.err = errors.New("no window server")

	m.Show(Point{1, 1}, 77)
	if m.Active() {
		t.Error("Active() = true without a surface")
	}
}

func TestOverlayManagerClose(t *testing.T) {
	m, sched, surfaces, _ := newTestOverlayManager(5)
	m.Show(Point{1, 1}, 77)
	m.Close()
	if surfaces.visible() != 0 || m.Active() {
		t.Error("Close() left an overlay on screen")
	}
	if n := sched.pending(); n != 0 {
		t.Errorf("%d timers armed after Close()", n)
	}
}
