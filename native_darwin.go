//go:build darwin

package main

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit -framework ApplicationServices -framework CoreFoundation
#include <stdlib.h>

// Only declarations here; the implementation is in native_darwin.m so the
// //export below does not duplicate Objective-C symbols.
#include "native_darwin.h"
*/
import "C"

import (
	"fmt"
	"image"
	"image/draw"
	"sync"
	"sync/atomic"
	"unsafe"
)

// monitors maps the handle passed to C back to its subscription.
var monitors = struct {
	sync.Mutex
	next uintptr
	subs map[uintptr]*nativeSubscription
}{subs: map[uintptr]*nativeSubscription{}}

//export goPointerEvent
func goPointerEvent(handle C.uintptr_t, x, y C.double) {
	monitors.Lock()
	sub := monitors.subs[uintptr(handle)]
	monitors.Unlock()
	if sub == nil {
		return
	}
	sub.deliver(Point{X: float64(x), Y: float64(y)})
}

// nativePointerSource installs NSEvent global monitors. The monitor
// callbacks run on the AppKit main thread and only post to sched.
type nativePointerSource struct {
	sched scheduler
}

func newNativePointerSource(sched scheduler) *nativePointerSource {
	return &nativePointerSource{sched: sched}
}

func (s *nativePointerSource) Subscribe(kind PointerKind, handler func(PointerEvent)) (Subscription, error) {
	sub := &nativeSubscription{kind: kind, handler: handler, sched: s.sched}
	monitors.Lock()
	monitors.next++
	sub.handle = monitors.next
	monitors.subs[sub.handle] = sub
	monitors.Unlock()

	sub.token = C.poofAddMonitor(C.int(kind), C.uintptr_t(sub.handle))
	if sub.token == 0 {
		sub.forget()
		return nil, fmt.Errorf("native: cannot install %s monitor", kind)
	}
	sub.live.Store(true)
	return sub, nil
}

type nativeSubscription struct {
	kind    PointerKind
	handler func(PointerEvent)
	sched   scheduler
	handle  uintptr
	token   C.uintptr_t
	live    atomic.Bool
	once    sync.Once
}

func (s *nativeSubscription) deliver(at Point) {
	ev := PointerEvent{Kind: s.kind, Location: at}
	s.sched.Post(func() {
		// Events already queued when the monitor was removed are dropped.
		if s.live.Load() {
			s.handler(ev)
		}
	})
}

func (s *nativeSubscription) forget() {
	monitors.Lock()
	delete(monitors.subs, s.handle)
	monitors.Unlock()
}

func (s *nativeSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.live.Store(false)
		s.forget()
		C.poofRemoveMonitor(s.token)
	})
}

// nativeScreens reads the primary display from NSScreen.
type nativeScreens struct{}

func (nativeScreens) PrimaryScreen() (Rect, bool) {
	r := C.poofPrimaryScreen()
	if r.ok == 0 {
		return Rect{}, false
	}
	return Rect{X: float64(r.x), Y: float64(r.y), Width: float64(r.width), Height: float64(r.height)}, true
}

// nativeDockPrefs reads com.apple.dock in-process through CFPreferences.
// Every call synchronizes with cfprefsd, so values are never stale.
type nativeDockPrefs struct{}

func (nativeDockPrefs) DockPrefs() DockPrefs {
	p := C.poofReadDockPrefs()
	var raw rawDockPrefs
	if p.hasTileSize != 0 {
		v := float64(p.tileSize)
		raw.TileSize = &v
	}
	if p.hasMagnification != 0 {
		v := p.magnification != 0
		raw.Magnification = &v
	}
	if p.hasLargeSize != 0 {
		v := float64(p.largeSize)
		raw.LargeSize = &v
	}
	if p.hasOrientation != 0 {
		v := C.GoString(&p.orientation[0])
		raw.Orientation = &v
	}
	return raw.resolve()
}

// nativeProber hit-tests through the accessibility API, which addresses
// the screen from the top-left corner of the primary display.
type nativeProber struct {
	screens screenProvider
}

func (p nativeProber) ElementPID(at Point) (int32, bool) {
	screen, ok := p.screens.PrimaryScreen()
	if !ok {
		return 0, false
	}
	top := screen.MaxY() - at.Y
	var pid C.int32_t
	if C.poofElementPID(C.double(at.X), C.double(top), &pid) == 0 {
		return 0, false
	}
	return int32(pid), true
}

// nativeTrust wraps AXIsProcessTrustedWithOptions.
type nativeTrust struct{}

func (nativeTrust) IsTrusted(prompt bool) bool {
	p := C.int(0)
	if prompt {
		p = 1
	}
	return C.poofIsTrusted(p) != 0
}

// nativeSurfaces creates borderless, click-through overlay windows.
type nativeSurfaces struct{}

func (nativeSurfaces) NewSurface(frame Rect) (surface, error) {
	win := C.poofWindowCreate(C.double(frame.X), C.double(frame.Y), C.double(frame.Width), C.double(frame.Height))
	if win == 0 {
		return nil, fmt.Errorf("native: cannot create overlay window at %s", frame)
	}
	return &nativeSurface{win: win, pixels: map[image.Image]*image.RGBA{}}, nil
}

type nativeSurface struct {
	win    C.uintptr_t
	pixels map[image.Image]*image.RGBA
	closed bool
}

func (s *nativeSurface) SetImage(img image.Image) {
	if s.closed || img == nil {
		return
	}
	rgba, ok := s.pixels[img]
	if !ok {
		rgba = toRGBA(img)
		s.pixels[img] = rgba
	}
	b := rgba.Bounds()
	buf := C.CBytes(rgba.Pix)
	defer C.free(buf)
	C.poofWindowSetImage(s.win, (*C.uint8_t)(unsafe.Pointer(buf)), C.int(b.Dx()), C.int(b.Dy()))
}

func (s *nativeSurface) Show() {
	if !s.closed {
		C.poofWindowShow(s.win)
	}
}

func (s *nativeSurface) Hide() {
	if !s.closed {
		C.poofWindowHide(s.win)
	}
}

func (s *nativeSurface) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.pixels = nil
	C.poofWindowClose(s.win)
}

// toRGBA returns a tightly packed, zero-origin copy of img.
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
