package main

import (
	"errors"
	"fmt"
)

// ErrUnsupportedPlatform is returned by native bridges on systems other
// than macOS.
var ErrUnsupportedPlatform = errors.New("native: unsupported platform")

// PointerKind is the phase of a left-button gesture.
type PointerKind int

const (
	PointerPress PointerKind = iota
	PointerDrag
	PointerRelease
)

func (k PointerKind) String() string {
	switch k {
	case PointerPress:
		return "press"
	case PointerDrag:
		return "drag"
	case PointerRelease:
		return "release"
	}
	return fmt.Sprintf("PointerKind(%d)", int(k))
}

// PointerEvent is one global mouse event, consumed synchronously.
type PointerEvent struct {
	Kind     PointerKind
	Location Point
}

// Subscription is a live global event monitor. Unsubscribe removes it and
// is safe to call more than once.
type Subscription interface {
	Unsubscribe()
}

// pointerSource installs global pointer monitors. Handlers are delivered
// on the caller's scheduler, never on the thread that observed the event.
type pointerSource interface {
	Subscribe(kind PointerKind, handler func(PointerEvent)) (Subscription, error)
}

// screenProvider exposes the primary display frame.
type screenProvider interface {
	PrimaryScreen() (Rect, bool)
}

// elementProber answers which process owns the accessibility element
// under a screen point.
type elementProber interface {
	ElementPID(at Point) (pid int32, ok bool)
}
