package main

import (
	"context"
	"fmt"
	"log"
)

// dragExitMargin is how far outside the dock strip a tracked drag has to
// travel before the debug log reports it as having left the dock.
const dragExitMargin = 30.0

// effectPresenter shows one removal effect. OverlayManager implements it.
type effectPresenter interface {
	Show(at Point, size float64)
}

// dockPIDResolver finds the Dock process. DockLocator implements it.
type dockPIDResolver interface {
	DockPID(ctx context.Context) (int32, error)
}

// DragSession tracks one press→release gesture. The zero value is Idle.
type DragSession struct {
	Active        bool
	StartedInDock bool
	// leftDock is set once a tracked drag has been seen outside the
	// dock strip plus dragExitMargin.
	leftDock bool
}

// DragRemovalDetector turns global pointer events into "an icon was
// dragged off the dock" decisions. All methods except Start and Stop are
// called on the event loop; Start and Stop must be as well.
type DragRemovalDetector struct {
	prefs   dockPrefsSource
	screens screenProvider
	prober  elementProber
	effects effectPresenter

	dockPID int32 // 0 while unresolved; hit tests then always fail
	session DragSession
	paused  bool
	subs    []Subscription
}

// NewDragRemovalDetector wires a detector to its collaborators. It does
// not subscribe to anything until Start.
func NewDragRemovalDetector(prefs dockPrefsSource, screens screenProvider, prober elementProber, effects effectPresenter) *DragRemovalDetector {
	return &DragRemovalDetector{
		prefs:   prefs,
		screens: screens,
		prober:  prober,
		effects: effects,
	}
}

// Start resolves the Dock process and installs the press, drag and
// release monitors. An unresolvable Dock is logged, not returned: the
// detector then runs with hit testing failing closed.
func (d *DragRemovalDetector) Start(ctx context.Context, dock dockPIDResolver, src pointerSource) error {
	if len(d.subs) > 0 {
		return nil // already running
	}
	pid, err := dock.DockPID(ctx)
	if err != nil {
		log.Printf("detector: %v — dock detection disabled", err)
		pid = 0
	}
	d.dockPID = pid

	handlers := []struct {
		kind PointerKind
		fn   func(Point)
	}{
		{PointerPress, d.handlePress},
		{PointerDrag, d.handleDrag},
		{PointerRelease, d.handleRelease},
	}
	for _, h := range handlers {
		fn := h.fn
		sub, err := src.Subscribe(h.kind, func(ev PointerEvent) { fn(ev.Location) })
		if err != nil {
			d.Stop()
			return fmt.Errorf("detector: subscribe %s: %w", h.kind, err)
		}
		d.subs = append(d.subs, sub)
	}
	log.Printf("detector: monitoring dock (pid %d)", d.dockPID)
	return nil
}

// Stop removes every monitor installed by Start. It is idempotent.
func (d *DragRemovalDetector) Stop() {
	for _, s := range d.subs {
		s.Unsubscribe()
	}
	if len(d.subs) > 0 {
		log.Printf("detector: stopped")
	}
	d.subs = nil
	d.session = DragSession{}
}

// Running reports whether monitors are installed.
func (d *DragRemovalDetector) Running() bool {
	return len(d.subs) > 0
}

// SetPaused suspends detection. A gesture in flight is abandoned.
func (d *DragRemovalDetector) SetPaused(paused bool) {
	d.paused = paused
	if paused {
		d.session = DragSession{}
	}
	log.Printf("detector: paused=%t", paused)
}

func (d *DragRemovalDetector) Paused() bool {
	return d.paused
}

func (d *DragRemovalDetector) handlePress(at Point) {
	defer d.recoverHandler(PointerPress)

	d.session = DragSession{}
	if d.paused {
		return
	}
	geom, ok := d.geometry()
	if !ok || !geom.Region.Contains(at) {
		return
	}
	if !d.isDockElement(at) {
		debugf("detector: press at %v inside dock strip but not on a dock element", at)
		return
	}
	d.session = DragSession{Active: true, StartedInDock: true}
	debugf("detector: tracking drag from %v", at)
}

func (d *DragRemovalDetector) handleDrag(at Point) {
	defer d.recoverHandler(PointerDrag)

	// Drag events only feed the debug log. With debug off they must not
	// touch preferences or screens: one drag delivers dozens of events.
	if !debugEnabled.Load() || !d.session.Active || d.session.leftDock {
		return
	}
	geom, ok := d.geometry()
	if !ok {
		return
	}
	if !geom.Region.Inset(-dragExitMargin, -dragExitMargin).Contains(at) {
		d.session.leftDock = true
		debugf("detector: drag left the dock at %v", at)
	}
}

func (d *DragRemovalDetector) handleRelease(at Point) {
	defer d.recoverHandler(PointerRelease)

	session := d.session
	d.session = DragSession{}
	if !session.Active || !session.StartedInDock {
		return
	}
	// Preferences are read again here: the dock may have moved or been
	// resized while the drag was in progress.
	geom, ok := d.geometry()
	if !ok {
		return
	}
	if !geom.IsRemoval(at) {
		debugf("detector: release at %v is %.1f from the dock; not a removal", at, geom.DistanceFromDock(at))
		return
	}
	log.Printf("detector: removal at %v (%s dock, icon %.0f)", at, geom.Orientation, geom.IconSize)
	d.effects.Show(at, geom.IconSize)
}

// geometry derives the dock strip for this instant. A missing primary
// screen means there is no dock to hit this event.
func (d *DragRemovalDetector) geometry() (DockGeometry, bool) {
	screen, ok := d.screens.PrimaryScreen()
	if !ok {
		return DockGeometry{}, false
	}
	return computeDockGeometry(screen, d.prefs.DockPrefs()), true
}

func (d *DragRemovalDetector) isDockElement(at Point) bool {
	if d.dockPID == 0 {
		return false
	}
	pid, ok := d.prober.ElementPID(at)
	return ok && pid == d.dockPID
}

// recoverHandler keeps a fault in one event from taking down global
// monitoring. The gesture in flight is dropped.
func (d *DragRemovalDetector) recoverHandler(kind PointerKind) {
	if r := recover(); r != nil {
		log.Printf("detector: recovered panic in %s handler: %v", kind, r)
		d.session = DragSession{}
	}
}
