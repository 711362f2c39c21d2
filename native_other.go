//go:build !darwin

package main

// Stubs so the platform-independent core builds and tests anywhere.

type nativePointerSource struct{}

func newNativePointerSource(scheduler) *nativePointerSource { return &nativePointerSource{} }

func (*nativePointerSource) Subscribe(PointerKind, func(PointerEvent)) (Subscription, error) {
	return nil, ErrUnsupportedPlatform
}

type nativeScreens struct{}

func (nativeScreens) PrimaryScreen() (Rect, bool) { return Rect{}, false }

type nativeDockPrefs struct{}

func (nativeDockPrefs) DockPrefs() DockPrefs { return defaultDockPrefs() }

type nativeProber struct {
	screens screenProvider
}

func (nativeProber) ElementPID(Point) (int32, bool) { return 0, false }

type nativeTrust struct{}

func (nativeTrust) IsTrusted(bool) bool { return false }

type nativeSurfaces struct{}

func (nativeSurfaces) NewSurface(Rect) (surface, error) { return nil, ErrUnsupportedPlatform }

// HideFromDock is a no-op off macOS.
func HideFromDock() {}
