package main

import (
	"context"
	"testing"
	"time"
)

type mockHotkeyStarter struct {
	err        error
	trigger    func()
	registered bool
	stops      int
}

func (m *mockHotkeyStarter) Start(_ context.Context, onTrigger func()) error {
	if m.err != nil {
		return m.err
	}
	m.trigger = onTrigger
	m.registered = true
	return nil
}

func (m *mockHotkeyStarter) Stop() {
	m.stops++
	m.registered = false
}

func (m *mockHotkeyStarter) IsRegistered() bool { return m.registered }

type fakeSoundControl struct {
	countingSound
	enabled bool
	closes  int
}

func (f *fakeSoundControl) SetEnabled(enabled bool) { f.enabled = enabled }
func (f *fakeSoundControl) Enabled() bool { return f.enabled }
func (f *fakeSoundControl) Close() error {
	f.closes++
	return nil
}

type memoryStore struct {
	cfg   Config
	saves int
}

func (m *memoryStore) Load() Config { return m.cfg }

func (m *memoryStore) Save(cfg Config) error {
	m.cfg = cfg
	m.saves++
	return nil
}

// appHarness is an App on a manual clock with every native collaborator faked.
type appHarness struct {
	app      *App
	sched    *manualScheduler
	trust    *fakeTrust
	src      *fakePointerSource
	surfaces *fakeSurfaceFactory
	sound    *fakeSoundControl
	hotkeys  *mockHotkeyStarter
}

func newAppHarness(t *testing.T, cfg Config) *appHarness {
	t.Helper()
	h := &appHarness{
		sched:    newManualScheduler(),
		trust:    &fakeTrust{trusted: true},
		src:      newFakePointerSource(),
		surfaces: &fakeSurfaceFactory{},
		sound:    &fakeSoundControl{enabled: cfg.Sound},
		hotkeys:  &mockHotkeyStarter{},
	}
	p := platform{
		sched:    h.sched,
		trust:    h.trust,
		screens:  &fakeScreens{rect: Rect{Width: 1440, Height: 1000}, ok: true},
		prober:   &fakeProber{pid: testDockPID, ok: true},
		surfaces: h.surfaces,
		pointers: h.src,
		dock:     fakeResolver{pid: testDockPID},
		prefs:    &fakePrefs{prefs: defaultDockPrefs()},
		assets:   newEmbeddedAssets(assetFiles, "assets"),
	}
	h.app = NewApp(cfg, p, h.sound)
	h.app.SetHotkeyService(h.hotkeys)
	t.Cleanup(h.app.Shutdown)
	return h
}

func immediateConfig() Config {
	cfg := defaultConfig()
	cfg.StartupDelay = "0s"
	return cfg
}

func TestAppWaitsForStartupDelay(t *testing.T) {
	cfg := defaultConfig()
	cfg.StartupDelay = "30s"
	h := newAppHarness(t, cfg)

	h.app.Start(context.Background())
	h.sched.Advance(29 * time.Second)
	if h.trust.calls != 0 {
		t.Fatalf("trust checked %d times before the startup delay elapsed", h.trust.calls)
	}
	h.sched.Advance(time.Second)
	if h.trust.calls != 1 || h.trust.prompts != 1 {
		t.Fatalf("after delay: calls=%d prompts=%d; want 1/1", h.trust.calls, h.trust.prompts)
	}
	if !h.app.State().Running {
		t.Error("detector not running after trust was granted")
	}
	if len(h.src.subs) != 3 {
		t.Errorf("subscriptions = %d; want press, drag and release", len(h.src.subs))
	}
}

func TestAppStartsDetectorOnceTrustArrives(t *testing.T) {
	h := newAppHarness(t, immediateConfig())
	h.trust.trusted = false

	h.app.Start(context.Background())
	if h.app.State().Running {
		t.Fatal("detector running without accessibility trust")
	}
	h.trust.trusted = true
	h.sched.Advance(permissionRecheckInterval)

	st := h.app.State()
	if !st.Trusted || !st.Running {
		t.Errorf("state = %+v; want trusted and running", st)
	}
}

func TestAppRecheckSkipsStartupDelay(t *testing.T) {
	cfg := defaultConfig()
	cfg.StartupDelay = "30s"
	h := newAppHarness(t, cfg)

	h.app.Start(context.Background())
	h.app.RecheckPermission()
	if !h.app.State().Running {
		t.Fatal("manual recheck did not start the detector")
	}
	h.sched.Advance(time.Minute)
	if h.trust.calls != 1 {
		t.Errorf("trust checked %d times; the delayed check should be cancelled", h.trust.calls)
	}
}

func TestAppDragOffDockPlaysOnePoof(t *testing.T) {
	h := newAppHarness(t, immediateConfig())
	h.app.Start(context.Background())

	h.src.emit(PointerPress, 500, 40)
	h.src.emit(PointerDrag, 500, 120)
	h.src.emit(PointerRelease, 500, 181)

	if len(h.surfaces.surfaces) != 1 {
		t.Fatalf("surfaces = %d; want 1", len(h.surfaces.surfaces))
	}
	want := Rect{X: 461.5, Y: 142.5, Width: 77, Height: 77}
	if got := h.surfaces.surfaces[0].frame; got != want {
		t.Errorf("overlay frame = %v; want %v", got, want)
	}
	if h.sound.plays != 1 {
		t.Errorf("sound plays = %d; want 1", h.sound.plays)
	}
	h.sched.Advance(poofFrameCount * frameInterval)
	if imgs := h.surfaces.surfaces[0].images; len(imgs) != poofFrameCount {
		t.Errorf("overlay showed %d frames; want %d", len(imgs), poofFrameCount)
	}
}

func TestAppHotkeyTogglesPause(t *testing.T) {
	h := newAppHarness(t, immediateConfig())
	h.app.Start(context.Background())
	if h.hotkeys.trigger == nil {
		t.Fatal("hotkey not started")
	}

	var states []AppState
	h.app.OnStateChange(func(st AppState) { states = append(states, st) })

	h.hotkeys.trigger()
	if !h.app.State().Paused {
		t.Fatal("hotkey did not pause detection")
	}
	h.src.emit(PointerPress, 500, 40)
	h.src.emit(PointerRelease, 500, 181)
	if len(h.surfaces.surfaces) != 0 {
		t.Error("paused detector showed an overlay")
	}

	h.hotkeys.trigger()
	if h.app.State().Paused {
		t.Error("second press did not resume detection")
	}
	if len(states) != 2 || !states[0].Paused || states[1].Paused {
		t.Errorf("state notifications = %+v; want paused then resumed", states)
	}
}

func TestAppHotkeyConflictIsNotFatal(t *testing.T) {
	h := newAppHarness(t, immediateConfig())
	h.hotkeys.err = ErrHotkeyConflict

	h.app.Start(context.Background())
	st := h.app.State()
	if st.HotkeyRegistered {
		t.Error("HotkeyRegistered = true after conflict")
	}
	if !st.Running {
		t.Error("detector should run without the hotkey")
	}
}

func TestAppSoundTogglePersists(t *testing.T) {
	h := newAppHarness(t, immediateConfig())
	store := &memoryStore{cfg: defaultConfig()}
	store.cfg.Volume = 0.3
	h.app.SetConfigStore(store)

	h.app.SetSoundEnabled(false)
	if h.sound.enabled {
		t.Error("sound still enabled")
	}
	if store.saves != 1 || store.cfg.Sound {
		t.Errorf("store: saves=%d sound=%t; want 1/false", store.saves, store.cfg.Sound)
	}
	if store.cfg.Volume != 0.3 {
		t.Errorf("unrelated field overwritten: volume=%v", store.cfg.Volume)
	}
}

func TestAppLaunchAtLogin(t *testing.T) {
	h := newAppHarness(t, immediateConfig())
	h.app.SetLoginItemService(newTestLoginItemService(t))

	if err := h.app.SetLaunchAtLogin(true); err != nil {
		t.Fatalf("SetLaunchAtLogin(true): %v", err)
	}
	if !h.app.State().LaunchAtLogin {
		t.Error("LaunchAtLogin = false after enabling")
	}
	if err := h.app.SetLaunchAtLogin(false); err != nil {
		t.Fatalf("SetLaunchAtLogin(false): %v", err)
	}
	if h.app.State().LaunchAtLogin {
		t.Error("LaunchAtLogin = true after disabling")
	}
}

func TestAppRetriesDetectorAfterMonitorRefused(t *testing.T) {
	h := newAppHarness(t, immediateConfig())
	h.src.failOn[PointerDrag] = true

	h.app.Start(context.Background())
	st := h.app.State()
	if !st.Trusted || st.Running {
		t.Fatalf("state = %+v; want trusted but not running", st)
	}

	// Still refused: keeps retrying.
	h.sched.Advance(detectorRetryInterval)
	if h.app.State().Running {
		t.Fatal("detector running while monitors are refused")
	}

	delete(h.src.failOn, PointerDrag)
	h.sched.Advance(detectorRetryInterval)
	if !h.app.State().Running {
		t.Fatal("detector not running after the monitors became available")
	}
	if h.sched.pending() != 0 {
		t.Errorf("%d timers armed once running; want 0", h.sched.pending())
	}

	// The retried detector works end to end.
	h.src.emit(PointerPress, 500, 40)
	h.src.emit(PointerRelease, 500, 181)
	if len(h.surfaces.surfaces) != 1 {
		t.Errorf("overlays = %d; want 1 after a removal", len(h.surfaces.surfaces))
	}
}

func TestAppShutdownCancelsDetectorRetry(t *testing.T) {
	h := newAppHarness(t, immediateConfig())
	h.src.failOn[PointerPress] = true
	h.app.Start(context.Background())
	if h.sched.pending() == 0 {
		t.Fatal("no retry armed after the detector failed to start")
	}

	h.app.Shutdown()
	if h.sched.pending() != 0 {
		t.Errorf("%d timers still armed after Shutdown", h.sched.pending())
	}
	delete(h.src.failOn, PointerPress)
	h.sched.Advance(detectorRetryInterval)
	if h.app.State().Running {
		t.Error("detector restarted after Shutdown")
	}
}

func TestAppShutdownReleasesEverything(t *testing.T) {
	h := newAppHarness(t, immediateConfig())
	h.trust.trusted = false
	h.app.Start(context.Background())
	if h.sched.pending() == 0 {
		t.Fatal("expected a pending permission recheck")
	}

	h.trust.trusted = true
	h.sched.Advance(permissionRecheckInterval)
	h.src.emit(PointerPress, 500, 40)
	h.src.emit(PointerRelease, 500, 181)

	h.app.Shutdown()
	for _, s := range h.src.subs {
		if s.unsubscribed == 0 {
			t.Errorf("%s monitor still installed", s.kind)
		}
	}
	if h.sched.pending() != 0 {
		t.Errorf("%d timers still armed after Shutdown", h.sched.pending())
	}
	if h.hotkeys.stops != 1 || h.sound.closes != 1 {
		t.Errorf("hotkey stops=%d sound closes=%d; want 1/1", h.hotkeys.stops, h.sound.closes)
	}
	if h.surfaces.visible() != 0 {
		t.Error("overlay still visible after Shutdown")
	}
}

func TestAppStartIsIdempotent(t *testing.T) {
	h := newAppHarness(t, immediateConfig())
	h.app.Start(context.Background())
	h.app.Start(context.Background())
	if h.trust.calls != 1 {
		t.Errorf("trust checked %d times; want 1", h.trust.calls)
	}
	if h.app.ctx.Err() != nil {
		t.Error("app context cancelled before Shutdown")
	}
}
