package main

import (
	"context"
	"errors"
	"image"
	"log"
	"os"
	"time"
)

// detectorRetryInterval is how long to wait before installing the
// monitors again after the system refused them.
const detectorRetryInterval = 5 * time.Second

// hotkeyStarter is the minimal interface the App needs from HotkeyService.
// Using an interface keeps real CGo goroutines out of unit tests.
type hotkeyStarter interface {
	Start(ctx context.Context, onTrigger func()) error
	Stop()
	IsRegistered() bool
}

// soundControl is what the App needs from SoundService.
type soundControl interface {
	soundPlayer
	SetEnabled(enabled bool)
	Enabled() bool
	Close() error
}

// configStore persists user-visible toggles. ConfigService implements it.
type configStore interface {
	Load() Config
	Save(cfg Config) error
}

// platform bundles the OS-facing collaborators the App is built from.
type platform struct {
	sched    scheduler
	trust    trustChecker
	screens  screenProvider
	prober   elementProber
	surfaces surfaceFactory
	pointers pointerSource
	dock     dockPIDResolver
	prefs    dockPrefsSource
	assets   assetSource
}

// AppState is the snapshot the menu bar renders.
type AppState struct {
	Checking         bool // no permission answer yet (startup delay)
	Trusted          bool
	Running          bool
	Paused           bool
	Sound            bool
	LaunchAtLogin    bool
	HotkeyRegistered bool
}

// App owns the agent's components. Every method must run on the event
// loop; the menu bar and the hotkey post onto it.
type App struct {
	cfg        Config
	p          platform
	sound      soundControl
	store      configStore       // nil: toggles are not persisted
	hotkeys    hotkeyStarter     // nil in unit tests; real HotkeyService in production
	loginItems *LoginItemService // nil when the home dir is unknown

	overlays   *OverlayManager
	detector   *DragRemovalDetector
	permission *PermissionWatcher

	ctx         context.Context
	cancel      context.CancelFunc
	cancelDelay func()
	cancelRetry func()
	observed    bool
	trusted     bool
	started     bool
	listeners   []func(AppState)
}

// NewApp wires the detector, overlay manager and permission watcher.
// Nothing observes the system until Start.
func NewApp(cfg Config, p platform, sound soundControl) *App {
	a := &App{cfg: cfg, p: p, sound: sound}

	var player soundPlayer
	if sound != nil {
		player = sound
	}
	frames := func() []image.Image { return loadPoofFrames(p.assets) }
	a.overlays = NewOverlayManager(p.sched, p.surfaces, frames, player)
	a.detector = NewDragRemovalDetector(p.prefs, p.screens, p.prober, a.overlays)
	a.permission = NewPermissionWatcher(p.sched, p.trust, cfg.PromptForAccess, a.startDetector)
	a.permission.OnChange(func(trusted bool) {
		a.observed = true
		a.trusted = trusted
		a.notify()
	})
	return a
}

// SetHotkeyService injects the pause hotkey (called by main before Start).
func (a *App) SetHotkeyService(hs hotkeyStarter) {
	a.hotkeys = hs
}

// SetLoginItemService injects the launchd login item manager.
func (a *App) SetLoginItemService(li *LoginItemService) {
	a.loginItems = li
}

// SetConfigStore makes menu toggles persistent.
func (a *App) SetConfigStore(store configStore) {
	a.store = store
}

// OnStateChange registers a hook called with a fresh AppState whenever
// something the menu bar shows changes.
func (a *App) OnStateChange(fn func(AppState)) {
	a.listeners = append(a.listeners, fn)
}

// Start registers the hotkey and schedules the first permission check
// after the configured startup delay.
func (a *App) Start(ctx context.Context) {
	if a.started {
		return
	}
	a.started = true
	a.ctx, a.cancel = context.WithCancel(ctx)

	if a.hotkeys != nil {
		if err := a.hotkeys.Start(a.ctx, func() { a.p.sched.Post(a.TogglePause) }); err != nil {
			if errors.Is(err, ErrHotkeyConflict) {
				log.Printf("hotkey: %s is already registered by another app — using menu bar only", a.cfg.Hotkey)
			} else {
				log.Printf("hotkey: failed to register: %v", err)
			}
		}
	}

	delay := a.cfg.StartupDelayDuration()
	if delay <= 0 {
		a.permission.Start()
	} else {
		log.Printf("app: first accessibility check in %s", delay)
		a.cancelDelay = a.p.sched.After(delay, func() {
			a.cancelDelay = nil
			a.permission.Start()
		})
	}
	a.notify()
}

// startDetector runs once accessibility is granted. The permission
// watcher fires only once, so a failed start is retried here until the
// monitors are in place or the app shuts down.
func (a *App) startDetector() {
	a.cancelRetry = nil
	if a.ctx.Err() != nil {
		return
	}
	if err := a.detector.Start(a.ctx, a.p.dock, a.p.pointers); err != nil {
		log.Printf("app: %v — retrying in %s", err, detectorRetryInterval)
		a.cancelRetry = a.p.sched.After(detectorRetryInterval, a.startDetector)
	}
	a.notify()
}

// RecheckPermission checks trust right away, skipping any remaining
// startup delay. Used after sending the user to System Settings.
func (a *App) RecheckPermission() {
	if !a.started {
		return
	}
	if a.cancelDelay != nil {
		a.cancelDelay()
		a.cancelDelay = nil
	}
	a.permission.Recheck()
}

// TogglePause flips detection on or off.
func (a *App) TogglePause() {
	a.SetPaused(!a.detector.Paused())
}

func (a *App) SetPaused(paused bool) {
	if a.detector.Paused() == paused {
		return
	}
	a.detector.SetPaused(paused)
	a.notify()
}

// SetSoundEnabled toggles the poof sound and persists the choice.
func (a *App) SetSoundEnabled(enabled bool) {
	if a.sound == nil {
		return
	}
	a.sound.SetEnabled(enabled)
	a.updateConfig(func(cfg *Config) { cfg.Sound = enabled })
	a.notify()
}

// SetLaunchAtLogin enables or disables the launch-at-login login item.
func (a *App) SetLaunchAtLogin(enabled bool) error {
	if a.loginItems == nil {
		return nil
	}
	var err error
	if enabled {
		var execPath string
		execPath, err = os.Executable()
		if err == nil {
			err = a.loginItems.Enable(execPath)
		}
	} else {
		err = a.loginItems.Disable()
	}
	a.notify()
	return err
}

// State snapshots what the menu bar shows.
func (a *App) State() AppState {
	st := AppState{
		Checking: !a.observed,
		Trusted:  a.trusted,
		Running:  a.detector.Running(),
		Paused:   a.detector.Paused(),
	}
	if a.sound != nil {
		st.Sound = a.sound.Enabled()
	}
	if a.loginItems != nil {
		st.LaunchAtLogin = a.loginItems.IsEnabled()
	}
	if a.hotkeys != nil {
		st.HotkeyRegistered = a.hotkeys.IsRegistered()
	}
	return st
}

// Shutdown stops every monitor, timer and native resource. It is safe to
// call more than once.
func (a *App) Shutdown() {
	if a.cancelDelay != nil {
		a.cancelDelay()
		a.cancelDelay = nil
	}
	if a.cancelRetry != nil {
		a.cancelRetry()
		a.cancelRetry = nil
	}
	a.permission.Stop()
	a.detector.Stop()
	a.overlays.Close()
	if a.hotkeys != nil {
		a.hotkeys.Stop()
	}
	if a.sound != nil {
		if err := a.sound.Close(); err != nil {
			log.Printf("sound: close: %v", err)
		}
	}
	if a.cancel != nil {
		a.cancel()
	}
	log.Printf("app: shut down")
}

func (a *App) updateConfig(mutate func(*Config)) {
	if a.store == nil {
		return
	}
	cfg := a.store.Load()
	mutate(&cfg)
	if err := a.store.Save(cfg); err != nil {
		log.Printf("config: save failed: %v", err)
	}
}

func (a *App) notify() {
	if len(a.listeners) == 0 {
		return
	}
	st := a.State()
	for _, fn := range a.listeners {
		fn(st)
	}
}
