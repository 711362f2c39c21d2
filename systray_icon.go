package main

import (
	_ "embed"
	"fmt"
	"log"
	"os/exec"
	"strings"

	"github.com/getlantern/systray"
)

//go:embed assets/icon-enabled.png
var iconEnabled []byte

//go:embed assets/icon-disabled.png
var iconDisabled []byte

const accessibilityPaneURL = "x-apple.systempreferences:com.apple.preference.security?Privacy_Accessibility"

// developer is shown in the About dialog; set with -ldflags like version.
var developer = "Unknown Developer"

// aboutText is the body of the About dialog.
func aboutText() string {
	return fmt.Sprintf("Poof\nVersion %s\nby %s", version, developer)
}

// aboutScript renders aboutText as an AppleScript dialog.
func aboutScript() string {
	quote := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return fmt.Sprintf(`display dialog "%s" with title "About Poof" buttons {"OK"} default button 1`,
		quote.Replace(aboutText()))
}

// menuBar is the status item. Clicks arrive on systray goroutines and are
// posted to the event loop; App state changes come back on the loop.
type menuBar struct {
	app   *App
	sched scheduler

	about  *systray.MenuItem
	status *systray.MenuItem
	pause  *systray.MenuItem
	sound  *systray.MenuItem
	login  *systray.MenuItem
	quit   *systray.MenuItem
}

// RunMenuBar runs the Cocoa main loop with the poof status item. It must
// be called from the main goroutine and returns after Quit. onReady runs
// once the status item exists; onExit after the run loop has stopped.
func RunMenuBar(app *App, sched scheduler, onReady, onExit func()) {
	m := &menuBar{app: app, sched: sched}
	systray.Run(func() {
		m.build()
		onReady()
	}, onExit)
}

func (m *menuBar) build() {
	HideFromDock()
	systray.SetTemplateIcon(iconDisabled, iconDisabled)
	systray.SetTooltip("Poof")

	m.about = systray.AddMenuItem("About Poof", "Show version information")
	systray.AddSeparator()
	m.status = systray.AddMenuItem("Checking accessibility access…", "Open the Accessibility privacy settings")
	systray.AddSeparator()
	pauseTitle := "Pause"
	if m.app.hotkeys != nil {
		pauseTitle = fmt.Sprintf("Pause (%s)", FormatHotkey(m.app.cfg.Hotkey))
	}
	m.pause = systray.AddMenuItemCheckbox(pauseTitle, "Stop reacting to dock drags", false)
	m.sound = systray.AddMenuItemCheckbox("Play Sound", "Play a poof sound with the animation", m.app.cfg.Sound)
	m.login = systray.AddMenuItemCheckbox("Launch at Login", "Start poof when you log in", false)
	systray.AddSeparator()
	m.quit = systray.AddMenuItem("Quit Poof", "Exit the application")

	m.sched.Post(func() {
		m.app.OnStateChange(m.render)
		m.render(m.app.State())
	})
	go m.listen()
}

func (m *menuBar) listen() {
	for {
		select {
		case <-m.about.ClickedCh:
			if err := exec.Command("osascript", "-e", aboutScript()).Start(); err != nil {
				log.Printf("systray: cannot show about dialog: %v", err)
			}
		case <-m.status.ClickedCh:
			if err := exec.Command("open", accessibilityPaneURL).Start(); err != nil {
				log.Printf("systray: cannot open settings: %v", err)
			}
			m.sched.Post(m.app.RecheckPermission)
		case <-m.pause.ClickedCh:
			m.sched.Post(m.app.TogglePause)
		case <-m.sound.ClickedCh:
			m.sched.Post(func() { m.app.SetSoundEnabled(!m.app.State().Sound) })
		case <-m.login.ClickedCh:
			m.sched.Post(func() {
				if err := m.app.SetLaunchAtLogin(!m.app.State().LaunchAtLogin); err != nil {
					log.Printf("systray: launch at login: %v", err)
				}
			})
		case <-m.quit.ClickedCh:
			m.sched.Post(func() {
				m.app.Shutdown()
				systray.Quit()
			})
			return
		}
	}
}

// render runs on the event loop.
func (m *menuBar) render(st AppState) {
	switch {
	case st.Checking:
		m.status.SetTitle("Checking accessibility access…")
		m.status.Enable()
	case !st.Trusted:
		m.status.SetTitle("Grant Accessibility Access…")
		m.status.Enable()
	case st.Running:
		m.status.SetTitle("Watching the Dock")
		m.status.Disable()
	default:
		m.status.SetTitle("Dock monitor unavailable")
		m.status.Disable()
	}

	active := st.Trusted && st.Running && !st.Paused
	if active {
		systray.SetTemplateIcon(iconEnabled, iconEnabled)
	} else {
		systray.SetTemplateIcon(iconDisabled, iconDisabled)
	}

	setChecked(m.pause, st.Paused)
	setChecked(m.sound, st.Sound)
	setChecked(m.login, st.LaunchAtLogin)
}

func setChecked(item *systray.MenuItem, checked bool) {
	if checked {
		item.Check()
	} else {
		item.Uncheck()
	}
}
