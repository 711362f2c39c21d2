package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/urfave/cli/v2"
)

// version is set at link time with -ldflags "-X main.version=...".
var version = "dev"

// AppKit insists on the main thread; systray.Run is called from main.
func init() {
	runtime.LockOSThread()
}

func main() {
	if err := newCLIApp().Run(os.Args); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// newCLIApp builds the command line: the root action runs the agent.
func newCLIApp() *cli.App {
	return &cli.App{
		Name:    "poof",
		Usage:   "play a puff of smoke when an icon is dragged off the Dock",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "config file `PATH`",
				Value: NewConfigService().Path(),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "log every pointer event and hit test",
			},
			&cli.DurationFlag{
				Name:  "startup-delay",
				Usage: "wait this long before the first accessibility check",
			},
			&cli.BoolFlag{
				Name:  "no-sound",
				Usage: "do not play the poof sound this session",
			},
		},
		Action: runAgent,
		Commands: []*cli.Command{
			{
				Name:   "doctor",
				Usage:  "print accessibility, Dock and geometry diagnostics",
				Action: runDoctor,
			},
		},
	}
}

// loadConfig reads the config file and applies command-line overrides.
// Overrides are not written back.
func loadConfig(c *cli.Context) (Config, *ConfigService) {
	store := newConfigServiceAt(c.String("config"))
	cfg := store.Load()
	if c.Bool("debug") {
		cfg.LogLevel = "debug"
	}
	if c.IsSet("startup-delay") {
		cfg.StartupDelay = c.Duration("startup-delay").String()
	}
	if c.Bool("no-sound") {
		cfg.Sound = false
	}
	return cfg, store
}

func runAgent(c *cli.Context) error {
	cfg, store := loadConfig(c)
	closeLog := setupLogging(cfg)
	defer closeLog() //nolint:errcheck
	log.Printf("poof: starting (config %s)", store.Path())

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()
	loop := NewEventLoop()
	go loop.Run(ctx)

	screens := nativeScreens{}
	app := NewApp(cfg, platform{
		sched:    loop,
		trust:    nativeTrust{},
		screens:  screens,
		prober:   nativeProber{screens: screens},
		surfaces: nativeSurfaces{},
		pointers: newNativePointerSource(loop),
		dock:     NewDockLocator(),
		prefs:    nativeDockPrefs{},
		assets:   newEmbeddedAssets(assetFiles, "assets"),
	}, NewSoundService(cfg.Sound, cfg.Volume))
	app.SetConfigStore(store)

	if li, err := NewLoginItemService(); err != nil {
		log.Printf("warning: failed to create LoginItemService: %v", err)
	} else {
		app.SetLoginItemService(li)
	}
	if cfg.Hotkey != hotkeyDisabled {
		if hs, err := NewHotkeyService(cfg.Hotkey); err != nil {
			log.Printf("hotkey: %v — pause from the menu bar instead", err)
		} else {
			app.SetHotkeyService(hs)
		}
	}

	RunMenuBar(app, loop,
		func() { loop.Post(func() { app.Start(ctx) }) },
		cancel,
	)

	select {
	case <-loop.Done():
	case <-time.After(time.Second):
		log.Printf("poof: event loop did not stop in time")
	}
	return nil
}

func runDoctor(c *cli.Context) error {
	cfg, store := loadConfig(c)
	if cfg.LogLevel == "debug" {
		debugEnabled.Store(true)
	}
	out := c.App.Writer
	if out == nil {
		out = os.Stdout
	}

	fmt.Fprintf(out, "config:            %s\n", store.Path())
	fmt.Fprintf(out, "accessibility:     trusted=%t\n", nativeTrust{}.IsTrusted(false))

	if pid, err := NewDockLocator().DockPID(c.Context); err != nil {
		fmt.Fprintf(out, "dock process:      %v\n", err)
	} else {
		fmt.Fprintf(out, "dock process:      pid %d\n", pid)
	}

	prefs := nativeDockPrefs{}.DockPrefs()
	printPrefs(out, "dock preferences:", prefs)
	if exported := NewDockPreferences().DockPrefs(); exported != prefs {
		printPrefs(out, "defaults export:", exported)
	}

	screen, ok := nativeScreens{}.PrimaryScreen()
	if !ok {
		fmt.Fprintln(out, "primary screen:    unavailable")
	} else {
		printGeometry(out, screen, prefs)
	}

	frames := loadPoofFrames(newEmbeddedAssets(assetFiles, "assets"))
	fmt.Fprintf(out, "poof animation:    %d/%d frames\n", len(frames), poofFrameCount)
	fmt.Fprintf(out, "hotkey:            %s\n", cfg.Hotkey)
	return nil
}

func printPrefs(out io.Writer, label string, prefs DockPrefs) {
	fmt.Fprintf(out, "%-19sorientation=%s tilesize=%.0f magnification=%t largesize=%.0f\n",
		label, prefs.Orientation, prefs.TileSize, prefs.Magnification, prefs.LargeSize)
}

func printGeometry(out io.Writer, screen Rect, prefs DockPrefs) {
	geom := computeDockGeometry(screen, prefs)
	fmt.Fprintf(out, "primary screen:    %s\n", screen)
	fmt.Fprintf(out, "dock region:       %s (%s)\n", geom.Region, geom.Orientation)
	fmt.Fprintf(out, "icon size:         %.0f\n", geom.IconSize)
	fmt.Fprintf(out, "removal threshold: > %.0f points from the dock\n", removeThreshold)
}
