package main

import (
	"fmt"
	"log"
	"os/exec"

	"howett.net/plist"
)

const dockBundleID = "com.apple.dock"

// dockPrefsSource is the read-only view of the dock's preferences.
// Implementations must read fresh values on every call.
type dockPrefsSource interface {
	DockPrefs() DockPrefs
}

// DockPreferences reads com.apple.dock through `defaults export`, which
// goes through cfprefsd and therefore sees changes the on-disk plist may
// not have been flushed with yet. Each read starts a process, so the
// agent uses nativeDockPrefs; this source backs the doctor command.
type DockPreferences struct {
	export func() ([]byte, error)
}

// NewDockPreferences returns a source backed by the defaults(1) tool.
func NewDockPreferences() *DockPreferences {
	return &DockPreferences{export: exportDockDomain}
}

// newDockPreferencesFromBytes serves a fixed plist document (for tests).
func newDockPreferencesFromBytes(data []byte) *DockPreferences {
	return &DockPreferences{export: func() ([]byte, error) { return data, nil }}
}

func exportDockDomain() ([]byte, error) {
	out, err := exec.Command("defaults", "export", dockBundleID, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("defaults export %s: %w", dockBundleID, err)
	}
	return out, nil
}

// DockPrefs returns the current preferences. Missing or unreadable values
// fall back to the dock's factory defaults.
func (d *DockPreferences) DockPrefs() DockPrefs {
	prefs := defaultDockPrefs()
	data, err := d.export()
	if err != nil {
		log.Printf("prefs: %v — using defaults", err)
		return prefs
	}
	var domain map[string]interface{}
	if _, err := plist.Unmarshal(data, &domain); err != nil {
		log.Printf("prefs: parse %s: %v — using defaults", dockBundleID, err)
		return prefs
	}
	var raw rawDockPrefs
	if v, ok := plistFloat(domain["tilesize"]); ok {
		raw.TileSize = &v
	}
	if v, ok := plistBool(domain["magnification"]); ok {
		raw.Magnification = &v
	}
	if v, ok := plistFloat(domain["largesize"]); ok {
		raw.LargeSize = &v
	}
	if v, ok := domain["orientation"].(string); ok {
		raw.Orientation = &v
	}
	return raw.resolve()
}

// rawDockPrefs holds the dock keys as read from a preferences backend.
// A nil field is a key that is missing or has the wrong type.
type rawDockPrefs struct {
	TileSize      *float64
	Magnification *bool
	LargeSize     *float64
	Orientation   *string
}

// resolve fills missing keys with the dock's factory defaults.
func (r rawDockPrefs) resolve() DockPrefs {
	prefs := defaultDockPrefs()
	if r.TileSize != nil {
		prefs.TileSize = *r.TileSize
	}
	if r.Magnification != nil {
		prefs.Magnification = *r.Magnification
	}
	if r.LargeSize != nil {
		prefs.LargeSize = *r.LargeSize
	}
	if r.Orientation != nil {
		prefs.Orientation = parseOrientation(*r.Orientation)
	}
	return prefs
}

// plistFloat accepts both <real> and <integer> values; the dock writes
// tile sizes as either depending on how they were last set.
func plistFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

// plistBool accepts <true/>/<false/> and the 0/1 integers written by
// `defaults write -int`.
func plistBool(v interface{}) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case int64:
		return b != 0, true
	case uint64:
		return b != 0, true
	}
	return false, false
}
