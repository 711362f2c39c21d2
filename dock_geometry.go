package main

import "strings"

const (
	// dockThickness is the hit-test depth of the dock strip. It does not
	// track the rendered dock exactly; it only has to cover the icons.
	dockThickness = 80.0
	// removeThreshold is how far past the dock edge a release must land
	// before the Dock itself treats the drag as a removal.
	removeThreshold = 100.0
	// iconPadding is added to the dock tile size to get the overlay size.
	iconPadding = 20.0

	defaultTileSize  = 57.0
	defaultLargeSize = 128.0
)

// Orientation is the screen edge the dock is pinned to.
type Orientation int

const (
	OrientationBottom Orientation = iota
	OrientationLeft
	OrientationRight
)

type axis int

const (
	axisX axis = iota
	axisY
)

// orientationSpec describes everything that differs between dock edges.
// Region building, removal distance and preference parsing all read from
// orientations, so a dock edge is defined in exactly one place.
type orientationSpec struct {
	// pref is the value of the "orientation" preference.
	pref string
	// region builds the dock strip of thickness t along the screen edge.
	region func(screen Rect, t float64) Rect
	// edge returns the strip's inner edge, the one facing the screen.
	edge func(region Rect) float64
	axis axis
	// sign is +1 when moving into the screen grows the coordinate on axis.
	sign float64
}

var orientations = map[Orientation]orientationSpec{
	OrientationBottom: {
		pref: "bottom",
		region: func(s Rect, t float64) Rect {
			return Rect{X: s.X, Y: s.Y, Width: s.Width, Height: t}
		},
		edge: Rect.MaxY,
		axis: axisY,
		sign: 1,
	},
	OrientationLeft: {
		pref: "left",
		region: func(s Rect, t float64) Rect {
			return Rect{X: s.X, Y: s.Y, Width: t, Height: s.Height}
		},
		edge: Rect.MaxX,
		axis: axisX,
		sign: 1,
	},
	OrientationRight: {
		pref: "right",
		region: func(s Rect, t float64) Rect {
			return Rect{X: s.MaxX() - t, Y: s.Y, Width: t, Height: s.Height}
		},
		edge: Rect.MinX,
		axis: axisX,
		sign: -1,
	},
}

func (o Orientation) spec() orientationSpec {
	if s, ok := orientations[o]; ok {
		return s
	}
	return orientations[OrientationBottom]
}

func (o Orientation) String() string {
	return o.spec().pref
}

// parseOrientation maps the dock "orientation" preference to an
// Orientation. Anything unknown (including "bottom" and "") is Bottom.
func parseOrientation(value string) Orientation {
	v := strings.ToLower(strings.TrimSpace(value))
	for o, s := range orientations {
		if s.pref == v {
			return o
		}
	}
	return OrientationBottom
}

// DockPrefs is a snapshot of the com.apple.dock preferences that matter
// for hit testing and overlay sizing.
type DockPrefs struct {
	TileSize      float64
	Magnification bool
	LargeSize     float64
	Orientation   Orientation
}

func defaultDockPrefs() DockPrefs {
	return DockPrefs{
		TileSize:    defaultTileSize,
		LargeSize:   defaultLargeSize,
		Orientation: OrientationBottom,
	}
}

// IconSize returns the rendered overlay size for these preferences.
func (p DockPrefs) IconSize() float64 {
	if p.Magnification {
		return p.LargeSize + iconPadding
	}
	return p.TileSize + iconPadding
}

// DockGeometry is the dock's hit-test strip on the primary screen.
// It is derived on demand and never cached: the user may move or resize
// the dock between two drags.
type DockGeometry struct {
	Orientation Orientation
	Region      Rect
	IconSize    float64
}

func computeDockGeometry(screen Rect, prefs DockPrefs) DockGeometry {
	return DockGeometry{
		Orientation: prefs.Orientation,
		Region:      prefs.Orientation.spec().region(screen, dockThickness),
		IconSize:    prefs.IconSize(),
	}
}

// DistanceFromDock returns how far p lies past the inner edge of the dock
// strip, measured perpendicular to that edge. Points inside the strip or
// behind it yield zero or negative values.
func (g DockGeometry) DistanceFromDock(p Point) float64 {
	s := g.Orientation.spec()
	coord := p.Y
	if s.axis == axisX {
		coord = p.X
	}
	return s.sign * (coord - s.edge(g.Region))
}

// IsRemoval reports whether a release at p counts as dragging an icon off
// the dock.
func (g DockGeometry) IsRemoval(p Point) bool {
	return !g.Region.Contains(p) && g.DistanceFromDock(p) > removeThreshold
}
