package main

import "fmt"

// Point is a location in Cocoa global screen coordinates:
// origin at the bottom-left corner of the primary screen, y grows upward.
type Point struct {
	X, Y float64
}

func (p Point) String() string {
	return fmt.Sprintf("(%.1f,%.1f)", p.X, p.Y)
}

// Rect is an axis-aligned rectangle anchored at its bottom-left corner.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

func (r Rect) MinX() float64 { return r.X }
func (r Rect) MaxX() float64 { return r.X + r.Width }
func (r Rect) MinY() float64 { return r.Y }
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Contains reports whether p lies inside r. Like NSPointInRect the
// rectangle is half-open: the max edges are excluded.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX() && p.X < r.MaxX() &&
		p.Y >= r.MinY() && p.Y < r.MaxY()
}

// Inset shrinks r by dx on both horizontal sides and dy on both vertical
// sides. Negative values grow the rectangle.
func (r Rect) Inset(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width - 2*dx, Height: r.Height - 2*dy}
}

// CenteredSquare returns a size×size rectangle centred on p.
func CenteredSquare(p Point, size float64) Rect {
	return Rect{X: p.X - size/2, Y: p.Y - size/2, Width: size, Height: size}
}

func (r Rect) String() string {
	return fmt.Sprintf("{x=%.1f y=%.1f w=%.1f h=%.1f}", r.X, r.Y, r.Width, r.Height)
}

// Size is a width/height pair in points.
type Size struct {
	Width, Height float64
}
