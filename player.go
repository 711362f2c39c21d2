package main

import (
	"image"
	"time"
)

// poofFPS is the playback rate of the poof animation.
const poofFPS = 12

const frameInterval = time.Second / poofFPS

type playerState int

const (
	playerIdle playerState = iota
	playerPlaying
	playerDone
)

func (s playerState) String() string {
	switch s {
	case playerIdle:
		return "idle"
	case playerPlaying:
		return "playing"
	default:
		return "done"
	}
}

// FramePlayer steps through a fixed frame sequence, one frame per Tick.
// It knows nothing about timers: whoever drives it decides when a tick
// happens, and a late tick still advances exactly one frame.
type FramePlayer struct {
	frames []image.Image
	state  playerState
	index  int
	show   func(image.Image)
	done   func()
}

func NewFramePlayer(frames []image.Image) *FramePlayer {
	return &FramePlayer{frames: frames}
}

// Start arms the player. With no frames it completes immediately and
// reports false, meaning no ticks are needed.
func (p *FramePlayer) Start(show func(image.Image), done func()) bool {
	if p.state != playerIdle {
		return p.state == playerPlaying
	}
	p.show, p.done = show, done
	if len(p.frames) == 0 {
		p.finish()
		return false
	}
	p.state = playerPlaying
	p.index = 0
	return true
}

// Tick displays the current frame and advances. The tick that displays
// the last frame completes the player.
func (p *FramePlayer) Tick() {
	if p.state != playerPlaying {
		return
	}
	p.show(p.frames[p.index])
	p.index++
	if p.index == len(p.frames) {
		p.finish()
	}
}

func (p *FramePlayer) finish() {
	p.state = playerDone
	if p.done != nil {
		done := p.done
		p.done = nil
		done()
	}
}

func (p *FramePlayer) State() playerState { return p.state }

// Len is the number of frames in the sequence.
func (p *FramePlayer) Len() int { return len(p.frames) }
