package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v3/process"
)

// ErrDockNotFound is returned when no Dock process is running.
var ErrDockNotFound = errors.New("dock: process not found")

const dockProcessName = "Dock"

// processLister is the slice of gopsutil the locator needs.
type processLister interface {
	Processes(ctx context.Context) ([]namedProcess, error)
}

type namedProcess interface {
	PID() int32
	Name(ctx context.Context) (string, error)
}

// DockLocator resolves the pid of the macOS Dock.
type DockLocator struct {
	procs processLister
}

// NewDockLocator returns a locator that scans the live process table.
func NewDockLocator() *DockLocator {
	return &DockLocator{procs: gopsutilLister{}}
}

// DockPID returns the pid of the running Dock process.
func (l *DockLocator) DockPID(ctx context.Context) (int32, error) {
	procs, err := l.procs.Processes(ctx)
	if err != nil {
		return 0, fmt.Errorf("dock: list processes: %w", err)
	}
	for _, p := range procs {
		name, err := p.Name(ctx)
		if err != nil {
			continue // process exited or is not ours to inspect
		}
		if name == dockProcessName {
			return p.PID(), nil
		}
	}
	return 0, ErrDockNotFound
}

// ── gopsutil adapter ──────────────────────────────────────

type gopsutilLister struct{}

func (gopsutilLister) Processes(ctx context.Context) ([]namedProcess, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]namedProcess, 0, len(procs))
	for _, p := range procs {
		out = append(out, gopsutilProcess{p})
	}
	return out, nil
}

type gopsutilProcess struct {
	p *process.Process
}

func (g gopsutilProcess) PID() int32 { return g.p.Pid }

func (g gopsutilProcess) Name(ctx context.Context) (string, error) {
	return g.p.NameWithContext(ctx)
}
