package main

import (
	"fmt"
	"os"
	"path/filepath"

	"howett.net/plist"
)

const (
	plistLabel    = "com.poof.agent"
	plistFilename = plistLabel + ".plist"
)

// launchAgent is the launchd job written to ~/Library/LaunchAgents.
// RunAtLoad starts the agent at login; KeepAlive=false means a clean Quit
// from the menu bar is respected until the next login.
type launchAgent struct {
	Label            string   `plist:"Label"`
	ProgramArguments []string `plist:"ProgramArguments"`
	RunAtLoad        bool     `plist:"RunAtLoad"`
	KeepAlive        bool     `plist:"KeepAlive"`
	ProcessType      string   `plist:"ProcessType"`
}

// LoginItemService manages the launchd login item for poof.
// plistDir is overridable for unit tests (use t.TempDir()).
type LoginItemService struct {
	plistDir string
}

// NewLoginItemService returns a LoginItemService pointing at the user's
// LaunchAgents directory.
func NewLoginItemService() (*LoginItemService, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("login item: failed to resolve home dir: %w", err)
	}
	return &LoginItemService{
		plistDir: filepath.Join(home, "Library", "LaunchAgents"),
	}, nil
}

// Enable writes the launchd plist so the agent launches at login.
func (s *LoginItemService) Enable(execPath string) error {
	if err := os.MkdirAll(s.plistDir, 0o755); err != nil {
		return fmt.Errorf("login item: cannot create LaunchAgents dir: %w", err)
	}
	data, err := plist.MarshalIndent(launchAgent{
		Label:            plistLabel,
		ProgramArguments: []string{execPath},
		RunAtLoad:        true,
		KeepAlive:        false,
		ProcessType:      "Interactive",
	}, plist.XMLFormat, "\t")
	if err != nil {
		return fmt.Errorf("login item: marshal plist: %w", err)
	}

	tmp := s.plistPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("login item: cannot write plist: %w", err)
	}
	if err := os.Rename(tmp, s.plistPath()); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("login item: cannot install plist: %w", err)
	}
	return nil
}

// Disable removes the launchd plist, preventing launch at login.
// Returns nil if the plist does not exist (idempotent).
func (s *LoginItemService) Disable() error {
	err := os.Remove(s.plistPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("login item: cannot remove plist: %w", err)
	}
	return nil
}

// IsEnabled reports whether a readable plist for this agent exists.
func (s *LoginItemService) IsEnabled() bool {
	_, err := s.load()
	return err == nil
}

// ExecPath returns the executable the installed login item launches.
func (s *LoginItemService) ExecPath() (string, error) {
	job, err := s.load()
	if err != nil {
		return "", err
	}
	if len(job.ProgramArguments) == 0 {
		return "", fmt.Errorf("login item: %s has no ProgramArguments", s.plistPath())
	}
	return job.ProgramArguments[0], nil
}

func (s *LoginItemService) load() (launchAgent, error) {
	var job launchAgent
	data, err := os.ReadFile(s.plistPath())
	if err != nil {
		return job, err
	}
	if _, err := plist.Unmarshal(data, &job); err != nil {
		return job, fmt.Errorf("login item: parse %s: %w", s.plistPath(), err)
	}
	if job.Label != plistLabel {
		return job, fmt.Errorf("login item: unexpected label %q", job.Label)
	}
	return job, nil
}

// plistPath returns the full path to the launchd plist file.
func (s *LoginItemService) plistPath() string {
	return filepath.Join(s.plistDir, plistFilename)
}
