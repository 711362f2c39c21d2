package main

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

var debugEnabled atomic.Bool

// debugf logs only when debug logging is on. Used for per-event chatter
// (drag tracking, hit-test misses) that would flood the log otherwise.
func debugf(format string, args ...interface{}) {
	if debugEnabled.Load() {
		log.Printf(format, args...)
	}
}

// defaultLogFile is ~/Library/Logs/Poof/poof.log, where Console.app looks.
func defaultLogFile() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Library", "Logs", "Poof", "poof.log")
}

// setupLogging sends the standard logger to stderr and to a rotating log
// file. The returned func flushes and closes the file.
func setupLogging(cfg Config) func() error {
	debugEnabled.Store(strings.EqualFold(cfg.LogLevel, "debug"))
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	path := cfg.LogFile
	if path == "" {
		path = defaultLogFile()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Printf("logging: cannot create %s: %v — logging to stderr only", filepath.Dir(path), err)
		log.SetOutput(os.Stderr)
		return func() error { return nil }
	}
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, file))
	return file.Close
}
