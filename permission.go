package main

import (
	"log"
	"time"
)

// permissionRecheckInterval is how often an untrusted process asks again.
// There is no backoff and no upper bound.
const permissionRecheckInterval = 2 * time.Second

// trustChecker queries the accessibility trust state of this process.
// prompt asks the system to show its "grant access" dialog.
type trustChecker interface {
	IsTrusted(prompt bool) bool
}

// PermissionWatcher polls accessibility trust until it is granted, then
// fires onGranted exactly once. Listeners added with OnChange hear every
// state change, including the first observation.
type PermissionWatcher struct {
	sched     scheduler
	checker   trustChecker
	prompt    bool
	onGranted func()
	listeners []func(trusted bool)

	observed bool
	trusted  bool
	granted  bool
	cancel   func()
}

// NewPermissionWatcher builds a watcher. It does nothing until Start.
func NewPermissionWatcher(sched scheduler, checker trustChecker, prompt bool, onGranted func()) *PermissionWatcher {
	return &PermissionWatcher{
		sched:     sched,
		checker:   checker,
		prompt:    prompt,
		onGranted: onGranted,
	}
}

// OnChange registers a "permission changed" hook.
func (w *PermissionWatcher) OnChange(fn func(trusted bool)) {
	w.listeners = append(w.listeners, fn)
}

// Start performs the first check, prompting if configured to.
func (w *PermissionWatcher) Start() {
	w.check(w.prompt)
}

// Recheck checks right now, replacing any scheduled recheck. Used after
// the user has been sent to System Settings.
func (w *PermissionWatcher) Recheck() {
	w.check(false)
}

// Stop cancels a pending recheck.
func (w *PermissionWatcher) Stop() {
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

// IsTrusted asks the system directly.
func (w *PermissionWatcher) IsTrusted() bool {
	return w.checker.IsTrusted(false)
}

func (w *PermissionWatcher) check(prompt bool) {
	w.Stop()
	trusted := w.checker.IsTrusted(prompt)
	if !w.observed || trusted != w.trusted {
		w.observed = true
		w.trusted = trusted
		log.Printf("permission: accessibility trusted=%t", trusted)
		for _, fn := range w.listeners {
			fn(trusted)
		}
	}
	if trusted {
		if !w.granted {
			w.granted = true
			if w.onGranted != nil {
				w.onGranted()
			}
		}
		return
	}
	w.cancel = w.sched.After(permissionRecheckInterval, func() {
		w.cancel = nil
		w.check(false)
	})
}
