//go:build darwin

package main

/*
#import <AppKit/AppKit.h>

// hideFromDock switches to the Accessory activation policy: no Dock tile,
// no Cmd-Tab entry. The status item keeps working.
static void hideFromDock() {
    dispatch_async(dispatch_get_main_queue(), ^{
        [[NSApplication sharedApplication] setActivationPolicy:NSApplicationActivationPolicyAccessory];
    });
}
*/
import "C"

import "log"

// HideFromDock removes the app's Dock icon at runtime. The policy change is
// applied on the main queue once the status item exists.
func HideFromDock() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("cgo_activation: HideFromDock skipped: %v", r)
		}
	}()
	C.hideFromDock()
}
