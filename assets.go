package main

import "embed"

// assetFiles holds the poof sprite sheets and the menu bar icons.
//
//go:embed assets/*.png
var assetFiles embed.FS
