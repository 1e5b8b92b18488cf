// Package scripts embeds the Risor scripts shipped with bendlens.
package scripts

import "embed"

// FS holds the book scripts, laid out as book/<grammar>.risor.
//
//go:embed book/*.risor
var FS embed.FS
