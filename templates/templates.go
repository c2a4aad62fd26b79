// Package templates embeds the HTML pages so the binary runs from any directory.
package templates

import "embed"

// FS holds every page and partial
//
//go:embed *.html
var FS embed.FS
