// Package web holds the HTML templates and static assets of the site.
package web

import "embed"

// FS contains the templates/ and static/ trees
//
//go:embed templates static
var FS embed.FS
