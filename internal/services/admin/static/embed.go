// Package static embeds the admin stylesheet.
package static

import "embed"

// FS holds the files served under /static/.
//
//go:embed *.css
var FS embed.FS
