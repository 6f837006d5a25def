package dataset

import "embed"

// embedded holds the bundled reduced dataset served when every other
// source failed.
//
//go:embed fallback.yml
var embedded embed.FS
