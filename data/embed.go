// Package data holds the default knowledge source compiled into the binaries.
package data

import "embed"

// FS contains data.json, the career FAQ used when no external source is configured.
//
//go:embed data.json
var FS embed.FS

// DefaultFile is the name of the knowledge source inside FS.
const DefaultFile = "data.json"
