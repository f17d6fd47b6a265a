// Package web embeds the built frontend assets.
package web

import "embed"

//go:embed frontend/dist
var Assets embed.FS
