package configs

import "embed"

// EditorDefaults contains shipped default editor YAML config files.
//
//go:embed editors/*.yaml
var EditorDefaults embed.FS
