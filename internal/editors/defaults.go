package editors

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/user/workshop/configs"
)

var defaultEditorFiles = []string{
	"vscode.yaml",
	"sublime.yaml",
	"phpstorm.yaml",
	"zed.yaml",
	"windsurf.yaml",
}

// ensureDefaults seeds the user's editors dir with the shipped definitions
// the first time the app runs. A dir that already holds any YAML file is
// left alone so user edits survive upgrades.
func ensureDefaults(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read editors dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			return nil
		}
	}

	for _, file := range defaultEditorFiles {
		content, err := configs.EditorDefaults.ReadFile(filepath.Join("editors", file))
		if err != nil {
			return fmt.Errorf("read embedded default %q: %w", file, err)
		}
		path := filepath.Join(dir, file)
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return fmt.Errorf("write default %q: %w", path, err)
		}
	}

	return nil
}
