package project

import (
	"os"
	"path/filepath"
	"strings"
)

// ReadEnv parses a project's .env file into a map. Laravel .env syntax is
// simple key=value lines; quotes around values are stripped, comments and
// malformed lines skipped.
func ReadEnv(projectPath string) (map[string]string, error) {
	data, err := os.ReadFile(filepath.Join(projectPath, ".env"))
	if err != nil {
		return nil, err
	}
	return ParseEnv(string(data)), nil
}

func ParseEnv(content string) map[string]string {
	env := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}
		env[key] = value
	}
	return env
}
