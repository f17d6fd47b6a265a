// Package lang reads and edits a project's JSON translation files.
package lang

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/user/workshop/internal/project"
)

// Locale describes one available translation locale.
type Locale struct {
	Code    string `json:"code"`
	HasJSON bool   `json:"has_json"`
	Default bool   `json:"default"`
}

var localePattern = regexp.MustCompile(`^[a-z]{2}(?:[_-][A-Za-z]{2,4})?$`)

// dir finds the project's lang directory. Laravel 9+ uses lang/ at the
// project root, older projects keep resources/lang/.
func dir(location string) (string, error) {
	for _, candidate := range []string{"lang", filepath.Join("resources", "lang")} {
		path := filepath.Join(location, candidate)
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("lang: project has no lang directory")
}

// Locales lists the project's locales: one per <locale>.json file and one
// per locale subdirectory, merged and sorted. The project's APP_LOCALE
// (default "en") is flagged.
func Locales(location string) ([]Locale, error) {
	langDir, err := dir(location)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(langDir)
	if err != nil {
		return nil, fmt.Errorf("lang: read directory: %w", err)
	}

	seen := make(map[string]*Locale)
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case entry.IsDir():
			if !localePattern.MatchString(name) {
				continue
			}
			if _, ok := seen[name]; !ok {
				seen[name] = &Locale{Code: name}
			}
		case strings.HasSuffix(name, ".json"):
			code := strings.TrimSuffix(name, ".json")
			if !localePattern.MatchString(code) {
				continue
			}
			if l, ok := seen[code]; ok {
				l.HasJSON = true
			} else {
				seen[code] = &Locale{Code: code, HasJSON: true}
			}
		}
	}

	def := DefaultLocale(location)
	locales := make([]Locale, 0, len(seen))
	for _, l := range seen {
		l.Default = l.Code == def
		locales = append(locales, *l)
	}
	sort.Slice(locales, func(i, j int) bool { return locales[i].Code < locales[j].Code })
	return locales, nil
}

// DefaultLocale returns the project's APP_LOCALE, falling back to "en".
func DefaultLocale(location string) string {
	env, err := project.ReadEnv(location)
	if err != nil {
		return "en"
	}
	if locale := env["APP_LOCALE"]; locale != "" {
		return locale
	}
	return "en"
}

// Read returns the key/value pairs of one locale's JSON translation file.
// A locale without a JSON file yields an empty map.
func Read(location, locale string) (map[string]string, error) {
	path, err := jsonPath(location, locale)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("lang: read %s: %w", locale, err)
	}

	translations := make(map[string]string)
	if err := json.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("lang: parse %s.json: %w", locale, err)
	}
	return translations, nil
}

// Write replaces one locale's JSON translation file with the given pairs,
// keys sorted, pretty printed the way Laravel ships them.
func Write(location, locale string, translations map[string]string) error {
	path, err := jsonPath(location, locale)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(translations, "", "    ")
	if err != nil {
		return fmt.Errorf("lang: encode %s: %w", locale, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("lang: write %s: %w", locale, err)
	}
	return nil
}

// SetKey updates or adds a single translation and writes the file back.
func SetKey(location, locale, key, value string) error {
	translations, err := Read(location, locale)
	if err != nil {
		return err
	}
	translations[key] = value
	return Write(location, locale, translations)
}

// DeleteKey removes a single translation and writes the file back.
func DeleteKey(location, locale, key string) error {
	translations, err := Read(location, locale)
	if err != nil {
		return err
	}
	if _, ok := translations[key]; !ok {
		return fmt.Errorf("lang: key %q not found in %s", key, locale)
	}
	delete(translations, key)
	return Write(location, locale, translations)
}

func jsonPath(location, locale string) (string, error) {
	if !localePattern.MatchString(locale) {
		return "", fmt.Errorf("lang: invalid locale %q", locale)
	}
	langDir, err := dir(location)
	if err != nil {
		return "", err
	}
	return filepath.Join(langDir, locale+".json"), nil
}
