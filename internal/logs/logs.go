// Package logs lists and reads a project's Laravel log files and watches
// them for changes.
package logs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// LogFile describes one file under storage/logs.
type LogFile struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Dir returns the log directory for a project location.
func Dir(location string) string {
	return filepath.Join(location, "storage", "logs")
}

// List returns the project's .log files, newest first. A project without a
// storage/logs directory simply has no logs.
func List(location string) ([]LogFile, error) {
	entries, err := os.ReadDir(Dir(location))
	if err != nil {
		if os.IsNotExist(err) {
			return []LogFile{}, nil
		}
		return nil, fmt.Errorf("logs: read directory: %w", err)
	}

	files := make([]LogFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, LogFile{
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

// Read returns the raw contents of one log file. The name must be a bare
// file name inside storage/logs; anything that looks like a path is refused.
func Read(location, name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(Dir(location), name))
	if err != nil {
		return nil, fmt.Errorf("logs: read %q: %w", name, err)
	}
	return data, nil
}

// Clear truncates one log file in place so the watcher keeps following it.
func Clear(location, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := os.Truncate(filepath.Join(Dir(location), name), 0); err != nil {
		return fmt.Errorf("logs: clear %q: %w", name, err)
	}
	return nil
}

func checkName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("logs: invalid log file name %q", name)
	}
	if !strings.HasSuffix(name, ".log") {
		return fmt.Errorf("logs: %q is not a log file", name)
	}
	return nil
}
