package logs

import (
	"regexp"
	"strings"
)

// Entry is one parsed Laravel log record. Stack carries the continuation
// lines (exception trace) that follow the header line.
type Entry struct {
	Timestamp string `json:"timestamp"`
	Env       string `json:"env"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Stack     string `json:"stack,omitempty"`
}

// Matches headers like "[2024-01-02 15:04:05] local.ERROR: message".
var entryHeader = regexp.MustCompile(`^\[(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\] (\w+)\.(\w+): (.*)$`)

// Parse splits raw log content into entries. Lines before the first header
// are dropped; continuation lines attach to the preceding entry's stack.
func Parse(content string) []Entry {
	entries := make([]Entry, 0)
	var stack []string

	flush := func() {
		if len(entries) == 0 || len(stack) == 0 {
			stack = nil
			return
		}
		entries[len(entries)-1].Stack = strings.TrimRight(strings.Join(stack, "\n"), "\n")
		stack = nil
	}

	for _, line := range strings.Split(content, "\n") {
		if m := entryHeader.FindStringSubmatch(line); m != nil {
			flush()
			entries = append(entries, Entry{
				Timestamp: m[1],
				Env:       m[2],
				Level:     strings.ToUpper(m[3]),
				Message:   m[4],
			})
			continue
		}
		if len(entries) > 0 && strings.TrimSpace(line) != "" {
			stack = append(stack, line)
		}
	}
	flush()
	return entries
}
