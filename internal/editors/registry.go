package editors

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/kballard/go-shellquote"
	"gopkg.in/yaml.v3"
)

var editorIDPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ErrUnknownEditor is returned when a launch names an editor id that is not
// in the registry. Arbitrary commands never run.
var ErrUnknownEditor = errors.New("editors: unknown editor")

// Registry holds the editor definitions loaded from a directory of YAML
// files, seeded from embedded defaults on first run.
type Registry struct {
	dir     string
	editors map[string]*Editor
	mu      sync.RWMutex
}

func NewRegistry(dir string) (*Registry, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("editors dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create editors dir: %w", err)
	}
	if err := ensureDefaults(dir); err != nil {
		return nil, err
	}

	r := &Registry{
		dir:     dir,
		editors: make(map[string]*Editor),
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) Get(id string) *Editor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.editors[id]
	if !ok {
		return nil
	}
	clone := *e
	return &clone
}

func (r *Registry) List() []*Editor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Editor, 0, len(r.editors))
	for _, e := range r.editors {
		clone := *e
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

func (r *Registry) Reload() error {
	loaded, err := loadDir(r.dir)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.editors = loaded
	r.mu.Unlock()
	return nil
}

// CommandFor expands an editor's command template for the given path.
// The path is substituted as a whole argv element, never re-parsed, so
// locations with spaces or shell metacharacters are safe.
func (r *Registry) CommandFor(id, path string) ([]string, error) {
	e := r.Get(id)
	if e == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEditor, id)
	}

	args, err := shellquote.Split(e.Command)
	if err != nil {
		return nil, fmt.Errorf("editors: parse command for %q: %w", id, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("editors: empty command for %q", id)
	}

	substituted := false
	for i, arg := range args {
		if strings.Contains(arg, "{path}") {
			args[i] = strings.ReplaceAll(arg, "{path}", path)
			substituted = true
		}
	}
	if !substituted {
		args = append(args, path)
	}
	return args, nil
}

// Launch starts the editor detached from our process; the editor outliving
// the backend is the expected behavior.
func (r *Registry) Launch(id, path string) error {
	args, err := r.CommandFor(id, path)
	if err != nil {
		return err
	}

	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("editors: launch %q: %w", id, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func loadDir(dir string) (map[string]*Editor, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read editors dir: %w", err)
	}

	editors := make(map[string]*Editor)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read editor config %q: %w", path, err)
		}

		var e Editor
		if err := yaml.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("parse editor config %q: %w", path, err)
		}
		if err := validate(&e); err != nil {
			return nil, fmt.Errorf("editor config %q: %w", path, err)
		}
		editors[e.ID] = &e
	}
	return editors, nil
}

func validate(e *Editor) error {
	if !editorIDPattern.MatchString(e.ID) {
		return fmt.Errorf("invalid editor id %q", e.ID)
	}
	if strings.TrimSpace(e.Name) == "" {
		return errors.New("editor name is required")
	}
	if strings.TrimSpace(e.Command) == "" {
		return errors.New("editor command is required")
	}
	return nil
}
