package filters

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/richinsley/goglitch/logger"
	"github.com/richinsley/goglitch/shader"
)

// FilterExt is the extension of user effect files.
const FilterExt = ".frag"

// LoadFile reads one user effect. The file name without its extension names
// the effect. A source that does not start with a #version directive is
// treated as a body and gets the standard effect preamble.
func LoadFile(path string) (Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("failed to read filter: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if name == "" {
		return Descriptor{}, fmt.Errorf("filter file %s has no name", path)
	}
	src := string(data)
	if !strings.HasPrefix(strings.TrimSpace(src), "#version") {
		src = shader.GetEffectShader(src)
	}
	return Descriptor{Name: name, Fragment: src}, nil
}

// LoadDir reads every *.frag file directly inside dir, sorted by name.
func LoadDir(dir string) ([]Descriptor, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read filter directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != FilterExt {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	descs := make([]Descriptor, 0, len(names))
	for _, n := range names {
		d, err := LoadFile(filepath.Join(dir, n))
		if err != nil {
			return nil, err
		}
		descs = append(descs, d)
	}
	return descs, nil
}

// Watcher reports user effect files that were created or written. It runs
// its own goroutine and never touches GPU state; the owner drains Changes
// between frames and recompiles.
type Watcher struct {
	fsw     *fsnotify.Watcher
	changes chan string
	errors  chan error
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

func NewWatcher(dir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w := &Watcher{
		fsw:     fsw,
		changes: make(chan string, 16),
		errors:  make(chan error, 4),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.start()
	return w, nil
}

// Changes yields paths of effect files that changed.
func (w *Watcher) Changes() <-chan string { return w.changes }

func (w *Watcher) Errors() <-chan error { return w.errors }

func (w *Watcher) start() {
	defer w.wg.Done()
	for {
		select {
		case e, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Ext(e.Name) != FilterExt {
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			logger.Debug("filter file changed: %s", e.Name)
			select {
			case w.changes <- e.Name:
			case <-w.done:
				return
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Error("filter watcher: %v", err)
			select {
			case w.errors <- err:
			default:
			}

		case <-w.done:
			return
		}
	}
}

// Close stops the watcher; it is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}
