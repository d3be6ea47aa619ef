// Package testsource supplies test file contents by test name so callers can
// heal without pasting source. Strictly read-only with respect to the test
// files.
package testsource

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/pycode"
)

// Provider resolves a test name to the source containing it.
type Provider interface {
	Source(testName string) (string, bool)
}

// DirProvider indexes every *.py file in one directory and keeps the index
// fresh through a filesystem watcher.
type DirProvider struct {
	dir    string
	logger *zap.Logger

	mu    sync.RWMutex
	index map[string]string // test name -> file path

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewDirProvider indexes dir and starts watching it for changes.
func NewDirProvider(dir string, logger *zap.Logger) (*DirProvider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &DirProvider{
		dir:    dir,
		logger: logger,
		index:  make(map[string]string),
		done:   make(chan struct{}),
	}
	if err := p.rescan(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	p.watcher = watcher
	go p.watch()

	return p, nil
}

// Source returns the full contents of the file defining testName. The engine
// isolates the target function itself.
func (p *DirProvider) Source(testName string) (string, bool) {
	p.mu.RLock()
	path, ok := p.index[testName]
	p.mu.RUnlock()
	if !ok {
		return "", false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		p.logger.Warn("test file unreadable", zap.String("path", path), zap.Error(err))
		return "", false
	}
	return string(data), true
}

// Tests returns every indexed test name.
func (p *DirProvider) Tests() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]string, 0, len(p.index))
	for name := range p.index {
		out = append(out, name)
	}
	return out
}

// rescan rebuilds the whole index from the directory contents.
func (p *DirProvider) rescan() error {
	matches, err := filepath.Glob(filepath.Join(p.dir, "*.py"))
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", p.dir, err)
	}

	index := make(map[string]string)
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			p.logger.Warn("skipping unreadable file", zap.String("path", path), zap.Error(err))
			continue
		}
		for _, name := range pycode.Functions(string(data)) {
			if _, taken := index[name]; !taken {
				index[name] = path
			}
		}
	}

	p.mu.Lock()
	p.index = index
	p.mu.Unlock()
	return nil
}

func (p *DirProvider) watch() {
	defer close(p.done)
	for {
		select {
		case ev, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(ev.Name, ".py") {
				continue
			}
			p.logger.Debug("test directory changed",
				zap.String("file", ev.Name),
				zap.String("op", ev.Op.String()))
			if err := p.rescan(); err != nil {
				p.logger.Warn("rescan failed", zap.Error(err))
			}
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// Close stops the watcher and waits for the watch loop to exit.
func (p *DirProvider) Close() error {
	err := p.watcher.Close()
	<-p.done
	return err
}

// StaticProvider serves a fixed mapping; used where no directory exists.
type StaticProvider map[string]string

func (s StaticProvider) Source(testName string) (string, bool) {
	src, ok := s[testName]
	return src, ok
}
