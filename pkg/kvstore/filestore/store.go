// Package filestore persists portal keys as files in a directory and turns
// fsnotify events into change callbacks, so several processes sharing the
// directory behave like browser tabs sharing storage.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/goliatone/go-portal/components/portal"
	"github.com/goliatone/go-portal/pkg/kvstore"
)

const (
	fileSuffix = ".kv"
	tempPrefix = ".tmp-"
)

// Store is a directory-backed portal.KVStore.
type Store struct {
	dir     string
	logger  *zap.Logger
	watcher *fsnotify.Watcher
	subs    kvstore.Subscribers

	mu    sync.Mutex
	known map[string]string

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

var _ portal.KVStore = (*Store)(nil)

// Open creates dir if needed and starts watching it.
func Open(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("filestore: watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("filestore: watch %s: %w", dir, err)
	}
	s := &Store{
		dir:     dir,
		logger:  logger,
		watcher: watcher,
		known:   make(map[string]string),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	if err := s.loadKnown(); err != nil {
		watcher.Close()
		return nil, err
	}
	go s.run()
	return s, nil
}

// Get returns the stored value.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	raw, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("filestore: read %s: %w", key, err)
	}
	return string(raw), true, nil
}

// Set writes value atomically and notifies local subscribers when it changed.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	prev, existed := s.known[key]
	s.known[key] = value
	s.mu.Unlock()

	if err := s.writeFile(key, value); err != nil {
		s.mu.Lock()
		if existed {
			s.known[key] = prev
		} else {
			delete(s.known, key)
		}
		s.mu.Unlock()
		return err
	}
	if !existed || prev != value {
		s.subs.Notify(key)
	}
	return nil
}

// Delete removes key and notifies local subscribers when it existed.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	_, existed := s.known[key]
	delete(s.known, key)
	s.mu.Unlock()

	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("filestore: remove %s: %w", key, err)
	}
	if existed {
		s.subs.Notify(key)
	}
	return nil
}

// Subscribe registers fn for changes to key made by this or another process.
func (s *Store) Subscribe(key string, fn func()) func() {
	return s.subs.Add(key, fn)
}

// Close stops the watcher and waits for the event loop to exit.
func (s *Store) Close() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.stopCh)
		<-s.doneCh
		err = s.watcher.Close()
	})
	return err
}

func (s *Store) run() {
	defer close(s.doneCh)
	for {
		select {
		case <-s.stopCh:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handleEvent(event)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("filestore watcher error", zap.String("dir", s.dir), zap.Error(err))
		}
	}
}

// handleEvent compares the file against the last value this process saw, so
// its own writes never fire twice.
func (s *Store) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	key, ok := keyFromPath(event.Name)
	if !ok {
		return
	}
	raw, err := os.ReadFile(event.Name)
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("filestore read failed", zap.String("key", key), zap.Error(err))
		return
	}

	s.mu.Lock()
	prev, known := s.known[key]
	changed := false
	switch {
	case exists && (!known || prev != string(raw)):
		s.known[key] = string(raw)
		changed = true
	case !exists && known:
		delete(s.known, key)
		changed = true
	}
	s.mu.Unlock()

	if changed {
		s.logger.Debug("filestore key changed", zap.String("key", key), zap.Bool("exists", exists))
		s.subs.Notify(key)
	}
}

func (s *Store) loadKnown() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("filestore: list %s: %w", s.dir, err)
	}
	for _, entry := range entries {
		key, ok := keyFromPath(entry.Name())
		if !ok || entry.IsDir() {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		s.known[key] = string(raw)
	}
	return nil
}

func (s *Store) writeFile(key, value string) error {
	tmp, err := os.CreateTemp(s.dir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("filestore: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("filestore: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("filestore: close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("filestore: rename %s: %w", key, err)
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, url.QueryEscape(key)+fileSuffix)
}

func keyFromPath(path string) (string, bool) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, tempPrefix) || !strings.HasSuffix(name, fileSuffix) {
		return "", false
	}
	key, err := url.QueryUnescape(strings.TrimSuffix(name, fileSuffix))
	if err != nil {
		return "", false
	}
	return key, true
}
