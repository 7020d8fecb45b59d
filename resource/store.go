package resource

import (
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Store caches shared models by path so every animation referencing the
// same bundle gets the same SharedModel.
type Store struct {
	mu     sync.Mutex
	models map[string]*SharedModel
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{models: make(map[string]*SharedModel)}
}

// Load returns the shared model for path, reading it from disk on first use.
func (s *Store) Load(path string) (*SharedModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sm, ok := s.models[path]; ok {
		return sm, nil
	}
	m, err := LoadModel(path)
	if err != nil {
		return nil, err
	}
	sm := NewSharedModel(path, m)
	s.models[path] = sm
	return sm, nil
}

// Get returns the cached shared model for path, if loaded.
func (s *Store) Get(path string) (*SharedModel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sm, ok := s.models[path]
	return sm, ok
}

// Reload re-reads path from disk and swaps the content into the existing
// SharedModel, so every holder observes the new data. No-op for paths that
// were never loaded.
func (s *Store) Reload(path string) error {
	s.mu.Lock()
	sm, ok := s.models[path]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	m, err := LoadModel(path)
	if err != nil {
		return err
	}
	sm.Swap(m)
	return nil
}

// Watcher reloads model bundles in a store when their files change on disk.
type Watcher struct {
	watcher *fsnotify.Watcher
	store   *Store
	closeCh chan struct{}
	once    sync.Once
}

// NewWatcher watches dirs for bundle changes and reloads them into store.
func NewWatcher(store *Store, dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	watcher := &Watcher{
		watcher: w,
		store:   store,
		closeCh: make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) run() {
	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !isBundleFile(event.Name) {
				continue
			}
			now := time.Now()
			if t, ok := last[event.Name]; ok && now.Sub(t) < 100*time.Millisecond {
				continue
			}
			last[event.Name] = now
			if err := w.store.Reload(event.Name); err != nil {
				log.Printf("resource: reload %s: %v", event.Name, err)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("resource: watch error: %v", err)
		case <-w.closeCh:
			return
		}
	}
}

func isBundleFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
