package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/fsnotify.v1"

	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/registry"
)

// Watcher observes a Repository's root for create/write/remove events and
// triggers a full registry reload on change.
type Watcher struct {
	repo     *Repository
	reg      *registry.Registry
	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	onReload func(err error)
}

// WatchOption configures a Watcher at construction time.
type WatchOption func(*Watcher)

// WithOnReload registers a callback invoked after every reload attempt
// (err is nil on success), useful for test observation and logging hooks.
func WithOnReload(fn func(err error)) WatchOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// NewWatcher creates a Watcher that reloads reg from repo on filesystem
// change. Call Start to begin watching.
func NewWatcher(repo *Repository, reg *registry.Registry, opts ...WatchOption) *Watcher {
	w := &Watcher{repo: repo, reg: reg}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching the repository's root directory (and every
// configured category subdirectory that exists) for YAML file changes;
// directories nested below those are not watched.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	dirs, err := watchedDirs(w.repo)
	if err != nil {
		fw.Close()
		return err
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return fmt.Errorf("watching directory %s: %w", dir, err)
		}
	}

	w.watcher = fw
	w.stopChan = make(chan struct{})
	go w.loop()
	return nil
}

func watchedDirs(repo *Repository) ([]string, error) {
	dirs := []string{repo.root}
	for _, category := range repo.categories {
		dir := filepath.Join(repo.root, category)
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	return dirs, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".yaml") && !strings.HasSuffix(event.Name, ".yml") {
				continue
			}
			log.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("regulation file changed, reloading")
			err := w.reg.Load(context.Background(), w.repo)
			if err != nil {
				log.Error().Err(err).Msg("reload after filesystem change failed")
			}
			if w.onReload != nil {
				w.onReload(err)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("watcher error")
		}
	}
}

// Stop stops watching and releases the underlying OS resources.
func (w *Watcher) Stop() {
	if w.stopChan != nil {
		close(w.stopChan)
	}
	if w.watcher != nil {
		w.watcher.Close()
	}
}
