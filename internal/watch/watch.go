// Package watch reloads a reaction document whenever its file changes.
package watch

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/gonewx/chemlab/internal/reaction"
)

// Result is one reload attempt. Err is set when the file could not be
// parsed, which is common while an editor is halfway through a save.
type Result struct {
	Doc *reaction.Document
	Err error
}

// Watcher watches the directory containing a document so that editors
// which save by rename are still seen.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	updates chan Result
	done    chan struct{}
}

// New starts watching path.
func New(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve '%s': %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch '%s': %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:    abs,
		watcher: fw,
		updates: make(chan Result, 1),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Updates delivers reload results. Only the newest pending result is kept.
func (w *Watcher) Updates() <-chan Result {
	return w.updates
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			doc, err := reaction.ParseFile(w.path)
			w.publish(Result{Doc: doc, Err: err})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[Watch] Error: %v", err)
		}
	}
}

// publish replaces any unread result with r.
func (w *Watcher) publish(r Result) {
	select {
	case <-w.updates:
	default:
	}
	select {
	case w.updates <- r:
	case <-w.done:
	}
}
