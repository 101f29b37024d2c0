// Package local is the folderkit host backed by the operating system's
// file system. On top of afero.OsFs it reports creation times where the
// platform records them and watches folders with fsnotify.
package local

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"

	"github.com/gobeaver/folderkit"
)

// Adapter is an afero.Fs over the OS file system.
type Adapter struct {
	afero.OsFs
}

// New creates a local host.
func New() *Adapter {
	return &Adapter{}
}

// Name implements afero.Fs.
func (a *Adapter) Name() string { return "local" }

// BirthTime implements folderkit.CanBirthTime.
func (a *Adapter) BirthTime(path string) *time.Time {
	info, err := os.Lstat(path)
	if err != nil {
		return nil
	}
	return birthTime(path, info)
}

// Watch implements folderkit.CanWatch using fsnotify. The token fires on
// the first create, write, remove or rename inside dir; chmod alone does
// not count. The watcher is released once the token fires or ctx ends.
func (a *Adapter) Watch(ctx context.Context, dir string) (folderkit.ChangeToken, error) {
	token := folderkit.NewCallbackChangeToken()

	watcher, err := newFSWatcher()
	if err != nil {
		return nil, &folderkit.PathError{Op: "watch", Path: dir, Err: err}
	}
	if err := watcher.Add(filepath.Clean(dir)); err != nil {
		watcher.Close()
		return nil, &folderkit.PathError{Op: "watch", Path: dir, Err: err}
	}

	go func() {
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events():
				if !ok {
					return
				}
				if fsnotify.Op(event.Op) == fsnotify.Chmod {
					continue
				}
				token.SignalChange()
				return
			case _, ok := <-watcher.Errors():
				if !ok {
					return
				}
			}
		}
	}()

	return token, nil
}

// fsWatcher wraps fsnotify.Watcher with a simpler interface
type fsWatcher interface {
	Add(path string) error
	Close() error
	Events() <-chan fsEvent
	Errors() <-chan error
}

type fsEvent struct {
	Name string
	Op   uint32
}

var (
	_ afero.Fs               = (*Adapter)(nil)
	_ afero.Lstater          = (*Adapter)(nil)
	_ folderkit.CanWatch     = (*Adapter)(nil)
	_ folderkit.CanBirthTime = (*Adapter)(nil)
)
