// Package memory is an in-memory folderkit host built on afero.MemMapFs.
// Unlike a bare MemMapFs it notifies folder watchers natively, so watch
// tokens fire as soon as a child of the watched folder changes.
package memory

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/gobeaver/folderkit"
)

// watchEntry represents a single watch subscription
type watchEntry struct {
	dir   string
	token *folderkit.CallbackChangeToken
}

// Adapter is an afero.Fs kept in memory. It is useful for tests and for
// scratch workspaces that must not touch the disk.
type Adapter struct {
	*afero.MemMapFs

	// Watch support
	watchMu sync.RWMutex
	watches []*watchEntry
}

// New creates an empty in-memory host
func New() *Adapter {
	return &Adapter{MemMapFs: &afero.MemMapFs{}}
}

// Name implements afero.Fs.
func (a *Adapter) Name() string { return "memory" }

func (a *Adapter) Create(name string) (afero.File, error) {
	f, err := a.MemMapFs.Create(name)
	if err != nil {
		return nil, err
	}
	a.notifyWatchers(name)
	return &notifyingFile{File: f, notify: func() { a.notifyWatchers(name) }}, nil
}

func (a *Adapter) Mkdir(name string, perm os.FileMode) error {
	if err := a.MemMapFs.Mkdir(name, perm); err != nil {
		return err
	}
	a.notifyWatchers(name)
	return nil
}

func (a *Adapter) MkdirAll(path string, perm os.FileMode) error {
	first := a.firstMissing(path)
	if err := a.MemMapFs.MkdirAll(path, perm); err != nil {
		return err
	}
	if first != "" {
		a.notifyWatchers(first)
	}
	return nil
}

func (a *Adapter) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	existed := a.exists(name)
	f, err := a.MemMapFs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_APPEND|os.O_CREATE|os.O_TRUNC) == 0 {
		return f, nil
	}
	if !existed || flag&os.O_TRUNC != 0 {
		a.notifyWatchers(name)
	}
	return &notifyingFile{File: f, notify: func() { a.notifyWatchers(name) }}, nil
}

func (a *Adapter) Remove(name string) error {
	if err := a.MemMapFs.Remove(name); err != nil {
		return err
	}
	a.notifyWatchers(name)
	return nil
}

func (a *Adapter) RemoveAll(path string) error {
	existed := a.exists(path)
	if err := a.MemMapFs.RemoveAll(path); err != nil {
		return err
	}
	if existed {
		a.notifyWatchers(path)
	}
	return nil
}

func (a *Adapter) Rename(oldname, newname string) error {
	if err := a.MemMapFs.Rename(oldname, newname); err != nil {
		return err
	}
	a.notifyWatchers(oldname)
	a.notifyWatchers(newname)
	return nil
}

func (a *Adapter) exists(name string) bool {
	_, err := a.MemMapFs.Stat(name)
	return err == nil
}

// firstMissing returns the outermost directory MkdirAll would create, or
// "" when path already exists.
func (a *Adapter) firstMissing(path string) string {
	path = filepath.Clean(path)
	if a.exists(path) {
		return ""
	}
	for {
		parent := filepath.Dir(path)
		if parent == path || a.exists(parent) {
			return path
		}
		path = parent
	}
}

// Watch implements folderkit.CanWatch. The token fires on the first change
// to a direct child of dir, or to dir itself.
func (a *Adapter) Watch(ctx context.Context, dir string) (folderkit.ChangeToken, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	token := folderkit.NewCallbackChangeToken()

	a.watchMu.Lock()
	a.watches = append(a.watches, &watchEntry{
		dir:   filepath.Clean(dir),
		token: token,
	})
	a.watchMu.Unlock()

	// Clean up when context is cancelled
	go func() {
		<-ctx.Done()
		a.removeWatch(token)
	}()

	return token, nil
}

// notifyWatchers signals all watchers of the folder holding path, and the
// watchers of path itself
func (a *Adapter) notifyWatchers(path string) {
	path = filepath.Clean(path)
	parent := filepath.Dir(path)

	a.watchMu.RLock()
	var fired []*folderkit.CallbackChangeToken
	for _, entry := range a.watches {
		if entry.dir == parent || entry.dir == path {
			fired = append(fired, entry.token)
		}
	}
	a.watchMu.RUnlock()

	for _, token := range fired {
		token.SignalChange()
	}
}

// removeWatch removes a watch entry by token
func (a *Adapter) removeWatch(token *folderkit.CallbackChangeToken) {
	a.watchMu.Lock()
	defer a.watchMu.Unlock()

	for i, entry := range a.watches {
		if entry.token == token {
			// Remove by swapping with last element
			a.watches[i] = a.watches[len(a.watches)-1]
			a.watches = a.watches[:len(a.watches)-1]
			return
		}
	}
}

// notifyingFile reports every write through an open handle.
type notifyingFile struct {
	afero.File
	notify func()
}

func (f *notifyingFile) Write(p []byte) (int, error) {
	n, err := f.File.Write(p)
	if n > 0 {
		f.notify()
	}
	return n, err
}

func (f *notifyingFile) WriteAt(p []byte, off int64) (int, error) {
	n, err := f.File.WriteAt(p, off)
	if n > 0 {
		f.notify()
	}
	return n, err
}

func (f *notifyingFile) WriteString(s string) (int, error) {
	return f.Write([]byte(s))
}

func (f *notifyingFile) Truncate(size int64) error {
	if err := f.File.Truncate(size); err != nil {
		return err
	}
	f.notify()
	return nil
}

// Ensure Adapter implements interfaces
var (
	_ afero.Fs           = (*Adapter)(nil)
	_ afero.Lstater      = (*Adapter)(nil)
	_ folderkit.CanWatch = (*Adapter)(nil)
)
