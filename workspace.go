package folderkit

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Workspace is the application-level context every File and Folder is
// bound to. It owns the host file system, the standard roots, the callback
// dispatcher and the logger, so entities never reach for process globals.
type Workspace struct {
	host       afero.Fs
	roots      map[RootKind]string
	chunkSize  int
	dispatcher Dispatcher
	log        zerolog.Logger
	cipher     CipherAlgorithm
	key        []byte

	pollInterval time.Duration
}

// NewWorkspace creates a workspace over host.
func NewWorkspace(host afero.Fs, options ...Option) (*Workspace, error) {
	if host == nil {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidArgument)
	}
	opts := processOptions(options...)

	ws := &Workspace{
		host:       host,
		roots:      DefaultRoots(),
		chunkSize:  DefaultChunkSize,
		dispatcher: Inline,
		log:        zerolog.Nop(),
		cipher:     CipherAESCTR,

		pollInterval: 5 * time.Second,
	}

	for kind, dir := range opts.Roots {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolve %s root: %w", kind, err)
		}
		ws.roots[kind] = abs
	}
	if opts.ChunkSize < 0 || opts.ChunkSize > MaxChunkSize {
		return nil, fmt.Errorf("%w: chunk size %d", ErrInvalidArgument, opts.ChunkSize)
	}
	if opts.ChunkSize > 0 {
		ws.chunkSize = opts.ChunkSize
	}
	if opts.Dispatcher != nil {
		ws.dispatcher = opts.Dispatcher
	}
	if opts.Logger != nil {
		ws.log = *opts.Logger
	}
	if opts.Cipher != "" {
		ws.cipher = opts.Cipher
	}
	if opts.PollInterval > 0 {
		ws.pollInterval = opts.PollInterval
	}
	if opts.Key != nil {
		if err := checkKey(ws.cipher, opts.Key); err != nil {
			return nil, err
		}
		ws.key = append([]byte(nil), opts.Key...)
	}

	return ws, nil
}

// DefaultRoots resolves the platform directories for every RootKind that
// can be determined on this machine.
func DefaultRoots() map[RootKind]string {
	roots := map[RootKind]string{
		RootTemporary: os.TempDir(),
	}
	if home, err := os.UserHomeDir(); err == nil {
		roots[RootDocuments] = filepath.Join(home, "Documents")
		roots[RootDownloads] = filepath.Join(home, "Downloads")
	}
	if dir, err := os.UserCacheDir(); err == nil {
		roots[RootCaches] = dir
	}
	if dir, err := os.UserConfigDir(); err == nil {
		roots[RootApplicationSupport] = dir
	}
	return roots
}

// Host returns the host file system.
func (ws *Workspace) Host() afero.Fs { return ws.host }

// Logger returns the diagnostics logger.
func (ws *Workspace) Logger() *zerolog.Logger { return &ws.log }

// ChunkSize returns the default transfer chunk size.
func (ws *Workspace) ChunkSize() int { return ws.chunkSize }

// Dispatcher returns the callback dispatcher.
func (ws *Workspace) Dispatcher() Dispatcher { return ws.dispatcher }

// Root returns the absolute host directory for kind.
func (ws *Workspace) Root(kind RootKind) (string, error) {
	dir, ok := ws.roots[kind]
	if !ok {
		return "", fmt.Errorf("%w: no %s root on this host", ErrNotSupported, kind)
	}
	return dir, nil
}

// File returns the file at rel under the kind root. The file does not have
// to exist.
func (ws *Workspace) File(kind RootKind, rel string) (*File, error) {
	root, err := ws.Root(kind)
	if err != nil {
		return nil, err
	}
	clean, err := cleanRelative(rel)
	if err != nil {
		return nil, &PathError{Op: "file", Path: rel, Err: err}
	}
	full := filepath.Join(root, filepath.FromSlash(clean))
	if !isPathUnderRoot(root, full) {
		return nil, &PathError{Op: "file", Path: rel, Err: ErrNotAllowed}
	}
	return ws.newFile(full), nil
}

// Folder returns the folder called name under the kind root, creating its
// directory when it does not exist yet. name may be slash-delimited; an
// empty name selects "untitled folder".
func (ws *Workspace) Folder(name string, kind RootKind) (*Folder, error) {
	f, err := ws.folderAt(name, kind)
	if err != nil {
		return nil, err
	}
	if err := f.createIfNotExist(); err != nil {
		return nil, err
	}
	return f, nil
}

// ExistingFolder is like Folder but never creates anything: it fails with
// ErrNotExist when nothing is at the folder's path and with ErrNotDir when
// something other than a directory is.
func (ws *Workspace) ExistingFolder(name string, kind RootKind) (*Folder, error) {
	f, err := ws.folderAt(name, kind)
	if err != nil {
		return nil, err
	}
	if !ws.exists(f.Path()) {
		return nil, ws.fail("folder", f.Path(), &PathError{Op: "folder", Path: f.Path(), Err: ErrNotExist})
	}
	if !f.IsFolder() {
		return nil, ws.fail("folder", f.Path(), &PathError{Op: "folder", Path: f.Path(), Err: ErrNotDir})
	}
	return f, nil
}

func (ws *Workspace) folderAt(name string, kind RootKind) (*Folder, error) {
	if name == "" {
		name = defaultFolderName
	}
	clean, err := cleanRelative(name)
	if err != nil {
		return nil, &PathError{Op: "folder", Path: name, Err: err}
	}
	root, err := ws.Root(kind)
	if err != nil {
		return nil, err
	}
	f := &Folder{ws: ws, kind: kind, root: root, name: clean}
	if !isPathUnderRoot(root, f.Path()) {
		return nil, &PathError{Op: "folder", Path: name, Err: ErrNotAllowed}
	}
	return f, nil
}

// dispatchProgress routes progress reports through the dispatcher.
func (ws *Workspace) dispatchProgress(progress ProgressFunc) ProgressFunc {
	if progress == nil {
		return nil
	}
	return func(percent float64) {
		ws.dispatcher.Dispatch(func() { progress(percent) })
	}
}

// fail logs err against op and path and returns it.
func (ws *Workspace) fail(op, path string, err error) error {
	ws.log.Error().Str("op", op).Str("path", path).Err(err).Msg("operation failed")
	return err
}
