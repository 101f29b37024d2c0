package folderkit

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// File is a single host file. Its size is a snapshot taken when the value
// is created and after every operation that changes the file through it;
// changes made behind its back are not tracked. The size field is not
// guarded, so one File must not be mutated from two goroutines at once.
type File struct {
	ws   *Workspace
	path string
	size int64
}

func (ws *Workspace) newFile(path string) *File {
	f := &File{ws: ws, path: filepath.Clean(path)}
	f.refreshSize()
	return f
}

func (f *File) refreshSize() {
	info, err := f.ws.host.Stat(f.path)
	if err != nil {
		f.ws.log.Debug().Str("path", f.path).Err(err).Msg("size unavailable")
		return
	}
	f.size = info.Size()
}

// Path returns the absolute host path.
func (f *File) Path() string { return f.path }

// Name returns the last path element.
func (f *File) Name() string { return filepath.Base(f.path) }

// Exists reports whether anything is at the file's path.
func (f *File) Exists() bool { return f.ws.exists(f.path) }

// IsRegularFile reports whether the path holds a regular file.
func (f *File) IsRegularFile() bool {
	md, err := f.ws.Metadata(f.path)
	return err == nil && md.Kind == KindFile
}

// Metadata queries the host for the file's current attributes.
func (f *File) Metadata() (Metadata, error) { return f.ws.Metadata(f.path) }

// ModifiedAt returns the modification time, or nil when unknown.
func (f *File) ModifiedAt() *time.Time {
	md, err := f.ws.Metadata(f.path)
	if err != nil {
		return nil
	}
	return md.ModifiedAt
}

// CreatedAt returns the creation time, or nil when the host does not
// record one.
func (f *File) CreatedAt() *time.Time {
	md, err := f.ws.Metadata(f.path)
	if err != nil {
		return nil
	}
	return md.CreatedAt
}

// SizeBytes returns the size snapshot.
func (f *File) SizeBytes() int64 { return f.size }

// Size returns the size snapshot scaled to unit.
func (f *File) Size(unit SizeUnit) float64 { return unit.Scale(f.size) }

// OpenRead implements ReadableEntity.
func (f *File) OpenRead() (io.ReadCloser, error) {
	return f.ws.host.Open(f.path)
}

// Recreate implements WritableEntity.
func (f *File) Recreate() (SyncWriteCloser, error) {
	if err := f.ws.host.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return f.ws.host.OpenFile(f.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
}

// Read returns the whole content of the file.
func (f *File) Read() ([]byte, error) {
	md, err := f.ws.Metadata(f.path)
	if err != nil {
		return nil, f.ws.fail("read", f.path, err)
	}
	switch md.Kind {
	case KindFile:
	case KindMissing:
		return nil, f.ws.fail("read", f.path, &PathError{Op: "read", Path: f.path, Err: ErrNotExist})
	default:
		return nil, f.ws.fail("read", f.path, &PathError{Op: "read", Path: f.path, Err: ErrNotRegular})
	}
	data, err := afero.ReadFile(f.ws.host, f.path)
	if err != nil {
		return nil, f.ws.fail("read", f.path, hostError("read", f.path, err))
	}
	return data, nil
}

// Write replaces the content of the file. The data goes to a temporary
// sibling first and is renamed over the file, so readers never observe a
// half-written file.
func (f *File) Write(data []byte) error {
	err := f.writeAtomic(data)
	f.refreshSize()
	if err != nil {
		return f.ws.fail("write", f.path, hostError("write", f.path, err))
	}
	return nil
}

func (f *File) writeAtomic(data []byte) (err error) {
	tmp, err := afero.TempFile(f.ws.host, filepath.Dir(f.path), "."+f.Name()+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			f.ws.host.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = f.ws.host.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return f.ws.host.Rename(tmpName, f.path)
}

// WriteFrom replaces the content of the file with the content of src,
// copied chunkSize bytes at a time.
func (f *File) WriteFrom(src ReadableEntity, chunkSize int, progress ProgressFunc) error {
	return f.SecureWriteFrom(src, chunkSize, progress, nil)
}

// WriteTo copies the file into dst. It is dst.WriteFrom(f, ...).
func (f *File) WriteTo(dst *File, chunkSize int, progress ProgressFunc) error {
	return dst.WriteFrom(f, chunkSize, progress)
}

// WriteFromAsync runs WriteFrom on its own goroutine. The task yields the
// resulting size of the file.
func (f *File) WriteFromAsync(src ReadableEntity, chunkSize int, progress ProgressFunc, done func(int64, error)) *Task[int64] {
	return f.SecureWriteFromAsync(src, chunkSize, progress, nil, done)
}

// WriteToAsync runs WriteTo on its own goroutine. The task yields the
// resulting size of dst.
func (f *File) WriteToAsync(dst *File, chunkSize int, progress ProgressFunc, done func(int64, error)) *Task[int64] {
	return dst.WriteFromAsync(f, chunkSize, progress, done)
}

// Delete removes the file from the host.
func (f *File) Delete() error {
	if !f.Exists() {
		return f.ws.fail("delete", f.path, &PathError{Op: "delete", Path: f.path, Err: ErrNotExist})
	}
	if err := f.ws.host.Remove(f.path); err != nil {
		return f.ws.fail("delete", f.path, hostError("delete", f.path, err))
	}
	f.ws.log.Debug().Str("path", f.path).Msg("deleted")
	return nil
}

// Rename moves the file to newName inside the same directory. On success
// the File refers to the new path; on failure it is unchanged.
func (f *File) Rename(newName string) error {
	if err := validComponent(newName); err != nil {
		return f.ws.fail("rename", f.path, &PathError{Op: "rename", Path: f.path, Err: err})
	}
	if !f.Exists() {
		return f.ws.fail("rename", f.path, &PathError{Op: "rename", Path: f.path, Err: ErrNotExist})
	}
	dst := filepath.Join(filepath.Dir(f.path), newName)
	if dst == f.path {
		return nil
	}
	if f.ws.exists(dst) {
		return f.ws.fail("rename", f.path, &PathError{Op: "rename", Path: dst, Err: ErrExist})
	}
	if err := f.ws.host.Rename(f.path, dst); err != nil {
		return f.ws.fail("rename", f.path, hostError("rename", f.path, err))
	}
	f.ws.log.Debug().Str("from", f.path).Str("to", dst).Msg("renamed")
	f.path = dst
	f.refreshSize()
	return nil
}

// Equal reports whether both values refer to the same path.
func (f *File) Equal(other *File) bool {
	return other != nil && f.path == other.path
}

func (f *File) String() string {
	return fmt.Sprintf("File(%s, %d bytes)", f.path, f.size)
}

// Ensure File implements interfaces
var (
	_ ReadableEntity = (*File)(nil)
	_ WritableEntity = (*File)(nil)
)
