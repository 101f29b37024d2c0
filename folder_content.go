package folderkit

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gobwas/glob"
	"github.com/spf13/afero"
)

// entries lists the folder, keeping names that contain filter ignoring
// case. An empty filter keeps everything.
func (f *Folder) entries(op, filter string) ([]string, error) {
	p := f.Path()
	if !f.Exists() {
		return nil, f.ws.fail(op, p, &PathError{Op: op, Path: p, Err: ErrNotExist})
	}
	infos, err := afero.ReadDir(f.ws.host, p)
	if err != nil {
		return nil, f.ws.fail(op, p, hostError(op, p, err))
	}
	filter = strings.ToLower(filter)
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if filter != "" && !strings.Contains(strings.ToLower(info.Name()), filter) {
			continue
		}
		names = append(names, info.Name())
	}
	return names, nil
}

// kindOfChild reads the metadata of a listed entry. Entries that cannot
// be stat'ed are reported as missing so callers drop them.
func (f *Folder) kindOfChild(name string) Kind {
	md, err := f.ws.Metadata(filepath.Join(f.Path(), name))
	if err != nil {
		f.ws.log.Debug().Str("path", md.Path).Err(err).Msg("entry dropped")
		return KindMissing
	}
	return md.Kind
}

// SearchFiles returns the regular files directly in the folder whose name
// contains filter, ignoring case.
func (f *Folder) SearchFiles(filter string) ([]*File, error) {
	names, err := f.entries("search", filter)
	if err != nil {
		return nil, err
	}
	files := make([]*File, 0, len(names))
	for _, name := range names {
		if f.kindOfChild(name) == KindFile {
			files = append(files, f.ws.newFile(filepath.Join(f.Path(), name)))
		}
	}
	return files, nil
}

// SearchFolders returns the directories directly in the folder whose name
// contains filter, ignoring case.
func (f *Folder) SearchFolders(filter string) ([]*Folder, error) {
	names, err := f.entries("search", filter)
	if err != nil {
		return nil, err
	}
	folders := make([]*Folder, 0, len(names))
	for _, name := range names {
		if f.kindOfChild(name) == KindDirectory {
			sub := f.child(name)
			sub.exists = true
			folders = append(folders, sub)
		}
	}
	return folders, nil
}

// ContentsMatching returns both the files and the folders whose name
// contains filter.
func (f *Folder) ContentsMatching(filter string) ([]*File, []*Folder, error) {
	files, err := f.SearchFiles(filter)
	if err != nil {
		return nil, nil, err
	}
	folders, err := f.SearchFolders(filter)
	if err != nil {
		return nil, nil, err
	}
	return files, folders, nil
}

// Glob returns the files below the folder whose slash-delimited path
// relative to the folder matches pattern. "*" stays within one directory
// level, "**" crosses levels.
func (f *Folder) Glob(pattern string) ([]*File, error) {
	p := f.Path()
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, f.ws.fail("glob", p, &PathError{Op: "glob", Path: pattern, Err: fmt.Errorf("%w: %v", ErrInvalidArgument, err)})
	}
	if !f.Exists() {
		return nil, f.ws.fail("glob", p, &PathError{Op: "glob", Path: p, Err: ErrNotExist})
	}
	var files []*File
	err = afero.Walk(f.ws.host, p, func(walked string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(p, walked)
		if err != nil {
			return err
		}
		if g.Match(filepath.ToSlash(rel)) {
			files = append(files, f.ws.newFile(walked))
		}
		return nil
	})
	if err != nil {
		return nil, f.ws.fail("glob", p, hostError("glob", p, err))
	}
	return files, nil
}

// checkIncoming validates the preconditions shared by MoveIn and CopyOf.
func (f *Folder) checkIncoming(op string, file *File) error {
	if !f.Exists() {
		return &PathError{Op: op, Path: f.Path(), Err: ErrNotExist}
	}
	md, err := file.Metadata()
	if err != nil {
		return err
	}
	switch md.Kind {
	case KindMissing:
		return &PathError{Op: op, Path: file.Path(), Err: ErrNotExist}
	case KindFile:
		return nil
	default:
		return &PathError{Op: op, Path: file.Path(), Err: ErrNotRegular}
	}
}

// prepareTarget clears the way for name when replace is set, or fails with
// ErrExist when it is not and name is taken.
func (f *Folder) prepareTarget(op, name string, replace bool) (string, error) {
	dst := filepath.Join(f.Path(), name)
	if !f.ws.exists(dst) {
		return dst, nil
	}
	if !replace {
		return "", &PathError{Op: op, Path: dst, Err: ErrExist}
	}
	if err := f.ws.host.RemoveAll(dst); err != nil {
		return "", hostError(op, dst, err)
	}
	return dst, nil
}

// MoveIn moves file into the folder, keeping its name. With replace an
// existing entry of that name is removed first. On success file refers to
// its new location.
func (f *Folder) MoveIn(file *File, replace bool) (*File, error) {
	if err := f.checkIncoming("move", file); err != nil {
		return nil, f.ws.fail("move", file.Path(), err)
	}
	src := file.Path()
	if filepath.Dir(src) == f.Path() {
		return file, nil
	}
	dst, err := f.prepareTarget("move", file.Name(), replace)
	if err != nil {
		return nil, f.ws.fail("move", src, err)
	}
	if err := f.ws.host.Rename(src, dst); err != nil {
		// Renames across devices fail; fall back to copy and delete.
		f.ws.log.Debug().Str("path", src).Err(err).Msg("rename failed, copying")
		if err := Transfer(file, f.ws.newFile(dst), f.ws.chunkSize, nil, nil); err != nil {
			return nil, f.ws.fail("move", src, err)
		}
		if err := f.ws.host.Remove(src); err != nil {
			return nil, f.ws.fail("move", src, hostError("move", src, err))
		}
	}
	file.path = dst
	file.refreshSize()
	f.ws.log.Debug().Str("from", src).Str("to", dst).Msg("moved")
	return file, nil
}

// CopyOf copies file into the folder, keeping its name, and returns the
// copy. With replace an existing entry of that name is removed first.
func (f *Folder) CopyOf(file *File, replace bool) (*File, error) {
	if err := f.checkIncoming("copy", file); err != nil {
		return nil, f.ws.fail("copy", file.Path(), err)
	}
	if filepath.Join(f.Path(), file.Name()) == file.Path() {
		return nil, f.ws.fail("copy", file.Path(), &PathError{Op: "copy", Path: file.Path(), Err: ErrExist})
	}
	dst, err := f.prepareTarget("copy", file.Name(), replace)
	if err != nil {
		return nil, f.ws.fail("copy", file.Path(), err)
	}
	out := f.ws.newFile(dst)
	if err := out.WriteFrom(file, f.ws.chunkSize, nil); err != nil {
		return nil, err
	}
	return out, nil
}

// PasteContent copies file into the folder under a collision-free name, or
// under its own name replacing what is there when replace is set.
func (f *Folder) PasteContent(file *File, replace bool) (*File, error) {
	if replace {
		return f.CopyOf(file, true)
	}
	if err := f.checkIncoming("paste", file); err != nil {
		return nil, f.ws.fail("paste", file.Path(), err)
	}
	out := f.ws.newFile(filepath.Join(f.Path(), f.ResolveChildName(file.Name())))
	if err := out.WriteFrom(file, f.ws.chunkSize, nil); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveAs writes data to the child file name. Without replace an existing
// child is left alone and the data goes to the next free "name N".
func (f *Folder) SaveAs(name string, data []byte, replace bool) (*File, error) {
	if err := validComponent(name); err != nil {
		return nil, f.ws.fail("save", f.Path(), &PathError{Op: "save", Path: f.Path(), Err: err})
	}
	if err := f.createIfNotExist(); err != nil {
		return nil, err
	}
	if !replace {
		name = f.ResolveChildName(name)
	} else if md, err := f.ws.Metadata(filepath.Join(f.Path(), name)); err == nil && md.Kind == KindDirectory {
		return nil, f.ws.fail("save", md.Path, &PathError{Op: "save", Path: md.Path, Err: ErrNotRegular})
	}
	out := f.ws.newFile(filepath.Join(f.Path(), name))
	if err := out.Write(data); err != nil {
		return nil, err
	}
	return out, nil
}

// Import streams r into a new child file under a collision-free name.
func (f *Folder) Import(name string, r io.Reader) (*File, error) {
	if err := validComponent(name); err != nil {
		return nil, f.ws.fail("import", f.Path(), &PathError{Op: "import", Path: f.Path(), Err: err})
	}
	if err := f.createIfNotExist(); err != nil {
		return nil, err
	}
	dst := filepath.Join(f.Path(), f.ResolveChildName(name))
	if err := afero.WriteReader(f.ws.host, dst, r); err != nil {
		return nil, f.ws.fail("import", dst, hostError("import", dst, err))
	}
	f.ws.log.Debug().Str("path", dst).Msg("imported")
	return f.ws.newFile(dst), nil
}

// DeleteContentByName removes the child called name, file or folder. It
// fails with ErrNotExist when there is no such child.
func (f *Folder) DeleteContentByName(name string) error {
	if err := validComponent(name); err != nil {
		return f.ws.fail("delete", f.Path(), &PathError{Op: "delete", Path: f.Path(), Err: err})
	}
	return f.removeChild(filepath.Join(f.Path(), name))
}

// DeleteContent removes file when it is a direct child of the folder.
func (f *Folder) DeleteContent(file *File) error {
	if filepath.Dir(file.Path()) != f.Path() {
		return f.ws.fail("delete", file.Path(), &PathError{Op: "delete", Path: file.Path(), Err: ErrNotExist})
	}
	return f.removeChild(file.Path())
}

func (f *Folder) removeChild(p string) error {
	if !f.ws.exists(p) {
		return f.ws.fail("delete", p, &PathError{Op: "delete", Path: p, Err: ErrNotExist})
	}
	if err := f.ws.host.RemoveAll(p); err != nil {
		return f.ws.fail("delete", p, hostError("delete", p, err))
	}
	f.ws.log.Debug().Str("path", p).Msg("deleted")
	return nil
}

// Watch returns a token that fires on the first change to the folder's
// direct children. Hosts with native notifications are used directly;
// anything else is polled at the workspace poll interval until ctx is
// done.
func (f *Folder) Watch(ctx context.Context) (ChangeToken, error) {
	p := f.Path()
	if !f.Exists() {
		return nil, f.ws.fail("watch", p, &PathError{Op: "watch", Path: p, Err: ErrNotExist})
	}
	if w, ok := f.ws.host.(CanWatch); ok {
		token, err := w.Watch(ctx, p)
		if err != nil {
			return nil, f.ws.fail("watch", p, hostError("watch", p, err))
		}
		return token, nil
	}

	initial, err := f.fingerprint()
	if err != nil {
		return nil, f.ws.fail("watch", p, err)
	}
	return NewPollingChangeToken(ctx, PollingConfig{
		Interval: f.ws.pollInterval,
		CheckFunc: func() bool {
			current, err := f.fingerprint()
			if errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrNotExist) {
				return true
			}
			return err == nil && current != initial
		},
	}), nil
}

// fingerprint hashes the names, sizes and modification times of the
// folder's direct children.
func (f *Folder) fingerprint() (uint64, error) {
	p := f.Path()
	infos, err := afero.ReadDir(f.ws.host, p)
	if err != nil {
		return 0, hostError("watch", p, err)
	}
	h := xxhash.New()
	var buf [8]byte
	for _, info := range infos {
		_, _ = h.WriteString(info.Name())
		binary.LittleEndian.PutUint64(buf[:], uint64(info.Size()))
		_, _ = h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(info.ModTime().UnixNano()))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64(), nil
}
