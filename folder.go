package folderkit

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// defaultFolderName is used when a folder is requested without a name.
const defaultFolderName = "untitled folder"

// CopyErrorPolicy decides whether Folder.CopyFrom carries on after err hit
// the entry at path. Returning false aborts the copy with err.
type CopyErrorPolicy func(path string, err error) bool

// Folder is a host directory addressed as a slash-delimited name under one
// of the workspace roots. Children are never cached; every query lists the
// host directory again.
type Folder struct {
	ws     *Workspace
	kind   RootKind
	root   string
	name   string
	exists bool

	onCopyError CopyErrorPolicy
}

// Path returns the absolute host path.
func (f *Folder) Path() string {
	return filepath.Join(f.root, filepath.FromSlash(f.name))
}

// Name returns the slash-delimited name relative to the root.
func (f *Folder) Name() string { return f.name }

// LastComponent returns the final element of the name.
func (f *Folder) LastComponent() string { return path.Base(f.name) }

// Kind returns the root the folder is anchored under.
func (f *Folder) Kind() RootKind { return f.kind }

// Metadata queries the host for the folder's current attributes.
func (f *Folder) Metadata() (Metadata, error) { return f.ws.Metadata(f.Path()) }

// ModifiedAt returns the modification time, or nil when unknown.
func (f *Folder) ModifiedAt() *time.Time {
	md, err := f.Metadata()
	if err != nil {
		return nil
	}
	return md.ModifiedAt
}

// IsFolder asks the host whether the path currently holds a directory.
// Unlike Exists it never uses the cached answer.
func (f *Folder) IsFolder() bool {
	md, err := f.Metadata()
	return err == nil && md.Kind == KindDirectory
}

// Exists reports whether the directory exists. Once it has been seen it is
// assumed to stay, until Delete is called through this value.
func (f *Folder) Exists() bool {
	if f.exists {
		return true
	}
	f.exists = f.IsFolder()
	return f.exists
}

func (f *Folder) createIfNotExist() error {
	if f.Exists() {
		return nil
	}
	p := f.Path()
	md, err := f.ws.Metadata(p)
	if err != nil {
		return f.ws.fail("mkdir", p, err)
	}
	if md.Kind != KindMissing {
		return f.ws.fail("mkdir", p, &PathError{Op: "mkdir", Path: p, Err: ErrNotDir})
	}
	if err := f.ws.host.MkdirAll(p, 0o755); err != nil {
		return f.ws.fail("mkdir", p, hostError("mkdir", p, err))
	}
	f.exists = true
	f.ws.log.Debug().Str("path", p).Msg("folder created")
	return nil
}

func (f *Folder) child(name string) *Folder {
	return &Folder{ws: f.ws, kind: f.kind, root: f.root, name: f.name + "/" + name}
}

// AddSubfolder creates a new child folder. When name is taken the next
// free "name N" is used instead.
func (f *Folder) AddSubfolder(name string) (*Folder, error) {
	if err := validComponent(name); err != nil {
		return nil, f.ws.fail("mkdir", f.Path(), &PathError{Op: "mkdir", Path: f.Path(), Err: err})
	}
	if err := f.createIfNotExist(); err != nil {
		return nil, err
	}
	sub := f.child(f.ResolveChildName(name))
	if err := sub.createIfNotExist(); err != nil {
		return nil, err
	}
	return sub, nil
}

// Subfolder returns the child folder called exactly name, creating it when
// it is missing.
func (f *Folder) Subfolder(name string) (*Folder, error) {
	if err := validComponent(name); err != nil {
		return nil, f.ws.fail("subfolder", f.Path(), &PathError{Op: "subfolder", Path: f.Path(), Err: err})
	}
	sub := f.child(name)
	if err := sub.createIfNotExist(); err != nil {
		return nil, err
	}
	return sub, nil
}

// ResolveChildName returns name, or the first "name N" not present in the
// folder.
func (f *Folder) ResolveChildName(name string) string {
	dir := f.Path()
	return ResolveName(name, func(candidate string) bool {
		return f.ws.exists(filepath.Join(dir, candidate))
	})
}

// Rename gives the folder a new last component within the same parent.
func (f *Folder) Rename(newName string) error {
	p := f.Path()
	if err := validComponent(newName); err != nil {
		return f.ws.fail("rename", p, &PathError{Op: "rename", Path: p, Err: err})
	}
	if !f.Exists() {
		return f.ws.fail("rename", p, &PathError{Op: "rename", Path: p, Err: ErrNotExist})
	}
	if newName == f.LastComponent() {
		return nil
	}
	dst := filepath.Join(filepath.Dir(p), newName)
	if f.ws.exists(dst) {
		return f.ws.fail("rename", p, &PathError{Op: "rename", Path: dst, Err: ErrExist})
	}
	if err := f.ws.host.Rename(p, dst); err != nil {
		return f.ws.fail("rename", p, hostError("rename", p, err))
	}
	if parent := path.Dir(f.name); parent != "." {
		f.name = parent + "/" + newName
	} else {
		f.name = newName
	}
	f.exists = true
	f.ws.log.Debug().Str("from", p).Str("to", dst).Msg("renamed")
	return nil
}

// Delete removes the folder and everything in it.
func (f *Folder) Delete() error {
	p := f.Path()
	if !f.Exists() {
		return f.ws.fail("delete", p, &PathError{Op: "delete", Path: p, Err: ErrNotExist})
	}
	if err := f.ws.host.RemoveAll(p); err != nil {
		return f.ws.fail("delete", p, hostError("delete", p, err))
	}
	f.exists = false
	f.ws.log.Debug().Str("path", p).Msg("deleted")
	return nil
}

// contains reports whether other is f or lies below it.
func (f *Folder) contains(other *Folder) bool {
	return isPathUnderRoot(f.Path(), other.Path())
}

// MoveTo copies the folder into target under its last component, renamed
// on collision, and returns the copy. The source is left in place; callers
// that want a real move delete it afterwards.
func (f *Folder) MoveTo(target *Folder) (*Folder, error) {
	p := f.Path()
	if !f.Exists() {
		return nil, f.ws.fail("move", p, &PathError{Op: "move", Path: p, Err: ErrNotExist})
	}
	if f.contains(target) {
		return nil, f.ws.fail("move", p, &PathError{Op: "move", Path: target.Path(), Err: ErrNotAllowed})
	}
	dst, err := target.AddSubfolder(f.LastComponent())
	if err != nil {
		return nil, err
	}
	if err := dst.CopyFrom(f); err != nil {
		return dst, err
	}
	return dst, nil
}

// SetCopyErrorPolicy installs the policy CopyFrom consults when an entry
// cannot be copied. A nil policy restores the default, which logs and
// carries on. There is a single slot per Folder value, so concurrent
// copies into the same value must be serialized.
func (f *Folder) SetCopyErrorPolicy(policy CopyErrorPolicy) {
	f.onCopyError = policy
}

func (f *Folder) proceedAfter(p string, err error) bool {
	if f.onCopyError != nil {
		return f.onCopyError(p, err)
	}
	f.ws.log.Warn().Str("path", p).Err(err).Msg("copy skipped entry")
	return true
}

// CopyFrom merges the contents of src into the folder. Existing
// directories are merged into; an existing file is never overwritten and
// is reported to the copy error policy as ErrExist.
func (f *Folder) CopyFrom(src *Folder) error {
	srcPath := src.Path()
	if !src.Exists() {
		return f.ws.fail("copy", srcPath, &PathError{Op: "copy", Path: srcPath, Err: ErrNotExist})
	}
	if src.contains(f) {
		return f.ws.fail("copy", srcPath, &PathError{Op: "copy", Path: f.Path(), Err: ErrNotAllowed})
	}
	if err := f.createIfNotExist(); err != nil {
		return err
	}

	dstRoot := f.Path()
	var copied int
	err := afero.Walk(f.ws.host, srcPath, func(p string, info os.FileInfo, err error) error {
		if p == srcPath {
			return err
		}
		rel, relErr := filepath.Rel(srcPath, p)
		if relErr != nil {
			return relErr
		}
		dst := filepath.Join(dstRoot, rel)
		if err == nil {
			err = f.copyEntry(p, dst, info)
		}
		if err == nil {
			copied++
			return nil
		}
		if !f.proceedAfter(p, err) {
			return err
		}
		if info != nil && info.IsDir() {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return f.ws.fail("copy", srcPath, err)
	}
	f.ws.log.Debug().Str("from", srcPath).Str("to", dstRoot).Int("entries", copied).Msg("copied")
	return nil
}

func (f *Folder) copyEntry(src, dst string, info os.FileInfo) error {
	switch kindOf(info) {
	case KindDirectory:
		md, err := f.ws.Metadata(dst)
		if err != nil {
			return err
		}
		switch md.Kind {
		case KindDirectory:
			return nil
		case KindMissing:
			if err := f.ws.host.Mkdir(dst, info.Mode().Perm()|0o700); err != nil {
				return hostError("copy", dst, err)
			}
			return nil
		default:
			return &PathError{Op: "copy", Path: dst, Err: ErrExist}
		}
	case KindFile:
		if f.ws.exists(dst) {
			return &PathError{Op: "copy", Path: dst, Err: ErrExist}
		}
		return Transfer(f.ws.newFile(src), f.ws.newFile(dst), f.ws.chunkSize, nil, nil)
	default:
		return &PathError{Op: "copy", Path: src, Err: ErrNotRegular}
	}
}

// Equal reports whether both values refer to the same path.
func (f *Folder) Equal(other *Folder) bool {
	return other != nil && f.Path() == other.Path()
}

func (f *Folder) String() string {
	return fmt.Sprintf("Folder(%s:%s)", f.kind, f.name)
}

var _ Container = (*Folder)(nil)
