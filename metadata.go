package folderkit

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Metadata queries the host for the attributes of path. A missing path is
// not an error: it yields KindMissing. Symlinks are reported as KindOther
// when the host can tell them apart.
func (ws *Workspace) Metadata(path string) (Metadata, error) {
	path = filepath.Clean(path)
	md := Metadata{Path: path, Kind: KindMissing}

	info, err := ws.lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return md, nil
		}
		return md, hostError("stat", path, err)
	}

	md.Kind = kindOf(info)
	if md.Kind == KindFile {
		md.Size = info.Size()
	}
	modTime := info.ModTime()
	if !modTime.IsZero() {
		md.ModifiedAt = &modTime
	}
	if bt, ok := ws.host.(CanBirthTime); ok {
		md.CreatedAt = bt.BirthTime(path)
	}
	return md, nil
}

func (ws *Workspace) lstat(path string) (os.FileInfo, error) {
	if l, ok := ws.host.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return ws.host.Stat(path)
}

// exists reports whether anything, of any kind, is at path.
func (ws *Workspace) exists(path string) bool {
	_, err := ws.lstat(path)
	return err == nil
}

func kindOf(info os.FileInfo) Kind {
	mode := info.Mode()
	switch {
	case mode.IsRegular():
		return KindFile
	case mode.IsDir():
		return KindDirectory
	default:
		return KindOther
	}
}
