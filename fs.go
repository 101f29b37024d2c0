package folderkit

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// Kind classifies what a host path currently holds.
type Kind int

const (
	// KindMissing means nothing exists at the path
	KindMissing Kind = iota
	// KindFile is a regular file
	KindFile
	// KindDirectory is a directory
	KindDirectory
	// KindOther covers symlinks, devices, sockets and pipes
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindOther:
		return "other"
	default:
		return "missing"
	}
}

// Metadata represents the attributes of a host path at the moment it was
// queried. It is never cached.
type Metadata struct {
	Path       string
	Kind       Kind
	Size       int64
	ModifiedAt *time.Time
	CreatedAt  *time.Time
}

// ============================================================================
// Capability Interfaces
// ============================================================================
// *File and *Folder are the only implementations. The transfer engine only
// sees the capability it needs, so a File can stand on either side of a
// transfer without knowing about the other.

// ReadableEntity is the source side of a transfer.
type ReadableEntity interface {
	Path() string
	Name() string
	Exists() bool

	// SizeBytes returns the size snapshot used for progress reporting.
	SizeBytes() int64

	// OpenRead opens the entity for reading at offset 0.
	OpenRead() (io.ReadCloser, error)
}

// SyncWriteCloser is a write handle with an explicit flush.
type SyncWriteCloser interface {
	io.WriteCloser
	Sync() error
}

// WritableEntity is the destination side of a transfer.
type WritableEntity interface {
	Path() string

	// Recreate deletes whatever is at the path, creates an empty file and
	// returns a handle positioned at offset 0.
	Recreate() (SyncWriteCloser, error)
}

// Container is a directory that can be searched and measured.
type Container interface {
	Path() string
	Exists() bool
	SearchFiles(filter string) ([]*File, error)
	SearchFolders(filter string) ([]*Folder, error)
	CalculateSize() (int64, error)
	ResolveChildName(name string) string
}

// ============================================================================
// Standard Roots
// ============================================================================

// RootKind selects the standard host directory a folder tree is anchored
// under.
type RootKind int

const (
	RootDocuments RootKind = iota
	RootCaches
	RootTemporary
	RootApplicationSupport
	RootDownloads
)

var rootKindNames = map[RootKind]string{
	RootDocuments:          "documents",
	RootCaches:             "caches",
	RootTemporary:          "temporary",
	RootApplicationSupport: "appdata",
	RootDownloads:          "downloads",
}

func (k RootKind) String() string {
	if name, ok := rootKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("root(%d)", int(k))
}

// ParseRootKind parses the names accepted by RootKind.String.
func ParseRootKind(s string) (RootKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for kind, name := range rootKindNames {
		if name == s {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown root %q", ErrInvalidArgument, s)
}

// ============================================================================
// Size Units
// ============================================================================

// SizeUnit scales byte counts by successive division by 1024.
type SizeUnit int

const (
	Bytes SizeUnit = iota
	KB
	MB
	GB
	TB
)

// Scale converts a byte count to the unit.
func (u SizeUnit) Scale(bytes int64) float64 {
	v := float64(bytes)
	for i := Bytes; i < u && i < TB; i++ {
		v /= 1024
	}
	return v
}

// ============================================================================
// Watching
// ============================================================================

// ChangeToken represents a change notification token.
//
// Consumers can either poll HasChanged() or register a callback via
// RegisterChangeCallback(). Tokens are single-use: once changed they stay
// changed.
type ChangeToken interface {
	HasChanged() bool
	ActiveChangeCallbacks() bool
	RegisterChangeCallback(callback func()) (unregister func())
}

// CanWatch indicates the host supports change notifications for a
// directory. The token fires on the first create, write, remove or rename
// of a direct child.
type CanWatch interface {
	Watch(ctx context.Context, dir string) (ChangeToken, error)
}

// CanBirthTime indicates the host can report creation times.
type CanBirthTime interface {
	BirthTime(path string) *time.Time
}
