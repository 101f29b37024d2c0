package folderkit

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ProgressFunc receives the share of the source transferred so far, as a
// percentage in [0, 100].
type ProgressFunc func(percent float64)

// MaxChunkSize is the largest chunk Transfer accepts.
const MaxChunkSize = 64 << 20

// Transfer streams src into dst in chunks of at most chunkSize bytes,
// passing every chunk through transform before it is written. A nil
// transform copies bytes unchanged. chunkSize must be in [1, MaxChunkSize].
//
// dst is deleted and recreated before the first write. The transfer is not
// atomic: when it fails, whatever was written so far stays at dst. Argument
// errors, a missing source and a source that is not a regular file are
// reported before dst is touched.
//
// Once dst is recreated, transform is called one last time with an empty
// chunk so stateful transforms can finalize, whether or not the transfer
// succeeded; its result is discarded. transform must not retain the chunk
// it is given.
//
// progress is called synchronously after each written chunk. The total is
// taken from the opened source when it can be stat'ed and from
// src.SizeBytes otherwise; progress is skipped when that total is zero.
func Transfer(src ReadableEntity, dst WritableEntity, chunkSize int, transform Transform, progress ProgressFunc) error {
	if chunkSize <= 0 || chunkSize > MaxChunkSize {
		return &PathError{Op: "transfer", Path: dst.Path(), Err: fmt.Errorf("%w: chunk size %d", ErrInvalidArgument, chunkSize)}
	}
	if transform == nil {
		transform = Identity
	}
	if !src.Exists() {
		return &PathError{Op: "transfer", Path: src.Path(), Err: ErrNotExist}
	}
	if rf, ok := src.(interface{ IsRegularFile() bool }); ok && !rf.IsRegularFile() {
		return &PathError{Op: "transfer", Path: src.Path(), Err: ErrNotRegular}
	}
	if filepath.Clean(src.Path()) == filepath.Clean(dst.Path()) {
		return &PathError{Op: "transfer", Path: dst.Path(), Err: fmt.Errorf("%w: source and destination are the same", ErrInvalidArgument)}
	}

	r, err := src.OpenRead()
	if err != nil {
		return hostError("transfer", src.Path(), err)
	}
	defer r.Close()

	total := src.SizeBytes()
	if st, ok := r.(interface{ Stat() (os.FileInfo, error) }); ok {
		if info, err := st.Stat(); err == nil {
			total = info.Size()
		}
	}
	buf := make([]byte, chunkSize)

	w, err := dst.Recreate()
	if err != nil {
		return hostError("transfer", dst.Path(), err)
	}
	closed := false
	defer func() {
		if !closed {
			w.Close()
		}
	}()
	defer func() { _ = transform(buf[:0]) }()

	var transferred int64
	for {
		n, readErr := io.ReadFull(r, buf)
		if n > 0 {
			transferred += int64(n)
			if _, err := w.Write(transform(buf[:n])); err != nil {
				return hostError("transfer", dst.Path(), err)
			}
			if progress != nil && total > 0 {
				progress(percentOf(transferred, total))
			}
		}
		if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
			break
		}
		if readErr != nil {
			return hostError("transfer", src.Path(), readErr)
		}
	}

	if err := w.Sync(); err != nil {
		return hostError("transfer", dst.Path(), err)
	}
	closed = true
	if err := w.Close(); err != nil {
		return hostError("transfer", dst.Path(), err)
	}
	return nil
}

func percentOf(done, total int64) float64 {
	p := 100 * float64(done) / float64(total)
	if p > 100 {
		return 100
	}
	return p
}

// bufferSink is an in-memory destination used to read a file through a
// transform without touching the host.
type bufferSink struct {
	name string
	buf  bytes.Buffer
}

func (b *bufferSink) Path() string { return b.name }

func (b *bufferSink) Recreate() (SyncWriteCloser, error) {
	b.buf.Reset()
	return b, nil
}

func (b *bufferSink) Write(p []byte) (int, error) { return b.buf.Write(p) }
func (b *bufferSink) Sync() error                 { return nil }
func (b *bufferSink) Close() error                { return nil }

var _ WritableEntity = (*bufferSink)(nil)
