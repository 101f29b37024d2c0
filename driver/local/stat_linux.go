//go:build linux

package local

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// birthTime asks statx for the creation time. It needs kernel 4.11+ and a
// file system that records it; otherwise the result is nil.
func birthTime(path string, _ os.FileInfo) *time.Time {
	var stx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, unix.AT_SYMLINK_NOFOLLOW, unix.STATX_BTIME, &stx); err != nil {
		return nil
	}
	if stx.Mask&unix.STATX_BTIME == 0 {
		return nil
	}
	t := time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec))
	return &t
}
