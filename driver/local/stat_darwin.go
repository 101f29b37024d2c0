//go:build darwin

package local

import (
	"os"
	"syscall"
	"time"
)

// birthTime reads Birthtimespec from the stat result.
func birthTime(_ string, info os.FileInfo) *time.Time {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return nil
	}
	t := time.Unix(stat.Birthtimespec.Sec, stat.Birthtimespec.Nsec)
	if t.IsZero() {
		return nil
	}
	return &t
}
