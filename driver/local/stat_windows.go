//go:build windows

package local

import (
	"os"
	"syscall"
	"time"
)

// birthTime reads the creation time Windows keeps for every file.
func birthTime(_ string, info os.FileInfo) *time.Time {
	data, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return nil
	}
	t := time.Unix(0, data.CreationTime.Nanoseconds())
	if t.IsZero() {
		return nil
	}
	return &t
}
