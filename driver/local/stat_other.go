//go:build !linux && !darwin && !windows

package local

import (
	"os"
	"time"
)

func birthTime(string, os.FileInfo) *time.Time { return nil }
