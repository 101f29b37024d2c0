package local

import (
	"github.com/spf13/afero"

	"github.com/gobeaver/folderkit"
)

func init() {
	folderkit.RegisterHost("local", func(*folderkit.Config) (afero.Fs, error) {
		return New(), nil
	})
}
