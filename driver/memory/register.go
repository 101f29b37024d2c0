package memory

import (
	"github.com/spf13/afero"

	"github.com/gobeaver/folderkit"
)

func init() {
	folderkit.RegisterHost("memory", func(*folderkit.Config) (afero.Fs, error) {
		return New(), nil
	})
}
