package main

import (
	"os"

	"github.com/gobeaver/folderkit/internal/cli"

	_ "github.com/gobeaver/folderkit/driver/local"
	_ "github.com/gobeaver/folderkit/driver/memory"
)

func main() {
	if err := cli.NewRootCmd(cli.FromEnvironment).Execute(); err != nil {
		os.Exit(1)
	}
}
