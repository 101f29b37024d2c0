// Package cli provides the folderkit command-line interface.
package cli

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/gobeaver/folderkit"
)

// WorkspaceBuilder creates the workspace the commands run against. extra
// carries the options derived from command-line flags.
type WorkspaceBuilder func(extra ...folderkit.Option) (*folderkit.Workspace, error)

// FromEnvironment builds the workspace from FOLDERKIT_* variables.
func FromEnvironment(extra ...folderkit.Option) (*folderkit.Workspace, error) {
	return folderkit.New(nil, extra...)
}

type app struct {
	build WorkspaceBuilder
	ws    *folderkit.Workspace

	// Global flags
	root       string
	chunk      int
	passphrase string
	salt       string
	cipher     string
	verbose    bool
}

// NewRootCmd creates the root command.
func NewRootCmd(build WorkspaceBuilder) *cobra.Command {
	a := &app{build: build}

	rootCmd := &cobra.Command{
		Use:   "folderkit",
		Short: "Manage folders under the standard user directories",
		Long: `folderkit manages files and folders below the standard user directories
(documents, caches, temporary, appdata, downloads).

Paths are slash-delimited and relative to the root picked with --root.
Transfers stream in chunks and can encrypt or decrypt on the way.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().StringVarP(&a.root, "root", "r", folderkit.RootDocuments.String(), "Root directory (documents|caches|temporary|appdata|downloads)")
	rootCmd.PersistentFlags().IntVar(&a.chunk, "chunk", 0, "Transfer chunk size in bytes (0 = configured default)")
	rootCmd.PersistentFlags().StringVar(&a.passphrase, "passphrase", "", "Derive the cipher key from a passphrase instead of FOLDERKIT_CIPHER_KEY")
	rootCmd.PersistentFlags().StringVar(&a.salt, "salt", "folderkit", "Salt for --passphrase key derivation")
	rootCmd.PersistentFlags().StringVar(&a.cipher, "cipher", string(folderkit.CipherAESCTR), "Cipher used with --passphrase (aes-ctr|chacha20)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log every operation")

	rootCmd.AddCommand(
		a.newLsCmd(),
		a.newDuCmd(),
		a.newMkdirCmd(),
		a.newCpCmd(),
		a.newSumCmd(),
		a.newCryptCmd("encrypt"),
		a.newCryptCmd("decrypt"),
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if _, err := folderkit.ParseRootKind(a.root); err != nil {
		return err
	}
	var opts []folderkit.Option
	if a.chunk != 0 {
		opts = append(opts, folderkit.WithChunkSize(a.chunk))
	}
	if a.passphrase != "" {
		key := folderkit.DeriveKey(a.passphrase, []byte(a.salt))
		opts = append(opts, folderkit.WithCipher(folderkit.CipherAlgorithm(a.cipher), key))
	}
	ws, err := a.build(opts...)
	if err != nil {
		return err
	}
	if a.verbose {
		logger := ws.Logger().Level(zerolog.DebugLevel)
		*ws.Logger() = logger
	}
	a.ws = ws
	return nil
}

func (a *app) kind() folderkit.RootKind {
	kind, _ := folderkit.ParseRootKind(a.root)
	return kind
}

// progressFor returns a ProgressFunc drawing a bar on w, and a function to
// finish it.
func progressFor(w io.Writer, description string) (folderkit.ProgressFunc, func()) {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
	)
	return func(percent float64) {
			_ = bar.Set(int(percent))
		}, func() {
			_ = bar.Finish()
		}
}
