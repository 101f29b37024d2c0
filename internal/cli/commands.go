package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gobeaver/folderkit"
)

func (a *app) newLsCmd() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "ls <folder>",
		Short: "List the files and folders directly in a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder, err := a.ws.ExistingFolder(args[0], a.kind())
			if err != nil {
				return err
			}
			files, folders, err := folder.ContentsMatching(filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, sub := range folders {
				fmt.Fprintf(out, "%s/\n", sub.LastComponent())
			}
			for _, file := range files {
				fmt.Fprintf(out, "%s\t%d\n", file.Name(), file.SizeBytes())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Only entries whose name contains this text (case-insensitive)")
	return cmd
}

func (a *app) newDuCmd() *cobra.Command {
	var unit string

	cmd := &cobra.Command{
		Use:   "du <folder>",
		Short: "Print the total size of a folder and everything below it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := parseUnit(unit)
			if err != nil {
				return err
			}
			folder, err := a.ws.ExistingFolder(args[0], a.kind())
			if err != nil {
				return err
			}
			size, err := folder.CalculateSizeAsync(nil).Wait()
			if err != nil {
				return err
			}
			if u == folderkit.Bytes {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", size, folder.Name())
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.2f %s\t%s\n", u.Scale(size), strings.ToUpper(unit), folder.Name())
			return nil
		},
	}

	cmd.Flags().StringVarP(&unit, "unit", "u", "b", "Size unit (b|kb|mb|gb|tb)")
	return cmd
}

func parseUnit(s string) (folderkit.SizeUnit, error) {
	switch strings.ToLower(s) {
	case "b", "":
		return folderkit.Bytes, nil
	case "kb":
		return folderkit.KB, nil
	case "mb":
		return folderkit.MB, nil
	case "gb":
		return folderkit.GB, nil
	case "tb":
		return folderkit.TB, nil
	default:
		return 0, fmt.Errorf("unknown unit %q", s)
	}
}

func (a *app) newMkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <parent> <name>",
		Short: "Create a subfolder, picking a free name when it is taken",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent, err := a.ws.Folder(args[0], a.kind())
			if err != nil {
				return err
			}
			sub, err := parent.AddSubfolder(args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sub.Name())
			return nil
		},
	}
}

func (a *app) newCpCmd() *cobra.Command {
	var (
		quiet  bool
		verify bool
	)

	cmd := &cobra.Command{
		Use:   "cp <src> <dst>",
		Short: "Copy a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.transfer(cmd, args[0], args[1], nil, quiet); err != nil {
				return err
			}
			if verify {
				return a.verify(args[0], args[1])
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Hide the progress bar")
	cmd.Flags().BoolVar(&verify, "verify", false, "Compare xxhash checksums of source and copy")
	return cmd
}

func (a *app) verify(srcName, dstName string) error {
	var sums [2]string
	for i, name := range []string{srcName, dstName} {
		f, err := a.ws.File(a.kind(), name)
		if err != nil {
			return err
		}
		if sums[i], err = f.Checksum(folderkit.ChecksumXXHash); err != nil {
			return err
		}
	}
	if sums[0] != sums[1] {
		return fmt.Errorf("%s and %s differ after copy (xxhash %s != %s)", srcName, dstName, sums[0], sums[1])
	}
	return nil
}

func (a *app) newSumCmd() *cobra.Command {
	var algorithms []string

	cmd := &cobra.Command{
		Use:   "sum <file>",
		Short: "Print checksums of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			algs := make([]folderkit.ChecksumAlgorithm, 0, len(algorithms))
			for _, name := range algorithms {
				alg, err := folderkit.ParseChecksumAlgorithm(name)
				if err != nil {
					return err
				}
				algs = append(algs, alg)
			}
			f, err := a.ws.File(a.kind(), args[0])
			if err != nil {
				return err
			}
			sums, err := f.Checksums(algs...)
			if err != nil {
				return err
			}
			seen := make(map[folderkit.ChecksumAlgorithm]bool, len(algs))
			for _, alg := range algs {
				if seen[alg] {
					continue
				}
				seen[alg] = true
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", alg, sums[alg], args[0])
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&algorithms, "alg", "a", []string{string(folderkit.ChecksumSHA256)}, "Checksum algorithms (md5|sha1|sha256|sha512|crc32|xxhash)")
	return cmd
}

func (a *app) newCryptCmd(direction string) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   direction + " <src> <dst>",
		Short: strings.ToUpper(direction[:1]) + direction[1:] + " a file with the configured stream cipher",
		Long: `The key comes from FOLDERKIT_CIPHER_KEY (base64, 32 bytes) or is derived
from --passphrase. Encrypted files start with a random nonce, so the same
input never encrypts to the same output twice.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var transform folderkit.Transform
			if direction == "encrypt" {
				sealer, err := a.ws.Sealer()
				if err != nil {
					return err
				}
				transform = sealer.Transform
			} else {
				opener, err := a.ws.Opener()
				if err != nil {
					return err
				}
				transform = opener.Transform
			}
			return a.transfer(cmd, args[0], args[1], transform, quiet)
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Hide the progress bar")
	return cmd
}

func (a *app) transfer(cmd *cobra.Command, srcName, dstName string, transform folderkit.Transform, quiet bool) error {
	src, err := a.ws.File(a.kind(), srcName)
	if err != nil {
		return err
	}
	dst, err := a.ws.File(a.kind(), dstName)
	if err != nil {
		return err
	}

	var progress folderkit.ProgressFunc
	if !quiet {
		var finish func()
		progress, finish = progressFor(cmd.ErrOrStderr(), src.Name())
		defer finish()
	}

	if err := dst.SecureWriteFrom(src, a.ws.ChunkSize(), progress, transform); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%d bytes)\n", srcName, dstName, dst.SizeBytes())
	return nil
}
