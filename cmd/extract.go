package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tragoedia0722/filesan/internal/config"
	"github.com/tragoedia0722/filesan/pkg/extractor"
	"github.com/tragoedia0722/filesan/pkg/repository"
)

func newExtractCmd(opts *rootOptions) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "extract CID DEST",
		Short: "Write the tree under CID to DEST",
		Long: `Extract writes the tree under CID to DEST, escaping every name for the
configured mode plus the running system, and lists the entries it renamed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRepository(cmd, func(cfg *config.Config, repo *repository.Repository) error {
				res, err := extractor.NewExtractor(repo.BlockStore(), args[0], args[1]).
					WithEscaper(cfg.Escaper()).
					Extract(cmd.Context(), overwrite)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, r := range res.Renamed {
					fmt.Fprintf(out, "renamed %s -> %s\n", r.Original, r.Escaped)
				}
				fmt.Fprintf(out, "extracted %d files, %d directories, %s\n", res.Files, res.Dirs, humanize.Bytes(uint64(res.Bytes)))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace existing files")
	return cmd
}
