package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tragoedia0722/filesan/internal/config"
	"github.com/tragoedia0722/filesan/pkg/importer"
	"github.com/tragoedia0722/filesan/pkg/repository"
)

func newAddCmd(opts *rootOptions) *cobra.Command {
	var portable bool

	cmd := &cobra.Command{
		Use:   "add PATH",
		Short: "Import a file or directory into the repository",
		Long: `Add imports PATH and prints the root CID.

Names are stored as they are on disk. With --portable they are stored
escaped for the configured mode instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRepository(cmd, func(cfg *config.Config, repo *repository.Repository) error {
				imp := importer.NewImporter(repo.BlockStore(), args[0])
				if portable {
					imp.WithNameEscaper(cfg.Escaper())
				}

				res, err := imp.Import(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "added %s %s\n", res.RootCid, res.Name)
				fmt.Fprintf(out, "%d files, %s\n", len(res.Contents), humanize.Bytes(uint64(res.Size)))
				if portable {
					for _, c := range res.Contents {
						if c.Name != c.Original {
							fmt.Fprintf(out, "stored %s as %s\n", c.Original, c.Name)
						}
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&portable, "portable", false, "store names escaped for --mode")
	return cmd
}
