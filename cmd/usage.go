package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tragoedia0722/filesan/internal/config"
	"github.com/tragoedia0722/filesan/pkg/repository"
)

func newUsageCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Print the disk usage of the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withRepository(cmd, func(cfg *config.Config, repo *repository.Repository) error {
				n, err := repo.Usage(cmd.Context())
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", humanize.Bytes(n), cfg.Repo)
				return nil
			})
		},
	}
}
