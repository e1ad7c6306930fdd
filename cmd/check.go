package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tragoedia0722/filesan/internal/config"
	"github.com/tragoedia0722/filesan/pkg/repository"
	"github.com/tragoedia0722/filesan/pkg/validator"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var blocks []string

	cmd := &cobra.Command{
		Use:   "check CID",
		Short: "Report names that need escaping and, with --blocks, missing blocks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRepository(cmd, func(cfg *config.Config, repo *repository.Repository) error {
				v := validator.NewValidator(repo.BlockStore())
				out := cmd.OutOrStdout()

				report, err := v.CheckNames(cmd.Context(), args[0], cfg.Escaper())
				if err != nil {
					return err
				}
				for _, issue := range report.Issues {
					fmt.Fprintf(out, "%s -> %s\n", issue.Path, issue.Escaped)
				}
				if report.Portable() {
					fmt.Fprintf(out, "%d entries, all portable for %s\n", report.Entries, cfg.Mode)
				} else {
					fmt.Fprintf(out, "%d entries, %d need escaping for %s\n", report.Entries, len(report.Issues), cfg.Mode)
				}

				if len(blocks) == 0 {
					return nil
				}

				res, err := v.Validate(cmd.Context(), args[0], blocks)
				if err != nil {
					return err
				}
				for _, c := range res.MissingBlocks {
					fmt.Fprintf(out, "missing %s\n", c)
				}
				for _, c := range res.InvalidBlocks {
					fmt.Fprintf(out, "invalid %s\n", c)
				}
				for _, d := range res.ErrorDetails {
					fmt.Fprintf(out, "error %s\n", d)
				}
				fmt.Fprintf(out, "complete: %t, reachable %s\n", res.IsComplete, humanize.Bytes(uint64(res.ReachableSize)))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&blocks, "blocks", nil, "block CIDs expected to be present")
	return cmd
}
