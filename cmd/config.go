package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved settings",
		Long: `Config prints the settings after applying config.yaml, the .env file,
the environment and flags. With --save the escape character and mode are
written to config.yaml in the repository.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "repo: %s\n", cfg.Repo)
			fmt.Fprintf(out, "escape: %c\n", cfg.Escape)
			fmt.Fprintf(out, "mode: %s\n", cfg.Mode)

			if save {
				return cfg.Save()
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "write escape and mode to config.yaml")
	return cmd
}
