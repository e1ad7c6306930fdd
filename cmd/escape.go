package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEscapeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "escape NAME...",
		Short: "Print the escaped form of each name",
		Example: `  filesan escape --mode windows 'CON.txt' 'a:b'
  _CON.txt
  a_3Ab`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}

			esc := cfg.Escaper()
			for _, name := range args {
				if _, err = fmt.Fprintln(cmd.OutOrStdout(), esc.EscapeName(name)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
