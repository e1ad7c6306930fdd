// Package cmd contains the cobra commands of the filesan CLI.
package cmd

import (
	"context"
	"fmt"

	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/cobra"

	"github.com/tragoedia0722/filesan/internal/config"
	"github.com/tragoedia0722/filesan/pkg/filesan"
	"github.com/tragoedia0722/filesan/pkg/repository"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	repo    string
	envFile string
	escape  string
	mode    filesan.Mode
	verbose bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{mode: filesan.System}

	root := &cobra.Command{
		Use:   "filesan",
		Short: "filesan stores directory trees and restores them with portable file names",
		Long: `filesan imports files into a content-addressed repository and extracts
them again on any system. Names that the target system cannot hold are
escaped reversibly: a disallowed character becomes the escape character
followed by its hex code point, and reserved names get a prefix.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.verbose {
				return logging.SetLogLevelRegex("filesan/.*", "debug")
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.repo, "repo", "", "repository path (default $"+config.EnvRepo+" or "+config.DefaultRepo+")")
	pf.StringVar(&opts.envFile, "env-file", ".env", "optional .env file with FILESAN_* settings")
	pf.StringVar(&opts.escape, "escape", "_", "escape character")
	pf.Var(&opts.mode, "mode", "target systems: comma separated list of "+modeNames)
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newEscapeCmd(opts),
		newAddCmd(opts),
		newExtractCmd(opts),
		newCheckCmd(opts),
		newUsageCmd(opts),
		newConfigCmd(opts),
	)

	return root
}

const modeNames = "none, unix, windows, mac, windowsend, all, system"

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// config resolves settings and applies the flags the user set explicitly.
func (o *rootOptions) config(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(config.Options{EnvFile: o.envFile, Repo: o.repo})
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("escape") {
		if err = cfg.SetEscape(o.escape); err != nil {
			return nil, fmt.Errorf("--escape: %w", err)
		}
	}
	if flags.Changed("mode") {
		cfg.Mode = o.mode
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withRepository opens the configured repository for the duration of fn.
func (o *rootOptions) withRepository(cmd *cobra.Command, fn func(*config.Config, *repository.Repository) error) (err error) {
	cfg, err := o.config(cmd)
	if err != nil {
		return err
	}

	repo, err := repository.NewRepository(cfg.Repo)
	if err != nil {
		return fmt.Errorf("open repository %s: %w", cfg.Repo, err)
	}
	defer func() {
		if cerr := repo.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return fn(cfg, repo)
}
