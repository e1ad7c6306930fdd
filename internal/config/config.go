// Package config resolves the settings of the filesan command.
//
// Later sources override earlier ones: defaults, <repo>/config.yaml, the
// optional .env file, FILESAN_* environment variables, then command-line
// flags, which the caller applies with SetEscape and Mode.Set.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/tragoedia0722/filesan/pkg/filesan"
)

const (
	EnvRepo   = "FILESAN_REPO"
	EnvEscape = "FILESAN_ESCAPE"
	EnvMode   = "FILESAN_MODE"

	DefaultRepo = "~/.filesan"
	FileName    = "config.yaml"
)

// ErrInvalidEscape is returned for an escape setting that is not exactly one
// character.
var ErrInvalidEscape = errors.New("escape must be a single character")

type Config struct {
	Repo   string
	Escape rune
	Mode   filesan.Mode
}

// Options selects the optional inputs of Load.
type Options struct {
	// EnvFile is a .env file to read. Missing files are ignored.
	EnvFile string
	// Repo overrides FILESAN_REPO and the default, so that config.yaml is
	// read from the repository the command will use.
	Repo string
}

// fileConfig is the layout of config.yaml.
type fileConfig struct {
	Escape string `yaml:"escape"`
	Mode   string `yaml:"mode"`
}

func Default() *Config {
	return &Config{
		Repo:   DefaultRepo,
		Escape: filesan.DefaultEscaper.Escape,
		Mode:   filesan.DefaultEscaper.Mode,
	}
}

func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if _, err := os.Stat(opts.EnvFile); err == nil {
			if err = godotenv.Load(opts.EnvFile); err != nil {
				return nil, fmt.Errorf("load %s: %w", opts.EnvFile, err)
			}
		}
	}

	cfg := Default()
	if v := os.Getenv(EnvRepo); v != "" {
		cfg.Repo = v
	}
	if opts.Repo != "" {
		cfg.Repo = opts.Repo
	}

	repo, err := homedir.Expand(cfg.Repo)
	if err != nil {
		return nil, fmt.Errorf("expand repo path: %w", err)
	}
	cfg.Repo = filepath.Clean(repo)

	if err = cfg.loadFile(filepath.Join(cfg.Repo, FileName)); err != nil {
		return nil, err
	}

	if v, ok := os.LookupEnv(EnvEscape); ok {
		if err = cfg.SetEscape(v); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvEscape, err)
		}
	}
	if v, ok := os.LookupEnv(EnvMode); ok {
		if err = cfg.Mode.Set(v); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvMode, err)
		}
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var fc fileConfig
	if err = yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if fc.Escape != "" {
		if err = c.SetEscape(fc.Escape); err != nil {
			return fmt.Errorf("%s: escape: %w", path, err)
		}
	}
	if fc.Mode != "" {
		if err = c.Mode.Set(fc.Mode); err != nil {
			return fmt.Errorf("%s: mode: %w", path, err)
		}
	}

	return nil
}

// SetEscape sets the escape character from s, which must hold exactly one.
// Characters that no mode can use are refused here; the rest is checked by
// Validate once the mode is known.
func (c *Config) SetEscape(s string) error {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) || (r == utf8.RuneError && size == 1) {
		return fmt.Errorf("%w: %q", ErrInvalidEscape, s)
	}
	if err := filesan.ValidEscape(r, filesan.None); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEscape, err)
	}

	c.Escape = r
	return nil
}

// Save writes the escape and mode settings to <repo>/config.yaml.
func (c *Config) Save() error {
	b, err := yaml.Marshal(fileConfig{
		Escape: string(c.Escape),
		Mode:   c.Mode.String(),
	})
	if err != nil {
		return err
	}

	if err = os.MkdirAll(c.Repo, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.Repo, FileName), b, 0o644)
}

// Validate checks that the escape character is usable with the mode.
func (c *Config) Validate() error {
	if err := c.Escaper().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEscape, err)
	}
	return nil
}

func (c *Config) Escaper() filesan.Escaper {
	return filesan.Escaper{Escape: c.Escape, Mode: c.Mode}
}
