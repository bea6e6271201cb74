package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"housepulse/internal/config"
	"housepulse/internal/infrastructure"
)

// cli carries the state shared by all subcommands
type cli struct {
	configFile string
	envFile    string
	input      string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:          "housepulse",
		Short:        "Swiss house price pipeline and dashboard API",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "path to a YAML config file")
	flags.StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	flags.StringVar(&c.input, "input", "", "house price dataset (.csv, .tsv or .xlsx)")
	flags.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newRunCmd(c),
		newServeCmd(c),
		newVersionCmd(),
	)
	return root
}

// setup loads the dotenv file and configuration, then initializes logging
func (c *cli) setup() error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", c.envFile, err)
		}
	}

	var (
		cfg *config.Config
		err error
	)
	if c.configFile != "" {
		cfg, err = config.LoadFrom(c.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if c.input != "" {
		input, err := filepath.Abs(c.input)
		if err != nil {
			return fmt.Errorf("invalid input path: %w", err)
		}
		cfg.Pipeline.InputFile = input
	}
	if c.logLevel != "" {
		cfg.Logging.Level = strings.ToLower(c.logLevel)
	}
	c.cfg = cfg

	return nil
}

// initLogger validates the final configuration and initializes the logger.
// Subcommands call it after applying their own flag overrides.
func (c *cli) initLogger() error {
	if err := c.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(c.cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.logger = logger
	return nil
}
