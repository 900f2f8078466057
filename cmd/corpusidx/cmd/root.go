// Package cmd provides the CLI commands for corpusidx.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	internal "github.com/ZanzyTHEbar/corpusidx/corpusidx"
	"github.com/ZanzyTHEbar/corpusidx/corpusidx/config"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version is overridden at link time.
var Version = "dev"

var (
	configPath string
	envFile    string
	debugMode  bool

	logger = internal.GetLogger()
)

// NewRootCmd creates the root command for the corpusidx CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpusidx",
		Short: "Length-sorted index over speech transcript corpora",
		Long: `corpusidx reads per-utterance transcript files, tokenizes them and
builds a length-sorted, bucketable index of (audio path, token sequence)
pairs for batched sequence training.`,
		Version:           Version,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
	cmd.SetVersionTemplate("corpusidx version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: search ., .., then "+internal.DefaultGlobalConfig+")")
	cmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Dotenv file loaded before reading configuration")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.AddCommand(newBuildCmd())
	cmd.AddCommand(newInspectCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	root := NewRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		logger.Error().Err(err).Msg("command failed")
		return err
	}
	return nil
}

func setup(_ *cobra.Command, _ []string) error {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debugMode {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
