// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-brief CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/phuslu/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-brief/internal/logging"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is built from --log-level before any subcommand runs.
var logger = logging.Discard()

// rootCmd is the base command for the research-brief CLI.
var rootCmd = &cobra.Command{
	Use:   "research-brief",
	Short: "Summarize a research paper into a short brief",
	Long: `research-brief reads one PDF, splits its text into overlapping chunks,
embeds and indexes them, retrieves the chunks most relevant to a fixed
summary question, and asks a language model for a brief covering the
research objective, methodology, key findings, and conclusions.

Embeddings and generation run against a local Ollama service by default.
Model names starting with "claude-" or "gemini-" use the matching remote
provider; API keys come from the environment or the secrets directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadDotenv(".env"); err != nil {
			return err
		}
		logger = newLogger(viper.GetString("log_level"))
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug().Str("file", used).Msg("using config file")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./research-brief.yaml or ~/.config/research-brief/research-brief.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets", "directory holding API key files")
	rootCmd.PersistentFlags().String("archive-dir", ".research-brief", "directory holding the brief archive")

	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("secrets_dir", rootCmd.PersistentFlags().Lookup("secrets-dir"))
	_ = viper.BindPFlag("archive_dir", rootCmd.PersistentFlags().Lookup("archive-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("research-brief")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "research-brief"))
		}
	}

	configure(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "Reading config file:", err)
		}
	}
}

// loadDotenv loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func loadDotenv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

func newLogger(level string) *log.Logger {
	return logging.New(os.Stderr, level, log.IsTerminal(os.Stderr.Fd()))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
