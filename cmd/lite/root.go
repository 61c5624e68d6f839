package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"lite-hq/lite/pkg/cli"
)

// defaultConfigFile is read when present; lite runs on defaults and
// environment variables without it.
const defaultConfigFile = "lite.yaml"

var (
	// Global flags
	cfgFile      string
	envFile      string
	outputFormat string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "lite",
	Short: "Lite - multi-vendor LLM chat backend",
	Long: `Lite is a chat backend that talks to several LLM vendors through one
provider abstraction.

It provides:
  - OpenAI, Anthropic, OpenRouter and OpenAI-compatible providers
  - Streaming chat over server-sent events
  - Chat history, provider settings and model preferences in SQLite
  - Prometheus metrics and OpenTelemetry tracing

Configuration is read from lite.yaml (or --config) and LITE_* environment
variables. A .env file in the working directory is loaded first.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFile(envFile, cmd.Flags().Changed("env-file")); err != nil {
			return err
		}
		if _, err := cli.ParseFormat(outputFormat); err != nil {
			return err
		}
		return nil
	},
}

// Execute runs the root command and exits with a code from cli.ExitCode.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigFile, "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the configuration")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, json, csv")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing file is an error only when requested
// explicitly.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return cli.NewConfigError("env-file", err)
	}
	return nil
}

// configPath returns the config file to load, or "" when the default file
// does not exist.
func configPath(cmd *cobra.Command) string {
	if cfgFile == defaultConfigFile && !cmd.Flags().Changed("config") {
		if _, err := os.Stat(cfgFile); errors.Is(err, fs.ErrNotExist) {
			return ""
		}
	}
	return cfgFile
}

func formatter() cli.Formatter {
	f, _ := cli.ParseFormat(outputFormat)
	return cli.NewFormatter(f)
}
