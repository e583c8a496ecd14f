// Command quoteform serves the hospital accreditation quote request form
// and exports saved answers.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/accreditkit/quoteform/internal/config"
	"github.com/accreditkit/quoteform/pkg/logging"
)

var version = "0.1.0"

// Global flags
var (
	configPath string
	devMode    bool
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "quoteform",
	Short: "Hospital accreditation quote request form",
	Long: `quoteform serves a six step quote request form for hospital
accreditation and certification services, and exports collected answers
as CSV or PDF.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "use development defaults (insecure, verbose)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console or json")

	rootCmd.AddCommand(serveCmd, exportCmd, versionCmd)
}

// loadConfig resolves the configuration: defaults or development
// defaults, then the config file, then flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if devMode {
		cfg = config.Development()
	}
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = logFormat
	}
	if flags.Changed("addr") {
		cfg.Address, _ = flags.GetString("addr")
	}
	return cfg, cfg.Validate()
}

// newLogger builds the process logger and installs it as the default.
func newLogger(cmd *cobra.Command, cfg config.Config) logging.Logger {
	opts := []logging.LoggerOption{
		logging.WithOutput(cmd.ErrOrStderr()),
		logging.WithLevelName(cfg.LogLevel),
	}
	if cfg.LogFormat == "json" {
		opts = append(opts, logging.WithJSON())
	}
	l := logging.New(opts...)
	logging.SetDefault(l)
	return l
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
