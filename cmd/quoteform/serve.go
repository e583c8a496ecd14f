package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/accreditkit/quoteform/internal/server"
	"github.com/accreditkit/quoteform/pkg/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the form server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	srv, err := server.New(cfg, server.WithLogger(logger), server.WithVersion(version))
	if err != nil {
		return err
	}
	defer srv.Close()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting quoteform",
		logging.String("version", version),
		logging.String("addr", cfg.Address),
		logging.Bool("debug", cfg.Debug))
	return srv.Run(ctx)
}

