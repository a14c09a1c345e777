// Command governor reconciles and drives optimistic governor proposals from
// the command line.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/osnap-tools/governor-client/pkg/commands"
	"github.com/osnap-tools/governor-client/pkg/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	lggr, err := newLogger()
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = lggr.Sync() }()

	root := &cobra.Command{
		Use:           "governor",
		Short:         "Optimistic governor proposal client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "governor.yaml", "Path to the YAML configuration file")
	root.PersistentFlags().String("batch", "", "Path to the transaction batch manifest (JSON)")
	root.PersistentFlags().String("explanation", "", "Free-text explanation attached to the proposal")

	cmds := commands.New(lggr)
	root.AddCommand(
		cmds.Status(),
		cmds.ApproveBond(),
		cmds.Propose(),
		cmds.Execute(),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		lggr.Errorw("Command failed", "err", err)
		os.Exit(1)
	}
}

func newLogger() (logger.Logger, error) {
	lvl := zapcore.InfoLevel
	if raw := os.Getenv("GOVERNOR_LOG_LEVEL"); raw != "" {
		if parsed, err := zapcore.ParseLevel(raw); err == nil {
			lvl = parsed
		}
	}

	return logger.NewWith(func(cfg *zap.Config) {
		cfg.Level.SetLevel(lvl)
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	})
}
