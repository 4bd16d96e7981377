package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/peakobs/nightq/app"
	"github.com/peakobs/nightq/config"
	"github.com/peakobs/nightq/infra/logger"
)

var (
	cfgPath string

	// version is stamped by the release build.
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "nightq",
	Short: "Telescope night-queue scheduling service",
	Long: `nightq plans a shared telescope's night: it carves the night into
slots, fills them with pending observing blocks under the configured
constraints and weights, and publishes the result to the operator surfaces.

Without a subcommand it runs the scheduling service.`,
	Version:      version,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func run(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}
