package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/peakobs/nightq/config"
	"github.com/peakobs/nightq/infra/logger"
	"github.com/peakobs/nightq/qstore"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Run the queue store server standalone",
	RunE:  runStore,
}

func init() {
	rootCmd.AddCommand(storeCmd)
}

func runStore(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	srv, err := qstore.NewServer(cfg.Store.Addr, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("queue store: %w", err)
	}
	<-ctx.Done()
	if err := srv.Close(); err != nil {
		logger.New("main").Errorf("store close: %v", err)
	}
	return nil
}

// openStore connects to the queue store named in the configuration. With
// an embedded store the database is opened directly through a private
// server on a loopback port, so the one-shot commands work without a
// running service.
func openStore(cfg *config.Config) (*qstore.Client, func(), error) {
	if cfg.Store.Embedded {
		srv, err := qstore.NewServer("127.0.0.1:0", cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open queue store: %w", err)
		}
		client, err := qstore.Dial(srv.Addr())
		if err != nil {
			_ = srv.Close()
			return nil, nil, fmt.Errorf("queue store: %w", err)
		}
		return client, func() {
			_ = client.Close()
			_ = srv.Close()
		}, nil
	}
	client, err := qstore.Dial(cfg.Store.Addr)
	if err != nil {
		return nil, nil, fmt.Errorf("queue store: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}
