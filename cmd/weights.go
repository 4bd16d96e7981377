package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/peakobs/nightq/config"
	"github.com/peakobs/nightq/core/weights"
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Inspect and edit the persisted weight table",
}

var weightsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the stored weights",
	RunE:  runWeightsLs,
}

var weightsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one weight and persist the table",
	Args:  cobra.ExactArgs(2),
	RunE:  runWeightsSet,
}

func init() {
	weightsCmd.AddCommand(weightsLsCmd)
	weightsCmd.AddCommand(weightsSetCmd)
	rootCmd.AddCommand(weightsCmd)
}

func runWeightsLs(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	client, cleanup, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	table, version, err := client.LoadWeights(ctx)
	if err != nil {
		return fmt.Errorf("load weights: %w", err)
	}
	wstore := weights.NewStore(nil)
	wstore.Load(table, version)
	fmt.Fprintf(cmd.OutOrStdout(), "version %d\n", version)
	for _, key := range wstore.Keys() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%g\n", key, wstore.Get(key))
	}
	return nil
}

func runWeightsSet(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	client, cleanup, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	table, version, err := client.LoadWeights(ctx)
	if err != nil {
		return fmt.Errorf("load weights: %w", err)
	}
	// Route the edit through the table so it gets the same validation the
	// service applies.
	wstore := weights.NewStore(nil)
	wstore.Load(table, version)
	value, err := wstore.Set(args[0], args[1])
	if err != nil {
		return err
	}
	next, nextVersion := wstore.Snapshot()
	if err := client.SaveWeights(ctx, next, nextVersion); err != nil {
		return fmt.Errorf("save weights: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %g (version %d)\n", args[0], value, nextVersion)
	return nil
}
