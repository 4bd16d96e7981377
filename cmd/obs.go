package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/peakobs/nightq/config"
	"github.com/peakobs/nightq/core/model"
	"github.com/peakobs/nightq/pkg/queuefile"
	"github.com/peakobs/nightq/qstore"
)

var (
	obsStatus  string
	obsProgram string
	execMin    float64
	execNight  string
)

var obsCmd = &cobra.Command{
	Use:   "obs",
	Short: "Manage the observing block queue",
}

var obsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List queued observing blocks",
	RunE:  runObsLs,
}

var obsLoadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Load programs and OBs from a YAML queue file",
	Args:  cobra.ExactArgs(1),
	RunE:  runObsLoad,
}

var obsExecCmd = &cobra.Command{
	Use:   "exec <ob-id>",
	Short: "Mark an OB executed and charge its program",
	Args:  cobra.ExactArgs(1),
	RunE:  runObsExec,
}

var obsCancelCmd = &cobra.Command{
	Use:   "cancel <ob-id>",
	Short: "Cancel an OB",
	Args:  cobra.ExactArgs(1),
	RunE:  runObsCancel,
}

func init() {
	obsLsCmd.Flags().StringVar(&obsStatus, "status", "", "filter by status (pending, scheduled, executed, cancelled)")
	obsLsCmd.Flags().StringVar(&obsProgram, "program", "", "filter by program id")
	obsExecCmd.Flags().Float64Var(&execMin, "minutes", 0, "minutes to charge, defaults to the OB total time")
	obsExecCmd.Flags().StringVar(&execNight, "night", "", "night label, defaults to the current night")
	obsCmd.AddCommand(obsLsCmd)
	obsCmd.AddCommand(obsLoadCmd)
	obsCmd.AddCommand(obsExecCmd)
	obsCmd.AddCommand(obsCancelCmd)
	rootCmd.AddCommand(obsCmd)
}

func runObsLs(cmd *cobra.Command, args []string) error {
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

	filter := qstore.Filter{Program: obsProgram}
	if obsStatus != "" {
		status, err := queuefile.ParseStatus(obsStatus)
		if err != nil {
			return err
		}
		filter.Status = &status
	}
	adaptor, err := client.OpenAdaptor(ctx)
	if err != nil {
		return fmt.Errorf("open adaptor: %w", err)
	}
	obs, err := adaptor.ListOBs(ctx, filter)
	if err != nil {
		return err
	}
	for _, ob := range obs {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%.0fm\n",
			ob.ID, ob.Program, ob.Target.Name, ob.Status, ob.TotalTime.Minutes())
	}
	return nil
}

func runObsLoad(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	qf, err := queuefile.Load(args[0])
	if err != nil {
		return fmt.Errorf("load %s: %w", args[0], err)
	}
	programs, obs, err := qf.Models()
	if err != nil {
		return err
	}

	client, cleanup, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	adaptor, err := client.OpenAdaptor(ctx)
	if err != nil {
		return fmt.Errorf("open adaptor: %w", err)
	}

	var loaded, skipped int
	// Reads inside the stage closure pick up fresh revisions on retry.
	stage := func(ctx context.Context, a *qstore.Adaptor) error {
		loaded, skipped = 0, 0
		for _, p := range programs {
			if _, err := a.GetProgram(ctx, p.ID); err != nil && !errors.Is(err, qstore.ErrNotFound) {
				return err
			}
			if err := a.PutProgram(p); err != nil {
				return err
			}
		}
		for _, ob := range obs {
			stored, err := a.GetOB(ctx, ob.ID)
			switch {
			case errors.Is(err, qstore.ErrNotFound):
			case err != nil:
				return err
			case stored.Status != model.StatusPending:
				// Never clobber an OB the scheduler or the operator has
				// already acted on.
				skipped++
				continue
			}
			if err := a.PutOB(ob); err != nil {
				return err
			}
			loaded++
		}
		return nil
	}
	if err := stage(ctx, adaptor); err != nil {
		return err
	}
	if _, err := qstore.CommitRetry(ctx, adaptor, stage); err != nil {
		return fmt.Errorf("commit queue file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "loaded %d programs, %d obs (%d skipped)\n",
		len(programs), loaded, skipped)
	return nil
}

func runObsExec(cmd *cobra.Command, args []string) error {
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

	id := args[0]
	var executed model.OB
	transition := func(ctx context.Context, a *qstore.Adaptor) error {
		ob, err := a.GetOB(ctx, id)
		if err != nil {
			return err
		}
		if !ob.Status.CanTransition(model.StatusExecuted) {
			return fmt.Errorf("ob %s: cannot execute from status %s", id, ob.Status)
		}
		ob.Status = model.StatusExecuted
		executed = ob
		return a.PutOB(ob)
	}
	adaptor, err := client.OpenAdaptor(ctx)
	if err != nil {
		return fmt.Errorf("open adaptor: %w", err)
	}
	if err := transition(ctx, adaptor); err != nil {
		return err
	}
	if _, err := qstore.CommitRetry(ctx, adaptor, transition); err != nil {
		return fmt.Errorf("commit execution: %w", err)
	}

	minutes := execMin
	if minutes <= 0 {
		minutes = executed.TotalTime.Minutes()
	}
	night := execNight
	if night == "" {
		night = nightLabel(cfg, time.Now())
	}
	if err := client.RecordExecution(ctx, qstore.ExecutionRecord{
		OBID:    executed.ID,
		Program: executed.Program,
		Night:   night,
		At:      time.Now().UTC(),
		Minutes: minutes,
	}); err != nil {
		return fmt.Errorf("record execution: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s executed, %s charged %.0fm for night %s\n",
		executed.ID, executed.Program, minutes, night)
	return nil
}

func runObsCancel(cmd *cobra.Command, args []string) error {
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

	id := args[0]
	transition := func(ctx context.Context, a *qstore.Adaptor) error {
		ob, err := a.GetOB(ctx, id)
		if err != nil {
			return err
		}
		if !ob.Status.CanTransition(model.StatusCancelled) {
			return fmt.Errorf("ob %s: cannot cancel from status %s", id, ob.Status)
		}
		ob.Status = model.StatusCancelled
		return a.PutOB(ob)
	}
	adaptor, err := client.OpenAdaptor(ctx)
	if err != nil {
		return fmt.Errorf("open adaptor: %w", err)
	}
	if err := transition(ctx, adaptor); err != nil {
		return err
	}
	if _, err := qstore.CommitRetry(ctx, adaptor, transition); err != nil {
		return fmt.Errorf("commit cancellation: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s cancelled\n", id)
	return nil
}

// nightLabel names the night a moment belongs to, using the configured
// site timezone and night window.
func nightLabel(cfg *config.Config, now time.Time) string {
	start, _ := cfg.Pass.NightWindow(now.In(cfg.Site.Location()))
	return start.Format("2006-01-02")
}
