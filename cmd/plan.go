package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/peakobs/nightq/app/plugins"
	"github.com/peakobs/nightq/config"
	"github.com/peakobs/nightq/core/constraint"
	"github.com/peakobs/nightq/core/model"
	"github.com/peakobs/nightq/core/sched"
	"github.com/peakobs/nightq/core/weights"
	"github.com/peakobs/nightq/infra/logger"
	"github.com/peakobs/nightq/jobs/usedtime"
	"github.com/peakobs/nightq/pkg/export"
	"github.com/peakobs/nightq/qstore"
)

var (
	planAt     string
	planOut    string
	planFormat string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Run one read-only scheduling pass and print the report",
	Long: `Plan builds a schedule for the upcoming night from the current queue
without changing any OB status. Use it to preview what the next service
pass would commit.`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planAt, "at", "", "reference time (RFC3339), defaults to now")
	planCmd.Flags().StringVarP(&planOut, "out", "o", "", "write the slot table to a file")
	planCmd.Flags().StringVar(&planFormat, "format", "csv", "slot table format: csv or json")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	now := time.Now()
	if planAt != "" {
		now, err = time.Parse(time.RFC3339, planAt)
		if err != nil {
			return fmt.Errorf("parse --at: %w", err)
		}
	}

	client, cleanup, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	wstore := weights.NewStore(nil)
	table, version, err := client.LoadWeights(ctx)
	if err != nil {
		return fmt.Errorf("load weights: %w", err)
	}
	wstore.Load(table, version)

	oracle, err := plugins.NewOracle(cfg.Ephemeris.Type, cfg.Ephemeris.Conf)
	if err != nil {
		return fmt.Errorf("ephemeris oracle: %w", err)
	}
	engine := constraint.NewEngine(logger.New("constraint"), constraint.Defaults(oracle)...)
	planner := sched.NewPlanner(cfg.Scheduler, engine, wstore, nil, logger.New("planner"))

	nightStart, nightLen := cfg.Pass.NightWindow(now.In(cfg.Site.Location()))
	slots := model.CarveNight(nightStart, nightLen, cfg.Pass.SlotLen(), cfg.Pass.Filters)

	adaptor, err := client.OpenAdaptor(ctx)
	if err != nil {
		return fmt.Errorf("open adaptor: %w", err)
	}
	pending := model.StatusPending
	obs, err := adaptor.ListOBs(ctx, qstore.Filter{Status: &pending})
	if err != nil {
		return fmt.Errorf("list obs: %w", err)
	}
	progList, err := adaptor.ListPrograms(ctx)
	if err != nil {
		return fmt.Errorf("list programs: %w", err)
	}
	programs := make(map[string]model.Program, len(progList))
	for _, p := range progList {
		programs[p.ID] = p
	}
	used, err := usedtime.Sum(ctx, client)
	if err != nil {
		return fmt.Errorf("sum used time: %w", err)
	}

	schedule, err := planner.BuildSchedule(ctx, sched.Request{
		Night:      nightStart.Format("2006-01-02"),
		Candidates: obs,
		Slots:      slots,
		Programs:   programs,
		Used:       used,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), schedule.Report)

	if planOut == "" {
		return nil
	}
	f, err := os.Create(planOut)
	if err != nil {
		return err
	}
	switch planFormat {
	case "csv":
		err = export.WriteCSV(f, schedule.Export())
	case "json":
		err = export.WriteJSON(f, schedule.Export())
	default:
		err = fmt.Errorf("unknown format %q", planFormat)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
