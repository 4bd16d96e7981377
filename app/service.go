package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	apipasses "github.com/peakobs/nightq/api/passes"
	apischedule "github.com/peakobs/nightq/api/schedule"
	apiweights "github.com/peakobs/nightq/api/weights"
	"github.com/peakobs/nightq/app/plugins"
	"github.com/peakobs/nightq/config"
	"github.com/peakobs/nightq/core/constraint"
	"github.com/peakobs/nightq/core/events"
	coremetrics "github.com/peakobs/nightq/core/metrics"
	"github.com/peakobs/nightq/core/model"
	"github.com/peakobs/nightq/core/monitoring"
	"github.com/peakobs/nightq/core/notify"
	"github.com/peakobs/nightq/core/sched"
	"github.com/peakobs/nightq/core/sched/passlog"
	"github.com/peakobs/nightq/core/schedstate"
	"github.com/peakobs/nightq/core/weights"
	"github.com/peakobs/nightq/infra/logger"
	"github.com/peakobs/nightq/infra/metrics"
	inframon "github.com/peakobs/nightq/infra/monitoring"
	"github.com/peakobs/nightq/infra/mqtt"
	"github.com/peakobs/nightq/internal/eventbus"
	"github.com/peakobs/nightq/jobs/usedtime"
	"github.com/peakobs/nightq/qstore"
)

const startupTimeout = 10 * time.Second

// Service wires the queue store, weight table, planner and outward
// surfaces together and drives the scheduling passes.
type Service struct {
	cfg        *config.Config
	store      *qstore.Client
	embedded   *qstore.Server
	weights    *weights.Store
	planner    *sched.Planner
	notifier   notify.Notifier
	passStore  passlog.Store
	state      *schedstate.MemoryStore
	sink       coremetrics.MetricsSink
	rejections *eventbus.TypedBus[events.OBRejected]
	log        logger.Logger
}

// New creates a Service from the configuration. It connects to the queue
// store (starting the embedded server first when configured), loads the
// persisted weight table and resolves the configured plugins.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	monitor, err := inframon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	monitoring.Init(monitor)

	var embedded *qstore.Server
	addr := cfg.Store.Addr
	if cfg.Store.Embedded {
		srv, err := qstore.NewServer(cfg.Store.Addr, cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("embedded store: %w", err)
		}
		embedded = srv
		addr = srv.Addr()
	}
	client, err := qstore.Dial(addr)
	if err != nil {
		if embedded != nil {
			_ = embedded.Close()
		}
		return nil, fmt.Errorf("queue store: %w", err)
	}

	cleanup := func() {
		_ = client.Close()
		if embedded != nil {
			_ = embedded.Close()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	wstore := weights.NewStore(logger.New("weights"))
	table, version, err := client.LoadWeights(ctx)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("load weights: %w", err)
	}
	wstore.Load(table, version)

	oracle, err := plugins.NewOracle(cfg.Ephemeris.Type, cfg.Ephemeris.Conf)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("ephemeris oracle: %w", err)
	}
	engine := constraint.NewEngine(logger.New("constraint"), constraint.Defaults(oracle)...)
	rejections := eventbus.NewTyped[events.OBRejected]()
	planner := sched.NewPlanner(cfg.Scheduler, engine, wstore, rejections, logger.New("planner"))

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.Notify.Enabled {
		n, err := mqtt.NewPahoNotifier(cfg.MQTT)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("mqtt notifier: %w", err)
		}
		notifier = n
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	passStore, err := plugins.NewLogStore(cfg.PassLog)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("pass log: %w", err)
	}

	return &Service{
		cfg:        cfg,
		store:      client,
		embedded:   embedded,
		weights:    wstore,
		planner:    planner,
		notifier:   notifier,
		passStore:  passStore,
		state:      schedstate.NewMemoryStore(),
		sink:       sink,
		rejections: rejections,
		log:        logg,
	}, nil
}

// Weights exposes the weight table, e.g. for API wiring in tests.
func (s *Service) Weights() *weights.Store { return s.weights }

// State exposes the published schedule state.
func (s *Service) State() *schedstate.MemoryStore { return s.state }

// Store exposes the queue store client, e.g. for seeding in tests.
func (s *Service) Store() *qstore.Client { return s.store }

// Run starts the background surfaces and drives scheduling passes until
// the context is cancelled. With a zero pass interval a single pass runs
// and the service then waits for shutdown.
func (s *Service) Run(ctx context.Context) error {
	go s.watchWeights(ctx)
	go s.watchRejections(ctx)
	if port := s.cfg.Metrics.PrometheusPort; port > 0 {
		go func() {
			if err := metrics.StartPromServer(ctx, fmt.Sprintf(":%d", port)); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.cfg.API.Enabled {
		go func() {
			if err := s.serveAPI(ctx); err != nil {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}

	interval := s.cfg.Pass.Interval()
	for {
		if err := s.RunPass(ctx, time.Now()); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Errorf("scheduling pass: %v", err)
			monitoring.CaptureException(err, map[string]string{"component": "service"})
		}
		if interval <= 0 {
			<-ctx.Done()
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

// RunPass executes one full scheduling pass for the night that now falls
// in: carve slots, plan, commit pending OBs to scheduled, record and
// announce the outcome.
func (s *Service) RunPass(ctx context.Context, now time.Time) error {
	started := time.Now()
	nightStart, nightLen := s.cfg.Pass.NightWindow(now.In(s.cfg.Site.Location()))
	night := nightStart.Format("2006-01-02")
	slots := model.CarveNight(nightStart, nightLen, s.cfg.Pass.SlotLen(), s.cfg.Pass.Filters)

	adaptor, err := s.store.OpenAdaptor(ctx)
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
	used, err := usedtime.Sum(ctx, s.store)
	if err != nil {
		return fmt.Errorf("sum used time: %w", err)
	}

	schedule, err := s.planner.BuildSchedule(ctx, sched.Request{
		Night:      night,
		Candidates: obs,
		Slots:      slots,
		Programs:   programs,
		Used:       used,
	})
	if err != nil {
		adaptor.Abort()
		s.state.RecordPass(night, schedstate.PassSummary{
			Strategy:  s.cfg.Scheduler.Strategy,
			Timestamp: time.Now(),
		})
		return fmt.Errorf("build schedule: %w", err)
	}

	stage := func(ctx context.Context, a *qstore.Adaptor) error {
		for _, asg := range schedule.Slots {
			if asg.OB == nil {
				continue
			}
			ob, err := a.GetOB(ctx, asg.OB.ID)
			if err != nil {
				if errors.Is(err, qstore.ErrNotFound) {
					continue // deleted between the read and the commit
				}
				return err
			}
			if ob.Status != model.StatusPending {
				continue // another actor got there first
			}
			ob.Status = model.StatusScheduled
			if err := a.PutOB(ob); err != nil {
				return err
			}
		}
		return nil
	}
	if err := stage(ctx, adaptor); err != nil {
		adaptor.Abort()
		return fmt.Errorf("stage schedule: %w", err)
	}
	attempts, commitErr := qstore.CommitRetry(ctx, adaptor, stage)
	committed := commitErr == nil

	rows := schedule.Export()
	stamp := time.Now()
	summary := schedstate.PassSummary{
		Strategy:       s.cfg.Scheduler.Strategy,
		WeightsVersion: schedule.WeightsVersion,
		SlotsTotal:     len(schedule.Slots),
		SlotsAssigned:  schedule.Assigned(),
		Committed:      committed,
		Timestamp:      stamp,
	}
	rec := passlog.PassRecord{
		Timestamp:      stamp,
		Night:          night,
		Strategy:       s.cfg.Scheduler.Strategy,
		WeightsVersion: schedule.WeightsVersion,
		SlotsTotal:     len(schedule.Slots),
		SlotsAssigned:  schedule.Assigned(),
		WasteMinutes:   schedule.WasteMinutes(),
		Committed:      committed,
		CommitAttempts: attempts,
		Assignments:    rows,
		Report:         schedule.Report,
	}
	if err := s.passStore.Append(ctx, rec); err != nil {
		s.log.Errorf("append pass log: %v", err)
	}
	if committed {
		s.state.Set(schedstate.NightState{Night: night, Rows: rows, UpdatedAt: stamp, LastPass: summary})
	} else {
		s.state.RecordPass(night, summary)
	}

	if err := s.sink.RecordPass(coremetrics.PassResult{
		Night:          night,
		Strategy:       s.cfg.Scheduler.Strategy,
		WeightsVersion: schedule.WeightsVersion,
		SlotsTotal:     len(schedule.Slots),
		SlotsAssigned:  schedule.Assigned(),
		OBsConsidered:  len(obs),
		OBsScheduled:   schedule.Assigned(),
		WasteMinutes:   schedule.WasteMinutes(),
		Elapsed:        time.Since(started),
		Time:           stamp,
	}); err != nil {
		s.log.Warnf("record pass metrics: %v", err)
	}
	if cr, ok := s.sink.(coremetrics.CommitRecorder); ok {
		_ = cr.RecordCommit(coremetrics.CommitEvent{
			Night:    night,
			OBs:      schedule.Assigned(),
			Attempts: attempts,
			Conflict: errors.Is(commitErr, qstore.ErrConflict),
			Time:     stamp,
		})
	}
	if commitErr != nil {
		return fmt.Errorf("commit schedule: %w", commitErr)
	}

	ids := scheduledIDs(schedule)
	cmdID, err := s.notifier.ScheduleUpdated(night, ids)
	if err != nil {
		s.log.Errorf("announce schedule: %v", err)
		return nil // the plan is committed; the announcement can be retried next pass
	}
	if cmdID != "" {
		if acked, err := s.notifier.WaitForAck(cmdID, s.cfg.Notify.AckTimeout()); err != nil || !acked {
			s.log.Warnf("schedule update for %s not acknowledged: %v", night, err)
		}
	}
	s.log.Infof("pass committed for %s: %d/%d slots in %d attempt(s)",
		night, schedule.Assigned(), len(schedule.Slots), attempts)
	return nil
}

func scheduledIDs(schedule *model.Schedule) []string {
	ids := make([]string, 0, schedule.Assigned())
	for _, asg := range schedule.Slots {
		if asg.OB != nil {
			ids = append(ids, asg.OB.ID)
		}
	}
	return ids
}

// watchWeights mirrors accepted edits to the metrics sink and persists
// the table so a restart resumes from the last accepted edit.
func (s *Service) watchWeights(ctx context.Context) {
	ch := s.weights.Subscribe()
	defer s.weights.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if wr, ok := s.sink.(coremetrics.WeightRecorder); ok {
				_ = wr.RecordWeightUpdate(coremetrics.WeightEvent{
					Key: ev.Key, Value: ev.Value, Version: ev.Version, Time: time.Now(),
				})
			}
			table, version := s.weights.Snapshot()
			cctx, cancel := context.WithTimeout(ctx, startupTimeout)
			if err := s.store.SaveWeights(cctx, table, version); err != nil {
				s.log.Errorf("persist weights: %v", err)
			}
			cancel()
		}
	}
}

// watchRejections forwards planner rejections to the metrics sink.
func (s *Service) watchRejections(ctx context.Context) {
	rr, ok := s.sink.(coremetrics.RejectionRecorder)
	if !ok {
		return
	}
	ch := s.rejections.Subscribe()
	defer s.rejections.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			_ = rr.RecordRejections([]coremetrics.RejectionEvent{{
				OB: ev.OB, Slot: ev.Slot, Constraint: ev.Constraint, Reason: ev.Reason, Time: time.Now(),
			}})
		}
	}
}

// serveAPI exposes the operator HTTP surface until the context ends.
func (s *Service) serveAPI(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/api/weights", apiweights.NewEditHandler(s.weights, s.cfg.API.Token))
	mux.Handle("/api/weights/table", apiweights.NewTableHandler(s.weights))
	mux.Handle("/api/schedule", apischedule.NewExportHandler(s.state))
	mux.Handle("/api/passes", apipasses.NewHandler(s.passStore, s.cfg.API.Token))
	srv := &http.Server{Addr: s.cfg.API.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
		cancel()
	}()
	s.log.Infof("operator api listening on %s", s.cfg.API.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close releases every resource held by the service.
func (s *Service) Close() error {
	s.weights.Close()
	s.rejections.Close()
	if d, ok := s.notifier.(interface{ Disconnect() }); ok {
		d.Disconnect()
	}
	var err error
	if s.passStore != nil {
		err = s.passStore.Close()
	}
	if cerr := s.store.Close(); err == nil {
		err = cerr
	}
	if s.embedded != nil {
		if eerr := s.embedded.Close(); err == nil {
			err = eerr
		}
	}
	monitoring.Flush(2 * time.Second)
	return err
}
