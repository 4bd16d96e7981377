package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/peakobs/nightq/core/metrics"
	"github.com/peakobs/nightq/infra/logger"
)

// InfluxSink writes scheduling events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordPass writes the outcome of a scheduling pass as line protocol.
func (s *InfluxSink) RecordPass(res coremetrics.PassResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("sched_pass").
		AddTag("night", res.Night).
		AddTag("strategy", res.Strategy).
		AddTag("component", "planner").
		AddField("weights_version", int64(res.WeightsVersion)).
		AddField("slots_total", res.SlotsTotal).
		AddField("slots_assigned", res.SlotsAssigned).
		AddField("obs_considered", res.OBsConsidered).
		AddField("obs_scheduled", res.OBsScheduled).
		AddField("waste_minutes", round3(res.WasteMinutes)).
		AddField("elapsed_ms", round3(res.Elapsed.Seconds()*1000)).
		SetTime(res.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRejections writes one point per rejected OB.
func (s *InfluxSink) RecordRejections(evs []coremetrics.RejectionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, ev := range evs {
		p := write.NewPointWithMeasurement("ob_rejection").
			AddTag("ob_id", ev.OB).
			AddTag("constraint", ev.Constraint).
			AddTag("component", "planner").
			AddField("reason", ev.Reason).
			SetTime(ev.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordWeightUpdate writes an accepted weight table edit.
func (s *InfluxSink) RecordWeightUpdate(ev coremetrics.WeightEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("weight_edit").
		AddTag("key", ev.Key).
		AddTag("component", "weight-store").
		AddField("value", round3(ev.Value)).
		AddField("version", int64(ev.Version)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordCommit writes the outcome of a schedule commit.
func (s *InfluxSink) RecordCommit(ev coremetrics.CommitEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("store_commit").
		AddTag("night", ev.Night).
		AddTag("conflict", strconv.FormatBool(ev.Conflict)).
		AddTag("component", "queue-store").
		AddField("obs", ev.OBs).
		AddField("attempts", ev.Attempts).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
