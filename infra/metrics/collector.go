package metrics

import (
	"context"
	"time"

	"github.com/peakobs/nightq/core/events"
	coremetrics "github.com/peakobs/nightq/core/metrics"
	"github.com/peakobs/nightq/internal/eventbus"
)

// CollectWeightEvents subscribes to weight table updates and records them
// on the sink. It stops when the context is canceled.
func CollectWeightEvents(ctx context.Context, bus *eventbus.TypedBus[events.WeightsUpdated], sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	rec, ok := sink.(coremetrics.WeightRecorder)
	if !ok {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, open := <-sub:
				if !open {
					return
				}
				_ = rec.RecordWeightUpdate(coremetrics.WeightEvent{
					Key:     ev.Key,
					Value:   ev.Value,
					Version: ev.Version,
					Time:    time.Now(),
				})
			}
		}
	}()
}

// CollectRejections subscribes to per-OB rejections emitted during a pass
// and records them on the sink. It stops when the context is canceled.
func CollectRejections(ctx context.Context, bus *eventbus.TypedBus[events.OBRejected], sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	rec, ok := sink.(coremetrics.RejectionRecorder)
	if !ok {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, open := <-sub:
				if !open {
					return
				}
				_ = rec.RecordRejections([]coremetrics.RejectionEvent{{
					OB:         ev.OB,
					Constraint: ev.Constraint,
					Reason:     ev.Reason,
					Time:       time.Now(),
				}})
			}
		}
	}()
}
