package passlog

import (
	"context"
	"testing"
	"time"

	"github.com/peakobs/nightq/core/model"
)

func TestSQLiteStore_PersistQuery(t *testing.T) {
	store, err := NewSQLiteStore("file:passlog_test.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	base := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	recs := []PassRecord{
		{Timestamp: base, Night: "2026-03-14",
			Assignments: []model.ExportRow{{OB: "OB-1"}}},
		{Timestamp: base.Add(24 * time.Hour), Night: "2026-03-15",
			Assignments: []model.ExportRow{{OB: "OB-2"}}},
	}
	for _, rec := range recs {
		if err := store.Append(context.Background(), rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	out, err := store.Query(context.Background(), Query{Night: "2026-03-14"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 1 || out[0].Assignments[0].OB != "OB-1" {
		t.Fatalf("unexpected result: %v", out)
	}

	out, err = store.Query(context.Background(), Query{OBID: "OB-2"})
	if err != nil {
		t.Fatalf("query ob: %v", err)
	}
	if len(out) != 1 || out[0].Night != "2026-03-15" {
		t.Fatalf("unexpected result: %v", out)
	}

	out, err = store.Query(context.Background(), Query{Start: base.Add(time.Hour)})
	if err != nil {
		t.Fatalf("query range: %v", err)
	}
	if len(out) != 1 || out[0].Night != "2026-03-15" {
		t.Fatalf("unexpected result: %v", out)
	}
}

func TestSQLiteStore_OrdersByTime(t *testing.T) {
	store, err := NewSQLiteStore("file:passlog_order.db?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	base := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	for _, off := range []time.Duration{2 * time.Hour, 0, time.Hour} {
		rec := PassRecord{Timestamp: base.Add(off), Night: "2026-03-14"}
		if err := store.Append(context.Background(), rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	out, err := store.Query(context.Background(), Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 records, got %d", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i].Timestamp.Before(out[i-1].Timestamp) {
			t.Fatalf("records out of order at %d", i)
		}
	}
}
