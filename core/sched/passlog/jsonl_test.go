package passlog

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/peakobs/nightq/core/model"
)

func appendRaw(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = f.WriteString(line)
	return err
}

func TestJSONLStore_AppendQuery(t *testing.T) {
	dir := t.TempDir()
	store, err := NewJSONLStore(dir + "/passes.log")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	base := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	recs := []PassRecord{
		{Timestamp: base, Night: "2026-03-14", Strategy: "greedy",
			Assignments: []model.ExportRow{{OB: "OB-1"}, {OB: "OB-2"}}},
		{Timestamp: base.Add(30 * time.Minute), Night: "2026-03-14", Strategy: "greedy",
			Assignments: []model.ExportRow{{OB: "OB-2"}}},
		{Timestamp: base.Add(24 * time.Hour), Night: "2026-03-15", Strategy: "global",
			Assignments: []model.ExportRow{{OB: "OB-3"}}},
	}
	for _, rec := range recs {
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

	out, err = store.Query(context.Background(), Query{Night: "2026-03-14"})
	if err != nil {
		t.Fatalf("query night: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records for night, got %d", len(out))
	}

	out, err = store.Query(context.Background(), Query{OBID: "OB-1"})
	if err != nil {
		t.Fatalf("query ob: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 record for OB-1, got %d", len(out))
	}

	out, err = store.Query(context.Background(), Query{Start: base.Add(time.Hour)})
	if err != nil {
		t.Fatalf("query start: %v", err)
	}
	if len(out) != 1 || out[0].Night != "2026-03-15" {
		t.Fatalf("expected only the late record, got %v", out)
	}

	out, err = store.Query(context.Background(), Query{End: base.Add(time.Hour)})
	if err != nil {
		t.Fatalf("query end: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records before cutoff, got %d", len(out))
	}
}

func TestJSONLStore_SkipsCorruptLines(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/passes.log"
	store, err := NewJSONLStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	if err := store.Append(context.Background(), PassRecord{Timestamp: time.Now(), Night: "2026-03-14"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := appendRaw(path, "{not json\n"); err != nil {
		t.Fatalf("write corrupt line: %v", err)
	}
	if err := store.Append(context.Background(), PassRecord{Timestamp: time.Now(), Night: "2026-03-15"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	out, err := store.Query(context.Background(), Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected corrupt line skipped, got %d records", len(out))
	}
}
