// Package export serializes schedules for downstream tooling.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"time"

	"github.com/peakobs/nightq/core/model"
)

// WriteJSON writes the schedule rows to w in JSON format.
func WriteJSON(w io.Writer, rows []model.ExportRow) error {
	enc := json.NewEncoder(w)
	return enc.Encode(rows)
}

// WriteCSV writes the schedule rows to w in CSV format with a header row.
func WriteCSV(w io.Writer, rows []model.ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"start", "stop", "ob", "program", "target", "filter", "reason"}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Start.Format(time.RFC3339),
			r.Stop.Format(time.RFC3339),
			r.OB,
			r.Program,
			r.Target,
			r.Filter,
			r.Reason,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
