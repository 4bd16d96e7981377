package sched

import (
	"fmt"
	"sort"
	"strings"

	"github.com/peakobs/nightq/core/model"
)

// programTally aggregates per-program scheduling counts for the report.
type programTally struct {
	id        string
	rank      float64
	scheduled int
	total     int
}

// buildReport renders the operator summary for a finished pass. Ordering is
// deterministic: programs by descending rank then identifier, unschedulable
// OBs by identifier.
func buildReport(cfg Config, sched *model.Schedule, candidates []model.OB, st *passState) string {
	scheduled := make(map[string]bool)
	for _, a := range sched.Slots {
		if a.OB != nil {
			scheduled[a.OB.ID] = true
		}
	}

	tallies := make(map[string]*programTally)
	seen := make(map[string]bool)
	total := 0
	for _, ob := range candidates {
		if seen[ob.ID] {
			continue
		}
		seen[ob.ID] = true
		total++
		tl := tallies[ob.Program]
		if tl == nil {
			tl = &programTally{id: ob.Program, rank: st.programs[ob.Program].Rank}
			tallies[ob.Program] = tl
		}
		tl.total++
		if scheduled[ob.ID] {
			tl.scheduled++
		}
	}

	var completed, uncompleted []*programTally
	for _, tl := range tallies {
		if tl.scheduled == tl.total {
			completed = append(completed, tl)
		} else {
			uncompleted = append(uncompleted, tl)
		}
	}
	byRank := func(list []*programTally) {
		sort.Slice(list, func(i, j int) bool {
			if list[i].rank != list[j].rank {
				return list[i].rank > list[j].rank
			}
			return list[i].id < list[j].id
		})
	}
	byRank(completed)
	byRank(uncompleted)

	pct := 0.0
	if total > 0 {
		pct = float64(len(scheduled)) / float64(total) * 100
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Schedule for %s (%s fill, weights v%d)\n", sched.Night, cfg.Strategy, st.version)
	fmt.Fprintf(&b, "%d of %d slots assigned, %d of %d OBs (%5.2f %%), waste %.1f min\n",
		sched.Assigned(), len(sched.Slots), len(scheduled), total, pct, sched.WasteMinutes())

	if len(completed) > 0 {
		b.WriteString("\ncompleted programs:\n")
		for _, tl := range completed {
			fmt.Fprintf(&b, "  %-12s rank %4.1f  %d/%d obs\n", tl.id, tl.rank, tl.scheduled, tl.total)
		}
	}
	if len(uncompleted) > 0 {
		b.WriteString("\nuncompleted programs:\n")
		for _, tl := range uncompleted {
			fmt.Fprintf(&b, "  %-12s rank %4.1f  %d/%d obs\n", tl.id, tl.rank, tl.scheduled, tl.total)
		}
	}

	var left []string
	for id := range seen {
		if !scheduled[id] {
			left = append(left, id)
		}
	}
	sort.Strings(left)
	if len(left) > 0 {
		b.WriteString("\nunschedulable obs:\n")
		for _, id := range left {
			if rej, ok := st.rejected[id]; ok {
				fmt.Fprintf(&b, "  %-12s %s: %s\n", id, rej.Constraint, rej.Reason)
			} else {
				fmt.Fprintf(&b, "  %-12s lost to higher scoring candidates\n", id)
			}
		}
	}
	return b.String()
}
