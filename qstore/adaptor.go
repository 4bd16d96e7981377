package qstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/peakobs/nightq/core/model"
)

const (
	commitAttempts = 3
	retryBaseDelay = 100 * time.Millisecond
)

// Filter narrows an OB listing. Program and Status restrict the server
// scan; Match is applied client-side on top of it.
type Filter struct {
	Program string
	Status  *model.OBStatus
	Match   func(model.OB) bool
}

func (f Filter) matches(ob model.OB) bool {
	if f.Program != "" && ob.Program != f.Program {
		return false
	}
	if f.Status != nil && ob.Status != *f.Status {
		return false
	}
	return true
}

type obWrite struct {
	ob     model.OB
	base   int64
	delete bool
}

type programWrite struct {
	program model.Program
	base    int64
	delete  bool
}

// Adaptor is a worker-local transaction context. Reads go straight to
// the server and remember the revision they saw; writes are staged
// locally, visible only to this adaptor, until Commit applies them
// all-or-nothing. An adaptor must never be shared between concurrent
// workers.
type Adaptor struct {
	c  *Client
	id string

	obRevs   map[string]int64
	progRevs map[string]int64
	obs      map[string]*obWrite
	programs map[string]*programWrite
}

// ID identifies the adaptor in logs.
func (a *Adaptor) ID() string { return a.id }

// GetOB returns the adaptor's view of one observing block: the staged
// copy when a write is pending, the stored copy otherwise.
func (a *Adaptor) GetOB(ctx context.Context, id string) (model.OB, error) {
	if w, ok := a.obs[id]; ok {
		if w.delete {
			return model.OB{}, fmt.Errorf("%w: ob %s", ErrNotFound, id)
		}
		return w.ob, nil
	}
	var rec OBRecord
	if err := a.c.call(ctx, methodGetOB, IDParam{ID: id}, &rec); err != nil {
		if rpcCode(err) == codeNotFound {
			return model.OB{}, fmt.Errorf("%w: ob %s", ErrNotFound, id)
		}
		return model.OB{}, err
	}
	a.obRevs[id] = rec.Rev
	return rec.OB, nil
}

// PutOB stages an insert or update. The write lands on the server at
// the next Commit.
func (a *Adaptor) PutOB(ob model.OB) error {
	if err := ob.Validate(); err != nil {
		return err
	}
	if w, ok := a.obs[ob.ID]; ok {
		w.ob = ob
		w.delete = false
		return nil
	}
	a.obs[ob.ID] = &obWrite{ob: ob, base: a.obRevs[ob.ID]}
	return nil
}

// DeleteOB stages a removal. Deleting an object that was never stored
// commits as a no-op.
func (a *Adaptor) DeleteOB(id string) error {
	if id == "" {
		return fmt.Errorf("ob id is required")
	}
	if w, ok := a.obs[id]; ok {
		w.delete = true
		w.ob = model.OB{ID: id}
		return nil
	}
	a.obs[id] = &obWrite{ob: model.OB{ID: id}, base: a.obRevs[id], delete: true}
	return nil
}

// ListOBs returns the adaptor's view of the queue, ordered by OB id:
// the server scan with this adaptor's staged writes layered on top.
func (a *Adaptor) ListOBs(ctx context.Context, f Filter) ([]model.OB, error) {
	var res ListOBsResult
	params := ListOBsParams{Program: f.Program, Status: f.Status}
	if err := a.c.call(ctx, methodListOBs, params, &res); err != nil {
		return nil, err
	}
	merged := make(map[string]model.OB, len(res.OBs))
	for _, rec := range res.OBs {
		a.obRevs[rec.OB.ID] = rec.Rev
		merged[rec.OB.ID] = rec.OB
	}
	for id, w := range a.obs {
		if w.delete || !f.matches(w.ob) {
			delete(merged, id)
			continue
		}
		merged[id] = w.ob
	}
	out := make([]model.OB, 0, len(merged))
	for _, ob := range merged {
		if f.Match != nil && !f.Match(ob) {
			continue
		}
		out = append(out, ob)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetProgram returns the adaptor's view of one program.
func (a *Adaptor) GetProgram(ctx context.Context, id string) (model.Program, error) {
	if w, ok := a.programs[id]; ok {
		if w.delete {
			return model.Program{}, fmt.Errorf("%w: program %s", ErrNotFound, id)
		}
		return w.program, nil
	}
	var rec ProgramRecord
	if err := a.c.call(ctx, methodGetProgram, IDParam{ID: id}, &rec); err != nil {
		if rpcCode(err) == codeNotFound {
			return model.Program{}, fmt.Errorf("%w: program %s", ErrNotFound, id)
		}
		return model.Program{}, err
	}
	a.progRevs[id] = rec.Rev
	return rec.Program, nil
}

// PutProgram stages an insert or update of a program.
func (a *Adaptor) PutProgram(p model.Program) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if w, ok := a.programs[p.ID]; ok {
		w.program = p
		w.delete = false
		return nil
	}
	a.programs[p.ID] = &programWrite{program: p, base: a.progRevs[p.ID]}
	return nil
}

// DeleteProgram stages a removal of a program.
func (a *Adaptor) DeleteProgram(id string) error {
	if id == "" {
		return fmt.Errorf("program id is required")
	}
	if w, ok := a.programs[id]; ok {
		w.delete = true
		w.program = model.Program{ID: id}
		return nil
	}
	a.programs[id] = &programWrite{program: model.Program{ID: id}, base: a.progRevs[id], delete: true}
	return nil
}

// ListPrograms returns every program ordered by id, with staged writes
// layered on top.
func (a *Adaptor) ListPrograms(ctx context.Context) ([]model.Program, error) {
	var res ListProgramsResult
	if err := a.c.call(ctx, methodListPrograms, nil, &res); err != nil {
		return nil, err
	}
	merged := make(map[string]model.Program, len(res.Programs))
	for _, rec := range res.Programs {
		a.progRevs[rec.Program.ID] = rec.Rev
		merged[rec.Program.ID] = rec.Program
	}
	for id, w := range a.programs {
		if w.delete {
			delete(merged, id)
			continue
		}
		merged[id] = w.program
	}
	out := make([]model.Program, 0, len(merged))
	for _, p := range merged {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Pending reports how many writes are staged.
func (a *Adaptor) Pending() int { return len(a.obs) + len(a.programs) }

// Commit applies every staged write in one transaction. On conflict
// the server applies nothing; abort or refresh the reads and retry.
func (a *Adaptor) Commit(ctx context.Context) error {
	if a.Pending() == 0 {
		return nil
	}
	params := CommitParams{}
	for _, id := range sortedKeys(a.obs) {
		w := a.obs[id]
		params.OBs = append(params.OBs, OBWrite{OB: w.ob, Base: w.base, Delete: w.delete})
	}
	for _, id := range sortedKeys(a.programs) {
		w := a.programs[id]
		params.Programs = append(params.Programs, ProgramWrite{Program: w.program, Base: w.base, Delete: w.delete})
	}
	var res CommitResult
	if err := a.c.call(ctx, methodCommit, params, &res); err != nil {
		switch rpcCode(err) {
		case codeConflict:
			return &ConflictError{Detail: rpcMessage(err)}
		case codeRejected:
			return fmt.Errorf("commit rejected: %s", rpcMessage(err))
		}
		return err
	}
	for id := range a.obs {
		if a.obs[id].delete {
			delete(a.obRevs, id)
		}
	}
	for id := range a.programs {
		if a.programs[id].delete {
			delete(a.progRevs, id)
		}
	}
	for id, rev := range res.Revs {
		if _, ok := a.obs[id]; ok {
			a.obRevs[id] = rev
		} else {
			a.progRevs[id] = rev
		}
	}
	a.obs = make(map[string]*obWrite)
	a.programs = make(map[string]*programWrite)
	return nil
}

// Abort drops every staged write and forgets the revisions read, so
// the next read starts from fresh server state. Abandoning a pass
// before Commit leaves no persistent trace.
func (a *Adaptor) Abort() {
	a.obs = make(map[string]*obWrite)
	a.programs = make(map[string]*programWrite)
	a.obRevs = make(map[string]int64)
	a.progRevs = make(map[string]int64)
}

// CommitRetry commits with a bounded number of retries on conflict,
// backing off exponentially. Before each retry the adaptor is aborted
// and refresh is called to rebuild the write set from fresh reads; the
// attempt count is returned for bookkeeping.
func CommitRetry(ctx context.Context, a *Adaptor, refresh func(context.Context, *Adaptor) error) (int, error) {
	delay := retryBaseDelay
	for attempt := 1; ; attempt++ {
		err := a.Commit(ctx)
		if err == nil || !errors.Is(err, ErrConflict) || attempt == commitAttempts {
			return attempt, err
		}
		a.Abort()
		select {
		case <-ctx.Done():
			return attempt, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if refresh != nil {
			if rerr := refresh(ctx, a); rerr != nil {
				return attempt, rerr
			}
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
