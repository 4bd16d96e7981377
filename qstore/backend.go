package qstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/peakobs/nightq/core/model"
)

// backend persists the queue in a SQLite database. Objects are stored
// as JSON with a revision counter per row; the id columns give the
// ordered indices the list scans rely on.
type backend struct {
	db *sql.DB
}

// conflictError is raised inside a commit when a revision check fails.
// The transaction rolls back, so no earlier write of the same commit
// survives.
type conflictError struct {
	detail string
}

func (e *conflictError) Error() string { return e.detail }

// rejectError is raised when a staged object fails validation against
// the stored state, e.g. an illegal status transition.
type rejectError struct {
	detail string
}

func (e *rejectError) Error() string { return e.detail }

func openBackend(path string) (*backend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// modernc sqlite supports a single writer; one pooled connection
	// keeps concurrent commits serialized instead of returning busy.
	db.SetMaxOpenConns(1)
	b := &backend{db: db}
	if err := b.ensureSchema(); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return b, nil
}

// ensureSchema creates the root indices if absent. Safe to run any
// number of times, including from concurrently starting processes.
func (b *backend) ensureSchema() error {
	schema := `CREATE TABLE IF NOT EXISTS obs (
        id TEXT PRIMARY KEY,
        program TEXT NOT NULL,
        status INTEGER NOT NULL,
        rev INTEGER NOT NULL,
        data TEXT NOT NULL
    );
    CREATE INDEX IF NOT EXISTS obs_program ON obs(program, id);
    CREATE TABLE IF NOT EXISTS programs (
        id TEXT PRIMARY KEY,
        rev INTEGER NOT NULL,
        data TEXT NOT NULL
    );
    CREATE TABLE IF NOT EXISTS executions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        ob TEXT NOT NULL,
        program TEXT NOT NULL,
        night TEXT NOT NULL,
        at INTEGER NOT NULL,
        minutes REAL NOT NULL
    );
    CREATE INDEX IF NOT EXISTS executions_program ON executions(program, night);
    CREATE TABLE IF NOT EXISTS weights (
        key TEXT PRIMARY KEY,
        value REAL NOT NULL
    );
    CREATE TABLE IF NOT EXISTS meta (
        key TEXT PRIMARY KEY,
        value TEXT NOT NULL
    );`
	_, err := b.db.Exec(schema)
	return err
}

func (b *backend) close() error { return b.db.Close() }

func (b *backend) getOB(ctx context.Context, id string) (OBRecord, bool, error) {
	var data string
	var rev int64
	err := b.db.QueryRowContext(ctx,
		`SELECT data, rev FROM obs WHERE id = ?`, id).Scan(&data, &rev)
	if err == sql.ErrNoRows {
		return OBRecord{}, false, nil
	}
	if err != nil {
		return OBRecord{}, false, err
	}
	var ob model.OB
	if err := json.Unmarshal([]byte(data), &ob); err != nil {
		return OBRecord{}, false, fmt.Errorf("decode ob %s: %w", id, err)
	}
	return OBRecord{OB: ob, Rev: rev}, true, nil
}

func (b *backend) getProgram(ctx context.Context, id string) (ProgramRecord, bool, error) {
	var data string
	var rev int64
	err := b.db.QueryRowContext(ctx,
		`SELECT data, rev FROM programs WHERE id = ?`, id).Scan(&data, &rev)
	if err == sql.ErrNoRows {
		return ProgramRecord{}, false, nil
	}
	if err != nil {
		return ProgramRecord{}, false, err
	}
	var p model.Program
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return ProgramRecord{}, false, fmt.Errorf("decode program %s: %w", id, err)
	}
	return ProgramRecord{Program: p, Rev: rev}, true, nil
}

func (b *backend) listOBs(ctx context.Context, program string, status *model.OBStatus) ([]OBRecord, error) {
	var args []any
	query := `SELECT data, rev FROM obs WHERE 1=1`
	if program != "" {
		query += ` AND program = ?`
		args = append(args, program)
	}
	if status != nil {
		query += ` AND status = ?`
		args = append(args, int(*status))
	}
	query += ` ORDER BY id`
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []OBRecord
	for rows.Next() {
		var data string
		var rev int64
		if err := rows.Scan(&data, &rev); err != nil {
			return nil, err
		}
		var ob model.OB
		if err := json.Unmarshal([]byte(data), &ob); err != nil {
			return nil, fmt.Errorf("decode ob row: %w", err)
		}
		res = append(res, OBRecord{OB: ob, Rev: rev})
	}
	return res, rows.Err()
}

func (b *backend) listPrograms(ctx context.Context) ([]ProgramRecord, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT data, rev FROM programs ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []ProgramRecord
	for rows.Next() {
		var data string
		var rev int64
		if err := rows.Scan(&data, &rev); err != nil {
			return nil, err
		}
		var p model.Program
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("decode program row: %w", err)
		}
		res = append(res, ProgramRecord{Program: p, Rev: rev})
	}
	return res, rows.Err()
}

// commit applies a full write set in one transaction. Every staged
// object must still be at the revision the adaptor read; the first
// mismatch rolls the whole transaction back.
func (b *backend) commit(ctx context.Context, obs []OBWrite, programs []ProgramWrite) (map[string]int64, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	revs := make(map[string]int64, len(obs)+len(programs))
	for _, w := range obs {
		id := w.OB.ID
		if id == "" {
			return nil, &rejectError{detail: "ob write without id"}
		}
		var cur int64
		var priorData string
		err := tx.QueryRowContext(ctx,
			`SELECT rev, data FROM obs WHERE id = ?`, id).Scan(&cur, &priorData)
		if err != nil && err != sql.ErrNoRows {
			return nil, err
		}
		if cur != w.Base {
			return nil, &conflictError{detail: fmt.Sprintf("ob %s is at rev %d, adaptor read rev %d", id, cur, w.Base)}
		}
		if w.Delete {
			if cur == 0 {
				continue // deleting an absent object is a no-op
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM obs WHERE id = ?`, id); err != nil {
				return nil, err
			}
			continue
		}
		if err := w.OB.Validate(); err != nil {
			return nil, &rejectError{detail: err.Error()}
		}
		if cur > 0 {
			var prior model.OB
			if err := json.Unmarshal([]byte(priorData), &prior); err != nil {
				return nil, fmt.Errorf("decode ob %s: %w", id, err)
			}
			if !prior.Status.CanTransition(w.OB.Status) {
				return nil, &rejectError{detail: fmt.Sprintf(
					"ob %s: illegal status change %s -> %s", id, prior.Status, w.OB.Status)}
			}
			if prior.Status != model.StatusPending && w.OB.TotalTime != prior.TotalTime {
				return nil, &rejectError{detail: fmt.Sprintf(
					"ob %s: total time is frozen once scheduled", id)}
			}
		}
		data, err := json.Marshal(w.OB)
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO obs (id, program, status, rev, data) VALUES (?, ?, ?, ?, ?)`,
			id, w.OB.Program, int(w.OB.Status), cur+1, string(data)); err != nil {
			return nil, err
		}
		revs[id] = cur + 1
	}

	for _, w := range programs {
		id := w.Program.ID
		if id == "" {
			return nil, &rejectError{detail: "program write without id"}
		}
		var cur int64
		err := tx.QueryRowContext(ctx,
			`SELECT rev FROM programs WHERE id = ?`, id).Scan(&cur)
		if err != nil && err != sql.ErrNoRows {
			return nil, err
		}
		if cur != w.Base {
			return nil, &conflictError{detail: fmt.Sprintf("program %s is at rev %d, adaptor read rev %d", id, cur, w.Base)}
		}
		if w.Delete {
			if cur == 0 {
				continue
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM programs WHERE id = ?`, id); err != nil {
				return nil, err
			}
			continue
		}
		if err := w.Program.Validate(); err != nil {
			return nil, &rejectError{detail: err.Error()}
		}
		data, err := json.Marshal(w.Program)
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO programs (id, rev, data) VALUES (?, ?, ?)`,
			id, cur+1, string(data)); err != nil {
			return nil, err
		}
		revs[id] = cur + 1
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return revs, nil
}

func (b *backend) recordExecution(ctx context.Context, rec ExecutionRecord) error {
	if rec.OBID == "" || rec.Program == "" {
		return &rejectError{detail: "execution record needs ob and program ids"}
	}
	if rec.Minutes < 0 {
		return &rejectError{detail: fmt.Sprintf("execution of %s: negative minutes", rec.OBID)}
	}
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO executions (ob, program, night, at, minutes) VALUES (?, ?, ?, ?, ?)`,
		rec.OBID, rec.Program, rec.Night, rec.At.Unix(), rec.Minutes)
	return err
}

func (b *backend) listExecutions(ctx context.Context, program, night string) ([]ExecutionRecord, error) {
	var args []any
	query := `SELECT ob, program, night, at, minutes FROM executions WHERE 1=1`
	if program != "" {
		query += ` AND program = ?`
		args = append(args, program)
	}
	if night != "" {
		query += ` AND night = ?`
		args = append(args, night)
	}
	query += ` ORDER BY id`
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []ExecutionRecord
	for rows.Next() {
		var rec ExecutionRecord
		var at int64
		if err := rows.Scan(&rec.OBID, &rec.Program, &rec.Night, &at, &rec.Minutes); err != nil {
			return nil, err
		}
		rec.At = time.Unix(at, 0).UTC()
		res = append(res, rec)
	}
	return res, rows.Err()
}

func (b *backend) loadWeights(ctx context.Context) (WeightsPayload, error) {
	out := WeightsPayload{Weights: make(map[string]float64)}
	rows, err := b.db.QueryContext(ctx, `SELECT key, value FROM weights`)
	if err != nil {
		return out, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var key string
		var val float64
		if err := rows.Scan(&key, &val); err != nil {
			return out, err
		}
		out.Weights[key] = val
	}
	if err := rows.Err(); err != nil {
		return out, err
	}
	var raw string
	err = b.db.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE key = 'weights_version'`).Scan(&raw)
	if err == sql.ErrNoRows {
		return out, nil
	}
	if err != nil {
		return out, err
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return out, fmt.Errorf("decode weights version: %w", err)
	}
	out.Version = v
	return out, nil
}

// saveWeights replaces the whole table. Last writer wins; the version
// is informational so a restart resumes counting where it left off.
func (b *backend) saveWeights(ctx context.Context, p WeightsPayload) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM weights`); err != nil {
		return err
	}
	for key, val := range p.Weights {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO weights (key, value) VALUES (?, ?)`, key, val); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO meta (key, value) VALUES ('weights_version', ?)`,
		strconv.FormatUint(p.Version, 10)); err != nil {
		return err
	}
	return tx.Commit()
}
