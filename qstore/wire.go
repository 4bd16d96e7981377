package qstore

import (
	"time"

	"github.com/creachadair/jrpc2"

	"github.com/peakobs/nightq/core/model"
)

// JSON-RPC method names served by the store.
const (
	methodPing           = "queue.ping"
	methodInit           = "queue.init"
	methodGetOB          = "queue.getOB"
	methodGetProgram     = "queue.getProgram"
	methodListOBs        = "queue.listOBs"
	methodListPrograms   = "queue.listPrograms"
	methodCommit         = "queue.commit"
	methodRecordExec     = "queue.recordExecution"
	methodListExecutions = "queue.listExecutions"
	methodLoadWeights    = "weights.load"
	methodSaveWeights    = "weights.save"
)

// Custom JSON-RPC error codes for store operations.
const (
	codeNotFound = jrpc2.Code(-32001)
	codeConflict = jrpc2.Code(-32002)
	codeRejected = jrpc2.Code(-32003)
)

// IDParam is a common input with just an object identifier.
type IDParam struct {
	ID string `json:"id"`
}

// OBRecord pairs an observing block with its stored revision.
type OBRecord struct {
	OB  model.OB `json:"ob"`
	Rev int64    `json:"rev"`
}

// ProgramRecord pairs a program with its stored revision.
type ProgramRecord struct {
	Program model.Program `json:"program"`
	Rev     int64         `json:"rev"`
}

// ListOBsParams narrows an OB scan. Zero values mean no restriction.
type ListOBsParams struct {
	Program string          `json:"program,omitempty"`
	Status  *model.OBStatus `json:"status,omitempty"`
}

// ListOBsResult is the response for queue.listOBs, ordered by OB id.
type ListOBsResult struct {
	OBs []OBRecord `json:"obs"`
}

// ListProgramsResult is the response for queue.listPrograms, ordered by id.
type ListProgramsResult struct {
	Programs []ProgramRecord `json:"programs"`
}

// OBWrite is one staged observing-block mutation. Base is the revision
// the adaptor saw when it read the object, zero for a new object.
type OBWrite struct {
	OB     model.OB `json:"ob"`
	Base   int64    `json:"base"`
	Delete bool     `json:"delete,omitempty"`
}

// ProgramWrite is one staged program mutation.
type ProgramWrite struct {
	Program model.Program `json:"program"`
	Base    int64         `json:"base"`
	Delete  bool          `json:"delete,omitempty"`
}

// CommitParams carries every mutation staged by one adaptor since its
// last commit or abort.
type CommitParams struct {
	OBs      []OBWrite      `json:"obs,omitempty"`
	Programs []ProgramWrite `json:"programs,omitempty"`
}

// CommitResult maps written object ids to their new revisions.
// Deleted objects do not appear.
type CommitResult struct {
	Revs map[string]int64 `json:"revs,omitempty"`
}

// ExecutionRecord notes time actually spent on an OB. Executions are an
// append-only ledger; they feed the per-program used-time accounting.
type ExecutionRecord struct {
	OBID    string    `json:"ob_id"`
	Program string    `json:"program"`
	Night   string    `json:"night"`
	At      time.Time `json:"at"`
	Minutes float64   `json:"minutes"`
}

// ListExecutionsParams narrows an execution scan. Zero values mean no
// restriction.
type ListExecutionsParams struct {
	Program string `json:"program,omitempty"`
	Night   string `json:"night,omitempty"`
}

// ListExecutionsResult is the response for queue.listExecutions, in
// insertion order.
type ListExecutionsResult struct {
	Executions []ExecutionRecord `json:"executions"`
}

// WeightsPayload carries the flat weight table and its version counter.
type WeightsPayload struct {
	Weights map[string]float64 `json:"weights"`
	Version uint64             `json:"version"`
}

// EmptyResult is a placeholder for methods that return no data.
type EmptyResult struct{}
