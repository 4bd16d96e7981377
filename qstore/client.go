package qstore

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/google/uuid"

	"github.com/peakobs/nightq/core/logger"
	infralog "github.com/peakobs/nightq/infra/logger"
)

const dialTimeout = 5 * time.Second

// Client is a connection to the queue store server. One client can
// hand out any number of adaptors; each adaptor must stay owned by a
// single worker.
type Client struct {
	addr string
	conn net.Conn
	rpc  *jrpc2.Client
	log  logger.Logger
}

// Dial connects to the store at addr (host:port).
func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, &ConnError{Addr: addr, Op: "dial", Err: err}
	}
	return &Client{
		addr: addr,
		conn: conn,
		rpc:  jrpc2.NewClient(channel.Line(conn, conn), nil),
		log:  infralog.New("qstore-client"),
	}, nil
}

// Ping verifies the server is responding.
func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, methodPing, nil, &EmptyResult{})
}

// OpenAdaptor creates the root indices if absent and returns a fresh
// isolated transaction context. Adaptors are not safe for concurrent
// use; open one per worker.
func (c *Client) OpenAdaptor(ctx context.Context) (*Adaptor, error) {
	if err := c.call(ctx, methodInit, nil, &EmptyResult{}); err != nil {
		return nil, err
	}
	a := &Adaptor{
		c:        c,
		id:       uuid.NewString(),
		obRevs:   make(map[string]int64),
		progRevs: make(map[string]int64),
		obs:      make(map[string]*obWrite),
		programs: make(map[string]*programWrite),
	}
	c.log.Debugf("adaptor %s opened against %s", a.id, c.addr)
	return a, nil
}

// RecordExecution appends one entry to the execution ledger.
func (c *Client) RecordExecution(ctx context.Context, rec ExecutionRecord) error {
	return c.call(ctx, methodRecordExec, rec, &EmptyResult{})
}

// ListExecutions returns ledger entries, optionally narrowed by program
// and night.
func (c *Client) ListExecutions(ctx context.Context, program, night string) ([]ExecutionRecord, error) {
	var res ListExecutionsResult
	if err := c.call(ctx, methodListExecutions, ListExecutionsParams{Program: program, Night: night}, &res); err != nil {
		return nil, err
	}
	return res.Executions, nil
}

// LoadWeights fetches the persisted weight table and its version.
func (c *Client) LoadWeights(ctx context.Context) (map[string]float64, uint64, error) {
	var p WeightsPayload
	if err := c.call(ctx, methodLoadWeights, nil, &p); err != nil {
		return nil, 0, err
	}
	return p.Weights, p.Version, nil
}

// SaveWeights persists the full weight table. Last writer wins.
func (c *Client) SaveWeights(ctx context.Context, weights map[string]float64, version uint64) error {
	return c.call(ctx, methodSaveWeights, WeightsPayload{Weights: weights, Version: version}, &EmptyResult{})
}

// Close terminates the connection. In-flight calls fail.
func (c *Client) Close() error {
	err := c.rpc.Close()
	if cerr := c.conn.Close(); err == nil {
		err = cerr
	}
	return err
}

// call performs one RPC. Protocol errors keep their code for the
// caller to map; anything else is a connection failure, which is fatal
// to the worker.
func (c *Client) call(ctx context.Context, method string, params, result any) error {
	err := c.rpc.CallResult(ctx, method, params, result)
	if err == nil {
		return nil
	}
	var rpcErr *jrpc2.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return &ConnError{Addr: c.addr, Op: method, Err: err}
}

// rpcCode extracts the JSON-RPC error code, zero when err is not a
// protocol error.
func rpcCode(err error) jrpc2.Code {
	var rpcErr *jrpc2.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.Code
	}
	return 0
}

// rpcMessage extracts the server-side message from a protocol error.
func rpcMessage(err error) string {
	var rpcErr *jrpc2.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.Message
	}
	return err.Error()
}
