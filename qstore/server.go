package qstore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/creachadair/jrpc2/handler"

	"github.com/peakobs/nightq/core/logger"
	infralog "github.com/peakobs/nightq/infra/logger"
)

// Server owns the canonical copy of every OB and program. It accepts
// any number of client connections and serves each one on its own
// JSON-RPC session; consistency across sessions comes from the
// per-object revision checks at commit time.
type Server struct {
	ln  net.Listener
	db  *backend
	log logger.Logger
	wg  sync.WaitGroup

	mu     sync.Mutex
	active map[*jrpc2.Server]struct{}
	closed bool
}

// NewServer opens (or creates) the database at dbPath and starts
// listening on addr. Pass an address with port 0 to pick a free port;
// Addr reports the bound address.
func NewServer(addr, dbPath string) (*Server, error) {
	db, err := openBackend(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open queue db: %w", err)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		_ = db.close()
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	s := &Server{
		ln:     ln,
		db:     db,
		log:    infralog.New("qstore"),
		active: make(map[*jrpc2.Server]struct{}),
	}
	s.log.Infof("queue store listening on %s (db %s)", ln.Addr(), dbPath)
	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string { return s.ln.Addr().String() }

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if !s.isClosed() {
				s.log.Errorf("accept: %v", err)
			}
			return
		}
		s.log.Debugf("client connected from %s", conn.RemoteAddr())
		srv := jrpc2.NewServer(s.methods(), nil)
		srv.Start(channel.Line(conn, conn))
		s.track(srv)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			_ = srv.Wait()
			s.untrack(srv)
		}()
	}
}

func (s *Server) methods() handler.Map {
	return handler.Map{
		methodPing:           handler.New(s.ping),
		methodInit:           handler.New(s.initRoot),
		methodGetOB:          handler.New(s.getOB),
		methodGetProgram:     handler.New(s.getProgram),
		methodListOBs:        handler.New(s.listOBs),
		methodListPrograms:   handler.New(s.listPrograms),
		methodCommit:         handler.New(s.commit),
		methodRecordExec:     handler.New(s.recordExecution),
		methodListExecutions: handler.New(s.listExecutions),
		methodLoadWeights:    handler.New(s.loadWeights),
		methodSaveWeights:    handler.New(s.saveWeights),
	}
}

func (s *Server) track(srv *jrpc2.Server) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[srv] = struct{}{}
}

func (s *Server) untrack(srv *jrpc2.Server) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, srv)
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close stops accepting connections, terminates active sessions and
// closes the database.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	servers := make([]*jrpc2.Server, 0, len(s.active))
	for srv := range s.active {
		servers = append(servers, srv)
	}
	s.mu.Unlock()

	err := s.ln.Close()
	for _, srv := range servers {
		srv.Stop()
	}
	s.wg.Wait()
	if dberr := s.db.close(); err == nil {
		err = dberr
	}
	return err
}

func (s *Server) ping(_ context.Context) (*EmptyResult, error) {
	return &EmptyResult{}, nil
}

// initRoot re-runs root index creation. It is idempotent, so racing
// first-time callers are harmless.
func (s *Server) initRoot(_ context.Context) (*EmptyResult, error) {
	if err := s.db.ensureSchema(); err != nil {
		return nil, err
	}
	return &EmptyResult{}, nil
}

func (s *Server) getOB(ctx context.Context, p *IDParam) (*OBRecord, error) {
	rec, found, err := s.db.getOB(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &jrpc2.Error{Code: codeNotFound, Message: fmt.Sprintf("ob %s not found", p.ID)}
	}
	return &rec, nil
}

func (s *Server) getProgram(ctx context.Context, p *IDParam) (*ProgramRecord, error) {
	rec, found, err := s.db.getProgram(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &jrpc2.Error{Code: codeNotFound, Message: fmt.Sprintf("program %s not found", p.ID)}
	}
	return &rec, nil
}

func (s *Server) listOBs(ctx context.Context, p *ListOBsParams) (*ListOBsResult, error) {
	recs, err := s.db.listOBs(ctx, p.Program, p.Status)
	if err != nil {
		return nil, err
	}
	return &ListOBsResult{OBs: recs}, nil
}

func (s *Server) listPrograms(ctx context.Context) (*ListProgramsResult, error) {
	recs, err := s.db.listPrograms(ctx)
	if err != nil {
		return nil, err
	}
	return &ListProgramsResult{Programs: recs}, nil
}

func (s *Server) commit(ctx context.Context, p *CommitParams) (*CommitResult, error) {
	revs, err := s.db.commit(ctx, p.OBs, p.Programs)
	if err != nil {
		var conflict *conflictError
		if errors.As(err, &conflict) {
			s.log.Warnf("commit conflict: %s", conflict.detail)
			return nil, &jrpc2.Error{Code: codeConflict, Message: conflict.detail}
		}
		var reject *rejectError
		if errors.As(err, &reject) {
			return nil, &jrpc2.Error{Code: codeRejected, Message: reject.detail}
		}
		return nil, err
	}
	s.log.Debugf("committed %d writes", len(p.OBs)+len(p.Programs))
	return &CommitResult{Revs: revs}, nil
}

// recordExecution appends to the execution ledger. Rejections carry the
// usual code so clients can tell bad input from store trouble.
func (s *Server) recordExecution(ctx context.Context, p *ExecutionRecord) (*EmptyResult, error) {
	if err := s.db.recordExecution(ctx, *p); err != nil {
		var reject *rejectError
		if errors.As(err, &reject) {
			return nil, &jrpc2.Error{Code: codeRejected, Message: reject.detail}
		}
		return nil, err
	}
	return &EmptyResult{}, nil
}

func (s *Server) listExecutions(ctx context.Context, p *ListExecutionsParams) (*ListExecutionsResult, error) {
	recs, err := s.db.listExecutions(ctx, p.Program, p.Night)
	if err != nil {
		return nil, err
	}
	return &ListExecutionsResult{Executions: recs}, nil
}

func (s *Server) loadWeights(ctx context.Context) (*WeightsPayload, error) {
	p, err := s.db.loadWeights(ctx)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Server) saveWeights(ctx context.Context, p *WeightsPayload) (*EmptyResult, error) {
	if err := s.db.saveWeights(ctx, *p); err != nil {
		return nil, err
	}
	return &EmptyResult{}, nil
}
