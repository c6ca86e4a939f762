// Package pool manages a fixed-size set of database connections with all
// statements prepared up front. Every data-access operation acquires exactly
// one slot for the duration of a single statement execution and releases it
// before returning; a slot is never used by two callers at once.
package pool

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/yproject/authcore/internal/errs"
)

// Conn is the statement-execution surface a slot exposes. It is satisfied
// by *pgx.Conn and by pgxmock in tests.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PrepareFunc prepares the fixed statement set on a freshly opened
// connection. A failure aborts pool construction.
type PrepareFunc func(ctx context.Context, conn *pgx.Conn) error

// Slot is one pooled connection handle. It is valid between Acquire and the
// matching Release and must not be retained afterwards.
type Slot struct {
	id   int
	conn Conn
}

// ID returns the slot's index within the pool.
func (s *Slot) ID() int { return s.id }

// Exec runs a prepared statement on the slot's connection.
func (s *Slot) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return s.conn.Exec(ctx, sql, args...)
}

// Query runs a prepared statement and returns a rows iterator.
func (s *Slot) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return s.conn.Query(ctx, sql, args...)
}

// QueryRow runs a prepared statement expected to return at most one row.
func (s *Slot) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return s.conn.QueryRow(ctx, sql, args...)
}

// Pool hands out slots one owner at a time. The free list is a buffered
// channel with capacity equal to the slot count, so acquire/release are
// atomic with respect to concurrent callers and an empty pool blocks the
// caller instead of failing the process.
type Pool struct {
	free           chan *Slot
	acquireTimeout time.Duration
	logger         *zap.Logger

	// only set when the pool dialed its own connections
	pgConns []*pgx.Conn
}

// New opens size connections to the database, runs prepare on each and
// returns a ready pool. Any connect or prepare failure closes the
// connections opened so far and aborts; the pool never starts degraded.
func New(ctx context.Context, dsn string, size int, acquireTimeout time.Duration, prepare PrepareFunc, logger *zap.Logger) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", size)
	}

	p := &Pool{
		free:           make(chan *Slot, size),
		acquireTimeout: acquireTimeout,
		logger:         logger,
		pgConns:        make([]*pgx.Conn, 0, size),
	}

	for i := 0; i < size; i++ {
		conn, err := pgx.Connect(ctx, dsn)
		if err != nil {
			p.closeConns(ctx)
			return nil, fmt.Errorf("connect slot %d: %w", i, err)
		}
		p.pgConns = append(p.pgConns, conn)

		if prepare != nil {
			if err := prepare(ctx, conn); err != nil {
				p.closeConns(ctx)
				return nil, fmt.Errorf("prepare statements on slot %d: %w", i, err)
			}
		}

		p.free <- &Slot{id: i, conn: conn}
		logger.Info("database connection ready", zap.Int("slot", i))
	}

	return p, nil
}

// NewFromConns builds a pool over connections the caller already opened and
// prepared. Used by tests and by callers with custom dialing.
func NewFromConns(conns []Conn, acquireTimeout time.Duration, logger *zap.Logger) *Pool {
	p := &Pool{
		free:           make(chan *Slot, len(conns)),
		acquireTimeout: acquireTimeout,
		logger:         logger,
	}
	for i, conn := range conns {
		p.free <- &Slot{id: i, conn: conn}
	}
	return p
}

// Acquire returns a free slot, blocking while all slots are busy. It fails
// with errs.ErrPoolExhausted once the acquire timeout elapses, or with the
// context error if the request is aborted first. The caller must Release
// the slot on every exit path.
func (p *Pool) Acquire(ctx context.Context) (*Slot, error) {
	select {
	case s := <-p.free:
		return s, nil
	default:
	}

	var timeout <-chan time.Time
	if p.acquireTimeout > 0 {
		t := time.NewTimer(p.acquireTimeout)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case s := <-p.free:
		return s, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire connection: %w", ctx.Err())
	case <-timeout:
		return nil, fmt.Errorf("%w: no free connection after %s", errs.ErrPoolExhausted, p.acquireTimeout)
	}
}

// Release returns a slot to the free list.
func (p *Pool) Release(s *Slot) {
	if s == nil {
		return
	}
	select {
	case p.free <- s:
	default:
		// More releases than acquires; a programming error, not a reason to block.
		p.logger.Error("slot released twice", zap.Int("slot", s.id))
	}
}

// Size returns the pool capacity.
func (p *Pool) Size() int { return cap(p.free) }

// Close closes the underlying connections. It does not wait for busy slots;
// call it after request processing has stopped.
func (p *Pool) Close(ctx context.Context) {
	p.closeConns(ctx)
}

func (p *Pool) closeConns(ctx context.Context) {
	for i, conn := range p.pgConns {
		if err := conn.Close(ctx); err != nil {
			p.logger.Warn("closing connection", zap.Int("slot", i), zap.Error(err))
		}
	}
	p.pgConns = nil
}
