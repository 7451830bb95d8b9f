package tds

import (
	"context"
	"sync/atomic"

	"github.com/jackc/puddle/v2"
)

// PoolStats is a snapshot of a connection pool's counters.
type PoolStats struct {
	TotalConns        int32
	IdleConns         int32
	ActiveConns       int32
	AcquireCount      uint64
	AcquireWaitCount  uint64
	CreatedConns      uint64
	DestroyedConns    uint64
	AcquireErrors     uint64
	AcquireWaitTimeNs uint64
}

// Pool is a puddle-backed pool of connections to a single server.
type Pool struct {
	pool           *puddle.Pool[*Conn]
	createdConns   atomic.Int64
	destroyedConns atomic.Int64
}

// NewPool creates a connection pool using the given constructor.
func NewPool(constructor func(ctx context.Context) (*Conn, error), maxSize int32) (*Pool, error) {
	p := &Pool{}

	poolConfig := &puddle.Config[*Conn]{
		Constructor: func(ctx context.Context) (*Conn, error) {
			conn, err := constructor(ctx)
			if err == nil {
				p.createdConns.Add(1)
			}
			return conn, err
		},
		Destructor: func(c *Conn) {
			p.destroyedConns.Add(1)
			_ = c.Close()
		},
		MaxSize: maxSize,
	}

	pool, err := puddle.NewPool(poolConfig)
	if err != nil {
		return nil, err
	}
	p.pool = pool
	return p, nil
}

// Acquire returns a pooled connection, dialing a new one when the pool
// has capacity.
func (p *Pool) Acquire(ctx context.Context) (*puddle.Resource[*Conn], error) {
	return p.pool.Acquire(ctx)
}

// AcquireAllIdle returns all currently idle connections, for health
// reaping.
func (p *Pool) AcquireAllIdle() []*puddle.Resource[*Conn] {
	return p.pool.AcquireAllIdle()
}

// Close destroys all pooled connections.
func (p *Pool) Close() {
	p.pool.Close()
}

// Stats returns a snapshot of pool statistics.
func (p *Pool) Stats() PoolStats {
	s := p.pool.Stat()

	return PoolStats{
		TotalConns:        s.TotalResources(),
		IdleConns:         s.IdleResources(),
		ActiveConns:       s.AcquiredResources(),
		AcquireCount:      uint64(s.AcquireCount()),
		AcquireWaitCount:  uint64(s.EmptyAcquireCount()),
		CreatedConns:      uint64(p.createdConns.Load()),
		DestroyedConns:    uint64(p.destroyedConns.Load()),
		AcquireErrors:     uint64(s.CanceledAcquireCount()),
		AcquireWaitTimeNs: uint64(s.EmptyAcquireWaitTime().Nanoseconds()),
	}
}
