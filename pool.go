package lirc

import (
	"context"
	"sync/atomic"

	"github.com/jackc/puddle/v2"
)

// pool keeps connected Transmitters for one daemon.
type pool struct {
	pool           *puddle.Pool[*Transmitter]
	createdConns   atomic.Int64
	destroyedConns atomic.Int64
}

func newPool(constructor func(ctx context.Context) (*Transmitter, error), maxSize int32) (*pool, error) {
	p := &pool{}

	poolConfig := &puddle.Config[*Transmitter]{
		Constructor: func(ctx context.Context) (*Transmitter, error) {
			t, err := constructor(ctx)
			if err == nil {
				p.createdConns.Add(1)
			}
			return t, err
		},
		Destructor: func(t *Transmitter) {
			p.destroyedConns.Add(1)
			_ = t.Close()
		},
		MaxSize: maxSize,
	}

	inner, err := puddle.NewPool(poolConfig)
	if err != nil {
		return nil, err
	}
	p.pool = inner
	return p, nil
}

func (p *pool) acquire(ctx context.Context) (*puddle.Resource[*Transmitter], error) {
	return p.pool.Acquire(ctx)
}

func (p *pool) acquireAllIdle() []*puddle.Resource[*Transmitter] {
	return p.pool.AcquireAllIdle()
}

func (p *pool) close() {
	p.pool.Close()
}

// stats maps puddle's counters to PoolStats.
func (p *pool) stats() PoolStats {
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
