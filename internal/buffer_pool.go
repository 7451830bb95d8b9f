package internal

import "sync"

// ChunkPool recycles fixed-size scratch buffers. The token reader drains
// skipped payloads through pooled chunks instead of allocating per skip.
type ChunkPool struct {
	pool sync.Pool
}

func NewChunkPool(size int) *ChunkPool {
	return &ChunkPool{
		pool: sync.Pool{
			New: func() any {
				b := make([]byte, size)
				return &b
			},
		},
	}
}

func (p *ChunkPool) Get() []byte {
	return *(p.pool.Get().(*[]byte))
}

func (p *ChunkPool) Put(b []byte) {
	p.pool.Put(&b)
}
