package server

import "sync"

const (
	smallBufferSize  = 4 << 10
	mediumBufferSize = 32 << 10
	largeBufferSize  = 128 << 10
)

// BufferPool hands out read buffers in three size classes.
type BufferPool struct {
	small  sync.Pool
	medium sync.Pool
	large  sync.Pool
}

func NewBufferPool() *BufferPool {
	return &BufferPool{
		small:  sync.Pool{New: newBuffer(smallBufferSize)},
		medium: sync.Pool{New: newBuffer(mediumBufferSize)},
		large:  sync.Pool{New: newBuffer(largeBufferSize)},
	}
}

func newBuffer(size int) func() any {
	return func() any {
		buf := make([]byte, size)
		return &buf
	}
}

// Get returns a buffer of exactly size bytes. Sizes above the largest class
// are allocated directly and never pooled.
func (p *BufferPool) Get(size int) []byte {
	var pool *sync.Pool
	switch {
	case size <= smallBufferSize:
		pool = &p.small
	case size <= mediumBufferSize:
		pool = &p.medium
	case size <= largeBufferSize:
		pool = &p.large
	default:
		return make([]byte, size)
	}
	buf := pool.Get().(*[]byte)
	return (*buf)[:size]
}

// Put returns buf to its size class. Buffers that did not come from Get are dropped.
func (p *BufferPool) Put(buf []byte) {
	switch cap(buf) {
	case smallBufferSize:
		buf = buf[:smallBufferSize]
		p.small.Put(&buf)
	case mediumBufferSize:
		buf = buf[:mediumBufferSize]
		p.medium.Put(&buf)
	case largeBufferSize:
		buf = buf[:largeBufferSize]
		p.large.Put(&buf)
	}
}
