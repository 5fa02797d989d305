package pool

import (
	"io"
	"sync"
)

const (
	// FragmentBufferDefaultSize is the initial capacity of a pooled fragment buffer.
	FragmentBufferDefaultSize = 1024 * 4 // 4KiB
	// FragmentBufferMaxThreshold is the largest buffer the fragment pool retains.
	FragmentBufferMaxThreshold = 1024 * 1024 * 4 // 4MiB
)

// ByteBuffer is a growable byte slice whose length is the number of bytes in
// use and whose capacity is the storage reserved for future growth.
//
// Any slice obtained from B is invalid once the buffer reallocates.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the in-use portion of the buffer.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset empties the buffer but keeps its storage.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the number of bytes in use.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// SetLength sets the in-use length to n, reallocating to exactly n bytes of
// capacity when n exceeds the current capacity. Bytes that become in-use are
// zeroed. Panics if n is negative.
func (bb *ByteBuffer) SetLength(n int) {
	if n < 0 {
		panic("SetLength: negative length")
	}

	if n > cap(bb.B) {
		bb.Reserve(n)
	}

	cur := len(bb.B)
	bb.B = bb.B[:n]
	if n > cur {
		clear(bb.B[cur:n])
	}
}

// Reserve ensures the buffer capacity is at least capacity bytes, preserving
// the in-use bytes.
func (bb *ByteBuffer) Reserve(capacity int) {
	if capacity <= cap(bb.B) {
		return
	}

	newBuf := make([]byte, len(bb.B), capacity)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// Write appends the contents of data to the buffer, growing it as needed.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// WriteTo writes the contents of the buffer to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)
	return int64(n), err
}

// ByteBufferPool is a pool of ByteBuffers to minimize allocations.
//
// Buffers larger than maxThreshold are dropped on Put instead of being retained.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a new ByteBufferPool with buffers of the specified default size.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves an empty ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var fragmentDefaultPool = NewByteBufferPool(FragmentBufferDefaultSize, FragmentBufferMaxThreshold)

// GetFragmentBuffer retrieves a ByteBuffer from the default fragment pool.
func GetFragmentBuffer() *ByteBuffer {
	return fragmentDefaultPool.Get()
}

// PutFragmentBuffer returns a ByteBuffer to the default fragment pool.
func PutFragmentBuffer(bb *ByteBuffer) {
	fragmentDefaultPool.Put(bb)
}
