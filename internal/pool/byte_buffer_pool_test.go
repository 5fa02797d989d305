package pool

import (
	"bytes"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ByteBuffer Tests
// =============================================================================

func TestNewByteBuffer(t *testing.T) {
	bb := NewByteBuffer(1024)

	require.NotNil(t, bb)
	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, 1024, bb.Cap())
}

func TestByteBuffer_Reset(t *testing.T) {
	bb := NewByteBuffer(64)
	bb.B = append(bb.B, []byte("some data")...)
	originalCap := bb.Cap()

	bb.Reset()

	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, originalCap, bb.Cap())
}

func TestByteBuffer_SetLength(t *testing.T) {
	t.Run("within capacity zeroes new bytes", func(t *testing.T) {
		bb := NewByteBuffer(32)
		bb.B = append(bb.B, 1, 2, 3, 4, 5, 6, 7, 8)
		bb.SetLength(2)
		bb.SetLength(8)

		assert.Equal(t, []byte{1, 2, 0, 0, 0, 0, 0, 0}, bb.Bytes())
		assert.Equal(t, 32, bb.Cap())
	})

	t.Run("beyond capacity reallocates exactly", func(t *testing.T) {
		bb := NewByteBuffer(8)
		bb.B = append(bb.B, 9, 9)
		bb.SetLength(24)

		assert.Equal(t, 24, bb.Len())
		assert.Equal(t, 24, bb.Cap())
		assert.Equal(t, byte(9), bb.B[1])
		assert.Equal(t, byte(0), bb.B[23])
	})

	t.Run("negative panics", func(t *testing.T) {
		bb := NewByteBuffer(8)
		assert.Panics(t, func() { bb.SetLength(-1) })
	})
}

func TestByteBuffer_Reserve(t *testing.T) {
	bb := NewByteBuffer(16)
	bb.B = append(bb.B, []byte("xy")...)

	bb.Reserve(8)
	assert.Equal(t, 16, bb.Cap())

	bb.Reserve(64)
	assert.Equal(t, 64, bb.Cap())
	assert.Equal(t, []byte("xy"), bb.Bytes())
}

func TestByteBuffer_Write(t *testing.T) {
	bb := NewByteBuffer(4)

	n, err := bb.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, _ = bb.Write([]byte(" world"))
	assert.Equal(t, []byte("hello world"), bb.Bytes())
}

func TestByteBuffer_WriteTo(t *testing.T) {
	bb := NewByteBuffer(16)
	bb.B = append(bb.B, []byte("test data")...)

	var buf bytes.Buffer
	n, err := bb.WriteTo(&buf)

	require.NoError(t, err)
	assert.Equal(t, int64(9), n)
	assert.Equal(t, "test data", buf.String())
}

type errorWriter struct {
	err error
}

func (w *errorWriter) Write([]byte) (int, error) {
	return 0, w.err
}

func TestByteBuffer_WriteTo_ErrorPropagation(t *testing.T) {
	bb := NewByteBuffer(16)
	bb.B = append(bb.B, []byte("test")...)

	n, err := bb.WriteTo(&errorWriter{err: io.ErrShortWrite})

	assert.Equal(t, io.ErrShortWrite, err)
	assert.Equal(t, int64(0), n)
}

// =============================================================================
// ByteBufferPool Tests
// =============================================================================

func TestGetFragmentBuffer(t *testing.T) {
	bb := GetFragmentBuffer()
	require.NotNil(t, bb)
	assert.Equal(t, 0, bb.Len())
	assert.GreaterOrEqual(t, bb.Cap(), 0)
	PutFragmentBuffer(bb)
}

func TestPutFragmentBuffer_Nil(t *testing.T) {
	assert.NotPanics(t, func() { PutFragmentBuffer(nil) })
}

func TestPool_ResetsOnPut(t *testing.T) {
	p := NewByteBufferPool(64, 0)
	bb := p.Get()
	bb.B = append(bb.B, []byte("stale")...)
	p.Put(bb)

	again := p.Get()
	assert.Equal(t, 0, again.Len())
}

func TestByteBufferPool_MaxThreshold(t *testing.T) {
	p := NewByteBufferPool(64, 128)

	big := NewByteBuffer(256)
	big.B = append(big.B, 1)
	p.Put(big)
	assert.Equal(t, 1, big.Len(), "oversized buffer should not be reset or retained")

	small := NewByteBuffer(64)
	small.B = append(small.B, 1)
	p.Put(small)
	assert.Equal(t, 0, small.Len())
}

func TestPool_ConcurrentAccess(t *testing.T) {
	const numGoroutines = 32
	const numIterations = 500

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for range numGoroutines {
		go func() {
			defer wg.Done()
			for range numIterations {
				bb := GetFragmentBuffer()
				bb.SetLength(32)
				assert.Equal(t, 32, bb.Len())
				PutFragmentBuffer(bb)
			}
		}()
	}

	wg.Wait()
}
