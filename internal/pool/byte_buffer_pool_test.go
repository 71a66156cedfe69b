package pool

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewByteBuffer(t *testing.T) {
	bb := NewByteBuffer(1024)

	require.NotNil(t, bb)
	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, 1024, cap(bb.B))
}

func TestByteBuffer_Writes(t *testing.T) {
	bb := NewByteBuffer(LineBufferDefaultSize)

	bb.MustWrite([]byte("hello"))
	bb.WriteString(" ")
	n, err := bb.Write([]byte("world"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello world", string(bb.Bytes()))

	var out bytes.Buffer
	written, err := bb.WriteTo(&out)
	require.NoError(t, err)
	assert.Equal(t, int64(11), written)
	assert.Equal(t, "hello world", out.String())
}

func TestByteBuffer_Reset(t *testing.T) {
	bb := NewByteBuffer(LineBufferDefaultSize)
	bb.WriteString("some data")
	originalCap := cap(bb.B)

	bb.Reset()

	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, originalCap, cap(bb.B))
}

func TestByteBufferPool_ReusesResetBuffers(t *testing.T) {
	p := NewByteBufferPool(64, 1024)

	bb := p.Get()
	bb.WriteString("leftover")
	p.Put(bb)

	got := p.Get()
	assert.Equal(t, 0, got.Len(), "buffers from the pool must be empty")
}

func TestByteBufferPool_DropsOversized(t *testing.T) {
	p := NewByteBufferPool(16, 32)

	bb := p.Get()
	bb.MustWrite(make([]byte, 100))
	p.Put(bb)

	got := p.Get()
	assert.LessOrEqual(t, cap(got.B), 32)
}

func TestByteBufferPool_PutNil(t *testing.T) {
	p := NewByteBufferPool(16, 32)
	require.NotPanics(t, func() { p.Put(nil) })
}

func TestLineBufferPoolConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				bb := GetLineBuffer()
				bb.WriteString("line")
				assert.Equal(t, 4, bb.Len(), "goroutine %d", id)
				PutLineBuffer(bb)
			}
		}(i)
	}
	wg.Wait()
}
