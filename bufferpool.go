package netio

import (
	"math/bits"
	"sync"
)

// maxPooledSize is the maximum size of buffers that will be pooled.
const maxPooledSize = 64 * 1024 // 64KB

// minPooledSize is the smallest pooled size class.
const minPooledSize = 32

// bufferPool is a pool of byte slices for reuse, one sync.Pool per
// power-of-two size class.
type bufferPool struct {
	pools []*sync.Pool
}

// Global buffer pool instance.
var globalBufferPool = newBufferPool()

// newBufferPool creates a new buffer pool with size classes from 32B to 64KB.
func newBufferPool() *bufferPool {
	classes := bits.TrailingZeros(maxPooledSize) - bits.TrailingZeros(minPooledSize) + 1
	bp := &bufferPool{
		pools: make([]*sync.Pool, classes),
	}

	for i := range bp.pools {
		size := minPooledSize << uint(i) // 32, 64, 128, ..., 64KB
		bp.pools[i] = &sync.Pool{
			New: func() interface{} {
				return make([]byte, size)
			},
		}
	}

	return bp
}

// getBuffer retrieves a buffer of length exactly size.
func (bp *bufferPool) getBuffer(size int) []byte {
	if size > maxPooledSize {
		return make([]byte, size)
	}

	// Find the smallest size class that fits.
	poolIdx := 0
	poolSize := minPooledSize
	for poolSize < size {
		poolSize *= 2
		poolIdx++
	}

	buf, ok := bp.pools[poolIdx].Get().([]byte)
	if !ok || cap(buf) < size {
		buf = make([]byte, poolSize)
	}

	return buf[:size]
}

// putBuffer returns a buffer to its size-class pool. Buffers whose capacity
// is not a pooled size class are dropped for the GC to collect.
func (bp *bufferPool) putBuffer(buf []byte) {
	c := cap(buf)
	if c < minPooledSize || c > maxPooledSize || c&(c-1) != 0 {
		return
	}

	poolIdx := bits.TrailingZeros(uint(c)) - bits.TrailingZeros(minPooledSize)
	bp.pools[poolIdx].Put(buf[:c])
}

// GetBuffer retrieves a buffer of length exactly size from the global pool.
func GetBuffer(size int) []byte {
	return globalBufferPool.getBuffer(size)
}

// PutBuffer returns a buffer obtained from GetBuffer to the global pool.
func PutBuffer(buf []byte) {
	globalBufferPool.putBuffer(buf)
}
