//go:build windows

package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

// bufferClass categorizes buffers by size for pooling.
type bufferClass int

const (
	smallBuffers  bufferClass = iota // < 4KB
	mediumBuffers                    // 4KB to 1MB
	largeBuffers                     // >= 1MB
	numBufferClasses
)

const (
	smallThreshold  = 4 * 1024    // 4KB
	mediumThreshold = 1024 * 1024 // 1MB
	maxPoolSize     = 100         // max buffers per class
)

// pooledBuffer wraps a GPU buffer with the metadata needed to match it
// against later acquire requests.
type pooledBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
	usage  wgpu.BufferUsage
}

// BufferPool recycles GPU buffers to reduce allocation overhead. Result and
// staging buffers churn once per dispatched operation, so reuse matters.
type BufferPool struct {
	device *wgpu.Device

	pools [numBufferClasses][]pooledBuffer
	mu    sync.Mutex

	// Statistics
	totalAllocated uint64
	totalReleased  uint64
	poolHits       uint64
	poolMisses     uint64
}

// NewBufferPool creates a new buffer pool for the given device.
func NewBufferPool(device *wgpu.Device) *BufferPool {
	return &BufferPool{device: device}
}

// Acquire gets a buffer from the pool or creates a new one.
// The returned buffer matches or exceeds the requested size and carries at
// least the requested usage flags.
func (p *BufferPool) Acquire(size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	class := classify(size)
	pool := p.pools[class]

	for i, pb := range pool {
		if pb.size >= size && pb.usage&usage == usage {
			buffer := pb.buffer
			p.pools[class] = append(pool[:i], pool[i+1:]...)
			p.poolHits++
			return buffer
		}
	}

	p.poolMisses++
	p.totalAllocated++

	return p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: usage,
		Size:  size,
	})
}

// Release returns a buffer to the pool for reuse.
// If the pool class is full, the buffer is released immediately.
func (p *BufferPool) Release(buffer *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.totalReleased++

	class := classify(size)
	if len(p.pools[class]) >= maxPoolSize {
		buffer.Release()
		return
	}

	p.pools[class] = append(p.pools[class], pooledBuffer{
		buffer: buffer,
		size:   size,
		usage:  usage,
	})
}

// Clear releases all pooled buffers.
// Should be called when the backend is released.
func (p *BufferPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for class := range p.pools {
		for _, pb := range p.pools[class] {
			pb.buffer.Release()
		}
		p.pools[class] = p.pools[class][:0]
	}
}

// Stats returns statistics about buffer pool usage.
func (p *BufferPool) Stats() (allocated, released, hits, misses uint64, pooledCount int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for class := range p.pools {
		pooledCount += len(p.pools[class])
	}
	return p.totalAllocated, p.totalReleased, p.poolHits, p.poolMisses, pooledCount
}

// classify determines the size class for a buffer.
func classify(size uint64) bufferClass {
	if size < smallThreshold {
		return smallBuffers
	}
	if size < mediumThreshold {
		return mediumBuffers
	}
	return largeBuffers
}
