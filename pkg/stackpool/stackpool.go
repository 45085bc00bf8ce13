// SPDX-License-Identifier: Apache-2.0

// Package stackpool pools the fixed-size stack buffers rtcore allocates for
// realtime tasks, keyed by requested stack size, so repeated task
// creation/deletion cycles on the same size class don't churn the
// allocator.
package stackpool

import (
	"context"
	"sync"
	"time"

	"github.com/rtcore-project/rtcore/pkg/logging"
)

// BufferPool manages pooled stack buffers grouped by size class.
type BufferPool struct {
	mu      sync.RWMutex
	classes map[int]*pooledClass
	config  *Config
	logger  logging.Logger
}

// pooledClass tracks the buffers available for one stack size and usage
// statistics for that class.
type pooledClass struct {
	free        [][]byte
	created     time.Time
	lastUsed    time.Time
	useCount    int64
	activeCount int32
}

// Config holds configuration for the stack buffer pool.
type Config struct {
	// MaxFreePerClass bounds how many unused buffers of one size class are
	// kept ready for reuse.
	MaxFreePerClass int

	// MinStackSize is the smallest buffer size ever handed out.
	MinStackSize int
}

// DefaultConfig returns a pool configuration sized for rtcore's default
// 64-task table.
func DefaultConfig() *Config {
	return &Config{
		MaxFreePerClass: 16,
		MinStackSize:    16 * 1024,
	}
}

// NewBufferPool creates a new stack buffer pool.
func NewBufferPool(config *Config, logger logging.Logger) *BufferPool {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	return &BufferPool{
		classes: make(map[int]*pooledClass),
		config:  config,
		logger:  logger,
	}
}

// classSize rounds a requested stack size up to the pool's floor.
func (p *BufferPool) classSize(size int) int {
	if size < p.config.MinStackSize {
		return p.config.MinStackSize
	}
	return size
}

// Get returns a zeroed buffer of at least the requested size, reusing a
// pooled one if the size class has one free.
func (p *BufferPool) Get(size int) []byte {
	class := p.classSize(size)

	p.mu.Lock()
	defer p.mu.Unlock()

	pc, exists := p.classes[class]
	if !exists {
		pc = &pooledClass{created: time.Now()}
		p.classes[class] = pc
	}

	pc.lastUsed = time.Now()
	pc.useCount++
	pc.activeCount++

	if n := len(pc.free); n > 0 {
		buf := pc.free[n-1]
		pc.free = pc.free[:n-1]
		clear(buf)
		return buf
	}

	p.logger.Debug("allocated new stack buffer", "size", class)
	return make([]byte, class)
}

// Put returns a buffer to its size class's free list. Buffers whose size
// doesn't match a tracked class (e.g. a stack allocated before the pool
// existed) are dropped.
func (p *BufferPool) Put(buf []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	class := len(buf)
	pc, exists := p.classes[class]
	if !exists {
		return
	}

	pc.activeCount--
	if len(pc.free) >= p.config.MaxFreePerClass {
		return
	}
	pc.free = append(pc.free, buf)
}

// Stats returns statistics about the buffer pool.
func (p *BufferPool) Stats() PoolStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	stats := PoolStats{
		TotalClasses: len(p.classes),
		ClassStats:   make(map[int]ClassStats),
	}

	for size, pc := range p.classes {
		stats.ClassStats[size] = ClassStats{
			Created:     pc.created,
			LastUsed:    pc.lastUsed,
			UseCount:    pc.useCount,
			ActiveCount: pc.activeCount,
			FreeCount:   len(pc.free),
		}
	}

	return stats
}

// CleanupIdleClasses drops free buffers for size classes that haven't been
// touched recently and have nothing active.
func (p *BufferPool) CleanupIdleClasses(maxIdleTime time.Duration) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-maxIdleTime)

	for size, pc := range p.classes {
		if pc.lastUsed.Before(cutoff) && pc.activeCount == 0 {
			delete(p.classes, size)
			removed++

			p.logger.Info("dropped idle stack buffer class",
				"size", size,
				"idle_duration", time.Since(pc.lastUsed),
			)
		}
	}

	return removed
}

// PoolStats contains statistics about the buffer pool.
type PoolStats struct {
	TotalClasses int
	ClassStats   map[int]ClassStats
}

// ClassStats contains statistics for a single size class.
type ClassStats struct {
	Created     time.Time
	LastUsed    time.Time
	UseCount    int64
	ActiveCount int32
	FreeCount   int
}

// Janitor periodically cleans up idle size classes in the background,
// mirroring the pool's own start/stop lifecycle.
type Janitor struct {
	pool            *BufferPool
	cleanupInterval time.Duration
	maxIdleTime     time.Duration
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	logger          logging.Logger
}

// NewJanitor creates a new idle-class janitor for the given pool.
func NewJanitor(pool *BufferPool, logger logging.Logger) *Janitor {
	ctx, cancel := context.WithCancel(context.Background())

	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	return &Janitor{
		pool:            pool,
		cleanupInterval: 5 * time.Minute,
		maxIdleTime:     15 * time.Minute,
		ctx:             ctx,
		cancel:          cancel,
		logger:          logger,
	}
}

// Start begins the janitor's background cleanup loop.
func (j *Janitor) Start() {
	j.wg.Add(1)
	go j.run()
}

// Stop stops the janitor and waits for its goroutine to exit.
func (j *Janitor) Stop() {
	j.cancel()
	j.wg.Wait()
}

func (j *Janitor) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := j.pool.CleanupIdleClasses(j.maxIdleTime)
			if removed > 0 {
				j.logger.Info("cleaned up idle stack buffer classes", "removed", removed)
			}
		case <-j.ctx.Done():
			return
		}
	}
}
