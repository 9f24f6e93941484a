package arena

import (
	"sync"
	"time"
)

// pooledArena pairs a reusable Arena with the time it was released, so the
// reaper can trim entries that have sat idle too long.
type pooledArena struct {
	a        *Arena
	released time.Time
}

// Pool recycles Arenas of a fixed block size, the same way the connection
// pool recycles dialed sockets: Acquire hands back an idle Arena if one is
// available, otherwise it creates one; Release resets and returns it unless
// the pool is already at capacity, in which case it is simply dropped for
// the garbage collector.
type Pool struct {
	mu        sync.Mutex
	idle      []pooledArena
	blockSize int
	maxIdle   int
	idleTTL   time.Duration
	closing   chan struct{}
	closeOnce sync.Once
}

// NewPool creates an Arena pool. blockSize sizes each Arena's growth chunk,
// maxIdle bounds how many idle Arenas are retained, and idleTTL is how long
// an idle Arena may sit before the background reaper drops it.
func NewPool(blockSize, maxIdle int, idleTTL time.Duration) *Pool {
	p := &Pool{
		blockSize: blockSize,
		maxIdle:   maxIdle,
		idleTTL:   idleTTL,
		closing:   make(chan struct{}),
	}
	if idleTTL > 0 {
		go p.reap()
	}
	return p
}

// Acquire returns an Arena ready for use, either recycled from the idle list
// or freshly allocated.
func (p *Pool) Acquire() *Arena {
	p.mu.Lock()
	n := len(p.idle)
	if n > 0 {
		pa := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return pa.a
	}
	p.mu.Unlock()
	return New(p.blockSize)
}

// Release resets a and returns it to the pool, unless the pool is already
// full, in which case a is left for the garbage collector.
func (p *Pool) Release(a *Arena) {
	if a == nil {
		return
	}
	a.Reset()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.maxIdle > 0 && len(p.idle) >= p.maxIdle {
		return
	}
	p.idle = append(p.idle, pooledArena{a: a, released: time.Now()})
}

// Idle reports how many Arenas are currently held idle.
func (p *Pool) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

// Close stops the background reaper. Idle Arenas are left for the garbage
// collector.
func (p *Pool) Close() {
	p.closeOnce.Do(func() { close(p.closing) })
}

func (p *Pool) reap() {
	ticker := time.NewTicker(p.idleTTL)
	defer ticker.Stop()
	for {
		select {
		case <-p.closing:
			return
		case now := <-ticker.C:
			p.mu.Lock()
			kept := p.idle[:0]
			for _, pa := range p.idle {
				if now.Sub(pa.released) < p.idleTTL {
					kept = append(kept, pa)
				}
			}
			p.idle = kept
			p.mu.Unlock()
		}
	}
}
