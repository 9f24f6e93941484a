// Package arena implements a bump-allocated memory region whose contents are
// freed as a single unit. It is the allocator consumed by both the value
// engine (internal/value, internal/patch) and the HTTP/1 connection core
// (internal/h1): every byte handed out by an Arena stays valid until the
// Arena itself is reset or dropped, and there is no per-value free.
package arena

const defaultBlockSize = 4096

// Arena is a single-threaded bump allocator. Allocations are served from the
// current block; once a block is full a new one is appended. Nothing is ever
// returned to the runtime until Reset or the Arena is left for GC, which
// mirrors the source's single-shot release discipline.
type Arena struct {
	blocks   [][]byte
	cur      int // index into blocks of the block currently being filled
	off      int // offset into blocks[cur]
	used     int // bytes handed out via Get/Align/ZGet
	accBytes int // bytes accounted for out-of-band (typed slice) allocations
	limit    int // 0 means unbounded
	blockSz  int
}

// New creates an Arena that grows in blockSize chunks. A blockSize <= 0 uses
// a sane default.
func New(blockSize int) *Arena {
	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}
	a := &Arena{blockSz: blockSize}
	a.blocks = append(a.blocks, make([]byte, blockSize))
	return a
}

// WithLimit caps the total number of bytes (raw + accounted) the Arena will
// hand out before Get/Align/ZGet/Account start failing. Used by the HTTP
// core to bound per-connection header/body memory.
func WithLimit(blockSize, limit int) *Arena {
	a := New(blockSize)
	a.limit = limit
	return a
}

func (a *Arena) totalUsed() int { return a.used + a.accBytes }

func (a *Arena) withinLimit(n int) bool {
	return a.limit == 0 || a.totalUsed()+n <= a.limit
}

// Get returns n zeroed bytes from the arena. The returned slice is valid
// until the Arena is reset. Returns nil if n exceeds a configured limit.
func (a *Arena) Get(n int) []byte {
	if n <= 0 {
		return nil
	}
	if !a.withinLimit(n) {
		return nil
	}
	if n > a.blockSz {
		// Oversize allocation: give it its own dedicated block so the bump
		// cursor for the regular block chain is undisturbed.
		b := make([]byte, n)
		a.blocks = append(a.blocks, b)
		a.used += n
		return b
	}
	cur := a.blocks[a.cur]
	if a.off+n > len(cur) {
		a.blocks = append(a.blocks, make([]byte, a.blockSz))
		a.cur = len(a.blocks) - 1
		a.off = 0
		cur = a.blocks[a.cur]
	}
	b := cur[a.off : a.off+n : a.off+n]
	a.off += n
	a.used += n
	return b
}

// ZGet is Get with an explicit name matching the external arena interface;
// blocks are already zeroed by make, so it behaves identically to Get.
func (a *Arena) ZGet(n int) []byte { return a.Get(n) }

// Align returns n bytes whose start offset within the current block is a
// multiple of 8, padding the bump cursor forward if required.
func (a *Arena) Align(n int) []byte {
	const alignment = 8
	if pad := a.off % alignment; pad != 0 {
		a.off += alignment - pad
	}
	return a.Get(n)
}

// Free is a no-op: this is a bump pool, individual allocations are never
// reclaimed. It exists to satisfy the consumed arena interface described by
// the specification.
func (a *Arena) Free(_ []byte) {}

// Account records n bytes consumed by an allocation made outside Get/Align
// (for example a typed []value.Value or []value.Member slice backed by the
// Go heap rather than by an arena byte block), so that diffing Used before
// and after a patch shows whether unmodified subtrees were re-accounted.
func (a *Arena) Account(n int) bool {
	if n <= 0 {
		return true
	}
	if !a.withinLimit(n) {
		return false
	}
	a.accBytes += n
	return true
}

// Used reports the total number of bytes the Arena has handed out or had
// accounted against it.
func (a *Arena) Used() int { return a.totalUsed() }

// Reset returns the Arena to an empty state, retaining its first block for
// reuse. Used by arena Pools to recycle Arenas across connections/requests.
func (a *Arena) Reset() {
	if len(a.blocks) > 1 {
		a.blocks = a.blocks[:1]
	}
	for i := range a.blocks[0] {
		a.blocks[0][i] = 0
	}
	a.cur = 0
	a.off = 0
	a.used = 0
	a.accBytes = 0
}
