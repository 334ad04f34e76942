package skiplist

import (
	"sync/atomic"
	"unsafe"

	"go.uber.org/zap"
)

// DefaultBlockSize is the size of a standard arena block in bytes.
const DefaultBlockSize = 4096

// alignment is the boundary honoured by AllocateAligned: pointer size, but never less than 8.
const alignment = max(int(unsafe.Sizeof(uintptr(0))), 8)

// blockOverhead is what every block costs on top of its payload (the slice header kept in blocks).
const blockOverhead = uint64(unsafe.Sizeof([]byte(nil)))

// Arena is a bump-pointer allocator that hands out memory from a growing set of blocks.
// Individual allocations are never freed; every block lives as long as the Arena does, so
// memory returned by it never moves.
// Arena คือ Allocator แบบ bump-pointer ที่จัดสรรหน่วยความจำจากบล็อกที่เพิ่มขึ้นเรื่อยๆ
// หน่วยความจำจะไม่ถูกคืนทีละชิ้น แต่จะถูกคืนพร้อมกันทั้งหมดเมื่อ Arena ไม่ถูกใช้งานแล้ว
//
// An Arena is not safe for concurrent allocation. In this package the single writer of a
// SkipList is its only allocator; MemoryUsage and NumBlocks may be read from any goroutine.
type Arena struct {
	blockSize int
	remaining []byte   // unused tail of the current standard block
	blocks    [][]byte // byte blocks owned by the arena
	usage     atomic.Uint64
	numBlocks atomic.Int64
	logger    *zap.Logger
}

// ArenaOption configures an Arena.
type ArenaOption func(*Arena)

// WithBlockSize sets the size of a standard block. Non-positive sizes are ignored.
func WithBlockSize(n int) ArenaOption {
	return func(a *Arena) {
		if n > 0 {
			a.blockSize = n
		}
	}
}

// WithLogger makes the arena report every block it creates at debug level.
func WithLogger(l *zap.Logger) ArenaOption {
	return func(a *Arena) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewArena สร้าง Arena ใหม่
// NewArena creates an empty arena. No block is allocated until the first request.
func NewArena(opts ...ArenaOption) *Arena {
	a := &Arena{
		blockSize: DefaultBlockSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Allocate returns n fresh bytes. The slice's capacity equals its length.
// It panics if n is not positive.
func (a *Arena) Allocate(n int) []byte {
	if n <= 0 {
		panic("skiplist (arena): allocation size must be positive")
	}
	if n <= len(a.remaining) {
		b := a.remaining[:n:n]
		a.remaining = a.remaining[n:]
		return b
	}
	return a.allocateFallback(n)
}

// AllocateAligned is like Allocate, but the first byte of the result sits on an
// address that is a multiple of the machine pointer size (at least 8).
func (a *Arena) AllocateAligned(n int) []byte {
	if n <= 0 {
		panic("skiplist (arena): allocation size must be positive")
	}
	slop := 0
	if len(a.remaining) > 0 {
		if mod := int(uintptr(unsafe.Pointer(&a.remaining[0])) & uintptr(alignment-1)); mod != 0 {
			slop = alignment - mod
		}
	}
	needed := n + slop
	var b []byte
	if needed <= len(a.remaining) {
		b = a.remaining[slop:needed:needed]
		a.remaining = a.remaining[needed:]
	} else {
		// New blocks always start aligned.
		b = a.allocateFallback(n)
	}
	if uintptr(unsafe.Pointer(&b[0]))&uintptr(alignment-1) != 0 {
		panic("skiplist (arena): misaligned allocation")
	}
	return b
}

// MemoryUsage returns the total number of bytes reserved by the arena, including blocks
// created for typed node storage. The value is advisory: callers use it to decide when the
// structure should be frozen and flushed.
// MemoryUsage คืนค่าจำนวน byte ทั้งหมดที่ Arena จองไว้
func (a *Arena) MemoryUsage() uint64 {
	return a.usage.Load()
}

// NumBlocks returns how many blocks the arena has created so far.
func (a *Arena) NumBlocks() int {
	return int(a.numBlocks.Load())
}

// dedicated reports whether a request of the given size gets its own block instead of
// starting a new standard one. Large requests would waste most of a fresh block.
func (a *Arena) dedicated(bytes int) bool {
	return bytes > a.blockSize/4
}

func (a *Arena) allocateFallback(n int) []byte {
	if a.dedicated(n) {
		// The current block keeps serving small requests.
		return a.allocateNewBlock(n)
	}
	// Whatever is left in the current block is abandoned.
	block := a.allocateNewBlock(a.blockSize)
	a.remaining = block[n:]
	return block[:n:n]
}

func (a *Arena) allocateNewBlock(size int) []byte {
	// Rounding the capacity up keeps small blocks out of the runtime's byte-aligned
	// tiny allocator.
	block := make([]byte, size, alignUp(size, alignment))
	a.blocks = append(a.blocks, block)
	a.charge(cap(block), "bytes")
	return block[:size:size]
}

// charge accounts for a block created on behalf of this arena.
func (a *Arena) charge(bytes int, kind string) {
	usage := a.usage.Add(uint64(bytes) + blockOverhead)
	blocks := a.numBlocks.Add(1)
	a.logger.Debug("arena: new block",
		zap.String("kind", kind),
		zap.Int("bytes", bytes),
		zap.Int64("blocks", blocks),
		zap.Uint64("usage", usage),
	)
}

// alignUp rounds n up to a multiple of align, which must be a power of two.
func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// slab is a typed companion of Arena: it bump-allocates runs of T from blocks that follow
// the arena's block size and fallback policy and are charged to the arena. Node structs and
// forward-pointer towers hold Go pointers, so they must live in typed memory the garbage
// collector can scan rather than in the arena's byte blocks.
type slab[T any] struct {
	arena     *Arena
	perBlock  int
	elemBytes int
	free      []T
	blocks    [][]T
}

func newSlab[T any](a *Arena) *slab[T] {
	var zero T
	size := max(int(unsafe.Sizeof(zero)), 1)
	return &slab[T]{
		arena:     a,
		perBlock:  max(a.blockSize/size, 1),
		elemBytes: size,
	}
}

// alloc returns n zeroed, contiguous values of T.
func (s *slab[T]) alloc(n int) []T {
	if n <= len(s.free) {
		r := s.free[:n:n]
		s.free = s.free[n:]
		return r
	}
	if s.arena.dedicated(n * s.elemBytes) {
		return s.newBlock(n)
	}
	block := s.newBlock(s.perBlock)
	s.free = block[n:]
	return block[:n:n]
}

func (s *slab[T]) newBlock(n int) []T {
	block := make([]T, n)
	s.blocks = append(s.blocks, block)
	s.arena.charge(n*s.elemBytes, "typed")
	return block
}
