// Package skiplist implements an insert-only, arena-backed skiplist for the in-memory
// write buffer (MemTable) of a log-structured storage engine.
//
// A SkipList has exactly one writer: Insert must never run concurrently with another
// Insert. Any number of goroutines may call Contains, the query methods and iterators at
// the same time as the writer, without locks. Nodes are published with atomic stores and
// read with atomic loads, so a reader that reaches a node always sees it fully built.
// Nodes are never removed; their memory is charged to an Arena and released together with it.
package skiplist

import (
	"cmp"
	"iter"
	"math/rand/v2"
	"sync/atomic"

	"github.com/pkg/errors"
)

const (
	// MaxHeight is the maximum number of levels a node can have.
	// 12 levels with a branching factor of 4 comfortably cover 4^11 (about 4 million) entries.
	// MaxHeight คือจำนวนชั้นสูงสุดที่โหนดหนึ่งสามารถมีได้
	MaxHeight = 12
	// BranchingFactor is the inverse of the probability that a node reaching level i also
	// reaches level i+1.
	// BranchingFactor คือส่วนกลับของความน่าจะเป็นในการเพิ่มชั้นของโหนดใหม่ (1/4)
	BranchingFactor = 4
	// DefaultSeed seeds the height generator when WithSeed is not given.
	DefaultSeed uint64 = 0xdeadbeef

	// branchBits is log2(BranchingFactor): the number of random bits consumed per trial.
	branchBits = 2
)

// Comparator is a function that compares two keys.
// It should return:
//   - a negative value if a < b
//   - zero if a == b
//   - a positive value if a > b
//
// It must define a strict total order and must not change for the lifetime of a list.
// Comparator คือฟังก์ชันสำหรับเปรียบเทียบ key สองตัว
type Comparator[K any] func(a, b K) int

// SkipList is an ordered set of keys with a single writer and lock-free readers.
// The zero value for a SkipList is not ready to use; one of the New functions must be called.
// SkipList คือโครงสร้างหลักของ skiplist
type SkipList[K any] struct {
	compare   Comparator[K]       // ฟังก์ชันสำหรับเปรียบเทียบ key
	arena     *Arena              // Arena ที่รับผิดชอบหน่วยความจำของโหนด
	allocator *nodeAllocator[K]   // Abstraction สำหรับการจัดสรรโหนด
	head      *node[K]            // โหนดเริ่มต้น (sentinel node) สูง MaxHeight ชั้น
	maxHeight atomic.Int32        // ความสูงสูงสุดที่ใช้งานอยู่ (hint สำหรับการค้นหา)
	length    atomic.Int64        // จำนวนรายการทั้งหมดใน skiplist
	rand      *rand.Rand          // ตัวสร้างเลขสุ่มสำหรับกำหนดความสูง (writer เท่านั้น)
	writing   atomic.Bool         // single-writer guard
	prev      [MaxHeight]*node[K] // update vector reused by Insert
}

// Option is a function that configures a SkipList.
// Option คือฟังก์ชันสำหรับกำหนดค่าของ SkipList
type Option[K any] func(*SkipList[K])

// WithSeed seeds the generator that picks node heights. Lists built with the same seed
// and the same insertion sequence have identical shapes.
func WithSeed[K any](seed uint64) Option[K] {
	return func(sl *SkipList[K]) {
		sl.rand = newRand(seed)
	}
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// New creates a new skiplist for key types that implement cmp.Ordered (e.g., int, string).
// It uses cmp.Compare as the comparator. Node memory is charged to arena, which must
// outlive the list.
// New สร้าง skiplist ใหม่สำหรับ key type ที่รองรับ `cmp.Ordered`
func New[K cmp.Ordered](arena *Arena, opts ...Option[K]) *SkipList[K] {
	return NewWithComparator(cmp.Compare[K], arena, opts...)
}

// NewWithComparator creates a new skiplist ordered by compare.
// Neither compare nor arena may be nil.
// NewWithComparator สร้าง skiplist ใหม่พร้อมกับฟังก์ชันเปรียบเทียบที่กำหนดเอง
func NewWithComparator[K any](compare Comparator[K], arena *Arena, opts ...Option[K]) *SkipList[K] {
	if compare == nil {
		panic("skiplist: comparator cannot be nil")
	}
	if arena == nil {
		panic("skiplist: arena cannot be nil")
	}

	sl := &SkipList[K]{
		compare:   compare,
		arena:     arena,
		allocator: newNodeAllocator[K](arena),
		rand:      newRand(DefaultSeed),
	}
	for _, opt := range opts {
		opt(sl)
	}

	// header ไม่เก็บข้อมูลจริง แต่มีตัวชี้ครบทุกชั้น ซึ่งเริ่มต้นเป็น nil (ท้าย list)
	var zero K
	sl.head = sl.allocator.newNode(zero, MaxHeight)
	sl.maxHeight.Store(1)
	return sl
}

// randomHeight สุ่มความสูงของโหนดใหม่
func (sl *SkipList[K]) randomHeight() int {
	// Each trial looks at branchBits bits of a single 64-bit draw; all zero happens with
	// probability 1/BranchingFactor. 64 bits cover the MaxHeight-1 trials needed.
	x := sl.rand.Uint64()
	height := 1
	for height < MaxHeight && x&(BranchingFactor-1) == 0 {
		height++
		x >>= branchBits
	}
	return height
}

func (sl *SkipList[K]) currentHeight() int {
	return int(sl.maxHeight.Load())
}

// keyIsAfterNode reports whether key sorts after n's key. A nil n is the end of the list.
func (sl *SkipList[K]) keyIsAfterNode(key K, n *node[K]) bool {
	return n != nil && sl.compare(n.key, key) < 0
}

// findGreaterOrEqual returns the first node whose key is >= key, or nil.
// If prev is not nil, prev[i] is set to the last node before key at every level
// below the current height.
func (sl *SkipList[K]) findGreaterOrEqual(key K, prev []*node[K]) *node[K] {
	x := sl.head
	level := sl.currentHeight() - 1
	for {
		next := x.Next(level)
		if sl.keyIsAfterNode(key, next) {
			// วิ่งไปข้างหน้าในชั้นปัจจุบัน
			x = next
			continue
		}
		if prev != nil {
			prev[level] = x
		}
		if level == 0 {
			return next
		}
		level--
	}
}

// findLessThan returns the last node whose key is < key, or head if there is none.
func (sl *SkipList[K]) findLessThan(key K) *node[K] {
	x := sl.head
	level := sl.currentHeight() - 1
	for {
		next := x.Next(level)
		if next != nil && sl.compare(next.key, key) < 0 {
			x = next
			continue
		}
		if level == 0 {
			return x
		}
		level--
	}
}

// findLast returns the last node in the list, or head if the list is empty.
func (sl *SkipList[K]) findLast() *node[K] {
	x := sl.head
	level := sl.currentHeight() - 1
	for {
		if next := x.Next(level); next != nil {
			x = next
			continue
		}
		if level == 0 {
			return x
		}
		level--
	}
}

// Insert เพิ่ม key ใหม่เข้าไปใน skiplist
// Insert adds key to the list. If an equal key is already present it returns an error
// matching ErrDuplicateKey and leaves the list untouched.
//
// Insert must not be called concurrently with itself; it panics if it detects another
// Insert in progress. Readers may run at the same time.
func (sl *SkipList[K]) Insert(key K) error {
	if !sl.writing.CompareAndSwap(false, true) {
		panic("skiplist: concurrent Insert calls; a SkipList supports a single writer")
	}
	defer sl.writing.Store(false)

	prev := sl.prev[:]
	defer clear(prev)
	x := sl.findGreaterOrEqual(key, prev)
	if x != nil && sl.compare(key, x.key) == 0 {
		return errors.WithStack(ErrDuplicateKey)
	}

	height := sl.randomHeight()
	if current := sl.currentHeight(); height > current {
		// ชั้นใหม่ยังไม่มีโหนดจริง ดังนั้นโหนดก่อนหน้าคือ header
		for i := current; i < height; i++ {
			prev[i] = sl.head
		}
		// Readers that still see the old height simply search fewer levels. Those that see
		// the new one find nil at head's fresh levels until the links below are published.
		sl.maxHeight.Store(int32(height))
	}

	x = sl.allocator.newNode(key, height)
	for i := 0; i < height; i++ {
		// x is not reachable yet, so its own links can be set in any order; publishing it
		// into prev[i] comes second.
		x.SetNext(i, prev[i].Next(i))
		prev[i].SetNext(i, x)
	}
	sl.length.Add(1)
	return nil
}

// Contains reports whether a key equal to key is in the list.
func (sl *SkipList[K]) Contains(key K) bool {
	x := sl.findGreaterOrEqual(key, nil)
	return x != nil && sl.compare(key, x.key) == 0
}

// Len คืนค่าจำนวนรายการทั้งหมดใน skiplist
// Len returns the number of keys inserted so far.
func (sl *SkipList[K]) Len() int {
	return int(sl.length.Load())
}

// Height returns the current height hint: the tallest level in use.
func (sl *SkipList[K]) Height() int {
	return sl.currentHeight()
}

// Arena returns the arena the list charges its nodes to.
func (sl *SkipList[K]) Arena() *Arena {
	return sl.arena
}

// Min คืนค่า key ที่น้อยที่สุดใน skiplist
// Min returns the smallest key, or false if the list is empty.
func (sl *SkipList[K]) Min() (K, bool) {
	return sl.keyOf(sl.head.Next(0))
}

// Max คืนค่า key ที่มากที่สุดใน skiplist
// Max returns the largest key, or false if the list is empty.
func (sl *SkipList[K]) Max() (K, bool) {
	return sl.keyOf(sl.nodeOrNil(sl.findLast()))
}

// Seek returns the smallest key greater than or equal to key.
// Seek ค้นหา key แรกที่มากกว่าหรือเท่ากับ key ที่กำหนด
func (sl *SkipList[K]) Seek(key K) (K, bool) {
	return sl.keyOf(sl.findGreaterOrEqual(key, nil))
}

// Predecessor returns the largest key strictly smaller than key.
// Predecessor คือ key ที่มากที่สุดซึ่งน้อยกว่า key ที่กำหนด
func (sl *SkipList[K]) Predecessor(key K) (K, bool) {
	return sl.keyOf(sl.nodeOrNil(sl.findLessThan(key)))
}

// Successor returns the smallest key strictly greater than key.
// Successor คือ key ที่น้อยที่สุดที่มากกว่า key ที่กำหนด
func (sl *SkipList[K]) Successor(key K) (K, bool) {
	x := sl.findGreaterOrEqual(key, nil)
	if x != nil && sl.compare(x.key, key) == 0 {
		x = x.Next(0)
	}
	return sl.keyOf(x)
}

// CountRange counts the keys between start and end, both inclusive.
// CountRange นับจำนวนรายการที่ key อยู่ระหว่าง start และ end (รวมทั้งสองค่า)
func (sl *SkipList[K]) CountRange(start, end K) int {
	if sl.compare(start, end) > 0 {
		return 0
	}
	count := 0
	for x := sl.findGreaterOrEqual(start, nil); x != nil && sl.compare(x.key, end) <= 0; x = x.Next(0) {
		count++
	}
	return count
}

// Range calls f for every key in ascending order until f returns false.
// Keys inserted while Range runs may or may not be visited.
// Range วนลูปไปตามรายการทั้งหมดใน skiplist ตามลำดับ key
func (sl *SkipList[K]) Range(f func(key K) bool) {
	for x := sl.head.Next(0); x != nil; x = x.Next(0) {
		if !f(x.key) {
			return
		}
	}
}

// RangeQuery calls f for every key between start and end (inclusive) in ascending order
// until f returns false.
// RangeQuery วนลูปไปตามรายการที่ key อยู่ระหว่าง start และ end (รวมทั้งสองค่า)
func (sl *SkipList[K]) RangeQuery(start, end K, f func(key K) bool) {
	for x := sl.findGreaterOrEqual(start, nil); x != nil && sl.compare(x.key, end) <= 0; x = x.Next(0) {
		if !f(x.key) {
			return
		}
	}
}

// All returns an iterator over the keys in ascending order.
func (sl *SkipList[K]) All() iter.Seq[K] {
	return sl.Range
}

// Backward returns an iterator over the keys in descending order. Each step costs a
// search from the top, since nodes carry no backward links.
func (sl *SkipList[K]) Backward() iter.Seq[K] {
	return func(yield func(K) bool) {
		it := sl.NewIterator()
		for it.SeekToLast(); it.Valid(); it.Prev() {
			if !yield(it.Key()) {
				return
			}
		}
	}
}

// nodeOrNil maps the head sentinel to nil.
func (sl *SkipList[K]) nodeOrNil(x *node[K]) *node[K] {
	if x == sl.head {
		return nil
	}
	return x
}

func (sl *SkipList[K]) keyOf(x *node[K]) (K, bool) {
	if x == nil {
		var zero K
		return zero, false
	}
	return x.key, true
}
