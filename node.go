package skiplist

import "sync/atomic"

// node คือโหนดแต่ละตัวใน skiplist
// A node holds an immutable key and one forward link per level. len(next) is the node's
// height; it is fixed when the node is allocated.
type node[K any] struct {
	key  K
	next []atomic.Pointer[node[K]]
}

// Next returns the successor at the given level. The atomic load pairs with the store in SetNext,
// so a reader that observes a node also observes its key and links.
func (n *node[K]) Next(level int) *node[K] {
	return n.next[level].Load()
}

// SetNext publishes x as the successor at the given level.
func (n *node[K]) SetNext(level int, x *node[K]) {
	n.next[level].Store(x)
}

func (n *node[K]) height() int {
	return len(n.next)
}

// nodeAllocator carves nodes and their towers out of arena-charged slabs. Nothing is ever
// returned to it; the memory goes away with the SkipList and its Arena.
// nodeAllocator จัดสรรโหนดจาก slab ที่ผูกกับ Arena โดยไม่มีการคืนหน่วยความจำทีละโหนด
type nodeAllocator[K any] struct {
	nodes  *slab[node[K]]
	towers *slab[atomic.Pointer[node[K]]]
}

func newNodeAllocator[K any](a *Arena) *nodeAllocator[K] {
	return &nodeAllocator[K]{
		nodes:  newSlab[node[K]](a),
		towers: newSlab[atomic.Pointer[node[K]]](a),
	}
}

// newNode returns an unpublished node with every link nil.
func (na *nodeAllocator[K]) newNode(key K, height int) *node[K] {
	n := &na.nodes.alloc(1)[0]
	n.key = key
	n.next = na.towers.alloc(height)
	return n
}
