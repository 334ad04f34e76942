package skiplist

// Iterator is a read-only cursor over a SkipList.
// The typical use is:
//
//	it := sl.NewIterator()
//	for it.SeekToFirst(); it.Valid(); it.Next() {
//		key := it.Key()
//		// ...
//	}
//
// Iterator คือโครงสร้างที่ใช้สำหรับวนลูปผ่านรายการใน Skiplist
// An iterator holds no locks and allocates nothing; it may be used while the list's writer
// is inserting. It is either positioned on a key or invalid (before the first key or past
// the last one, which are not distinguished). Copying an Iterator value yields an
// independent cursor.
type Iterator[K any] struct {
	sl      *SkipList[K] // อ้างอิงถึง Skiplist ที่กำลังวนลูป
	current *node[K]     // โหนดปัจจุบันที่ Iterator ชี้อยู่ (nil = ไม่ valid)
}

// NewIterator creates an iterator that is not positioned yet.
// One of the Seek methods must be called before it becomes valid.
// NewIterator สร้าง Iterator ใหม่ที่ยังไม่ชี้ไปยังรายการใด
func (sl *SkipList[K]) NewIterator() *Iterator[K] {
	return &Iterator[K]{sl: sl}
}

// Valid reports whether the iterator is positioned on a key.
func (it *Iterator[K]) Valid() bool {
	return it.current != nil
}

// Key returns the key at the current position. It panics if the iterator is not valid.
// Key คืนค่า key ของรายการปัจจุบันที่ Iterator ชี้อยู่
func (it *Iterator[K]) Key() K {
	it.mustBeValid("Key")
	return it.current.key
}

// Next moves to the following key; the iterator becomes invalid after the last one.
// It panics if the iterator is not valid.
// Next เลื่อน Iterator ไปยังรายการถัดไป
func (it *Iterator[K]) Next() {
	it.mustBeValid("Next")
	it.current = it.current.Next(0)
}

// Prev moves to the preceding key; the iterator becomes invalid before the first one.
// Nodes have no backward links, so Prev searches for the last key smaller than the current
// one. It panics if the iterator is not valid.
// Prev เลื่อน Iterator ไปยังรายการก่อนหน้า
func (it *Iterator[K]) Prev() {
	it.mustBeValid("Prev")
	it.current = it.sl.nodeOrNil(it.sl.findLessThan(it.current.key))
}

// Seek positions the iterator on the first key greater than or equal to target.
// Seek เลื่อน Iterator ไปยังรายการแรกที่มี key เท่ากับหรือมากกว่า target
func (it *Iterator[K]) Seek(target K) {
	it.current = it.sl.findGreaterOrEqual(target, nil)
}

// SeekForPrev positions the iterator on the last key less than or equal to target.
func (it *Iterator[K]) SeekForPrev(target K) {
	x := it.sl.findGreaterOrEqual(target, nil)
	if x != nil && it.sl.compare(x.key, target) == 0 {
		it.current = x
		return
	}
	it.current = it.sl.nodeOrNil(it.sl.findLessThan(target))
}

// SeekToFirst positions the iterator on the first key, if any.
// SeekToFirst เลื่อน Iterator ไปยังรายการแรกใน Skiplist
func (it *Iterator[K]) SeekToFirst() {
	it.current = it.sl.head.Next(0)
}

// SeekToLast positions the iterator on the last key, if any.
// SeekToLast เลื่อน Iterator ไปยังรายการสุดท้ายใน Skiplist
func (it *Iterator[K]) SeekToLast() {
	it.current = it.sl.nodeOrNil(it.sl.findLast())
}

// Clone creates an independent copy of the iterator at its current position.
// Clone สร้างสำเนาของ Iterator ณ ตำแหน่งปัจจุบัน
func (it *Iterator[K]) Clone() *Iterator[K] {
	c := *it
	return &c
}

func (it *Iterator[K]) mustBeValid(op string) {
	if it.current == nil {
		panic("skiplist: Iterator." + op + " called on an invalid iterator")
	}
}
