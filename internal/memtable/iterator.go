package memtable

import skiplist "github.com/INLOpen/memskiplist"

// Iterator walks a Table's entries in key order. It is a thin decoding layer
// over a skiplist iterator and has the same positioning rules.
type Iterator struct {
	it *skiplist.Iterator[[]byte]
}

// NewIterator returns an unpositioned iterator over t.
func (t *Table) NewIterator() *Iterator {
	return &Iterator{it: t.list.NewIterator()}
}

// Valid reports whether the iterator is positioned on an entry.
func (i *Iterator) Valid() bool { return i.it.Valid() }

// Next moves to the following entry. It panics if the iterator is not valid.
func (i *Iterator) Next() { i.it.Next() }

// Prev moves to the preceding entry. It panics if the iterator is not valid.
func (i *Iterator) Prev() { i.it.Prev() }

// SeekToFirst positions the iterator on the first entry, if any.
func (i *Iterator) SeekToFirst() { i.it.SeekToFirst() }

// SeekToLast positions the iterator on the last entry, if any.
func (i *Iterator) SeekToLast() { i.it.SeekToLast() }

// Seek positions the iterator at the first entry whose key is >= key.
func (i *Iterator) Seek(key []byte) {
	i.it.Seek(lookupKey(key))
}

// Key returns the current entry's key. It panics if the iterator is not valid.
func (i *Iterator) Key() []byte {
	k, _ := decodeEntry(i.it.Key())
	return k
}

// Value returns the current entry's value. It panics if the iterator is not valid.
func (i *Iterator) Value() []byte {
	_, v := decodeEntry(i.it.Key())
	return v
}
