package skiplist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIteratorFixture(t *testing.T) *SkipList[int] {
	t.Helper()
	sl := newIntList(t)
	for _, k := range []int{30, 10, 40, 20} {
		require.NoError(t, sl.Insert(k))
	}
	return sl
}

func TestIterator_Forward(t *testing.T) {
	sl := newIteratorFixture(t)
	it := sl.NewIterator()

	var got []int
	for it.SeekToFirst(); it.Valid(); it.Next() {
		got = append(got, it.Key())
	}
	assert.Equal(t, []int{10, 20, 30, 40}, got)
	assert.False(t, it.Valid(), "iterator should be exhausted after the last key")
}

func TestIterator_Backward(t *testing.T) {
	sl := newIteratorFixture(t)
	it := sl.NewIterator()

	var got []int
	for it.SeekToLast(); it.Valid(); it.Prev() {
		got = append(got, it.Key())
	}
	assert.Equal(t, []int{40, 30, 20, 10}, got)
}

func TestIterator_Seek(t *testing.T) {
	sl := newIteratorFixture(t)
	it := sl.NewIterator()

	tests := []struct {
		target int
		want   int
		valid  bool
	}{
		{target: 0, want: 10, valid: true},
		{target: 10, want: 10, valid: true},
		{target: 15, want: 20, valid: true},
		{target: 40, want: 40, valid: true},
		{target: 41, valid: false},
	}
	for _, tt := range tests {
		it.Seek(tt.target)
		require.Equal(t, tt.valid, it.Valid(), "Seek(%d)", tt.target)
		if tt.valid {
			assert.Equal(t, tt.want, it.Key(), "Seek(%d)", tt.target)
		}
	}
}

func TestIterator_SeekForPrev(t *testing.T) {
	sl := newIteratorFixture(t)
	it := sl.NewIterator()

	tests := []struct {
		target int
		want   int
		valid  bool
	}{
		{target: 9, valid: false},
		{target: 10, want: 10, valid: true},
		{target: 25, want: 20, valid: true},
		{target: 40, want: 40, valid: true},
		{target: 100, want: 40, valid: true},
	}
	for _, tt := range tests {
		it.SeekForPrev(tt.target)
		require.Equal(t, tt.valid, it.Valid(), "SeekForPrev(%d)", tt.target)
		if tt.valid {
			assert.Equal(t, tt.want, it.Key(), "SeekForPrev(%d)", tt.target)
		}
	}
}

func TestIterator_PrevFromFirstInvalidates(t *testing.T) {
	sl := newIteratorFixture(t)
	it := sl.NewIterator()

	it.SeekToFirst()
	it.Prev()
	assert.False(t, it.Valid())

	// Repositioning revives an exhausted iterator.
	it.Seek(20)
	require.True(t, it.Valid())
	assert.Equal(t, 20, it.Key())
}

func TestIterator_InvalidAccessPanics(t *testing.T) {
	sl := newIteratorFixture(t)
	it := sl.NewIterator()

	require.False(t, it.Valid())
	assert.Panics(t, func() { it.Key() })
	assert.Panics(t, func() { it.Next() })
	assert.Panics(t, func() { it.Prev() })
}

// Test that a clone moves independently of the iterator it was copied from.
func TestIterator_Clone(t *testing.T) {
	sl := newIteratorFixture(t)
	it := sl.NewIterator()
	it.Seek(20)

	clone := it.Clone()
	clone.Next()
	require.True(t, clone.Valid())
	assert.Equal(t, 30, clone.Key())
	assert.Equal(t, 20, it.Key(), "original iterator must not move")

	// A plain value copy behaves the same way.
	copied := *it
	copied.Prev()
	assert.Equal(t, 10, copied.Key())
	assert.Equal(t, 20, it.Key())
}

// Test that an iterator observes keys inserted after it was created.
func TestIterator_SeesLaterInserts(t *testing.T) {
	sl := newIteratorFixture(t)
	it := sl.NewIterator()
	it.Seek(20)

	require.NoError(t, sl.Insert(25))
	it.Next()
	require.True(t, it.Valid())
	assert.Equal(t, 25, it.Key())

	require.NoError(t, sl.Insert(50))
	it.SeekToLast()
	assert.Equal(t, 50, it.Key())
}
