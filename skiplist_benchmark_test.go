package skiplist

import (
	"math/rand/v2"
	"testing"
)

// generateRandomKeys generates a slice of unique random integers.
func generateRandomKeys(n int) []int {
	keys := make([]int, n)
	seen := make(map[int]struct{})
	r := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))

	for i := 0; i < n; {
		key := r.IntN(n * 10) // Generate keys in a wider range to avoid too many collisions if N is small
		if _, ok := seen[key]; !ok {
			keys[i] = key
			seen[key] = struct{}{}
			i++
		}
	}
	return keys
}

const benchmarkSize = 10000 // Number of items to insert/search

func BenchmarkSkipList_Insert(b *testing.B) {
	keys := generateRandomKeys(benchmarkSize)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sl := New[int](NewArena()) // สร้าง SkipList ใหม่ในแต่ละ iteration
		for j := 0; j < benchmarkSize; j++ {
			_ = sl.Insert(keys[j])
		}
	}
}

func BenchmarkMap_Insert(b *testing.B) {
	keys := generateRandomKeys(benchmarkSize)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := make(map[int]struct{})
		for j := 0; j < benchmarkSize; j++ {
			m[keys[j]] = struct{}{}
		}
	}
}

func BenchmarkSkipList_Contains(b *testing.B) {
	keys := generateRandomKeys(benchmarkSize)
	sl := New[int](NewArena())
	for j := 0; j < benchmarkSize; j++ {
		_ = sl.Insert(keys[j])
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = sl.Contains(keys[i%benchmarkSize])
	}
}

// BenchmarkSkipList_ContainsParallel measures lock-free lookups from many goroutines.
func BenchmarkSkipList_ContainsParallel(b *testing.B) {
	keys := generateRandomKeys(benchmarkSize)
	sl := New[int](NewArena())
	for j := 0; j < benchmarkSize; j++ {
		_ = sl.Insert(keys[j])
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_ = sl.Contains(keys[i%benchmarkSize])
			i++
		}
	})
}

func BenchmarkMap_Search(b *testing.B) {
	keys := generateRandomKeys(benchmarkSize)
	m := make(map[int]int)
	for j := 0; j < benchmarkSize; j++ {
		m[keys[j]] = keys[j]
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m[keys[i%benchmarkSize]]
	}
}

// BenchmarkIterator_Seek measures positioning an iterator on a random key.
func BenchmarkIterator_Seek(b *testing.B) {
	keys := generateRandomKeys(benchmarkSize)
	sl := New[int](NewArena())
	for _, key := range keys {
		_ = sl.Insert(key)
	}
	it := sl.NewIterator()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		it.Seek(keys[i%benchmarkSize])
	}
}

// BenchmarkSkipList_Range measures the performance of iterating through all elements
// in the skiplist using the Range function.
func BenchmarkSkipList_Range(b *testing.B) {
	sl := New[int](NewArena())
	keys := generateRandomKeys(benchmarkSize)
	for _, key := range keys {
		_ = sl.Insert(key)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sl.Range(func(key int) bool { return true }) // Iterate through all elements
	}
}

// BenchmarkIterator_Prev measures backward iteration, where each step is a fresh search.
func BenchmarkIterator_Prev(b *testing.B) {
	sl := New[int](NewArena())
	for _, key := range generateRandomKeys(benchmarkSize) {
		_ = sl.Insert(key)
	}
	it := sl.NewIterator()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if !it.Valid() {
			it.SeekToLast()
		}
		it.Prev()
	}
}
