// Package memtable buffers key/value writes in an arena-backed skiplist until
// they are flushed to a pebble database.
//
// Each entry is encoded once into arena memory as
//
//	uvarint(len(key)) | key | value
//
// and the skiplist orders entries by their user key. A Table accepts writes from
// one goroutine at a time; Get and iteration may run from any number of
// goroutines alongside it.
package memtable

import (
	"bytes"
	"context"
	"encoding/binary"
	"iter"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	skiplist "github.com/INLOpen/memskiplist"
)

// DefaultBatchSize is the number of entries committed per pebble batch by FlushTo.
const DefaultBatchSize = 1024

// ErrFrozen is returned by Put once the table has been frozen for flushing.
var ErrFrozen = errors.New("memtable: table is frozen")

// Table is an in-memory, ordered write buffer.
type Table struct {
	arena     *skiplist.Arena
	list      *skiplist.SkipList[[]byte]
	logger    *zap.Logger
	batchSize int
	frozen    atomic.Bool
	writing   atomic.Bool // single-writer guard covering the arena allocation
}

type config struct {
	blockSize int
	seed      uint64
	batchSize int
	logger    *zap.Logger
}

// Option configures a Table.
type Option func(*config)

// WithBlockSize sets the arena block size used for entries and nodes.
func WithBlockSize(n int) Option {
	return func(c *config) {
		c.blockSize = n
	}
}

// WithSeed seeds the skiplist's height generator.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.seed = seed
	}
}

// WithBatchSize sets how many entries FlushTo commits per batch. Non-positive values are ignored.
func WithBatchSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithLogger sets the logger used by the table and its arena.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates an empty Table.
func New(opts ...Option) *Table {
	cfg := config{
		blockSize: skiplist.DefaultBlockSize,
		seed:      skiplist.DefaultSeed,
		batchSize: DefaultBatchSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	arena := skiplist.NewArena(skiplist.WithBlockSize(cfg.blockSize), skiplist.WithLogger(cfg.logger))
	return &Table{
		arena:     arena,
		list:      skiplist.NewWithComparator(compareEntries, arena, skiplist.WithSeed[[]byte](cfg.seed)),
		logger:    cfg.logger,
		batchSize: cfg.batchSize,
	}
}

// Put adds key with value. Keys are unique: putting a key twice returns an error
// matching skiplist.ErrDuplicateKey, and the rejected entry's bytes stay charged
// to the arena. key and value are copied.
//
// Put must not be called concurrently with itself; it panics if it detects another
// Put in progress.
func (t *Table) Put(key, value []byte) error {
	if !t.writing.CompareAndSwap(false, true) {
		panic("memtable: concurrent Put calls; a Table supports a single writer")
	}
	defer t.writing.Store(false)

	if t.frozen.Load() {
		return errors.WithStack(ErrFrozen)
	}
	entry := encodeEntry(t.arena.Allocate(entrySize(key, value)), key, value)
	return t.list.Insert(entry)
}

// Get returns the value stored for key. The returned slice aliases arena memory
// and must not be modified.
func (t *Table) Get(key []byte) ([]byte, bool) {
	it := t.list.NewIterator()
	it.Seek(lookupKey(key))
	if !it.Valid() {
		return nil, false
	}
	k, v := decodeEntry(it.Key())
	if !bytes.Equal(k, key) {
		return nil, false
	}
	return v, true
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return t.list.Len()
}

// ApproximateMemoryUsage reports the bytes reserved by the table's arena.
func (t *Table) ApproximateMemoryUsage() uint64 {
	return t.arena.MemoryUsage()
}

// ShouldFlush reports whether the table has reached limit bytes.
func (t *Table) ShouldFlush(limit uint64) bool {
	return t.ApproximateMemoryUsage() >= limit
}

// Freeze stops the table from accepting further writes.
func (t *Table) Freeze() {
	t.frozen.Store(true)
}

// Frozen reports whether Freeze has been called.
func (t *Table) Frozen() bool {
	return t.frozen.Load()
}

// List exposes the underlying skiplist, e.g. for metrics.
func (t *Table) List() *skiplist.SkipList[[]byte] {
	return t.list
}

// All iterates over every key/value pair in key order.
func (t *Table) All() iter.Seq2[[]byte, []byte] {
	return func(yield func([]byte, []byte) bool) {
		for entry := range t.list.All() {
			if !yield(decodeEntry(entry)) {
				return
			}
		}
	}
}

// FlushTo freezes the table and writes all of its entries to db in key order,
// committing a synced batch every batch-size entries. The context is checked
// between batches. It returns the number of entries committed.
func (t *Table) FlushTo(ctx context.Context, db *pebble.DB) (int, error) {
	t.Freeze()

	var (
		written int
		batches int
	)
	batch := db.NewBatch()
	commit := func() error {
		defer batch.Close()
		n := int(batch.Count())
		if err := batch.Commit(pebble.Sync); err != nil {
			return errors.Wrap(err, "memtable: commit batch")
		}
		written += n
		batches++
		return nil
	}

	for key, value := range t.All() {
		if err := batch.Set(key, value, nil); err != nil {
			batch.Close()
			return written, errors.Wrap(err, "memtable: set")
		}
		if int(batch.Count()) < t.batchSize {
			continue
		}
		if err := commit(); err != nil {
			return written, err
		}
		if err := ctx.Err(); err != nil {
			return written, errors.WithStack(err)
		}
		batch = db.NewBatch()
	}

	if batch.Empty() {
		batch.Close()
	} else if err := commit(); err != nil {
		return written, err
	}

	t.logger.Info("memtable: flushed",
		zap.Int("entries", written),
		zap.Int("batches", batches),
		zap.Uint64("arena_bytes", t.arena.MemoryUsage()),
	)
	return written, nil
}

func entrySize(key, value []byte) int {
	var scratch [binary.MaxVarintLen64]byte
	return binary.PutUvarint(scratch[:], uint64(len(key))) + len(key) + len(value)
}

func encodeEntry(buf, key, value []byte) []byte {
	n := binary.PutUvarint(buf, uint64(len(key)))
	n += copy(buf[n:], key)
	copy(buf[n:], value)
	return buf
}

// lookupKey builds a heap-allocated entry with no value; readers never touch the arena.
func lookupKey(key []byte) []byte {
	return encodeEntry(make([]byte, entrySize(key, nil)), key, nil)
}

func decodeEntry(entry []byte) (key, value []byte) {
	l, n := binary.Uvarint(entry)
	end := n + int(l)
	return entry[n:end:end], entry[end:]
}

func compareEntries(a, b []byte) int {
	ka, _ := decodeEntry(a)
	kb, _ := decodeEntry(b)
	return bytes.Compare(ka, kb)
}
