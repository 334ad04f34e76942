package main

import (
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	skiplist "github.com/INLOpen/memskiplist"
	"github.com/INLOpen/memskiplist/internal/memtable"
)

func main() {
	app := cli.App{
		Name:  "flush",
		Usage: "fill memtables up to a memory budget and flush each one to pebble",
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "db",
			Usage: "path of the pebble database",
			Value: "flush.db",
		},
		&cli.IntFlag{
			Name:  "items",
			Usage: "total number of entries to write",
			Value: 1_000_000,
		},
		&cli.Uint64Flag{
			Name:  "budget",
			Usage: "arena bytes a memtable may reach before it is flushed",
			Value: 4 << 20,
		},
		&cli.IntFlag{
			Name:  "value-size",
			Usage: "size of each value in bytes",
			Value: 100,
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "entries per pebble batch",
			Value: memtable.DefaultBatchSize,
		},
		&cli.IntFlag{
			Name:  "block-size",
			Usage: "arena block size in bytes",
			Value: skiplist.DefaultBlockSize,
		},
	}

	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(cctx *cli.Context) error {
	ctx, stop := signal.NotifyContext(cctx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rawlog, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %+v", err)
	}
	defer func() {
		_ = rawlog.Sync()
	}()
	logger := rawlog.Sugar().With("source", "flush")

	db, err := pebble.Open(cctx.String("db"), &pebble.Options{})
	if err != nil {
		return errors.Wrap(err, "opening pebble")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Errorw("closing pebble", "err", err)
		}
	}()

	budget := cctx.Uint64("budget")
	items := cctx.Int("items")
	newTable := func() *memtable.Table {
		return memtable.New(
			memtable.WithBlockSize(cctx.Int("block-size")),
			memtable.WithBatchSize(cctx.Int("batch-size")),
			memtable.WithLogger(rawlog.Named("memtable")),
		)
	}

	r := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	value := make([]byte, cctx.Int("value-size"))

	var flushes, total int
	flush := func(tbl *memtable.Table) error {
		n, err := tbl.FlushTo(ctx, db)
		total += n
		if err != nil {
			return err
		}
		flushes++
		logger.Infow("flushed memtable",
			"flush", flushes,
			"entries", n,
			"arena_bytes", tbl.ApproximateMemoryUsage(),
			"arena_blocks", tbl.List().Arena().NumBlocks(),
			"height", tbl.List().Height(),
		)
		return nil
	}

	tbl := newTable()
	for i := 0; i < items; i++ {
		for j := range value {
			value[j] = byte(r.Uint32())
		}
		key := fmt.Sprintf("key-%016x", r.Uint64())
		if err := tbl.Put([]byte(key), value); err != nil {
			if errors.Is(err, skiplist.ErrDuplicateKey) {
				continue
			}
			return err
		}
		if tbl.ShouldFlush(budget) {
			if err := flush(tbl); err != nil {
				return err
			}
			tbl = newTable()
		}
	}
	if tbl.Len() > 0 {
		if err := flush(tbl); err != nil {
			return err
		}
	}

	logger.Infow("done", "flushes", flushes, "entries", total, "db", cctx.String("db"))
	return nil
}
