package main

import (
	"context"
	"log"
	"math/rand/v2"
	"net/http"
	_ "net/http/pprof" // Import for side effects: registers pprof handlers
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	skiplist "github.com/INLOpen/memskiplist"
)

func main() {
	app := cli.App{
		Name:  "profiler",
		Usage: "single-writer skiplist workload with concurrent readers, for pprof",
	}

	app.Flags = []cli.Flag{
		&cli.IntFlag{
			Name:  "items",
			Usage: "number of keys the writer inserts",
			Value: 2_000_000,
		},
		&cli.IntFlag{
			Name:  "readers",
			Usage: "number of concurrent reader goroutines",
			Value: 4,
		},
		&cli.IntFlag{
			Name:  "block-size",
			Usage: "arena block size in bytes",
			Value: skiplist.DefaultBlockSize,
		},
		&cli.Uint64Flag{
			Name:  "seed",
			Usage: "seed for the skiplist height generator",
			Value: skiplist.DefaultSeed,
		},
		&cli.StringFlag{
			Name:  "listen",
			Usage: "address serving /debug/pprof and /metrics",
			Value: "localhost:6060",
		},
		&cli.BoolFlag{
			Name:  "hold",
			Usage: "keep the process alive after the workload finishes",
			Value: true,
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
	logger := rawlog.Sugar().With("source", "profiler")

	arena := skiplist.NewArena(
		skiplist.WithBlockSize(cctx.Int("block-size")),
		skiplist.WithLogger(rawlog.Named("arena")),
	)
	sl := skiplist.New(arena, skiplist.WithSeed[int](cctx.Uint64("seed")))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		skiplist.NewCollector("profiler", sl),
	)
	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// เปิด pprof และ /metrics ผ่าน HTTP server ใน goroutine แยกต่างหาก
	go func() {
		logger.Infow("starting debug server", "addr", cctx.String("listen"))
		if err := http.ListenAndServe(cctx.String("listen"), nil); err != nil {
			logger.Errorw("debug server failed", "err", err)
		}
	}()

	numItems := cctx.Int("items")
	numReaders := cctx.Int("readers")
	logger.Infow("starting workload", "items", numItems, "readers", numReaders)

	var (
		inserted atomic.Int64
		done     atomic.Bool
	)
	g, gctx := errgroup.WithContext(ctx)

	// writer: ตัวเขียนมีได้เพียงตัวเดียว
	g.Go(func() error {
		defer done.Store(true)
		r := rand.New(rand.NewPCG(1, 2))
		start := time.Now()
		for i := 0; i < numItems; i++ {
			if i%4096 == 0 && gctx.Err() != nil {
				return gctx.Err()
			}
			if err := sl.Insert(r.Int()); err == nil {
				inserted.Add(1)
			}
		}
		logger.Infow("writer finished",
			"inserted", inserted.Load(),
			"duration", time.Since(start),
			"arena_bytes", arena.MemoryUsage(),
			"arena_blocks", arena.NumBlocks(),
			"height", sl.Height(),
		)
		return nil
	})

	// readers: อ่านพร้อมกันได้โดยไม่ต้องใช้ lock
	for id := 0; id < numReaders; id++ {
		g.Go(func() error {
			r := rand.New(rand.NewPCG(uint64(id), 99))
			it := sl.NewIterator()
			var lookups, hits int
			for !done.Load() && gctx.Err() == nil {
				key := r.Int()
				if sl.Contains(key) {
					hits++
				}
				it.Seek(key)
				for steps := 0; it.Valid() && steps < 8; steps++ {
					it.Next()
				}
				lookups++
			}
			logger.Infow("reader finished", "reader", id, "lookups", lookups, "hits", hits)
			return nil
		})
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	logger.Infow("workload finished", "len", sl.Len())

	if cctx.Bool("hold") {
		// ทำให้โปรแกรมทำงานค้างไว้เพื่อให้เชื่อมต่อ pprof server ได้ จนกว่าจะกด Ctrl+C
		logger.Info("holding for profiling; press Ctrl+C to exit")
		<-ctx.Done()
	}
	return nil
}
