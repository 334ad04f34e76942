package main

import (
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"runtime"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	skiplist "github.com/INLOpen/memskiplist"
)

func main() {
	app := cli.App{
		Name:  "bench",
		Usage: "lightweight insert microbench comparing arena block sizes",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "n",
				Usage: "number of keys inserted per configuration",
				Value: 200_000,
			},
			&cli.IntSliceFlag{
				Name:  "block-size",
				Usage: "arena block sizes to compare",
				Value: cli.NewIntSlice(1<<10, skiplist.DefaultBlockSize, 64<<10, 1<<20),
			},
		},
		Action: runBench,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runBench(cctx *cli.Context) error {
	rawlog, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer func() {
		_ = rawlog.Sync()
	}()
	logger := rawlog.Sugar()

	n := cctx.Int("n")

	// prepare keys
	r := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	keys := make([]int, n)
	for i := 0; i < n; i++ {
		keys[i] = r.Int()
	}

	logger.Infow("running arena insert microbench", "n", n)

	for _, blockSize := range cctx.IntSlice("block-size") {
		runtime.GC()
		time.Sleep(50 * time.Millisecond)

		arena := skiplist.NewArena(skiplist.WithBlockSize(blockSize))
		sl := skiplist.New[int](arena)

		var msBefore, msAfter runtime.MemStats
		runtime.ReadMemStats(&msBefore)
		start := time.Now()

		for i := 0; i < n; i++ {
			_ = sl.Insert(keys[i])
		}

		dur := time.Since(start)
		runtime.ReadMemStats(&msAfter)

		nsPerOp := float64(dur.Nanoseconds()) / float64(n)
		allocDiff := int64(msAfter.TotalAlloc) - int64(msBefore.TotalAlloc)

		logger.Infow("config done",
			"block_size", blockSize,
			"duration", dur,
			"ns_per_op", fmt.Sprintf("%.1f", nsPerOp),
			"arena_bytes", arena.MemoryUsage(),
			"arena_blocks", arena.NumBlocks(),
			"total_alloc_diff", allocDiff,
			"len", sl.Len(),
			"height", sl.Height(),
		)
	}
	return nil
}
