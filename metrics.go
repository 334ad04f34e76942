package skiplist

import (
	"github.com/prometheus/client_golang/prometheus"
)

// collector exports arena and list gauges, read at scrape time from atomic counters only,
// so scraping never interferes with the writer or the readers.
type collector struct {
	memoryUsage *prometheus.Desc
	blocks      *prometheus.Desc
	entries     *prometheus.Desc
	height      *prometheus.Desc

	arena  *Arena
	length func() int
	levels func() int
}

// NewCollector returns a prometheus.Collector reporting the memory held by sl's arena,
// the number of arena blocks, the number of keys and the current height of sl.
// Metric names are prefixed with namespace.
func NewCollector[K any](namespace string, sl *SkipList[K]) prometheus.Collector {
	return &collector{
		memoryUsage: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "arena", "memory_usage_bytes"),
			"Bytes reserved by the arena backing the skiplist.",
			nil, nil,
		),
		blocks: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "arena", "blocks"),
			"Number of blocks allocated by the arena.",
			nil, nil,
		),
		entries: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "skiplist", "entries"),
			"Number of keys in the skiplist.",
			nil, nil,
		),
		height: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "skiplist", "height"),
			"Tallest level currently in use by the skiplist.",
			nil, nil,
		),
		arena:  sl.Arena(),
		length: sl.Len,
		levels: sl.Height,
	}
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.memoryUsage
	ch <- c.blocks
	ch <- c.entries
	ch <- c.height
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.memoryUsage, prometheus.GaugeValue, float64(c.arena.MemoryUsage()))
	ch <- prometheus.MustNewConstMetric(c.blocks, prometheus.GaugeValue, float64(c.arena.NumBlocks()))
	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(c.length()))
	ch <- prometheus.MustNewConstMetric(c.height, prometheus.GaugeValue, float64(c.levels()))
}
