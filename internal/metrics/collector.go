package metrics

import (
	"os"
	"time"

	"ai-image-decoder/internal/logging"
)

// StatsProvider reports library totals for the library gauges.
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current library totals.
type Stats struct {
	Images      int
	Prompts     int
	Collections int
	Tags        map[string]int // by category
}

// Collector periodically refreshes the library and database size gauges.
type Collector struct {
	statsProvider StatsProvider
	dbPath        string
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector. dbPath may be empty to skip
// the file size gauges.
func NewCollector(provider StatsProvider, dbPath string, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		dbPath:        dbPath,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	c.collectDBSize()

	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	LibraryImagesTotal.Set(float64(stats.Images))
	LibraryPromptsTotal.Set(float64(stats.Prompts))
	LibraryCollectionsTotal.Set(float64(stats.Collections))
	for _, category := range TagCategories {
		LibraryTagsTotal.WithLabelValues(category).Set(float64(stats.Tags[category]))
	}

	logging.Debug("Metrics collected: images=%d, prompts=%d, collections=%d",
		stats.Images, stats.Prompts, stats.Collections)
}

func (c *Collector) collectDBSize() {
	if c.dbPath == "" {
		return
	}
	files := map[string]string{
		"main": c.dbPath,
		"wal":  c.dbPath + "-wal",
		"shm":  c.dbPath + "-shm",
	}
	for label, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			DBSizeBytes.WithLabelValues(label).Set(0)
			continue
		}
		DBSizeBytes.WithLabelValues(label).Set(float64(info.Size()))
	}
}
