package metrics

import (
	"time"

	"rbx-extract/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current statistics
type Stats struct {
	IndexSize      int     `json:"indexSize"`
	FilteredSize   int     `json:"filteredSize"`
	Progress       float64 `json:"progress"`
	ListingRunning bool    `json:"listingRunning"`
	TaskRunning    bool    `json:"taskRunning"`
	DatabaseOpen   bool    `json:"databaseOpen"`
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
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
	// Collect immediately on start
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
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	IndexSize.Set(float64(stats.IndexSize))
	FilteredIndexSize.Set(float64(stats.FilteredSize))
	IndexProgress.Set(stats.Progress)
	ListingIsRunning.Set(boolGauge(stats.ListingRunning))
	TaskIsRunning.Set(boolGauge(stats.TaskRunning))
	DBConnectionState.Set(boolGauge(stats.DatabaseOpen))

	logging.Debug("Metrics collected: index=%d filtered=%d progress=%.2f", stats.IndexSize, stats.FilteredSize, stats.Progress)
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
