package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ItemsScraped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "toranews_items_scraped_total",
		Help: "Headlines extracted from the listing",
	})
	ItemsMatched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "toranews_items_matched_total",
		Help: "Headlines that passed the title and credit filter",
	})
	ItemsSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "toranews_items_skipped_total",
		Help: "Matched headlines not notified, by reason",
	}, []string{"reason"})
	ItemsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "toranews_items_sent_total",
		Help: "Articles fully delivered to the webhook",
	})
	MessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "toranews_messages_sent_total",
		Help: "Webhook messages posted",
	})
	Runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "toranews_runs_total",
		Help: "Pipeline runs, by result",
	}, []string{"result"})
	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "toranews_run_duration_seconds",
		Help:    "Wall time of one pipeline run",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
)

func init() {
	prometheus.MustRegister(ItemsScraped, ItemsMatched, ItemsSkipped, ItemsSent, MessagesSent, Runs, RunDuration)
}

// Metrics is the in-process health snapshot served on /health and /stats.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	TotalRuns          int64
	FailedRuns         int64
	ItemsSent          int64
	MessagesSent       int64
	DuplicatesFiltered int64

	// Timings
	LastProcessingTime    time.Duration
	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

// RecordRun folds one finished run into the snapshot.
func (m *Metrics) RecordRun(duration time.Duration, itemsSent, messagesSent, duplicates int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRuns++
	m.ItemsSent += int64(itemsSent)
	m.MessagesSent += int64(messagesSent)
	m.DuplicatesFiltered += int64(duplicates)

	m.LastProcessingTime = duration
	m.TotalProcessingTime += duration
	m.AverageProcessingTime = m.TotalProcessingTime / time.Duration(m.TotalRuns)
	m.LastRunTime = time.Now()

	if err != nil {
		m.FailedRuns++
		m.LastError = err.Error()
		m.LastErrorTime = m.LastRunTime
		m.IsHealthy = false
		return
	}
	m.IsHealthy = true
}

func (m *Metrics) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.IsHealthy
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"total_runs":                 m.TotalRuns,
		"failed_runs":                m.FailedRuns,
		"items_sent":                 m.ItemsSent,
		"messages_sent":              m.MessagesSent,
		"duplicates_filtered":        m.DuplicatesFiltered,
		"last_processing_time_ms":    m.LastProcessingTime.Milliseconds(),
		"average_processing_time_ms": m.AverageProcessingTime.Milliseconds(),
		"last_run_time":              m.LastRunTime.Format(time.RFC3339),
		"last_error_time":            m.LastErrorTime.Format(time.RFC3339),
		"last_error":                 m.LastError,
		"is_healthy":                 m.IsHealthy,
	}
}
