package cache

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type CacheMetrics struct {
	hits      atomic.Int64
	misses    atomic.Int64
	errors    atomic.Int64
	sets      atomic.Int64
	deletes   atomic.Int64
	startTime time.Time
}

type CacheMetricsSnapshot struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Errors    int64 `json:"errors"`
	Sets      int64 `json:"sets"`
	Deletes   int64 `json:"deletes"`
	StartTime int64 `json:"start_time"`
}

func NewCacheMetrics() *CacheMetrics {
	return &CacheMetrics{startTime: time.Now()}
}

func (m *CacheMetrics) RecordHit()    { m.hits.Add(1) }
func (m *CacheMetrics) RecordMiss()   { m.misses.Add(1) }
func (m *CacheMetrics) RecordError()  { m.errors.Add(1) }
func (m *CacheMetrics) RecordSet()    { m.sets.Add(1) }
func (m *CacheMetrics) RecordDelete() { m.deletes.Add(1) }

func (m *CacheMetrics) GetStats() CacheMetricsSnapshot {
	return CacheMetricsSnapshot{
		Hits:      m.hits.Load(),
		Misses:    m.misses.Load(),
		Errors:    m.errors.Load(),
		Sets:      m.sets.Load(),
		Deletes:   m.deletes.Load(),
		StartTime: m.startTime.Unix(),
	}
}

func (m *CacheMetrics) HitRate() float64 {
	hits := m.hits.Load()
	total := hits + m.misses.Load()
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total) * 100.0
}

// Register exposes the counters on reg as cache_operations_total{op=...}.
func (m *CacheMetrics) Register(reg prometheus.Registerer) error {
	counters := map[string]*atomic.Int64{
		"hit":    &m.hits,
		"miss":   &m.misses,
		"error":  &m.errors,
		"set":    &m.sets,
		"delete": &m.deletes,
	}

	for op, counter := range counters {
		counter := counter
		c := prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "cache_operations_total",
			Help:        "Redis cache operations by outcome.",
			ConstLabels: prometheus.Labels{"op": op},
		}, func() float64 {
			return float64(counter.Load())
		})
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
