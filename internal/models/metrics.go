package models

import "time"

// SystemMetrics is a JSON snapshot of the process counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	TimetablesGenerated      uint64    `json:"timetables_generated"`
	PeriodsPlaced            uint64    `json:"periods_placed"`
	ConflictsRecorded        uint64    `json:"conflicts_recorded"`
	ExportQueueDepth         int       `json:"export_queue_depth"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
