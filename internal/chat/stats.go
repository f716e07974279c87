package chat

import (
	"sync/atomic"
	"time"
)

// Stats tracks process-wide counters for the health surface. Counters only
// increase; they reset on process restart.
type Stats struct {
	totalMessages   atomic.Int64
	imagesAnalyzed  atomic.Int64
	imagesGenerated atomic.Int64
	conversations   atomic.Int64
	groups          atomic.Int64
	uptimeStart     time.Time
}

// NewStats creates a Stats with the uptime clock started now.
func NewStats() *Stats {
	return &Stats{uptimeStart: time.Now()}
}

func (s *Stats) AddMessage()        { s.totalMessages.Add(1) }
func (s *Stats) AddImageAnalyzed()  { s.imagesAnalyzed.Add(1) }
func (s *Stats) AddImageGenerated() { s.imagesGenerated.Add(1) }

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	TotalMessages   int64   `json:"total_messages"`
	ImagesAnalyzed  int64   `json:"total_images_analyzed"`
	ImagesGenerated int64   `json:"total_images_generated"`
	Conversations   int64   `json:"total_conversations"`
	Groups          int64   `json:"total_groups"`
	UptimeHours     float64 `json:"uptime_hours"`
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		TotalMessages:   s.totalMessages.Load(),
		ImagesAnalyzed:  s.imagesAnalyzed.Load(),
		ImagesGenerated: s.imagesGenerated.Load(),
		Conversations:   s.conversations.Load(),
		Groups:          s.groups.Load(),
		UptimeHours:     time.Since(s.uptimeStart).Hours(),
	}
}

// UptimeStart reports when the process-wide counters began.
func (s *Stats) UptimeStart() time.Time {
	return s.uptimeStart
}
