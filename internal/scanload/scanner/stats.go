package scanner

import (
	"time"

	"github.com/G-Research/scanload/internal/scanload/statement"
)

type FilterStat struct {
	Count         int
	TotalDuration time.Duration
}

func (s FilterStat) Average() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.Count)
}

// FilterStats accumulates reversed partition scan timings per clustering key filter.
type FilterStats map[statement.FilterKind]*FilterStat

func NewFilterStats() FilterStats {
	stats := make(FilterStats, len(statement.FilterKinds))
	for _, kind := range statement.FilterKinds {
		stats[kind] = &FilterStat{}
	}
	return stats
}

func (s FilterStats) Record(kind statement.FilterKind, d time.Duration) FilterStat {
	stat, ok := s[kind]
	if !ok {
		stat = &FilterStat{}
		s[kind] = stat
	}
	stat.Count++
	stat.TotalDuration += d
	return *stat
}

// Stats are the running totals of a scan job.
type Stats struct {
	ScansCounter     int
	ExecutedScans    int
	TotalScanTime    time.Duration
	LastScanDuration time.Duration
	LastRowsRead     int64
	Filters          FilterStats
}

func (s Stats) AverageScanTime() time.Duration {
	if s.ScansCounter == 0 {
		return 0
	}
	return s.TotalScanTime / time.Duration(s.ScansCounter)
}

func (s Stats) copy() Stats {
	c := s
	c.Filters = make(FilterStats, len(s.Filters))
	for kind, stat := range s.Filters {
		statCopy := *stat
		c.Filters[kind] = &statCopy
	}
	return c
}
