package scanner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/G-Research/scanload/internal/scanload/statement"
)

func TestFilterStats(t *testing.T) {
	stats := NewFilterStats()
	assert.Len(t, stats, 4)
	for _, kind := range statement.FilterKinds {
		assert.Equal(t, FilterStat{}, *stats[kind])
	}

	stats.Record(statement.LessThan, 2*time.Second)
	stat := stats.Record(statement.LessThan, 4*time.Second)

	assert.Equal(t, 2, stat.Count)
	assert.Equal(t, 6*time.Second, stat.TotalDuration)
	assert.Equal(t, 3*time.Second, stat.Average())
	assert.Equal(t, time.Duration(0), stats[statement.GreaterThan].Average())
}

func TestStats_CopyIsIndependent(t *testing.T) {
	stats := Stats{ScansCounter: 2, TotalScanTime: 4 * time.Second, Filters: NewFilterStats()}
	c := stats.copy()
	stats.Filters.Record(statement.NoFilter, time.Second)

	assert.Equal(t, 0, c.Filters[statement.NoFilter].Count)
	assert.Equal(t, 2*time.Second, c.AverageScanTime())
	assert.Equal(t, time.Duration(0), Stats{}.AverageScanTime())
}
