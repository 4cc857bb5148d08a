package configuration

import "time"

const (
	DefaultPkName           = "pk"
	DefaultCkName           = "ck"
	DefaultRowsCount        = 5000
	DefaultTableWaitTimeout = 20 * time.Minute
	DefaultTableWaitStep    = time.Minute
	DefaultDisruptionTtl    = 2 * time.Hour
)

// DefaultPageCaps are the page limits an iteration picks from when a job doesn't list its own.
var DefaultPageCaps = []int{100, 1000, 0}

// ApplyDefaults fills in every setting left unset on the cluster and on each job.
// Jobs must be defaulted individually since a config file listing jobs replaces the default job list wholesale.
func (c *ScanLoadConfig) ApplyDefaults() {
	if c.Cluster.DisruptionTtl == 0 {
		c.Cluster.DisruptionTtl = DefaultDisruptionTtl
	}
	for i := range c.Jobs {
		c.Jobs[i].ApplyDefaults()
	}
}

func (c *ScanJobConfig) ApplyDefaults() {
	if len(c.PageCaps) == 0 {
		c.PageCaps = append([]int(nil), DefaultPageCaps...)
	}
	if c.TableWaitTimeout == 0 {
		c.TableWaitTimeout = DefaultTableWaitTimeout
	}
	if c.TableWaitStep == 0 {
		c.TableWaitStep = DefaultTableWaitStep
	}
	if c.PkName == "" {
		c.PkName = DefaultPkName
	}
	if c.CkName == "" {
		c.CkName = DefaultCkName
	}
	if c.RowsCount == 0 {
		c.RowsCount = DefaultRowsCount
	}
}
