package configuration

import (
	"time"

	"github.com/G-Research/scanload/internal/scanload/cluster"
)

type ScanType string

const (
	FullScan          ScanType = "full_scan"
	FullPartitionScan ScanType = "full_partition_scan"
)

type ScanLoadConfig struct {
	// Port on which Prometheus metrics are served. 0 disables the metrics server.
	MetricsPort uint16
	Cluster     ClusterConfig
	Jobs        []ScanJobConfig `validate:"required,min=1,dive"`
	// How long to wait for jobs to finish once termination has been requested. 0 waits forever.
	JoinTimeout time.Duration `validate:"gte=0"`
}

type ClusterConfig struct {
	Nodes    []NodeConfig `validate:"required,min=1,dive"`
	Port     int          `validate:"gte=0,lte=65535"`
	Username string
	Password string
	// Timeout applied to connection establishment.
	ConnectTimeout time.Duration `validate:"gte=0"`
	// Client-side timeout applied to every request, including page fetches.
	Timeout time.Duration `validate:"gte=0"`
	// Disruptions not explicitly stopped are forgotten after this long.
	DisruptionTtl time.Duration `validate:"gt=0"`
}

type NodeConfig struct {
	Name    string `validate:"required"`
	Address string `validate:"required"`
}

type ScanJobConfig struct {
	Name string   `validate:"required"`
	Type ScanType `validate:"oneof=full_scan full_partition_scan"`
	// Keyspace-qualified table, or "random" to pick any user table on first use.
	Table    cluster.TableId
	PageSize int           `validate:"gt=0"`
	Duration time.Duration `validate:"gt=0"`
	Interval time.Duration `validate:"gte=0"`
	// Each iteration fetches at most a randomly chosen number of pages from this list. 0 means unbounded.
	PageCaps         []int         `validate:"required,min=1,dive,gte=0"`
	TableWaitTimeout time.Duration `validate:"gt=0"`
	TableWaitStep    time.Duration `validate:"gt=0"`
	// Partition scan settings.
	PkName       string
	CkName       string
	RowsCount    int `validate:"gte=0"`
	ValidateData bool
	// Seed for the job's random choices. 0 seeds from the current time.
	Seed int64
}
