// Package scanner runs scan jobs: duration-bounded loops issuing scans against random cluster nodes
// and publishing the outcome of every iteration.
package scanner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
	"k8s.io/utils/clock"

	"github.com/G-Research/scanload/internal/common/logctx"
	"github.com/G-Research/scanload/internal/common/scanerrors"
	"github.com/G-Research/scanload/internal/common/util"
	"github.com/G-Research/scanload/internal/scanload/classify"
	"github.com/G-Research/scanload/internal/scanload/cluster"
	"github.com/G-Research/scanload/internal/scanload/configuration"
	"github.com/G-Research/scanload/internal/scanload/events"
	"github.com/G-Research/scanload/internal/scanload/metrics"
	"github.com/G-Research/scanload/internal/scanload/order"
	"github.com/G-Research/scanload/internal/scanload/statement"
)

type State int32

const (
	Idle State = iota
	Running
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

// Job repeatedly runs one kind of scan until its duration elapses or termination is requested.
// Only one scan is in flight at a time; all job state except the termination event is owned by the job's goroutine.
type Job struct {
	config      configuration.ScanJobConfig
	cluster     cluster.Cluster
	sessions    cluster.SessionFactory
	operation   Operation
	sink        events.Sink
	termination *util.Event
	clock       clock.Clock
	random      util.Random
	metrics     *metrics.Metrics
	ctx         *logctx.Context

	table      cluster.TableId
	tableReady bool

	state   int32
	done    chan struct{}
	statsMu sync.Mutex
	stats   Stats
}

type Option func(j *Job)

func WithClock(c clock.Clock) Option {
	return func(j *Job) { j.clock = c }
}

func WithRandom(r util.Random) Option {
	return func(j *Job) { j.random = r }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(j *Job) { j.metrics = m }
}

// New fills in config defaults, validates it and builds a job. Partition scan jobs resolve the table's clustering order here
// and fail if no node can provide it.
func New(
	ctx *logctx.Context,
	config configuration.ScanJobConfig,
	c cluster.Cluster,
	sessions cluster.SessionProvider,
	sink events.Sink,
	termination *util.Event,
	opts ...Option,
) (*Job, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	ctx = logctx.WithLogField(ctx, "job", config.Name)
	factory := func(ctx context.Context, node cluster.Node) (cluster.Session, error) {
		return sessions.OpenSession(ctx, node, c.Credentials())
	}
	j := newJob(ctx, config, c, factory, nil, sink, termination, opts...)

	switch config.Type {
	case configuration.FullScan:
		j.operation = &fullScan{statement.NewFullScanGenerator(j.random)}
	case configuration.FullPartitionScan:
		naturalOrder, err := order.Resolve(ctx, config.Table, config.CkName, c.Nodes(), factory)
		if err != nil {
			return nil, err
		}
		j.operation = &partitionScan{statement.NewPartitionScanGenerator(
			statement.PartitionScanConfig{
				PkName:    config.PkName,
				CkName:    config.CkName,
				RowsCount: config.RowsCount,
				Order:     naturalOrder,
			},
			j.random,
			factory,
		)}
	default:
		return nil, errors.WithStack(&scanerrors.ErrInvalidArgument{
			Name:    "Type",
			Value:   config.Type,
			Message: "unknown scan type",
		})
	}
	return j, nil
}

func newJob(
	ctx *logctx.Context,
	config configuration.ScanJobConfig,
	c cluster.Cluster,
	sessions cluster.SessionFactory,
	operation Operation,
	sink events.Sink,
	termination *util.Event,
	opts ...Option,
) *Job {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	j := &Job{
		config:      config,
		cluster:     c,
		sessions:    sessions,
		operation:   operation,
		sink:        sink,
		termination: termination,
		clock:       clock.RealClock{},
		random:      util.NewThreadsafeRand(seed),
		ctx:         ctx,
		table:       config.Table,
		done:        make(chan struct{}),
		stats:       Stats{Filters: NewFilterStats()},
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Start runs the job on its own goroutine.
func (j *Job) Start() error {
	if !atomic.CompareAndSwapInt32(&j.state, int32(Idle), int32(Running)) {
		return errors.Errorf("job %s has already been started", j.config.Name)
	}
	go func() {
		defer close(j.done)
		defer atomic.StoreInt32(&j.state, int32(Terminated))
		j.runForADuration()
	}()
	return nil
}

// Join waits for the job to terminate. A timeout of 0 waits forever.
// Returns false if the timeout elapsed first.
func (j *Job) Join(timeout time.Duration) bool {
	if timeout <= 0 {
		<-j.done
		return true
	}
	select {
	case <-j.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (j *Job) Name() string {
	return j.config.Name
}

func (j *Job) State() State {
	return State(atomic.LoadInt32(&j.state))
}

// Stats returns a snapshot of the job's running totals.
func (j *Job) Stats() Stats {
	j.statsMu.Lock()
	defer j.statsMu.Unlock()
	return j.stats.copy()
}

func (j *Job) runForADuration() {
	start := j.clock.Now()
	for j.clock.Since(start) < j.config.Duration && !j.termination.IsSet() {
		nodes := j.cluster.Nodes()
		if len(nodes) == 0 {
			j.ctx.Log.Warn("Cluster has no nodes; nothing to scan")
			break
		}
		node := util.RandChoice(j.random, nodes)
		maxPages := util.RandChoice(j.random, j.config.PageCaps)
		scanNumber := j.updateStats(func(s *Stats) { s.ScansCounter++ })
		j.runScanOperation(node, maxPages, scanNumber)
		j.ctx.Log.Infof("Executed %s number: %d", j.operation.Kind(), scanNumber)
		if !j.sleep() {
			break
		}
	}
	j.ctx.Log.Infof("%s finished after %d scans", j.operation.Name(), j.Stats().ScansCounter)
}

// sleep waits for the interval. Returns false if termination was requested meanwhile.
func (j *Job) sleep() bool {
	if j.config.Interval <= 0 {
		return !j.termination.IsSet()
	}
	select {
	case <-j.clock.After(j.config.Interval):
		return true
	case <-j.termination.Done():
		return false
	}
}

func (j *Job) runScanOperation(node cluster.Node, maxPages int, scanNumber int) {
	ctx := logctx.WithLogFields(j.ctx, logrus.Fields{"node": node.Name(), "scan": scanNumber})

	table, err := j.targetTable(ctx, node)
	if err != nil {
		event := events.New(j.operation.Kind(), node.Name(), j.table.String(), j.clock.Now())
		if scanerrors.IsNotFound(err) {
			ctx.Log.Warnf("Skipping scan: %s", err)
			j.skip(event, err.Error())
		} else {
			j.fail(event, err, node)
		}
		j.sink.Publish(event)
		return
	}

	ctx = logctx.WithLogField(ctx, "table", table.String())
	event := events.New(j.operation.Kind(), node.Name(), table.String(), j.clock.Now())
	defer j.sink.Publish(event)

	scan, err := j.operation.Generate(ctx, node, table)
	if err != nil {
		j.fail(event, err, node)
		return
	}
	if scan == nil {
		j.skip(event, "no statement available")
		return
	}

	executed, elapsed, rows, err := j.execute(ctx, node, scan, maxPages)
	if !executed {
		if err != nil {
			j.fail(event, err, node)
		} else {
			j.skip(event, "termination requested before the statement was executed")
		}
		return
	}
	event.Duration = elapsed
	event.Rows = rows

	j.updateStats(func(s *Stats) {
		s.ExecutedScans++
		s.LastScanDuration = elapsed
		s.LastRowsRead = rows
		if err == nil {
			s.TotalScanTime += elapsed
		}
	})
	if err != nil {
		j.fail(event, err, node)
	} else {
		stats := j.Stats()
		ctx.Log.Infof("[%s] last scan duration of %d rows is: %s", j.operation.Name(), rows, elapsed)
		ctx.Log.Infof("Average scan duration of %d scans is: %s", stats.ScansCounter, stats.AverageScanTime())
		event.Message = fmt.Sprintf("%s operation ended successfully", j.operation.Name())
	}

	if scan.Filter != "" {
		j.recordFilter(ctx, scan.Filter, elapsed)
	}
	if scan.Normal != "" && j.config.ValidateData {
		// TODO: compare the rows returned by the normal query with those of the reversed query.
		ctx.Log.Debugf("Temporarily not executing the normal query of: %s", scan.Normal)
	}
}

// execute runs scan on a session opened for this statement only. executed is false if the statement never ran.
func (j *Job) execute(ctx *logctx.Context, node cluster.Node, scan *statement.Scan, maxPages int) (executed bool, elapsed time.Duration, rows int64, err error) {
	session, err := j.sessions(ctx, node)
	if err != nil {
		return false, 0, 0, errors.WithMessagef(err, "failed to open session on node %s", node.Name())
	}
	defer util.CloseResource("session", session)

	if j.termination.IsSet() {
		return false, 0, 0, nil
	}

	start := j.clock.Now()
	rows, err = j.operation.Run(ctx, session, scan.Statement, j.config.PageSize, maxPages)
	return true, j.clock.Since(start), rows, err
}

// targetTable waits for the job's table to exist, resolving "random" to a concrete table the first time.
func (j *Job) targetTable(ctx *logctx.Context, node cluster.Node) (cluster.TableId, error) {
	if j.tableReady {
		return j.table, nil
	}

	var tables []cluster.TableId
	text := fmt.Sprintf("Waiting until %s user table exists", j.table)
	waitCtx, cancel := util.ContextWithEvent(ctx, j.termination)
	defer cancel()
	err := util.WaitFor(waitCtx, text, j.config.TableWaitStep, j.config.TableWaitTimeout, func() (bool, error) {
		var err error
		tables, err = j.cluster.NonSystemTables(waitCtx, node)
		if err != nil {
			return false, err
		}
		if j.table.IsRandom() {
			return len(tables) > 0, nil
		}
		return slices.Contains(tables, j.table), nil
	})
	if err != nil {
		return cluster.TableId{}, errors.WithStack(&scanerrors.ErrNotFound{
			Type:    "table",
			Value:   j.table.String(),
			Message: err.Error(),
		})
	}

	if j.table.IsRandom() {
		j.table = util.RandChoice(j.random, tables)
		ctx.Log.Infof("Randomly chose table %s", j.table)
	}
	j.tableReady = true
	return j.table, nil
}

func (j *Job) recordFilter(ctx *logctx.Context, filter statement.FilterKind, elapsed time.Duration) {
	var stat FilterStat
	j.updateStats(func(s *Stats) { stat = s.Filters.Record(filter, elapsed) })
	if j.metrics != nil {
		j.metrics.RecordFilterScan(string(filter), elapsed)
	}
	ctx.Log.Infof("Average %s scans duration of %d executions is: %s", filter, stat.Count, stat.Average())
}

func (j *Job) skip(event *events.ScanEvent, reason string) {
	event.Skipped = true
	event.Message = reason
}

func (j *Job) fail(event *events.ScanEvent, err error, node cluster.Node) {
	outcome := classify.Classify(err, node.RunningDisruption())
	event.Severity = outcome.Severity
	event.Message = outcome.Message
}

// updateStats applies f under the stats lock and returns the resulting scan counter.
func (j *Job) updateStats(f func(s *Stats)) int {
	j.statsMu.Lock()
	defer j.statsMu.Unlock()
	f(&j.stats)
	return j.stats.ScansCounter
}
