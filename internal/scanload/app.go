// Package scanload wires a cluster, its sessions and a set of scan jobs into a runnable load generator.
package scanload

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/G-Research/scanload/internal/common"
	"github.com/G-Research/scanload/internal/common/logctx"
	"github.com/G-Research/scanload/internal/common/util"
	"github.com/G-Research/scanload/internal/scanload/cluster"
	"github.com/G-Research/scanload/internal/scanload/configuration"
	"github.com/G-Research/scanload/internal/scanload/cql"
	"github.com/G-Research/scanload/internal/scanload/events"
	"github.com/G-Research/scanload/internal/scanload/metrics"
	"github.com/G-Research/scanload/internal/scanload/scanner"
)

// Run starts every configured scan job against a gocql-backed cluster and blocks until all jobs have finished
// or ctx is cancelled. Cancelling ctx requests termination; in-flight scans are allowed to complete.
func Run(ctx *logctx.Context, config configuration.ScanLoadConfig) error {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return err
	}
	return run(ctx, config, cql.NewSessionProvider(config.Cluster), prometheus.NewRegistry())
}

func run(ctx *logctx.Context, config configuration.ScanLoadConfig, sessions cluster.SessionProvider, registry *prometheus.Registry) error {
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(metrics.MetricPrefix, registry)

	disruptions := cluster.NewDisruptionRegistry(config.Cluster.DisruptionTtl)
	nodes := make([]cluster.Node, 0, len(config.Cluster.Nodes))
	for _, node := range config.Cluster.Nodes {
		nodes = append(nodes, cluster.NewStaticNode(node.Name, node.Address, disruptions))
	}
	var credentials *cluster.Credentials
	if config.Cluster.Username != "" {
		credentials = &cluster.Credentials{Username: config.Cluster.Username, Password: config.Cluster.Password}
	}
	c := cluster.NewStaticCluster(nodes, credentials, sessions)

	if config.MetricsPort > 0 {
		mux := common.MetricsMux(registry)
		mux.Handle(disruptionsPath, NewDisruptionHandler(disruptions))
		shutdown := common.ServeHttp(config.MetricsPort, mux)
		defer shutdown()
	}

	sink := events.MultiSink{events.NewLogSink(ctx.Log), events.NewMetricsSink(m)}
	termination := util.NewEvent()

	// Jobs run on a context that's never cancelled; stopping them goes through termination
	// so that in-flight scans complete.
	jobCtx := logctx.New(context.Background(), ctx.Log)
	var result *multierror.Error
	jobs := make([]*scanner.Job, 0, len(config.Jobs))
	for _, jobConfig := range config.Jobs {
		job, err := scanner.New(jobCtx, jobConfig, c, sessions, sink, termination, scanner.WithMetrics(m))
		if err != nil {
			result = multierror.Append(result, errors.WithMessagef(err, "failed to create scan job %s", jobConfig.Name))
			continue
		}
		jobs = append(jobs, job)
	}
	if err := result.ErrorOrNil(); err != nil {
		return err
	}

	for _, job := range jobs {
		if err := job.Start(); err != nil {
			termination.Set()
			return err
		}
		ctx.Log.Infof("Started scan job %s", job.Name())
	}

	finished := make(chan struct{})
	go func() {
		for _, job := range jobs {
			job.Join(0)
		}
		close(finished)
	}()
	select {
	case <-finished:
		ctx.Log.Info("All scan jobs finished")
		return nil
	case <-ctx.Done():
		ctx.Log.Info("Termination requested; waiting for scan jobs to stop")
	}
	termination.Set()
	return joinAll(ctx, jobs, config)
}

func joinAll(ctx *logctx.Context, jobs []*scanner.Job, config configuration.ScanLoadConfig) error {
	var mu sync.Mutex
	var result *multierror.Error
	g, _ := logctx.ErrGroup(ctx)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			if !job.Join(config.JoinTimeout) {
				mu.Lock()
				result = multierror.Append(result, errors.Errorf("scan job %s did not stop within %s", job.Name(), config.JoinTimeout))
				mu.Unlock()
				return nil
			}
			ctx.Log.Infof("Scan job %s stopped after %d scans", job.Name(), job.Stats().ScansCounter)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return result.ErrorOrNil()
}
