package scanner

import (
	"github.com/pkg/errors"

	"github.com/G-Research/scanload/internal/common/logctx"
	"github.com/G-Research/scanload/internal/scanload/cluster"
	"github.com/G-Research/scanload/internal/scanload/events"
	"github.com/G-Research/scanload/internal/scanload/paging"
	"github.com/G-Research/scanload/internal/scanload/statement"
)

// Operation is one kind of scan: how its statements are generated, executed and consumed.
type Operation interface {
	statement.Generator
	Kind() events.Kind
	Name() string
	// Run executes stmt on session and drains up to maxPages pages beyond the first, returning the rows read.
	Run(ctx *logctx.Context, session cluster.Session, stmt string, pageSize int, maxPages int) (int64, error)
}

// fullScan executes synchronously and fetches pages on the scan goroutine.
type fullScan struct {
	*statement.FullScanGenerator
}

func (o *fullScan) Kind() events.Kind {
	return events.FullScan
}

func (o *fullScan) Name() string {
	return "FullScanOperation"
}

func (o *fullScan) Run(ctx *logctx.Context, session cluster.Session, stmt string, pageSize int, maxPages int) (int64, error) {
	ctx.Log.Infof("Will run command %q", stmt)
	result, err := session.Execute(ctx, stmt, pageSize, cluster.ConsistencyOne)
	if err != nil {
		return 0, errors.WithMessage(err, "failed executing full scan")
	}
	_, rows, err := paging.FetchAll(ctx, result, maxPages)
	return rows, err
}

// partitionScan executes asynchronously and is driven by page callbacks.
type partitionScan struct {
	*statement.PartitionScanGenerator
}

func (o *partitionScan) Kind() events.Kind {
	return events.FullPartitionScan
}

func (o *partitionScan) Name() string {
	return "FullPartitionScanOperation"
}

func (o *partitionScan) Run(ctx *logctx.Context, session cluster.Session, stmt string, pageSize int, maxPages int) (int64, error) {
	ctx.Log.Infof("Will run command %q", stmt)
	result, err := session.ExecuteAsync(ctx, stmt, pageSize, cluster.ConsistencyOne)
	if err != nil {
		return 0, errors.WithMessage(err, "failed executing partition scan")
	}
	fetch := paging.Start(ctx, result, maxPages)
	if err := fetch.Wait(ctx); err != nil {
		if fetch.State() == paging.Failed {
			return fetch.Rows(), err
		}
		return 0, err
	}
	ctx.Log.Infof("Fetched a total of %d pages (%s)", fetch.Pages()+1, fetch.State())
	return fetch.Rows(), nil
}
