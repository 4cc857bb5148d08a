// Package paging drains paged query results, bounding the number of pages fetched.
//
// A page cap of 0 means unbounded. A cap of K > 0 allows at most K pages beyond the first.
package paging

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/G-Research/scanload/internal/common/logctx"
	"github.com/G-Research/scanload/internal/common/util"
	"github.com/G-Research/scanload/internal/scanload/cluster"
)

type State int32

const (
	Fetching State = iota
	Exhausted
	CapReached
	Failed
)

func (s State) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case Exhausted:
		return "exhausted"
	case CapReached:
		return "cap reached"
	case Failed:
		return "failed"
	}
	return "unknown"
}

func withinCap(fetched, maxPages int) bool {
	return maxPages == 0 || fetched < maxPages
}

// FetchAll fetches pages of result on the calling goroutine until there are no more or maxPages is reached.
// Returns the number of pages fetched beyond the first and the total rows seen.
func FetchAll(ctx *logctx.Context, result cluster.PageableResult, maxPages int) (pages int, rows int64, err error) {
	ctx.Log.Infof("Will fetch up to %d result pages", maxPages)
	rows = int64(result.Rows())
	for result.HasMorePages() && withinCap(pages, maxPages) {
		if err = result.FetchNextPage(ctx); err != nil {
			return pages, rows, errors.WithMessagef(err, "failed fetching page %d", pages+1)
		}
		pages++
		rows += int64(result.Rows())
	}
	return pages, rows, nil
}

// Fetch drives an asynchronous result from its page and error callbacks.
//
// Counters are written only from callbacks, of which at most one runs at a time,
// and must only be read once Done is closed.
type Fetch struct {
	result   cluster.AsyncPageableResult
	maxPages int
	ctx      *logctx.Context

	pages int
	rows  int64
	err   error
	state int32

	once sync.Once
	done *util.Event
}

// Start registers callbacks on result, which starts delivering pages.
func Start(ctx *logctx.Context, result cluster.AsyncPageableResult, maxPages int) *Fetch {
	ctx.Log.Infof("Will fetch up to %d result pages", maxPages)
	f := &Fetch{
		result:   result,
		maxPages: maxPages,
		ctx:      ctx,
		done:     util.NewEvent(),
	}
	result.AddCallbacks(f.handlePage, f.handleError)
	return f
}

func (f *Fetch) handlePage(rows int) {
	if f.done.IsSet() {
		return
	}
	f.rows += int64(rows)
	if !f.result.HasMorePages() {
		f.complete(Exhausted, nil)
		return
	}
	if !withinCap(f.pages, f.maxPages) {
		f.complete(CapReached, nil)
		return
	}
	f.ctx.Log.Debugf("Will fetch the next page: %d", f.pages+1)
	// The next callback may run as soon as the request is made.
	f.pages++
	f.result.StartFetchingNextPage()
}

func (f *Fetch) handleError(err error) {
	f.complete(Failed, err)
}

func (f *Fetch) complete(state State, err error) {
	f.once.Do(func() {
		f.err = err
		atomic.StoreInt32(&f.state, int32(state))
		f.done.Set()
	})
}

func (f *Fetch) State() State {
	return State(atomic.LoadInt32(&f.state))
}

// Done is closed once the fetch has completed.
func (f *Fetch) Done() <-chan struct{} {
	return f.done.Done()
}

// Wait blocks until the fetch completes and returns the error delivered to the error callback, if any.
func (f *Fetch) Wait(ctx context.Context) error {
	if err := f.done.Wait(ctx); err != nil {
		return errors.WithStack(err)
	}
	if f.err != nil {
		f.ctx.Log.Warnf("Got a page handler error: %s", f.err)
	}
	return f.err
}

// Pages returns the number of pages requested beyond the first. Only valid once Done is closed.
func (f *Fetch) Pages() int {
	return f.pages
}

// Rows returns the total number of rows delivered. Only valid once Done is closed.
func (f *Fetch) Rows() int64 {
	return f.rows
}
