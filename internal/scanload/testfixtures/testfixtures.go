// Package testfixtures provides in-memory stand-ins for the cluster under test.
package testfixtures

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"

	"github.com/G-Research/scanload/internal/scanload/cluster"
	"github.com/G-Research/scanload/internal/scanload/events"
)

// Cluster is a fixed-membership cluster with a fixed set of user tables.
type Cluster struct {
	NodeList  []cluster.Node
	Tables    []cluster.TableId
	TablesErr error
	Creds     *cluster.Credentials
}

func NewCluster(tables []cluster.TableId, nodes ...cluster.Node) *Cluster {
	return &Cluster{NodeList: nodes, Tables: tables}
}

func (c *Cluster) Nodes() []cluster.Node {
	return c.NodeList
}

func (c *Cluster) NonSystemTables(_ context.Context, _ cluster.Node) ([]cluster.TableId, error) {
	if c.TablesErr != nil {
		return nil, c.TablesErr
	}
	return c.Tables, nil
}

func (c *Cluster) Credentials() *cluster.Credentials {
	return c.Creds
}

// Nodes returns n static nodes named node-1..node-n, all looking up disruptions in registry.
func Nodes(n int, registry *cluster.DisruptionRegistry) []cluster.Node {
	nodes := make([]cluster.Node, n)
	for i := range nodes {
		nodes[i] = cluster.NewStaticNode(fmt.Sprintf("node-%d", i+1), fmt.Sprintf("10.0.0.%d", i+1), registry)
	}
	return nodes
}

// SessionProvider hands out Sessions backed by the same scripted behaviour.
type SessionProvider struct {
	// Errors returned by OpenSession, keyed by node name.
	OpenErrs map[string]error
	// Partition keys per table.
	PartitionKeys map[cluster.TableId][]string
	// Clustering order per table.
	Orders map[cluster.TableId]cluster.ClusteringOrder
	// Errors returned by ClusteringOrder, keyed by node name.
	OrderErrs map[string]error
	// Rows in each page of every result. Defaults to a single empty page.
	Pages []int
	// If non-nil, returned by Execute and ExecuteAsync.
	ExecuteErr error
	// If non-nil, delivered in place of the page at index PageErrAt.
	PageErr   error
	PageErrAt int
	// Called with every executed statement before the result is returned.
	OnExecute func(stmt string)

	mu         sync.Mutex
	statements []string
	opened     int32
	closed     int32
	pageFetch  int32
}

func (p *SessionProvider) OpenSession(_ context.Context, node cluster.Node, _ *cluster.Credentials) (cluster.Session, error) {
	if err := p.OpenErrs[node.Name()]; err != nil {
		return nil, err
	}
	atomic.AddInt32(&p.opened, 1)
	return &Session{provider: p, node: node}, nil
}

// Factory returns a SessionFactory opening sessions from p.
func (p *SessionProvider) Factory() cluster.SessionFactory {
	return func(ctx context.Context, node cluster.Node) (cluster.Session, error) {
		return p.OpenSession(ctx, node, nil)
	}
}

func (p *SessionProvider) Statements() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.statements...)
}

func (p *SessionProvider) Opened() int {
	return int(atomic.LoadInt32(&p.opened))
}

func (p *SessionProvider) Closed() int {
	return int(atomic.LoadInt32(&p.closed))
}

// PagesFetched counts every page delivered or fetched, the first page included.
func (p *SessionProvider) PagesFetched() int {
	return int(atomic.LoadInt32(&p.pageFetch))
}

func (p *SessionProvider) pages() []int {
	if len(p.Pages) == 0 {
		return []int{0}
	}
	return p.Pages
}

func (p *SessionProvider) recordStatement(stmt string) {
	p.mu.Lock()
	p.statements = append(p.statements, stmt)
	p.mu.Unlock()
	if p.OnExecute != nil {
		p.OnExecute(stmt)
	}
}

type Session struct {
	provider *SessionProvider
	node     cluster.Node
	closed   int32
}

func (s *Session) Close() error {
	if atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		atomic.AddInt32(&s.provider.closed, 1)
	}
	return nil
}

func (s *Session) Execute(_ context.Context, stmt string, _ int, _ cluster.Consistency) (cluster.PageableResult, error) {
	s.provider.recordStatement(stmt)
	if s.provider.ExecuteErr != nil {
		return nil, s.provider.ExecuteErr
	}
	atomic.AddInt32(&s.provider.pageFetch, 1)
	return &Result{provider: s.provider, pages: s.provider.pages()}, nil
}

func (s *Session) ExecuteAsync(_ context.Context, stmt string, _ int, _ cluster.Consistency) (cluster.AsyncPageableResult, error) {
	s.provider.recordStatement(stmt)
	if s.provider.ExecuteErr != nil {
		return nil, s.provider.ExecuteErr
	}
	return NewAsyncResult(s.provider.pages(), s.provider.PageErr, s.provider.PageErrAt, &s.provider.pageFetch), nil
}

func (s *Session) PartitionKeys(_ context.Context, table cluster.TableId, _ string) ([]string, error) {
	return s.provider.PartitionKeys[table], nil
}

func (s *Session) ClusteringOrder(_ context.Context, table cluster.TableId, _ string) (cluster.ClusteringOrder, error) {
	if err := s.provider.OrderErrs[s.node.Name()]; err != nil {
		return "", err
	}
	order, ok := s.provider.Orders[table]
	if !ok {
		return "", errors.Errorf("table %s not found", table)
	}
	return order, nil
}

func (s *Session) NonSystemTables(_ context.Context) ([]cluster.TableId, error) {
	return maps.Keys(s.provider.Orders), nil
}

// Result is a synchronous result over scripted pages.
type Result struct {
	provider *SessionProvider
	pages    []int
	current  int
}

func (r *Result) HasMorePages() bool {
	return r.current < len(r.pages)-1
}

func (r *Result) FetchNextPage(_ context.Context) error {
	if !r.HasMorePages() {
		return errors.New("no more pages")
	}
	r.current++
	atomic.AddInt32(&r.provider.pageFetch, 1)
	if r.provider.PageErr != nil && r.current == r.provider.PageErrAt {
		return r.provider.PageErr
	}
	return nil
}

func (r *Result) Rows() int {
	return r.pages[r.current]
}

// AsyncResult delivers scripted pages from its own goroutines, one page request at a time.
type AsyncResult struct {
	pages   []int
	err     error
	errAt   int
	fetched *int32

	mu       sync.Mutex
	current  int
	onPage   func(rows int)
	onError  func(err error)
	requests int
}

// NewAsyncResult returns a result that delivers pages in order and, if err is non-nil,
// delivers err instead of the page at index errAt.
func NewAsyncResult(pages []int, err error, errAt int, fetched *int32) *AsyncResult {
	if fetched == nil {
		fetched = new(int32)
	}
	return &AsyncResult{pages: pages, err: err, errAt: errAt, fetched: fetched, current: -1}
}

func (r *AsyncResult) AddCallbacks(onPage func(rows int), onError func(err error)) {
	r.mu.Lock()
	r.onPage = onPage
	r.onError = onError
	r.mu.Unlock()
	go r.deliver(0)
}

func (r *AsyncResult) HasMorePages() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current < len(r.pages)-1
}

func (r *AsyncResult) StartFetchingNextPage() {
	r.mu.Lock()
	next := r.current + 1
	r.requests++
	r.mu.Unlock()
	go r.deliver(next)
}

// Requests returns the number of StartFetchingNextPage calls.
func (r *AsyncResult) Requests() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests
}

func (r *AsyncResult) deliver(page int) {
	r.mu.Lock()
	r.current = page
	onPage, onError := r.onPage, r.onError
	r.mu.Unlock()
	atomic.AddInt32(r.fetched, 1)
	if r.err != nil && page == r.errAt {
		onError(r.err)
		return
	}
	onPage(r.pages[page])
}

// Sink records every published event.
type Sink struct {
	mu     sync.Mutex
	events []*events.ScanEvent
}

func (s *Sink) Publish(e *events.ScanEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *Sink) Events() []*events.ScanEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*events.ScanEvent(nil), s.events...)
}
