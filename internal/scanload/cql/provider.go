// Package cql implements the cluster session contracts on top of gocql.
package cql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"

	"github.com/G-Research/scanload/internal/scanload/cluster"
	"github.com/G-Research/scanload/internal/scanload/configuration"
)

// Keyspaces owned by the database itself; their tables are never scanned.
var systemKeyspaces = map[string]bool{
	"system":                        true,
	"system_auth":                   true,
	"system_schema":                 true,
	"system_distributed":            true,
	"system_distributed_everywhere": true,
	"system_traces":                 true,
	"system_replicated_keys":        true,
	"audit":                         true,
}

// SessionProvider opens gocql sessions that only ever talk to the requested node.
type SessionProvider struct {
	config configuration.ClusterConfig
}

func NewSessionProvider(config configuration.ClusterConfig) *SessionProvider {
	return &SessionProvider{config: config}
}

func (p *SessionProvider) OpenSession(_ context.Context, node cluster.Node, credentials *cluster.Credentials) (cluster.Session, error) {
	session, err := p.clusterConfig(node, credentials).CreateSession()
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to connect to node %s (%s)", node.Name(), node.Address())
	}
	return &Session{session: session}, nil
}

func (p *SessionProvider) clusterConfig(node cluster.Node, credentials *cluster.Credentials) *gocql.ClusterConfig {
	config := gocql.NewCluster(node.Address())
	config.HostFilter = gocql.WhiteListHostFilter(node.Address())
	config.Consistency = gocql.One
	if p.config.Port > 0 {
		config.Port = p.config.Port
	}
	if p.config.ConnectTimeout > 0 {
		config.ConnectTimeout = p.config.ConnectTimeout
	}
	if p.config.Timeout > 0 {
		config.Timeout = p.config.Timeout
	}
	if credentials != nil && credentials.Username != "" {
		config.Authenticator = gocql.PasswordAuthenticator{
			Username: credentials.Username,
			Password: credentials.Password,
		}
	}
	return config
}

// Session is a connection to a single node.
type Session struct {
	session *gocql.Session
}

func (s *Session) Close() error {
	s.session.Close()
	return nil
}

func (s *Session) Execute(ctx context.Context, stmt string, pageSize int, consistency cluster.Consistency) (cluster.PageableResult, error) {
	r := &result{session: s.session, stmt: stmt, pageSize: pageSize, consistency: toGocql(consistency)}
	if err := r.fetch(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Session) ExecuteAsync(ctx context.Context, stmt string, pageSize int, consistency cluster.Consistency) (cluster.AsyncPageableResult, error) {
	return &asyncResult{
		ctx:    ctx,
		result: result{session: s.session, stmt: stmt, pageSize: pageSize, consistency: toGocql(consistency)},
	}, nil
}

func (s *Session) PartitionKeys(ctx context.Context, table cluster.TableId, pkName string) ([]string, error) {
	stmt := fmt.Sprintf("select distinct %s from %s", pkName, table)
	rows, err := s.session.Query(stmt).WithContext(ctx).Iter().SliceMap()
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to read partition keys of %s", table)
	}
	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, formatLiteral(row[pkName]))
	}
	return keys, nil
}

func (s *Session) ClusteringOrder(ctx context.Context, table cluster.TableId, ckName string) (cluster.ClusteringOrder, error) {
	var order string
	err := s.session.Query(
		"select clustering_order from system_schema.columns where keyspace_name = ? and table_name = ? and column_name = ?",
		table.Keyspace, table.Name, ckName,
	).WithContext(ctx).Scan(&order)
	if err != nil {
		return "", errors.WithMessagef(err, "failed to read clustering order of %s.%s", table, ckName)
	}
	return cluster.ParseClusteringOrder(order)
}

func (s *Session) NonSystemTables(ctx context.Context) ([]cluster.TableId, error) {
	iter := s.session.Query("select keyspace_name, table_name from system_schema.tables").WithContext(ctx).Iter()
	var tables []cluster.TableId
	var keyspace, name string
	for iter.Scan(&keyspace, &name) {
		if isSystemKeyspace(keyspace) {
			continue
		}
		tables = append(tables, cluster.TableId{Keyspace: keyspace, Name: name})
	}
	if err := iter.Close(); err != nil {
		return nil, errors.WithMessage(err, "failed to list tables")
	}
	return tables, nil
}

// result pages through a statement manually, one page per fetch.
type result struct {
	session     *gocql.Session
	stmt        string
	pageSize    int
	consistency gocql.Consistency

	state   []byte
	rows    int
	fetched bool
}

func (r *result) fetch(ctx context.Context) error {
	iter := r.session.Query(r.stmt).
		WithContext(ctx).
		PageSize(r.pageSize).
		Consistency(r.consistency).
		PageState(r.state).
		Iter()
	rows := iter.NumRows()
	state := iter.PageState()
	if err := iter.Close(); err != nil {
		return err
	}
	r.rows = rows
	r.state = state
	r.fetched = true
	return nil
}

func (r *result) HasMorePages() bool {
	return r.fetched && len(r.state) > 0
}

func (r *result) FetchNextPage(ctx context.Context) error {
	if !r.HasMorePages() {
		return errors.New("no more pages")
	}
	return r.fetch(ctx)
}

func (r *result) Rows() int {
	return r.rows
}

// asyncResult fetches each page on its own goroutine and reports it through the registered callbacks.
// Only one fetch is in flight at a time, so the embedded result is never accessed concurrently.
type asyncResult struct {
	ctx context.Context
	result
	onPage  func(rows int)
	onError func(err error)
}

func (r *asyncResult) AddCallbacks(onPage func(rows int), onError func(err error)) {
	r.onPage = onPage
	r.onError = onError
	go r.deliver()
}

func (r *asyncResult) StartFetchingNextPage() {
	go r.deliver()
}

func (r *asyncResult) deliver() {
	if err := r.fetch(r.ctx); err != nil {
		r.onError(err)
		return
	}
	r.onPage(r.rows)
}

func toGocql(c cluster.Consistency) gocql.Consistency {
	switch c {
	case cluster.ConsistencyQuorum:
		return gocql.Quorum
	case cluster.ConsistencyAll:
		return gocql.All
	}
	return gocql.One
}

// formatLiteral renders a partition key value so it can be inlined into a statement.
func formatLiteral(v interface{}) string {
	switch value := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(value, "'", "''") + "'"
	case []byte:
		return fmt.Sprintf("0x%x", value)
	case time.Time:
		return "'" + value.UTC().Format("2006-01-02T15:04:05.000Z") + "'"
	case gocql.UUID:
		return value.String()
	case fmt.Stringer:
		return value.String()
	}
	return fmt.Sprint(v)
}

func isSystemKeyspace(keyspace string) bool {
	return systemKeyspaces[keyspace]
}
