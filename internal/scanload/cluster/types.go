// Package cluster defines the contracts the scan-load generator consumes from the database
// cluster under test: membership, sessions and paged query execution.
package cluster

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/G-Research/scanload/internal/common/scanerrors"
)

// RandomTable is the table name that asks a scan job to pick any user table once, on first use.
const RandomTable = "random"

// TableId identifies a table as keyspace.table.
type TableId struct {
	Keyspace string
	Name     string
}

func (t TableId) String() string {
	if t.Keyspace == "" {
		return t.Name
	}
	return t.Keyspace + "." + t.Name
}

// IsRandom reports whether this id is the "random" placeholder rather than a concrete table.
func (t TableId) IsRandom() bool {
	return t.Keyspace == "" && strings.EqualFold(t.Name, RandomTable)
}

func ParseTableId(s string) (TableId, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, RandomTable) {
		return TableId{Name: RandomTable}, nil
	}
	parts := strings.Split(s, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return TableId{}, errors.WithStack(&scanerrors.ErrInvalidArgument{
			Name:    "table",
			Value:   s,
			Message: "expected <keyspace>.<table> or \"random\"",
		})
	}
	return TableId{Keyspace: parts[0], Name: parts[1]}, nil
}

// ClusteringOrder is the sort direction of a table's clustering key.
type ClusteringOrder string

const (
	Ascending  ClusteringOrder = "asc"
	Descending ClusteringOrder = "desc"
)

// Reversed returns the logical complement of o.
func (o ClusteringOrder) Reversed() ClusteringOrder {
	if o == Ascending {
		return Descending
	}
	return Ascending
}

func ParseClusteringOrder(s string) (ClusteringOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return "", errors.WithStack(&scanerrors.ErrInvalidArgument{
		Name:    "clusteringOrder",
		Value:   s,
		Message: "expected asc or desc",
	})
}

// Consistency is the consistency level a statement is executed with.
type Consistency int

const (
	// ConsistencyOne is the weakest level; scans never ask for anything stronger.
	ConsistencyOne Consistency = iota + 1
	ConsistencyQuorum
	ConsistencyAll
)

func (c Consistency) String() string {
	switch c {
	case ConsistencyOne:
		return "ONE"
	case ConsistencyQuorum:
		return "QUORUM"
	case ConsistencyAll:
		return "ALL"
	}
	return fmt.Sprintf("Consistency(%d)", int(c))
}

type Credentials struct {
	Username string
	Password string
}

// Node is a member of the cluster under test.
type Node interface {
	Name() string
	Address() string
	// RunningDisruption returns the id of the fault injection currently applied to this node,
	// or the empty string if there is none.
	RunningDisruption() string
}

// Cluster is the membership provider.
type Cluster interface {
	Nodes() []Node
	// NonSystemTables lists the user tables visible through node.
	NonSystemTables(ctx context.Context, node Node) ([]TableId, error)
	// Credentials returns nil if the cluster doesn't use authentication.
	Credentials() *Credentials
}

// SessionProvider opens a session pinned to one node.
type SessionProvider interface {
	OpenSession(ctx context.Context, node Node, credentials *Credentials) (Session, error)
}

// Session is used for one statement execution and closed afterwards.
type Session interface {
	io.Closer
	// Execute runs stmt synchronously and returns once the first page is available.
	Execute(ctx context.Context, stmt string, pageSize int, consistency Consistency) (PageableResult, error)
	// ExecuteAsync submits stmt without waiting; pages arrive via the callbacks registered on the result.
	ExecuteAsync(ctx context.Context, stmt string, pageSize int, consistency Consistency) (AsyncPageableResult, error)
	// PartitionKeys returns the distinct values of the partition key column, formatted as literals.
	PartitionKeys(ctx context.Context, table TableId, pkName string) ([]string, error)
	// ClusteringOrder returns the declared order of the clustering key column.
	ClusteringOrder(ctx context.Context, table TableId, ckName string) (ClusteringOrder, error)
	NonSystemTables(ctx context.Context) ([]TableId, error)
}

// PageableResult is the handle to a synchronously executed statement.
type PageableResult interface {
	HasMorePages() bool
	// FetchNextPage blocks until the next page has arrived.
	FetchNextPage(ctx context.Context) error
	// Rows returns the number of rows in the current page.
	Rows() int
}

// AsyncPageableResult is the handle to an asynchronously executed statement.
// Callbacks run on goroutines owned by the driver; at most one page request is in flight at a time.
type AsyncPageableResult interface {
	// AddCallbacks registers the page and error callbacks and starts delivering the first page.
	AddCallbacks(onPage func(rows int), onError func(err error))
	HasMorePages() bool
	// StartFetchingNextPage requests the next page without blocking.
	StartFetchingNextPage()
}

// SessionFactory opens a session against node using whatever credentials the caller has bound.
type SessionFactory func(ctx context.Context, node Node) (Session, error)
