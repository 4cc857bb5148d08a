// Package statement generates the randomized scan statements issued by scan jobs.
package statement

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/G-Research/scanload/internal/common/logctx"
	"github.com/G-Research/scanload/internal/common/util"
	"github.com/G-Research/scanload/internal/scanload/cluster"
)

const (
	basicQuery  = "select * from %s"
	bypassCache = " bypass cache"
)

// Statement timeouts a full-table scan may be given, in seconds.
var statementTimeoutsSeconds = []int{2, 4, 8, 30, 120, 300}

// Scan holds the statements produced for one iteration.
type Scan struct {
	// Statement is what gets executed. For partition scans this is the reversed query.
	Statement string
	// Normal is the forward-order query describing the same rows as Statement.
	// Empty for full-table scans.
	Normal string
	// Filter is the clustering key filter used by a partition scan.
	Filter FilterKind
}

// Generator produces the statements for one scan iteration.
// A nil Scan with a nil error means there's nothing to scan this time and the iteration should be skipped.
type Generator interface {
	Generate(ctx *logctx.Context, node cluster.Node, table cluster.TableId) (*Scan, error)
}

// FullScanGenerator produces `select * from <table>`, randomly bypassing the cache
// and randomly adding a statement timeout.
type FullScanGenerator struct {
	random util.Random
}

func NewFullScanGenerator(random util.Random) *FullScanGenerator {
	return &FullScanGenerator{random: random}
}

func (g *FullScanGenerator) Generate(_ *logctx.Context, _ cluster.Node, table cluster.TableId) (*Scan, error) {
	stmt := fmt.Sprintf(basicQuery, table)
	if util.RandBool(g.random, 1, 2) {
		stmt += bypassCache
	}
	if util.RandBool(g.random, 2, 3) {
		stmt += fmt.Sprintf(" USING TIMEOUT %ds", util.RandChoice(g.random, statementTimeoutsSeconds))
	}
	return &Scan{Statement: stmt}, nil
}

type PartitionScanConfig struct {
	PkName    string
	CkName    string
	RowsCount int
	// Order is the table's natural clustering order. Queries are issued in the reverse direction.
	Order cluster.ClusteringOrder
}

// PartitionScanGenerator produces a reversed-order query over one random partition,
// along with the forward-order query that should return the same rows.
type PartitionScanGenerator struct {
	config   PartitionScanConfig
	random   util.Random
	sessions cluster.SessionFactory
}

func NewPartitionScanGenerator(config PartitionScanConfig, random util.Random, sessions cluster.SessionFactory) *PartitionScanGenerator {
	return &PartitionScanGenerator{config: config, random: random, sessions: sessions}
}

func (g *PartitionScanGenerator) Generate(ctx *logctx.Context, node cluster.Node, table cluster.TableId) (*Scan, error) {
	rowsCount := g.config.RowsCount
	ckMin := util.RandInt(g.random, 1, rowsCount)
	ckMax := util.RandInt(g.random, ckMin, rowsCount)
	filter := util.RandChoice(g.random, FilterKinds)

	keys, err := g.partitionKeys(ctx, node, table)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		ctx.Log.Infof("No partition keys found for table: %s! A reversed query cannot be executed!", table)
		return nil, nil
	}

	params := PartitionScanParams{
		Table:        table,
		PkName:       g.config.PkName,
		CkName:       g.config.CkName,
		PartitionKey: util.RandChoice(g.random, keys),
		RowsCount:    rowsCount,
		Filter:       filter,
		CkMin:        ckMin,
		CkMax:        ckMax,
		Order:        g.config.Order.Reversed(),
	}
	if util.RandBool(g.random, 1, 2) {
		params.Limit = util.RandInt(g.random, 1, rowsCount)
	}
	params.BypassCache = util.RandBool(g.random, 1, 2)

	scan := BuildPartitionScan(params)
	ctx.Log.Infof("Randomly formed normal query is: %s", scan.Normal)
	ctx.Log.Infof("[type: %s] Randomly formed reversed query is: %s", scan.Filter, scan.Statement)
	return scan, nil
}

func (g *PartitionScanGenerator) partitionKeys(ctx *logctx.Context, node cluster.Node, table cluster.TableId) ([]string, error) {
	session, err := g.sessions(ctx, node)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to open session on node %s", node.Name())
	}
	defer util.CloseResource("session", session)
	return session.PartitionKeys(ctx, table, g.config.PkName)
}

// PartitionScanParams fixes every random choice that goes into a partition scan.
type PartitionScanParams struct {
	Table        cluster.TableId
	PkName       string
	CkName       string
	PartitionKey string
	RowsCount    int
	Filter       FilterKind
	CkMin        int
	CkMax        int
	// Limit of 0 means no limit clause.
	Limit       int
	BypassCache bool
	// Order is the direction of the reversed query's order by clause.
	Order cluster.ClusteringOrder
}

// BuildPartitionScan builds the reversed query described by p and derives its forward-order equivalent.
//
// A reversed query with a limit returns the topmost rows of the filtered range, whereas the same
// filter and limit in forward order would return the bottommost ones. The forward query's range is
// therefore re-anchored so both describe the same rows. For example, with 20 rows per partition:
//
//	reversed: ... where pk = 1 and ck > 10 order by ck desc limit 5
//	normal:   ... where pk = 1 and ck > 15 limit 5
func BuildPartitionScan(p PartitionScanParams) *Scan {
	base := fmt.Sprintf(basicQuery, p.Table) + fmt.Sprintf(" where %s = %s", p.PkName, p.PartitionKey)
	ck := p.CkName
	hasLimit := p.Limit > 0

	var suffix strings.Builder
	if hasLimit {
		fmt.Fprintf(&suffix, " limit %d", p.Limit)
	}
	if p.BypassCache {
		suffix.WriteString(bypassCache)
	}

	reversed := base
	normal := base
	switch p.Filter {
	case LessAndGreaterThan:
		// e.g. ck < 15 and ck > 10 holds 4 rows: [11..14]
		reversed += fmt.Sprintf(" and %s < %d and %s > %d", ck, p.CkMax, ck, p.CkMin)
		ckRange := p.CkMax - p.CkMin - 1
		if hasLimit && p.Limit < ckRange {
			normal += fmt.Sprintf(" and %s < %d and %s >= %d", ck, p.CkMax, ck, p.CkMax-p.Limit)
		} else {
			normal = reversed
		}
	case GreaterThan:
		reversed += fmt.Sprintf(" and %s > %d", ck, p.CkMin)
		ckRange := p.RowsCount - p.CkMin
		if hasLimit && p.Limit < ckRange {
			normal += fmt.Sprintf(" and %s > %d", ck, p.RowsCount-p.Limit)
		} else {
			normal = reversed
		}
	case LessThan:
		reversed += fmt.Sprintf(" and %s < %d", ck, p.CkMin)
		if hasLimit && p.Limit < p.CkMin {
			normal += fmt.Sprintf(" and %s >= %d", ck, p.CkMin-p.Limit)
		} else {
			normal = reversed
		}
	}
	reversed += fmt.Sprintf(" order by %s %s", ck, p.Order)

	return &Scan{
		Statement: reversed + suffix.String(),
		Normal:    normal + suffix.String(),
		Filter:    p.Filter,
	}
}
