package statement

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/G-Research/scanload/internal/common/logctx"
	"github.com/G-Research/scanload/internal/common/util"
	"github.com/G-Research/scanload/internal/scanload/cluster"
	"github.com/G-Research/scanload/internal/scanload/testfixtures"
)

var testTable = cluster.TableId{Keyspace: "ks", Name: "cf"}

func TestBuildPartitionScan(t *testing.T) {
	tests := map[string]struct {
		params           PartitionScanParams
		expectedReversed string
		expectedNormal   string
	}{
		"gt with limit smaller than span": {
			params:           params(GreaterThan, 10, 10, 5, false, cluster.Descending),
			expectedReversed: "select * from ks.cf where pk = 1 and ck > 10 order by ck desc limit 5",
			expectedNormal:   "select * from ks.cf where pk = 1 and ck > 15 limit 5",
		},
		"gt with limit covering span": {
			params:           params(GreaterThan, 10, 10, 10, false, cluster.Descending),
			expectedReversed: "select * from ks.cf where pk = 1 and ck > 10 order by ck desc limit 10",
			expectedNormal:   "select * from ks.cf where pk = 1 and ck > 10 limit 10",
		},
		"gt without limit": {
			params:           params(GreaterThan, 10, 10, 0, true, cluster.Descending),
			expectedReversed: "select * from ks.cf where pk = 1 and ck > 10 order by ck desc bypass cache",
			expectedNormal:   "select * from ks.cf where pk = 1 and ck > 10 bypass cache",
		},
		"lt with limit smaller than span": {
			params:           params(LessThan, 10, 10, 5, false, cluster.Descending),
			expectedReversed: "select * from ks.cf where pk = 1 and ck < 10 order by ck desc limit 5",
			expectedNormal:   "select * from ks.cf where pk = 1 and ck >= 5 limit 5",
		},
		"lt with limit covering span": {
			params:           params(LessThan, 10, 10, 10, true, cluster.Ascending),
			expectedReversed: "select * from ks.cf where pk = 1 and ck < 10 order by ck asc limit 10 bypass cache",
			expectedNormal:   "select * from ks.cf where pk = 1 and ck < 10 limit 10 bypass cache",
		},
		"lt_and_gt with limit smaller than span": {
			params:           params(LessAndGreaterThan, 10, 15, 3, false, cluster.Descending),
			expectedReversed: "select * from ks.cf where pk = 1 and ck < 15 and ck > 10 order by ck desc limit 3",
			expectedNormal:   "select * from ks.cf where pk = 1 and ck < 15 and ck >= 12 limit 3",
		},
		"lt_and_gt with limit equal to span": {
			params:           params(LessAndGreaterThan, 10, 15, 4, false, cluster.Descending),
			expectedReversed: "select * from ks.cf where pk = 1 and ck < 15 and ck > 10 order by ck desc limit 4",
			expectedNormal:   "select * from ks.cf where pk = 1 and ck < 15 and ck > 10 limit 4",
		},
		"no_filter": {
			params:           params(NoFilter, 10, 15, 7, true, cluster.Ascending),
			expectedReversed: "select * from ks.cf where pk = 1 order by ck asc limit 7 bypass cache",
			expectedNormal:   "select * from ks.cf where pk = 1 limit 7 bypass cache",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			scan := BuildPartitionScan(tc.params)
			assert.Equal(t, tc.expectedReversed, scan.Statement)
			assert.Equal(t, tc.expectedNormal, scan.Normal)
			assert.Equal(t, tc.params.Filter, scan.Filter)
		})
	}
}

func TestBuildPartitionScan_NormalQueryDerivation(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		rowsCount := util.RandInt(r, 1, 50)
		ckMin := util.RandInt(r, 1, rowsCount)
		ckMax := util.RandInt(r, ckMin, rowsCount)
		limit := 0
		if util.RandBool(r, 1, 2) {
			limit = util.RandInt(r, 1, rowsCount)
		}
		p := PartitionScanParams{
			Table:        testTable,
			PkName:       "pk",
			CkName:       "ck",
			PartitionKey: "1",
			RowsCount:    rowsCount,
			Filter:       util.RandChoice(r, FilterKinds),
			CkMin:        ckMin,
			CkMax:        ckMax,
			Limit:        limit,
			BypassCache:  util.RandBool(r, 1, 2),
			Order:        util.RandChoice(r, []cluster.ClusteringOrder{cluster.Ascending, cluster.Descending}),
		}
		scan := BuildPartitionScan(p)

		orderBy := fmt.Sprintf(" order by ck %s", p.Order)
		require.Contains(t, scan.Statement, orderBy)
		require.NotContains(t, scan.Normal, "order by")

		reversedWithoutOrder := strings.Replace(scan.Statement, orderBy, "", 1)
		switch p.Filter {
		case LessAndGreaterThan:
			if limit > 0 && limit < ckMax-ckMin-1 {
				assert.Contains(t, scan.Normal, fmt.Sprintf(" and ck < %d and ck >= %d", ckMax, ckMax-limit))
			} else {
				assert.Equal(t, reversedWithoutOrder, scan.Normal)
			}
		case GreaterThan:
			if limit > 0 && limit < rowsCount-ckMin {
				assert.Contains(t, scan.Normal, fmt.Sprintf(" and ck > %d", rowsCount-limit))
			} else {
				assert.Equal(t, reversedWithoutOrder, scan.Normal)
			}
		case LessThan:
			if limit > 0 && limit < ckMin {
				assert.Contains(t, scan.Normal, fmt.Sprintf(" and ck >= %d", ckMin-limit))
			} else {
				assert.Equal(t, reversedWithoutOrder, scan.Normal)
			}
		case NoFilter:
			assert.Equal(t, reversedWithoutOrder, scan.Normal)
		}

		suffix := strings.SplitAfterN(scan.Statement, orderBy, 2)[1]
		assert.True(t, strings.HasSuffix(scan.Normal, suffix))
	}
}

func TestPartitionScanGenerator_ReversesNaturalOrder(t *testing.T) {
	for _, order := range []cluster.ClusteringOrder{cluster.Ascending, cluster.Descending} {
		t.Run(string(order), func(t *testing.T) {
			sessions := &testfixtures.SessionProvider{
				PartitionKeys: map[cluster.TableId][]string{testTable: {"1", "2", "3"}},
			}
			g := NewPartitionScanGenerator(
				PartitionScanConfig{PkName: "pk", CkName: "ck", RowsCount: 100, Order: order},
				rand.New(rand.NewSource(7)),
				sessions.Factory(),
			)
			node := testfixtures.Nodes(1, nil)[0]
			for i := 0; i < 100; i++ {
				scan, err := g.Generate(logctx.Background(), node, testTable)
				require.NoError(t, err)
				require.NotNil(t, scan)
				assert.Contains(t, scan.Statement, fmt.Sprintf(" order by ck %s", order.Reversed()))
				assert.Regexp(t, `^select \* from ks\.cf where pk = [123]( |$)`, scan.Statement)
			}
			assert.Equal(t, sessions.Opened(), sessions.Closed())
		})
	}
}

func TestPartitionScanGenerator_NoPartitionKeys(t *testing.T) {
	sessions := &testfixtures.SessionProvider{}
	g := NewPartitionScanGenerator(
		PartitionScanConfig{PkName: "pk", CkName: "ck", RowsCount: 20, Order: cluster.Ascending},
		rand.New(rand.NewSource(1)),
		sessions.Factory(),
	)
	scan, err := g.Generate(logctx.Background(), testfixtures.Nodes(1, nil)[0], testTable)
	assert.NoError(t, err)
	assert.Nil(t, scan)
	assert.Equal(t, 1, sessions.Closed())
}

func TestPartitionScanGenerator_SessionError(t *testing.T) {
	node := testfixtures.Nodes(1, nil)[0]
	sessions := &testfixtures.SessionProvider{
		OpenErrs: map[string]error{node.Name(): fmt.Errorf("connection refused")},
	}
	g := NewPartitionScanGenerator(
		PartitionScanConfig{PkName: "pk", CkName: "ck", RowsCount: 20, Order: cluster.Ascending},
		rand.New(rand.NewSource(1)),
		sessions.Factory(),
	)
	scan, err := g.Generate(logctx.Background(), node, testTable)
	assert.Error(t, err)
	assert.Nil(t, scan)
}

func TestFullScanGenerator(t *testing.T) {
	g := NewFullScanGenerator(rand.New(rand.NewSource(3)))
	withBypass, withTimeout := 0, 0
	const n = 3000
	for i := 0; i < n; i++ {
		scan, err := g.Generate(logctx.Background(), nil, testTable)
		require.NoError(t, err)
		assert.Regexp(t, `^select \* from ks\.cf( bypass cache)?( USING TIMEOUT (2|4|8|30|120|300)s)?$`, scan.Statement)
		assert.Empty(t, scan.Normal)
		if strings.Contains(scan.Statement, "bypass cache") {
			withBypass++
		}
		if strings.Contains(scan.Statement, "USING TIMEOUT") {
			withTimeout++
		}
	}
	assert.InDelta(t, 0.5, float64(withBypass)/n, 0.05)
	assert.InDelta(t, 2.0/3.0, float64(withTimeout)/n, 0.05)
}

func params(filter FilterKind, ckMin, ckMax, limit int, bypass bool, order cluster.ClusteringOrder) PartitionScanParams {
	return PartitionScanParams{
		Table:        testTable,
		PkName:       "pk",
		CkName:       "ck",
		PartitionKey: "1",
		RowsCount:    20,
		Filter:       filter,
		CkMin:        ckMin,
		CkMax:        ckMax,
		Limit:        limit,
		BypassCache:  bypass,
		Order:        order,
	}
}
