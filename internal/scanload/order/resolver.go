// Package order resolves the natural clustering order of a table.
package order

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/G-Research/scanload/internal/common/logctx"
	"github.com/G-Research/scanload/internal/common/util"
	"github.com/G-Research/scanload/internal/scanload/cluster"
)

// Resolve asks each node in turn for the clustering order of ckName in table and returns the first answer.
// Per-node failures are logged and skipped; an error is returned only if every node fails.
func Resolve(ctx *logctx.Context, table cluster.TableId, ckName string, nodes []cluster.Node, sessions cluster.SessionFactory) (cluster.ClusteringOrder, error) {
	var result *multierror.Error
	for _, node := range nodes {
		order, err := resolveThrough(ctx, table, ckName, node, sessions)
		if err == nil {
			ctx.Log.Infof("Table %s has clustering order %s (resolved through node %s)", table, order, node.Name())
			return order, nil
		}
		ctx.Log.Infof("Failed getting table %s clustering order through node %s : %s", table, node.Name(), err)
		result = multierror.Append(result, errors.WithMessagef(err, "node %s", node.Name()))
	}
	if result == nil {
		return "", errors.Errorf("failed getting table %s clustering order: no db nodes", table)
	}
	return "", errors.WithMessagef(result.ErrorOrNil(), "failed getting table %s clustering order from all db nodes", table)
}

func resolveThrough(ctx *logctx.Context, table cluster.TableId, ckName string, node cluster.Node, sessions cluster.SessionFactory) (cluster.ClusteringOrder, error) {
	session, err := sessions(ctx, node)
	if err != nil {
		return "", err
	}
	defer util.CloseResource("session", session)
	return session.ClusteringOrder(ctx, table, ckName)
}
