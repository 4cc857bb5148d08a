package cluster

import (
	"context"

	"github.com/pkg/errors"

	"github.com/G-Research/scanload/internal/common/util"
)

// StaticNode is a node with a fixed address whose disruption state is looked up in a registry.
type StaticNode struct {
	name        string
	address     string
	disruptions *DisruptionRegistry
}

func NewStaticNode(name string, address string, disruptions *DisruptionRegistry) *StaticNode {
	return &StaticNode{name: name, address: address, disruptions: disruptions}
}

func (n *StaticNode) Name() string    { return n.name }
func (n *StaticNode) Address() string { return n.address }

func (n *StaticNode) RunningDisruption() string {
	if n.disruptions == nil {
		return ""
	}
	return n.disruptions.Running(n.name)
}

// StaticCluster is a cluster with a fixed membership. Table listings are read through a session
// opened on the requested node.
type StaticCluster struct {
	nodes       []Node
	credentials *Credentials
	sessions    SessionProvider
}

func NewStaticCluster(nodes []Node, credentials *Credentials, sessions SessionProvider) *StaticCluster {
	return &StaticCluster{nodes: nodes, credentials: credentials, sessions: sessions}
}

func (c *StaticCluster) Nodes() []Node {
	return c.nodes
}

func (c *StaticCluster) Credentials() *Credentials {
	return c.credentials
}

func (c *StaticCluster) NonSystemTables(ctx context.Context, node Node) ([]TableId, error) {
	session, err := c.sessions.OpenSession(ctx, node, c.credentials)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to open session on node %s", node.Name())
	}
	defer util.CloseResource("session", session)
	return session.NonSystemTables(ctx)
}
