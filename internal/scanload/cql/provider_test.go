package cql

import (
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"

	"github.com/G-Research/scanload/internal/scanload/cluster"
	"github.com/G-Research/scanload/internal/scanload/configuration"
)

func TestFormatLiteral(t *testing.T) {
	uuid := gocql.TimeUUID()
	tests := map[string]struct {
		value    interface{}
		expected string
	}{
		"int":         {value: 42, expected: "42"},
		"bigint":      {value: int64(-7), expected: "-7"},
		"text":        {value: "abc", expected: "'abc'"},
		"quoted text": {value: "it's", expected: "'it''s'"},
		"blob":        {value: []byte{0xca, 0xfe}, expected: "0xcafe"},
		"uuid":        {value: uuid, expected: uuid.String()},
		"timestamp":   {value: time.Date(2022, 1, 2, 3, 4, 5, 0, time.UTC), expected: "'2022-01-02T03:04:05.000Z'"},
		"bool":        {value: true, expected: "true"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, formatLiteral(tc.value))
		})
	}
}

func TestIsSystemKeyspace(t *testing.T) {
	assert.True(t, isSystemKeyspace("system"))
	assert.True(t, isSystemKeyspace("system_schema"))
	assert.True(t, isSystemKeyspace("audit"))
	assert.False(t, isSystemKeyspace("keyspace1"))
	assert.False(t, isSystemKeyspace("systemic"))
}

func TestToGocql(t *testing.T) {
	assert.Equal(t, gocql.One, toGocql(cluster.ConsistencyOne))
	assert.Equal(t, gocql.Quorum, toGocql(cluster.ConsistencyQuorum))
	assert.Equal(t, gocql.All, toGocql(cluster.ConsistencyAll))
	assert.Equal(t, gocql.One, toGocql(cluster.Consistency(0)))
}

func TestClusterConfig(t *testing.T) {
	provider := NewSessionProvider(configuration.ClusterConfig{
		Port:           19042,
		ConnectTimeout: 3 * time.Second,
		Timeout:        20 * time.Second,
	})
	node := cluster.NewStaticNode("node-1", "10.0.0.1", nil)

	config := provider.clusterConfig(node, &cluster.Credentials{Username: "cassandra", Password: "secret"})
	assert.Equal(t, []string{"10.0.0.1"}, config.Hosts)
	assert.Equal(t, 19042, config.Port)
	assert.Equal(t, 3*time.Second, config.ConnectTimeout)
	assert.Equal(t, 20*time.Second, config.Timeout)
	assert.Equal(t, gocql.One, config.Consistency)
	assert.Equal(t, gocql.PasswordAuthenticator{Username: "cassandra", Password: "secret"}, config.Authenticator)
	assert.NotNil(t, config.HostFilter)
}

func TestClusterConfig_Defaults(t *testing.T) {
	provider := NewSessionProvider(configuration.ClusterConfig{})
	config := provider.clusterConfig(cluster.NewStaticNode("node-1", "10.0.0.1", nil), nil)
	assert.Equal(t, 9042, config.Port)
	assert.Nil(t, config.Authenticator)
}

func TestResult_HasMorePages(t *testing.T) {
	r := &result{}
	assert.False(t, r.HasMorePages())
	r.fetched = true
	assert.False(t, r.HasMorePages())
	r.state = []byte{1}
	assert.True(t, r.HasMorePages())
}
