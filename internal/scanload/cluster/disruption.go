package cluster

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// DisruptionRegistry records which fault injection is currently applied to which node.
// The orchestrator marks a node when a disruption starts and clears it when it ends;
// entries expire after ttl in case the clear never arrives.
type DisruptionRegistry struct {
	disruptions *cache.Cache
	ttl         time.Duration
}

func NewDisruptionRegistry(ttl time.Duration) *DisruptionRegistry {
	return &DisruptionRegistry{
		disruptions: cache.New(ttl, ttl),
		ttl:         ttl,
	}
}

func (r *DisruptionRegistry) Start(nodeName string, disruption string) {
	r.disruptions.Set(nodeName, disruption, r.ttl)
}

func (r *DisruptionRegistry) Stop(nodeName string) {
	r.disruptions.Delete(nodeName)
}

// Running returns the disruption applied to nodeName, or the empty string.
func (r *DisruptionRegistry) Running(nodeName string) string {
	if d, ok := r.disruptions.Get(nodeName); ok {
		return d.(string)
	}
	return ""
}
