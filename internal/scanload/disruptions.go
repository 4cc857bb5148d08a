package scanload

import (
	"io"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/G-Research/scanload/internal/scanload/cluster"
)

const disruptionsPath = "/disruptions/"

// DisruptionHandler lets the fault-injection orchestrator tell scan jobs which disruption is running on which node.
//
//	PUT    /disruptions/<node>  body is the disruption id
//	DELETE /disruptions/<node>
//	GET    /disruptions/<node>  returns the running disruption id, if any
type DisruptionHandler struct {
	registry *cluster.DisruptionRegistry
}

func NewDisruptionHandler(registry *cluster.DisruptionRegistry) *DisruptionHandler {
	return &DisruptionHandler{registry: registry}
}

func (h *DisruptionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	node := strings.TrimPrefix(r.URL.Path, disruptionsPath)
	if node == "" || strings.Contains(node, "/") {
		http.Error(w, "expected /disruptions/<node>", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		disruption := h.registry.Running(node)
		if disruption == "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = io.WriteString(w, disruption)
	case http.MethodPut, http.MethodPost:
		body, err := io.ReadAll(io.LimitReader(r.Body, 1024))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		disruption := strings.TrimSpace(string(body))
		if disruption == "" {
			http.Error(w, "disruption id must not be empty", http.StatusBadRequest)
			return
		}
		h.registry.Start(node, disruption)
		log.Infof("Disruption %s started on node %s", disruption, node)
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		h.registry.Stop(node)
		log.Infof("Disruption on node %s ended", node)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", "GET, PUT, POST, DELETE")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
