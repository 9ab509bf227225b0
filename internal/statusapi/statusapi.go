// Package statusapi serves a chi-routed HTTP status surface for a running
// swimd process: the local member's view of its peers, and a Prometheus
// /metrics endpoint.
package statusapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kestrelmesh/swim"
)

// peerStatus is the JSON shape returned for one remote member by GET /members.
type peerStatus struct {
	MemberId    swim.MemberId `json:"member_id"`
	State       string        `json:"state"`
	Incarnation uint64        `json:"incarnation"`
}

// NewRouter builds the chi router for m's status surface. gatherer is the
// Prometheus registry to serve at /metrics; pass prometheus.DefaultGatherer
// to expose the default registry.
func NewRouter(m *swim.Membership, gatherer prometheus.Gatherer) chi.Router {
	r := chi.NewRouter()

	r.Get("/members", func(w http.ResponseWriter, req *http.Request) {
		ids := m.Members()
		statuses := make([]peerStatus, 0, len(ids))
		for _, id := range ids {
			rm := m.RemoteMember(id)
			if rm == nil {
				continue
			}
			statuses = append(statuses, peerStatus{
				MemberId:    rm.Id(),
				State:       rm.State().String(),
				Incarnation: uint64(rm.Incarnation()),
			})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(statuses)
	})

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}
