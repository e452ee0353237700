package http

import (
	"context"
	"net/http"
)

const apiVersion = "1.0.0"

// GraphPinger probes connectivity to the graph database.
type GraphPinger interface {
	VerifyConnectivity(ctx context.Context) error
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    "netgraph",
		"version": apiVersion,
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	database := "connected"
	if h.graphPing == nil || h.graphPing.VerifyConnectivity(r.Context()) != nil {
		status = "degraded"
		database = "disconnected"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   status,
		"database": database,
		"version":  apiVersion,
	})
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.graphPing == nil || h.graphPing.VerifyConnectivity(r.Context()) != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database disconnected",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}
