package handlers

import (
	"net/http"
	"time"
)

var startedAt = time.Now()

type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// Healthz reports liveness. It needs no session.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Uptime: time.Since(startedAt).Round(time.Second).String(),
	})
}
