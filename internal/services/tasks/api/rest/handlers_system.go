package rest

import (
	"net/http"
	"time"

	"github.com/louisbranch/taskmanager/internal/platform/httpx"
)

type healthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type infoResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = httpx.WriteJSON(w, http.StatusOK, healthResponse{
		Success:   true,
		Message:   "Server is running",
		Timestamp: s.clock().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	_ = httpx.WriteJSON(w, http.StatusOK, infoResponse{
		Success: true,
		Message: "Task Management API",
		Version: APIVersion,
		Endpoints: map[string]string{
			"health": "/api/health",
			"auth":   "/api/auth",
			"tasks":  "/api/tasks",
		},
	})
}

func handleRouteNotFound(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteFailure(w, http.StatusNotFound, "Route not found")
}
