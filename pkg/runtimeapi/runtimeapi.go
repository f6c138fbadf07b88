// Package runtimeapi routes the small loopback control API the Agent Task
// Runtime exposes back to the control plane (spec.md §4.5: "via
// loopback/HTTP or local socket"): cancel the in-flight task, report context
// usage, and clear/compact the conversation.
package runtimeapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/raworc/raworc/pkg/runtime"
)

// DefaultPort is the port the runtime's control API listens on inside the
// agent container. The control plane reaches it by the container's Docker
// DNS name (models.ContainerName) on the shared agent network.
const DefaultPort = 8090

// Server wraps a Runtime with its loopback HTTP surface.
type Server struct {
	rt *runtime.Runtime
}

// New builds the chi router for rt's control API.
func New(rt *runtime.Runtime) http.Handler {
	s := &Server{rt: rt}

	r := chi.NewRouter()
	r.Post("/v1/cancel", s.handleCancel)
	r.Get("/v1/context", s.handleContext)
	r.Post("/v1/context/clear", s.handleContextClear)
	r.Post("/v1/context/compact", s.handleContextCompact)
	return r
}

type errorBody struct {
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Message: message})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type cancelRequest struct {
	TaskID string `json:"task_id"`
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TaskID == "" {
		writeError(w, http.StatusBadRequest, "task_id is required")
		return
	}
	if !s.rt.RequestCancel(req.TaskID) {
		writeError(w, http.StatusNotFound, "no in-flight task with that id")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type contextResponse struct {
	SoftLimitTokens int     `json:"soft_limit_tokens"`
	UsedEstimated   int     `json:"used_estimated"`
	UsedPercent     float64 `json:"used_percent"`
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	used, softLimit, usedPercent := s.rt.ContextUsage()
	writeJSON(w, contextResponse{SoftLimitTokens: softLimit, UsedEstimated: used, UsedPercent: usedPercent})
}

type contextOpRequest struct {
	TaskID string `json:"task_id"`
}

func (s *Server) handleContextClear(w http.ResponseWriter, r *http.Request) {
	var req contextOpRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if err := s.rt.ClearContext(r.Context(), req.TaskID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleContextCompact(w http.ResponseWriter, r *http.Request) {
	var req contextOpRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if err := s.rt.CompactContext(r.Context(), req.TaskID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
