// Package server is the thin web layer over the query service. It only
// serializes requests and responses; all semantics live in internal/query.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cropwise/agroquery/internal/query"
)

// Server serves the question-answering API.
type Server struct {
	svc  *query.Service
	log  *slog.Logger
	port int
}

// New builds a Server around a query service.
func New(svc *query.Service, log *slog.Logger, port int) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{svc: svc, log: log, port: port}
}

type queryRequest struct {
	Question string `json:"question"`
	Q        string `json:"q"`
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Post("/api/query", s.handleQuery)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	// Tolerate malformed bodies: they read as an empty question below.
	_ = json.NewDecoder(r.Body).Decode(&req)
	question := req.Question
	if question == "" {
		question = req.Q
	}
	if strings.TrimSpace(question) == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{
			"answer_text":   "Please provide a question (e.g. 'list states' or 'Compare the average annual climate metric for the last 5 years').",
			"chart":         nil,
			"climate_table": []any{},
			"top_crops":     map[string]any{},
			"provenance":    []any{},
		})
		return
	}

	start := time.Now()
	resp := s.svc.Handle(question)
	s.log.Info("query answered", "id", resp.ID, "elapsed", time.Since(start))
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", "err", err)
	}
}

// ListenAndServe blocks serving the API on the configured port.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.log.Info("serving", "addr", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
