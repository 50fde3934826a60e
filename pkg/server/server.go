// Package server exposes a chat session over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/perbu/careeradvisor/pkg/chat"
	"github.com/perbu/careeradvisor/pkg/retrieval"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message" validate:"max=2000"`
}

// ChatResponse is returned for an answered message.
type ChatResponse struct {
	Reply   string  `json:"reply"`
	Matched bool    `json:"matched"`
	Score   float64 `json:"score,omitempty"`
}

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse wraps every successful payload.
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// Server serves one chat session.
type Server struct {
	session  *chat.Session
	logger   *zap.Logger
	validate *validator.Validate
}

// New creates a Server for session.
func New(session *chat.Session, logger *zap.Logger) *Server {
	return &Server{
		session:  session,
		logger:   logger,
		validate: validator.New(),
	}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Get("/history", s.handleHistory)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http chat listening", zap.String("addr", addr), zap.String("session_id", s.session.ID()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, SuccessResponse{Data: map[string]string{"status": "ok"}})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "Invalid JSON payload")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "message must be at most 2000 characters")
		return
	}

	reply, err := s.session.Ask(r.Context(), req.Message)
	if err != nil {
		var embErr *retrieval.EmbeddingError
		if errors.As(err, &embErr) {
			respondError(w, http.StatusBadGateway, "embedding_failed", "Could not analyse the question, please try again")
			return
		}
		s.logger.Error("chat turn failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	resp := ChatResponse{Reply: reply.Text}
	if m, ok := reply.Result.(retrieval.Matched); ok {
		resp.Matched = true
		resp.Score = m.Score
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Data: resp})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, SuccessResponse{Data: s.session.History()})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError writes an error JSON response
func respondError(w http.ResponseWriter, statusCode int, err string, message string) {
	respondJSON(w, statusCode, ErrorResponse{
		Error:   err,
		Message: message,
	})
}
