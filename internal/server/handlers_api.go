package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apperrors "github.com/TobiSchelling/TweetPulse/internal/errors"
	"github.com/TobiSchelling/TweetPulse/internal/metrics"
)

type predictResponse struct {
	Sentiment string `json:"sentiment"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow(clientIP(r)) {
		metrics.PredictRequestsTotal.WithLabelValues("rate_limited").Inc()
		s.writeError(w, r, apperrors.RateLimitError("too many requests"))
		return
	}

	query := r.URL.Query()
	if !query.Has("text") {
		metrics.PredictRequestsTotal.WithLabelValues("invalid").Inc()
		s.writeError(w, r, apperrors.ValidationError("missing required query parameter").WithContext("parameter", "text"))
		return
	}

	label, err := s.classifier.Classify(query.Get("text"))
	if err != nil {
		metrics.PredictRequestsTotal.WithLabelValues("error").Inc()
		s.writeError(w, r, apperrors.InternalError("classification failed", err))
		return
	}

	metrics.PredictRequestsTotal.WithLabelValues("ok").Inc()
	metrics.ClassificationsTotal.WithLabelValues(label.String()).Inc()
	writeJSON(w, http.StatusOK, predictResponse{Sentiment: label.String()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.writeError(w, r, apperrors.InternalError("database unavailable", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	structured := apperrors.WriteJSON(w, err)
	metrics.HTTPErrorsTotal.WithLabelValues(string(structured.Type)).Inc()

	attrs := []any{
		"error_type", structured.Type,
		"message", structured.Message,
		"path", r.URL.Path,
		"status", structured.HTTPStatus(),
	}
	if structured.Cause != nil {
		attrs = append(attrs, "cause", structured.Cause)
	}
	if structured.HTTPStatus() >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", attrs...)
	} else {
		slog.DebugContext(r.Context(), "request rejected", attrs...)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
