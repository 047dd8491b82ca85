package server

import (
	"log/slog"
	"net/http"

	apperrors "github.com/TobiSchelling/TweetPulse/internal/errors"
	"github.com/TobiSchelling/TweetPulse/internal/logging"
	"github.com/TobiSchelling/TweetPulse/internal/metrics"
)

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, apperrors.NotFoundError("The page you requested does not exist.").
		WithContext("path", r.URL.Path))
}

// renderError shows err as an HTML error page with its status code. Causes
// of internal errors are logged, never rendered.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	structured := apperrors.AsStructuredError(err)
	status := structured.HTTPStatus()
	metrics.HTTPErrorsTotal.WithLabelValues(string(structured.Type)).Inc()

	title, message := "Something went wrong", "An unexpected error occurred. Please try again later."
	if status < http.StatusInternalServerError {
		title, message = http.StatusText(status), structured.Message
		slog.DebugContext(r.Context(), "page error", "type", structured.Type, "context", structured.Context)
	} else {
		logging.WithError(structured.Cause).ErrorContext(r.Context(), structured.Message, "path", r.URL.Path)
	}
	if status == http.StatusNotFound {
		title = "Page not found"
	}

	user := currentUser(r)
	if user == nil {
		user = s.sessionUser(r)
	}
	s.render(w, r, "error.html", status, map[string]any{
		"User":    user,
		"Status":  status,
		"Title":   title,
		"Message": message,
	})
}
