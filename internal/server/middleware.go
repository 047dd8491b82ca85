package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/TobiSchelling/TweetPulse/internal/database"
	"github.com/TobiSchelling/TweetPulse/internal/logging"
	"github.com/TobiSchelling/TweetPulse/internal/metrics"
)

const (
	sessionKeyUserID = "user_id"
	flashSuccess     = "success"
	flashDanger      = "danger"

	loginRequiredMessage = "Please log in to access this page."
)

type userContextKey struct{}

// withCorrelationID tags each request context with an ID, reusing an
// incoming X-Request-ID when present.
func withCorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" || len(id) > 64 {
			id = logging.NewCorrelationID()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logging.WithCorrelationID(r.Context(), id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "other"
		}
		elapsed := time.Since(start)
		metrics.HTTPRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
		slog.DebugContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", elapsed,
		)
	})
}

// requireAuth redirects to /login with a flash unless the session belongs
// to an existing user.
func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := s.sessionUser(r)
		if user == nil {
			s.addFlash(w, r, flashDanger, loginRequiredMessage)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userContextKey{}, user)))
	})
}

// sessionUser loads the logged-in user, or nil.
func (s *Server) sessionUser(r *http.Request) *database.User {
	session, err := s.sessions.Get(r, sessionName)
	if err != nil {
		return nil
	}
	id, ok := session.Values[sessionKeyUserID].(int64)
	if !ok {
		return nil
	}
	user, err := s.auth.User(id)
	if err != nil {
		slog.ErrorContext(r.Context(), "loading session user", "error", err)
		return nil
	}
	return user
}

func currentUser(r *http.Request) *database.User {
	u, _ := r.Context().Value(userContextKey{}).(*database.User)
	return u
}

// addFlash queues a message for the next rendered page. The caller redirects
// afterwards.
func (s *Server) addFlash(w http.ResponseWriter, r *http.Request, category, message string) {
	session, _ := s.sessions.Get(r, sessionName)
	session.AddFlash(message, category)
	if err := session.Save(r, w); err != nil {
		slog.ErrorContext(r.Context(), "saving flash", "error", err)
	}
}

// Flash is a one-time message shown on the next page.
type Flash struct {
	Category string
	Message  string
}

func (s *Server) takeFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	session, err := s.sessions.Get(r, sessionName)
	if err != nil {
		return nil
	}
	var out []Flash
	for _, category := range []string{flashSuccess, flashDanger} {
		for _, f := range session.Flashes(category) {
			if msg, ok := f.(string); ok {
				out = append(out, Flash{Category: category, Message: msg})
			}
		}
	}
	if len(out) > 0 {
		if err := session.Save(r, w); err != nil {
			slog.ErrorContext(r.Context(), "saving session", "error", err)
		}
	}
	return out
}
