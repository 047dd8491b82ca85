package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yuin/goldmark"

	"github.com/TobiSchelling/TweetPulse/internal/auth"
	"github.com/TobiSchelling/TweetPulse/internal/config"
	"github.com/TobiSchelling/TweetPulse/internal/database"
	"github.com/TobiSchelling/TweetPulse/internal/pipeline"
	"github.com/TobiSchelling/TweetPulse/internal/sentiment"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

const sessionName = "tweetpulse_session"

// Classifier labels a single text. *sentiment.Scorer satisfies it.
type Classifier interface {
	Classify(text string) (sentiment.Label, error)
}

// Server is the HTTP server for the dashboard and prediction API.
type Server struct {
	db          *database.DB
	classifier  Classifier
	refresher   pipeline.Refresher
	auth        *auth.Service
	sessions    *sessions.CookieStore
	limiter     *RateLimiter
	loc         *time.Location
	latestCount int
	pageSize    int
	pages       map[string]*template.Template
	mux         *http.ServeMux
}

// New creates a new Server. refresher may be nil, in which case /refresh
// reports that refreshing is unavailable.
func New(cfg *config.Config, db *database.DB, classifier Classifier, refresher pipeline.Refresher) (*Server, error) {
	loc := cfg.Location()

	funcMap := template.FuncMap{
		"markdown":   renderMarkdown,
		"formatDate": func(t time.Time) string { return FormatCustomDate(t, loc) },
		"percent":    func(c database.SentimentCounts, n int) string { return fmt.Sprintf("%.1f", c.Percent(n)) },
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of base so {{define "content"}} does not
	// collide across pages.
	pageNames := []string{"login.html", "register.html", "dashboard.html", "tweets.html", "feedback.html", "error.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	secret := []byte(cfg.SessionSecret())
	if len(secret) == 0 {
		slog.Warn("no session secret configured; sessions will not survive a restart",
			"env", cfg.Server.SessionSecretEnv)
		secret = securecookie.GenerateRandomKey(32)
	}
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   cfg.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}

	s := &Server{
		db:          db,
		classifier:  classifier,
		refresher:   refresher,
		auth:        auth.NewService(db),
		sessions:    store,
		limiter:     NewRateLimiter(cfg.Server.PredictRate, cfg.Server.PredictBurst),
		loc:         loc,
		latestCount: cfg.Display.LatestCount,
		pageSize:    cfg.Display.PageSize,
		pages:       pages,
		mux:         http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return withCorrelationID(logRequests(s.mux))
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /login", s.handleLoginPage)
	s.mux.HandleFunc("POST /login", s.handleLogin)
	s.mux.HandleFunc("GET /register", s.handleRegisterPage)
	s.mux.HandleFunc("POST /register", s.handleRegister)
	s.mux.HandleFunc("POST /logout", s.handleLogout)

	s.mux.Handle("GET /dashboard", s.requireAuth(s.handleDashboard))
	s.mux.Handle("GET /tweets", s.requireAuth(s.handleTweets))
	s.mux.Handle("GET /feedback", s.requireAuth(s.handleFeedback))
	s.mux.Handle("POST /save-feedback", s.requireAuth(s.handleSaveFeedback))
	s.mux.Handle("POST /refresh", s.requireAuth(s.handleRefresh))

	s.mux.HandleFunc("/", s.handleNotFound)

	s.mux.HandleFunc("GET /predict", s.handlePredict)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// render executes a page template inside base.html. Flashes are consumed
// here, so the session is saved before anything is written.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, status int, data map[string]any) {
	tmpl, ok := s.pages[name]
	if !ok {
		slog.ErrorContext(r.Context(), "template not found", "template", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["User"]; !ok {
		data["User"] = currentUser(r)
	}
	data["Flashes"] = s.takeFlashes(w, r)

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		slog.ErrorContext(r.Context(), "rendering template", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "url", "http://"+addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
