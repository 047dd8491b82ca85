package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/TobiSchelling/TweetPulse/internal/database"
	apperrors "github.com/TobiSchelling/TweetPulse/internal/errors"
	"github.com/TobiSchelling/TweetPulse/internal/pipeline"
)

// colorClasses cycle over the latest tweets on the dashboard.
var colorClasses = []string{"text-success", "text-danger", "text-primary", "text-info", "text-warning"}

// ColoredTweet pairs a tweet with its dashboard colour class.
type ColoredTweet struct {
	database.Tweet
	Color string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	counts, err := s.db.GetSentimentCounts()
	if err != nil {
		s.serverError(w, r, "loading sentiment counts", err)
		return
	}
	latest, err := s.db.GetLatestTweets(s.latestCount)
	if err != nil {
		s.serverError(w, r, "loading latest tweets", err)
		return
	}

	colored := make([]ColoredTweet, len(latest))
	for i, t := range latest {
		colored[i] = ColoredTweet{Tweet: t, Color: colorClasses[i%len(colorClasses)]}
	}

	s.render(w, r, "dashboard.html", http.StatusOK, map[string]any{
		"Counts": counts,
		"Latest": colored,
	})
}

func (s *Server) handleTweets(w http.ResponseWriter, r *http.Request) {
	counts, err := s.db.GetSentimentCounts()
	if err != nil {
		s.serverError(w, r, "loading sentiment counts", err)
		return
	}
	tweets, page, err := s.db.GetTweetsPage(pageParam(r), s.pageSize)
	if err != nil {
		s.serverError(w, r, "loading tweets", err)
		return
	}

	s.render(w, r, "tweets.html", http.StatusOK, map[string]any{
		"Counts":     counts,
		"Tweets":     tweets,
		"Pagination": page,
		"PagePath":   "/tweets",
	})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	items, page, err := s.db.GetFeedbackPage(pageParam(r), s.pageSize)
	if err != nil {
		s.serverError(w, r, "loading feedback", err)
		return
	}

	s.render(w, r, "feedback.html", http.StatusOK, map[string]any{
		"Feedback":   items,
		"Pagination": page,
		"PagePath":   "/feedback",
	})
}

func (s *Server) handleSaveFeedback(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.PostFormValue("name"))
	phone := strings.TrimSpace(r.PostFormValue("phone"))
	content := strings.TrimSpace(r.PostFormValue("content"))

	if name == "" || content == "" {
		s.addFlash(w, r, flashDanger, "Name and feedback are required.")
		http.Redirect(w, r, "/feedback", http.StatusFound)
		return
	}

	if _, err := s.db.InsertFeedback(name, phone, content); err != nil {
		s.serverError(w, r, "saving feedback", err)
		return
	}

	s.addFlash(w, r, flashSuccess, "New feedback added.")
	http.Redirect(w, r, "/feedback", http.StatusFound)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		s.addFlash(w, r, flashDanger, "Refreshing is not available.")
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	// The run outlives a client disconnect but keeps the correlation ID.
	ctx := context.WithoutCancel(r.Context())
	result, err := s.refresher.Refresh(ctx, pipeline.TriggerWeb)
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		s.addFlash(w, r, flashDanger, "A refresh is already running.")
	case err != nil:
		slog.ErrorContext(r.Context(), "refresh failed", "error", err)
		s.addFlash(w, r, flashDanger, "Fetching new tweets failed.")
	default:
		slog.InfoContext(r.Context(), "tweets refreshed", "stored", result.Stored)
		s.addFlash(w, r, flashSuccess, "New tweets fetched.")
	}
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.renderError(w, r, apperrors.InternalError(msg, err))
}

// pageParam returns the ?page= value, defaulting to 1 when absent or invalid.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
