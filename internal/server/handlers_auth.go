package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/TobiSchelling/TweetPulse/internal/auth"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.sessionUser(r) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.sessionUser(r) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	s.render(w, r, "login.html", http.StatusOK, map[string]any{"Form": auth.LoginForm{}})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	form := auth.LoginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}

	user, err := s.auth.Authenticate(form)
	if err != nil {
		data := map[string]any{"Form": form}
		var fieldErrs auth.FieldErrors
		switch {
		case errors.As(err, &fieldErrs):
			data["Errors"] = fieldErrs
		case errors.Is(err, auth.ErrInvalidCredentials):
			data["Error"] = "Invalid email and/or password."
		default:
			slog.ErrorContext(r.Context(), "login failed", "error", err)
			data["Error"] = "Something went wrong. Please try again."
		}
		s.render(w, r, "login.html", http.StatusUnprocessableEntity, data)
		return
	}

	if err := s.startSession(w, r, user.ID, ""); err != nil {
		s.serverError(w, r, "saving session", err)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if s.sessionUser(r) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	s.render(w, r, "register.html", http.StatusOK, map[string]any{"Form": auth.RegisterForm{}})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	form := auth.RegisterForm{
		Email:    r.PostFormValue("email"),
		Name:     r.PostFormValue("name"),
		Password: r.PostFormValue("password"),
		Confirm:  r.PostFormValue("confirm"),
	}

	user, err := s.auth.Register(form)
	if err != nil {
		data := map[string]any{"Form": form}
		var fieldErrs auth.FieldErrors
		switch {
		case errors.As(err, &fieldErrs):
			data["Errors"] = fieldErrs
		case errors.Is(err, auth.ErrEmailTaken):
			data["Errors"] = auth.FieldErrors{"email": "Email already registered."}
		default:
			slog.ErrorContext(r.Context(), "registration failed", "error", err)
			data["Error"] = "Something went wrong. Please try again."
		}
		s.render(w, r, "register.html", http.StatusUnprocessableEntity, data)
		return
	}

	slog.InfoContext(r.Context(), "user registered", "user_id", user.ID)
	if err := s.startSession(w, r, user.ID, "You registered and are now logged in. Welcome!"); err != nil {
		s.serverError(w, r, "saving session", err)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessions.Get(r, sessionName)
	delete(session.Values, sessionKeyUserID)
	session.AddFlash("You were logged out.", flashSuccess)
	if err := session.Save(r, w); err != nil {
		slog.ErrorContext(r.Context(), "saving session", "error", err)
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

// startSession logs userID in, optionally queueing a success flash.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, userID int64, flash string) error {
	session, _ := s.sessions.Get(r, sessionName)
	session.Values[sessionKeyUserID] = userID
	if flash != "" {
		session.AddFlash(flash, flashSuccess)
	}
	return session.Save(r, w)
}
