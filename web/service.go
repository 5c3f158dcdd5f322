package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/sessionauth"
	"github.com/MrEthical07/sessionauth/internal/logging"
)

// Fields are the decoded form fields of a request.
type Fields map[string]string

// Response is everything an adapter needs to answer a request.
type Response struct {
	Status    int
	Body      string
	Headers   http.Header
	SetCookie *http.Cookie
}

// Service maps form fields and cookies onto Engine calls and renders the
// outcome as HTML.
type Service struct {
	engine *sessionauth.Engine
	logger *slog.Logger
}

func NewService(engine *sessionauth.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{engine: engine, logger: logger}
}

// Register expects "username" and "password" fields.
func (s *Service) Register(ctx context.Context, fields Fields) Response {
	username := fields["username"]
	if err := s.engine.Register(ctx, username, fields["password"]); err != nil {
		return s.failure(err)
	}
	return page(http.StatusOK, "Registered", "Account "+username+" created.")
}

// Login expects "username" and "password" fields and sets the session cookie
// on success.
func (s *Service) Login(ctx context.Context, fields Fields) Response {
	handle, err := s.engine.Login(ctx, fields["username"], fields["password"])
	if err != nil {
		return s.failure(err)
	}
	resp := page(http.StatusOK, "Logged in", "Welcome, "+handle.Username+".")
	resp.SetCookie = handle.Cookie()
	return resp
}

// Logout always clears the session cookie, whether or not a session existed.
func (s *Service) Logout(ctx context.Context, cookies []*http.Cookie) Response {
	if id := s.sessionID(cookies); id != "" {
		if err := s.engine.Logout(ctx, id); err != nil {
			resp := s.failure(err)
			resp.SetCookie = s.engine.ClearingCookie()
			return resp
		}
	}
	resp := page(http.StatusOK, "Logged out", "Your session has ended.")
	resp.SetCookie = s.engine.ClearingCookie()
	return resp
}

// Profile shows the username and session id of the caller's live session.
func (s *Service) Profile(ctx context.Context, cookies []*http.Cookie) Response {
	id := s.sessionID(cookies)
	username, err := s.engine.Profile(ctx, id)
	if err != nil {
		return s.failure(err)
	}
	return render(http.StatusOK, profileTemplate, profileView{Username: username, SessionID: id})
}

func (s *Service) sessionID(cookies []*http.Cookie) string {
	name := s.engine.CookieName()
	for _, c := range cookies {
		if c != nil && c.Name == name {
			return c.Value
		}
	}
	return ""
}

func (s *Service) failure(err error) Response {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logging.LogError(s.logger, "request failed", err)
	}
	return page(status, http.StatusText(status), messageFor(err))
}

// StatusFor maps Engine errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, sessionauth.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, sessionauth.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, sessionauth.ErrInvalidCredentials),
		errors.Is(err, sessionauth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, sessionauth.ErrLoginRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, sessionauth.ErrStorage):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// messageFor never echoes err itself; storage causes can carry file paths.
func messageFor(err error) string {
	switch {
	case errors.Is(err, sessionauth.ErrMissingCredentials):
		return "Username and password are required."
	case errors.Is(err, sessionauth.ErrUsernamePolicy):
		return "That username contains invalid characters."
	case errors.Is(err, sessionauth.ErrPasswordPolicy):
		return "That password is too short or too long."
	case errors.Is(err, sessionauth.ErrValidation):
		return "Username or password is not acceptable."
	case errors.Is(err, sessionauth.ErrConflict):
		return "That username is already taken."
	case errors.Is(err, sessionauth.ErrInvalidCredentials):
		return "Invalid username or password."
	case errors.Is(err, sessionauth.ErrUnauthenticated):
		return "You are not logged in."
	case errors.Is(err, sessionauth.ErrLoginRateLimited):
		return "Too many failed attempts. Try again later."
	case errors.Is(err, sessionauth.ErrStorage):
		return "The service is busy. Try again shortly."
	default:
		return "Something went wrong."
	}
}
