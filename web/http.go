package web

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"

	"github.com/MrEthical07/sessionauth"
	"github.com/MrEthical07/sessionauth/internal/logging"
	"github.com/MrEthical07/sessionauth/middleware"
)

const maxFormBytes = 64 << 10

// Handler routes /register, /login, /logout and /profile to a Service.
// Fields come from the query string on GET and the urlencoded body on POST.
type Handler struct {
	service *Service
	mux     *http.ServeMux
	logger  *slog.Logger
}

func NewHandler(engine *sessionauth.Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	h := &Handler{
		service: NewService(engine, logger),
		mux:     http.NewServeMux(),
		logger:  logger,
	}

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		h.mux.HandleFunc(method+" /register", h.withFields(h.service.Register))
		h.mux.HandleFunc(method+" /login", h.withFields(h.service.Login))
		h.mux.HandleFunc(method+" /logout", h.withCookies(h.service.Logout))
		h.mux.HandleFunc(method+" /profile", h.withCookies(h.service.Profile))
	}
	h.mux.Handle("GET /whoami", middleware.RequireSession(engine)(http.HandlerFunc(whoami)))

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) withFields(call func(context.Context, Fields) Response) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, err := parseFields(w, r)
		if err != nil {
			h.logger.Debug("unreadable form", "path", r.URL.Path, "err", err)
			writeResponse(w, page(http.StatusBadRequest, "Bad Request", "The form could not be read."))
			return
		}
		writeResponse(w, call(requestContext(r), fields))
	}
}

func (h *Handler) withCookies(call func(context.Context, []*http.Cookie) Response) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, call(requestContext(r), r.Cookies()))
	}
}

func parseFields(w http.ResponseWriter, r *http.Request) (Fields, error) {
	var values url.Values
	if r.Method == http.MethodPost {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		values = r.PostForm
	} else {
		values = r.URL.Query()
	}

	fields := make(Fields, len(values))
	for k := range values {
		fields[k] = values.Get(k)
	}
	return fields, nil
}

func requestContext(r *http.Request) context.Context {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return sessionauth.WithClientIP(r.Context(), host)
}

func writeResponse(w http.ResponseWriter, resp Response) {
	for k, vs := range resp.Headers {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	if resp.SetCookie != nil {
		http.SetCookie(w, resp.SetCookie)
	}
	w.WriteHeader(resp.Status)
	_, _ = io.WriteString(w, resp.Body)
}

func whoami(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.UsernameFromContext(r.Context())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, username+"\n")
}
