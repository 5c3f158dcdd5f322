package sessionauth

import (
	"net/http"
	"time"
)

// SessionHandle is returned by a successful Login. SessionID is the opaque
// token the client presents on later requests.
type SessionHandle struct {
	SessionID string
	Username  string
	ExpiresAt time.Time

	cookie CookieConfig
}

// Cookie renders the handle as the session cookie configured on the Engine.
func (h *SessionHandle) Cookie() *http.Cookie {
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    h.SessionID,
		Path:     h.cookie.Path,
		Expires:  h.ExpiresAt.UTC(),
		Secure:   h.cookie.Secure,
		HttpOnly: h.cookie.HTTPOnly,
		SameSite: h.cookie.SameSite,
	}
}

// Stats summarizes store contents.
type Stats struct {
	Users          int
	ActiveSessions int
}
