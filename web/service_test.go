package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/sessionauth"
)

func newEngine(t *testing.T) *sessionauth.Engine {
	t.Helper()

	cfg := sessionauth.DefaultConfig()
	cfg.Storage.DataDir = t.TempDir()
	cfg.Storage.LockTimeout = 100 * time.Millisecond
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Parallelism = 1
	cfg.Cookie.Secure = false

	engine, err := sessionauth.New().WithConfig(cfg).Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)
	return engine
}

func TestServiceRegisterLoginProfileLogout(t *testing.T) {
	svc := NewService(newEngine(t), nil)
	ctx := context.Background()

	resp := svc.Register(ctx, Fields{"username": "alice", "password": "s3cr3t"})
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, resp.Body, "alice")
	assert.Equal(t, "text/html; charset=utf-8", resp.Headers.Get("Content-Type"))

	resp = svc.Login(ctx, Fields{"username": "alice", "password": "s3cr3t"})
	require.Equal(t, http.StatusOK, resp.Status)
	require.NotNil(t, resp.SetCookie)
	assert.Equal(t, "session_id", resp.SetCookie.Name)
	assert.True(t, resp.SetCookie.HttpOnly)
	assert.Equal(t, "/", resp.SetCookie.Path)
	session := resp.SetCookie

	resp = svc.Profile(ctx, []*http.Cookie{session})
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, resp.Body, "Username: alice")
	assert.Contains(t, resp.Body, "Session ID: "+session.Value)

	resp = svc.Logout(ctx, []*http.Cookie{session})
	assert.Equal(t, http.StatusOK, resp.Status)
	require.NotNil(t, resp.SetCookie)
	assert.Equal(t, "", resp.SetCookie.Value)
	assert.Equal(t, -1, resp.SetCookie.MaxAge)
	assert.Equal(t, int64(0), resp.SetCookie.Expires.Unix())

	resp = svc.Profile(ctx, []*http.Cookie{session})
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
}

func TestServiceErrorStatuses(t *testing.T) {
	svc := NewService(newEngine(t), nil)
	ctx := context.Background()

	resp := svc.Register(ctx, Fields{"username": "bob", "password": ""})
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	resp = svc.Register(ctx, Fields{})
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	require.Equal(t, http.StatusOK, svc.Register(ctx, Fields{"username": "carol", "password": "pw"}).Status)
	resp = svc.Register(ctx, Fields{"username": "carol", "password": "other"})
	assert.Equal(t, http.StatusConflict, resp.Status)

	wrong := svc.Login(ctx, Fields{"username": "carol", "password": "nope"})
	unknown := svc.Login(ctx, Fields{"username": "nobody", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, wrong.Status)
	assert.Equal(t, wrong.Status, unknown.Status)
	assert.Equal(t, wrong.Body, unknown.Body)
	assert.Nil(t, wrong.SetCookie)

	resp = svc.Profile(ctx, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
}

func TestServiceValidationMessagesNameTheProblem(t *testing.T) {
	svc := NewService(newEngine(t), nil)
	ctx := context.Background()

	resp := svc.Register(ctx, Fields{"username": "dana", "password": strings.Repeat("p", 1025)})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Contains(t, resp.Body, "too short or too long")
	assert.NotContains(t, resp.Body, "required")

	resp = svc.Register(ctx, Fields{"username": "bad\xffname", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Contains(t, resp.Body, "invalid characters")

	resp = svc.Register(ctx, Fields{"username": "dana"})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Contains(t, resp.Body, "are required")
}

func TestServiceLogoutWithoutCookieStillClears(t *testing.T) {
	svc := NewService(newEngine(t), nil)

	resp := svc.Logout(context.Background(), nil)
	assert.Equal(t, http.StatusOK, resp.Status)
	require.NotNil(t, resp.SetCookie)
	assert.Equal(t, "session_id", resp.SetCookie.Name)
	assert.Equal(t, -1, resp.SetCookie.MaxAge)
}

func TestServiceEscapesUserInput(t *testing.T) {
	svc := NewService(newEngine(t), nil)

	resp := svc.Register(context.Background(), Fields{"username": "<script>x</script>", "password": "pw"})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.NotContains(t, resp.Body, "<script>")
	assert.Contains(t, resp.Body, "&lt;script&gt;")
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		nil:                               http.StatusOK,
		sessionauth.ErrValidation:         http.StatusBadRequest,
		sessionauth.ErrConflict:           http.StatusConflict,
		sessionauth.ErrInvalidCredentials: http.StatusUnauthorized,
		sessionauth.ErrUnauthenticated:    http.StatusUnauthorized,
		sessionauth.ErrLoginRateLimited:   http.StatusTooManyRequests,
		sessionauth.ErrStorage:            http.StatusServiceUnavailable,
		sessionauth.ErrStorageLocked:      http.StatusServiceUnavailable,
		errors.New("boom"):                http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusFor(err), "error %v", err)
	}

	wrapped := fmt.Errorf("%w: disk full", sessionauth.ErrStorage)
	assert.Equal(t, http.StatusServiceUnavailable, StatusFor(wrapped))
	assert.False(t, strings.Contains(messageFor(wrapped), "disk full"))
}
