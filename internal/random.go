package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// SessionID is a 128-bit opaque session identifier.
type SessionID [16]byte

// EncodedSessionIDLen is the length of the base64url form of a SessionID.
const EncodedSessionIDLen = 22

const fingerprintLen = 8

var errInvalidSessionID = errors.New("invalid session id")

// NewSessionID draws a fresh identifier from the system CSPRNG.
func NewSessionID() (SessionID, error) {
	var sid SessionID
	_, err := rand.Read(sid[:])
	return sid, err
}

func (s SessionID) Bytes() []byte {
	return s[:]
}

func (s SessionID) String() string {
	// base64url, no padding, compact
	return base64.RawURLEncoding.EncodeToString(s[:])
}

// ParseSessionID decodes the textual form produced by [SessionID.String].
func ParseSessionID(sessionID string) (SessionID, error) {
	var sid SessionID

	if len(sessionID) != EncodedSessionIDLen {
		return sid, errInvalidSessionID
	}
	raw, err := base64.RawURLEncoding.DecodeString(sessionID)
	if err != nil {
		return sid, errInvalidSessionID
	}
	if len(raw) != len(sid) {
		return sid, errInvalidSessionID
	}

	copy(sid[:], raw)
	return sid, nil
}

// NewSessionIDString is NewSessionID in its textual form.
func NewSessionIDString() (string, error) {
	sid, err := NewSessionID()
	if err != nil {
		return "", err
	}
	return sid.String(), nil
}

// Fingerprint returns a short log-safe prefix of a session identifier.
func Fingerprint(sessionID string) string {
	if len(sessionID) <= fingerprintLen {
		return sessionID
	}
	return sessionID[:fingerprintLen] + "…"
}
