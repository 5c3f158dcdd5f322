package session

import "time"

// Session is one issued login. Timestamps are Unix milliseconds.
type Session struct {
	SchemaVersion uint8

	SessionID string
	Username  string

	CreatedAt int64
	ExpiresAt int64
}

// Expired reports whether the session is no longer valid at now. A session
// is valid only while now is strictly before ExpiresAt.
func (s *Session) Expired(now time.Time) bool {
	return now.UnixMilli() >= s.ExpiresAt
}

// ExpiresTime returns ExpiresAt as a time.Time.
func (s *Session) ExpiresTime() time.Time {
	return time.UnixMilli(s.ExpiresAt)
}

// expiryMillis rounds t up to the next whole millisecond so the stored expiry
// is never earlier than t.
func expiryMillis(t time.Time) int64 {
	ms := t.UnixMilli()
	if t.After(time.UnixMilli(ms)) {
		ms++
	}
	return ms
}
