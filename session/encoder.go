package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

// CurrentSchemaVersion is written into every new session record. Version 2
// stores timestamps in Unix milliseconds; version 1 lines carry seconds and
// are still read.
const CurrentSchemaVersion uint8 = 2

const schemaVersionSeconds uint8 = 1

var errUnsupportedSchema = errors.New("unsupported session schema version")

// record is the on-disk shape of one line of the session file.
type record struct {
	Version   uint8  `json:"v"`
	ID        string `json:"id"`
	Username  string `json:"username"`
	CreatedAt int64  `json:"created_at"`
	ExpiresAt int64  `json:"expires_at"`
}

// Encode renders s as a single JSON line without the trailing newline.
func Encode(s *Session) ([]byte, error) {
	if s.SessionID == "" {
		return nil, errors.New("session id is empty")
	}
	if s.Username == "" {
		return nil, errors.New("session username is empty")
	}

	version := s.SchemaVersion
	if version == 0 {
		version = CurrentSchemaVersion
	}

	return json.Marshal(record{
		Version:   version,
		ID:        s.SessionID,
		Username:  s.Username,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	})
}

// Decode parses one session line.
func Decode(line []byte) (*Session, error) {
	var r record
	if err := json.Unmarshal(line, &r); err != nil {
		return nil, fmt.Errorf("decode session record: %w", err)
	}
	switch r.Version {
	case CurrentSchemaVersion:
	case schemaVersionSeconds:
		r.CreatedAt *= 1000
		r.ExpiresAt *= 1000
	default:
		return nil, fmt.Errorf("%w: %d", errUnsupportedSchema, r.Version)
	}
	if r.ID == "" || r.Username == "" {
		return nil, errors.New("session record missing id or username")
	}

	return &Session{
		SchemaVersion: CurrentSchemaVersion,
		SessionID:     r.ID,
		Username:      r.Username,
		CreatedAt:     r.CreatedAt,
		ExpiresAt:     r.ExpiresAt,
	}, nil
}
