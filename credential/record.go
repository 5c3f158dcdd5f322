package credential

import (
	"encoding/json"
	"errors"
	"fmt"
)

const schemaVersion = 1

// Record is one stored credential.
type Record struct {
	Username  string
	Verifier  string
	CreatedAt int64
}

type wireRecord struct {
	Version   int    `json:"v"`
	Username  string `json:"username"`
	Verifier  string `json:"verifier"`
	CreatedAt int64  `json:"created_at"`
}

func encodeRecord(r Record) ([]byte, error) {
	return json.Marshal(wireRecord{
		Version:   schemaVersion,
		Username:  r.Username,
		Verifier:  r.Verifier,
		CreatedAt: r.CreatedAt,
	})
}

func decodeRecord(line []byte) (Record, error) {
	var w wireRecord
	if err := json.Unmarshal(line, &w); err != nil {
		return Record{}, fmt.Errorf("decode credential record: %w", err)
	}
	if w.Version != schemaVersion {
		return Record{}, fmt.Errorf("unsupported credential schema version %d", w.Version)
	}
	if w.Username == "" {
		return Record{}, errors.New("credential record missing username")
	}
	return Record{Username: w.Username, Verifier: w.Verifier, CreatedAt: w.CreatedAt}, nil
}
