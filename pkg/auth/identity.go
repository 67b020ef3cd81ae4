// Package auth establishes the calling user for reflectd requests.
//
// Every review, promotion and ingest operation is scoped to a user ID. In
// header mode a trusted proxy supplies the ID; in local mode the daemon
// serves a single OS user and derives the ID from the username.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var (
	// ErrEmptyUsername is returned when an empty username is provided.
	ErrEmptyUsername = errors.New("username cannot be empty")
)

// DeriveUserID returns SHA256(username) hex-encoded: stable per username
// and not reversible.
func DeriveUserID(username string) (string, error) {
	if username == "" {
		return "", ErrEmptyUsername
	}
	hash := sha256.Sum256([]byte(username))
	return hex.EncodeToString(hash[:]), nil
}
