// Package auth implements bearer-token checks for the ingest API.
package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// ExtractBearerToken pulls the token out of an Authorization header.
func ExtractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("missing Authorization header")
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", errors.New("invalid Authorization header format")
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", errors.New("missing API key")
	}
	return token, nil
}

// TokenMatches compares a presented token against the configured key in
// constant time. Empty keys never match.
func TokenMatches(presented, configured string) bool {
	if presented == "" || configured == "" {
		return false
	}
	if len(presented) != len(configured) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) == 1
}
