// Package alias derives short, URL-safe aliases from origin URLs.
//
// The derivation is deterministic: for a fixed secret key, the same origin
// always produces the same alias. This is what makes shortening idempotent
// without requiring an existence check up front.
package alias

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
)

// DefaultLength is the alias length used when no other is configured.
const DefaultLength = 6

var (
	// ErrEmptyOrigin is returned when the origin URL is empty.
	ErrEmptyOrigin = errors.New("empty origin url")
	// ErrEmptyKey is returned when the secret key is empty.
	ErrEmptyKey = errors.New("empty secret key")
	// ErrInvalidLength is returned when the requested length is not positive.
	ErrInvalidLength = errors.New("alias length must be positive")
	// ErrInsufficientChars is returned when the encoded digest does not
	// contain enough alphanumeric characters to fill the requested length.
	ErrInsufficientChars = errors.New("not enough alphanumeric characters in digest")
)

// Generate derives a fixed-length alias from an origin URL and a secret key.
//
// The origin is hashed with SHA-256, the digest is authenticated with
// HMAC-SHA512 under key, the MAC is base64-encoded, every character outside
// [A-Za-z0-9] is stripped and the first length characters are returned.
// Generate is pure and safe for concurrent use.
func Generate(origin, key string, length int) (string, error) {
	const op = "alias.Generate"

	switch {
	case origin == "":
		return "", fmt.Errorf("%s: %w", op, ErrEmptyOrigin)
	case key == "":
		return "", fmt.Errorf("%s: %w", op, ErrEmptyKey)
	case length <= 0:
		return "", fmt.Errorf("%s: %w", op, ErrInvalidLength)
	}

	digest := sha256.Sum256([]byte(origin))

	mac := hmac.New(sha512.New, []byte(key))
	mac.Write(digest[:])
	encoded := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	out := make([]byte, 0, length)
	for i := 0; i < len(encoded) && len(out) < length; i++ {
		if isAlphanumeric(encoded[i]) {
			out = append(out, encoded[i])
		}
	}

	if len(out) < length {
		return "", fmt.Errorf("%s: %w", op, ErrInsufficientChars)
	}

	return string(out), nil
}

func isAlphanumeric(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
