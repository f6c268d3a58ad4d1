package services

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateToken returns a 43-character URL-safe random token for public
// access links.
func GenerateToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
