package generator

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
)

// CodeLength is the number of characters in a short code.
const CodeLength = 8

// GenerateCode returns a random short code of CodeLength lowercase hex characters.
func GenerateCode() (string, error) {
	b := make([]byte, CodeLength/2)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// GenerateID returns a URL-safe random identifier of approximately the given length.
func GenerateID(length int) (string, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}

	id := base64.RawURLEncoding.EncodeToString(b)
	if len(id) > length {
		id = id[:length]
	}

	return id, nil
}
