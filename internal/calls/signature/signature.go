// Package signature verifies that inbound voice platform webhooks were signed with the shared secret.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HeaderName carries the hex encoded HMAC-SHA256 of the raw request body.
const HeaderName = "X-Voice-Signature"

const prefix = "sha256="

// Sign returns the header value for body under secret.
func Sign(body, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write(body)
	return prefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether header is a valid signature of body under secret.
// body must be the exact bytes received on the wire.
func Verify(body []byte, header string, secret []byte) bool {
	if len(secret) == 0 {
		return false
	}

	value := strings.TrimSpace(header)
	if len(value) >= len(prefix) && strings.EqualFold(value[:len(prefix)], prefix) {
		value = value[len(prefix):]
	}
	if value == "" {
		return false
	}

	received, err := hex.DecodeString(value)
	if err != nil || len(received) != sha256.Size {
		return false
	}

	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write(body)
	return hmac.Equal(received, mac.Sum(nil))
}
