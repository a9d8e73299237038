package uber

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// SignatureHeader carries the hex-encoded HMAC-SHA256 of the request body.
const SignatureHeader = "x-uber-signature"

var (
	ErrSigningSecretNotSet = errors.New("uber: signing secret not configured")
	ErrMissingSignature    = errors.New("uber: missing signature header")
	ErrInvalidSignature    = errors.New("uber: invalid signature")
)

// VerifySignature checks the signature the platform sent against an
// HMAC-SHA256 digest of the exact raw request body. The body must be the
// untouched wire bytes; re-serializing the JSON first changes whitespace and
// key order and breaks the digest. Comparison is constant-time.
func VerifySignature(body []byte, signature, secret string) error {
	if secret == "" {
		return ErrSigningSecretNotSet
	}
	if signature == "" {
		return ErrMissingSignature
	}
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}
