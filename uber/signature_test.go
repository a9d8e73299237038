package uber

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature_RoundTrip(t *testing.T) {
	body := []byte(`{"event_id":"evt-1","event_type":"orders.notification"}`)
	secret := "test@key@123"

	require.NoError(t, VerifySignature(body, sign(body, secret), secret))
}

func TestVerifySignature_SingleByteMutations(t *testing.T) {
	body := []byte(`{"event_id":"evt-1"}`)
	secret := "test@key@123"
	good := sign(body, secret)

	for i := range body {
		mutated := append([]byte(nil), body...)
		mutated[i] ^= 0x01
		assert.ErrorIs(t, VerifySignature(mutated, good, secret), ErrInvalidSignature,
			"mutating body byte %d must break verification", i)
	}

	// flip one hex character of the signature
	badSig := []byte(good)
	if badSig[0] == 'a' {
		badSig[0] = 'b'
	} else {
		badSig[0] = 'a'
	}
	assert.ErrorIs(t, VerifySignature(body, string(badSig), secret), ErrInvalidSignature)
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	body := []byte(`{}`)
	assert.ErrorIs(t, VerifySignature(body, sign(body, "other-secret"), "test@key@123"), ErrInvalidSignature)
}

func TestVerifySignature_NonHexSignature(t *testing.T) {
	assert.ErrorIs(t, VerifySignature([]byte(`{}`), "not-hex!", "secret"), ErrInvalidSignature)
}

func TestVerifySignature_MissingHeader(t *testing.T) {
	assert.ErrorIs(t, VerifySignature([]byte(`{}`), "", "secret"), ErrMissingSignature)
}

func TestVerifySignature_MissingSecret(t *testing.T) {
	body := []byte(`{}`)
	assert.ErrorIs(t, VerifySignature(body, sign(body, "whatever"), ""), ErrSigningSecretNotSet)
}

func TestVerifySignature_ReserializedBodyFails(t *testing.T) {
	// Whitespace differences change the digest; verification must be run
	// on the exact wire bytes.
	wire := []byte(`{"a": 1}`)
	reserialized := []byte(`{"a":1}`)
	secret := "test@key@123"

	assert.ErrorIs(t, VerifySignature(reserialized, sign(wire, secret), secret), ErrInvalidSignature)
}
