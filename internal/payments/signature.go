package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign computes the gateway's confirmation signature for a transaction:
// hex(HMAC-SHA256(orderReference + "|" + paymentReference, secret)).
func Sign(orderReference, paymentReference, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderReference + "|" + paymentReference))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether the supplied signature matches the expected
// one. Pure and constant-time; callers must not touch the database before
// this returns true.
func VerifySignature(orderReference, paymentReference, signature, secret string) bool {
	if orderReference == "" || paymentReference == "" || signature == "" || secret == "" {
		return false
	}
	expected := Sign(orderReference, paymentReference, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
