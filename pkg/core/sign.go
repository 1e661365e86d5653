package core

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// SignHex returns the HMAC-SHA256 digest of message keyed by secret,
// hex encoded. Deterministic and stateless; exchanges that sign query
// strings (Binance style) use this inside their request signers.
func SignHex(message, secret string) string {
	return hex.EncodeToString(hmacSHA256(message, secret))
}

// SignBase64 returns the HMAC-SHA256 digest of message keyed by secret,
// base64 encoded. Exchanges that sign header strings (KuCoin style)
// use this inside their request signers.
func SignBase64(message, secret string) string {
	return base64.StdEncoding.EncodeToString(hmacSHA256(message, secret))
}

func hmacSHA256(message, secret string) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(message))
	return h.Sum(nil)
}
