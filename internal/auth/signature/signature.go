// Package signature computes the request signature of the legacy
// user info API.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"time"
)

// Sign returns base64(HMAC-SHA256(secret, decimal timestamp)). The message is
// the decimal string form of the millisecond timestamp and the raw digest is
// base64 encoded, not hex.
func Sign(timestampMillis int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestampMillis, 10)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Now returns the current time as integer milliseconds
func Now() int64 {
	return time.Now().UnixMilli()
}
