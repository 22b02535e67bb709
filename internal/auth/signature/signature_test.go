package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSign_Golden(t *testing.T) {
	assert.Equal(t, "RYcPBtOexO4rGoTeOrhsVN4P2L7F1rMlZ1p5zWt9nEM=", Sign(1700000000000, "secret123"))
}

func TestSign_Properties(t *testing.T) {
	tests := []struct {
		name   string
		ts     int64
		secret string
	}{
		{name: "zero timestamp", ts: 0, secret: "secret123"},
		{name: "empty secret", ts: 1700000000000, secret: ""},
		{name: "unicode secret", ts: 1234567890123, secret: "密钥"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sign(tt.ts, tt.secret)

			raw, err := base64.StdEncoding.DecodeString(got)
			require.NoError(t, err)
			assert.Len(t, raw, sha256.Size)

			assert.Equal(t, got, Sign(tt.ts, tt.secret), "signature must be deterministic")
			assert.NotEqual(t, got, Sign(tt.ts+1, tt.secret))
		})
	}
}

func TestSign_MessageIsDecimalString(t *testing.T) {
	mac := hmac.New(sha256.New, []byte("k"))
	mac.Write([]byte("42"))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, Sign(42, "k"))
}

func TestNow(t *testing.T) {
	before := time.Now().UnixMilli()
	got := Now()
	after := time.Now().UnixMilli()

	assert.GreaterOrEqual(t, got, before)
	assert.LessOrEqual(t, got, after)
}
