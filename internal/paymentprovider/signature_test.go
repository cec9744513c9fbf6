package paymentprovider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"data":{"id":"evt_1","attributes":{"type":"payment.paid"}}}`)

	tests := []struct {
		name      string
		secret    string
		body      []byte
		signature string
		want      bool
	}{
		{
			name:      "корректная подпись",
			secret:    secret,
			body:      body,
			signature: sign(secret, body),
			want:      true,
		},
		{
			name:   "изменен один байт тела",
			secret: secret,
			body: func() []byte {
				b := append([]byte(nil), body...)
				b[10] ^= 0x01
				return b
			}(),
			signature: sign(secret, body),
			want:      false,
		},
		{
			name:      "чужой секрет",
			secret:    secret,
			body:      body,
			signature: sign("other_secret", body),
			want:      false,
		},
		{
			name:      "пустой секрет никогда не проходит",
			secret:    "",
			body:      body,
			signature: sign("", body),
			want:      false,
		},
		{
			name:      "пустая подпись",
			secret:    secret,
			body:      body,
			signature: "",
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifySignature(tt.secret, tt.body, tt.signature))
		})
	}
}
