package auth

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeToken_IgnoresSignature(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "abc", "exp": int64(1_900_000_000)})
	// Corrupt the signature segment; decoding must still succeed.
	token = token[:len(token)-4] + "AAAA"

	claims, exp, err := decodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "abc", claims.Subject())
	assert.Equal(t, time.Unix(1_900_000_000, 0).UTC(), exp.UTC())
}

func TestDecodeToken_UnsignedPayload(t *testing.T) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"exp":1900000000.5}`))

	_, exp, err := decodeToken(header + "." + payload + ".")
	require.NoError(t, err)
	assert.Equal(t, int64(1_900_000_000_500), exp.UnixMilli())
}

func TestDecodeToken_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"garbage":      "garbage",
		"bad payload":  "e30.!!!.sig",
		"string exp":   signToken(t, jwt.MapClaims{"exp": "tomorrow"}),
		"no exp":       signToken(t, jwt.MapClaims{"sub": "x"}),
		"zero exp":     signToken(t, jwt.MapClaims{"exp": 0}),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := decodeToken(token)
			assert.Error(t, err)
		})
	}
}
