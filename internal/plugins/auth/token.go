package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// errNoExpiry is returned for tokens without a usable exp claim.
var errNoExpiry = errors.New("token has no exp claim")

// decodeToken reads the claims and expiry out of a JWT without checking
// its signature. See the package comment for why that is acceptable here.
func decodeToken(token string) (Claims, time.Time, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("decoding token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, time.Time{}, fmt.Errorf("decoding token: unexpected claims type %T", parsed.Claims)
	}

	exp, err := expiryOf(claims)
	if err != nil {
		return nil, time.Time{}, err
	}
	return Claims(claims), exp, nil
}

// expiryOf converts the exp claim (seconds since epoch) into a time. Zero
// counts as missing.
func expiryOf(claims jwt.MapClaims) (time.Time, error) {
	var secs float64
	switch v := claims["exp"].(type) {
	case float64:
		secs = v
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, errNoExpiry
		}
		secs = f
	default:
		return time.Time{}, errNoExpiry
	}

	if secs == 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return time.Time{}, errNoExpiry
	}
	return time.UnixMilli(int64(secs * 1000)), nil
}
