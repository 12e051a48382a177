package token

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var parser = jwt.NewParser()

var errMalformed = errors.New("token is not three dot-separated segments")

// Claims decodes the payload segment without verifying the signature. The
// header is not inspected, so a missing or unknown alg does not matter.
func Claims(token string) (jwt.MapClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, errMalformed
	}
	payload, err := parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, err
	}
	claims := jwt.MapClaims{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ExpiresAt returns the exp claim. ok is false when the token has no
// readable payload or no exp.
func ExpiresAt(token string) (exp time.Time, ok bool) {
	claims, err := Claims(token)
	if err != nil {
		return time.Time{}, false
	}
	date, err := claims.GetExpirationTime()
	if err != nil || date == nil {
		return time.Time{}, false
	}
	return date.Time, true
}

// Expired reports whether token is expired at now. Unparseable tokens and
// tokens without exp count as expired.
func Expired(token string, now time.Time) bool {
	exp, ok := ExpiresAt(token)
	if !ok {
		return true
	}
	return now.UnixMilli() >= exp.UnixMilli()
}

// Valid reports whether s holds a token that has not expired at now.
func Valid(s Store, now time.Time) bool {
	tok := s.Token()
	return tok != "" && !Expired(tok, now)
}
