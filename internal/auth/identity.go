package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IdentitySource reads the acting identity the upstream proxy asserted on
// a request. With an empty Secret the header value is taken as-is; with a
// Secret the header must carry an HS256 token whose subject is the identity.
type IdentitySource struct {
	Header string
	Secret []byte
}

// FromRequest returns the asserted identity, or "" when the request carries
// none. A malformed or badly signed assertion also yields "" so the caller
// treats the request as unauthenticated rather than failing it.
func (s *IdentitySource) FromRequest(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get(s.Header))
	if raw == "" {
		return ""
	}
	if len(s.Secret) == 0 {
		return raw
	}
	sub, err := parseAssertion(s.Secret, raw)
	if err != nil {
		return ""
	}
	return sub
}

func parseAssertion(secret []byte, tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithLeeway(30*time.Second))
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", errors.New("invalid assertion")
	}
	return claims.Subject, nil
}
