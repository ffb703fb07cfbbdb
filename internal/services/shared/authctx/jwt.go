package authctx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// adminClaims is the claims shape admin tokens carry.
type adminClaims struct {
	jwt.RegisteredClaims
	Admin bool `json:"admin"`
}

// JWTIntrospector verifies HS256-signed tokens locally instead of calling an
// introspection endpoint.
type JWTIntrospector struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTIntrospector builds a verifier for tokens signed with secret. An empty
// issuer accepts any issuer.
func NewJWTIntrospector(secret, issuer string) (*JWTIntrospector, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &JWTIntrospector{
		secret: []byte(secret),
		issuer: strings.TrimSpace(issuer),
		now:    time.Now,
	}, nil
}

// Introspect reports an inactive result for tokens that fail verification.
func (j *JWTIntrospector) Introspect(_ context.Context, token string) (IntrospectionResult, error) {
	if j == nil || len(j.secret) == 0 {
		return IntrospectionResult{}, errors.New("jwt introspector is not configured")
	}
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		options = append(options, jwt.WithIssuer(j.issuer))
	}

	var claims adminClaims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), &claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	}, options...)
	if err != nil {
		return IntrospectionResult{Active: false}, nil
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return IntrospectionResult{Active: false}, nil
	}
	return IntrospectionResult{Active: true, UserID: claims.Subject, Admin: claims.Admin}, nil
}

// SignAdminToken issues a token the JWTIntrospector accepts.
func SignAdminToken(secret, issuer, subject string, admin bool, ttl time.Duration, now time.Time) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("jwt secret is required")
	}
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("subject is required")
	}
	claims := adminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    strings.TrimSpace(issuer),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Admin: admin,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
