package auth

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// PrincipalClaims is the subset of token claims the service reads.
type PrincipalClaims struct {
	Subject           string
	Issuer            string
	PreferredUsername string
	Email             string
	TokenID           string
	ExpiresAt         time.Time
}

// TokenValidator validates bearer tokens. RS256 tokens are checked against
// the identity provider's JWKS; HS256 tokens against a shared key when one
// is configured. Institutions without a JWKS endpoint run HS256 only.
type TokenValidator struct {
	issuer  string
	jwksURL string
	hsKey   []byte
	log     zerolog.Logger
	jwks    atomic.Pointer[keyfunc.JWKS]
}

func NewTokenValidator(ctx context.Context, issuer, jwksURL, hsKey string, log zerolog.Logger) (*TokenValidator, error) {
	if jwksURL == "" && hsKey == "" {
		return nil, errors.New("either a jwks url or an hs256 key is required")
	}

	v := &TokenValidator{
		issuer:  issuer,
		jwksURL: jwksURL,
		hsKey:   []byte(hsKey),
		log:     log.With().Str("component", "token-validator").Logger(),
	}

	if jwksURL != "" {
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
			Ctx:               ctx,
			RefreshInterval:   time.Hour,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				v.log.Error().Err(err).Msg("jwks refresh failed")
			},
		})
		if err != nil {
			return nil, fmt.Errorf("fetch jwks: %w", err)
		}
		v.jwks.Store(jwks)
	}

	return v, nil
}

// Validate parses the raw token and returns the principal claims.
func (v *TokenValidator) Validate(_ context.Context, rawToken string) (*PrincipalClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"RS256", "HS256"}))
	token, err := parser.ParseWithClaims(rawToken, jwt.MapClaims{}, v.keyFor)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}

	iss, _ := claims["iss"].(string)
	if v.issuer != "" && iss != v.issuer {
		return nil, fmt.Errorf("issuer mismatch %s", iss)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, errors.New("sub claim missing")
	}

	out := &PrincipalClaims{
		Subject: sub,
		Issuer:  iss,
	}
	out.PreferredUsername, _ = claims["preferred_username"].(string)
	out.Email, _ = claims["email"].(string)
	out.TokenID, _ = claims["jti"].(string)
	if exp, expErr := claims.GetExpirationTime(); expErr == nil && exp != nil {
		out.ExpiresAt = exp.Time.UTC()
	}
	return out, nil
}

func (v *TokenValidator) keyFor(token *jwt.Token) (any, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if len(v.hsKey) == 0 {
			return nil, errors.New("hs256 tokens are not accepted")
		}
		return v.hsKey, nil
	default:
		jwks := v.jwks.Load()
		if jwks == nil {
			return nil, errors.New("jwks not initialised")
		}
		return jwks.Keyfunc(token)
	}
}

// Ready indicates whether token validation is operational.
func (v *TokenValidator) Ready() bool {
	if v.jwksURL == "" {
		return len(v.hsKey) > 0
	}
	return v.jwks.Load() != nil
}
