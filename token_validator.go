package auth

import (
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// TokenValidator validates tokens and extracts claims without tying callers
// to a specific signing implementation.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(tokenString string) (AuthClaims, error)

// Validate satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Validate(tokenString string) (AuthClaims, error) {
	if f == nil {
		return nil, ErrTokenMalformed
	}
	return f(tokenString)
}

var _ TokenValidator = (*TokenIssuer)(nil)

// Validate verifies signature, issuer, audience and expiration with the
// same settings used to issue, and returns the token claims.
func (ts *TokenIssuer) Validate(tokenString string) (AuthClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ts.issuer),
		jwt.WithAudience(ts.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(ts.now),
	)

	token, err := parser.ParseWithClaims(tokenString, jwt.MapClaims{}, func(t *jwt.Token) (any, error) {
		return ts.signingKey, nil
	})
	if err != nil {
		return nil, normalizeValidationError(err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenIssuer validate could not decode claims")
		return nil, ErrTokenMalformed
	}

	claims, err := tokenClaimsFromMap(mapClaims)
	if err != nil {
		return nil, normalizeValidationError(err)
	}

	return claims, nil
}

func normalizeValidationError(err error) error {
	if err == nil {
		return nil
	}

	clone := ErrTokenMalformed.Clone()
	if goerrors.Is(err, jwt.ErrTokenExpired) {
		clone = ErrTokenExpired.Clone()
	}

	clone.Source = err
	return clone.WithMetadata(map[string]any{
		"cause": err.Error(),
	})
}
