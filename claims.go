package auth

import (
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claim types issued by the workflow. Role claims serialize under "role".
const (
	ClaimTypeSubject  = "sub"
	ClaimTypeEmail    = "email"
	ClaimTypeFullName = "FullName"
	ClaimTypeRole     = "role"
)

// Claim is a typed statement about an identity
type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// NewClaim returns a Claim
func NewClaim(claimType, value string) Claim {
	return Claim{Type: claimType, Value: value}
}

func (c Claim) String() string {
	return c.Type + "=" + c.Value
}

// ClaimsIdentity is the ordered claim set that becomes a token payload
type ClaimsIdentity struct {
	Claims []Claim `json:"claims"`
}

// Subject returns the first sub claim value
func (c *ClaimsIdentity) Subject() string {
	v, _ := c.FindFirst(ClaimTypeSubject)
	return v
}

// Email returns the first email claim value
func (c *ClaimsIdentity) Email() string {
	v, _ := c.FindFirst(ClaimTypeEmail)
	return v
}

// FindFirst returns the value of the first claim of the given type
func (c *ClaimsIdentity) FindFirst(claimType string) (string, bool) {
	if c == nil {
		return "", false
	}
	for _, claim := range c.Claims {
		if claim.Type == claimType {
			return claim.Value, true
		}
	}
	return "", false
}

// FindAll returns the values of every claim of the given type, in order
func (c *ClaimsIdentity) FindAll(claimType string) []string {
	if c == nil {
		return nil
	}
	var out []string
	for _, claim := range c.Claims {
		if claim.Type == claimType {
			out = append(out, claim.Value)
		}
	}
	return out
}

// Roles returns every role claim value
func (c *ClaimsIdentity) Roles() []string {
	return c.FindAll(ClaimTypeRole)
}

// HasRole checks for a role claim with the given value
func (c *ClaimsIdentity) HasRole(role string) bool {
	return slices.Contains(c.Roles(), role)
}

// AuthClaims is the read side of a validated token
type AuthClaims interface {
	Subject() string
	Email() string
	Roles() []string
	HasRole(role string) bool
	Get(claimType string) []string
	Expires() time.Time
	IssuedAt() time.Time
}

// TokenClaims is the concrete AuthClaims built from a validated token
type TokenClaims struct {
	Issuer    string              `json:"iss"`
	Audience  []string            `json:"aud"`
	Sub       string              `json:"sub"`
	Values    map[string][]string `json:"claims"`
	IssuedAtT time.Time           `json:"iat"`
	ExpiresAt time.Time           `json:"exp"`
}

// Verify interface compliance
var _ AuthClaims = (*TokenClaims)(nil)

// Subject returns the subject claim
func (c *TokenClaims) Subject() string {
	return c.Sub
}

// Email returns the email claim
func (c *TokenClaims) Email() string {
	if v := c.Values[ClaimTypeEmail]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Roles returns all role claims
func (c *TokenClaims) Roles() []string {
	return c.Values[ClaimTypeRole]
}

// HasRole checks if the token carries the given role
func (c *TokenClaims) HasRole(role string) bool {
	return slices.Contains(c.Roles(), role)
}

// Get returns every value of a non registered claim
func (c *TokenClaims) Get(claimType string) []string {
	return c.Values[claimType]
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	return c.ExpiresAt
}

// IssuedAt returns the issued at time
func (c *TokenClaims) IssuedAt() time.Time {
	return c.IssuedAtT
}

func tokenClaimsFromMap(claims jwt.MapClaims) (*TokenClaims, error) {
	out := &TokenClaims{Values: map[string][]string{}}

	var err error
	if out.Issuer, err = claims.GetIssuer(); err != nil {
		return nil, err
	}
	if out.Sub, err = claims.GetSubject(); err != nil {
		return nil, err
	}
	aud, err := claims.GetAudience()
	if err != nil {
		return nil, err
	}
	out.Audience = []string(aud)

	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAtT = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}

	for key, raw := range claims {
		if isRegisteredClaim(key) {
			continue
		}
		switch v := raw.(type) {
		case string:
			out.Values[key] = []string{v}
		case []any:
			for _, item := range v {
				out.Values[key] = append(out.Values[key], fmt.Sprint(item))
			}
		default:
			out.Values[key] = []string{fmt.Sprint(v)}
		}
	}

	// sub is a registered claim but it is part of the identity claim set too
	if out.Sub != "" {
		out.Values[ClaimTypeSubject] = []string{out.Sub}
	}

	return out, nil
}
