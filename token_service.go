package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenLifetime is how long an issued token stays valid
const TokenLifetime = 2 * time.Hour

// TokenConfig holds the values the issuer needs at construction time
type TokenConfig struct {
	SigningKey string
	Issuer     string
	Audiences  []string
}

// IssuedToken is a signed token ready to be serialized. It is never persisted.
type IssuedToken struct {
	token     *jwt.Token
	IssuedAt  time.Time
	ExpiresAt time.Time
	Audience  string
	Issuer    string
}

// Claims returns the payload the token carries
func (t *IssuedToken) Claims() jwt.MapClaims {
	if t == nil || t.token == nil {
		return nil
	}
	claims, _ := t.token.Claims.(jwt.MapClaims)
	return claims
}

// TokenIssuer signs HS256 tokens for a claims identity and validates them back
type TokenIssuer struct {
	signingKey []byte
	issuer     string
	audience   string
	audiences  []string
	lifetime   time.Duration
	now        func() time.Time
	logger     Logger
}

// TokenIssuerOption configures a TokenIssuer
type TokenIssuerOption func(*TokenIssuer)

// WithClock sets the time source used for iat and exp
func WithClock(now func() time.Time) TokenIssuerOption {
	return func(t *TokenIssuer) {
		if now != nil {
			t.now = now
		}
	}
}

// WithTokenLogger sets the issuer logger
func WithTokenLogger(logger Logger) TokenIssuerOption {
	return func(t *TokenIssuer) {
		t.logger = normalizeLogger(logger)
	}
}

// NewTokenIssuer validates cfg and returns an issuer. Missing signing key,
// issuer, or first audience are configuration errors and should stop startup.
func NewTokenIssuer(cfg TokenConfig, opts ...TokenIssuerOption) (*TokenIssuer, error) {
	if strings.TrimSpace(cfg.SigningKey) == "" {
		return nil, ErrMissingSigningKey
	}

	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, ErrMissingIssuer
	}

	if len(cfg.Audiences) == 0 || strings.TrimSpace(cfg.Audiences[0]) == "" {
		return nil, ErrMissingAudience
	}

	audiences := make([]string, len(cfg.Audiences))
	copy(audiences, cfg.Audiences)

	ti := &TokenIssuer{
		signingKey: []byte(cfg.SigningKey),
		issuer:     cfg.Issuer,
		audience:   audiences[0],
		audiences:  audiences,
		lifetime:   TokenLifetime,
		now:        time.Now,
		logger:     defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ti)
		}
	}

	return ti, nil
}

// Issuer returns the configured issuer
func (ts *TokenIssuer) Issuer() string {
	return ts.issuer
}

// Audience returns the audience written into tokens, the first configured one
func (ts *TokenIssuer) Audience() string {
	return ts.audience
}

// CreateToken builds a signed token for identity. Claim types that appear
// more than once are written as arrays in claim order.
func (ts *TokenIssuer) CreateToken(identity *ClaimsIdentity) (*IssuedToken, error) {
	if identity == nil {
		return nil, errors.New("claims identity must not be nil", errors.CategoryInternal)
	}

	if identity.Subject() == "" {
		return nil, ErrClaimsInvariant
	}

	if err := guardIdentityClaims(identity); err != nil {
		return nil, err
	}

	now := ts.now().UTC().Truncate(time.Second)
	exp := now.Add(ts.lifetime)

	claims := jwt.MapClaims{}
	for _, claim := range identity.Claims {
		existing, ok := claims[claim.Type]
		if !ok {
			claims[claim.Type] = claim.Value
			continue
		}
		switch v := existing.(type) {
		case string:
			claims[claim.Type] = []string{v, claim.Value}
		case []string:
			claims[claim.Type] = append(v, claim.Value)
		}
	}

	claims["iss"] = ts.issuer
	claims["aud"] = ts.audience
	claims["iat"] = jwt.NewNumericDate(now)
	claims["exp"] = jwt.NewNumericDate(exp)

	return &IssuedToken{
		token:     jwt.NewWithClaims(jwt.SigningMethodHS256, claims),
		IssuedAt:  now,
		ExpiresAt: exp,
		Audience:  ts.audience,
		Issuer:    ts.issuer,
	}, nil
}

// WriteToken serializes a token into its compact form
func (ts *TokenIssuer) WriteToken(token *IssuedToken) (string, error) {
	if token == nil || token.token == nil {
		return "", errors.New("token must not be nil", errors.CategoryInternal)
	}

	signed, err := token.token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

// Issue is CreateToken followed by WriteToken
func (ts *TokenIssuer) Issue(identity *ClaimsIdentity) (string, *IssuedToken, error) {
	token, err := ts.CreateToken(identity)
	if err != nil {
		return "", nil, err
	}

	signed, err := ts.WriteToken(token)
	if err != nil {
		return "", nil, err
	}

	return signed, token, nil
}
