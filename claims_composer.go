package auth

import "strings"

// ComposeClaims builds the claim set issued for an identity: sub and email
// (both the email address), the stored claims in store order, then one role
// claim per role. The result is rebuilt on every call.
func ComposeClaims(identity Identity, stored []Claim, roles []string) (*ClaimsIdentity, error) {
	if identity == nil || strings.TrimSpace(identity.Email()) == "" {
		return nil, ErrClaimsInvariant
	}

	email := identity.Email()
	claims := make([]Claim, 0, 2+len(stored)+len(roles))
	claims = append(claims,
		NewClaim(ClaimTypeSubject, email),
		NewClaim(ClaimTypeEmail, email),
	)
	claims = append(claims, stored...)
	for _, role := range roles {
		claims = append(claims, NewClaim(ClaimTypeRole, role))
	}

	return &ClaimsIdentity{Claims: claims}, nil
}
