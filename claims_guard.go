package auth

import (
	"fmt"
)

// issuerOwnedClaims are set by the TokenIssuer and can not come from an identity
var issuerOwnedClaims = map[string]struct{}{
	"iss": {},
	"aud": {},
	"exp": {},
	"iat": {},
	"nbf": {},
	"jti": {},
}

func isRegisteredClaim(claimType string) bool {
	if claimType == ClaimTypeSubject {
		return true
	}
	_, ok := issuerOwnedClaims[claimType]
	return ok
}

// guardIdentityClaims rejects claim sets that would clobber what the
// issuer writes, or that carry more than one subject.
func guardIdentityClaims(identity *ClaimsIdentity) error {
	subjects := 0
	for _, claim := range identity.Claims {
		if claim.Type == "" {
			return reservedClaimViolation("<empty>")
		}
		if _, ok := issuerOwnedClaims[claim.Type]; ok {
			return reservedClaimViolation(claim.Type)
		}
		if claim.Type == ClaimTypeSubject {
			subjects++
		}
	}

	if subjects != 1 {
		return reservedClaimViolation(ClaimTypeSubject)
	}

	return nil
}

func reservedClaimViolation(claimType string) error {
	return ErrReservedClaim.Clone().WithMetadata(map[string]any{
		"claim": claimType,
		"hint":  fmt.Sprintf("claim %q is managed by the token issuer", claimType),
	})
}
